package naming

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/turtacn/plexnet/pkg/errors"
)

const separator = "___"

// OutputState is the canonical token list of a species: mol names in
// canonical order, one (mol, site, mol, site) tuple per binding and one
// (mol, mod site, modification) tuple per modification site.
type OutputState struct {
	Mols     []string
	Bindings [][4]string
	Mods     [][3]string
}

// Equal reports token-wise equality.
func (s OutputState) Equal(o OutputState) bool {
	norm := func(x OutputState) OutputState {
		if len(x.Mols) == 0 {
			x.Mols = nil
		}
		if len(x.Bindings) == 0 {
			x.Bindings = nil
		}
		if len(x.Mods) == 0 {
			x.Mods = nil
		}
		return x
	}
	return reflect.DeepEqual(norm(s), norm(o))
}

// String renders the state for people: mols joined by dots, then bindings
// and modifications in brackets.
func (s OutputState) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(s.Mols, "."))
	if len(s.Bindings) > 0 {
		parts := make([]string, len(s.Bindings))
		for i, b := range s.Bindings {
			parts[i] = fmt.Sprintf("%s.%s-%s.%s", b[0], b[1], b[2], b[3])
		}
		sb.WriteString("[" + strings.Join(parts, " ") + "]")
	}
	if len(s.Mods) > 0 {
		parts := make([]string, len(s.Mods))
		for i, m := range s.Mods {
			parts[i] = fmt.Sprintf("%s.%s=%s", m[0], m[1], m[2])
		}
		sb.WriteString("{" + strings.Join(parts, " ") + "}")
	}
	return sb.String()
}

// tokens flattens the state in encoding order; compare uses it to rank
// candidate labelings.
func (s OutputState) tokens() []string {
	out := make([]string, 0, len(s.Mols)+4*len(s.Bindings)+3*len(s.Mods))
	out = append(out, s.Mols...)
	for _, b := range s.Bindings {
		out = append(out, b[:]...)
	}
	for _, m := range s.Mods {
		out = append(out, m[:]...)
	}
	return out
}

// compare orders states by section lengths, then token by token.
func compare(a, b OutputState) int {
	if c := compareInt(len(a.Mols), len(b.Mols)); c != 0 {
		return c
	}
	if c := compareInt(len(a.Bindings), len(b.Bindings)); c != 0 {
		return c
	}
	if c := compareInt(len(a.Mods), len(b.Mods)); c != 0 {
		return c
	}
	at, bt := a.tokens(), b.tokens()
	for i := range at {
		if c := strings.Compare(at[i], bt[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Encoding
// ─────────────────────────────────────────────────────────────────────────────

// Encode assembles the canonical name.  Each token is prefixed by its length,
// written as one digit below ten and as _<len>_ otherwise; the three
// sections are introduced by "___".  The result is decoded again and must
// reproduce s exactly.
func Encode(s OutputState) (string, error) {
	for _, tok := range s.tokens() {
		if tok == "" {
			return "", errors.Default(errors.ErrCodeNameRoundTrip).WithDetail("empty token")
		}
	}
	var sb strings.Builder
	sb.WriteString(separator)
	for _, m := range s.Mols {
		writeToken(&sb, m)
	}
	sb.WriteString(separator)
	for _, b := range s.Bindings {
		for _, tok := range b {
			writeToken(&sb, tok)
		}
	}
	sb.WriteString(separator)
	for _, m := range s.Mods {
		for _, tok := range m {
			writeToken(&sb, tok)
		}
	}
	name := sb.String()

	back, err := Decode(name)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeNameRoundTrip, "canonical name does not decode").WithDetail(name)
	}
	if !back.Equal(s) {
		return "", errors.Default(errors.ErrCodeNameRoundTrip).WithDetail(name)
	}
	return name, nil
}

func writeToken(sb *strings.Builder, tok string) {
	if len(tok) < 10 {
		sb.WriteString(strconv.Itoa(len(tok)))
	} else {
		sb.WriteByte('_')
		sb.WriteString(strconv.Itoa(len(tok)))
		sb.WriteByte('_')
	}
	sb.WriteString(tok)
}

// Decode parses a name produced by Encode.
func Decode(name string) (OutputState, error) {
	var sections [3][]string
	pos, sec := 0, -1
	for pos < len(name) {
		if strings.HasPrefix(name[pos:], separator) {
			sec++
			if sec > 2 {
				return OutputState{}, malformed(name, pos, "too many sections")
			}
			pos += len(separator)
			continue
		}
		if sec < 0 {
			return OutputState{}, malformed(name, pos, "missing leading separator")
		}
		tok, next, err := readToken(name, pos)
		if err != nil {
			return OutputState{}, err
		}
		sections[sec] = append(sections[sec], tok)
		pos = next
	}
	if sec != 2 {
		return OutputState{}, malformed(name, pos, "expected three sections")
	}
	if len(sections[1])%4 != 0 {
		return OutputState{}, malformed(name, pos, "binding tokens are not a multiple of four")
	}
	if len(sections[2])%3 != 0 {
		return OutputState{}, malformed(name, pos, "modification tokens are not a multiple of three")
	}

	out := OutputState{Mols: sections[0]}
	for i := 0; i < len(sections[1]); i += 4 {
		var b [4]string
		copy(b[:], sections[1][i:i+4])
		out.Bindings = append(out.Bindings, b)
	}
	for i := 0; i < len(sections[2]); i += 3 {
		var m [3]string
		copy(m[:], sections[2][i:i+3])
		out.Mods = append(out.Mods, m)
	}
	return out, nil
}

func readToken(name string, pos int) (string, int, error) {
	var n int
	switch c := name[pos]; {
	case c >= '1' && c <= '9':
		n = int(c - '0')
		pos++
	case c == '_':
		end := strings.IndexByte(name[pos+1:], '_')
		if end < 0 {
			return "", 0, malformed(name, pos, "unterminated length")
		}
		v, err := strconv.Atoi(name[pos+1 : pos+1+end])
		if err != nil || v < 10 {
			return "", 0, malformed(name, pos, "bad length")
		}
		n = v
		pos += end + 2
	default:
		return "", 0, malformed(name, pos, "expected a length")
	}
	if pos+n > len(name) {
		return "", 0, malformed(name, pos, "token runs past the end")
	}
	return name[pos : pos+n], pos + n, nil
}

func malformed(name string, pos int, why string) error {
	return errors.Default(errors.ErrCodeMalformedName).WithDetailf("%s at %d in %q", why, pos, name)
}
