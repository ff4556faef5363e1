package mol

import (
	"strconv"
	"strings"
)

// MolParam is the interned handle of one (mol type, state) pair.  Two params
// are equal exactly when their handles are equal; states are never compared
// by value after interning.
type MolParam int

// AnyMod is the wildcard entry of a ModPattern.
const AnyMod ModID = -1

// State is the internal state of a mol instance.  It is a closed sum: the only
// implementations are BasicState and ModState.
type State interface {
	isState()
	key() string
}

// BasicState is the single state of a basic mol.
type BasicState struct{}

// ModState is the state of a modifiable mol: one modification per
// modification site, in site order.
type ModState struct {
	Mods []ModID
}

func (BasicState) isState() {}
func (ModState) isState()   {}

func (BasicState) key() string { return "b" }

func (s ModState) key() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, m := range s.Mods {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(int(m)))
	}
	return sb.String()
}

// ModPattern is a per-modification-site query on a ModState; AnyMod entries
// match every modification.
type ModPattern []ModID

// Matches reports whether the state satisfies the pattern.  A basic state
// matches only the empty pattern.
func (p ModPattern) Matches(s State) bool {
	switch st := s.(type) {
	case BasicState:
		return len(p) == 0
	case ModState:
		if len(p) != len(st.Mods) {
			return false
		}
		for i, want := range p {
			if want != AnyMod && want != st.Mods[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// cloneState returns a copy that shares no slices with s.
func cloneState(s State) State {
	if ms, ok := s.(ModState); ok {
		mods := make([]ModID, len(ms.Mods))
		copy(mods, ms.Mods)
		return ModState{Mods: mods}
	}
	return s
}

// paramEntry is the arena record behind a MolParam.
type paramEntry struct {
	typ    TypeID
	state  State
	shapes []ShapeID
	weight float64
}
