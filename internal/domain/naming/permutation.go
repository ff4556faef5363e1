package naming

import (
	"sort"
	"strconv"
	"strings"

	"github.com/turtacn/plexnet/pkg/errors"
)

// Undefined marks a position of a partial permutation with no value.
const Undefined = -1

// Permutation is a partial injective map on {0..n-1}: p[i] is the image of
// i, or Undefined.
type Permutation []int

// NewPermutation returns a permutation of dimension n with every position
// undefined.  The only map on one element is fixed immediately.
func NewPermutation(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = Undefined
	}
	if n == 1 {
		p[0] = 0
	}
	return p
}

// Identity returns the identity of dimension n.
func Identity(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Clone returns a copy.
func (p Permutation) Clone() Permutation { return append(Permutation(nil), p...) }

// IsLegal reports whether every value is Undefined or in range and no value
// repeats.
func (p Permutation) IsLegal() bool {
	seen := make([]bool, len(p))
	for _, v := range p {
		if v == Undefined {
			continue
		}
		if v < 0 || v >= len(p) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// IsComplete reports whether p is a legal, fully defined permutation.
func (p Permutation) IsComplete() bool {
	for _, v := range p {
		if v == Undefined {
			return false
		}
	}
	return p.IsLegal()
}

// UndefinedCount returns the number of undefined positions.
func (p Permutation) UndefinedCount() int {
	n := 0
	for _, v := range p {
		if v == Undefined {
			n++
		}
	}
	return n
}

// Set assigns p[pos] = val, refusing values already used elsewhere.
func (p Permutation) Set(pos, val int) error {
	if pos < 0 || pos >= len(p) || val < 0 || val >= len(p) {
		return errors.Default(errors.ErrCodeBadPermutation).WithDetailf("set %d -> %d in dimension %d", pos, val, len(p))
	}
	for i, v := range p {
		if v == val && i != pos {
			return errors.Default(errors.ErrCodeBadPermutation).WithDetailf("value %d already at %d in %s", val, i, p)
		}
	}
	p[pos] = val
	return nil
}

// Of returns the composition p∘q: position i maps to p[q[i]], staying
// undefined where q[i] is.
func (p Permutation) Of(q Permutation) (Permutation, error) {
	if len(p) != len(q) {
		return nil, errors.Default(errors.ErrCodeBadPermutation).WithDetailf("compose dimension %d with %d", len(p), len(q))
	}
	out := make(Permutation, len(p))
	for i, v := range q {
		if v == Undefined {
			out[i] = Undefined
			continue
		}
		out[i] = p[v]
	}
	return out, nil
}

// Inverse returns the inverse map; values p never takes stay undefined.
func (p Permutation) Inverse() Permutation {
	out := NewPermutation(len(p))
	if len(p) == 1 && p[0] == Undefined {
		out[0] = Undefined
	}
	for i, v := range p {
		if v != Undefined {
			out[v] = i
		}
	}
	return out
}

// LeastUnusedValue returns the smallest value p does not take.  It fails on
// a complete permutation.
func (p Permutation) LeastUnusedValue() (int, error) {
	if p.IsComplete() {
		return Undefined, errors.Default(errors.ErrCodeBadPermutation).WithDetailf("%s is complete", p)
	}
	used := make([]bool, len(p))
	for _, v := range p {
		if v >= 0 && v < len(p) {
			used[v] = true
		}
	}
	for i, u := range used {
		if !u {
			return i, nil
		}
	}
	return len(p), nil
}

// MaximallyExtend completes p when exactly one position is undefined.
func (p Permutation) MaximallyExtend() {
	if p.UndefinedCount() != 1 {
		return
	}
	v, err := p.LeastUnusedValue()
	if err != nil {
		return
	}
	for i := range p {
		if p[i] == Undefined {
			p[i] = v
			return
		}
	}
}

// DirectSum returns p followed by q shifted up by len(p).
func DirectSum(p, q Permutation) Permutation {
	out := make(Permutation, 0, len(p)+len(q))
	out = append(out, p...)
	for _, v := range q {
		if v == Undefined {
			out = append(out, Undefined)
			continue
		}
		out = append(out, v+len(p))
	}
	return out
}

// Less orders permutations by dimension, then lexicographically.
func (p Permutation) Less(q Permutation) bool {
	if len(p) != len(q) {
		return len(p) < len(q)
	}
	for i := range p {
		if p[i] != q[i] {
			return p[i] < q[i]
		}
	}
	return false
}

func (p Permutation) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		if v == Undefined {
			parts[i] = "*"
		} else {
			parts[i] = strconv.Itoa(v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AllPermutations returns the n! permutations of dimension n in ascending
// order.  S_0 is empty.
func AllPermutations(n int) []Permutation {
	if n <= 0 {
		return nil
	}
	var out []Permutation
	used := make([]bool, n)
	cur := make(Permutation, 0, n)
	var walk func()
	walk = func() {
		if len(cur) == n {
			out = append(out, cur.Clone())
			return
		}
		for v := 0; v < n; v++ {
			if used[v] {
				continue
			}
			used[v] = true
			cur = append(cur, v)
			walk()
			cur = cur[:len(cur)-1]
			used[v] = false
		}
	}
	walk()
	return out
}

// PermutationsMatchingSignature returns every permutation that maps each
// block of consecutive positions onto itself, where signature lists the
// block sizes in order.  The result is the set of direct sums of one
// permutation per block, in ascending order.
func PermutationsMatchingSignature(signature []int) ([]Permutation, error) {
	out := []Permutation{{}}
	for _, size := range signature {
		if size <= 0 {
			return nil, errors.Default(errors.ErrCodeBadPermutation).WithDetailf("block size %d in signature %v", size, signature)
		}
		block := AllPermutations(size)
		next := make([]Permutation, 0, len(out)*len(block))
		for _, head := range out {
			for _, tail := range block {
				next = append(next, DirectSum(head, tail))
			}
		}
		out = next
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}
