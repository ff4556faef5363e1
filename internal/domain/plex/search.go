package plex

import (
	"sort"

	"github.com/turtacn/plexnet/pkg/errors"
)

// FindIso searches for a full isomorphism from src onto tgt.  found is false
// when the graphs are not isomorphic; err is reserved for fatal conditions
// (an empty or disconnected src, or an inconsistency inside the search).
func FindIso(src, tgt *Graph) (Iso, bool, error) {
	if err := checkPattern(src); err != nil {
		return Iso{}, false, err
	}
	if src.MolCount() != tgt.MolCount() || src.BindingCount() != tgt.BindingCount() {
		return Iso{}, false, nil
	}
	if !sameTypeCounts(src, tgt) {
		return Iso{}, false, nil
	}
	return findInjection(src, tgt)
}

// FindInjection searches for an embedding of pattern into tgt: every pattern
// mol and binding gets a distinct image and bindings land on bindings.  The
// target may be larger than the pattern.
func FindInjection(pattern, tgt *Graph) (Iso, bool, error) {
	if err := checkPattern(pattern); err != nil {
		return Iso{}, false, err
	}
	if pattern.MolCount() > tgt.MolCount() || pattern.BindingCount() > tgt.BindingCount() {
		return Iso{}, false, nil
	}
	return findInjection(pattern, tgt)
}

// checkPattern rejects patterns the search cannot traverse: it seeds from a
// single binding (or the single mol) and can only reach what is connected to
// it.
func checkPattern(g *Graph) error {
	if g.MolCount() == 0 {
		return errors.Default(errors.ErrCodeEmptyGraph).WithDetail("search pattern")
	}
	if !g.IsConnected() {
		return errors.Default(errors.ErrCodeDisconnectedPattern).WithDetail(g.String())
	}
	return nil
}

func findInjection(src, tgt *Graph) (Iso, bool, error) {
	if src.BindingCount() == 0 {
		// Connected with no bindings: a single mol, matched by type alone.
		for ti := range tgt.mols {
			if src.mols[0].ID() == tgt.mols[ti].ID() {
				iso := NewIso(src, tgt)
				iso.Forward.MolMap[0] = ti
				iso.Backward.MolMap[ti] = 0
				return iso, true, nil
			}
		}
		return Iso{}, false, nil
	}
	return mapRestBindings(src, tgt, searchOrder(src), 0, NewIso(src, tgt))
}

// mapRestBindings places source bindings order[pos:] one at a time, trying
// every target binding in both orientations and backtracking on failure.
func mapRestBindings(src, tgt *Graph, order []int, pos int, iso Iso) (Iso, bool, error) {
	if pos >= len(order) {
		return iso, true, nil
	}
	srcB := order[pos]
	for tgtB := range tgt.bindings {
		// A binding between like sites of like mols fits both ways round;
		// only one orientation may extend to a full map.
		for _, flip := range [2]bool{false, true} {
			trial := iso.Clone()
			ok, err := trial.tryMapBinding(srcB, tgtB, flip, src, tgt)
			if err != nil {
				return Iso{}, false, err
			}
			if !ok {
				continue
			}
			res, found, err := mapRestBindings(src, tgt, order, pos+1, trial)
			if err != nil || found {
				return res, found, err
			}
		}
	}
	return Iso{}, false, nil
}

// searchOrder lists the bindings of a connected graph so that every binding
// after the first touches a mol already reached by an earlier one.  Placing
// bindings adjacent to mapped mols lets the partial map prune early.
func searchOrder(g *Graph) []int {
	order := make([]int, 0, len(g.bindings))
	placed := make([]bool, len(g.bindings))
	reached := make([]bool, len(g.mols))
	adj := g.molBindings()

	queue := []int{g.bindings[0].Left.Mol}
	reached[queue[0]] = true
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		for _, bi := range adj[m] {
			if placed[bi] {
				continue
			}
			placed[bi] = true
			order = append(order, bi)
			b := g.bindings[bi]
			for _, end := range [2]int{b.Left.Mol, b.Right.Mol} {
				if !reached[end] {
					reached[end] = true
					queue = append(queue, end)
				}
			}
		}
	}
	return order
}

// sameTypeCounts compares the multisets of mol types.
func sameTypeCounts(a, b *Graph) bool {
	ids := func(g *Graph) []int {
		out := make([]int, len(g.mols))
		for i, t := range g.mols {
			out[i] = int(t.ID())
		}
		sort.Ints(out)
		return out
	}
	x, y := ids(a), ids(b)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
