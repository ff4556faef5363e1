package plex

import (
	"github.com/turtacn/plexnet/pkg/errors"
)

// Unmapped marks an index with no image.
const Unmapped = -1

// Map is a partial structure-preserving map from a source graph to a target
// graph: MolMap[i] is the target index of source mol i and BindingMap[j] the
// target index of source binding j, Unmapped where no image is assigned yet.
type Map struct {
	MolMap     []int
	BindingMap []int
}

// NewMap returns a map with every index unmapped.
func NewMap(molCount, bindingCount int) Map {
	m := Map{MolMap: make([]int, molCount), BindingMap: make([]int, bindingCount)}
	for i := range m.MolMap {
		m.MolMap[i] = Unmapped
	}
	for i := range m.BindingMap {
		m.BindingMap[i] = Unmapped
	}
	return m
}

// Clone returns a deep copy.
func (m Map) Clone() Map {
	return Map{
		MolMap:     append([]int(nil), m.MolMap...),
		BindingMap: append([]int(nil), m.BindingMap...),
	}
}

// canMapMol reports whether source mol src may map onto target mol tgt:
// either it already does, or it is unmapped and both have the same type.
func (m Map) canMapMol(src, tgt int, from, to *Graph) bool {
	cur := m.MolMap[src]
	if cur == tgt {
		return true
	}
	return cur == Unmapped && from.mols[src].ID() == to.mols[tgt].ID()
}

func (m Map) canMapSite(src, tgt SiteSpec, from, to *Graph) bool {
	return src.Site == tgt.Site && m.canMapMol(src.Mol, tgt.Mol, from, to)
}

// canMapBinding tests whether source binding srcB can map onto target
// binding tgtB in the given orientation, consistently with the partial map.
// flip pairs the endpoints crosswise (source left with target right).
func (m Map) canMapBinding(srcB, tgtB int, flip bool, from, to *Graph) bool {
	if cur := m.BindingMap[srcB]; cur != Unmapped && cur != tgtB {
		return false
	}
	s := from.bindings[srcB]
	t := to.bindings[tgtB]
	if flip {
		return m.canMapSite(s.Left, t.Right, from, to) && m.canMapSite(s.Right, t.Left, from, to)
	}
	return m.canMapSite(s.Left, t.Left, from, to) && m.canMapSite(s.Right, t.Right, from, to)
}

// doMapBinding commits srcB → tgtB and the two endpoint mol images.
func (m Map) doMapBinding(srcB, tgtB int, flip bool, from, to *Graph) {
	s := from.bindings[srcB]
	t := to.bindings[tgtB]
	if flip {
		m.MolMap[s.Left.Mol] = t.Right.Mol
		m.MolMap[s.Right.Mol] = t.Left.Mol
	} else {
		m.MolMap[s.Left.Mol] = t.Left.Mol
		m.MolMap[s.Right.Mol] = t.Right.Mol
	}
	m.BindingMap[srcB] = tgtB
}

// IsTotal reports whether every index has an image.
func (m Map) IsTotal() bool {
	for _, v := range m.MolMap {
		if v == Unmapped {
			return false
		}
	}
	for _, v := range m.BindingMap {
		if v == Unmapped {
			return false
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Iso
// ─────────────────────────────────────────────────────────────────────────────

// Iso is a pair of mutually inverse maps, Forward from source to target and
// Backward from target to source.  During search it is partial; it is total
// only when a search succeeds with a full isomorphism.
type Iso struct {
	Forward  Map
	Backward Map
}

// NewIso returns an empty iso between src and tgt.
func NewIso(src, tgt *Graph) Iso {
	return Iso{
		Forward:  NewMap(src.MolCount(), src.BindingCount()),
		Backward: NewMap(tgt.MolCount(), tgt.BindingCount()),
	}
}

// IdentityIso returns the iso of g onto itself.
func IdentityIso(g *Graph) Iso {
	iso := NewIso(g, g)
	for i := range iso.Forward.MolMap {
		iso.Forward.MolMap[i] = i
		iso.Backward.MolMap[i] = i
	}
	for i := range iso.Forward.BindingMap {
		iso.Forward.BindingMap[i] = i
		iso.Backward.BindingMap[i] = i
	}
	return iso
}

// Clone returns a deep copy.
func (iso Iso) Clone() Iso {
	return Iso{Forward: iso.Forward.Clone(), Backward: iso.Backward.Clone()}
}

// Invert swaps the direction of the iso.
func (iso Iso) Invert() Iso {
	return Iso{Forward: iso.Backward.Clone(), Backward: iso.Forward.Clone()}
}

// tryMapBinding extends both directions with srcB ↔ tgtB in one
// orientation.  Orientation is symmetric, so the backward map uses the same
// flip.  A binding pair recorded in one direction only means the maps have
// stopped being inverse and is reported as an internal error.
func (iso Iso) tryMapBinding(srcB, tgtB int, flip bool, src, tgt *Graph) (bool, error) {
	if (iso.Forward.BindingMap[srcB] == tgtB) != (iso.Backward.BindingMap[tgtB] == srcB) {
		return false, errors.Default(errors.ErrCodeMapMismatch).WithDetailf("source binding %d, target binding %d", srcB, tgtB)
	}
	if !iso.Forward.canMapBinding(srcB, tgtB, flip, src, tgt) ||
		!iso.Backward.canMapBinding(tgtB, srcB, flip, tgt, src) {
		return false, nil
	}
	iso.Forward.doMapBinding(srcB, tgtB, flip, src, tgt)
	iso.Backward.doMapBinding(tgtB, srcB, flip, tgt, src)
	return true, nil
}

// Verify reports whether iso is a total isomorphism from src onto tgt:
// both maps are total bijections, mutually inverse, preserve mol types, and
// carry every source binding onto a target binding with the same endpoint
// sites in either orientation.
func (iso Iso) Verify(src, tgt *Graph) bool {
	if src.MolCount() != tgt.MolCount() || src.BindingCount() != tgt.BindingCount() {
		return false
	}
	if !iso.VerifyInjection(src, tgt) {
		return false
	}
	return iso.Backward.IsTotal()
}

// VerifyInjection reports whether iso embeds src into tgt: Forward is total
// on src, Backward inverts it, mol types are preserved and every source
// binding lands on a target binding joining the images of its sites.
func (iso Iso) VerifyInjection(src, tgt *Graph) bool {
	f, b := iso.Forward, iso.Backward
	if len(f.MolMap) != src.MolCount() || len(f.BindingMap) != src.BindingCount() {
		return false
	}
	if len(b.MolMap) != tgt.MolCount() || len(b.BindingMap) != tgt.BindingCount() {
		return false
	}
	for i, t := range f.MolMap {
		if t < 0 || t >= tgt.MolCount() || b.MolMap[t] != i {
			return false
		}
		if src.mols[i].ID() != tgt.mols[t].ID() {
			return false
		}
	}
	for j, t := range f.BindingMap {
		if t < 0 || t >= tgt.BindingCount() || b.BindingMap[t] != j {
			return false
		}
		sb, tb := src.bindings[j], tgt.bindings[t]
		l := SiteSpec{Mol: f.MolMap[sb.Left.Mol], Site: sb.Left.Site}
		r := SiteSpec{Mol: f.MolMap[sb.Right.Mol], Site: sb.Right.Site}
		if !(l == tb.Left && r == tb.Right) && !(l == tb.Right && r == tb.Left) {
			return false
		}
	}
	return true
}

// MapSite carries a source site through the forward map.
func (iso Iso) MapSite(s SiteSpec) (SiteSpec, bool) {
	if s.Mol < 0 || s.Mol >= len(iso.Forward.MolMap) {
		return SiteSpec{}, false
	}
	t := iso.Forward.MolMap[s.Mol]
	if t == Unmapped {
		return SiteSpec{}, false
	}
	return SiteSpec{Mol: t, Site: s.Site}, true
}
