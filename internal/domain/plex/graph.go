// Package plex implements the complex graph: mol instances joined by
// site-to-site bindings, the structural queries on it (free sites, connected
// components, topological hash) and the partial/total structure-preserving
// maps between two graphs together with the backtracking isomorphism search
// that builds them.
package plex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/pkg/errors"
)

// SiteSpec addresses one binding site of one mol instance.
type SiteSpec struct {
	Mol  int
	Site int
}

func (s SiteSpec) String() string { return fmt.Sprintf("%d.%d", s.Mol, s.Site) }

// Less orders site specs by mol index, then site index.
func (s SiteSpec) Less(o SiteSpec) bool {
	if s.Mol != o.Mol {
		return s.Mol < o.Mol
	}
	return s.Site < o.Site
}

// Binding is an undirected edge between two binding sites.  Left and Right
// carry no meaning beyond the order in which the binding was declared.
type Binding struct {
	Left  SiteSpec
	Right SiteSpec
}

// Other returns the endpoint opposite to s; ok is false when s is not an
// endpoint of b.
func (b Binding) Other(s SiteSpec) (SiteSpec, bool) {
	switch s {
	case b.Left:
		return b.Right, true
	case b.Right:
		return b.Left, true
	}
	return SiteSpec{}, false
}

// Graph is an immutable complex: mol instances (vertices) and bindings
// (edges).  Indices are the stable identity every downstream reference uses.
//
// A Graph is always simple: a site is the endpoint of at most one binding and
// no binding joins two sites of the same mol.  NewGraph enforces this; every
// algorithm in the package relies on it.
type Graph struct {
	mols     []*mol.MolType
	bindings []Binding
	bound    map[SiteSpec]int
}

// NewGraph validates and builds a graph.  The slices are copied.
func NewGraph(mols []*mol.MolType, bindings []Binding) (*Graph, error) {
	g := &Graph{
		mols:     append([]*mol.MolType(nil), mols...),
		bindings: append([]Binding(nil), bindings...),
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// MustGraph is NewGraph for statically known inputs; it panics on error.
func MustGraph(mols []*mol.MolType, bindings []Binding) *Graph {
	g, err := NewGraph(mols, bindings)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) validate() error {
	for i, t := range g.mols {
		if t == nil {
			return errors.Default(errors.ErrCodeInvalidMolDef).WithDetailf("mol %d has no type", i)
		}
	}
	used := make(map[SiteSpec]int, 2*len(g.bindings))
	for bi, b := range g.bindings {
		for _, s := range [2]SiteSpec{b.Left, b.Right} {
			if s.Mol < 0 || s.Mol >= len(g.mols) {
				return errors.Default(errors.ErrCodeIndexOutOfRange).WithDetailf("binding %d: mol %d of %d", bi, s.Mol, len(g.mols))
			}
			if s.Site < 0 || s.Site >= g.mols[s.Mol].SiteCount() {
				return errors.Default(errors.ErrCodeIndexOutOfRange).WithDetailf("binding %d: %s has no site %d", bi, g.mols[s.Mol].Name(), s.Site)
			}
			if prev, dup := used[s]; dup {
				return errors.Default(errors.ErrCodeNotSimpleGraph).WithDetailf("site %s bound by bindings %d and %d", s, prev, bi)
			}
			used[s] = bi
		}
		if b.Left.Mol == b.Right.Mol {
			return errors.Default(errors.ErrCodeNotSimpleGraph).WithDetailf("binding %d joins mol %d to itself", bi, b.Left.Mol)
		}
	}
	g.bound = used
	return nil
}

// MolCount returns the number of mol instances.
func (g *Graph) MolCount() int { return len(g.mols) }

// BindingCount returns the number of bindings.
func (g *Graph) BindingCount() int { return len(g.bindings) }

// Mol returns the type of mol instance i.
func (g *Graph) Mol(i int) *mol.MolType { return g.mols[i] }

// Mols returns a copy of the mol vector.
func (g *Graph) Mols() []*mol.MolType { return append([]*mol.MolType(nil), g.mols...) }

// Binding returns binding i.
func (g *Graph) Binding(i int) Binding { return g.bindings[i] }

// Bindings returns a copy of the binding vector.
func (g *Graph) Bindings() []Binding { return append([]Binding(nil), g.bindings...) }

// SiteCount returns the total number of binding sites over all mols.
func (g *Graph) SiteCount() int {
	n := 0
	for _, t := range g.mols {
		n += t.SiteCount()
	}
	return n
}

// indexBindings builds the site index of a graph assembled without
// validate.
func (g *Graph) indexBindings() {
	g.bound = make(map[SiteSpec]int, 2*len(g.bindings))
	for i, b := range g.bindings {
		g.bound[b.Left] = i
		g.bound[b.Right] = i
	}
}

// siteToBinding maps every bound site to the index of its binding.  The map
// is shared; callers must not modify it.
func (g *Graph) siteToBinding() map[SiteSpec]int { return g.bound }

// BindingAt returns the index of the binding engaging site s.
func (g *Graph) BindingAt(s SiteSpec) (int, bool) {
	if i, ok := g.bound[s]; ok {
		return i, true
	}
	return -1, false
}

// Key returns a string that is equal for two graphs exactly when they have
// the same mol types at the same indices and the same bindings in the same
// order.  It identifies the graph as written, not its isomorphism class.
func (g *Graph) Key() string {
	var sb strings.Builder
	for _, t := range g.mols {
		sb.WriteString(strconv.Itoa(int(t.ID())))
		sb.WriteByte(',')
	}
	sb.WriteByte('|')
	for _, b := range g.bindings {
		fmt.Fprintf(&sb, "%d.%d-%d.%d,", b.Left.Mol, b.Left.Site, b.Right.Mol, b.Right.Site)
	}
	return sb.String()
}

func (g *Graph) String() string {
	names := make([]string, len(g.mols))
	for i, t := range g.mols {
		names[i] = t.Name()
	}
	bs := make([]string, len(g.bindings))
	for i, b := range g.bindings {
		bs[i] = fmt.Sprintf("%s-%s", b.Left, b.Right)
	}
	return fmt.Sprintf("[%s]{%s}", strings.Join(names, " "), strings.Join(bs, " "))
}

// ─────────────────────────────────────────────────────────────────────────────
// Derived graphs
// ─────────────────────────────────────────────────────────────────────────────

// Join returns the graph made of left, then right with its mol indices
// offset by left.MolCount(), plus one new binding between leftSite (indexed
// in left) and rightSite (indexed in right).
func Join(left, right *Graph, leftSite, rightSite SiteSpec) (*Graph, error) {
	offset := len(left.mols)
	mols := make([]*mol.MolType, 0, offset+len(right.mols))
	mols = append(mols, left.mols...)
	mols = append(mols, right.mols...)

	bindings := make([]Binding, 0, len(left.bindings)+len(right.bindings)+1)
	bindings = append(bindings, left.bindings...)
	for _, b := range right.bindings {
		bindings = append(bindings, Binding{
			Left:  SiteSpec{Mol: b.Left.Mol + offset, Site: b.Left.Site},
			Right: SiteSpec{Mol: b.Right.Mol + offset, Site: b.Right.Site},
		})
	}
	bindings = append(bindings, Binding{
		Left:  leftSite,
		Right: SiteSpec{Mol: rightSite.Mol + offset, Site: rightSite.Site},
	})
	return NewGraph(mols, bindings)
}

// WithoutBinding returns a copy of g with binding idx removed; the remaining
// bindings keep their relative order.
func (g *Graph) WithoutBinding(idx int) (*Graph, error) {
	if idx < 0 || idx >= len(g.bindings) {
		return nil, errors.Default(errors.ErrCodeIndexOutOfRange).WithDetailf("binding %d of %d", idx, len(g.bindings))
	}
	bindings := make([]Binding, 0, len(g.bindings)-1)
	bindings = append(bindings, g.bindings[:idx]...)
	bindings = append(bindings, g.bindings[idx+1:]...)
	out := &Graph{mols: append([]*mol.MolType(nil), g.mols...), bindings: bindings}
	out.indexBindings()
	return out, nil
}

// Permute relabels g: mol i of g becomes mol perm[i] of the result and
// binding j becomes binding bindingPerm[j].  A nil bindingPerm keeps the
// binding order.  With flip set, every binding's endpoints are swapped.
func (g *Graph) Permute(perm []int, bindingPerm []int, flip bool) (*Graph, error) {
	if len(perm) != len(g.mols) {
		return nil, errors.Default(errors.ErrCodeBadPermutation).WithDetailf("mol permutation of %d for %d mols", len(perm), len(g.mols))
	}
	if !isPermutation(perm) {
		return nil, errors.Default(errors.ErrCodeBadPermutation).WithDetailf("%v", perm)
	}
	if bindingPerm == nil {
		bindingPerm = make([]int, len(g.bindings))
		for i := range bindingPerm {
			bindingPerm[i] = i
		}
	}
	if len(bindingPerm) != len(g.bindings) || !isPermutation(bindingPerm) {
		return nil, errors.Default(errors.ErrCodeBadPermutation).WithDetailf("binding permutation %v", bindingPerm)
	}
	mols := make([]*mol.MolType, len(g.mols))
	for i, t := range g.mols {
		mols[perm[i]] = t
	}
	bindings := make([]Binding, len(g.bindings))
	for j, b := range g.bindings {
		l := SiteSpec{Mol: perm[b.Left.Mol], Site: b.Left.Site}
		r := SiteSpec{Mol: perm[b.Right.Mol], Site: b.Right.Site}
		if flip {
			l, r = r, l
		}
		bindings[bindingPerm[j]] = Binding{Left: l, Right: r}
	}
	return NewGraph(mols, bindings)
}

func isPermutation(p []int) bool {
	seen := make([]bool, len(p))
	for _, v := range p {
		if v < 0 || v >= len(p) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Builder
// ─────────────────────────────────────────────────────────────────────────────

// Builder assembles a graph by name, resolving site names against the mol
// types.  Errors are deferred to Build.
type Builder struct {
	mols     []*mol.MolType
	bindings []Binding
	err      error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// AddMol appends a mol instance and returns its index.
func (b *Builder) AddMol(t *mol.MolType) int {
	b.mols = append(b.mols, t)
	return len(b.mols) - 1
}

// Bind adds a binding between the named sites of two mol instances.
func (b *Builder) Bind(leftMol int, leftSite string, rightMol int, rightSite string) *Builder {
	if b.err != nil {
		return b
	}
	l, err := b.resolve(leftMol, leftSite)
	if err != nil {
		b.err = err
		return b
	}
	r, err := b.resolve(rightMol, rightSite)
	if err != nil {
		b.err = err
		return b
	}
	b.bindings = append(b.bindings, Binding{Left: l, Right: r})
	return b
}

func (b *Builder) resolve(m int, site string) (SiteSpec, error) {
	if m < 0 || m >= len(b.mols) {
		return SiteSpec{}, errors.Default(errors.ErrCodeIndexOutOfRange).WithDetailf("mol %d of %d", m, len(b.mols))
	}
	si, ok := b.mols[m].SiteIndex(site)
	if !ok {
		return SiteSpec{}, errors.Default(errors.ErrCodeUnknownSite).WithDetailf("%s.%s", b.mols[m].Name(), site)
	}
	return SiteSpec{Mol: m, Site: si}, nil
}

// Build validates and returns the graph.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewGraph(b.mols, b.bindings)
}
