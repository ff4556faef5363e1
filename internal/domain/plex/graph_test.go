package plex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/pkg/errors"
)

type testTypes struct {
	A, B, C *mol.MolType
}

// newTestTypes defines A(s,u), B(t) and C(x,y,z).
func newTestTypes(t *testing.T) testTypes {
	t.Helper()
	r := mol.NewRegistry(nil)
	a, err := r.AddBasic("A", 10, []mol.SiteDef{{Name: "s"}, {Name: "u"}})
	require.NoError(t, err)
	b, err := r.AddBasic("B", 20, []mol.SiteDef{{Name: "t"}})
	require.NoError(t, err)
	c, err := r.AddBasic("C", 30, []mol.SiteDef{{Name: "x"}, {Name: "y"}, {Name: "z"}})
	require.NoError(t, err)
	return testTypes{A: a, B: b, C: c}
}

func site(m, s int) SiteSpec { return SiteSpec{Mol: m, Site: s} }

// star is A0.s-C1.x, C1.y-B2.t, A3.u-C1.z.  The two A mols hang off
// different sites, so the graph has no non-trivial automorphism.
func star(t *testing.T, tt testTypes) *Graph {
	t.Helper()
	g, err := NewGraph(
		[]*mol.MolType{tt.A, tt.C, tt.B, tt.A},
		[]Binding{
			{Left: site(0, 0), Right: site(1, 0)},
			{Left: site(1, 1), Right: site(2, 0)},
			{Left: site(3, 1), Right: site(1, 2)},
		})
	require.NoError(t, err)
	return g
}

func TestNewGraph_Valid(t *testing.T) {
	tt := newTestTypes(t)
	g := star(t, tt)

	assert.Equal(t, 4, g.MolCount())
	assert.Equal(t, 3, g.BindingCount())
	assert.Equal(t, 8, g.SiteCount())
	assert.Same(t, tt.C, g.Mol(1))

	bi, ok := g.BindingAt(site(2, 0))
	require.True(t, ok)
	assert.Equal(t, 1, bi)
	_, ok = g.BindingAt(site(0, 1))
	assert.False(t, ok)

	other, ok := g.Binding(2).Other(site(1, 2))
	require.True(t, ok)
	assert.Equal(t, site(3, 1), other)
	_, ok = g.Binding(2).Other(site(0, 0))
	assert.False(t, ok)
}

func TestNewGraph_Rejects(t *testing.T) {
	tt := newTestTypes(t)
	cases := []struct {
		name     string
		mols     []*mol.MolType
		bindings []Binding
		code     errors.ErrorCode
	}{
		{"site bound twice", []*mol.MolType{tt.A, tt.B, tt.B},
			[]Binding{{Left: site(0, 0), Right: site(1, 0)}, {Left: site(0, 0), Right: site(2, 0)}},
			errors.ErrCodeNotSimpleGraph},
		{"binding within one mol", []*mol.MolType{tt.A},
			[]Binding{{Left: site(0, 0), Right: site(0, 1)}},
			errors.ErrCodeNotSimpleGraph},
		{"mol out of range", []*mol.MolType{tt.A},
			[]Binding{{Left: site(0, 0), Right: site(5, 0)}},
			errors.ErrCodeIndexOutOfRange},
		{"site out of range", []*mol.MolType{tt.A, tt.B},
			[]Binding{{Left: site(0, 0), Right: site(1, 3)}},
			errors.ErrCodeIndexOutOfRange},
		{"nil type", []*mol.MolType{tt.A, nil}, nil,
			errors.ErrCodeInvalidMolDef},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewGraph(tc.mols, tc.bindings)
			assert.Nil(t, g)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.code), "got %v", err)
			assert.True(t, errors.IsStructural(err))
		})
	}
}

func TestMustGraph_Panics(t *testing.T) {
	tt := newTestTypes(t)
	assert.Panics(t, func() {
		MustGraph([]*mol.MolType{tt.A}, []Binding{{Left: site(0, 0), Right: site(0, 1)}})
	})
}

func TestBuilder(t *testing.T) {
	tt := newTestTypes(t)

	b := NewBuilder()
	a := b.AddMol(tt.A)
	c := b.AddMol(tt.C)
	g, err := b.Bind(a, "s", c, "x").Build()
	require.NoError(t, err)
	assert.Equal(t, []Binding{{Left: site(0, 0), Right: site(1, 0)}}, g.Bindings())

	b = NewBuilder()
	a = b.AddMol(tt.A)
	c = b.AddMol(tt.C)
	_, err = b.Bind(a, "nope", c, "x").Bind(a, "s", c, "y").Build()
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownSite))

	b = NewBuilder()
	b.AddMol(tt.A)
	_, err = b.Bind(0, "s", 4, "x").Build()
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexOutOfRange))
}

func TestGraph_CopiesInputs(t *testing.T) {
	tt := newTestTypes(t)
	mols := []*mol.MolType{tt.A, tt.B}
	bindings := []Binding{{Left: site(0, 0), Right: site(1, 0)}}
	g, err := NewGraph(mols, bindings)
	require.NoError(t, err)

	mols[0] = tt.C
	bindings[0].Left = site(0, 1)
	assert.Same(t, tt.A, g.Mol(0))
	assert.Equal(t, site(0, 0), g.Binding(0).Left)

	out := g.Mols()
	out[1] = tt.C
	assert.Same(t, tt.B, g.Mol(1))
}

func TestJoin(t *testing.T) {
	tt := newTestTypes(t)
	left := MustGraph([]*mol.MolType{tt.A, tt.B}, []Binding{{Left: site(0, 0), Right: site(1, 0)}})
	right := MustGraph([]*mol.MolType{tt.C}, nil)

	j, err := Join(left, right, site(0, 1), site(0, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, j.MolCount())
	assert.Same(t, tt.C, j.Mol(2))
	assert.Equal(t, []Binding{
		{Left: site(0, 0), Right: site(1, 0)},
		{Left: site(0, 1), Right: site(2, 2)},
	}, j.Bindings())
	assert.True(t, j.IsConnected())

	_, err = Join(left, right, site(0, 0), site(0, 0))
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotSimpleGraph))
}

func TestWithoutBinding(t *testing.T) {
	tt := newTestTypes(t)
	g := star(t, tt)

	h, err := g.WithoutBinding(1)
	require.NoError(t, err)
	assert.Equal(t, 2, h.BindingCount())
	assert.Equal(t, g.Binding(0), h.Binding(0))
	assert.Equal(t, g.Binding(2), h.Binding(1))
	assert.False(t, h.IsConnected())
	assert.Equal(t, 3, g.BindingCount(), "source graph is unchanged")

	_, err = g.WithoutBinding(3)
	assert.True(t, errors.IsCode(err, errors.ErrCodeIndexOutOfRange))
}

func TestPermute(t *testing.T) {
	tt := newTestTypes(t)
	g := star(t, tt)

	p, err := g.Permute([]int{2, 0, 3, 1}, []int{1, 2, 0}, true)
	require.NoError(t, err)
	assert.Same(t, tt.A, p.Mol(2))
	assert.Same(t, tt.C, p.Mol(0))
	assert.Same(t, tt.B, p.Mol(3))
	assert.Same(t, tt.A, p.Mol(1))
	assert.Equal(t, Binding{Left: site(0, 0), Right: site(2, 0)}, p.Binding(1))

	_, err = g.Permute([]int{0, 0, 1, 2}, nil, false)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadPermutation))
	_, err = g.Permute([]int{0, 1}, nil, false)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadPermutation))
	_, err = g.Permute([]int{0, 1, 2, 3}, []int{0, 1}, false)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadPermutation))
}

func TestKey(t *testing.T) {
	tt := newTestTypes(t)
	assert.Equal(t, star(t, tt).Key(), star(t, tt).Key())

	p, err := star(t, tt).Permute([]int{0, 1, 2, 3}, nil, true)
	require.NoError(t, err)
	assert.NotEqual(t, star(t, tt).Key(), p.Key(), "the key reflects orientation as written")
}

func TestFreeSites(t *testing.T) {
	tt := newTestTypes(t)
	g := star(t, tt)

	free := g.FreeSites()
	assert.Equal(t, []SiteSpec{site(0, 1), site(3, 0)}, free)
	assert.Len(t, free, g.SiteCount()-2*g.BindingCount())
	assert.True(t, g.IsFree(site(0, 1)))
	assert.False(t, g.IsFree(site(1, 1)))
}

// scanBindingAt finds the binding at s by walking every binding.
func scanBindingAt(g *Graph, s SiteSpec) (int, bool) {
	for i, b := range g.Bindings() {
		if b.Left == s || b.Right == s {
			return i, true
		}
	}
	return -1, false
}

func TestBindingAt_IndexedOnEveryDerivedGraph(t *testing.T) {
	tt := newTestTypes(t)
	g := star(t, tt)
	without, err := g.WithoutBinding(1)
	require.NoError(t, err)
	comp, _ := without.ConnectedComponent(1)
	permuted, err := g.Permute([]int{3, 2, 1, 0}, []int{2, 0, 1}, true)
	require.NoError(t, err)
	joined, err := Join(comp, g, site(0, 1), site(0, 1))
	require.NoError(t, err)
	empty, _ := g.ConnectedComponent(-1)

	for name, h := range map[string]*Graph{
		"star": g, "without": without, "component": comp, "permuted": permuted, "joined": joined, "empty": empty,
	} {
		t.Run(name, func(t *testing.T) {
			bound := 0
			for m := 0; m < h.MolCount(); m++ {
				for si := 0; si < h.Mol(m).SiteCount(); si++ {
					s := site(m, si)
					want, wantOK := scanBindingAt(h, s)
					got, ok := h.BindingAt(s)
					assert.Equal(t, wantOK, ok, "site %s", s)
					assert.Equal(t, want, got, "site %s", s)
					assert.Equal(t, !wantOK, h.IsFree(s), "site %s", s)
					if ok {
						bound++
					}
				}
			}
			assert.Equal(t, 2*h.BindingCount(), bound)
		})
	}
}

func TestConnectedComponent(t *testing.T) {
	tt := newTestTypes(t)
	g := MustGraph([]*mol.MolType{tt.A, tt.B, tt.C, tt.B}, []Binding{
		{Left: site(0, 0), Right: site(1, 0)},
		{Left: site(2, 0), Right: site(3, 0)},
	})
	assert.False(t, g.IsConnected())

	comp, iso := g.ConnectedComponent(2)
	assert.Equal(t, 2, comp.MolCount())
	assert.Same(t, tt.C, comp.Mol(0))
	assert.Same(t, tt.B, comp.Mol(1))
	assert.Equal(t, []Binding{{Left: site(0, 0), Right: site(1, 0)}}, comp.Bindings())
	assert.Equal(t, []int{2, 3}, iso.Backward.MolMap)
	assert.Equal(t, []int{Unmapped, Unmapped, 0, 1}, iso.Forward.MolMap)
	assert.Equal(t, []int{Unmapped, 0}, iso.Forward.BindingMap)
	assert.Equal(t, []int{1}, iso.Backward.BindingMap)

	other := g.ComponentMols(0)
	assert.Equal(t, []int{0, 1}, other)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, append(other, iso.Backward.MolMap...))
}

func TestIsConnected_Edges(t *testing.T) {
	tt := newTestTypes(t)
	empty := MustGraph(nil, nil)
	assert.False(t, empty.IsConnected())
	assert.True(t, MustGraph([]*mol.MolType{tt.B}, nil).IsConnected())
	assert.True(t, star(t, tt).IsConnected())
}
