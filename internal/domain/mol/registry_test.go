package mol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/plexnet/pkg/errors"
)

func newTestRegistry(t *testing.T) (*Registry, *MolType, *MolType) {
	t.Helper()
	r := NewRegistry(nil)
	_, err := r.AddModification("none", 0)
	require.NoError(t, err)
	_, err = r.AddModification("phos", 80)
	require.NoError(t, err)

	a, err := r.AddBasic("A", 100, []SiteDef{
		{Name: "s", Shapes: []string{"free", "bound"}, Default: "free"},
	})
	require.NoError(t, err)

	k, err := r.AddModifiable("K", 50, []SiteDef{
		{Name: "x", Shapes: []string{"closed", "open"}, Default: "closed"},
		{Name: "y"},
	}, []ModSiteDef{{Name: "t1", Default: "none"}, {Name: "t2", Default: "none"}})
	require.NoError(t, err)
	return r, a, k
}

func TestAddBasic_Definition(t *testing.T) {
	r, a, _ := newTestRegistry(t)

	assert.Equal(t, "A", a.Name())
	assert.Equal(t, KindBasic, a.Kind())
	assert.False(t, a.IsModifiable())
	assert.Equal(t, 1, a.SiteCount())
	si, ok := a.SiteIndex("s")
	require.True(t, ok)
	assert.Equal(t, 0, si)

	free, err := r.MustShape(a, 0, "free")
	require.NoError(t, err)
	assert.Equal(t, free, a.Site(0).DefaultShape())
	assert.Equal(t, "free", r.ShapeName(free))
	assert.Len(t, a.Site(0).Shapes(), 2)

	got, ok := r.TypeByName("A")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Same(t, a, r.Type(a.ID()))
}

func TestAddBasic_ImplicitDefaultShape(t *testing.T) {
	r, _, k := newTestRegistry(t)
	sh := k.Site(1).DefaultShape()
	assert.Equal(t, "default", r.ShapeName(sh))
}

func TestAddType_StructuralErrors(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	cases := []struct {
		name  string
		build func() error
		code  errors.ErrorCode
	}{
		{"duplicate mol", func() error {
			_, err := r.AddBasic("A", 1, nil)
			return err
		}, errors.ErrCodeDuplicateMol},
		{"duplicate site", func() error {
			_, err := r.AddBasic("B", 1, []SiteDef{{Name: "s"}, {Name: "s"}})
			return err
		}, errors.ErrCodeDuplicateSite},
		{"duplicate shape", func() error {
			_, err := r.AddBasic("C", 1, []SiteDef{{Name: "s", Shapes: []string{"a", "a"}}})
			return err
		}, errors.ErrCodeDuplicateShape},
		{"unknown default shape", func() error {
			_, err := r.AddBasic("D", 1, []SiteDef{{Name: "s", Shapes: []string{"a"}, Default: "b"}})
			return err
		}, errors.ErrCodeUnknownShape},
		{"duplicate mod site", func() error {
			_, err := r.AddModifiable("E", 1, nil, []ModSiteDef{{Name: "m", Default: "none"}, {Name: "m", Default: "none"}})
			return err
		}, errors.ErrCodeDuplicateModSite},
		{"unknown default mod", func() error {
			_, err := r.AddModifiable("F", 1, nil, []ModSiteDef{{Name: "m", Default: "acetyl"}})
			return err
		}, errors.ErrCodeUnknownMod},
		{"duplicate modification", func() error {
			_, err := r.AddModification("phos", 1)
			return err
		}, errors.ErrCodeDuplicateMod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tc.code), "got %v", err)
			assert.True(t, errors.IsStructural(err))
		})
	}
	_, ok := r.TypeByName("B")
	assert.False(t, ok, "failed definitions must not be registered")
}

func TestFailedDefinition_LeavesShapeArenaUntouched(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	before := len(r.shapes)
	_, err := r.AddBasic("Z", 1, []SiteDef{{Name: "s", Shapes: []string{"a"}}, {Name: "s"}})
	require.Error(t, err)
	assert.Equal(t, before, len(r.shapes))
}

func TestMustTypeByName_Miss(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	_, ok := r.TypeByName("nope")
	assert.False(t, ok)
	_, err := r.MustTypeByName("nope")
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownMol))
}

func TestInternState_IdentityByHandle(t *testing.T) {
	r, a, k := newTestRegistry(t)

	p1, err := r.InternState(a, BasicState{})
	require.NoError(t, err)
	assert.Equal(t, a.DefaultParam(), p1)

	none, _ := r.ModByName("none")
	phos, _ := r.ModByName("phos")
	q1, err := r.InternState(k, ModState{Mods: []ModID{phos, none}})
	require.NoError(t, err)
	q2, err := r.InternModMap(k, map[string]string{"t1": "phos"})
	require.NoError(t, err)
	assert.Equal(t, q1, q2)
	assert.NotEqual(t, k.DefaultParam(), q1)

	w, err := r.ParamWeight(q1)
	require.NoError(t, err)
	assert.InDelta(t, 130.0, w, 1e-9)
}

func TestInternState_VariantMismatch(t *testing.T) {
	r, a, k := newTestRegistry(t)

	_, err := r.InternState(a, ModState{Mods: []ModID{0}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotModifiable))

	_, err = r.InternState(k, BasicState{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeStateMismatch))

	_, err = r.InternState(k, ModState{Mods: []ModID{0}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeStateMismatch))

	_, err = r.InternModMap(k, map[string]string{"t9": "phos"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownModSite))
}

func TestExchangeMods_KeepsUnnamedSites(t *testing.T) {
	r, a, k := newTestRegistry(t)
	t1Phos, err := r.InternModMap(k, map[string]string{"t1": "phos"})
	require.NoError(t, err)
	both, err := r.InternModMap(k, map[string]string{"t1": "phos", "t2": "phos"})
	require.NoError(t, err)

	got, err := r.ExchangeMods(t1Phos, map[string]string{"t2": "phos"})
	require.NoError(t, err)
	assert.Equal(t, both, got, "t1 keeps its modification")

	got, err = r.ExchangeMods(both, map[string]string{"t1": "none", "t2": "none"})
	require.NoError(t, err)
	assert.Equal(t, k.DefaultParam(), got)

	same, err := r.ExchangeMods(t1Phos, map[string]string{"t1": "phos"})
	require.NoError(t, err)
	assert.Equal(t, t1Phos, same)

	_, err = r.ExchangeMods(a.DefaultParam(), map[string]string{"t1": "phos"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotModifiable))
	_, err = r.ExchangeMods(MolParam(999), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownParam))
}

func TestInternState_DoesNotAliasCallerSlice(t *testing.T) {
	r, _, k := newTestRegistry(t)
	mods := []ModID{1, 0}
	p, err := r.InternState(k, ModState{Mods: mods})
	require.NoError(t, err)
	mods[0] = 0

	st, err := r.ParamState(p)
	require.NoError(t, err)
	assert.Equal(t, ModState{Mods: []ModID{1, 0}}, st)
}

func TestInternAlloState_ShapesAndConflicts(t *testing.T) {
	r, _, k := newTestRegistry(t)
	phos, _ := r.ModByName("phos")
	none, _ := r.ModByName("none")
	state := ModState{Mods: []ModID{phos, phos}}

	p, err := r.InternAlloState(k, state, map[string]string{"x": "open"})
	require.NoError(t, err)

	shapes, err := r.SiteShapes(k, p)
	require.NoError(t, err)
	open, _ := r.MustShape(k, 0, "open")
	assert.Equal(t, []ShapeID{open, k.Site(1).DefaultShape()}, shapes)

	again, err := r.InternAlloState(k, state, map[string]string{"x": "open"})
	require.NoError(t, err)
	assert.Equal(t, p, again)

	_, err = r.InternAlloState(k, state, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAlloStateConflict))

	plain, err := r.InternState(k, ModState{Mods: []ModID{none, phos}})
	require.NoError(t, err)
	shapes, err = r.SiteShapes(k, plain)
	require.NoError(t, err)
	assert.Equal(t, k.DefaultShapes(), shapes)
}

func TestSiteShapes_WrongType(t *testing.T) {
	r, a, k := newTestRegistry(t)
	_, err := r.SiteShapes(k, a.DefaultParam())
	assert.True(t, errors.IsCode(err, errors.ErrCodeStateMismatch))
	assert.True(t, errors.IsInternal(err))

	_, err = r.SiteShapes(a, MolParam(999))
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownParam))
}

func TestModPattern_Matching(t *testing.T) {
	r, a, k := newTestRegistry(t)
	pat, err := r.ModPatternFor(k, map[string]string{"t2": "phos"})
	require.NoError(t, err)

	hit, _ := r.InternModMap(k, map[string]string{"t2": "phos", "t1": "phos"})
	miss, _ := r.InternModMap(k, map[string]string{"t1": "phos"})
	assert.True(t, r.MatchMods(hit, pat))
	assert.False(t, r.MatchMods(miss, pat))

	empty, err := r.ModPatternFor(a, nil)
	require.NoError(t, err)
	assert.True(t, r.MatchMods(a.DefaultParam(), empty))
	assert.False(t, r.MatchMods(a.DefaultParam(), pat))

	_, err = r.ModPatternFor(a, map[string]string{"t": "phos"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotModifiable))
}

func TestModNames(t *testing.T) {
	r, a, k := newTestRegistry(t)
	p, _ := r.InternModMap(k, map[string]string{"t2": "phos"})
	names, err := r.ModNames(p)
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"t1", "none"}, {"t2", "phos"}}, names)

	names, err = r.ModNames(a.DefaultParam())
	require.NoError(t, err)
	assert.Nil(t, names)
}
