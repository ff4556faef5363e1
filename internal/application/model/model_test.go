package model

import (
	"context"
	stderrors "errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/plexnet/internal/config"
	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/internal/domain/reaction"
	"github.com/turtacn/plexnet/internal/infrastructure/catalog"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/plexnet/internal/testutil"
	"github.com/turtacn/plexnet/pkg/errors"
)

var kinSub = Dimerization{
	Left:  SiteRef{Mol: "Kin", Site: "s"},
	Right: SiteRef{Mol: "Sub", Site: "k"},
	Rates: []ShapeRate{{LeftShape: "free", RightShape: "free", On: 2, Off: 0.5}},
}

type fixture struct {
	world  *testutil.KinaseWorld
	model  *Model
	mem    *catalog.MemoryCatalog
	logger *testutil.MockLogger
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	fx := &fixture{
		world:  testutil.NewKinaseWorld(t),
		mem:    catalog.NewMemoryCatalog(),
		logger: testutil.NewMockLogger(),
	}
	opts = append([]Option{WithID("test-model"), WithLogger(fx.logger), WithSinks(fx.mem)}, opts...)
	m, err := New(fx.world.Mols, config.Default().Engine, opts...)
	require.NoError(t, err)
	fx.model = m
	return fx
}

func (fx *fixture) single(t *mol.MolType) *plex.Graph { return plex.MustGraph([]*mol.MolType{t}, nil) }

// seed declares 10 kinases and 5 phosphorylated substrates.
func (fx *fixture) seed(t *testing.T) (kin, sub *family.Species) {
	t.Helper()
	_, err := fx.model.DeclareDimerization(kinSub)
	require.NoError(t, err)
	kin, err = fx.model.DeclareSpecies(fx.single(fx.world.Kin), nil, 10)
	require.NoError(t, err)
	sub, err = fx.model.DeclareSpecies(fx.single(fx.world.Sub), []mol.MolParam{fx.world.SubPhos}, 5)
	require.NoError(t, err)
	return kin, sub
}

func TestNew_Rejects(t *testing.T) {
	w := testutil.NewKinaseWorld(t)
	_, err := New(nil, config.Default().Engine)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	engine := config.Default().Engine
	engine.NamingStrategy = "bogus"
	_, err = New(w.Mols, engine)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	engine = config.Default().Engine
	engine.GenerateDepth = -1
	_, err = New(w.Mols, engine)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	m, err := New(w.Mols, config.Default().Engine)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID(), "a uuid is generated")
}

func TestModel_EndToEnd(t *testing.T) {
	fx := newFixture(t)
	kin, sub := fx.seed(t)
	m := fx.model

	require.Equal(t, 3, m.Families().FamilyCount())
	species := m.Species()
	require.Len(t, species, 3)
	dimer := species[2]
	assert.Equal(t, 2, dimer.Family().Paradigm().MolCount())
	assert.InDelta(t, 500.0, dimer.Weight(), 1e-9)

	rs := m.Reactions()
	require.Len(t, rs, 2)
	assert.Equal(t, reaction.KindDimerization, rs[0].Kind())
	assert.Equal(t, []*family.Species{kin, sub}, rs[0].Reactants())
	assert.Equal(t, 2.0, rs[0].Rate())
	assert.Equal(t, reaction.KindDecomposition, rs[1].Kind())
	assert.Equal(t, 0.5, rs[1].Rate())

	assert.Equal(t, 10, kin.Population())
	assert.Equal(t, 5, sub.Population())
	assert.Equal(t, []family.Reaction{rs[0]}, m.TakeAffected())
	assert.Empty(t, m.TakeAffected())

	// The dimer written substrate first with the binding flipped.
	rev := plex.MustGraph([]*mol.MolType{fx.world.Sub, fx.world.Kin}, []plex.Binding{
		{Left: plex.SiteSpec{Mol: 1, Site: 0}, Right: plex.SiteSpec{Mol: 0, Site: 0}},
	})
	again, err := m.DeclareSpecies(rev, []mol.MolParam{fx.world.SubPhos, fx.world.Kin.DefaultParam()}, 1)
	require.NoError(t, err)
	assert.Same(t, dimer, again)
	assert.Equal(t, 1, dimer.Population())
	assert.Equal(t, 3, m.Families().FamilyCount())

	name, err := m.CanonicalName(kin)
	require.NoError(t, err)
	assert.Equal(t, "___3Kin______", name)
	display, err := m.DisplayName(kin)
	require.NoError(t, err)
	assert.Equal(t, "Kin", display)
}

func TestModel_UnphosphorylatedSubstrateIsDistinct(t *testing.T) {
	fx := newFixture(t)
	_, sub := fx.seed(t)

	plain, err := fx.model.DeclareSpecies(fx.single(fx.world.Sub), nil, 2)
	require.NoError(t, err)
	assert.NotSame(t, sub, plain)
	assert.Same(t, sub.Family(), plain.Family())

	a, err := fx.model.CanonicalName(sub)
	require.NoError(t, err)
	b, err := fx.model.CanonicalName(plain)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestModel_Flush(t *testing.T) {
	fx := newFixture(t)
	fx.seed(t)
	m := fx.model
	require.Equal(t, 3, m.Pending())

	require.NoError(t, m.Flush(context.Background()))
	assert.Equal(t, 0, m.Pending())
	assert.Len(t, fx.mem.Names(), 3)
	assert.Equal(t, 1, fx.mem.Batches())

	r, ok := fx.mem.Lookup("___3Kin______")
	require.True(t, ok)
	assert.Equal(t, catalog.Record{
		ModelID:    "test-model",
		SpeciesID:  0,
		FamilyID:   0,
		Name:       "___3Kin______",
		Display:    "Kin",
		Mols:       []string{"Kin"},
		Weight:     300,
		Population: 10,
	}, r)

	require.NoError(t, m.Flush(context.Background()))
	assert.Equal(t, 1, fx.mem.Batches(), "nothing pending, no export")
	assert.True(t, fx.logger.HasMessage("info", "species flushed"))
}

type mockSink struct {
	mock.Mock
}

func (s *mockSink) Name() string { return "mock" }

func (s *mockSink) Export(ctx context.Context, records []catalog.Record) error {
	return s.Called(ctx, records).Error(0)
}

func (s *mockSink) Close() error { return s.Called().Error(0) }

func TestModel_FlushFailureKeepsPending(t *testing.T) {
	sink := new(mockSink)
	sink.On("Export", mock.Anything, mock.AnythingOfType("[]catalog.Record")).
		Return(stderrors.New("store unavailable")).Once()
	sink.On("Export", mock.Anything, mock.AnythingOfType("[]catalog.Record")).Return(nil).Once()
	sink.On("Close").Return(nil)
	fx := newFixture(t, WithSinks(sink))
	fx.seed(t)

	err := fx.model.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, fx.model.Pending())
	assert.True(t, fx.logger.HasMessage("warn", "catalog export failed"))

	require.NoError(t, fx.model.Flush(context.Background()))
	assert.Equal(t, 0, fx.model.Pending())
	assert.Len(t, fx.mem.Names(), 3)
	assert.NoError(t, fx.model.Close())
	sink.AssertExpectations(t)
	sink.AssertNumberOfCalls(t, "Export", 2)
}

func TestModel_DeclareDimerization_Rejects(t *testing.T) {
	fx := newFixture(t)
	m := fx.model

	_, err := m.DeclareDimerization(Dimerization{Left: SiteRef{"Nope", "s"}, Right: kinSub.Right})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownMol))

	_, err = m.DeclareDimerization(Dimerization{Left: SiteRef{"Kin", "zz"}, Right: kinSub.Right})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownSite))

	bad := kinSub
	bad.Rates = []ShapeRate{{LeftShape: "free", RightShape: "wobbly", On: 1}}
	_, err = m.DeclareDimerization(bad)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownShape))

	_, err = m.DeclareDimerization(kinSub)
	require.NoError(t, err)
	_, err = m.DeclareDimerization(kinSub)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateKinetics))
	assert.Equal(t, 1, m.Rates().Len())
}

func TestModel_MissingRateFailsExpansion(t *testing.T) {
	fx := newFixture(t)
	m := fx.model
	_, err := m.DeclareDimerization(Dimerization{Left: kinSub.Left, Right: kinSub.Right})
	require.NoError(t, err)

	_, err = m.DeclareSpecies(fx.single(fx.world.Kin), nil, 1)
	require.NoError(t, err)
	_, err = m.DeclareSpecies(fx.single(fx.world.Sub), nil, 1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingRate))
	assert.True(t, fx.logger.HasMessage("error", "expansion step failed"))
}

func TestModel_FailedExpansionIsRetried(t *testing.T) {
	fx := newFixture(t)
	m := fx.model
	w := fx.world
	_, err := m.DeclareDimerization(Dimerization{Left: kinSub.Left, Right: kinSub.Right})
	require.NoError(t, err)
	kin, err := m.DeclareSpecies(fx.single(w.Kin), nil, 1)
	require.NoError(t, err)
	_, err = m.DeclareSpecies(fx.single(w.Sub), nil, 1)
	require.Error(t, err)

	require.Len(t, m.Species(), 2)
	sub := m.Species()[1]
	assert.False(t, sub.Notified())
	assert.Zero(t, sub.Population())
	assert.Empty(t, m.Reactions())
	assert.Empty(t, kin.Dependents())

	kinFree, err := w.Mols.MustShape(w.Kin, 0, "free")
	require.NoError(t, err)
	subFree, err := w.Mols.MustShape(w.Sub, 0, "free")
	require.NoError(t, err)
	require.NoError(t, m.Rates().Set(kinFree, subFree, 2, 0.5))

	require.NoError(t, m.Update(sub, 1))
	assert.True(t, sub.Notified())
	assert.Equal(t, 1, sub.Population())
	rs := m.Reactions()
	require.Len(t, rs, 2)
	assert.Equal(t, []*family.Species{kin, sub}, rs[0].Reactants())
	assert.Equal(t, []family.Reaction{rs[0]}, kin.Dependents())
}

func TestModel_DeclareModification(t *testing.T) {
	fx := newFixture(t)
	m := fx.model
	w := fx.world
	kin, err := m.DeclareSpecies(fx.single(w.Kin), nil, 1)
	require.NoError(t, err)

	_, err = m.DeclareModification(Modification{
		Mol:           "Sub",
		When:          map[string]string{"p": "u"},
		Exchange:      map[string]string{"p": "p"},
		ExtraReactant: kin,
		ExtraProduct:  kin,
		Rate:          3,
	})
	require.NoError(t, err)
	gen, err := m.DeclareModification(Modification{
		Mol:      "Sub",
		When:     map[string]string{"p": "p"},
		Exchange: map[string]string{"p": "u"},
		Rate:     1,
	})
	require.NoError(t, err)
	assert.Same(t, w.Sub, gen.Mol())

	unphos, err := m.DeclareSpecies(fx.single(w.Sub), nil, 4)
	require.NoError(t, err)

	require.Len(t, m.Species(), 3)
	phos := m.Species()[2]
	assert.Same(t, unphos.Family(), phos.Family())
	assert.Equal(t, []mol.MolParam{w.SubPhos}, phos.Params())
	assert.True(t, phos.Notified(), "the product is notified one level down")

	rs := m.Reactions()
	require.Len(t, rs, 2)
	assert.Equal(t, reaction.KindUniMol, rs[0].Kind())
	assert.Equal(t, []*family.Species{unphos, kin}, rs[0].Reactants())
	assert.Equal(t, []*family.Species{phos, kin}, rs[0].Products())
	assert.Equal(t, 3.0, rs[0].Rate())
	assert.Equal(t, reaction.KindUniMol, rs[1].Kind())
	assert.Equal(t, []*family.Species{phos}, rs[1].Reactants())
	assert.Equal(t, []*family.Species{unphos}, rs[1].Products())
}

func TestModel_DeclareModification_Rejects(t *testing.T) {
	fx := newFixture(t)
	m := fx.model
	cases := []struct {
		name string
		mod  Modification
		code errors.ErrorCode
	}{
		{"unknown mol", Modification{Mol: "Nope", Exchange: map[string]string{"p": "p"}}, errors.ErrCodeUnknownMol},
		{"basic mol", Modification{Mol: "Kin", Exchange: map[string]string{"p": "p"}}, errors.ErrCodeNotModifiable},
		{"no exchange", Modification{Mol: "Sub"}, errors.ErrCodeValidation},
		{"unknown mod site", Modification{Mol: "Sub", Exchange: map[string]string{"q": "p"}}, errors.ErrCodeUnknownModSite},
		{"unknown mod", Modification{Mol: "Sub", Exchange: map[string]string{"p": "x"}}, errors.ErrCodeUnknownMod},
		{"bad pattern", Modification{Mol: "Sub", When: map[string]string{"p": "x"}, Exchange: map[string]string{"p": "p"}}, errors.ErrCodeUnknownMod},
		{"negative rate", Modification{Mol: "Sub", Exchange: map[string]string{"p": "p"}, Rate: -1}, errors.ErrCodeInvalidRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.DeclareModification(tc.mod)
			assert.True(t, errors.IsCode(err, tc.code), "got %v", err)
		})
	}
}

func TestModel_DeclareOmniModification(t *testing.T) {
	fx := newFixture(t)
	m := fx.model
	w := fx.world

	kinSubGraph := plex.MustGraph([]*mol.MolType{w.Kin, w.Sub}, []plex.Binding{
		{Left: plex.SiteSpec{Mol: 0, Site: 0}, Right: plex.SiteSpec{Mol: 1, Site: 0}},
	})
	omni, err := m.RegisterOmniPlex("kin-sub", kinSubGraph, nil, nil)
	require.NoError(t, err)
	unphos, err := w.Mols.ModPatternFor(w.Sub, map[string]string{"p": "u"})
	require.NoError(t, err)
	gen, err := m.DeclareOmniModification(OmniModification{
		Omni:      omni,
		When:      family.StateQuery{{Mol: 1, Pattern: unphos}},
		Exchanges: []reaction.MolExchange{{Mol: 1, Mods: map[string]string{"p": "p"}}},
		Rate:      7,
	})
	require.NoError(t, err)
	assert.Same(t, omni, gen.Omni())

	_, err = m.DeclareDimerization(kinSub)
	require.NoError(t, err)
	_, err = m.DeclareSpecies(fx.single(w.Kin), nil, 1)
	require.NoError(t, err)
	_, err = m.DeclareSpecies(fx.single(w.Sub), nil, 1)
	require.NoError(t, err)

	var omniRxns []*reaction.Reaction
	for _, r := range m.Reactions() {
		if r.Kind() == reaction.KindOmni {
			omniRxns = append(omniRxns, r)
		}
	}
	require.Len(t, omniRxns, 1)
	r := omniRxns[0]
	assert.Equal(t, 7.0, r.Rate())
	require.Len(t, r.Reactants(), 1)
	require.Len(t, r.Products(), 1)
	before, after := r.Reactants()[0], r.Products()[0]
	assert.Same(t, before.Family(), after.Family(), "a modification keeps the structure")
	assert.Contains(t, before.Params(), w.SubUnphos)
	assert.Contains(t, after.Params(), w.SubPhos)
	assert.False(t, after.Notified(), "the product sits below the generate depth")
}

func TestModel_DeclareOmniModification_Rejects(t *testing.T) {
	fx := newFixture(t)
	m := fx.model
	w := fx.world
	kinSubGraph := plex.MustGraph([]*mol.MolType{w.Kin, w.Sub}, []plex.Binding{
		{Left: plex.SiteSpec{Mol: 0, Site: 0}, Right: plex.SiteSpec{Mol: 1, Site: 0}},
	})
	omni, err := m.RegisterOmniPlex("kin-sub", kinSubGraph, nil, nil)
	require.NoError(t, err)
	toPhos := []reaction.MolExchange{{Mol: 1, Mods: map[string]string{"p": "p"}}}

	cases := []struct {
		name string
		mod  OmniModification
		code errors.ErrorCode
	}{
		{"no exchange", OmniModification{Omni: omni}, errors.ErrCodeValidation},
		{"mol out of range", OmniModification{Omni: omni, Exchanges: []reaction.MolExchange{{Mol: 2}}}, errors.ErrCodeIndexOutOfRange},
		{"basic mol", OmniModification{Omni: omni, Exchanges: []reaction.MolExchange{{Mol: 0, Mods: map[string]string{"p": "p"}}}}, errors.ErrCodeNotModifiable},
		{"bad query", OmniModification{Omni: omni, When: family.StateQuery{{Mol: 5}}, Exchanges: toPhos}, errors.ErrCodeInvalidQuery},
		{"negative rate", OmniModification{Omni: omni, Exchanges: toPhos, Rate: -2}, errors.ErrCodeInvalidRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.DeclareOmniModification(tc.mod)
			assert.True(t, errors.IsCode(err, tc.code), "got %v", err)
		})
	}
	assert.Zero(t, omni.Feature().GeneratorCount())
}

func TestModel_UpdateRejectsNegativePopulation(t *testing.T) {
	fx := newFixture(t)
	kin, _ := fx.seed(t)

	err := fx.model.Update(kin, -11)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNegativePopulation))
	assert.Equal(t, 10, kin.Population())
	require.NoError(t, fx.model.Update(kin, -10))
	assert.Equal(t, 0, kin.Population())
}

func TestModel_DeclareSpecies_ParamCount(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.model.DeclareSpecies(fx.single(fx.world.Kin), []mol.MolParam{}, 1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeParamCountMismatch))
}

func TestModel_AddAllostericPlex(t *testing.T) {
	fx := newFixture(t)
	m := fx.model
	w := fx.world
	_, err := m.DeclareDimerization(Dimerization{
		Left:  kinSub.Left,
		Right: kinSub.Right,
		Rates: []ShapeRate{
			{LeftShape: "free", RightShape: "free", On: 2, Off: 0.5},
			{LeftShape: "bound", RightShape: "bound", On: 0, Off: 0.1},
		},
	})
	require.NoError(t, err)

	dimer := plex.MustGraph([]*mol.MolType{w.Kin, w.Sub}, []plex.Binding{
		{Left: plex.SiteSpec{Mol: 0, Site: 0}, Right: plex.SiteSpec{Mol: 1, Site: 0}},
	})
	kinBound, err := w.Mols.MustShape(w.Kin, 0, "bound")
	require.NoError(t, err)
	subBound, err := w.Mols.MustShape(w.Sub, 0, "bound")
	require.NoError(t, err)
	fam, err := m.AddAllostericPlex(dimer, nil, family.Overlay{
		{Site: plex.SiteSpec{Mol: 0, Site: 0}, Shape: kinBound},
		{Site: plex.SiteSpec{Mol: 1, Site: 0}, Shape: subBound},
	})
	require.NoError(t, err)

	s, err := m.DeclareSpecies(dimer, nil, 1)
	require.NoError(t, err)
	assert.Same(t, fam, s.Family())
	assert.Equal(t, kinBound, s.Shape(plex.SiteSpec{Mol: 0, Site: 0}))

	var offRate float64
	for _, r := range m.Reactions() {
		if r.Kind() == reaction.KindDecomposition {
			offRate = r.Rate()
		}
	}
	assert.Equal(t, 0.1, offRate, "the overlaid shapes select the off rate")
}

func TestModel_Metrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, nil)
	require.NoError(t, err)
	fx := newFixture(t, WithMetrics(prometheus.NewEngineMetrics(collector)))
	fx.seed(t)
	require.NoError(t, fx.model.Flush(context.Background()))

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(body)

	assert.Contains(t, out, "test_families_total 3")
	assert.Contains(t, out, "test_species_total 3")
	assert.Contains(t, out, `test_reactions_total{kind="dimerization"} 1`)
	assert.Contains(t, out, `test_reactions_total{kind="decomposition"} 1`)
	assert.Contains(t, out, `test_catalog_exports_total{sink="memory",status="success"} 1`)
	assert.Contains(t, out, "test_catalog_pending 0")
	assert.Contains(t, out, `test_canonicalize_duration_seconds_count{strategy="refine"}`)
}
