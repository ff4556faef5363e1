// Package model provides the application-level context of one reaction
// network expansion.  A Model owns the mol definitions, the family registry,
// the reaction network and the namer, and exports newly discovered species
// to the configured catalog sinks.
package model

import (
	"github.com/google/uuid"

	"github.com/turtacn/plexnet/internal/config"
	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/domain/feature"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/naming"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/internal/domain/reaction"
	"github.com/turtacn/plexnet/internal/infrastructure/catalog"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/plexnet/pkg/errors"
)

// Model is one expansion context.  It is not safe for concurrent use.
type Model struct {
	id      string
	engine  config.EngineConfig
	logger  logging.Logger
	metrics *prometheus.EngineMetrics

	mols     *mol.Registry
	families *family.Registry
	network  *reaction.Network
	rates    *reaction.ShapeRateTable
	namer    *naming.Namer

	collector prometheus.MetricsCollector
	sinks     []catalog.Sink
	pending   []*family.Species
	affected  *feature.SensitivityList[family.Reaction]
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records engine events on metrics.
func WithMetrics(metrics *prometheus.EngineMetrics) Option {
	return func(m *Model) {
		if metrics != nil {
			m.metrics = metrics
		}
	}
}

// WithSinks adds catalog sinks that Flush exports to.
func WithSinks(sinks ...catalog.Sink) Option {
	return func(m *Model) { m.sinks = append(m.sinks, sinks...) }
}

// WithID fixes the model identifier instead of generating one.
func WithID(id string) Option {
	return func(m *Model) {
		if id != "" {
			m.id = id
		}
	}
}

// New creates a model over the mol definitions in mols.
func New(mols *mol.Registry, engine config.EngineConfig, opts ...Option) (*Model, error) {
	if mols == nil {
		return nil, errors.New(errors.ErrCodeValidation, "mol registry required")
	}
	strategy, err := naming.ParseStrategy(engine.NamingStrategy)
	if err != nil {
		return nil, err
	}
	if engine.GenerateDepth < 0 {
		return nil, errors.New(errors.ErrCodeValidation, "generate depth must be >= 0").
			WithDetailf("got %d", engine.GenerateDepth)
	}

	m := &Model{
		id:       uuid.New().String(),
		engine:   engine,
		logger:   logging.NewNopLogger(),
		metrics:  prometheus.NewNoopEngineMetrics(),
		mols:     mols,
		rates:    reaction.NewShapeRateTable(),
		affected: feature.NewSensitivityList[family.Reaction](),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("model").With(logging.String("model_id", m.id))

	obs := &engineObserver{m: m}
	m.families = family.NewRegistry(mols, m.logger,
		family.WithObserver(obs),
		family.WithRecognitionCache(engine.RecognitionCache))
	m.network = reaction.NewNetwork(m.logger, obs, m.families.Journal())

	namerOpts := []naming.Option{
		naming.WithStrategy(strategy),
		naming.WithVerify(engine.VerifyNames),
		naming.WithDurationObserver(obs.canonicalized),
	}
	if engine.MaxExhaustiveMols > 0 {
		namerOpts = append(namerOpts, naming.WithMaxExhaustiveMols(engine.MaxExhaustiveMols))
	}
	m.namer = naming.NewNamer(mols, m.logger, namerOpts...)

	m.logger.Info("model created",
		logging.String("naming_strategy", string(strategy)),
		logging.Int("generate_depth", engine.GenerateDepth),
		logging.Int("sinks", len(m.sinks)))
	return m, nil
}

// ID returns the model identifier stamped on exported records.
func (m *Model) ID() string { return m.id }

// Mols returns the mol definitions.
func (m *Model) Mols() *mol.Registry { return m.mols }

// Families returns the family registry.
func (m *Model) Families() *family.Registry { return m.families }

// Species returns every species in creation order.
func (m *Model) Species() []*family.Species { return m.families.Species() }

// Reactions returns every generated reaction in creation order.
func (m *Model) Reactions() []*reaction.Reaction { return m.network.Reactions() }

// Rates returns the shape rate table shared by the model's generators.
func (m *Model) Rates() *reaction.ShapeRateTable { return m.rates }

// Namer returns the model's canonical namer.
func (m *Model) Namer() *naming.Namer { return m.namer }

func (m *Model) generators() reaction.Generators {
	return reaction.Generators{Families: m.families, Network: m.network, Rates: m.rates}
}

// ─────────────────────────────────────────────────────────────────────────────
// Declarations
// ─────────────────────────────────────────────────────────────────────────────

// SiteRef names a binding site by mol and site name.
type SiteRef struct {
	Mol  string
	Site string
}

// ShapeRate gives the on and off rates for one pair of site shapes.
type ShapeRate struct {
	LeftShape  string
	RightShape string
	On         float64
	Off        float64
}

// Dimerization declares a binding between two sites and its kinetics.
type Dimerization struct {
	Left  SiteRef
	Right SiteRef
	Rates []ShapeRate
}

func (m *Model) resolveSite(ref SiteRef) (*mol.MolType, family.SiteKey, error) {
	t, err := m.mols.MustTypeByName(ref.Mol)
	if err != nil {
		return nil, family.SiteKey{}, err
	}
	site, err := m.mols.MustSiteIndex(t, ref.Site)
	if err != nil {
		return nil, family.SiteKey{}, err
	}
	return t, family.SiteKey{Type: t.ID(), Site: site}, nil
}

// DeclareDimerization registers the rates of d and wires its generators.
// Every species in a family containing the binding needs a rate for its
// site shapes; a missing one fails the expansion step that meets it.
func (m *Model) DeclareDimerization(d Dimerization) (*reaction.DimerizationGen, error) {
	lt, lk, err := m.resolveSite(d.Left)
	if err != nil {
		return nil, err
	}
	rt, rk, err := m.resolveSite(d.Right)
	if err != nil {
		return nil, err
	}
	type resolved struct {
		l, r    mol.ShapeID
		on, off float64
	}
	rates := make([]resolved, 0, len(d.Rates))
	for _, sr := range d.Rates {
		ls, err := m.mols.MustShape(lt, lk.Site, sr.LeftShape)
		if err != nil {
			return nil, err
		}
		rs, err := m.mols.MustShape(rt, rk.Site, sr.RightShape)
		if err != nil {
			return nil, err
		}
		rates = append(rates, resolved{l: ls, r: rs, on: sr.On, off: sr.Off})
	}

	dim, _, err := reaction.DeclareDimerization(m.generators(), lk, rk)
	if err != nil {
		return nil, err
	}
	for _, r := range rates {
		if err := m.rates.Set(r.l, r.r, r.on, r.off); err != nil {
			return nil, err
		}
	}
	m.logger.Debug("dimerization declared",
		logging.String("left", d.Left.Mol+"."+d.Left.Site),
		logging.String("right", d.Right.Mol+"."+d.Right.Site),
		logging.Int("rates", len(rates)))
	return dim, nil
}

// Modification declares a state change of one mol type.  When and Exchange
// map mod site names to modification names; When may be empty.
type Modification struct {
	Mol           string
	When          map[string]string
	Exchange      map[string]string
	ExtraReactant *family.Species
	ExtraProduct  *family.Species
	Rate          float64
}

// DeclareModification wires a uni-mol generator for mod.  It fires on every
// mol of the type in species notified from now on.
func (m *Model) DeclareModification(mod Modification) (*reaction.UniMolGen, error) {
	t, err := m.mols.MustTypeByName(mod.Mol)
	if err != nil {
		return nil, err
	}
	var when mol.ModPattern
	if len(mod.When) > 0 {
		if when, err = m.mols.ModPatternFor(t, mod.When); err != nil {
			return nil, err
		}
	}
	g, err := reaction.DeclareUniMol(m.generators(), reaction.UniMolSpec{
		Mol:      t,
		When:     when,
		Exchange: mod.Exchange,
		Extras:   reaction.Extras{Reactant: mod.ExtraReactant, Product: mod.ExtraProduct},
		Rate:     mod.Rate,
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("modification declared",
		logging.String("mol", mod.Mol),
		logging.Int("exchanges", len(mod.Exchange)))
	return g, nil
}

// OmniModification declares a state change driven by an OmniPlex.  When
// and Exchanges are indexed in the OmniPlex graph.
type OmniModification struct {
	Omni          *family.OmniPlex
	When          family.StateQuery
	Exchanges     []reaction.MolExchange
	ExtraReactant *family.Species
	ExtraProduct  *family.Species
	Rate          float64
}

// DeclareOmniModification wires an omni generator for mod.
func (m *Model) DeclareOmniModification(mod OmniModification) (*reaction.OmniGen, error) {
	g, err := reaction.DeclareOmni(m.generators(), reaction.OmniSpec{
		Omni:      mod.Omni,
		When:      mod.When,
		Exchanges: mod.Exchanges,
		Extras:    reaction.Extras{Reactant: mod.ExtraReactant, Product: mod.ExtraProduct},
		Rate:      mod.Rate,
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("omni modification declared",
		logging.String("omniplex", mod.Omni.Name()),
		logging.Int("exchanges", len(mod.Exchanges)))
	return g, nil
}

// RegisterOmniPlex registers a sub-structure overlay applied to every family
// whose paradigm embeds g.  OmniPlexes must precede the first species.
func (m *Model) RegisterOmniPlex(name string, g *plex.Graph, query family.StateQuery, overlay family.Overlay) (*family.OmniPlex, error) {
	return m.families.RegisterOmniPlex(name, g, query, overlay)
}

// AddAllostericPlex adds an overlay to the family of g only.  query and
// overlay are indexed in g.
func (m *Model) AddAllostericPlex(g *plex.Graph, query family.StateQuery, overlay family.Overlay) (*family.Family, error) {
	f, iso, err := m.families.Recognize(g)
	if err != nil {
		return nil, err
	}
	if err := f.AddAllostericRule(g, iso, query, overlay); err != nil {
		return nil, err
	}
	return f, nil
}

// DeclareSpecies creates the species of g with params, indexed in g, and
// adds population copies of it.  nil params take each mol's default state.
// The species is expanded to the configured depth.
func (m *Model) DeclareSpecies(g *plex.Graph, params []mol.MolParam, population int) (*family.Species, error) {
	if params == nil {
		params = make([]mol.MolParam, g.MolCount())
		for i := range params {
			params[i] = g.Mol(i).DefaultParam()
		}
	}
	if len(params) != g.MolCount() {
		return nil, errors.Default(errors.ErrCodeParamCountMismatch).
			WithDetailf("%d params for %d mols", len(params), g.MolCount())
	}
	f, iso, err := m.families.Recognize(g)
	if err != nil {
		return nil, m.fail("declare species", err)
	}
	onParadigm := make([]mol.MolParam, len(params))
	for i, p := range params {
		onParadigm[iso.Forward.MolMap[i]] = p
	}
	s, err := f.GetMember(onParadigm, -1)
	if err != nil {
		return nil, m.fail("declare species", err)
	}
	if err := m.Update(s, population); err != nil {
		return nil, err
	}
	return s, nil
}

// Update changes the population of s by delta, expanding s first if it has
// not been, and collects the reactions whose rates change.
func (m *Model) Update(s *family.Species, delta int) error {
	if err := s.Update(delta, m.affected, m.engine.GenerateDepth); err != nil {
		return m.fail("update", err)
	}
	return nil
}

// TakeAffected returns the reactions whose reactant populations changed
// since the last call, each once.
func (m *Model) TakeAffected() []family.Reaction {
	out := m.affected.Items()
	m.affected = feature.NewSensitivityList[family.Reaction]()
	return out
}

// CanonicalName returns the canonical name of s.
func (m *Model) CanonicalName(s *family.Species) (string, error) {
	return m.namer.SpeciesName(s)
}

// DisplayName renders s in canonical order for people.
func (m *Model) DisplayName(s *family.Species) (string, error) {
	st, _, err := m.namer.Canonicalize(s.Family().Paradigm(), s.Params())
	if err != nil {
		return "", err
	}
	return st.String(), nil
}

func (m *Model) fail(op string, err error) error {
	m.logger.Error("expansion step failed",
		logging.String("op", op),
		logging.String("code", string(errors.GetCode(err))),
		logging.Err(err))
	return err
}
