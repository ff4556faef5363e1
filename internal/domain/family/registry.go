// Package family implements structural deduplication of complexes.  A
// Registry keeps one Family per isomorphism class of complex graphs; each
// family caches one Species per distinct parameterization and wires its
// paradigm's structural locations to the features that drive reaction
// generation.
package family

import (
	"fmt"

	"github.com/turtacn/plexnet/internal/domain/feature"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

type recognition struct {
	family *Family
	iso    plex.Iso
}

// Registry owns every family, species, feature and OmniPlex of one model.
type Registry struct {
	mols     *mol.Registry
	logger   logging.Logger
	observer Observer
	useCache bool

	families []*Family
	byHash   map[uint64][]*Family
	cache    map[string]recognition
	species  []*Species

	siteFeatures    map[SiteKey]*feature.Feature[SiteContext]
	molFeatures     map[mol.TypeID]*feature.Feature[MolContext]
	bindingFeatures map[BindingKey]*feature.Feature[BindingContext]
	omnis           []*OmniPlex

	journal feature.Journal
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver routes registry events to o.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithRecognitionCache toggles the exact-structure recognition cache.
func WithRecognitionCache(enabled bool) Option {
	return func(r *Registry) { r.useCache = enabled }
}

// NewRegistry creates an empty registry over the mol definitions in mols.
func NewRegistry(mols *mol.Registry, logger logging.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &Registry{
		mols:            mols,
		logger:          logger.Named("family"),
		observer:        NopObserver{},
		useCache:        true,
		byHash:          make(map[uint64][]*Family),
		cache:           make(map[string]recognition),
		siteFeatures:    make(map[SiteKey]*feature.Feature[SiteContext]),
		molFeatures:     make(map[mol.TypeID]*feature.Feature[MolContext]),
		bindingFeatures: make(map[BindingKey]*feature.Feature[BindingContext]),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mols returns the mol definitions the registry resolves against.
func (r *Registry) Mols() *mol.Registry { return r.mols }

// Families returns every family in creation order.
func (r *Registry) Families() []*Family { return append([]*Family(nil), r.families...) }

// Journal returns the undo log that stages everything one notification
// adds.  Generators record the reactions they create on it.
func (r *Registry) Journal() *feature.Journal { return &r.journal }

// FamilyCount returns the number of families.
func (r *Registry) FamilyCount() int { return len(r.families) }

// Family returns the family behind a handle.
func (r *Registry) Family(id FamilyID) (*Family, bool) {
	if id < 0 || int(id) >= len(r.families) {
		return nil, false
	}
	return r.families[id], true
}

// Species returns every species of every family in creation order.
func (r *Registry) Species() []*Species { return append([]*Species(nil), r.species...) }

// SpeciesCount returns the number of species.
func (r *Registry) SpeciesCount() int { return len(r.species) }

// SpeciesByID returns the species behind a handle.
func (r *Registry) SpeciesByID(id SpeciesID) (*Species, bool) {
	if id < 0 || int(id) >= len(r.species) {
		return nil, false
	}
	return r.species[id], true
}

// ─────────────────────────────────────────────────────────────────────────────
// Features
// ─────────────────────────────────────────────────────────────────────────────

// SiteFeature returns the feature of free site `site` of mol type t,
// creating it on first use.
func (r *Registry) SiteFeature(t *mol.MolType, site int) (*feature.Feature[SiteContext], error) {
	if site < 0 || site >= t.SiteCount() {
		return nil, errors.Default(errors.ErrCodeIndexOutOfRange).WithDetailf("%s site %d", t.Name(), site)
	}
	return r.siteFeature(SiteKey{Type: t.ID(), Site: site}), nil
}

func (r *Registry) siteFeature(k SiteKey) *feature.Feature[SiteContext] {
	f, ok := r.siteFeatures[k]
	if !ok {
		t := r.mols.Type(k.Type)
		f = feature.New[SiteContext](fmt.Sprintf("site:%s.%s", t.Name(), t.Site(k.Site).Name())).WithJournal(&r.journal)
		r.siteFeatures[k] = f
	}
	return f
}

// MolFeature returns the feature of mol type t, creating it on first use.
func (r *Registry) MolFeature(t *mol.MolType) *feature.Feature[MolContext] {
	f, ok := r.molFeatures[t.ID()]
	if !ok {
		f = feature.New[MolContext]("mol:" + t.Name()).WithJournal(&r.journal)
		r.molFeatures[t.ID()] = f
	}
	return f
}

// DeclareBindingFeature returns the feature of bindings between the two
// sites, creating it on first use.  Families may only contain bindings whose
// feature has been declared.
func (r *Registry) DeclareBindingFeature(a, b SiteKey) (*feature.Feature[BindingContext], error) {
	for _, k := range [2]SiteKey{a, b} {
		t := r.mols.Type(k.Type)
		if t == nil {
			return nil, errors.Default(errors.ErrCodeUnknownMol).WithDetailf("handle %d", int(k.Type))
		}
		if k.Site < 0 || k.Site >= t.SiteCount() {
			return nil, errors.Default(errors.ErrCodeIndexOutOfRange).WithDetailf("%s site %d", t.Name(), k.Site)
		}
	}
	key := NewBindingKey(a, b)
	f, ok := r.bindingFeatures[key]
	if !ok {
		f = feature.New[BindingContext]("binding:" + r.bindingName(key)).WithJournal(&r.journal)
		r.bindingFeatures[key] = f
	}
	return f, nil
}

// BindingFeature looks up a declared binding feature.
func (r *Registry) BindingFeature(a, b SiteKey) (*feature.Feature[BindingContext], bool) {
	f, ok := r.bindingFeatures[NewBindingKey(a, b)]
	return f, ok
}

func (r *Registry) bindingName(k BindingKey) string {
	name := func(s SiteKey) string {
		t := r.mols.Type(s.Type)
		return t.Name() + "." + t.Site(s.Site).Name()
	}
	return name(k.Lo) + "~" + name(k.Hi)
}

// ─────────────────────────────────────────────────────────────────────────────
// OmniPlexes
// ─────────────────────────────────────────────────────────────────────────────

// RegisterOmniPlex registers a sub-structure query with its state query and
// overlay, both indexed in g.  OmniPlexes are matched against paradigms when
// families are built, so registration is rejected once a family exists.
func (r *Registry) RegisterOmniPlex(name string, g *plex.Graph, query StateQuery, overlay Overlay) (*OmniPlex, error) {
	if len(r.families) > 0 {
		return nil, errors.Default(errors.ErrCodeLateOmniPlex).WithDetailf("%q after %d families", name, len(r.families))
	}
	if !g.IsConnected() {
		return nil, errors.Default(errors.ErrCodeNotConnected).WithDetailf("omniplex %q", name)
	}
	if err := query.validate(g); err != nil {
		return nil, err
	}
	if err := overlay.validate(r.mols, g); err != nil {
		return nil, err
	}
	o := &OmniPlex{
		id:      len(r.omnis),
		name:    name,
		graph:   g,
		query:   append(StateQuery(nil), query...),
		overlay: append(Overlay(nil), overlay...),
		feature: feature.New[SubPlexContext]("omni:" + name).WithJournal(&r.journal),
	}
	r.omnis = append(r.omnis, o)
	r.logger.Debug("omniplex registered",
		logging.String("omniplex", name),
		logging.Int("mols", g.MolCount()),
		logging.Int("overrides", len(overlay)))
	return o, nil
}

// OmniPlexes returns the registered OmniPlexes in registration order.
func (r *Registry) OmniPlexes() []*OmniPlex { return append([]*OmniPlex(nil), r.omnis...) }

// ─────────────────────────────────────────────────────────────────────────────
// Recognition
// ─────────────────────────────────────────────────────────────────────────────

// Recognize returns the family of g and an iso from g onto the family's
// paradigm.  Candidates are shortlisted by topological hash and confirmed by
// exact isomorphism search; when none matches, a new family is built with g
// as its paradigm.  Building either completes or leaves the registry
// unchanged.
func (r *Registry) Recognize(g *plex.Graph) (*Family, plex.Iso, error) {
	if !g.IsConnected() {
		return nil, plex.Iso{}, errors.Default(errors.ErrCodeNotConnected).WithDetail(g.String())
	}
	var key string
	if r.useCache {
		key = g.Key()
		if hit, ok := r.cache[key]; ok {
			r.observer.Recognized(OutcomeCached)
			return hit.family, hit.iso.Clone(), nil
		}
	}

	h := g.HashValue()
	for _, f := range r.byHash[h] {
		iso, found, err := plex.FindIso(g, f.paradigm)
		r.observer.IsoSearched(SearchIso, found)
		if err != nil {
			return nil, plex.Iso{}, err
		}
		if !found {
			r.observer.HashCollision(f)
			r.logger.Debug("hash collision", logging.Int("family", int(f.id)), logging.Uint64("hash", h))
			continue
		}
		r.remember(key, f, iso)
		r.observer.Recognized(OutcomeExisting)
		return f, iso, nil
	}

	f, err := r.newFamily(g, h)
	if err != nil {
		return nil, plex.Iso{}, err
	}
	iso := plex.IdentityIso(g)
	r.remember(key, f, iso)
	r.observer.Recognized(OutcomeNew)
	return f, iso, nil
}

func (r *Registry) remember(key string, f *Family, iso plex.Iso) {
	if r.useCache {
		r.cache[key] = recognition{family: f, iso: iso.Clone()}
	}
}

func (r *Registry) newFamily(g *plex.Graph, h uint64) (*Family, error) {
	// Everything that can fail runs before the registry is touched.
	bindingFeatures := make([]*feature.Feature[BindingContext], g.BindingCount())
	for i := range bindingFeatures {
		key := bindingKeyOf(g, i)
		bf, ok := r.bindingFeatures[key]
		if !ok {
			return nil, errors.Default(errors.ErrCodeMissingKinetics).WithDetail(r.bindingName(key))
		}
		bindingFeatures[i] = bf
	}
	var matches []omniMatch
	for _, o := range r.omnis {
		inj, found, err := plex.FindInjection(o.graph, g)
		r.observer.IsoSearched(SearchInjection, found)
		if err != nil {
			return nil, err
		}
		if found {
			matches = append(matches, omniMatch{omni: o, injection: inj})
		}
	}

	f := &Family{
		id:              FamilyID(len(r.families)),
		registry:        r,
		paradigm:        g,
		hash:            h,
		byParam:         make(map[string]*Species),
		bindingFeatures: bindingFeatures,
		omniMatches:     matches,
	}
	for _, s := range g.FreeSites() {
		f.siteFeatures = append(f.siteFeatures, siteFeature{
			site:    s,
			feature: r.siteFeature(SiteKey{Type: g.Mol(s.Mol).ID(), Site: s.Site}),
		})
	}
	for i := 0; i < g.MolCount(); i++ {
		f.molFeatures = append(f.molFeatures, r.MolFeature(g.Mol(i)))
	}

	r.families = append(r.families, f)
	r.byHash[h] = append(r.byHash[h], f)
	r.observer.FamilyCreated(f)
	r.logger.Info("family created",
		logging.Int("family", int(f.id)),
		logging.String("paradigm", g.String()),
		logging.Int("omniplexes", len(matches)))
	return f, nil
}

func (r *Registry) newSpecies(f *Family, p Param, weight float64) *Species {
	s := &Species{
		id:         SpeciesID(len(r.species)),
		family:     f,
		param:      p,
		weight:     weight,
		dependents: feature.NewSensitivityList[Reaction](),
	}
	r.species = append(r.species, s)
	return s
}

func (r *Registry) speciesCreated(s *Species) {
	r.observer.SpeciesCreated(s)
	r.logger.Debug("species created",
		logging.Int("species", int(s.id)),
		logging.Int("family", int(s.family.id)),
		logging.Float64("weight", s.weight))
}

func (r *Registry) paramsWeight(params []mol.MolParam) (float64, error) {
	var w float64
	for _, p := range params {
		pw, err := r.mols.ParamWeight(p)
		if err != nil {
			return 0, err
		}
		w += pw
	}
	return w, nil
}
