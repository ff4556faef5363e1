package family

import (
	"github.com/turtacn/plexnet/internal/domain/feature"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/pkg/errors"
)

// SpeciesID is the registry-wide handle of a species, assigned in creation
// order.
type SpeciesID int

// Param fully determines one species of a family: the interned state of
// every paradigm mol and the effective shape of every paradigm site.
type Param struct {
	Mols       []mol.MolParam
	SiteShapes [][]mol.ShapeID
}

// Shape returns the effective shape of site s.
func (p Param) Shape(s plex.SiteSpec) mol.ShapeID { return p.SiteShapes[s.Mol][s.Site] }

func (p Param) clone() Param {
	out := Param{
		Mols:       append([]mol.MolParam(nil), p.Mols...),
		SiteShapes: make([][]mol.ShapeID, len(p.SiteShapes)),
	}
	for i, s := range p.SiteShapes {
		out.SiteShapes[i] = append([]mol.ShapeID(nil), s...)
	}
	return out
}

// Species is one parameterization of a family.  Apart from its population
// and the set of reactions depending on it, a species never changes after
// creation and is never removed.
type Species struct {
	id         SpeciesID
	family     *Family
	param      Param
	weight     float64
	population int
	notifier   feature.OnceNotifier
	dependents *feature.SensitivityList[Reaction]
}

// ID returns the species handle.
func (s *Species) ID() SpeciesID { return s.id }

// Family returns the owning family.
func (s *Species) Family() *Family { return s.family }

// Params returns the per-mol interned states, indexed like the paradigm.
func (s *Species) Params() []mol.MolParam { return append([]mol.MolParam(nil), s.param.Mols...) }

// Param returns a copy of the full parameterization.
func (s *Species) Param() Param { return s.param.clone() }

// Shape returns the effective shape of a paradigm site.
func (s *Species) Shape(site plex.SiteSpec) mol.ShapeID { return s.param.Shape(site) }

// Weight returns the molecular weight: the sum of the mol weights in their
// states.
func (s *Species) Weight() float64 { return s.weight }

// Population returns the current copy number.
func (s *Species) Population() int { return s.population }

// Notified reports whether the species has announced itself to its features.
func (s *Species) Notified() bool { return s.notifier.Notified() }

// AddDependent registers a reaction whose rate depends on this species and
// reports whether it was new.
func (s *Species) AddDependent(r Reaction) bool { return s.dependents.Add(r) }

// RemoveDependent drops a reaction registered with AddDependent.
func (s *Species) RemoveDependent(r Reaction) bool { return s.dependents.Remove(r) }

// Dependents returns the reactions depending on this species.
func (s *Species) Dependents() []Reaction { return s.dependents.Items() }

// EnsureNotified announces the species to every feature of its family the
// first time it is called with depth >= 0.  depth bounds how far reaction
// generation recurses through newly created products.
//
// Notification is all or nothing.  If a generator fails, the contexts and
// reactions staged since it began are dropped and the species is left
// unnotified, so a later call retries.  A nested notification that
// succeeded is undone along with the one that failed around it.
func (s *Species) EnsureNotified(depth int) error {
	j := &s.family.registry.journal
	return s.notifier.Ensure(depth, func(depth int) error {
		j.Record(s.notifier.Reset, nil)
		mark := j.Begin()
		err := s.notify(depth)
		j.End(mark, err)
		return err
	})
}

// Update changes the population by delta and adds the reactions depending
// on the species to affected.  Notification comes first so the dependents
// include the reactions that notification creates.
func (s *Species) Update(delta int, affected *feature.SensitivityList[Reaction], depth int) error {
	if err := s.EnsureNotified(depth); err != nil {
		return err
	}
	next := s.population + delta
	if next < 0 {
		return errors.Default(errors.ErrCodeNegativePopulation).
			WithDetailf("species %d: population %d, delta %d", s.id, s.population, delta)
	}
	s.population = next
	if affected != nil {
		affected.AddAll(s.dependents)
	}
	return nil
}

func (s *Species) notify(depth int) error {
	f := s.family
	obs := f.registry.observer
	for _, sf := range f.siteFeatures {
		obs.FeatureNotified(FeatureSite)
		if err := sf.feature.NotifyNew(SiteContext{Species: s, Site: sf.site}, depth); err != nil {
			return err
		}
	}
	for i, bf := range f.bindingFeatures {
		obs.FeatureNotified(FeatureBinding)
		if err := bf.NotifyNew(BindingContext{Species: s, Binding: i}, depth); err != nil {
			return err
		}
	}
	for i, mf := range f.molFeatures {
		obs.FeatureNotified(FeatureMol)
		if err := mf.NotifyNew(MolContext{Species: s, Mol: i}, depth); err != nil {
			return err
		}
	}
	for _, m := range f.omniMatches {
		obs.FeatureNotified(FeatureSubPlex)
		ctx := SubPlexContext{Species: s, Omni: m.omni, Injection: m.injection.Clone()}
		if err := m.omni.feature.NotifyNew(ctx, depth); err != nil {
			return err
		}
	}
	return nil
}
