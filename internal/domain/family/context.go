package family

import (
	"fmt"

	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
)

// Reaction is the part of a reaction a species needs to know: the species
// keeps the reactions whose rates depend on its population.
type Reaction interface {
	Reactants() []*Species
	Products() []*Species
}

// ─────────────────────────────────────────────────────────────────────────────
// Feature contexts
// ─────────────────────────────────────────────────────────────────────────────

// SiteContext locates a free site of a newly observed species.  Site is
// indexed in the species' paradigm.
type SiteContext struct {
	Species *Species
	Site    plex.SiteSpec
}

// BindingContext locates one binding of a newly observed species.
type BindingContext struct {
	Species *Species
	Binding int
}

// MolContext locates one mol of a newly observed species.
type MolContext struct {
	Species *Species
	Mol     int
}

// SubPlexContext reports that an OmniPlex's structure embeds in a newly
// observed species.  Injection maps the OmniPlex graph into the paradigm.
type SubPlexContext struct {
	Species   *Species
	Omni      *OmniPlex
	Injection plex.Iso
}

// ParadigmMol carries mol i of the OmniPlex graph into the paradigm.
func (c SubPlexContext) ParadigmMol(i int) int { return c.Injection.Forward.MolMap[i] }

// Holds evaluates q, indexed in the OmniPlex graph, on the species' states.
func (c SubPlexContext) Holds(q StateQuery) bool {
	return q.holds(c.Species.family.registry.mols, c.Species.param.Mols, c.Injection.Forward.MolMap)
}

// ─────────────────────────────────────────────────────────────────────────────
// Feature keys
// ─────────────────────────────────────────────────────────────────────────────

// SiteKey names a binding site of a mol type independently of any complex.
type SiteKey struct {
	Type mol.TypeID
	Site int
}

func (k SiteKey) less(o SiteKey) bool {
	if k.Type != o.Type {
		return k.Type < o.Type
	}
	return k.Site < o.Site
}

func (k SiteKey) String() string { return fmt.Sprintf("%d.%d", k.Type, k.Site) }

// BindingKey is an unordered pair of site keys.  NewBindingKey normalizes the
// order so both orientations of a binding produce the same key.
type BindingKey struct {
	Lo SiteKey
	Hi SiteKey
}

// NewBindingKey returns the normalized key of a binding between a and b.
func NewBindingKey(a, b SiteKey) BindingKey {
	if b.less(a) {
		a, b = b, a
	}
	return BindingKey{Lo: a, Hi: b}
}

func (k BindingKey) String() string { return k.Lo.String() + "~" + k.Hi.String() }

// bindingKeyOf returns the key of binding i of g.
func bindingKeyOf(g *plex.Graph, i int) BindingKey {
	b := g.Binding(i)
	return NewBindingKey(
		SiteKey{Type: g.Mol(b.Left.Mol).ID(), Site: b.Left.Site},
		SiteKey{Type: g.Mol(b.Right.Mol).ID(), Site: b.Right.Site},
	)
}

// ─────────────────────────────────────────────────────────────────────────────
// Observer
// ─────────────────────────────────────────────────────────────────────────────

// Recognition outcomes reported to Observer.Recognized.
const (
	OutcomeCached   = "cached"
	OutcomeExisting = "existing"
	OutcomeNew      = "new"
)

// Feature kinds reported to Observer.FeatureNotified.
const (
	FeatureSite    = "site"
	FeatureBinding = "binding"
	FeatureMol     = "mol"
	FeatureSubPlex = "subplex"
)

// Search kinds reported to Observer.IsoSearched.
const (
	SearchIso       = "iso"
	SearchInjection = "injection"
)

// Observer receives registry events.  Implementations must not call back
// into the registry.
type Observer interface {
	FamilyCreated(f *Family)
	SpeciesCreated(s *Species)
	Recognized(outcome string)
	HashCollision(f *Family)
	FeatureNotified(kind string)
	IsoSearched(kind string, found bool)
}

// NopObserver ignores every event.  Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) FamilyCreated(*Family) {}
func (NopObserver) SpeciesCreated(*Species) {}
func (NopObserver) Recognized(string) {}
func (NopObserver) HashCollision(*Family) {}
func (NopObserver) FeatureNotified(string) {}
func (NopObserver) IsoSearched(string, bool) {}
