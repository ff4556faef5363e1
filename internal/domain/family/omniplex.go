package family

import (
	"github.com/turtacn/plexnet/internal/domain/feature"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/pkg/errors"
)

// MolPredicate requires mol Mol of a query graph to be in a state matching
// Pattern.
type MolPredicate struct {
	Mol     int
	Pattern mol.ModPattern
}

// StateQuery is a conjunction of mol predicates.  The empty query always
// holds.
type StateQuery []MolPredicate

// holds evaluates q on params.  molMap carries query mol indices to param
// indices; nil means the indices coincide.
func (q StateQuery) holds(mols *mol.Registry, params []mol.MolParam, molMap []int) bool {
	for _, p := range q {
		idx := p.Mol
		if molMap != nil {
			idx = molMap[idx]
		}
		if !mols.MatchMods(params[idx], p.Pattern) {
			return false
		}
	}
	return true
}

func (q StateQuery) validate(g *plex.Graph) error {
	for _, p := range q {
		if p.Mol < 0 || p.Mol >= g.MolCount() {
			return errors.Default(errors.ErrCodeInvalidQuery).WithDetailf("mol %d of %d", p.Mol, g.MolCount())
		}
		t := g.Mol(p.Mol)
		if len(p.Pattern) != t.ModSiteCount() {
			return errors.Default(errors.ErrCodeInvalidQuery).WithDetailf("%s has %d mod sites, pattern has %d", t.Name(), t.ModSiteCount(), len(p.Pattern))
		}
	}
	return nil
}

func (q StateQuery) translate(molMap []int) StateQuery {
	out := make(StateQuery, len(q))
	for i, p := range q {
		out[i] = MolPredicate{Mol: molMap[p.Mol], Pattern: append(mol.ModPattern(nil), p.Pattern...)}
	}
	return out
}

// ShapeOverride forces one site to a shape.
type ShapeOverride struct {
	Site  plex.SiteSpec
	Shape mol.ShapeID
}

// Overlay is an ordered list of shape overrides.  Later entries overwrite
// earlier ones on the same site.
type Overlay []ShapeOverride

func (o Overlay) validate(mols *mol.Registry, g *plex.Graph) error {
	for _, ov := range o {
		if ov.Site.Mol < 0 || ov.Site.Mol >= g.MolCount() {
			return errors.Default(errors.ErrCodeInvalidOverlay).WithDetailf("mol %d of %d", ov.Site.Mol, g.MolCount())
		}
		t := g.Mol(ov.Site.Mol)
		if ov.Site.Site < 0 || ov.Site.Site >= t.SiteCount() {
			return errors.Default(errors.ErrCodeInvalidOverlay).WithDetailf("%s has no site %d", t.Name(), ov.Site.Site)
		}
		sh, ok := mols.Shape(ov.Shape)
		if !ok || sh.Type != t.ID() || sh.Site != ov.Site.Site {
			return errors.Default(errors.ErrCodeInvalidOverlay).WithDetailf("shape %d is not a shape of %s.%s", int(ov.Shape), t.Name(), t.Site(ov.Site.Site).Name())
		}
	}
	return nil
}

// apply writes the overlay into shapes, carrying mol indices through molMap
// (nil for identity).
func (o Overlay) apply(shapes [][]mol.ShapeID, molMap []int) {
	for _, ov := range o {
		m := ov.Site.Mol
		if molMap != nil {
			m = molMap[m]
		}
		shapes[m][ov.Site.Site] = ov.Shape
	}
}

func (o Overlay) translate(molMap []int) Overlay {
	out := make(Overlay, len(o))
	for i, ov := range o {
		out[i] = ShapeOverride{Site: plex.SiteSpec{Mol: molMap[ov.Site.Mol], Site: ov.Site.Site}, Shape: ov.Shape}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// OmniPlex
// ─────────────────────────────────────────────────────────────────────────────

// OmniPlex is a registered sub-structure query.  Every family whose paradigm
// embeds the OmniPlex graph applies its overlay to species satisfying the
// state query, and reports new species to the OmniPlex's feature.
type OmniPlex struct {
	id      int
	name    string
	graph   *plex.Graph
	query   StateQuery
	overlay Overlay
	feature *feature.Feature[SubPlexContext]
}

// ID returns the registration index.
func (o *OmniPlex) ID() int { return o.id }

// Name returns the label given at registration.
func (o *OmniPlex) Name() string { return o.name }

// Graph returns the structural query.
func (o *OmniPlex) Graph() *plex.Graph { return o.graph }

// Query returns the state query, indexed in Graph.
func (o *OmniPlex) Query() StateQuery { return append(StateQuery(nil), o.query...) }

// Overlay returns the shape overlay, indexed in Graph.
func (o *OmniPlex) Overlay() Overlay { return append(Overlay(nil), o.overlay...) }

// CheckQuery validates a state query indexed in the OmniPlex graph.
func (o *OmniPlex) CheckQuery(q StateQuery) error { return q.validate(o.graph) }

// Feature returns the feature notified with every new species embedding the
// OmniPlex.  Generators attach here.
func (o *OmniPlex) Feature() *feature.Feature[SubPlexContext] { return o.feature }

// omniMatch is one OmniPlex embedded in a paradigm.
type omniMatch struct {
	omni      *OmniPlex
	injection plex.Iso
}

// alloRule is a family-specific overlay, already indexed in the paradigm.
type alloRule struct {
	query   StateQuery
	overlay Overlay
}
