package family

import (
	"strconv"
	"strings"

	"github.com/turtacn/plexnet/internal/domain/feature"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

// FamilyID is the registry-wide handle of a family, assigned in creation
// order.
type FamilyID int

type siteFeature struct {
	site    plex.SiteSpec
	feature *feature.Feature[SiteContext]
}

// Family is one isomorphism class of complexes.  Its paradigm graph fixes
// the mol and binding indices every species, feature context and param
// vector of the family refers to.
type Family struct {
	id       FamilyID
	registry *Registry
	paradigm *plex.Graph
	hash     uint64

	members []*Species
	byParam map[string]*Species

	siteFeatures    []siteFeature
	bindingFeatures []*feature.Feature[BindingContext]
	molFeatures     []*feature.Feature[MolContext]
	omniMatches     []omniMatch
	alloRules       []alloRule
}

// ID returns the family handle.
func (f *Family) ID() FamilyID { return f.id }

// Paradigm returns the representative graph.
func (f *Family) Paradigm() *plex.Graph { return f.paradigm }

// Hash returns the topological hash of the paradigm.
func (f *Family) Hash() uint64 { return f.hash }

// Species returns the members in creation order.
func (f *Family) Species() []*Species { return append([]*Species(nil), f.members...) }

// SpeciesCount returns the number of members.
func (f *Family) SpeciesCount() int { return len(f.members) }

// OmniPlexes returns the OmniPlexes embedded in the paradigm, in
// registration order.
func (f *Family) OmniPlexes() []*OmniPlex {
	out := make([]*OmniPlex, len(f.omniMatches))
	for i, m := range f.omniMatches {
		out[i] = m.omni
	}
	return out
}

// DefaultParams returns the default state of every paradigm mol.
func (f *Family) DefaultParams() []mol.MolParam {
	out := make([]mol.MolParam, f.paradigm.MolCount())
	for i := range out {
		out[i] = f.paradigm.Mol(i).DefaultParam()
	}
	return out
}

func paramKey(params []mol.MolParam) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(p)))
	}
	return sb.String()
}

func (f *Family) checkParams(params []mol.MolParam) error {
	if len(params) != f.paradigm.MolCount() {
		return errors.Default(errors.ErrCodeParamCountMismatch).
			WithDetailf("family %d has %d mols, got %d params", f.id, f.paradigm.MolCount(), len(params))
	}
	return nil
}

// Lookup returns the existing species for params without creating one.
func (f *Family) Lookup(params []mol.MolParam) (*Species, bool) {
	if len(params) != f.paradigm.MolCount() {
		return nil, false
	}
	s, ok := f.byParam[paramKey(params)]
	return s, ok
}

// GetMember returns the unique species for params, creating it on first
// request, and then ensures it has notified its features at depth.  A
// negative depth registers the species without notifying.
func (f *Family) GetMember(params []mol.MolParam, depth int) (*Species, error) {
	if err := f.checkParams(params); err != nil {
		return nil, err
	}
	key := paramKey(params)
	s, ok := f.byParam[key]
	if !ok {
		shapes, err := f.Allostery(params)
		if err != nil {
			return nil, err
		}
		weight, err := f.registry.paramsWeight(params)
		if err != nil {
			return nil, err
		}
		s = f.registry.newSpecies(f, Param{Mols: append([]mol.MolParam(nil), params...), SiteShapes: shapes}, weight)
		f.byParam[key] = s
		f.members = append(f.members, s)
		f.registry.speciesCreated(s)
	}
	if err := s.EnsureNotified(depth); err != nil {
		return nil, err
	}
	return s, nil
}

// Allostery computes the effective shape of every paradigm site for params.
// Each mol starts from the shapes of its own state; OmniPlex overlays whose
// state query holds are applied in registration order, then the family's
// own allosteric rules in declaration order.  Later writes win.
func (f *Family) Allostery(params []mol.MolParam) ([][]mol.ShapeID, error) {
	if err := f.checkParams(params); err != nil {
		return nil, err
	}
	mols := f.registry.mols
	shapes := make([][]mol.ShapeID, len(params))
	for i, p := range params {
		s, err := mols.SiteShapes(f.paradigm.Mol(i), p)
		if err != nil {
			return nil, err
		}
		shapes[i] = s
	}
	for _, m := range f.omniMatches {
		molMap := m.injection.Forward.MolMap
		if m.omni.query.holds(mols, params, molMap) {
			m.omni.overlay.apply(shapes, molMap)
		}
	}
	for _, r := range f.alloRules {
		if r.query.holds(mols, params, nil) {
			r.overlay.apply(shapes, nil)
		}
	}
	return shapes, nil
}

// AddAllostericRule adds a family-specific overlay.  query and overlay are
// indexed in g; iso maps g onto the paradigm, as returned by Recognize.  Rules
// must be declared before the family has species.
func (f *Family) AddAllostericRule(g *plex.Graph, iso plex.Iso, query StateQuery, overlay Overlay) error {
	if len(f.members) > 0 {
		return errors.Default(errors.ErrCodeInvalidOverlay).
			WithDetailf("family %d already has %d species", f.id, len(f.members))
	}
	if !iso.Verify(g, f.paradigm) {
		return errors.Default(errors.ErrCodeInvalidOverlay).WithDetail("graph does not map onto the paradigm")
	}
	if err := query.validate(g); err != nil {
		return err
	}
	if err := overlay.validate(f.registry.mols, g); err != nil {
		return err
	}
	molMap := iso.Forward.MolMap
	f.alloRules = append(f.alloRules, alloRule{query: query.translate(molMap), overlay: overlay.translate(molMap)})
	f.registry.logger.Debug("allosteric rule added",
		logging.Int("family", int(f.id)),
		logging.Int("predicates", len(query)),
		logging.Int("overrides", len(overlay)))
	return nil
}
