package reaction

import (
	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/domain/feature"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/pkg/errors"
)

// Extras are species taken up and given off alongside a modification, such
// as ATP and ADP in a phosphorylation.  Either may be nil.
type Extras struct {
	Reactant *family.Species
	Product  *family.Species
}

func (e Extras) reactants(s *family.Species) []*family.Species {
	if e.Reactant == nil {
		return []*family.Species{s}
	}
	return []*family.Species{s, e.Reactant}
}

func (e Extras) products(s *family.Species) []*family.Species {
	if e.Product == nil {
		return []*family.Species{s}
	}
	return []*family.Species{s, e.Product}
}

// ─────────────────────────────────────────────────────────────────────────────
// Uni-mol modification
// ─────────────────────────────────────────────────────────────────────────────

// UniMolSpec declares a modification of one mol type.  When, if set, must
// hold on the mol's state; Exchange maps mod site names to the modification
// written there.
type UniMolSpec struct {
	Mol      *mol.MolType
	When     mol.ModPattern
	Exchange map[string]string
	Extras   Extras
	Rate     float64
}

// UniMolGen listens on the mol feature of its type.  Every mol of that type
// in a new species whose state matches yields one reaction: the species
// becomes the member of its own family with that mol's state exchanged.
type UniMolGen struct {
	gens Generators
	spec UniMolSpec
}

// DeclareUniMol validates spec and attaches its generator.
func DeclareUniMol(gens Generators, spec UniMolSpec) (*UniMolGen, error) {
	if spec.Mol == nil {
		return nil, errors.New(errors.ErrCodeValidation, "uni-mol generator needs a mol type")
	}
	if !spec.Mol.IsModifiable() {
		return nil, errors.Default(errors.ErrCodeNotModifiable).WithDetail(spec.Mol.Name())
	}
	if len(spec.Exchange) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "uni-mol generator exchanges nothing").WithDetail(spec.Mol.Name())
	}
	if spec.When != nil && len(spec.When) != spec.Mol.ModSiteCount() {
		return nil, errors.Default(errors.ErrCodeInvalidQuery).
			WithDetailf("%s has %d mod sites, pattern has %d", spec.Mol.Name(), spec.Mol.ModSiteCount(), len(spec.When))
	}
	if _, err := gens.Families.Mols().ModPatternFor(spec.Mol, spec.Exchange); err != nil {
		return nil, err
	}
	if err := checkRate(spec.Rate); err != nil {
		return nil, err
	}
	g := &UniMolGen{gens: gens, spec: spec}
	gens.Families.MolFeature(spec.Mol).AddGenerator(g)
	return g, nil
}

// Mol returns the modified mol type.
func (g *UniMolGen) Mol() *mol.MolType { return g.spec.Mol }

// MakeReactions implements feature.Generator.
func (g *UniMolGen) MakeReactions(ctx family.MolContext, depth int) error {
	mols := g.gens.Families.Mols()
	params := ctx.Species.Params()
	p := params[ctx.Mol]
	if g.spec.When != nil && !mols.MatchMods(p, g.spec.When) {
		return nil
	}
	next, err := mols.ExchangeMods(p, g.spec.Exchange)
	if err != nil {
		return err
	}
	if next == p {
		return nil
	}
	params[ctx.Mol] = next
	return g.gens.modify(KindUniMol, ctx.Species, params, g.spec.Extras, g.spec.Rate, depth)
}

// ─────────────────────────────────────────────────────────────────────────────
// OmniPlex modification
// ─────────────────────────────────────────────────────────────────────────────

// MolExchange rewrites the modifications of one OmniPlex mol.
type MolExchange struct {
	Mol  int
	Mods map[string]string
}

// OmniSpec declares a modification driven by an OmniPlex.  When and every
// exchange are indexed in the OmniPlex graph.
type OmniSpec struct {
	Omni      *family.OmniPlex
	When      family.StateQuery
	Exchanges []MolExchange
	Extras    Extras
	Rate      float64
}

// OmniGen listens on an OmniPlex feature.  Every species embedding the
// OmniPlex whose states satisfy When is modified at the embedded mols.
type OmniGen struct {
	gens Generators
	spec OmniSpec
}

// DeclareOmni validates spec and attaches its generator.
func DeclareOmni(gens Generators, spec OmniSpec) (*OmniGen, error) {
	if spec.Omni == nil {
		return nil, errors.New(errors.ErrCodeValidation, "omni generator needs an omniplex")
	}
	if len(spec.Exchanges) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "omni generator exchanges nothing").WithDetail(spec.Omni.Name())
	}
	if err := spec.Omni.CheckQuery(spec.When); err != nil {
		return nil, err
	}
	g := spec.Omni.Graph()
	for _, ex := range spec.Exchanges {
		if ex.Mol < 0 || ex.Mol >= g.MolCount() {
			return nil, errors.Default(errors.ErrCodeIndexOutOfRange).WithDetailf("omniplex %s mol %d", spec.Omni.Name(), ex.Mol)
		}
		if _, err := gens.Families.Mols().ModPatternFor(g.Mol(ex.Mol), ex.Mods); err != nil {
			return nil, err
		}
	}
	if err := checkRate(spec.Rate); err != nil {
		return nil, err
	}
	gen := &OmniGen{gens: gens, spec: spec}
	spec.Omni.Feature().AddGenerator(gen)
	return gen, nil
}

// Omni returns the OmniPlex the generator listens on.
func (g *OmniGen) Omni() *family.OmniPlex { return g.spec.Omni }

// MakeReactions implements feature.Generator.
func (g *OmniGen) MakeReactions(ctx family.SubPlexContext, depth int) error {
	if !ctx.Holds(g.spec.When) {
		return nil
	}
	mols := g.gens.Families.Mols()
	params := ctx.Species.Params()
	changed := false
	for _, ex := range g.spec.Exchanges {
		m := ctx.ParadigmMol(ex.Mol)
		next, err := mols.ExchangeMods(params[m], ex.Mods)
		if err != nil {
			return err
		}
		changed = changed || next != params[m]
		params[m] = next
	}
	if !changed {
		return nil
	}
	return g.gens.modify(KindOmni, ctx.Species, params, g.spec.Extras, g.spec.Rate, depth)
}

// modify records s -> the member of s's family at params and notifies the
// product one level down.
func (gens Generators) modify(kind Kind, s *family.Species, params []mol.MolParam, extras Extras, rate float64, depth int) error {
	product, err := s.Family().GetMember(params, -1)
	if err != nil {
		return err
	}
	gens.Network.Add(kind, extras.reactants(s), extras.products(product), rate)
	return product.EnsureNotified(depth - 1)
}

var (
	_ feature.Generator[family.MolContext]     = (*UniMolGen)(nil)
	_ feature.Generator[family.SubPlexContext] = (*OmniGen)(nil)
)
