package reaction

import (
	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
)

// DecompositionGen generates the breaking of a binding.  It listens on the
// binding feature created by DeclareDimerization.
type DecompositionGen struct {
	gens Generators
}

// MakeReactions removes the binding from the new species and recognizes
// what remains: one product when the binding closed a ring, two otherwise.
func (g *DecompositionGen) MakeReactions(ctx family.BindingContext, depth int) error {
	s := ctx.Species
	paradigm := s.Family().Paradigm()
	b := paradigm.Binding(ctx.Binding)
	rate, err := g.gens.Rates.MustOff(s.Shape(b.Left), s.Shape(b.Right))
	if err != nil {
		return err
	}
	broken, err := paradigm.WithoutBinding(ctx.Binding)
	if err != nil {
		return err
	}

	params := s.Params()
	left, err := g.component(broken, b.Left.Mol, params)
	if err != nil {
		return err
	}
	products := []*family.Species{left}
	if left.Family().Paradigm().MolCount() < paradigm.MolCount() {
		right, err := g.component(broken, b.Right.Mol, params)
		if err != nil {
			return err
		}
		products = append(products, right)
	}

	g.gens.Network.Add(KindDecomposition, []*family.Species{s}, products, rate)
	for _, p := range products {
		if err := p.EnsureNotified(depth - 1); err != nil {
			return err
		}
	}
	return nil
}

// component extracts the connected component of seed from broken and
// returns its species, carrying each mol's state through the component iso
// and the recognition iso.
func (g *DecompositionGen) component(broken *plex.Graph, seed int, params []mol.MolParam) (*family.Species, error) {
	comp, compIso := broken.ConnectedComponent(seed)
	fam, toParadigm, err := g.gens.Families.Recognize(comp)
	if err != nil {
		return nil, err
	}
	compParams := make([]mol.MolParam, fam.Paradigm().MolCount())
	for k := range compParams {
		compParams[k] = params[compIso.Backward.MolMap[toParadigm.Backward.MolMap[k]]]
	}
	return fam.GetMember(compParams, -1)
}
