package reaction

import (
	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/domain/feature"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/pkg/errors"
)

// Generators bundles what every generator needs: the family registry to
// recognize products in, the network to record reactions in and the rate
// table to read constants from.
type Generators struct {
	Families *family.Registry
	Network  *Network
	Rates    *ShapeRateTable
}

// DimerizationGen generates the binding of two free sites.  It listens on
// the site features of both sites and pairs every new context on one side
// with every context already seen on the other.
type DimerizationGen struct {
	gens         Generators
	left, right  family.SiteKey
	leftFeature  *feature.Feature[family.SiteContext]
	rightFeature *feature.Feature[family.SiteContext]
}

// DeclareDimerization wires a dimerization between the two sites and the
// decomposition of the resulting binding.  A site paired with itself
// (homodimerization) attaches a single generator so each pair is made once.
// Declaring the same site pair twice is an error.
func DeclareDimerization(gens Generators, left, right family.SiteKey) (*DimerizationGen, *DecompositionGen, error) {
	if _, dup := gens.Families.BindingFeature(left, right); dup {
		return nil, nil, errors.Default(errors.ErrCodeDuplicateKinetics).WithDetailf("sites %s and %s", left, right)
	}
	mols := gens.Families.Mols()
	lt, rt := mols.Type(left.Type), mols.Type(right.Type)
	if lt == nil || rt == nil {
		return nil, nil, errors.Default(errors.ErrCodeUnknownMol).WithDetailf("sites %s and %s", left, right)
	}
	lf, err := gens.Families.SiteFeature(lt, left.Site)
	if err != nil {
		return nil, nil, err
	}
	rf, err := gens.Families.SiteFeature(rt, right.Site)
	if err != nil {
		return nil, nil, err
	}
	bf, err := gens.Families.DeclareBindingFeature(left, right)
	if err != nil {
		return nil, nil, err
	}

	d := &DimerizationGen{gens: gens, left: left, right: right, leftFeature: lf, rightFeature: rf}
	if left == right {
		lf.AddGenerator(feature.GeneratorFunc[family.SiteContext](d.homo))
	} else {
		lf.AddGenerator(feature.GeneratorFunc[family.SiteContext](d.fromLeft))
		rf.AddGenerator(feature.GeneratorFunc[family.SiteContext](d.fromRight))
	}
	dec := &DecompositionGen{gens: gens}
	bf.AddGenerator(dec)
	return d, dec, nil
}

// IsHomodimer reports whether both sides are the same site.
func (d *DimerizationGen) IsHomodimer() bool { return d.left == d.right }

// Sites returns the two sites of the dimerization.
func (d *DimerizationGen) Sites() (left, right family.SiteKey) { return d.left, d.right }

func (d *DimerizationGen) fromLeft(ctx family.SiteContext, depth int) error {
	for _, other := range d.rightFeature.Contexts() {
		if err := d.dimerize(ctx, other, depth); err != nil {
			return err
		}
	}
	return nil
}

func (d *DimerizationGen) fromRight(ctx family.SiteContext, depth int) error {
	for _, other := range d.leftFeature.Contexts() {
		if err := d.dimerize(other, ctx, depth); err != nil {
			return err
		}
	}
	return nil
}

// homo pairs ctx with every context of the shared feature, itself included:
// ctx was recorded before generators run, so a species meeting a copy of
// itself is covered.
func (d *DimerizationGen) homo(ctx family.SiteContext, depth int) error {
	for _, other := range d.leftFeature.Contexts() {
		if err := d.dimerize(ctx, other, depth); err != nil {
			return err
		}
	}
	return nil
}

// dimerize joins the left species' paradigm and the right species' paradigm
// at the two sites, recognizes the product and records the reaction.
func (d *DimerizationGen) dimerize(l, r family.SiteContext, depth int) error {
	rate, err := d.gens.Rates.MustOn(l.Species.Shape(l.Site), r.Species.Shape(r.Site))
	if err != nil {
		return err
	}
	lp := l.Species.Family().Paradigm()
	rp := r.Species.Family().Paradigm()
	joined, err := plex.Join(lp, rp, l.Site, r.Site)
	if err != nil {
		return err
	}
	fam, iso, err := d.gens.Families.Recognize(joined)
	if err != nil {
		return err
	}

	leftCount := lp.MolCount()
	leftParams, rightParams := l.Species.Params(), r.Species.Params()
	params := make([]mol.MolParam, fam.Paradigm().MolCount())
	for k := range params {
		j := iso.Backward.MolMap[k]
		if j < leftCount {
			params[k] = leftParams[j]
		} else {
			params[k] = rightParams[j-leftCount]
		}
	}
	product, err := fam.GetMember(params, -1)
	if err != nil {
		return err
	}
	d.gens.Network.Add(KindDimerization, []*family.Species{l.Species, r.Species}, []*family.Species{product}, rate)
	return product.EnsureNotified(depth - 1)
}
