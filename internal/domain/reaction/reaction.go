// Package reaction holds the reaction network and the generators that grow
// it.  Generators attach to family features and synthesize reactions and
// product species as new species are observed.  Rates are looked up in
// shape-keyed tables; no rate law is evaluated here.
package reaction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/domain/feature"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
)

// Kind classifies reactions by the generator that made them.
type Kind string

const (
	KindDimerization  Kind = "dimerization"
	KindDecomposition Kind = "decomposition"
	KindUniMol        Kind = "uni-mol"
	KindOmni          Kind = "omni"
)

// Reaction is one elementary step between species.
type Reaction struct {
	id           int
	kind         Kind
	reactants    []*family.Species
	products     []*family.Species
	rate         float64
	multiplicity int
}

// ID returns the network-wide index of the reaction.
func (r *Reaction) ID() int { return r.id }

// Kind returns the generator kind.
func (r *Reaction) Kind() Kind { return r.kind }

// Reactants returns the consumed species.
func (r *Reaction) Reactants() []*family.Species { return append([]*family.Species(nil), r.reactants...) }

// Products returns the produced species.
func (r *Reaction) Products() []*family.Species { return append([]*family.Species(nil), r.products...) }

// Rate returns the rate constant taken from the kinetics table.
func (r *Reaction) Rate() float64 { return r.rate }

// Multiplicity returns how many structurally distinct contexts generated
// the reaction.  Symmetric sites of one species (the two free sites of a
// homodimer, say) each yield the same reaction; the network keeps one and
// counts it here, so the effective rate is Rate times Multiplicity.
func (r *Reaction) Multiplicity() int { return r.multiplicity }

func (r *Reaction) String() string {
	ids := func(ss []*family.Species) string {
		parts := make([]string, len(ss))
		for i, s := range ss {
			parts[i] = fmt.Sprintf("s%d", s.ID())
		}
		return strings.Join(parts, " + ")
	}
	return fmt.Sprintf("r%d %s: %s -> %s @ %g", r.id, r.kind, ids(r.reactants), ids(r.products), r.rate)
}

// Observer is told about every reaction added to a network.
type Observer interface {
	ReactionCreated(r *Reaction)
}

// Network is the growing list of generated reactions.
type Network struct {
	logger    logging.Logger
	observer  Observer
	journal   *feature.Journal
	reactions []*Reaction
	byKey     map[string]*Reaction
}

// NewNetwork creates an empty network.  observer and journal may be nil.
// With a journal, reactions added during a notification are staged on it:
// they are dropped if the notification fails, and the observer hears of
// them only when it commits.
func NewNetwork(logger logging.Logger, observer Observer, journal *feature.Journal) *Network {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Network{
		logger:   logger.Named("reaction"),
		observer: observer,
		journal:  journal,
		byKey:    make(map[string]*Reaction),
	}
}

// Add records a reaction and registers it as a dependent of each reactant,
// since its rate changes with their populations.  A reaction with the kind,
// reactants, products and rate of an existing one is not added again; the
// existing reaction is returned with its multiplicity raised.
func (n *Network) Add(kind Kind, reactants, products []*family.Species, rate float64) *Reaction {
	key := reactionKey(kind, reactants, products, rate)
	if r, ok := n.byKey[key]; ok {
		r.multiplicity++
		n.journal.Record(func() { r.multiplicity-- }, nil)
		return r
	}

	r := &Reaction{
		id:           len(n.reactions),
		kind:         kind,
		reactants:    append([]*family.Species(nil), reactants...),
		products:     append([]*family.Species(nil), products...),
		rate:         rate,
		multiplicity: 1,
	}
	n.reactions = append(n.reactions, r)
	n.byKey[key] = r
	var dependentOf []*family.Species
	for _, s := range reactants {
		if s.AddDependent(r) {
			dependentOf = append(dependentOf, s)
		}
	}
	n.logger.Debug("reaction created", logging.String("reaction", r.String()))
	n.journal.Record(
		func() { n.drop(r, key, dependentOf) },
		func() {
			if n.observer != nil {
				n.observer.ReactionCreated(r)
			}
		})
	return r
}

// drop undoes Add of the newest reaction r.
func (n *Network) drop(r *Reaction, key string, dependentOf []*family.Species) {
	for _, s := range dependentOf {
		s.RemoveDependent(r)
	}
	delete(n.byKey, key)
	n.reactions[r.id] = nil
	n.reactions = n.reactions[:r.id]
	n.logger.Debug("reaction dropped", logging.String("reaction", r.String()))
}

// reactionKey identifies a reaction up to the order of its reactants and
// of its products.
func reactionKey(kind Kind, reactants, products []*family.Species, rate float64) string {
	ids := func(ss []*family.Species) []int {
		out := make([]int, len(ss))
		for i, s := range ss {
			out[i] = int(s.ID())
		}
		sort.Ints(out)
		return out
	}
	return fmt.Sprintf("%s|%v|%v|%g", kind, ids(reactants), ids(products), rate)
}

// Reactions returns every reaction in creation order.
func (n *Network) Reactions() []*Reaction { return append([]*Reaction(nil), n.reactions...) }

// Count returns the number of reactions.
func (n *Network) Count() int { return len(n.reactions) }
