// Package naming computes canonical names of species: strings that are
// equal for two complexes exactly when the complexes are isomorphic with
// equal mol states, whatever the mol and binding order they were built in.
package naming

import (
	"time"

	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/domain/plex"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

// Strategy selects how the canonical labeling is searched for.
type Strategy string

const (
	// StrategyRefine uses color refinement with individualization.
	StrategyRefine Strategy = "refine"
	// StrategyExhaustive tries every type-preserving ordering.  It is bounded
	// by the configured mol limit.
	StrategyExhaustive Strategy = "exhaustive"
)

// DefaultMaxExhaustiveMols bounds StrategyExhaustive.
const DefaultMaxExhaustiveMols = 8

// ParseStrategy maps a configuration value onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRefine, StrategyExhaustive:
		return Strategy(s), nil
	case "":
		return StrategyRefine, nil
	default:
		return "", errors.Default(errors.ErrCodeValidation).WithDetailf("unknown naming strategy %q", s)
	}
}

// Namer names complexes over one mol registry.  Names produced by the two
// strategies differ in general; a model uses a single strategy throughout.
type Namer struct {
	mols          *mol.Registry
	logger        logging.Logger
	strategy      Strategy
	verify        bool
	maxExhaustive int
	observe       func(Strategy, time.Duration)
	bySpecies     map[family.SpeciesID]string
}

// Option configures a Namer.
type Option func(*Namer)

// WithStrategy selects the labeling strategy.
func WithStrategy(s Strategy) Option {
	return func(n *Namer) { n.strategy = s }
}

// WithVerify enables a check that every labeling is a complete permutation
// whose inverse composes to the identity.
func WithVerify(v bool) Option {
	return func(n *Namer) { n.verify = v }
}

// WithMaxExhaustiveMols sets the mol limit of StrategyExhaustive.
func WithMaxExhaustiveMols(max int) Option {
	return func(n *Namer) {
		if max > 0 {
			n.maxExhaustive = max
		}
	}
}

// WithDurationObserver registers a callback that receives the time spent
// on each canonicalization.
func WithDurationObserver(fn func(Strategy, time.Duration)) Option {
	return func(n *Namer) { n.observe = fn }
}

// NewNamer creates a Namer.
func NewNamer(mols *mol.Registry, logger logging.Logger, opts ...Option) *Namer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	n := &Namer{
		mols:          mols,
		logger:        logger.Named("naming"),
		strategy:      StrategyRefine,
		maxExhaustive: DefaultMaxExhaustiveMols,
		bySpecies:     make(map[family.SpeciesID]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Strategy returns the configured strategy.
func (n *Namer) Strategy() Strategy { return n.strategy }

// Canonicalize returns the canonical output state of g with the given mol
// params, and the labeling that produced it: labeling[i] is the canonical
// position of mol i.
func (n *Namer) Canonicalize(g *plex.Graph, params []mol.MolParam) (OutputState, Permutation, error) {
	if g.MolCount() == 0 {
		return OutputState{}, nil, errors.Default(errors.ErrCodeEmptyGraph).WithDetail("naming")
	}
	if !g.IsConnected() {
		return OutputState{}, nil, errors.Default(errors.ErrCodeNotConnected).WithDetail(g.String())
	}
	c, err := prepare(n.mols, g, params)
	if err != nil {
		return OutputState{}, nil, err
	}

	start := time.Now()
	var (
		st  OutputState
		pos Permutation
	)
	switch n.strategy {
	case StrategyExhaustive:
		if g.MolCount() > n.maxExhaustive {
			return OutputState{}, nil, errors.Default(errors.ErrCodeTooManyMols).
				WithDetailf("%d mols, limit %d", g.MolCount(), n.maxExhaustive)
		}
		st, pos, err = c.canonicalExhaustive()
		if err != nil {
			return OutputState{}, nil, err
		}
	default:
		st, pos = c.canonicalRefine()
	}
	if n.observe != nil {
		n.observe(n.strategy, time.Since(start))
	}

	if n.verify {
		if err := checkLabeling(pos); err != nil {
			return OutputState{}, nil, err
		}
	}
	return st, pos, nil
}

func checkLabeling(pos Permutation) error {
	if !pos.IsComplete() {
		return errors.Default(errors.ErrCodeBadPermutation).WithDetailf("labeling %s is partial", pos)
	}
	id, err := pos.Inverse().Of(pos)
	if err != nil {
		return err
	}
	for i, v := range id {
		if v != i {
			return errors.Default(errors.ErrCodeBadPermutation).WithDetailf("labeling %s does not invert", pos)
		}
	}
	return nil
}

// Name returns the canonical name of g with the given mol params.
func (n *Namer) Name(g *plex.Graph, params []mol.MolParam) (string, error) {
	st, _, err := n.Canonicalize(g, params)
	if err != nil {
		return "", err
	}
	return Encode(st)
}

// SpeciesName returns the canonical name of a species.  Names are cached
// per species.
func (n *Namer) SpeciesName(s *family.Species) (string, error) {
	if name, ok := n.bySpecies[s.ID()]; ok {
		return name, nil
	}
	name, err := n.Name(s.Family().Paradigm(), s.Params())
	if err != nil {
		return "", err
	}
	n.bySpecies[s.ID()] = name
	n.logger.Debug("species named",
		logging.Int("species", int(s.ID())),
		logging.String("name", name))
	return name, nil
}
