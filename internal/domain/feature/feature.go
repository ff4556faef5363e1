// Package feature implements the observer hooks that drive lazy expansion of
// the reaction network.  A Feature sits at one structural location (a free
// site, a binding, a mol, a sub-structure match) and forwards every newly
// observed context at that location to the generators attached to it.
package feature

// Generator synthesizes reactions for a context newly seen at a feature.
// depth is the remaining notification depth; generators pass depth-1 to the
// products they create.
type Generator[C any] interface {
	MakeReactions(ctx C, depth int) error
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc[C any] func(ctx C, depth int) error

// MakeReactions calls f.
func (f GeneratorFunc[C]) MakeReactions(ctx C, depth int) error { return f(ctx, depth) }

// Feature records every context that has appeared at its location, in
// arrival order, and the generators listening there.
type Feature[C any] struct {
	name       string
	contexts   []C
	generators []Generator[C]
	journal    *Journal
}

// New returns a feature with no contexts and no generators.
func New[C any](name string) *Feature[C] {
	return &Feature[C]{name: name}
}

// WithJournal stages recorded contexts on j so a failed notification drops
// them.
func (f *Feature[C]) WithJournal(j *Journal) *Feature[C] {
	f.journal = j
	return f
}

// Name returns the label the feature was created with.
func (f *Feature[C]) Name() string { return f.name }

// AddGenerator attaches a generator.  Contexts already recorded are not
// replayed to it.
func (f *Feature[C]) AddGenerator(g Generator[C]) {
	f.generators = append(f.generators, g)
}

// GeneratorCount returns the number of attached generators.
func (f *Feature[C]) GeneratorCount() int { return len(f.generators) }

// Contexts returns a snapshot of the recorded contexts.
func (f *Feature[C]) Contexts() []C {
	out := make([]C, len(f.contexts))
	copy(out, f.contexts)
	return out
}

// ContextCount returns the number of recorded contexts.
func (f *Feature[C]) ContextCount() int { return len(f.contexts) }

// NotifyNew records ctx and then runs every generator on it.  The context is
// recorded first, so a generator pairing it against this same feature sees
// it too.  The first generator error stops the walk.
func (f *Feature[C]) NotifyNew(ctx C, depth int) error {
	n := len(f.contexts)
	f.contexts = append(f.contexts, ctx)
	f.journal.Record(func() {
		clear(f.contexts[n:])
		f.contexts = f.contexts[:n]
	}, nil)
	for _, g := range f.generators {
		if err := g.MakeReactions(ctx, depth); err != nil {
			return err
		}
	}
	return nil
}
