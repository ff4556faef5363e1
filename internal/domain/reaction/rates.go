package reaction

import (
	"math"

	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/pkg/errors"
)

type shapePair struct {
	lo, hi mol.ShapeID
}

func pairOf(a, b mol.ShapeID) shapePair {
	if b < a {
		a, b = b, a
	}
	return shapePair{lo: a, hi: b}
}

// ShapeRateTable holds binding (on) and unbinding (off) rate constants keyed
// by the unordered pair of shapes of the two sites involved.
type ShapeRateTable struct {
	on  map[shapePair]float64
	off map[shapePair]float64
}

// NewShapeRateTable returns an empty table.
func NewShapeRateTable() *ShapeRateTable {
	return &ShapeRateTable{on: make(map[shapePair]float64), off: make(map[shapePair]float64)}
}

func checkRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return errors.Default(errors.ErrCodeInvalidRate).WithDetailf("%g", rate)
	}
	return nil
}

// Set declares the on and off rates for sites in shapes a and b.
func (t *ShapeRateTable) Set(a, b mol.ShapeID, on, off float64) error {
	if err := checkRate(on); err != nil {
		return err
	}
	if err := checkRate(off); err != nil {
		return err
	}
	k := pairOf(a, b)
	if _, dup := t.on[k]; dup {
		return errors.Default(errors.ErrCodeDuplicateKinetics).WithDetailf("shapes %d/%d", int(a), int(b))
	}
	t.on[k] = on
	t.off[k] = off
	return nil
}

// On returns the binding rate for shapes a and b.
func (t *ShapeRateTable) On(a, b mol.ShapeID) (float64, bool) {
	r, ok := t.on[pairOf(a, b)]
	return r, ok
}

// Off returns the unbinding rate for shapes a and b.
func (t *ShapeRateTable) Off(a, b mol.ShapeID) (float64, bool) {
	r, ok := t.off[pairOf(a, b)]
	return r, ok
}

// MustOn is On with a miss reported as an internal error: generators only
// run on declared bindings, so a missing rate means the declaration left a
// shape pair out.
func (t *ShapeRateTable) MustOn(a, b mol.ShapeID) (float64, error) {
	if r, ok := t.On(a, b); ok {
		return r, nil
	}
	return 0, errors.Default(errors.ErrCodeMissingRate).WithDetailf("binding shapes %d/%d", int(a), int(b))
}

// MustOff is Off with a miss reported as an internal error.
func (t *ShapeRateTable) MustOff(a, b mol.ShapeID) (float64, error) {
	if r, ok := t.Off(a, b); ok {
		return r, nil
	}
	return 0, errors.Default(errors.ErrCodeMissingRate).WithDetailf("unbinding shapes %d/%d", int(a), int(b))
}

// Len returns the number of declared shape pairs.
func (t *ShapeRateTable) Len() int { return len(t.on) }
