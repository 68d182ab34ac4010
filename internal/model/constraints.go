package model

import (
	"fmt"
	"math"

	"github.com/paulmach/orb/planar"
)

// FixedConstraint pins an item's lower-left corner to (X, Y) within Tolerance
// on each axis.
type FixedConstraint struct {
	ID        string  `json:"id" yaml:"id"`
	X         float64 `json:"x" yaml:"x"`
	Y         float64 `json:"y" yaml:"y"`
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`
}

// RelativeConstraint keeps the center distance of two items within
// [Min, Max]. Max <= 0 means unbounded.
type RelativeConstraint struct {
	A   string  `json:"a" yaml:"a"`
	B   string  `json:"b" yaml:"b"`
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultTolerance is used for fixed constraints that leave Tolerance unset.
const DefaultTolerance = 0.1

// ConstraintSet holds the externally managed constraints. It is consulted by
// the rule engine (fixed items are never moved) and by local search (every
// candidate must satisfy the whole set).
type ConstraintSet struct {
	Fixed    []FixedConstraint    `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	Relative []RelativeConstraint `json:"relative,omitempty" yaml:"relative,omitempty"`
}

// Fix adds a fixed-position constraint.
func (c *ConstraintSet) Fix(id string, x, y, tol float64) {
	c.Fixed = append(c.Fixed, FixedConstraint{ID: id, X: x, Y: y, Tolerance: tol})
}

// Relate adds a relative distance constraint.
func (c *ConstraintSet) Relate(a, b string, min, max float64) {
	c.Relative = append(c.Relative, RelativeConstraint{A: a, B: b, Min: min, Max: max})
}

// IsFixed reports whether id is pinned.
func (c *ConstraintSet) IsFixed(id string) bool {
	if c == nil {
		return false
	}
	for _, f := range c.Fixed {
		if f.ID == id {
			return true
		}
	}
	return false
}

// Check returns one error per violated constraint, each wrapping
// ErrConstraintViolation. Constraints naming items absent from the layout
// are skipped.
func (c *ConstraintSet) Check(l *Layout) []error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, fc := range c.Fixed {
		f := l.Find(fc.ID)
		if f == nil {
			continue
		}
		tol := fc.Tolerance
		if tol <= 0 {
			tol = DefaultTolerance
		}
		if math.Abs(f.X-fc.X) > tol || math.Abs(f.Y-fc.Y) > tol {
			errs = append(errs, fmt.Errorf("%w: %s at (%.2f, %.2f), fixed at (%.2f, %.2f)",
				ErrConstraintViolation, fc.ID, f.X, f.Y, fc.X, fc.Y))
		}
	}
	for _, rc := range c.Relative {
		a, b := l.Find(rc.A), l.Find(rc.B)
		if a == nil || b == nil {
			continue
		}
		d := planar.Distance(a.Center(), b.Center())
		if d < rc.Min || (rc.Max > 0 && d > rc.Max) {
			errs = append(errs, fmt.Errorf("%w: %s-%s distance %.2f outside [%.2f, %.2f]",
				ErrConstraintViolation, rc.A, rc.B, d, rc.Min, rc.Max))
		}
	}
	return errs
}

// Satisfied reports whether l violates none of the constraints.
func (c *ConstraintSet) Satisfied(l *Layout) bool {
	return len(c.Check(l)) == 0
}

// Validate checks for unknown ids and inverted ranges.
func (c *ConstraintSet) Validate(l *Layout) error {
	if c == nil {
		return nil
	}
	for _, fc := range c.Fixed {
		if l != nil && l.Find(fc.ID) == nil {
			return fmt.Errorf("%w: fixed constraint on unknown item %q", ErrConfiguration, fc.ID)
		}
	}
	for _, rc := range c.Relative {
		if rc.Max > 0 && rc.Max < rc.Min {
			return fmt.Errorf("%w: relative constraint %s-%s has max < min", ErrConfiguration, rc.A, rc.B)
		}
	}
	return nil
}
