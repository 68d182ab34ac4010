package model

import "errors"

// Error taxonomy shared by every package. Callers wrap these with fmt.Errorf
// and test with errors.Is.
var (
	// ErrConfiguration means a required setting is missing or invalid. It is
	// reported before any optimization starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrPlacement means no valid position was found within the attempt budget.
	ErrPlacement = errors.New("placement failure")

	// ErrConstraintViolation means a hard rule is still broken after repair.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrGeometry means a polygon is degenerate.
	ErrGeometry = errors.New("geometry error")
)
