// Package adjust validates point adjustments before any event is written.
package adjust

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel validation failures.
var (
	ErrInvalidTotal  = errors.New("total must be a whole number of 0 or more")
	ErrInvalidPoints = errors.New("points must be a positive whole number")
)

// maxPoints keeps deltas well inside int range on every platform.
const maxPoints = math.MaxInt32

// Correction computes the compensating delta that moves currentTotal to newTotal.
// write is false when the totals already match and nothing should be appended.
func Correction(newTotal float64, currentTotal int) (delta int, write bool, err error) {
	target, ok := wholeNumber(newTotal)
	if !ok || target < 0 {
		return 0, false, fmt.Errorf("%w: %v", ErrInvalidTotal, newTotal)
	}
	delta = target - currentTotal
	return delta, delta != 0, nil
}

// Boost validates an administrative boost amount.
func Boost(points float64) (int, error) {
	p, ok := wholeNumber(points)
	if !ok || p <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPoints, points)
	}
	return p, nil
}

// EditPoints validates a history overwrite. ok is false for anything other
// than a non-negative whole number; such edits are dropped without error.
func EditPoints(points float64) (int, bool) {
	p, ok := wholeNumber(points)
	if !ok || p < 0 {
		return 0, false
	}
	return p, true
}

func wholeNumber(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > maxPoints {
		return 0, false
	}
	return int(v), true
}
