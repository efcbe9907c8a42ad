// sim/metrics_utils.go
package sim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrDivideByZero is returned by transforms that cannot fall back to a zero ratio.
var ErrDivideByZero = errors.New("division by zero")

type IntOrFloat64 interface {
	int | int64 | float64
}

// SafeDivide returns a/b, or 0 when b is zero.
func SafeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Average is a util function that calculates the mean of a data list.
// An empty list averages to 0.
func Average[T IntOrFloat64](values []T) float64 {
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	return SafeDivide(sum, float64(len(values)))
}

// Normalize maps each value a against the list maximum m to 1 + exp(a/m - 1).
// With invert set, 1/a and 1/m are used instead, so the smallest values get
// the largest factors. An empty list is returned unchanged.
func Normalize(values []float64, invert bool) ([]float64, error) {
	if len(values) == 0 {
		return values, nil
	}
	m := floats.Max(values)
	if m == 0 {
		return nil, fmt.Errorf("normalize against max %v: %w", m, ErrDivideByZero)
	}
	out := make([]float64, len(values))
	for i, a := range values {
		b := m
		if invert {
			if a == 0 {
				return nil, fmt.Errorf("normalize inverted value at %d: %w", i, ErrDivideByZero)
			}
			a, b = 1/a, 1/b
		}
		out[i] = 1 + math.Exp(a/b-1)
	}
	return out, nil
}

// Combine merges two factor lists elementwise with p*q/(p+q).
func Combine(p, q []float64) ([]float64, error) {
	if len(p) != len(q) {
		return nil, fmt.Errorf("combine: length mismatch %d != %d", len(p), len(q))
	}
	out := make([]float64, len(p))
	for i := range p {
		out[i] = SafeDivide(p[i]*q[i], p[i]+q[i])
	}
	return out, nil
}
