package epi

import (
	"fmt"
	"math"
)

// Linspace returns n evenly spaced points over [start, end].
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	grid := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range grid {
		grid[i] = start + float64(i)*step
	}
	grid[n-1] = end
	return grid
}

// UnitGrid returns 0, 1, ..., n-1.
func UnitGrid(n int) []float64 {
	if n <= 0 {
		return nil
	}
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = float64(i)
	}
	return grid
}

// ValidateGrid rejects empty, non-finite or non-increasing time grids.
func ValidateGrid(v Variant, grid []float64) error {
	if len(grid) == 0 {
		return Configf(v, "grid", "time grid is empty")
	}
	for i, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Configf(v, "grid", "time point %d is not finite", i)
		}
		if i > 0 && !(t > grid[i-1]) {
			return Configf(v, "grid", "time points must strictly increase (index %d: %g after %g)", i, t, grid[i-1])
		}
	}
	return nil
}

// CheckDimension verifies that x matches the model's compartment count.
func CheckDimension(m RateModel, x State) error {
	if want := len(m.Compartments()); len(x) != want {
		return &ConfigError{
			Variant: m.Variant(),
			Field:   "state",
			Reason:  fmt.Sprintf("expected %d compartments, got %d", want, len(x)),
			Err:     ErrDimensionMismatch,
		}
	}
	return nil
}
