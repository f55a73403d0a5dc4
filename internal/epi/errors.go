package epi

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates invalid parameters, initial conditions or grids.
	ErrConfiguration = errors.New("epi: configuration error")

	// ErrIntegration indicates the solver failed or was interrupted.
	ErrIntegration = errors.New("epi: integration failed")

	// ErrInvariant indicates a produced trajectory broke non-negativity or conservation.
	ErrInvariant = errors.New("epi: invariant violated")

	// ErrDimensionMismatch indicates a state vector of the wrong length for a variant.
	ErrDimensionMismatch = errors.New("epi: dimension mismatch between state and model")

	// ErrUnknownVariant indicates a variant name that is not registered.
	ErrUnknownVariant = errors.New("epi: unknown variant")

	// ErrUnknownCompartment indicates a compartment name the variant does not define.
	ErrUnknownCompartment = errors.New("epi: unknown compartment")
)

// ConfigError reports a rejected input before any integration runs.
type ConfigError struct {
	Variant Variant
	Field   string
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "epi: invalid configuration"
	if e.Variant != "" {
		msg += " for " + string(e.Variant)
	}
	if e.Field != "" {
		msg += ": " + e.Field
	}
	return msg + ": " + e.Reason
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

// Configf builds a ConfigError with a formatted reason.
func Configf(v Variant, field, format string, args ...any) error {
	return &ConfigError{Variant: v, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IntegrationError wraps a solver failure with the point it was reached.
// Time is NaN when the solver cannot tell where it stopped.
type IntegrationError struct {
	Variant Variant
	Solver  string
	Step    int
	Time    float64
	Err     error
}

func (e *IntegrationError) Error() string {
	if math.IsNaN(e.Time) {
		return fmt.Sprintf("epi: %s integration with %s failed after %d steps: %v",
			e.Variant, e.Solver, e.Step, e.Err)
	}
	return fmt.Sprintf("epi: %s integration with %s failed at step %d (t=%.4f): %v",
		e.Variant, e.Solver, e.Step, e.Time, e.Err)
}

func (e *IntegrationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrIntegration, e.Err}
	}
	return []error{ErrIntegration}
}

type InvariantKind string

const (
	InvariantNegative     InvariantKind = "negative"
	InvariantConservation InvariantKind = "conservation"
	InvariantSubgroup     InvariantKind = "subgroup"
)

// InvariantViolation is reported by the post-run checks. Compartment holds the
// offending compartment for negativity and the subgroup name for subgroup
// drift; it is empty for whole-population drift.
type InvariantViolation struct {
	Variant     Variant
	Kind        InvariantKind
	Compartment string
	Index       int
	Time        float64
	Value       float64
	Limit       float64
}

func (e *InvariantViolation) Error() string {
	switch e.Kind {
	case InvariantNegative:
		return fmt.Sprintf("epi: %s: compartment %s is %.6g at index %d (t=%.4f), below -%.3g",
			e.Variant, e.Compartment, e.Value, e.Index, e.Time, e.Limit)
	case InvariantSubgroup:
		return fmt.Sprintf("epi: %s: subgroup %s total drifted by %.3g (relative) at index %d (t=%.4f), limit %.3g",
			e.Variant, e.Compartment, e.Value, e.Index, e.Time, e.Limit)
	default:
		return fmt.Sprintf("epi: %s: population total drifted by %.3g (relative) at index %d (t=%.4f), limit %.3g",
			e.Variant, e.Value, e.Index, e.Time, e.Limit)
	}
}

func (e *InvariantViolation) Unwrap() error {
	return ErrInvariant
}
