// Package domain holds the shared types and error taxonomy used across the
// reconstruction pipeline.
package domain

import "fmt"

// ConfigurationError reports invalid configuration or malformed input detected
// before any optimization work runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a lookup for a label the projector store does not hold.
type NotFoundError struct {
	Label string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no projector for label %q", e.Label)
}

// InvalidMeasurementError reports a measurement record that cannot be
// aggregated: its counts do not sum to the configured shot total, or its
// bitstrings do not match the qubit count.
type InvalidMeasurementError struct {
	Label  string
	Reason string
}

func (e *InvalidMeasurementError) Error() string {
	return fmt.Sprintf("invalid measurement for label %q: %s", e.Label, e.Reason)
}

// DataMismatchError reports that the projector label set and the measurement
// label set disagree. Detected once, before iteration starts.
type DataMismatchError struct {
	Reason string
}

func (e *DataMismatchError) Error() string {
	return fmt.Sprintf("projector/measurement data mismatch: %s", e.Reason)
}

// NumericalError reports a non-finite value produced during iteration. The
// optimizer halts at the offending iteration and keeps the last valid state
// for diagnostics.
type NumericalError struct {
	Iteration int
	Quantity  string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("non-finite value in %s at iteration %d", e.Quantity, e.Iteration)
}
