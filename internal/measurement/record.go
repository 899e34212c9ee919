// Package measurement turns raw per-label outcome histograms into the
// expectation-value vector the optimizer fits against.
package measurement

import (
	"fmt"

	"github.com/aristath/qtomo/internal/domain"
	"github.com/aristath/qtomo/internal/pauli"
)

// Record is the outcome histogram for one measurement setting: bitstring ->
// number of times it was observed, over a fixed number of shots.
type Record struct {
	Label  string         `msgpack:"label"`
	Shots  int            `msgpack:"shots"`
	Counts map[string]int `msgpack:"counts"`
}

// Validate checks the record against the qubit count and the configured shot
// total. Counts must sum exactly to Shots and every bitstring must be a
// length-n string over {0,1}.
func (r Record) Validate(qubits int) error {
	if r.Shots <= 0 {
		return &domain.InvalidMeasurementError{
			Label:  r.Label,
			Reason: fmt.Sprintf("shot count must be positive, got %d", r.Shots),
		}
	}
	total := 0
	for bits, count := range r.Counts {
		if len(bits) != qubits {
			return &domain.InvalidMeasurementError{
				Label:  r.Label,
				Reason: fmt.Sprintf("bitstring %q has length %d, expected %d", bits, len(bits), qubits),
			}
		}
		for i := 0; i < len(bits); i++ {
			if bits[i] != '0' && bits[i] != '1' {
				return &domain.InvalidMeasurementError{
					Label:  r.Label,
					Reason: fmt.Sprintf("bitstring %q has invalid character %q", bits, bits[i]),
				}
			}
		}
		if count < 0 {
			return &domain.InvalidMeasurementError{
				Label:  r.Label,
				Reason: fmt.Sprintf("negative count %d for bitstring %q", count, bits),
			}
		}
		total += count
	}
	if total != r.Shots {
		return &domain.InvalidMeasurementError{
			Label:  r.Label,
			Reason: fmt.Sprintf("counts sum to %d, expected %d shots", total, r.Shots),
		}
	}
	return nil
}

// Expectation computes the sample-mean expectation value for a label from its
// histogram: each bitstring contributes a +/-1 parity over the positions where
// the label is not I, weighted by count/shots. The result estimates
// Tr(P * rho) and lies in [-1, 1].
func Expectation(label pauli.Label, rec Record) (float64, error) {
	if err := rec.Validate(label.Qubits()); err != nil {
		return 0, err
	}

	var sum float64
	for bits, count := range rec.Counts {
		if count == 0 {
			continue
		}
		parity := 1.0
		for i := 0; i < label.Qubits(); i++ {
			if label.Char(i) == 'I' {
				continue
			}
			if bits[i] == '1' {
				parity = -parity
			}
		}
		sum += parity * float64(count)
	}
	return sum / float64(rec.Shots), nil
}
