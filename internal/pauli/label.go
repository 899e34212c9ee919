// Package pauli provides the measurement-setting label type and the compact
// tensor-product operator it names. Operators are applied to state columns
// qubit by qubit, so a 2^n x 2^n matrix is never materialized on the hot path.
package pauli

import (
	"fmt"

	"github.com/aristath/qtomo/internal/domain"
)

// Label identifies one measurement setting: a length-n string over {I,X,Y,Z},
// one character per qubit, leftmost character acting on qubit 0. Labels are
// validated once at construction and never re-checked per use.
type Label struct {
	s string
}

// ParseLabel validates s against the Pauli alphabet and the configured qubit
// count. A wrong length or an unknown character is a ConfigurationError.
func ParseLabel(s string, qubits int) (Label, error) {
	if qubits <= 0 {
		return Label{}, &domain.ConfigurationError{
			Field:  "qubits",
			Reason: fmt.Sprintf("must be positive, got %d", qubits),
		}
	}
	if len(s) != qubits {
		return Label{}, &domain.ConfigurationError{
			Field:  "label",
			Reason: fmt.Sprintf("label %q has length %d, expected %d", s, len(s), qubits),
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'I', 'X', 'Y', 'Z':
		default:
			return Label{}, &domain.ConfigurationError{
				Field:  "label",
				Reason: fmt.Sprintf("label %q has invalid character %q at position %d", s, s[i], i),
			}
		}
	}
	return Label{s: s}, nil
}

// ParseLabels validates an ordered label list with a shared qubit count.
func ParseLabels(raw []string, qubits int) ([]Label, error) {
	labels := make([]Label, 0, len(raw))
	for _, s := range raw {
		label, err := ParseLabel(s, qubits)
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// String returns the raw label text.
func (l Label) String() string {
	return l.s
}

// Qubits returns the number of qubits the label addresses.
func (l Label) Qubits() int {
	return len(l.s)
}

// Char returns the Pauli letter acting on qubit i.
func (l Label) Char(i int) byte {
	return l.s[i]
}

// IsIdentity reports whether every position is I.
func (l Label) IsIdentity() bool {
	for i := 0; i < len(l.s); i++ {
		if l.s[i] != 'I' {
			return false
		}
	}
	return true
}
