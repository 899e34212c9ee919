// Package projectors owns the collection of Pauli operators for a label set.
// A Store is populated once, is immutable afterwards, and is shared read-only
// by every component that applies operators.
package projectors

import (
	"github.com/rs/zerolog"

	"github.com/aristath/qtomo/internal/domain"
	"github.com/aristath/qtomo/internal/pauli"
)

// Store maps labels to their operators. Populate builds the full collection;
// after that the store is read-only and safe for concurrent use.
type Store struct {
	qubits    int
	order     []pauli.Label
	operators map[string]*pauli.Operator
	populated bool
	log       zerolog.Logger
}

// NewStore creates an empty store for a fixed qubit count.
func NewStore(qubits int, log zerolog.Logger) *Store {
	return &Store{
		qubits:    qubits,
		operators: make(map[string]*pauli.Operator),
		log:       log.With().Str("component", "projector_store").Logger(),
	}
}

// Populate builds the operator for each label. Duplicate labels collapse to a
// single operator; calling Populate again with the same labels is a no-op for
// behavior. Populate may only run before the store is handed out for reads.
func (s *Store) Populate(labels []pauli.Label) error {
	for _, label := range labels {
		if label.Qubits() != s.qubits {
			return &domain.ConfigurationError{
				Field:  "label",
				Reason: "label " + label.String() + " does not match store qubit count",
			}
		}
		key := label.String()
		if _, ok := s.operators[key]; ok {
			continue
		}
		s.operators[key] = pauli.NewOperator(label)
		s.order = append(s.order, label)
	}
	s.populated = true

	s.log.Debug().
		Int("labels", len(labels)).
		Int("unique_operators", len(s.operators)).
		Msg("Projector store populated")
	return nil
}

// Get returns the operator for a label, or a NotFoundError.
func (s *Store) Get(label pauli.Label) (*pauli.Operator, error) {
	op, ok := s.operators[label.String()]
	if !ok {
		return nil, &domain.NotFoundError{Label: label.String()}
	}
	return op, nil
}

// Has reports whether the store holds an operator for the label text.
func (s *Store) Has(label string) bool {
	_, ok := s.operators[label]
	return ok
}

// Labels returns the unique labels in population order.
func (s *Store) Labels() []pauli.Label {
	out := make([]pauli.Label, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of unique operators held.
func (s *Store) Len() int {
	return len(s.operators)
}

// Qubits returns the qubit count the store was built for.
func (s *Store) Qubits() int {
	return s.qubits
}
