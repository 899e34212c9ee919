package measurement

import (
	"fmt"

	"github.com/aristath/qtomo/internal/domain"
	"github.com/aristath/qtomo/internal/pauli"
	"github.com/aristath/qtomo/internal/projectors"
)

// BuildVector produces the ordered expectation-value vector y, index-aligned
// with labels. Before aggregating anything it checks the bijective alignment
// between the projector store's label set and the measurement records: a
// label present on one side but not the other is a DataMismatchError, as is
// a record whose shot total disagrees with the configured count.
func BuildVector(labels []pauli.Label, store *projectors.Store, records map[string]Record, shots int) ([]float64, error) {
	if len(labels) == 0 {
		return nil, &domain.DataMismatchError{Reason: "empty label list"}
	}

	// Projector side must cover every measured label and vice versa.
	for key := range records {
		if !store.Has(key) {
			return nil, &domain.DataMismatchError{
				Reason: fmt.Sprintf("measured label %q has no projector", key),
			}
		}
	}
	for _, label := range store.Labels() {
		if _, ok := records[label.String()]; !ok {
			return nil, &domain.DataMismatchError{
				Reason: fmt.Sprintf("projector label %q has no measurement record", label.String()),
			}
		}
	}

	y := make([]float64, len(labels))
	for i, label := range labels {
		rec, ok := records[label.String()]
		if !ok {
			return nil, &domain.DataMismatchError{
				Reason: fmt.Sprintf("ordered label %q has no measurement record", label.String()),
			}
		}
		if rec.Shots != shots {
			return nil, &domain.DataMismatchError{
				Reason: fmt.Sprintf("label %q has %d shots, configured %d", label.String(), rec.Shots, shots),
			}
		}
		if _, err := store.Get(label); err != nil {
			return nil, &domain.DataMismatchError{
				Reason: fmt.Sprintf("ordered label %q has no projector", label.String()),
			}
		}

		value, err := Expectation(label, rec)
		if err != nil {
			return nil, err
		}
		y[i] = value
	}
	return y, nil
}
