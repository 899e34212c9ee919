// Package tomography reconstructs a low-rank density matrix from Pauli
// expectation values with momentum-inspired factored gradient descent. The
// forward/adjoint operator pair here is the hot path: every iteration calls
// Predict once and AdjointApply once.
package tomography

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/cmplxs"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/qtomo/internal/domain"
	"github.com/aristath/qtomo/internal/pauli"
	"github.com/aristath/qtomo/internal/projectors"
)

// ForwardOperator composes the projector store into the two linear maps the
// optimizer needs: Predict (factor -> expectation vector) and AdjointApply
// (residual -> gradient direction). Per-label work is independent and fans
// out across a fixed worker count; results land in index-aligned slots and
// partial sums reduce in worker order, so a run is deterministic for a given
// configuration.
type ForwardOperator struct {
	labels  []pauli.Label
	ops     []*pauli.Operator
	dim     int
	workers int
	log     zerolog.Logger
}

// NewForwardOperator resolves every label against the store once. A label the
// store does not hold surfaces as the store's NotFoundError.
func NewForwardOperator(labels []pauli.Label, store *projectors.Store, workers int, log zerolog.Logger) (*ForwardOperator, error) {
	if len(labels) == 0 {
		return nil, &domain.DataMismatchError{Reason: "empty label list"}
	}
	if workers <= 0 {
		workers = 1
	}

	ops := make([]*pauli.Operator, len(labels))
	for i, label := range labels {
		op, err := store.Get(label)
		if err != nil {
			return nil, err
		}
		ops[i] = op
	}

	return &ForwardOperator{
		labels:  labels,
		ops:     ops,
		dim:     1 << store.Qubits(),
		workers: workers,
		log:     log.With().Str("component", "forward_operator").Logger(),
	}, nil
}

// NumLabels returns the number of measurement settings.
func (f *ForwardOperator) NumLabels() int {
	return len(f.labels)
}

// Dim returns the state dimension 2^n.
func (f *ForwardOperator) Dim() int {
	return f.dim
}

// Predict computes the expectation-value estimate Tr(P_k * U * U†) for every
// label, ordered like the label list.
func (f *ForwardOperator) Predict(u *mat.CDense) ([]float64, error) {
	data, cols, err := f.rawFactor(u)
	if err != nil {
		return nil, err
	}
	return f.predict(data, cols)
}

// AdjointApply back-projects a residual vector: it returns the d x r matrix
// sum_k residual[k] * (P_k * U), the gradient direction of the least-squares
// objective.
func (f *ForwardOperator) AdjointApply(residual []float64, u *mat.CDense) (*mat.CDense, error) {
	data, cols, err := f.rawFactor(u)
	if err != nil {
		return nil, err
	}
	grad, err := f.adjoint(residual, data, cols)
	if err != nil {
		return nil, err
	}
	return mat.NewCDense(f.dim, cols, grad), nil
}

func (f *ForwardOperator) rawFactor(u *mat.CDense) ([]complex128, int, error) {
	rows, cols := u.Dims()
	if rows != f.dim {
		return nil, 0, fmt.Errorf("factor has %d rows, expected state dimension %d", rows, f.dim)
	}
	raw := u.RawCMatrix()
	if raw.Stride != cols {
		return nil, 0, fmt.Errorf("factor stride %d does not match column count %d", raw.Stride, cols)
	}
	return raw.Data, cols, nil
}

// predict runs the per-label quadratic forms. Each worker owns a contiguous
// label range and a private scratch buffer; outputs go to index-aligned slots.
func (f *ForwardOperator) predict(data []complex128, cols int) ([]float64, error) {
	preds := make([]float64, len(f.ops))
	errs := make([]error, f.workers)

	var wg sync.WaitGroup
	for w := 0; w < f.workers; w++ {
		lo, hi := f.chunk(w)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			buf := make([]complex128, len(data))
			for k := lo; k < hi; k++ {
				v, err := f.ops[k].QuadraticForm(data, cols, buf)
				if err != nil {
					errs[w] = err
					return
				}
				preds[k] = v
			}
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return preds, nil
}

// adjoint accumulates sum_k residual[k] * (P_k * U). Each worker sums its own
// contiguous label range into a private buffer; the partials are then added
// in worker order, fixing the reduction order.
func (f *ForwardOperator) adjoint(residual []float64, data []complex128, cols int) ([]complex128, error) {
	if len(residual) != len(f.ops) {
		return nil, fmt.Errorf("residual has %d entries, expected %d", len(residual), len(f.ops))
	}

	partials := make([][]complex128, f.workers)
	errs := make([]error, f.workers)

	var wg sync.WaitGroup
	for w := 0; w < f.workers; w++ {
		lo, hi := f.chunk(w)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			acc := make([]complex128, len(data))
			buf := make([]complex128, len(data))
			for k := lo; k < hi; k++ {
				if err := f.ops[k].Apply(buf, data, cols); err != nil {
					errs[w] = err
					return
				}
				cmplxs.AddScaled(acc, complex(residual[k], 0), buf)
			}
			partials[w] = acc
		}(w, lo, hi)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	grad := make([]complex128, len(data))
	for _, partial := range partials {
		if partial != nil {
			cmplxs.Add(grad, partial)
		}
	}
	return grad, nil
}

// chunk returns worker w's half-open label range.
func (f *ForwardOperator) chunk(w int) (int, int) {
	per := (len(f.ops) + f.workers - 1) / f.workers
	lo := w * per
	hi := lo + per
	if hi > len(f.ops) {
		hi = len(f.ops)
	}
	if lo > len(f.ops) {
		lo = len(f.ops)
	}
	return lo, hi
}
