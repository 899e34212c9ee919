package pauli

import (
	"fmt"
)

// Operator is the tensor product of the single-qubit Pauli matrices named by
// a label. It stores only the label (O(n) memory); application walks the
// state columns one tensor axis at a time, costing O(dim * n * cols).
type Operator struct {
	label Label
	dim   int
}

// NewOperator builds the operator for a validated label.
func NewOperator(label Label) *Operator {
	return &Operator{
		label: label,
		dim:   1 << label.Qubits(),
	}
}

// Label returns the label the operator was built from.
func (p *Operator) Label() Label {
	return p.label
}

// Dim returns the state dimension 2^n.
func (p *Operator) Dim() int {
	return p.dim
}

// Apply computes dst = P * src for a batch of column vectors. src and dst are
// row-major dim x cols blocks (element (i,c) at index i*cols+c) and must not
// alias. The operator itself is immutable, so concurrent Apply calls with
// distinct buffers are safe.
func (p *Operator) Apply(dst, src []complex128, cols int) error {
	if err := p.checkBatch(src, cols); err != nil {
		return err
	}
	if len(dst) != len(src) {
		return fmt.Errorf("dst length %d does not match src length %d", len(dst), len(src))
	}
	copy(dst, src)
	p.applyInPlace(dst, cols)
	return nil
}

// QuadraticForm computes sum over columns u of real(u† P u), the predicted
// expectation value Tr(P * U * U†) without forming the density matrix. buf is
// scratch of the same length as src; it is overwritten.
func (p *Operator) QuadraticForm(src []complex128, cols int, buf []complex128) (float64, error) {
	if err := p.checkBatch(src, cols); err != nil {
		return 0, err
	}
	if len(buf) != len(src) {
		return 0, fmt.Errorf("scratch length %d does not match src length %d", len(buf), len(src))
	}
	copy(buf, src)
	p.applyInPlace(buf, cols)

	// P is Hermitian, so the quadratic form is real up to rounding.
	var acc complex128
	for i, v := range src {
		acc += complex(real(v), -imag(v)) * buf[i]
	}
	return real(acc), nil
}

func (p *Operator) checkBatch(src []complex128, cols int) error {
	if cols <= 0 {
		return fmt.Errorf("cols must be positive, got %d", cols)
	}
	if len(src) != p.dim*cols {
		return fmt.Errorf("batch length %d does not match dim %d x cols %d", len(src), p.dim, cols)
	}
	return nil
}

// applyInPlace applies the tensor product axis by axis. Qubit k owns bit
// n-1-k of the row index; each non-identity letter touches every row pair
// (i, i|mask) exactly once.
func (p *Operator) applyInPlace(data []complex128, cols int) {
	n := p.label.Qubits()
	for k := 0; k < n; k++ {
		letter := p.label.Char(k)
		if letter == 'I' {
			continue
		}
		mask := 1 << (n - 1 - k)
		for base := 0; base < p.dim; base += mask << 1 {
			for i := base; i < base+mask; i++ {
				lo := i * cols
				hi := (i | mask) * cols
				switch letter {
				case 'X':
					for c := 0; c < cols; c++ {
						data[lo+c], data[hi+c] = data[hi+c], data[lo+c]
					}
				case 'Y':
					for c := 0; c < cols; c++ {
						v0, v1 := data[lo+c], data[hi+c]
						data[lo+c] = complex(imag(v1), -real(v1))
						data[hi+c] = complex(-imag(v0), real(v0))
					}
				case 'Z':
					for c := 0; c < cols; c++ {
						data[hi+c] = -data[hi+c]
					}
				}
			}
		}
	}
}
