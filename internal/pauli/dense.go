package pauli

import "gonum.org/v1/gonum/mat"

// Single-qubit Pauli matrices, row-major.
var singleQubit = map[byte][4]complex128{
	'I': {1, 0, 0, 1},
	'X': {0, 1, 1, 0},
	'Y': {0, complex(0, -1), complex(0, 1), 0},
	'Z': {1, 0, 0, -1},
}

// Dense materializes the full 2^n x 2^n matrix by Kronecker product. It costs
// O(4^n) memory and exists for small-n verification and callers that
// explicitly ask for the dense form; the optimizer never uses it.
func (p *Operator) Dense() *mat.CDense {
	out := mat.NewCDense(1, 1, []complex128{1})
	for k := 0; k < p.label.Qubits(); k++ {
		m := singleQubit[p.label.Char(k)]
		factor := mat.NewCDense(2, 2, m[:])
		out = kron(out, factor)
	}
	return out
}

// kron computes the Kronecker product a ⊗ b.
func kron(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	out := mat.NewCDense(ar*br, ac*bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			aij := a.At(i, j)
			if aij == 0 {
				continue
			}
			for bi := 0; bi < br; bi++ {
				for bj := 0; bj < bc; bj++ {
					out.Set(i*br+bi, j*bc+bj, aij*b.At(bi, bj))
				}
			}
		}
	}
	return out
}
