package tomography

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Result is the terminal output of a reconstruction run.
type Result struct {
	RunID          string
	Status         Status
	Iterations     int
	Objective      []float64 // per-iteration objective trace
	RelativeChange float64
	// U is the final factor; the reconstructed density matrix is U * U†.
	U *mat.CDense
	// Last is the last completed WorkerState, retained even when the run was
	// aborted by a NumericalError or cancellation.
	Last WorkerState
}

// DensityMatrix materializes rho = U * U†. This costs O(dim^2) memory and is
// meant to be called once, outside the iteration loop.
func (r *Result) DensityMatrix() *mat.CDense {
	return DensityMatrix(r.U)
}

// DensityMatrix computes U * U† for a d x r factor.
func DensityMatrix(u *mat.CDense) *mat.CDense {
	dim, rank := u.Dims()
	rho := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			var sum complex128
			for c := 0; c < rank; c++ {
				ujc := u.At(j, c)
				sum += u.At(i, c) * complex(real(ujc), -imag(ujc))
			}
			rho.Set(i, j, sum)
		}
	}
	return rho
}

// FrobeniusDistance returns ||a - b||_F for equally sized complex matrices.
func FrobeniusDistance(a, b *mat.CDense) float64 {
	ar, ac := a.Dims()
	var sum float64
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			d := a.At(i, j) - b.At(i, j)
			sum += real(d)*real(d) + imag(d)*imag(d)
		}
	}
	return math.Sqrt(sum)
}
