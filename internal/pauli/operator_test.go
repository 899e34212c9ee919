package pauli

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBatch(rng *rand.Rand, dim, cols int) []complex128 {
	data := make([]complex128, dim*cols)
	for i := range data {
		data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return data
}

func mustLabel(t *testing.T, s string) Label {
	t.Helper()
	label, err := ParseLabel(s, len(s))
	require.NoError(t, err)
	return label
}

// Pauli matrices square to the identity, so applying an operator twice must
// reproduce the input up to rounding.
func TestApplyInvolution(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, s := range []string{"X", "Y", "Z", "I", "XY", "ZZI", "YXZI", "IXYZX"} {
		op := NewOperator(mustLabel(t, s))
		src := randomBatch(rng, op.Dim(), 3)
		once := make([]complex128, len(src))
		twice := make([]complex128, len(src))
		require.NoError(t, op.Apply(once, src, 3))
		require.NoError(t, op.Apply(twice, once, 3))

		for i := range src {
			assert.InDelta(t, real(src[i]), real(twice[i]), 1e-12, "label %s index %d", s, i)
			assert.InDelta(t, imag(src[i]), imag(twice[i]), 1e-12, "label %s index %d", s, i)
		}
	}
}

// The strided apply must agree with an explicit dense matrix-vector product
// for every label length we can afford to materialize.
func TestApplyMatchesDense(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for _, s := range []string{"I", "X", "Y", "Z", "XZ", "YY", "IZXY", "ZYXI"} {
		op := NewOperator(mustLabel(t, s))
		dim := op.Dim()
		src := randomBatch(rng, dim, 1)

		fast := make([]complex128, dim)
		require.NoError(t, op.Apply(fast, src, 1))

		dense := op.Dense()
		for i := 0; i < dim; i++ {
			var want complex128
			for j := 0; j < dim; j++ {
				want += dense.At(i, j) * src[j]
			}
			assert.InDelta(t, real(want), real(fast[i]), 1e-12, "label %s row %d", s, i)
			assert.InDelta(t, imag(want), imag(fast[i]), 1e-12, "label %s row %d", s, i)
		}
	}
}

func TestQuadraticFormMatchesDense(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	for _, s := range []string{"Z", "XY", "YZX"} {
		op := NewOperator(mustLabel(t, s))
		dim := op.Dim()
		cols := 2
		src := randomBatch(rng, dim, cols)
		buf := make([]complex128, len(src))

		got, err := op.QuadraticForm(src, cols, buf)
		require.NoError(t, err)

		// Explicit sum over columns of u† P u.
		dense := op.Dense()
		var want complex128
		for c := 0; c < cols; c++ {
			for i := 0; i < dim; i++ {
				for j := 0; j < dim; j++ {
					ui := src[i*cols+c]
					uj := src[j*cols+c]
					want += complex(real(ui), -imag(ui)) * dense.At(i, j) * uj
				}
			}
		}
		assert.InDelta(t, real(want), got, 1e-10, "label %s", s)
		assert.InDelta(t, 0, imag(want), 1e-10, "label %s quadratic form should be real", s)
	}
}

func TestQuadraticFormIdentity(t *testing.T) {
	op := NewOperator(mustLabel(t, "II"))
	src := []complex128{1, 0, 0, 0, 0, 0, 0, 0}
	buf := make([]complex128, len(src))
	got, err := op.QuadraticForm(src, 2, buf)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-15)
}

func TestApplyRejectsBadBatch(t *testing.T) {
	op := NewOperator(mustLabel(t, "XZ"))
	dst := make([]complex128, 4)
	assert.Error(t, op.Apply(dst, make([]complex128, 3), 1))
	assert.Error(t, op.Apply(dst, make([]complex128, 4), 0))
	assert.Error(t, op.Apply(make([]complex128, 2), make([]complex128, 4), 1))
}

func TestApplyLeavesNormInvariant(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	op := NewOperator(mustLabel(t, "YZX"))
	src := randomBatch(rng, op.Dim(), 1)
	dst := make([]complex128, len(src))
	require.NoError(t, op.Apply(dst, src, 1))

	var srcNorm, dstNorm float64
	for i := range src {
		srcNorm += real(src[i])*real(src[i]) + imag(src[i])*imag(src[i])
		dstNorm += real(dst[i])*real(dst[i]) + imag(dst[i])*imag(dst[i])
	}
	assert.InDelta(t, math.Sqrt(srcNorm), math.Sqrt(dstNorm), 1e-12)
}
