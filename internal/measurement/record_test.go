package measurement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qtomo/internal/domain"
	"github.com/aristath/qtomo/internal/pauli"
)

func label(t *testing.T, s string) pauli.Label {
	t.Helper()
	l, err := pauli.ParseLabel(s, len(s))
	require.NoError(t, err)
	return l
}

func TestExpectationGroundStateZ(t *testing.T) {
	// |0> measured in Z: always outcome "0", expectation +1.
	rec := Record{Label: "Z", Shots: 1000, Counts: map[string]int{"0": 1000}}
	v, err := Expectation(label(t, "Z"), rec)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-15)
}

func TestExpectationBalancedX(t *testing.T) {
	// |0> measured in X: half "0", half "1", expectation 0.
	rec := Record{Label: "X", Shots: 1000, Counts: map[string]int{"0": 500, "1": 500}}
	v, err := Expectation(label(t, "X"), rec)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-15)
}

func TestExpectationIgnoresIdentityPositions(t *testing.T) {
	// Label IZ: parity depends only on the second bit.
	rec := Record{Label: "IZ", Shots: 4, Counts: map[string]int{
		"00": 1, "10": 1, "01": 1, "11": 1,
	}}
	v, err := Expectation(label(t, "IZ"), rec)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-15)

	rec = Record{Label: "IZ", Shots: 4, Counts: map[string]int{"00": 2, "10": 2}}
	v, err = Expectation(label(t, "IZ"), rec)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-15)
}

func TestExpectationTwoQubitParity(t *testing.T) {
	// Label ZZ on a Bell-like histogram: "00" and "11" both have parity +1.
	rec := Record{Label: "ZZ", Shots: 100, Counts: map[string]int{"00": 50, "11": 50}}
	v, err := Expectation(label(t, "ZZ"), rec)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-15)
}

func TestExpectationBounds(t *testing.T) {
	rec := Record{Label: "Y", Shots: 10, Counts: map[string]int{"0": 3, "1": 7}}
	v, err := Expectation(label(t, "Y"), rec)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, -1.0)
	assert.LessOrEqual(t, v, 1.0)
	assert.InDelta(t, -0.4, v, 1e-15)
}

func TestValidateShotMismatch(t *testing.T) {
	rec := Record{Label: "Z", Shots: 1000, Counts: map[string]int{"0": 999}}
	_, err := Expectation(label(t, "Z"), rec)
	require.Error(t, err)

	var invalid *domain.InvalidMeasurementError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Z", invalid.Label)
}

func TestValidateRejectsBadBitstrings(t *testing.T) {
	rec := Record{Label: "Z", Shots: 2, Counts: map[string]int{"00": 2}}
	assert.Error(t, rec.Validate(1))

	rec = Record{Label: "Z", Shots: 2, Counts: map[string]int{"2": 2}}
	assert.Error(t, rec.Validate(1))

	rec = Record{Label: "Z", Shots: 0, Counts: map[string]int{}}
	assert.Error(t, rec.Validate(1))
}
