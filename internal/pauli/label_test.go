package pauli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qtomo/internal/domain"
)

func TestParseLabel(t *testing.T) {
	label, err := ParseLabel("XIZY", 4)
	require.NoError(t, err)
	assert.Equal(t, "XIZY", label.String())
	assert.Equal(t, 4, label.Qubits())
	assert.Equal(t, byte('X'), label.Char(0))
	assert.Equal(t, byte('Y'), label.Char(3))
	assert.False(t, label.IsIdentity())
}

func TestParseLabelRejectsBadAlphabet(t *testing.T) {
	_, err := ParseLabel("XQ", 2)
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "label", cfgErr.Field)
}

func TestParseLabelRejectsLengthMismatch(t *testing.T) {
	_, err := ParseLabel("XYZ", 2)
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestParseLabelRejectsNonPositiveQubits(t *testing.T) {
	_, err := ParseLabel("", 0)
	require.Error(t, err)
}

func TestParseLabels(t *testing.T) {
	labels, err := ParseLabels([]string{"XX", "IZ", "YI"}, 2)
	require.NoError(t, err)
	require.Len(t, labels, 3)
	assert.Equal(t, "IZ", labels[1].String())

	_, err = ParseLabels([]string{"XX", "bad"}, 2)
	assert.Error(t, err)
}

func TestIsIdentity(t *testing.T) {
	label, err := ParseLabel("III", 3)
	require.NoError(t, err)
	assert.True(t, label.IsIdentity())
}
