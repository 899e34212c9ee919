package measurement

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qtomo/internal/database"
	"github.com/aristath/qtomo/internal/domain"
	"github.com/aristath/qtomo/internal/pauli"
	"github.com/aristath/qtomo/internal/projectors"
)

func populatedStore(t *testing.T, qubits int, raw ...string) (*projectors.Store, []pauli.Label) {
	t.Helper()
	labels, err := pauli.ParseLabels(raw, qubits)
	require.NoError(t, err)
	store := projectors.NewStore(qubits, zerolog.Nop())
	require.NoError(t, store.Populate(labels))
	return store, labels
}

func TestBuildVectorOrdering(t *testing.T) {
	store, labels := populatedStore(t, 1, "X", "Z")
	records := map[string]Record{
		"X": {Label: "X", Shots: 1000, Counts: map[string]int{"0": 500, "1": 500}},
		"Z": {Label: "Z", Shots: 1000, Counts: map[string]int{"0": 1000}},
	}

	y, err := BuildVector(labels, store, records, 1000)
	require.NoError(t, err)
	require.Len(t, y, 2)
	assert.InDelta(t, 0.0, y[0], 1e-15)
	assert.InDelta(t, 1.0, y[1], 1e-15)
}

// Projector label set {"X","Y"} against measurement label set {"X","Z"} must
// fail before any aggregation happens.
func TestBuildVectorLabelSetMismatch(t *testing.T) {
	store, labels := populatedStore(t, 1, "X", "Y")
	records := map[string]Record{
		"X": {Label: "X", Shots: 100, Counts: map[string]int{"0": 100}},
		"Z": {Label: "Z", Shots: 100, Counts: map[string]int{"0": 100}},
	}

	_, err := BuildVector(labels, store, records, 100)
	require.Error(t, err)

	var mismatch *domain.DataMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestBuildVectorMissingMeasurement(t *testing.T) {
	store, labels := populatedStore(t, 1, "X", "Z")
	records := map[string]Record{
		"X": {Label: "X", Shots: 100, Counts: map[string]int{"0": 100}},
	}

	_, err := BuildVector(labels, store, records, 100)
	require.Error(t, err)

	var mismatch *domain.DataMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestBuildVectorShotCountMismatch(t *testing.T) {
	store, labels := populatedStore(t, 1, "Z")
	records := map[string]Record{
		"Z": {Label: "Z", Shots: 50, Counts: map[string]int{"0": 50}},
	}

	_, err := BuildVector(labels, store, records, 100)
	require.Error(t, err)

	var mismatch *domain.DataMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestSQLiteRoundTrip(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "measurements.db"))
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewSQLiteStore(db.Conn(), zerolog.Nop())
	require.NoError(t, err)

	records := map[string]Record{
		"XZ": {Label: "XZ", Shots: 10, Counts: map[string]int{"00": 4, "11": 6}},
		"YI": {Label: "YI", Shots: 10, Counts: map[string]int{"01": 10}},
	}
	require.NoError(t, repo.Save(records))

	loaded, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, records["XZ"].Counts, loaded["XZ"].Counts)
	assert.Equal(t, 10, loaded["YI"].Shots)
}
