package projectors

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/qtomo/internal/pauli"
)

// descriptor is the persisted compact form of one operator: the label text
// and qubit count are enough to rebuild it exactly. Encoded with msgpack and
// stored as an opaque blob, keyed by label.
type descriptor struct {
	Qubits  int    `msgpack:"qubits"`
	Letters string `msgpack:"letters"`
}

// SQLiteStore persists projector descriptors in a label-keyed sqlite table.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLiteStore creates the persisted projector store, creating the schema
// if needed.
func NewSQLiteStore(db *sql.DB, log zerolog.Logger) (*SQLiteStore, error) {
	s := &SQLiteStore{
		db:  db,
		log: log.With().Str("repo", "projectors").Logger(),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS projectors (
			label TEXT PRIMARY KEY,
			descriptor BLOB NOT NULL
		)
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create projectors table: %w", err)
	}
	return nil
}

// Save writes the descriptors for every operator in the in-memory store.
// Existing rows for the same labels are replaced.
func (s *SQLiteStore) Save(store *Store) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO projectors (label, descriptor) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, label := range store.Labels() {
		blob, err := msgpack.Marshal(descriptor{
			Qubits:  label.Qubits(),
			Letters: label.String(),
		})
		if err != nil {
			return fmt.Errorf("failed to encode descriptor for %q: %w", label.String(), err)
		}
		if _, err := stmt.Exec(label.String(), blob); err != nil {
			return fmt.Errorf("failed to insert descriptor for %q: %w", label.String(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit projector save: %w", err)
	}

	s.log.Debug().Int("labels", store.Len()).Msg("Projector descriptors saved")
	return nil
}

// Load rebuilds an in-memory store from the persisted descriptors. Operators
// rebuilt this way behave identically to the originals.
func (s *SQLiteStore) Load(qubits int, log zerolog.Logger) (*Store, error) {
	rows, err := s.db.Query("SELECT label, descriptor FROM projectors ORDER BY label")
	if err != nil {
		return nil, fmt.Errorf("failed to query projectors: %w", err)
	}
	defer rows.Close()

	store := NewStore(qubits, log)
	var labels []pauli.Label
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan projector row: %w", err)
		}

		var desc descriptor
		if err := msgpack.Unmarshal(blob, &desc); err != nil {
			return nil, fmt.Errorf("failed to decode descriptor for %q: %w", key, err)
		}
		if desc.Letters != key {
			return nil, fmt.Errorf("descriptor label %q does not match row key %q", desc.Letters, key)
		}

		label, err := pauli.ParseLabel(desc.Letters, desc.Qubits)
		if err != nil {
			return nil, fmt.Errorf("persisted descriptor for %q is invalid: %w", key, err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projector rows: %w", err)
	}

	if err := store.Populate(labels); err != nil {
		return nil, err
	}
	return store, nil
}
