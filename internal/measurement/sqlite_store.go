package measurement

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SQLiteStore persists outcome histograms in a label-keyed sqlite table, one
// msgpack blob per label.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLiteStore creates the persisted measurement store, creating the schema
// if needed.
func NewSQLiteStore(db *sql.DB, log zerolog.Logger) (*SQLiteStore, error) {
	s := &SQLiteStore{
		db:  db,
		log: log.With().Str("repo", "measurements").Logger(),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS measurements (
			label TEXT PRIMARY KEY,
			histogram BLOB NOT NULL
		)
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create measurements table: %w", err)
	}
	return nil
}

// Save writes every record, replacing existing rows for the same labels.
func (s *SQLiteStore) Save(records map[string]Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO measurements (label, histogram) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for key, rec := range records {
		blob, err := msgpack.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode histogram for %q: %w", key, err)
		}
		if _, err := stmt.Exec(key, blob); err != nil {
			return fmt.Errorf("failed to insert histogram for %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit measurement save: %w", err)
	}

	s.log.Debug().Int("labels", len(records)).Msg("Measurement histograms saved")
	return nil
}

// Load reads all persisted records keyed by label.
func (s *SQLiteStore) Load() (map[string]Record, error) {
	rows, err := s.db.Query("SELECT label, histogram FROM measurements")
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	records := make(map[string]Record)
	for rows.Next() {
		var key string
		var blob []byte
		if err := rows.Scan(&key, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan measurement row: %w", err)
		}

		var rec Record
		if err := msgpack.Unmarshal(blob, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode histogram for %q: %w", key, err)
		}
		if rec.Label == "" {
			rec.Label = key
		}
		records[key] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate measurement rows: %w", err)
	}
	return records, nil
}
