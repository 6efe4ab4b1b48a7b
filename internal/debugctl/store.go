package debugctl

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store persists breakpoints across VM restarts, grounded on
// chazu-maggie/lib/runtime/persistence.go's NewPersistence/Save/Load/Delete
// pattern over database/sql, substituting modernc.org/sqlite's pure-Go
// driver ("sqlite") for that file's github.com/mattn/go-sqlite3 ("sqlite3").
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) a sqlite database at path and ensures
// the breakpoints table exists.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("debugctl: open store: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("debugctl: set busy_timeout: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS breakpoints (
	id   TEXT PRIMARY KEY,
	file TEXT NOT NULL,
	line INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("debugctl: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Save upserts a breakpoint row.
func (s *Store) Save(bp *Breakpoint) error {
	_, err := s.db.Exec(
		`INSERT INTO breakpoints (id, file, line) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET file = excluded.file, line = excluded.line`,
		bp.ID, bp.File, bp.Line,
	)
	return err
}

// Delete removes a breakpoint row by id.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM breakpoints WHERE id = ?`, id)
	return err
}

// Load reads every persisted breakpoint back.
func (s *Store) Load() ([]*Breakpoint, error) {
	rows, err := s.db.Query(`SELECT id, file, line FROM breakpoints`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Breakpoint
	for rows.Next() {
		bp := &Breakpoint{}
		if err := rows.Scan(&bp.ID, &bp.File, &bp.Line); err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	return out, rows.Err()
}
