// Package store persists procedures in SQLite. Steps are stored as a JSON
// column: procedures are read whole or not at all, and the step list is
// immutable once created, so normalizing it buys nothing.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cyclopsvision/go-mentor/pkg/procedure"
)

// ErrNotFound is returned when a procedure does not exist.
var ErrNotFound = errors.New("store: procedure not found")

// Store is a SQLite-backed procedure store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS procedures (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		steps_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a procedure.
func (s *Store) Create(p *procedure.Procedure) error {
	steps, err := json.Marshal(p.Steps)
	if err != nil {
		return fmt.Errorf("store: marshal steps: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO procedures (id, title, steps_json, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Title, string(steps), p.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("store: insert procedure: %w", err)
	}
	return nil
}

// Get returns the procedure with the given ID.
func (s *Store) Get(id string) (*procedure.Procedure, error) {
	row := s.db.QueryRow(
		`SELECT id, title, steps_json, created_at FROM procedures WHERE id = ?`, id,
	)
	return scanProcedure(row)
}

// List returns all procedures, newest first.
func (s *Store) List() ([]*procedure.Procedure, error) {
	rows, err := s.db.Query(
		`SELECT id, title, steps_json, created_at FROM procedures ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list procedures: %w", err)
	}
	defer rows.Close()

	var out []*procedure.Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a procedure. Deleting a missing procedure returns
// ErrNotFound.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM procedures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete procedure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcedure(row rowScanner) (*procedure.Procedure, error) {
	var (
		p         procedure.Procedure
		stepsJSON string
		createdAt time.Time
	)
	if err := row.Scan(&p.ID, &p.Title, &stepsJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan procedure: %w", err)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &p.Steps); err != nil {
		return nil, fmt.Errorf("store: unmarshal steps: %w", err)
	}
	p.CreatedAt = createdAt
	return &p, nil
}
