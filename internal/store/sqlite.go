package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/katas/internal/clock"
	"github.com/pbaille/katas/internal/domain"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when no run matches a lookup
var ErrNotFound = errors.New("run not found")

// Store records runs of the exercises
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeInput is the persisted shape of an encode request
type encodeInput struct {
	Labels []string `json:"labels"`
}

// RecordEncode stores the labels and resulting rows of one encode call
func (s *Store) RecordEncode(labels []string, rows []domain.EncodedRow) (*domain.Run, error) {
	return s.insert(domain.KindEncode, encodeInput{Labels: labels}, rows)
}

// RecordYear stores a successful year lookup
func (s *Store) RecordYear(r clock.Reading) (*domain.Run, error) {
	return s.insert(domain.KindYear, map[string]string{clock.DateTimeKey: r.Raw}, r)
}

func (s *Store) insert(kind domain.RunKind, input, output any) (*domain.Run, error) {
	in, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}
	out, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("marshal output: %w", err)
	}

	run := &domain.Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Input:     string(in),
		Output:    string(out),
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.Exec(
		"INSERT INTO runs (id, kind, input, output, created_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.Kind, run.Input, run.Output, run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by its full ID
func (s *Store) GetRun(id string) (*domain.Run, error) {
	var r domain.Run
	err := s.db.QueryRow(
		"SELECT id, kind, input, output, created_at FROM runs WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Kind, &r.Input, &r.Output, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &r, nil
}

// FindRun resolves an ID prefix to the most recent matching run
func (s *Store) FindRun(prefix string) (*domain.Run, error) {
	prefix = stripWildcards(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	var r domain.Run
	err := s.db.QueryRow(
		"SELECT id, kind, input, output, created_at FROM runs WHERE id LIKE ? ORDER BY created_at DESC, rowid DESC LIMIT 1",
		prefix+"%",
	).Scan(&r.ID, &r.Kind, &r.Input, &r.Output, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	return &r, nil
}

// ListRuns returns recent runs, newest first. An empty kind matches all.
func (s *Store) ListRuns(kind domain.RunKind, limit, offset int) ([]domain.Run, error) {
	query := "SELECT id, kind, input, output, created_at FROM runs"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var r domain.Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.Input, &r.Output, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// UUIDs never contain LIKE wildcards, but user-typed prefixes might
func stripWildcards(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(strings.TrimSpace(s))
}
