// Package history records every transform in a SQLite database together with
// a small thumbnail of the result.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SchemaVersion is written to the meta table of every database.
const SchemaVersion = "1"

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// ErrNotFound is returned for unknown record ids.
var ErrNotFound = errors.New("history record not found")

// Status is the outcome of a transform.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Record is one transform entry.
type Record struct {
	ID           string        `json:"id"`
	Style        string        `json:"style"`
	Input        string        `json:"input"`
	Output       string        `json:"output"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Elapsed      time.Duration `json:"elapsed"`
	Status       Status        `json:"status"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	HasThumbnail bool          `json:"has_thumbnail"`

	// Thumbnail is the PNG thumbnail to store with the record. It is only
	// read by Add; use Store.Thumbnail to fetch it back.
	Thumbnail []byte `json:"-"`
}

// Filter narrows List results.
type Filter struct {
	Style  string
	Status Status
	Limit  int
	Offset int
}

// Store is a SQLite-backed transform history.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			name TEXT PRIMARY KEY,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS transforms (
			id TEXT PRIMARY KEY,
			style TEXT NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			width INTEGER NOT NULL DEFAULT 0,
			height INTEGER NOT NULL DEFAULT 0,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			thumbnail BLOB
		);

		CREATE INDEX IF NOT EXISTS transforms_created ON transforms (created_at);
		CREATE INDEX IF NOT EXISTS transforms_style ON transforms (style, created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO meta (name, value) VALUES ('schema_version', ?)", SchemaVersion); err != nil {
		return fmt.Errorf("failed to write schema version: %w", err)
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Add stores rec, assigning an id and creation time when missing, and returns
// the stored record.
func (s *Store) Add(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.Status == "" {
		rec.Status = StatusOK
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Millisecond)

	var thumb []byte
	if len(rec.Thumbnail) > 0 {
		var err error
		if thumb, err = gzipCompress(rec.Thumbnail); err != nil {
			return Record{}, fmt.Errorf("failed to compress thumbnail: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transforms (id, style, input, output, width, height, elapsed_ms, status, error, created_at, thumbnail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Style, rec.Input, rec.Output, rec.Width, rec.Height,
		rec.Elapsed.Milliseconds(), string(rec.Status), rec.Error, rec.CreatedAt.UnixMilli(), thumb,
	)
	if err != nil {
		return Record{}, fmt.Errorf("failed to insert record: %w", err)
	}

	rec.HasThumbnail = thumb != nil
	rec.Elapsed = rec.Elapsed.Truncate(time.Millisecond)
	rec.Thumbnail = nil
	return rec, nil
}

const selectColumns = `id, style, input, output, width, height, elapsed_ms, status, error, created_at, thumbnail IS NOT NULL`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec       Record
		elapsedMS int64
		created   int64
		status    string
	)
	err := row.Scan(&rec.ID, &rec.Style, &rec.Input, &rec.Output, &rec.Width, &rec.Height,
		&elapsedMS, &status, &rec.Error, &created, &rec.HasThumbnail)
	if err != nil {
		return Record{}, err
	}
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	rec.Status = Status(status)
	rec.CreatedAt = time.UnixMilli(created).UTC()
	return rec, nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM transforms WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to query record: %w", err)
	}
	return rec, nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if f.Style != "" {
		where = append(where, "style = ?")
		args = append(args, f.Style)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := "SELECT " + selectColumns + " FROM transforms"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, limit, max(f.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transforms").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Thumbnail returns the decompressed PNG thumbnail of a record.
func (s *Store) Thumbnail(ctx context.Context, id string) ([]byte, error) {
	var compressed []byte
	err := s.db.QueryRowContext(ctx, "SELECT thumbnail FROM transforms WHERE id = ?", id).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query thumbnail: %w", err)
	}
	if compressed == nil {
		return nil, fmt.Errorf("%w: %s has no thumbnail", ErrNotFound, id)
	}
	data, err := gzipDecompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress thumbnail: %w", err)
	}
	return data, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transforms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
