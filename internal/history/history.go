// Package history keeps an optional local audit log of extraction runs in
// SQLite. It records what happened, never the extracted content of prior
// runs for reuse.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jo-hoe/clipscribe/internal/common"
)

// Record describes one invocation of the pipeline.
type Record struct {
	ID           string
	CreatedAt    time.Time
	Width        int
	Height       int
	Model        string
	Markdown     bool
	Outcome      string // text|no-image|empty-image|failure
	Chars        int    // length of the extracted text, 0 otherwise
	ErrorMessage *string
	Duration     time.Duration
}

// Store persists Records in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the history database at path.
func Open(path string) (*Store, error) {
	// Busy timeout to avoid SQLITE_BUSY if two invocations overlap.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, common.SQLiteBusyTimeout)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS extractions (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		model TEXT NOT NULL,
		markdown INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		chars INTEGER NOT NULL,
		error_message TEXT,
		duration_ms INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Append inserts one record.
func (s *Store) Append(rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.ID == "" {
		return errors.New("record.ID is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	md := 0
	if rec.Markdown {
		md = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO extractions (id, created_at, width, height, model, markdown, outcome, chars, error_message, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.Width, rec.Height,
		rec.Model, md, rec.Outcome, rec.Chars, rec.ErrorMessage, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = common.DefaultHistoryRows
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, width, height, model, markdown, outcome, chars, error_message, duration_ms
		 FROM extractions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var rec Record
		var created string
		var md int
		var errMsg sql.NullString
		var durMS int64
		if err := rows.Scan(&rec.ID, &created, &rec.Width, &rec.Height, &rec.Model,
			&md, &rec.Outcome, &rec.Chars, &errMsg, &durMS); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			rec.CreatedAt = t
		}
		rec.Markdown = md != 0
		if errMsg.Valid {
			v := errMsg.String
			rec.ErrorMessage = &v
		}
		rec.Duration = time.Duration(durMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
