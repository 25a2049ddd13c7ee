package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kvitt/internal/config"
)

// Entry is one submitted expense recorded locally.
type Entry struct {
	ID           int64
	ExpenseID    string
	Campus       string
	Department   string
	Summary      string
	Total        decimal.Decimal
	ReceiptCount int
	SubmittedAt  time.Time
}

// Store records submitted expenses in a local SQLite database. Drafts are
// never persisted here; an entry is written only after a submission
// completes.
type Store struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    expense_id    TEXT NOT NULL,
    campus        TEXT NOT NULL,
    department    TEXT NOT NULL,
    summary       TEXT NOT NULL DEFAULT '',
    total         TEXT NOT NULL,
    receipt_count INTEGER NOT NULL,
    submitted_at  TEXT NOT NULL
);
`

// Open initializes or connects to the history database. A file lock
// serializes access across CLI invocations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "history.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire history lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("history database is in use by another kvitt process")
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, lock: lock, path: dbPath}, nil
}

// Close releases the database connection and the file lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Add records one submitted expense.
func (s *Store) Add(ctx context.Context, entry Entry) (int64, error) {
	submittedAt := entry.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO submissions (expense_id, campus, department, summary, total, receipt_count, submitted_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ExpenseID,
		entry.Campus,
		entry.Department,
		entry.Summary,
		entry.Total.String(),
		entry.ReceiptCount,
		submittedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns recorded submissions, most recent first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, expense_id, campus, department, summary, total, receipt_count, submitted_at
         FROM submissions ORDER BY submitted_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var total, submittedAt string
		if err := rows.Scan(&entry.ID, &entry.ExpenseID, &entry.Campus, &entry.Department, &entry.Summary, &total, &entry.ReceiptCount, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if entry.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("parse total %q: %w", total, err)
		}
		if entry.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
			return nil, fmt.Errorf("parse submitted_at %q: %w", submittedAt, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return entries, nil
}
