// Package db keeps the local journal of applied changes in SQLite.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/torfstack/gcff/internal/deploy"
	"github.com/torfstack/gcff/internal/logging"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// timestamps are fixed width so they sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Record is one journal row.
type Record struct {
	ID string `json:"id"`
	deploy.JournalEntry
}

type Journal struct {
	db *sql.DB
}

var _ deploy.Recorder = (*Journal)(nil)

// Open opens or creates the journal at path and migrates it.
func Open(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create journal directory: %w", err)
	}
	sqlDb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	j := &Journal{sqlDb}
	if err = j.runMigrations(ctx); err != nil {
		_ = sqlDb.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	return j, nil
}

func (j *Journal) runMigrations(ctx context.Context) error {
	err := goose.SetDialect("sqlite")
	if err != nil {
		return fmt.Errorf("could not set dialect 'sqlite': %w", err)
	}
	goose.SetLogger(logging.GooseLogger{})
	goose.SetBaseFS(embedMigrations)

	if err = goose.UpContext(ctx, j.db, "migrations"); err != nil {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) Record(ctx context.Context, entry deploy.JournalEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal (id, kind, function, destination, puts, deletes, failed_deletes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		entry.Kind,
		entry.Function,
		entry.Destination,
		entry.Puts,
		entry.Deletes,
		entry.FailedDeletes,
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("could not insert journal entry: %w", err)
	}
	return nil
}

// List returns the newest records first. A limit of zero or less returns
// every record.
func (j *Journal) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, function, destination, puts, deletes, failed_deletes, created_at
		 FROM journal
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query journal: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logging.Debugf("Could not close rows: %s", err)
		}
	}(rows)

	var records []Record
	for rows.Next() {
		var (
			r         Record
			createdAt string
		)
		err = rows.Scan(&r.ID, &r.Kind, &r.Function, &r.Destination, &r.Puts, &r.Deletes, &r.FailedDeletes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("could not read journal entry: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("could not parse time of journal entry %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read journal: %w", err)
	}
	return records, nil
}
