package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/zots0127/vidstore/internal/domain/entities"
	"github.com/zots0127/vidstore/internal/domain/repository"
)

// Catalog is the SQLite-backed metadata catalog.
type Catalog struct {
	db *sql.DB
}

// New opens (or creates) the catalog database at dbPath. The busy timeout
// makes concurrent writers queue instead of failing with SQLITE_BUSY, and
// WAL lets readers proceed alongside a writer, so one handle serves all
// request goroutines.
func New(dbPath string) (*Catalog, error) {
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog tables: %w", err)
	}

	return c, nil
}

func (c *Catalog) initTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		mime_subtype TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_files_name ON files(name);
	CREATE INDEX IF NOT EXISTS idx_files_size ON files(size);
	CREATE INDEX IF NOT EXISTS idx_files_created_at ON files(created_at);
	`

	_, err := c.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Create reserves a new record with size 0. The lookup and the insert are
// two statements; the unique index on name is the backstop that turns the
// lost race between two concurrent creates into a conflict instead of a
// duplicate.
func (c *Catalog) Create(ctx context.Context, name string, mime entities.Mime) (string, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM files WHERE name = ?)", name,
	).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check name: %w", err)
	}
	if exists {
		return "", repository.ErrNameTaken
	}

	id := uuid.New().String()
	_, err = c.db.ExecContext(ctx,
		"INSERT INTO files (id, name, mime_type, mime_subtype, size, created_at) VALUES (?, ?, ?, ?, 0, ?)",
		id, name, mime.Type, mime.Subtype, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", repository.ErrNameTaken
		}
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	return id, nil
}

// UpdateSize sets the final byte count. A malformed or unknown id yields
// false, not an error.
func (c *Catalog) UpdateSize(ctx context.Context, id string, size int64) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	res, err := c.db.ExecContext(ctx,
		"UPDATE files SET size = ? WHERE id = ?", size, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update size: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the record, or nil when id is malformed or unknown.
func (c *Catalog) Get(ctx context.Context, id string) (*entities.FileRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := c.db.QueryRowContext(ctx,
		"SELECT id, name, mime_type, mime_subtype, size, created_at FROM files WHERE id = ?", id,
	)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// List returns every record in the catalog.
func (c *Catalog) List(ctx context.Context) ([]*entities.FileRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, name, mime_type, mime_subtype, size, created_at FROM files",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := make([]*entities.FileRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Delete removes the record and reports whether it existed.
func (c *Catalog) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	res, err := c.db.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListStale returns identifiers of placeholder records older than cutoff.
func (c *Catalog) ListStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id FROM files WHERE size = 0 AND created_at < ?", cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*entities.FileRecord, error) {
	var rec entities.FileRecord
	err := s.Scan(&rec.ID, &rec.Name, &rec.Mime.Type, &rec.Mime.Subtype, &rec.Size, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// modernc.org/sqlite has no exported sentinel for constraint failures, so
// match on the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
