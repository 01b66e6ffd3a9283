// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/almanac/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS index_entries (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		subtitle TEXT,
		snippet TEXT,
		vertical TEXT,
		tags TEXT,
		countries TEXT,
		programs TEXT,
		date TIMESTAMP,
		updated TIMESTAMP,
		min_investment REAL,
		timeline_months REAL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_type_position ON index_entries(type, position);
	CREATE INDEX IF NOT EXISTS idx_entries_position ON index_entries(position);

	CREATE TABLE IF NOT EXISTS index_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

const entryColumns = `id, url, type, title, subtitle, snippet, vertical, tags, countries, programs,
	date, updated, min_investment, timeline_months`

// ReplaceEntries deletes the stored entries and inserts the artifact's in one transaction.
func (s *SQLiteStorage) ReplaceEntries(ctx context.Context, art *models.IndexArtifact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO index_entries (position, `+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range art.Docs {
		e := &art.Docs[i]
		tags, err := encodeList(e.Tags)
		if err != nil {
			return err
		}
		countries, err := encodeList(e.Countries)
		if err != nil {
			return err
		}
		programs, err := encodeList(e.Programs)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, i,
			e.ID, e.URL, e.Type, e.Title, e.Subtitle, e.Snippet, e.Vertical,
			tags, countries, programs,
			nullTime(e.Date), nullTime(e.Updated),
			nullFloat(e.MinInvestment), nullFloat(e.TimelineMonths),
		); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_meta (key, value) VALUES ('generated_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		art.GeneratedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}
	return tx.Commit()
}

// GetEntry returns an entry by ID.
func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*models.SearchIndexEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM index_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEntries returns entries with offset and limit, in artifact order.
func (s *SQLiteStorage) ListEntries(ctx context.Context, typ string, offset, limit int) ([]*models.SearchIndexEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+`
		 FROM index_entries WHERE (? = '' OR type = ?) ORDER BY position LIMIT ? OFFSET ?`,
		typ, typ, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*models.SearchIndexEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountEntries returns the number of entries, optionally restricted to one type.
func (s *SQLiteStorage) CountEntries(ctx context.Context, typ string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM index_entries WHERE (? = '' OR type = ?)`, typ, typ,
	).Scan(&count)
	return count, err
}

// GeneratedAt returns the generation time recorded by the last ReplaceEntries.
func (s *SQLiteStorage) GeneratedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'generated_at'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, value)
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*models.SearchIndexEntry, error) {
	var (
		e                            models.SearchIndexEntry
		subtitle, snippet, vertical  sql.NullString
		tags, countries, programs    sql.NullString
		date, updated                sql.NullTime
		minInvestment, timelineMonth sql.NullFloat64
	)
	if err := sc.Scan(&e.ID, &e.URL, &e.Type, &e.Title, &subtitle, &snippet, &vertical,
		&tags, &countries, &programs, &date, &updated, &minInvestment, &timelineMonth); err != nil {
		return nil, err
	}
	e.Subtitle = subtitle.String
	e.Snippet = snippet.String
	e.Vertical = vertical.String
	var err error
	if e.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	if e.Countries, err = decodeList(countries); err != nil {
		return nil, err
	}
	if e.Programs, err = decodeList(programs); err != nil {
		return nil, err
	}
	if date.Valid {
		t := date.Time.UTC()
		e.Date = &t
	}
	if updated.Valid {
		t := updated.Time.UTC()
		e.Updated = &t
	}
	if minInvestment.Valid {
		v := minInvestment.Float64
		e.MinInvestment = &v
	}
	if timelineMonth.Valid {
		v := timelineMonth.Float64
		e.TimelineMonths = &v
	}
	return &e, nil
}

func encodeList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(b), nil
}

func decodeList(s sql.NullString) ([]string, error) {
	out := []string{}
	if !s.Valid || s.String == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal list: %w", err)
	}
	return out, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
