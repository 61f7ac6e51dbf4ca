package baseline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"shuttle/internal/config"
	"shuttle/internal/scan"
)

// Store persists the baseline and the sync journal in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the baseline database and applies
// migrations. The database lives under the configured data directory so a
// restarted daemon resumes from the last synchronized state instead of
// re-pushing the whole tree.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Snapshot loads the full baseline mapping.
func (s *Store) Snapshot(ctx context.Context) (map[string]scan.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, fingerprint, size, modified_at FROM baseline_files`)
	if err != nil {
		return nil, fmt.Errorf("query baseline: %w", err)
	}
	defer rows.Close()

	files := make(map[string]scan.FileRecord)
	for rows.Next() {
		var (
			record      scan.FileRecord
			modifiedRaw string
		)
		if err := rows.Scan(&record.Path, &record.Fingerprint, &record.Size, &modifiedRaw); err != nil {
			return nil, fmt.Errorf("scan baseline row: %w", err)
		}
		if parsed, err := parseTimeString(modifiedRaw); err == nil {
			record.ModifiedAt = parsed
		}
		files[record.Path] = record
	}
	return files, rows.Err()
}

// Get fetches a single baseline record, or nil when the path is unknown.
func (s *Store) Get(ctx context.Context, path string) (*scan.FileRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT path, fingerprint, size, modified_at FROM baseline_files WHERE path = ?`, path)
	var (
		record      scan.FileRecord
		modifiedRaw string
	)
	err := row.Scan(&record.Path, &record.Fingerprint, &record.Size, &modifiedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get baseline record: %w", err)
	}
	if parsed, err := parseTimeString(modifiedRaw); err == nil {
		record.ModifiedAt = parsed
	}
	return &record, nil
}

// Count returns the number of baseline records.
func (s *Store) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM baseline_files`)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count baseline: %w", err)
	}
	return count, nil
}

// ReplaceAll swaps the entire baseline for the given snapshot contents in one
// transaction. Used after a fully successful sync and for first-run baseline
// establishment.
func (s *Store) ReplaceAll(ctx context.Context, files map[string]scan.FileRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin baseline tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_files`); err != nil {
		return fmt.Errorf("clear baseline: %w", err)
	}
	for _, record := range files {
		if err := upsertRecord(ctx, tx, record); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit baseline: %w", err)
	}
	return nil
}

// Apply upserts the given records and deletes the given paths in one
// transaction. This is the partial-success path: only what the remote
// actually accepted moves into the baseline, so rejected paths are detected
// again on the next cycle.
func (s *Store) Apply(ctx context.Context, upserts []scan.FileRecord, removals []string) error {
	if len(upserts) == 0 && len(removals) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin baseline tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, record := range upserts {
		if err := upsertRecord(ctx, tx, record); err != nil {
			return err
		}
	}
	for _, path := range removals {
		if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_files WHERE path = ?`, path); err != nil {
			return fmt.Errorf("delete baseline record %s: %w", path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit baseline: %w", err)
	}
	return nil
}

// Clear removes every baseline record. The next cycle re-establishes the
// baseline from a fresh scan.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM baseline_files`)
	if err != nil {
		return 0, fmt.Errorf("clear baseline: %w", err)
	}
	return res.RowsAffected()
}

func upsertRecord(ctx context.Context, tx *sql.Tx, record scan.FileRecord) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO baseline_files (path, fingerprint, size, modified_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             fingerprint = excluded.fingerprint,
             size = excluded.size,
             modified_at = excluded.modified_at`,
		record.Path,
		record.Fingerprint,
		record.Size,
		record.ModifiedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert baseline record %s: %w", record.Path, err)
	}
	return nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
