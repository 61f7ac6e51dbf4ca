package baseline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Outcome classifies how a sync attempt ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// SyncRecord is one journal row describing a sync attempt.
type SyncRecord struct {
	ID         int64
	RunID      string
	CycleID    int64
	StartedAt  time.Time
	FinishedAt time.Time
	Added      int
	Modified   int
	Removed    int
	Pushed     int
	Failed     int
	Outcome    Outcome
	Error      string
}

// RecordSync appends a row to the sync journal.
func (s *Store) RecordSync(ctx context.Context, record SyncRecord) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sync_history (
            run_id, cycle_id, started_at, finished_at,
            added, modified, removed, pushed, failed, outcome, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.CycleID,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.FinishedAt.UTC().Format(time.RFC3339Nano),
		record.Added,
		record.Modified,
		record.Removed,
		record.Pushed,
		record.Failed,
		string(record.Outcome),
		nullableString(record.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("insert sync record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// History returns the most recent journal rows, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]SyncRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+syncColumns+` FROM sync_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync history: %w", err)
	}
	defer rows.Close()

	var records []SyncRecord
	for rows.Next() {
		record, err := scanSyncRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// LastSync returns the newest journal row, or nil when no sync has run.
func (s *Store) LastSync(ctx context.Context) (*SyncRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+syncColumns+` FROM sync_history ORDER BY id DESC LIMIT 1`)
	record, err := scanSyncRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// JournalStats aggregates journal counts for status output.
type JournalStats struct {
	TotalSyncs  int
	Succeeded   int
	Partial     int
	Failed      int
	FilesPushed int
}

// Stats summarizes the sync journal.
func (s *Store) Stats(ctx context.Context) (JournalStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(1), COALESCE(SUM(pushed), 0) FROM sync_history GROUP BY outcome`)
	if err != nil {
		return JournalStats{}, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	var stats JournalStats
	for rows.Next() {
		var (
			outcome string
			count   int
			pushed  int
		)
		if err := rows.Scan(&outcome, &count, &pushed); err != nil {
			return JournalStats{}, err
		}
		stats.TotalSyncs += count
		stats.FilesPushed += pushed
		switch Outcome(outcome) {
		case OutcomeSuccess:
			stats.Succeeded += count
		case OutcomePartial:
			stats.Partial += count
		case OutcomeFailed:
			stats.Failed += count
		}
	}
	return stats, rows.Err()
}

// PruneHistory deletes journal rows older than the cutoff and returns how
// many were removed.
func (s *Store) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM sync_history WHERE started_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune sync history: %w", err)
	}
	return res.RowsAffected()
}

const syncColumns = "id, run_id, cycle_id, started_at, finished_at, added, modified, removed, pushed, failed, outcome, error_message"

func scanSyncRecord(scanner interface{ Scan(dest ...any) error }) (SyncRecord, error) {
	var (
		record      SyncRecord
		startedRaw  string
		finishedRaw string
		outcomeRaw  string
		errorRaw    sql.NullString
	)
	if err := scanner.Scan(
		&record.ID,
		&record.RunID,
		&record.CycleID,
		&startedRaw,
		&finishedRaw,
		&record.Added,
		&record.Modified,
		&record.Removed,
		&record.Pushed,
		&record.Failed,
		&outcomeRaw,
		&errorRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SyncRecord{}, err
		}
		return SyncRecord{}, fmt.Errorf("scan sync record: %w", err)
	}
	record.Outcome = Outcome(outcomeRaw)
	record.Error = errorRaw.String
	if parsed, err := parseTimeString(startedRaw); err == nil {
		record.StartedAt = parsed
	}
	if parsed, err := parseTimeString(finishedRaw); err == nil {
		record.FinishedAt = parsed
	}
	return record, nil
}
