package ipc

import (
	"time"

	"shuttle/internal/baseline"
)

// PingRequest probes daemon liveness.
type PingRequest struct{}

// PingResponse confirms the daemon is answering on the socket.
type PingResponse struct {
	Pong bool `json:"pong"`
	PID  int  `json:"pid"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates the shutdown request was accepted.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// LastSync summarizes the newest journal row for status output.
type LastSync struct {
	CycleID    int64  `json:"cycle_id"`
	FinishedAt string `json:"finished_at"`
	Added      int    `json:"added"`
	Modified   int    `json:"modified"`
	Removed    int    `json:"removed"`
	Pushed     int    `json:"pushed"`
	Failed     int    `json:"failed"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}

// StatusResponse is the daemon state as served over the socket.
type StatusResponse struct {
	Running             bool      `json:"running"`
	PID                 int       `json:"pid"`
	Condition           string    `json:"condition"`
	Phase               string    `json:"phase"`
	RunID               string    `json:"run_id"`
	CycleID             int64     `json:"cycle_id"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
	BaselineFiles       int       `json:"baseline_files"`
	LastSyncSummary     string    `json:"last_sync_summary,omitempty"`
	Root                string    `json:"root"`
	RemoteKind          string    `json:"remote_kind"`
	IntervalSeconds     int       `json:"interval_seconds"`
	DBPath              string    `json:"db_path"`
	LockPath            string    `json:"lock_path"`
	LogPath             string    `json:"log_path"`
	LastSync            *LastSync `json:"last_sync,omitempty"`
}

// SyncNowRequest asks the controller to run a cycle immediately.
type SyncNowRequest struct{}

// SyncNowResponse reports whether the trigger was accepted.
type SyncNowResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message,omitempty"`
}

// HistoryRequest fetches recent sync journal rows.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryEntry is one journal row shaped for IPC transport.
type HistoryEntry struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	CycleID    int64  `json:"cycle_id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Added      int    `json:"added"`
	Modified   int    `json:"modified"`
	Removed    int    `json:"removed"`
	Pushed     int    `json:"pushed"`
	Failed     int    `json:"failed"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}

// HistoryEntryFromRecord flattens a journal row into its wire shape. Shared
// with callers that read the journal offline while the daemon is down.
func HistoryEntryFromRecord(record baseline.SyncRecord) HistoryEntry {
	return HistoryEntry{
		ID:         record.ID,
		RunID:      record.RunID,
		CycleID:    record.CycleID,
		StartedAt:  record.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: record.FinishedAt.UTC().Format(time.RFC3339),
		Added:      record.Added,
		Modified:   record.Modified,
		Removed:    record.Removed,
		Pushed:     record.Pushed,
		Failed:     record.Failed,
		Outcome:    string(record.Outcome),
		Error:      record.Error,
	}
}

// HistoryResponse contains journal rows, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DatabaseHealthRequest fetches detailed baseline store diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports baseline store health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	TableExists      bool   `json:"table_exists"`
	TotalFiles       int    `json:"total_files"`
	IntegrityCheck   bool   `json:"integrity_check"`
	Error            string `json:"error,omitempty"`
}
