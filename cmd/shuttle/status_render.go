package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"shuttle/internal/baseline"
	"shuttle/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// renderStatus lays out the snapshot as labelled sections. The snapshot is
// complete whether it came from the live daemon or the offline fallback, so
// the renderer never dials anything itself.
func renderStatus(s *ipc.StatusResponse, socketPath string, colorize bool) []string {
	lines := renderSectionHeader("Daemon", colorize)
	if s.Running {
		lines = append(lines, renderStatusLine("Shuttle", statusOK, fmt.Sprintf("Running (pid %d)", s.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Shuttle", statusError, "Not running", colorize))
	}
	lines = append(lines, renderStatusLine("Condition", conditionKind(s.Condition), s.Condition, colorize))
	if s.Running {
		if s.Phase != "" {
			lines = append(lines, renderStatusLine("Phase", statusInfo, s.Phase, colorize))
		}
		if s.RunID != "" {
			lines = append(lines, renderStatusLine("Run ID", statusInfo, s.RunID, colorize))
		}
	}
	if s.ConsecutiveFailures > 0 {
		lines = append(lines, renderStatusLine("Failures", statusWarn, fmt.Sprintf("%d consecutive", s.ConsecutiveFailures), colorize))
	}
	if s.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, s.LastError, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Sync", colorize)...)
	lines = append(lines, renderStatusLine("Root", statusInfo, s.Root, colorize))
	lines = append(lines, renderStatusLine("Remote", statusInfo, s.RemoteKind, colorize))
	lines = append(lines, renderStatusLine("Interval", statusInfo, fmt.Sprintf("%ds", s.IntervalSeconds), colorize))
	lines = append(lines, renderStatusLine("Baseline files", statusInfo, strconv.Itoa(s.BaselineFiles), colorize))
	lines = append(lines, lastSyncLine(s, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Paths", colorize)...)
	lines = append(lines, renderStatusLine("Database", statusInfo, s.DBPath, colorize))
	lines = append(lines, renderStatusLine("Lock", statusInfo, s.LockPath, colorize))
	lines = append(lines, renderStatusLine("Log", statusInfo, s.LogPath, colorize))
	if socketPath != "" {
		lines = append(lines, renderStatusLine("Socket", statusInfo, socketPath, colorize))
	}
	return lines
}

func lastSyncLine(s *ipc.StatusResponse, colorize bool) string {
	if s.LastSync != nil {
		kind := statusOK
		switch baseline.Outcome(s.LastSync.Outcome) {
		case baseline.OutcomePartial:
			kind = statusWarn
		case baseline.OutcomeFailed:
			kind = statusError
		}
		detail := fmt.Sprintf("%s at %s (%d added, %d modified, %d removed, %d pushed)",
			s.LastSync.Outcome, s.LastSync.FinishedAt,
			s.LastSync.Added, s.LastSync.Modified, s.LastSync.Removed, s.LastSync.Pushed)
		return renderStatusLine("Last sync", kind, detail, colorize)
	}
	if s.LastSyncSummary != "" {
		return renderStatusLine("Last sync", statusInfo, s.LastSyncSummary, colorize)
	}
	return renderStatusLine("Last sync", statusInfo, "never", colorize)
}

func conditionKind(condition string) statusKind {
	switch condition {
	case "running":
		return statusOK
	case "degraded":
		return statusWarn
	case "stalled":
		return statusError
	default:
		return statusInfo
	}
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
