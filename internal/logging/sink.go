package logging

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SinkOptions configure the rotating daemon log sink.
type SinkOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// FileSink writes to a size-capped, rotated log file and additionally forces a
// rotation on the first write of each UTC calendar day so every day starts a
// fresh file.
type FileSink struct {
	mu  sync.Mutex
	lj  *lumberjack.Logger
	day string
	now func() time.Time
}

// NewFileSink builds the daemon log sink. The parent directory is created if
// missing so the first write does not fail on a fresh install.
func NewFileSink(opts SinkOptions) (*FileSink, error) {
	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   false,
	}
	return &FileSink{lj: lj, now: time.Now}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := s.now().UTC().Format(time.DateOnly)
	switch {
	case s.day == "":
		s.day = day
	case day != s.day:
		if err := s.lj.Rotate(); err == nil {
			s.day = day
		}
	}
	return s.lj.Write(p)
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lj.Close()
}

// Path returns the active log file location.
func (s *FileSink) Path() string {
	return s.lj.Filename
}
