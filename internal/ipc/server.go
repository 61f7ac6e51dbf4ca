package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"shuttle/internal/daemon"
	"shuttle/internal/logging"
	"shuttle/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Shuttle", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun shuttle stop"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.Pong = true
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via socket",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.daemon.RequestShutdown()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Condition = status.Condition
	resp.Phase = string(status.Health.Phase)
	resp.RunID = status.Health.RunID
	resp.CycleID = status.Health.CycleID
	resp.ConsecutiveFailures = status.Health.ConsecutiveFailures
	resp.LastError = status.Health.LastError
	resp.BaselineFiles = status.Health.BaselineFiles
	resp.LastSyncSummary = status.Health.LastSyncSummary
	resp.Root = status.Root
	resp.RemoteKind = status.RemoteKind
	resp.IntervalSeconds = int(status.Interval / time.Second)
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockPath
	resp.LogPath = status.LogPath
	if status.LastSync != nil {
		resp.LastSync = &LastSync{
			CycleID:    status.LastSync.CycleID,
			FinishedAt: status.LastSync.FinishedAt.UTC().Format(time.RFC3339),
			Added:      status.LastSync.Added,
			Modified:   status.LastSync.Modified,
			Removed:    status.LastSync.Removed,
			Pushed:     status.LastSync.Pushed,
			Failed:     status.LastSync.Failed,
			Outcome:    string(status.LastSync.Outcome),
			Error:      status.LastSync.Error,
		}
	}
	return nil
}

func (s *service) SyncNow(_ SyncNowRequest, resp *SyncNowResponse) error {
	s.logger.Debug("immediate sync requested")
	if err := s.daemon.TriggerSync(); err != nil {
		resp.Triggered = false
		resp.Message = err.Error()
		return nil
	}
	resp.Triggered = true
	s.logger.Info("sync triggered via socket",
		logging.String(logging.FieldEventType, "sync_trigger"))
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	records, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = make([]HistoryEntry, 0, len(records))
	for _, record := range records {
		resp.Entries = append(resp.Entries, HistoryEntryFromRecord(record))
	}
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.TableExists = health.TableExists
	resp.TotalFiles = health.TotalFiles
	resp.IntegrityCheck = health.IntegrityCheck
	resp.Error = health.Error
	if err != nil && health.Error == "" {
		return err
	}
	return nil
}
