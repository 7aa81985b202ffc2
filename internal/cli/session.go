package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/boxoffice/internal/engine"
	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
	"github.com/roach88/boxoffice/internal/store"
)

// session is an opened database with the ledger rebuilt from its log and,
// for writers, a running engine appending to it.
type session struct {
	store   *store.Store
	ledger  *ledger.Ledger
	lastSeq int64
	engine  *engine.Engine
	cancel  context.CancelFunc
	done    chan error
	logger  *slog.Logger
}

// openSession opens dbPath and replays it. The database must exist and
// have been initialized.
func openSession(ctx context.Context, dbPath string, logger *slog.Logger) (*session, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	res, err := engine.Replay(ctx, st)
	if err != nil {
		st.Close()
		if errors.Is(err, store.ErrNotInitialized) {
			return nil, WrapExitError(ExitCommandError, "database has no ledger (run init first)", err)
		}
		var replayErr *engine.ReplayError
		if errors.As(err, &replayErr) {
			return nil, WrapExitError(ExitFailure, "log does not replay", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to replay log", err)
	}
	logger.Debug("log replayed", "db", dbPath, "last_seq", res.LastSeq, "sold", res.Ledger.Sold())

	return &session{
		store:   st,
		ledger:  res.Ledger,
		lastSeq: res.LastSeq,
		logger:  logger,
	}, nil
}

// start launches an engine resuming after the replayed seq.
func (s *session) start(ctx context.Context, opts ...engine.Option) {
	base := []engine.Option{
		engine.WithRecorder(s.store),
		engine.WithSequencer(engine.NewClockAt(s.lastSeq)),
		engine.WithRequestIDs(engine.UUIDv7Generator{}),
		engine.WithLogger(s.logger),
	}
	s.engine = engine.New(s.ledger, append(base, opts...)...)

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() { s.done <- s.engine.Run(runCtx) }()
}

// submit applies one command through the running engine.
func (s *session) submit(ctx context.Context, cmd ir.Command) (ir.Receipt, error) {
	if s.engine == nil {
		return ir.Receipt{}, fmt.Errorf("session not started")
	}
	return s.engine.Submit(ctx, cmd)
}

// Close stops the engine, if any, and closes the store.
func (s *session) Close() error {
	if s.engine != nil {
		s.engine.Stop()
		if err := <-s.done; err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("engine stopped with error", "error", err)
		}
		s.cancel()
	}
	return s.store.Close()
}
