package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

// Recorder persists applied transitions. *store.Store implements it.
type Recorder interface {
	AppendTransition(ctx context.Context, t ir.Transition) error
}

// Engine is the single-writer submission loop in front of a Ledger.
//
// Thread-safety model:
//   - Submit, Stop, Ledger: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	ledger   *ledger.Ledger
	clock    Sequencer
	recorder Recorder
	ids      RequestIDGenerator
	metrics  *Metrics
	logger   *slog.Logger
	queue    *commandQueue

	mu      sync.Mutex
	haltErr error
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets where transitions are appended. Without one the engine
// keeps no log.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithSequencer replaces the default clock starting at 0.
// Use NewClockAt(lastSeq) after Replay.
func WithSequencer(s Sequencer) Option {
	return func(e *Engine) {
		e.clock = s
	}
}

// WithRequestIDs sets the generator for commands submitted without a
// request id. The default is UUIDv7Generator.
func WithRequestIDs(g RequestIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine that applies commands to l.
func New(l *ledger.Ledger, opts ...Option) *Engine {
	e := &Engine{
		ledger: l,
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
		queue:  newCommandQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metrics.setSold(l.Sold())
	return e
}

// Ledger returns the ledger for read-only queries.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Seq returns the seq of the last applied transition.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// QueueLen returns the number of commands waiting to be applied.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Submit queues cmd and waits until the Run loop has applied it.
//
// A rejected command returns its receipt together with the
// *ledger.Rejection, so callers can both report the recorded seq and match
// errors.Is(err, ledger.ErrAlreadySold). Infrastructure failures return an
// *EngineError and an empty receipt.
//
// If ctx ends first Submit returns ctx.Err(); the command may still be
// applied later.
func (e *Engine) Submit(ctx context.Context, cmd ir.Command) (ir.Receipt, error) {
	if err := e.halted(); err != nil {
		return ir.Receipt{}, err
	}
	if !cmd.Op.Valid() {
		return ir.Receipt{}, &EngineError{
			Code:      ErrCodeInvalidCommand,
			Message:   "unknown op " + string(cmd.Op),
			RequestID: cmd.RequestID,
		}
	}
	if cmd.RequestID == "" {
		cmd.RequestID = e.ids.Generate()
	}

	s := &submission{cmd: cmd, reply: make(chan outcome, 1)}
	if !e.queue.Enqueue(s) {
		return ir.Receipt{}, ErrStopped
	}
	e.metrics.setQueueDepth(e.queue.Len())

	select {
	case <-ctx.Done():
		return ir.Receipt{}, ctx.Err()
	case out := <-s.reply:
		if out.err != nil {
			return ir.Receipt{}, out.err
		}
		return out.transition.Receipt(), out.rejection
	}
}

// Run applies queued commands until ctx is cancelled or Stop is called.
// Returns ctx.Err() on cancellation and nil after Stop. Submissions still
// queued when Run returns fail with ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "seq", e.clock.Current(), "sold", e.ledger.Sold())

	for {
		if s, ok := e.queue.TryDequeue(); ok {
			e.process(ctx, s)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.drain()
			return ctx.Err()

		case <-e.queue.Wait():
			// A stale signal can arrive after its item was already taken,
			// so only a closed queue ends the loop.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Commands not yet applied and later Submits fail
// with ErrStopped; Run returns once it notices.
func (e *Engine) Stop() {
	e.drain()
}

func (e *Engine) drain() {
	for _, s := range e.queue.Close() {
		s.reply <- outcome{err: ErrStopped}
	}
}

func (e *Engine) halted() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.haltErr
}

func (e *Engine) halt(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.haltErr == nil {
		e.haltErr = err
	}
}

// process applies one submission. Called only from the Run goroutine.
func (e *Engine) process(ctx context.Context, s *submission) {
	e.metrics.setQueueDepth(e.queue.Len())

	if err := e.halted(); err != nil {
		s.reply <- outcome{err: err}
		return
	}

	start := time.Now()
	seq := e.clock.Next()
	log := e.logger.With("seq", seq, "op", s.cmd.Op, "request_id", s.cmd.RequestID)

	t, rejection, err := Apply(e.ledger, seq, s.cmd)
	if err != nil {
		log.Error("apply failed", "error", err)
		s.reply <- outcome{err: err}
		return
	}

	if e.recorder != nil {
		if err := e.recorder.AppendTransition(ctx, t); err != nil {
			e.halt(&EngineError{
				Code:    ErrCodeHalted,
				Message: "a transition could not be recorded",
				Seq:     seq,
				Err:     err,
			})
			log.Error("record failed, engine halted", "error", err, "outcome", t.Outcome)
			s.reply <- outcome{err: &EngineError{
				Code:      ErrCodeRecordFailed,
				Message:   "append transition",
				Seq:       seq,
				RequestID: s.cmd.RequestID,
				Err:       err,
			}}
			return
		}
	}

	e.metrics.observe(t, time.Since(start), e.ledger.Sold())
	if rejection != nil {
		log.Debug("transition rejected", "caller", t.Caller, "code", t.Code, "message", t.Message)
	} else {
		log.Debug("transition committed", "caller", t.Caller, "id", t.ID)
	}

	s.reply <- outcome{transition: t, rejection: rejection}
}
