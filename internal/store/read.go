package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

const transitionColumns = `seq, id, request_id, op, caller, args, outcome, code, message, result`

// ReadLedgerConfig returns the stored construction config.
func (s *Store) ReadLedgerConfig(ctx context.Context) (ledger.Config, error) {
	var (
		cfg       ledger.Config
		price     int64
		organizer string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT total_tickets, base_ticket_price, organizer
		FROM ledger_config WHERE id = 1
	`).Scan(&cfg.TotalTickets, &price, &organizer)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Config{}, ErrNotInitialized
	}
	if err != nil {
		return ledger.Config{}, fmt.Errorf("read ledger config: %w", err)
	}
	cfg.BaseTicketPrice = ledger.Amount(price)
	cfg.Organizer = ledger.Address(organizer)
	return cfg, nil
}

// ReadTransitions returns the whole log ordered by seq.
// Returns an empty slice (not nil) for an empty log.
func (s *Store) ReadTransitions(ctx context.Context) ([]ir.Transition, error) {
	return s.queryTransitions(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		ORDER BY seq ASC
	`)
}

// ReadTransitionsAfter returns transitions with seq > after, ordered by seq.
func (s *Store) ReadTransitionsAfter(ctx context.Context, after int64) ([]ir.Transition, error) {
	return s.queryTransitions(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		WHERE seq > ?
		ORDER BY seq ASC
	`, after)
}

// ReadTransitionsByCaller returns every transition submitted by caller.
func (s *Store) ReadTransitionsByCaller(ctx context.Context, caller string) ([]ir.Transition, error) {
	return s.queryTransitions(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		WHERE caller = ?
		ORDER BY seq ASC
	`, caller)
}

// ReadTransition returns the transition at seq, or ErrNotFound.
func (s *Store) ReadTransition(ctx context.Context, seq int64) (ir.Transition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		WHERE seq = ?
	`, seq)
	t, err := scanTransition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Transition{}, fmt.Errorf("transition seq=%d: %w", seq, ErrNotFound)
	}
	return t, err
}

// ReadTransitionByRequestID returns the transition created for requestID,
// or ErrNotFound.
func (s *Store) ReadTransitionByRequestID(ctx context.Context, requestID string) (ir.Transition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transitionColumns+`
		FROM transitions
		WHERE request_id = ?
		ORDER BY seq ASC
		LIMIT 1
	`, requestID)
	t, err := scanTransition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Transition{}, fmt.Errorf("transition request_id=%s: %w", requestID, ErrNotFound)
	}
	return t, err
}

// LastSeq returns the highest recorded seq, or 0 for an empty log.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM transitions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// Counts summarizes the log by outcome.
type Counts struct {
	Committed int64 `json:"committed"`
	Rejected  int64 `json:"rejected"`
}

// Total returns the number of transitions.
func (c Counts) Total() int64 {
	return c.Committed + c.Rejected
}

// CountTransitions returns how many transitions were committed and rejected.
func (s *Store) CountTransitions(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN outcome = 'committed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = 'rejected' THEN 1 ELSE 0 END), 0)
		FROM transitions
	`).Scan(&c.Committed, &c.Rejected)
	if err != nil {
		return Counts{}, fmt.Errorf("count transitions: %w", err)
	}
	return c, nil
}

func (s *Store) queryTransitions(ctx context.Context, query string, args ...any) ([]ir.Transition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	transitions := []ir.Transition{}
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return transitions, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransition(row scanner) (ir.Transition, error) {
	var (
		t                  ir.Transition
		op, outcome        string
		argsJSON, resultJS string
	)
	err := row.Scan(&t.Seq, &t.ID, &t.RequestID, &op, &t.Caller, &argsJSON, &outcome, &t.Code, &t.Message, &resultJS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Transition{}, err
		}
		return ir.Transition{}, fmt.Errorf("scan transition: %w", err)
	}

	t.Op = ir.Op(op)
	t.Outcome = ir.Outcome(outcome)
	if t.Args, err = unmarshalValues(argsJSON); err != nil {
		return ir.Transition{}, fmt.Errorf("transition seq=%d: %w", t.Seq, err)
	}
	if t.Result, err = unmarshalValues(resultJS); err != nil {
		return ir.Transition{}, fmt.Errorf("transition seq=%d: %w", t.Seq, err)
	}
	return t, nil
}
