package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/boxoffice/internal/ir"
	"github.com/roach88/boxoffice/internal/ledger"
)

// InitLedger stores the construction config. Calling it again with an equal
// config is a no-op; a different config returns ErrAlreadyInitialized.
func (s *Store) InitLedger(ctx context.Context, cfg ledger.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	if cfg.Organizer == "" {
		cfg.Organizer = ledger.DefaultOrganizer
	}

	hash, err := ir.ConfigHash(cfg.TotalTickets, int64(cfg.BaseTicketPrice), string(cfg.Organizer))
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init ledger: begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT config_hash FROM ledger_config WHERE id = 1`).Scan(&existing)
	switch {
	case err == nil:
		if existing != hash {
			return ErrAlreadyInitialized
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("init ledger: read config: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_config
		(id, total_tickets, base_ticket_price, organizer, config_hash, engine_version, record_version)
		VALUES (1, ?, ?, ?, ?, ?, ?)
	`,
		cfg.TotalTickets,
		int64(cfg.BaseTicketPrice),
		string(cfg.Organizer),
		hash,
		ir.EngineVersion,
		ir.RecordVersion,
	)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init ledger: commit: %w", err)
	}
	return nil
}

// AppendTransition inserts t at the end of the log. Unlike the config row
// there is no ON CONFLICT clause: a duplicate seq or id means two writers
// raced or the clock went backwards, and must surface as an error.
func (s *Store) AppendTransition(ctx context.Context, t ir.Transition) error {
	if t.ID == "" {
		return fmt.Errorf("append transition: empty id at seq %d", t.Seq)
	}

	argsJSON, err := marshalValues(t.Args)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	resultJSON, err := marshalValues(t.Result)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transitions
		(seq, id, request_id, op, caller, args, outcome, code, message, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.Seq,
		t.ID,
		t.RequestID,
		string(t.Op),
		t.Caller,
		argsJSON,
		string(t.Outcome),
		t.Code,
		t.Message,
		resultJSON,
	)
	if err != nil {
		return fmt.Errorf("append transition seq=%d: %w", t.Seq, err)
	}
	return nil
}
