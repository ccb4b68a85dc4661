package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"recruitline/internal/conversation/service"
	dErrors "recruitline/pkg/domain-errors"
	txcontext "recruitline/pkg/platform/tx"
)

// admissionPostgresTx runs an admission in one PostgreSQL transaction. A
// transaction-scoped advisory lock keyed by the candidate id serializes
// admissions for the same candidate across server instances.
type admissionPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newAdmissionPostgresTx(db *sql.DB, timeout time.Duration) *admissionPostgresTx {
	return &admissionPostgresTx{db: db, timeout: timeout}
}

func (t *admissionPostgresTx) RunInTx(ctx context.Context, candidateID string, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = service.DefaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin admission tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, candidateID); err != nil {
		return fmt.Errorf("lock candidate: %w", err)
	}

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit admission tx: %w", err)
	}
	return nil
}
