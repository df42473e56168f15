package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/phrazzld/taskhub/internal/redact"
)

// TxFn runs inside a transaction. Returning an error rolls the transaction back.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// TxBeginner is implemented by *sql.DB.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// RunInTransaction runs fn in a transaction and commits it when fn returns
// nil. An error from fn is returned unchanged after rollback. A panic in fn
// rolls back and is re-raised.
//
// Fan-out writes such as one notification per administrator go through here
// so a failure leaves no partial set of records behind.
func RunInTransaction(ctx context.Context, db TxBeginner, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", redact.Err(err))
		return fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback after panic failed", redact.Err(rbErr), "panic", p)
		} else {
			log.Error("rolled back after panic", "panic", p)
		}
		panic(p)
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed", redact.Err(rbErr), "cause", redact.Error(err))
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		log.Debug("transaction rolled back", redact.Err(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", redact.Err(err))
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}
	return nil
}
