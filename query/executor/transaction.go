package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// TxFunc runs inside a transaction with an executor bound to it.
type TxFunc func(tx *Executor) error

// Transaction executes fn within a database transaction.
// If fn returns an error or panics, the transaction is rolled back.
// Otherwise, the transaction is committed.
func (e *Executor) Transaction(ctx context.Context, opts *sql.TxOptions, fn TxFunc) error {
	if e.tx != nil {
		// Already inside a transaction: join it.
		return fn(e)
	}

	sqlTx, err := e.db.BeginTx(ctx, opts)
	if err != nil {
		return driverErr("begin transaction", "", err)
	}

	txe := *e
	txe.tx = sqlTx

	// Defer rollback in case of panic
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txe); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return driverErr("commit", "", fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// InTransaction reports whether the executor is bound to a transaction.
func (e *Executor) InTransaction() bool {
	return e.tx != nil
}
