package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/normgo/query/executor"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/runtime/registry"
)

// IsolationLevel represents transaction isolation levels
type IsolationLevel int

const (
	// ReadUncommitted allows dirty reads
	ReadUncommitted IsolationLevel = iota
	// ReadCommitted prevents dirty reads (default)
	ReadCommitted
	// RepeatableRead prevents dirty reads and non-repeatable reads
	RepeatableRead
	// Serializable prevents dirty reads, non-repeatable reads, and phantom reads
	Serializable
)

// ToSQLIsolationLevel converts IsolationLevel to sql.IsolationLevel
func (level IsolationLevel) ToSQLIsolationLevel() sql.IsolationLevel {
	switch level {
	case ReadUncommitted:
		return sql.LevelReadUncommitted
	case ReadCommitted:
		return sql.LevelReadCommitted
	case RepeatableRead:
		return sql.LevelRepeatableRead
	case Serializable:
		return sql.LevelSerializable
	default:
		return sql.LevelReadCommitted
	}
}

// NewTxOptions creates sql.TxOptions from isolation level
func NewTxOptions(isolation IsolationLevel, readOnly bool) *sql.TxOptions {
	return &sql.TxOptions{
		Isolation: isolation.ToSQLIsolationLevel(),
		ReadOnly:  readOnly,
	}
}

// Tx runs entity operations inside one transaction on one connection.
type Tx struct {
	client     *Client
	exec       *executor.Executor
	connection string
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(tx *Tx) error

// Transaction executes fn within a transaction on connection, or on the
// default connection when connection is empty. If fn returns an error or
// panics the transaction is rolled back, otherwise it is committed.
func (c *Client) Transaction(ctx context.Context, connection string, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, connection, nil, fn)
}

// TransactionWithOptions executes a transaction with custom options
func (c *Client) TransactionWithOptions(ctx context.Context, connection string, opts *sql.TxOptions, fn TransactionFunc) error {
	key := c.connectionKey(connection)
	e, err := c.open(key)
	if err != nil {
		return err
	}
	return e.Transaction(ctx, opts, func(txe *executor.Executor) error {
		return fn(&Tx{client: c, exec: txe, connection: key})
	})
}

// TransactionWithIsolation executes a transaction with a specific isolation level
func (c *Client) TransactionWithIsolation(ctx context.Context, connection string, isolation IsolationLevel, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, connection, NewTxOptions(isolation, false), fn)
}

// ReadOnlyTransaction executes a read-only transaction
func (c *Client) ReadOnlyTransaction(ctx context.Context, connection string, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, connection, &sql.TxOptions{ReadOnly: true}, fn)
}

// artifact looks up entity and checks it lives on the transaction's
// connection.
func (tx *Tx) artifact(entity any) (*registry.Artifact, error) {
	a, err := tx.client.registry.LookupValue(entity)
	if err != nil {
		return nil, err
	}
	if key := tx.client.connectionKey(a.Entity.Connection); key != tx.connection {
		return nil, fmt.Errorf("%s belongs to connection %s, transaction is on %s", a.Entity.Name, key, tx.connection)
	}
	return a, nil
}

// Insert writes entity within the transaction.
func (tx *Tx) Insert(ctx context.Context, entity any) error {
	a, err := tx.artifact(entity)
	if err != nil {
		return err
	}
	return tx.client.run(ctx, sqlgen.OpInsert, a, 1, func() error {
		return tx.exec.Insert(ctx, a, entity)
	})
}

// Update writes entity by primary key within the transaction.
func (tx *Tx) Update(ctx context.Context, entity any) (int64, error) {
	a, err := tx.artifact(entity)
	if err != nil {
		return 0, err
	}
	var n int64
	err = tx.client.run(ctx, sqlgen.OpUpdate, a, 1, func() error {
		n, err = tx.exec.Update(ctx, a, entity)
		return err
	})
	return n, err
}

// Delete removes or soft-deletes entity within the transaction.
func (tx *Tx) Delete(ctx context.Context, entity any) (int64, error) {
	a, err := tx.artifact(entity)
	if err != nil {
		return 0, err
	}
	var n int64
	err = tx.client.run(ctx, sqlgen.OpDelete, a, 1, func() error {
		n, err = tx.exec.Delete(ctx, a, entity)
		return err
	})
	return n, err
}

// InsertAll writes entities within the transaction. Commit and rollback
// stay with the transaction.
func (tx *Tx) InsertAll(ctx context.Context, entities any) error {
	items, err := elements(entities)
	if err != nil || len(items) == 0 {
		return err
	}
	a, err := tx.artifact(items[0])
	if err != nil {
		return err
	}
	return tx.client.run(ctx, sqlgen.OpInsert, a, len(items), func() error {
		return tx.exec.InsertAll(ctx, a, items)
	})
}
