package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/runtime/registry"
)

// InsertAll writes a homogeneous collection of entities with one prepared
// INSERT. When the entity has an identity column every element must be a
// pointer so generated identities can be assigned back; the batch is
// rejected before any connection is taken otherwise.
//
// On a plain executor the batch takes one connection and one transaction:
// any failure rolls the transaction back and nothing is committed, and on
// success it commits exactly once. On an executor bound to a transaction the
// batch joins that transaction and leaves commit or rollback to its owner.
func (e *Executor) InsertAll(ctx context.Context, a *registry.Artifact, entities []any) error {
	if len(entities) == 0 {
		return nil
	}
	for i, entity := range entities {
		if err := a.Plan.CheckIdentityTarget(entity); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	if e.tx != nil {
		return e.insertBatch(ctx, e.tx, a, entities)
	}

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return driverErr("connect", a.TableName(), err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return driverErr("begin transaction", a.TableName(), err)
	}
	e.logger.Debug("batch insert started", "table", a.TableName(), "size", len(entities))

	done := false
	defer func() {
		// Runs on error returns and panics alike.
		if done {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			e.logger.Error("batch rollback failed", "table", a.TableName(), "error", rbErr)
		} else {
			e.logger.Debug("batch insert rolled back", "table", a.TableName())
		}
	}()

	if err := e.insertBatch(ctx, tx, a, entities); err != nil {
		return err
	}

	done = true
	if err := tx.Commit(); err != nil {
		return driverErr("commit", a.TableName(), err)
	}
	e.logger.Debug("batch insert committed", "table", a.TableName(), "size", len(entities))
	return nil
}

func (e *Executor) insertBatch(ctx context.Context, tx *sql.Tx, a *registry.Artifact, entities []any) error {
	st := a.Statement(sqlgen.OpInsert)
	query, named := render(a, st)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return driverErr("prepare insert into", a.TableName(), err)
	}
	defer stmt.Close()

	var identity *sql.Stmt
	if st.IdentityQuery != "" && a.Plan.HasIdentity() {
		identity, err = tx.PrepareContext(ctx, st.IdentityQuery)
		if err != nil {
			return driverErr("prepare identity of", a.TableName(), err)
		}
		defer identity.Close()
	}

	for i, entity := range entities {
		values, err := args(a, entity, st, named)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return &DriverError{Op: "insert into", Table: a.TableName(), Index: i, Cause: err}
		}
		if identity == nil {
			continue
		}
		var raw any
		if err := identity.QueryRowContext(ctx).Scan(&raw); err != nil {
			return &DriverError{Op: "identity of", Table: a.TableName(), Index: i, Cause: err}
		}
		if err := a.Plan.SetIdentity(entity, raw); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}
