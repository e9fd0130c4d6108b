// Package executor runs synthesized statements against a database and binds
// the results through compiled plans.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/satishbabariya/normgo/internal/debug"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/runtime/binding"
	"github.com/satishbabariya/normgo/runtime/registry"
)

// querier is the statement surface shared by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type stmtCache struct {
	mu    sync.RWMutex
	stmts map[string]*sql.Stmt
}

// Executor executes entity statements
type Executor struct {
	db     *sql.DB
	tx     *sql.Tx
	cache  *stmtCache
	logger *slog.Logger
}

// NewExecutor creates a new executor over db
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{
		db:     db,
		cache:  &stmtCache{stmts: make(map[string]*sql.Stmt)},
		logger: debug.Logger(),
	}
}

// WithLogger returns a copy of the executor that logs to l.
func (e *Executor) WithLogger(l *slog.Logger) *Executor {
	cp := *e
	cp.logger = l
	return &cp
}

func (e *Executor) q() querier {
	if e.tx != nil {
		return e.tx
	}
	return e.db
}

// getCachedStmt gets a cached prepared statement or creates a new one. In a
// transaction the cached statement is rebound to the transaction and must be
// closed by the caller.
func (e *Executor) getCachedStmt(ctx context.Context, query string) (*sql.Stmt, func(), error) {
	e.cache.mu.RLock()
	stmt, ok := e.cache.stmts[query]
	e.cache.mu.RUnlock()

	if !ok || stmt == nil {
		var err error
		stmt, err = e.db.PrepareContext(ctx, query)
		if err != nil {
			return nil, nil, driverErr("prepare", "", err)
		}
		e.cache.mu.Lock()
		if existing, ok := e.cache.stmts[query]; ok {
			stmt.Close()
			stmt = existing
		} else {
			e.cache.stmts[query] = stmt
		}
		e.cache.mu.Unlock()
	}

	if e.tx != nil {
		txStmt := e.tx.StmtContext(ctx, stmt)
		return txStmt, func() { txStmt.Close() }, nil
	}
	return stmt, func() {}, nil
}

// ClearStmtCache closes and forgets all prepared statements
func (e *Executor) ClearStmtCache() {
	e.cache.mu.Lock()
	defer e.cache.mu.Unlock()

	for _, stmt := range e.cache.stmts {
		stmt.Close()
	}
	e.cache.stmts = make(map[string]*sql.Stmt)
}

// render picks the statement text and argument form for the artifact's
// dialect: @Column placeholders with sql.Named arguments where the driver
// supports them, rebound positional placeholders otherwise.
func render(a *registry.Artifact, st *sqlgen.Statement) (string, bool) {
	if a.Dialect.NamedParams && len(st.Params) > 0 {
		return st.NamedCore(), true
	}
	return a.Dialect.Rebind(st.Core), false
}

func args(a *registry.Artifact, entity any, st *sqlgen.Statement, named bool) ([]any, error) {
	if named {
		return a.Plan.NamedArgs(entity, st.Params)
	}
	return a.Plan.Args(entity, st.Params)
}

// Insert writes one entity. When the entity has an identity column the
// generated value is read back on the same connection and assigned to it,
// so entity must then be a pointer; anything else is rejected before the
// statement runs.
func (e *Executor) Insert(ctx context.Context, a *registry.Artifact, entity any) error {
	if err := a.Plan.CheckIdentityTarget(entity); err != nil {
		return err
	}
	st := a.Statement(sqlgen.OpInsert)
	query, named := render(a, st)
	values, err := args(a, entity, st, named)
	if err != nil {
		return err
	}

	var q querier = e.tx
	if e.tx == nil {
		conn, err := e.db.Conn(ctx)
		if err != nil {
			return driverErr("connect", a.TableName(), err)
		}
		defer conn.Close()
		q = conn
	}

	e.logger.Debug("executing insert", "table", a.TableName(), "sql", query)
	if _, err := q.ExecContext(ctx, query, values...); err != nil {
		return driverErr("insert into", a.TableName(), err)
	}
	if st.IdentityQuery == "" || !a.Plan.HasIdentity() {
		return nil
	}
	var raw any
	if err := q.QueryRowContext(ctx, st.IdentityQuery).Scan(&raw); err != nil {
		return driverErr("identity of", a.TableName(), err)
	}
	return a.Plan.SetIdentity(entity, raw)
}

func (e *Executor) exec(ctx context.Context, a *registry.Artifact, op sqlgen.Op, entity any) (int64, error) {
	st := a.Statement(op)
	query, named := render(a, st)
	values, err := args(a, entity, st, named)
	if err != nil {
		return 0, err
	}

	stmt, release, err := e.getCachedStmt(ctx, query)
	if err != nil {
		return 0, err
	}
	defer release()

	e.logger.Debug("executing statement", "op", op.String(), "table", a.TableName(), "sql", query)
	res, err := stmt.ExecContext(ctx, values...)
	if err != nil {
		return 0, driverErr(op.String(), a.TableName(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, driverErr(op.String(), a.TableName(), err)
	}
	return n, nil
}

// Update writes every settable column of entity, matched by primary key.
// It returns the number of rows affected.
func (e *Executor) Update(ctx context.Context, a *registry.Artifact, entity any) (int64, error) {
	return e.exec(ctx, a, sqlgen.OpUpdate, entity)
}

// Delete removes entity, or marks it deleted for soft-delete types. It
// returns the number of rows affected.
func (e *Executor) Delete(ctx context.Context, a *registry.Artifact, entity any) (int64, error) {
	return e.exec(ctx, a, sqlgen.OpDelete, entity)
}

// Select reads every row of the artifact's table through the forward
// reader routine. Elements are pointers to new entities.
func (e *Executor) Select(ctx context.Context, a *registry.Artifact) ([]any, error) {
	rows, err := e.q().QueryContext(ctx, a.Statement(sqlgen.OpSelect).Text)
	if err != nil {
		return nil, driverErr("select from", a.TableName(), err)
	}
	defer rows.Close()

	cur, err := a.Plan.Cursor(rows)
	if err != nil {
		return nil, err
	}
	var out []any
	for cur.Next() {
		v, err := cur.Bind(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := cur.Err(); err != nil {
		return nil, driverErr("select from", a.TableName(), err)
	}
	return out, nil
}

// SelectRows reads every row of the artifact's table as materialized rows.
func (e *Executor) SelectRows(ctx context.Context, a *registry.Artifact) ([]binding.Row, error) {
	rows, err := e.q().QueryContext(ctx, a.Statement(sqlgen.OpSelect).Text)
	if err != nil {
		return nil, driverErr("select from", a.TableName(), err)
	}
	defer rows.Close()

	out, err := binding.Materialize(rows)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", a.TableName(), err)
	}
	return out, nil
}
