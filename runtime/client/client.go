// Package client is the runtime entry point: it owns the registry, opens one
// database per configured connection and routes entity operations to the
// connection each entity type names.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/satishbabariya/normgo/config"
	"github.com/satishbabariya/normgo/internal/debug"
	"github.com/satishbabariya/normgo/query/executor"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/runtime/binding"
	"github.com/satishbabariya/normgo/runtime/registry"
)

// Client is the main database client
type Client struct {
	cfg      *config.Config
	registry *registry.Registry
	logger   *slog.Logger

	mu    sync.Mutex
	dbs   map[string]*sql.DB
	execs map[string]*executor.Executor
	owned map[string]bool

	middlewares []Middleware
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	converters map[string]binding.Converter
	logger     *slog.Logger
}

// WithConverter registers a named converter for entity columns.
func WithConverter(name string, fn binding.Converter) Option {
	return func(o *clientOptions) {
		o.converters[name] = fn
	}
}

// WithLogger sets the logger used by the client and its registry.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// New creates a client for cfg and registers the entity types among
// prototypes. Databases are opened lazily on first use.
func New(cfg *config.Config, prototypes []any, opts ...Option) (*Client, error) {
	o := &clientOptions{converters: make(map[string]binding.Converter)}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = debug.Logger()
	}

	regOpts := []registry.Option{
		registry.WithStrictKeys(cfg.StrictKeys),
		registry.WithLogger(o.logger),
	}
	if def, err := cfg.Resolve(""); err == nil {
		d, err := sqlgen.DialectFor(def.Provider)
		if err != nil {
			return nil, err
		}
		regOpts = append(regOpts, registry.WithDialect(d))
	} else if cfg.Dialect != "" {
		d, err := sqlgen.DialectFor(cfg.Dialect)
		if err != nil {
			return nil, err
		}
		regOpts = append(regOpts, registry.WithDialect(d))
	}
	for _, id := range cfg.ConnectionIDs() {
		conn, _ := cfg.Resolve(id)
		d, err := sqlgen.DialectFor(conn.Provider)
		if err != nil {
			return nil, fmt.Errorf("connection %s: %w", id, err)
		}
		regOpts = append(regOpts, registry.WithConnectionDialect(id, d))
	}
	for name, fn := range o.converters {
		regOpts = append(regOpts, registry.WithConverter(name, fn))
	}

	reg := registry.New(regOpts...)
	if err := reg.Populate(prototypes...); err != nil {
		return nil, err
	}
	return NewWithRegistry(cfg, reg, o.logger), nil
}

// NewWithRegistry creates a client over an already populated registry.
func NewWithRegistry(cfg *config.Config, reg *registry.Registry, logger *slog.Logger) *Client {
	if logger == nil {
		logger = debug.Logger()
	}
	return &Client{
		cfg:      cfg,
		registry: reg,
		logger:   logger,
		dbs:      make(map[string]*sql.DB),
		execs:    make(map[string]*executor.Executor),
		owned:    make(map[string]bool),
	}
}

// Attach binds an open database to a connection id. The client does not
// close attached databases.
func (c *Client) Attach(connection string, db *sql.DB) {
	key := c.connectionKey(connection)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dbs[key] = db
	c.execs[key] = executor.NewExecutor(db).WithLogger(c.logger)
	c.owned[key] = false
}

// Registry returns the client's registry.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

func (c *Client) connectionKey(connection string) string {
	if connection == "" {
		return c.cfg.DefaultConnection
	}
	return strings.ToLower(connection)
}

// executor returns the executor for the connection the artifact names.
func (c *Client) executor(a *registry.Artifact) (*executor.Executor, error) {
	return c.open(c.connectionKey(a.Entity.Connection))
}

// open returns the executor for a connection key, opening its database on
// first use.
func (c *Client) open(key string) (*executor.Executor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.execs[key]; ok {
		return e, nil
	}

	conn, err := c.cfg.Resolve(key)
	if err != nil {
		return nil, err
	}
	d, err := sqlgen.DialectFor(conn.Provider)
	if err != nil {
		return nil, err
	}
	if d.Driver == "" {
		return nil, fmt.Errorf("connection %s: no driver linked for provider %q", key, conn.Provider)
	}
	db, err := sql.Open(d.Driver, conn.URL)
	if err != nil {
		return nil, fmt.Errorf("connection %s: %w", key, err)
	}
	c.logger.Debug("opened connection", "connection", key, "driver", d.Driver)

	e := executor.NewExecutor(db).WithLogger(c.logger)
	c.dbs[key] = db
	c.execs[key] = e
	c.owned[key] = true
	return e, nil
}

func (c *Client) route(entity any) (*registry.Artifact, *executor.Executor, error) {
	a, err := c.registry.LookupValue(entity)
	if err != nil {
		return nil, nil, err
	}
	e, err := c.executor(a)
	if err != nil {
		return nil, nil, err
	}
	return a, e, nil
}

// Connect pings every configured connection.
func (c *Client) Connect(ctx context.Context) error {
	for _, a := range c.registry.Artifacts() {
		if _, err := c.executor(a); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, db := range c.dbs {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("connection %s: %w", key, err)
		}
	}
	return nil
}

// Close releases cached statements and closes the databases the client
// opened itself.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for key, e := range c.execs {
		e.ClearStmtCache()
		if c.owned[key] {
			if err := c.dbs[key].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	c.execs = make(map[string]*executor.Executor)
	c.dbs = make(map[string]*sql.DB)
	c.owned = make(map[string]bool)
	return firstErr
}

// Insert writes entity and assigns its generated identity.
func (c *Client) Insert(ctx context.Context, entity any) error {
	a, e, err := c.route(entity)
	if err != nil {
		return err
	}
	return c.run(ctx, sqlgen.OpInsert, a, 1, func() error {
		return e.Insert(ctx, a, entity)
	})
}

// Update writes entity by primary key and returns the rows affected.
func (c *Client) Update(ctx context.Context, entity any) (int64, error) {
	a, e, err := c.route(entity)
	if err != nil {
		return 0, err
	}
	var n int64
	err = c.run(ctx, sqlgen.OpUpdate, a, 1, func() error {
		n, err = e.Update(ctx, a, entity)
		return err
	})
	return n, err
}

// Delete removes entity, or marks it deleted for soft-delete types.
func (c *Client) Delete(ctx context.Context, entity any) (int64, error) {
	a, e, err := c.route(entity)
	if err != nil {
		return 0, err
	}
	var n int64
	err = c.run(ctx, sqlgen.OpDelete, a, 1, func() error {
		n, err = e.Delete(ctx, a, entity)
		return err
	})
	return n, err
}

// InsertAll writes entities in one transaction. entities is a slice of one
// entity type, either pointers or values; elements of a value slice are
// written through their addresses so identities land in the slice.
func (c *Client) InsertAll(ctx context.Context, entities any) error {
	items, err := elements(entities)
	if err != nil || len(items) == 0 {
		return err
	}
	a, e, err := c.route(items[0])
	if err != nil {
		return err
	}
	return c.run(ctx, sqlgen.OpInsert, a, len(items), func() error {
		return e.InsertAll(ctx, a, items)
	})
}

// FindAll reads every row of T's table.
func FindAll[T any](ctx context.Context, c *Client) ([]*T, error) {
	a, err := registry.LookupOf[T](c.registry)
	if err != nil {
		return nil, err
	}
	e, err := c.executor(a)
	if err != nil {
		return nil, err
	}

	var rows []any
	err = c.run(ctx, sqlgen.OpSelect, a, 0, func() error {
		rows, err = e.Select(ctx, a)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]*T, len(rows))
	for i, v := range rows {
		out[i] = v.(*T)
	}
	return out, nil
}

// FindAllRows reads every row of the prototype's table as materialized rows.
func (c *Client) FindAllRows(ctx context.Context, prototype any) ([]binding.Row, error) {
	a, e, err := c.route(prototype)
	if err != nil {
		return nil, err
	}
	var rows []binding.Row
	err = c.run(ctx, sqlgen.OpSelect, a, 0, func() error {
		rows, err = e.SelectRows(ctx, a)
		return err
	})
	return rows, err
}

// elements flattens a slice of entities, checking it holds a single type.
func elements(entities any) ([]any, error) {
	if items, ok := entities.([]any); ok {
		return sameType(items)
	}
	v := reflect.ValueOf(entities)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("insert all: expected a slice, got %T", entities)
	}
	items := make([]any, v.Len())
	for i := range items {
		el := v.Index(i)
		if el.Kind() == reflect.Struct {
			el = el.Addr()
		}
		items[i] = el.Interface()
	}
	return sameType(items)
}

func sameType(items []any) ([]any, error) {
	for i := 1; i < len(items); i++ {
		if reflect.TypeOf(items[i]) != reflect.TypeOf(items[0]) {
			return nil, fmt.Errorf("insert all: element %d is %T, want %T", i, items[i], items[0])
		}
	}
	return items, nil
}
