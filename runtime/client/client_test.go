package client

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/normgo/config"
	"github.com/satishbabariya/normgo/mapping"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/runtime/binding"
	"github.com/satishbabariya/normgo/runtime/registry"
)

type Customer struct {
	mapping.Entity `norm:"table:Customers,connection:main,softdelete"`
	Id             int32  `norm:"Id,pk,identity"`
	Name           string `norm:"Name,size:50"`
	DeletedFlag    int32  `norm:"DeletedFlag,softdelete:1"`
}

type Event struct {
	mapping.Entity `norm:"table:Events,connection:audit"`
	Id             int64     `norm:"Id,pk,identity"`
	Message        string    `norm:"Message"`
	At             time.Time `norm:"At"`
}

type Orphan struct {
	mapping.Entity `norm:"table:Orphans,connection:archive"`
	Id             int64 `norm:"Id,pk"`
}

func openSchema(t *testing.T, path string, ddl string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(ddl)
	require.NoError(t, err)
}

func newClient(t *testing.T) *Client {
	t.Helper()
	dir := t.TempDir()
	mainDB := filepath.Join(dir, "main.db")
	auditDB := filepath.Join(dir, "audit.db")
	openSchema(t, mainDB, `CREATE TABLE Customers (Id INTEGER PRIMARY KEY AUTOINCREMENT, Name TEXT NOT NULL UNIQUE, DeletedFlag INTEGER NOT NULL DEFAULT 0)`)
	openSchema(t, auditDB, `CREATE TABLE Events (Id INTEGER PRIMARY KEY AUTOINCREMENT, Message TEXT NOT NULL, At TIMESTAMP NOT NULL)`)

	cfg := &config.Config{
		DefaultConnection: "main",
		Connections: map[string]config.Connection{
			"main":  {Provider: "sqlite", URL: mainDB},
			"audit": {Provider: "sqlite", URL: auditDB},
		},
	}
	c, err := New(cfg, []any{Customer{}, Event{}, Orphan{}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientRoutesByConnection(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	cust := &Customer{Name: "ada"}
	require.NoError(t, c.Insert(ctx, cust))
	assert.Equal(t, int32(1), cust.Id)

	ev := &Event{Message: "created", At: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, c.Insert(ctx, ev))
	assert.Equal(t, int64(1), ev.Id)

	customers, err := FindAll[Customer](ctx, c)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "ada", customers[0].Name)

	events, err := FindAll[Event](ctx, c)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, ev.At.Equal(events[0].At))

	a, err := c.Registry().LookupValue(ev)
	require.NoError(t, err)
	assert.Equal(t, sqlgen.SQLite.Name, a.Dialect.Name)
}

func TestClientUpdateDeleteAndRows(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	cust := &Customer{Name: "brian"}
	require.NoError(t, c.Insert(ctx, cust))

	cust.Name = "brian k"
	n, err := c.Update(ctx, cust)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Delete(ctx, cust)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := c.FindAllRows(ctx, Customer{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	flag, ok := rows[0].Value("DeletedFlag")
	require.True(t, ok)
	assert.EqualValues(t, 1, flag)
	name, ok := rows[0].Value("name")
	require.True(t, ok)
	assert.Equal(t, "brian k", name)
}

func TestClientInsertAll(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	batch := []*Customer{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	require.NoError(t, c.InsertAll(ctx, batch))
	for i, cust := range batch {
		assert.Equal(t, int32(i+1), cust.Id)
	}

	err := c.InsertAll(ctx, []any{&Customer{Name: "d"}, &Event{Message: "x"}})
	assert.ErrorContains(t, err, "element 1")

	assert.NoError(t, c.InsertAll(ctx, []*Customer{}))
	assert.Error(t, c.InsertAll(ctx, &Customer{}))
}

func TestClientInsertValueSlice(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	batch := []Customer{{Name: "a"}, {Name: "b"}}
	require.NoError(t, c.InsertAll(ctx, batch))
	assert.Equal(t, int32(1), batch[0].Id)
	assert.Equal(t, int32(2), batch[1].Id)
}

func TestClientInsertNeedsPointerForIdentity(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	err := c.Insert(ctx, Customer{Name: "by value"})
	assert.ErrorIs(t, err, binding.ErrTypeMismatch)

	err = c.InsertAll(ctx, []any{&Customer{Name: "a"}, Customer{Name: "b"}})
	assert.Error(t, err)

	customers, err := FindAll[Customer](ctx, c)
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestClientTransaction(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	boom := errors.New("boom")

	err := c.Transaction(ctx, "", func(tx *Tx) error {
		if err := tx.Insert(ctx, &Customer{Name: "eve"}); err != nil {
			return err
		}
		if err := tx.InsertAll(ctx, []*Customer{{Name: "fay"}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	customers, err := FindAll[Customer](ctx, c)
	require.NoError(t, err)
	assert.Empty(t, customers)

	err = c.Transaction(ctx, "main", func(tx *Tx) error {
		return tx.Insert(ctx, &Event{Message: "wrong connection"})
	})
	assert.ErrorContains(t, err, "belongs to connection audit")

	err = c.TransactionWithIsolation(ctx, "MAIN", Serializable, func(tx *Tx) error {
		cust := &Customer{Name: "gil"}
		if err := tx.Insert(ctx, cust); err != nil {
			return err
		}
		_, err := tx.Delete(ctx, cust)
		return err
	})
	require.NoError(t, err)

	customers, err = FindAll[Customer](ctx, c)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, int32(1), customers[0].DeletedFlag)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	err := c.Insert(ctx, &Orphan{Id: 1})
	assert.ErrorIs(t, err, config.ErrUnknownConnection)

	type Stranger struct{ Id int }
	err = c.Insert(ctx, &Stranger{})
	assert.ErrorIs(t, err, registry.ErrNotRegistered)
}

func TestClientMiddleware(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	var seen []string
	var failures int
	c.Use(func(ctx context.Context, event *OperationEvent, next func() error) error {
		seen = append(seen, event.Op.String()+" "+event.Table)
		return next()
	})
	c.Use(ErrorMiddleware(func(event *OperationEvent, err error) { failures++ }))

	require.NoError(t, c.Insert(ctx, &Customer{Name: "hal"}))
	assert.Error(t, c.Insert(ctx, &Customer{Name: "hal"}))
	_, err := FindAll[Customer](ctx, c)
	require.NoError(t, err)

	assert.Equal(t, []string{"INSERT Customers", "INSERT Customers", "SELECT Customers"}, seen)
	assert.Equal(t, 1, failures)
}

func TestAttach(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "attached.db"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE Customers (Id INTEGER PRIMARY KEY AUTOINCREMENT, Name TEXT NOT NULL, DeletedFlag INTEGER NOT NULL DEFAULT 0)`)
	require.NoError(t, err)

	reg := registry.New(registry.WithDialect(sqlgen.SQLite))
	require.NoError(t, reg.Populate(Customer{}))
	c := NewWithRegistry(&config.Config{DefaultConnection: "main"}, reg, nil)
	c.Attach("Main", db)

	require.NoError(t, c.Insert(ctx, &Customer{Name: "ivy"}))
	require.NoError(t, c.Close())
	assert.NoError(t, db.Ping())
}
