package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/normgo/mapping"
)

type customer struct {
	mapping.Entity `norm:"table:Customers,softdelete"`
	Id             int32  `norm:"Id,pk,identity"`
	Name           string `norm:"Name,size:50"`
	DeletedFlag    int32  `norm:"DeletedFlag,softdelete:1"`
}

type orderLine struct {
	mapping.Entity `norm:"table:OrderLines"`
	OrderID        int64   `norm:"OrderID,pk"`
	LineNo         int16   `norm:"LineNo,pk"`
	Sku            string  `norm:"Sku,size:20"`
	Qty            int32   `norm:"Qty"`
	Total          float64 `norm:"Total,readonly"`
}

type eventLog struct {
	mapping.Entity `norm:"table:EventLog"`
	Message        string `norm:"Message"`
}

type softNoTarget struct {
	mapping.Entity `norm:"table:Things,softdelete"`
	Id             int    `norm:"Id,pk"`
	Name           string `norm:"Name"`
}

type readOnlyOnly struct {
	mapping.Entity `norm:"table:Views"`
	Id             int `norm:"Id,pk,identity"`
	Total          int `norm:"Total,readonly"`
}

func extract[T any](t *testing.T) *mapping.EntityDescriptor {
	t.Helper()
	desc, err := mapping.ExtractOf[T]()
	require.NoError(t, err)
	return desc
}

func TestCustomerStatements(t *testing.T) {
	g := NewGenerator(SQLite)
	stmts, err := g.Generate(extract[customer](t))
	require.NoError(t, err)

	assert.Equal(t, "SELECT Id,Name,DeletedFlag FROM Customers", stmts.Select.Text)
	assert.Equal(t, "INSERT INTO Customers(Name) VALUES(?); SELECT last_insert_rowid();", stmts.Insert.Text)
	assert.Equal(t, "INSERT INTO Customers(Name) VALUES(?);", stmts.Insert.Core)
	assert.Equal(t, "UPDATE Customers SET Name = ? WHERE Id = ?;", stmts.Update.Text)
	assert.Equal(t, "UPDATE Customers SET DeletedFlag = ? WHERE Id = ?;", stmts.Delete.Text)
	assert.True(t, stmts.Delete.Soft)
	assert.Empty(t, stmts.Hazards())

	require.Len(t, stmts.Delete.Params, 2)
	assert.True(t, stmts.Delete.Params[0].IsConst)
	assert.Equal(t, int32(1), stmts.Delete.Params[0].Const)
	assert.Equal(t, "Id", stmts.Delete.Params[1].Column)
	assert.False(t, stmts.Delete.Params[1].IsConst)
}

func TestIdentityQueryPerDialect(t *testing.T) {
	desc := extract[customer](t)
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{SQLite, "SELECT last_insert_rowid();"},
		{MySQL, "SELECT LAST_INSERT_ID();"},
		{Postgres, "SELECT lastval();"},
		{Ansi, "SELECT @@IDENTITY;"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name, func(t *testing.T) {
			st, err := NewGenerator(tt.dialect).GenerateInsert(desc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.IdentityQuery)
			assert.Equal(t, "INSERT INTO Customers(Name) VALUES(?); "+tt.want, st.Text)
		})
	}
}

func TestCompositeKeyUpdate(t *testing.T) {
	st, err := NewGenerator(Ansi).GenerateUpdate(extract[orderLine](t))
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE OrderLines SET OrderID = ?, LineNo = ?, Sku = ?, Qty = ? WHERE OrderID = ? AND LineNo = ?;",
		st.Text)
	cols := make([]string, len(st.Params))
	for i, p := range st.Params {
		cols[i] = p.Column
	}
	assert.Equal(t, []string{"OrderID", "LineNo", "Sku", "Qty", "OrderID", "LineNo"}, cols)
	assert.Empty(t, st.Hazard)
}

func TestInsertWithoutIdentity(t *testing.T) {
	st, err := NewGenerator(SQLite).GenerateInsert(extract[orderLine](t))
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO OrderLines(OrderID,LineNo,Sku,Qty) VALUES(?,?,?,?);", st.Text)
	assert.Empty(t, st.IdentityQuery)
	require.Len(t, st.Params, 4)
	assert.Equal(t, 20, st.Params[2].Size)
	assert.Equal(t, mapping.KindString, st.Params[2].Kind)
}

func TestHardDelete(t *testing.T) {
	st, err := NewGenerator(SQLite).GenerateDelete(extract[orderLine](t))
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM OrderLines WHERE OrderID = ? AND LineNo = ?;", st.Text)
	assert.False(t, st.Soft)
}

func TestMissingPrimaryKeyIsHazard(t *testing.T) {
	stmts, err := NewGenerator(SQLite).Generate(extract[eventLog](t))
	require.NoError(t, err)

	assert.Equal(t, "UPDATE EventLog SET Message = ?;", stmts.Update.Text)
	assert.Equal(t, "DELETE FROM EventLog;", stmts.Delete.Text)
	assert.NotEmpty(t, stmts.Update.Hazard)
	assert.NotEmpty(t, stmts.Delete.Hazard)
	assert.Len(t, stmts.Hazards(), 2)
}

func TestSoftDeleteWithoutTargetsFails(t *testing.T) {
	_, err := NewGenerator(SQLite).GenerateDelete(extract[softNoTarget](t))
	require.Error(t, err)
	assert.True(t, mapping.IsConfiguration(err))

	_, err = NewGenerator(SQLite).Generate(extract[softNoTarget](t))
	assert.True(t, mapping.IsConfiguration(err))
}

func TestDegenerateStatementsFail(t *testing.T) {
	desc := extract[readOnlyOnly](t)

	_, err := NewGenerator(SQLite).GenerateInsert(desc)
	assert.True(t, mapping.IsConfiguration(err))
	_, err = NewGenerator(SQLite).GenerateUpdate(desc)
	assert.True(t, mapping.IsConfiguration(err))
}

func TestNamed(t *testing.T) {
	stmts, err := NewGenerator(SQLite).Generate(extract[customer](t))
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO Customers(Name) VALUES(@Name); SELECT last_insert_rowid();", stmts.Insert.Named())
	assert.Equal(t, "UPDATE Customers SET Name = @Name WHERE Id = @Id;", stmts.Update.Named())
	assert.Equal(t, "UPDATE Customers SET DeletedFlag = @DeletedFlag WHERE Id = @Id;", stmts.Delete.Named())
	assert.Equal(t, stmts.Select.Text, stmts.Select.Named())
	assert.NotContains(t, stmts.Update.Named(), "?")
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "UPDATE T SET a = $1 WHERE b = $2;", Postgres.Rebind("UPDATE T SET a = ? WHERE b = ?;"))
	assert.Equal(t, "SELECT '?' FROM T WHERE a = $1", Postgres.Rebind("SELECT '?' FROM T WHERE a = ?"))
	assert.Equal(t, "UPDATE T SET a = ?;", SQLite.Rebind("UPDATE T SET a = ?;"))
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		provider string
		want     Dialect
		wantErr  bool
	}{
		{"postgresql", Postgres, false},
		{"postgres", Postgres, false},
		{"mysql", MySQL, false},
		{"sqlite", SQLite, false},
		{"SQLite3", SQLite, false},
		{"sqlserver", Ansi, false},
		{"mongodb", Dialect{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			got, err := DialectFor(tt.provider)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
