package mapping

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type customer struct {
	Entity      `norm:"table:Customers,connection:main,softdelete"`
	Id          int32  `norm:"Id,pk,identity"`
	Name        string `norm:"Name,size:50"`
	DeletedFlag int32  `norm:"DeletedFlag,softdelete:1"`
	Notes       string
	Scratch     string `norm:",pk"`
}

type audit struct {
	CreatedAt time.Time `norm:"CreatedAt,readonly"`
}

type order struct {
	Entity
	audit
	OrderID  int64               `norm:"OrderID,pk"`
	LineNo   int16               `norm:"LineNo,pk"`
	Amount   decimal.NullDecimal `norm:"Amount"`
	Ref      uuid.UUID           `norm:"Ref"`
	Comment  *string             `norm:"Comment,kind:ansistring,size:200"`
	Shipped  sql.Null[bool]      `norm:"Shipped"`
	internal string              `norm:"Internal"`
}

type plain struct {
	Id int `norm:"Id"`
}

func TestExtractCustomer(t *testing.T) {
	desc, err := Extract(reflect.TypeOf(customer{}))
	require.NoError(t, err)

	assert.Equal(t, "customer", desc.Name)
	assert.Equal(t, "Customers", desc.Table)
	assert.Equal(t, "main", desc.Connection)
	assert.True(t, desc.SoftDelete)
	require.Len(t, desc.Columns, 3)

	id := desc.Columns[0]
	assert.Equal(t, "Id", id.Name)
	assert.Equal(t, KindInt32, id.Kind)
	assert.True(t, id.IsPrimaryKey())
	assert.True(t, id.IsIdentity())
	assert.Equal(t, []int{1}, id.Index)

	name := desc.Columns[1]
	assert.Equal(t, KindString, name.Kind)
	assert.Equal(t, 50, name.Size)
	assert.Equal(t, RoleNone, name.Roles)

	flag := desc.Columns[2]
	assert.True(t, flag.IsSoftDeleteTarget())
	assert.Equal(t, int32(1), flag.SoftDeleteValue)
}

func TestExtractPointerType(t *testing.T) {
	desc, err := Extract(reflect.TypeOf(&customer{}))
	require.NoError(t, err)
	assert.Equal(t, "Customers", desc.Table)
}

func TestRolesOf(t *testing.T) {
	desc, err := ExtractOf[customer]()
	require.NoError(t, err)

	tests := []struct {
		field string
		want  Role
	}{
		{"Id", RolePrimaryKey | RoleIdentity},
		{"Name", RoleNone},
		{"DeletedFlag", RoleSoftDeleteTarget},
		{"Notes", RoleNone},
		{"Scratch", RoleNone},
		{"Missing", RoleNone},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, desc.RolesOf(tt.field))
		})
	}
}

func TestExtractNotAnEntity(t *testing.T) {
	_, err := Extract(reflect.TypeOf(plain{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotAnEntityObject))
	assert.True(t, IsNotAnEntity(err))
	assert.Equal(t, "mapping.plain is not an entity object", err.Error())

	_, err = Extract(reflect.TypeOf(42))
	assert.True(t, IsNotAnEntity(err))
}

func TestExtractEmbeddedAndNullable(t *testing.T) {
	desc, err := ExtractOf[order]()
	require.NoError(t, err)

	assert.Equal(t, "order", desc.Table)
	names := make([]string, len(desc.Columns))
	for i, c := range desc.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"CreatedAt", "OrderID", "LineNo", "Amount", "Ref", "Comment", "Shipped"}, names)

	created, _ := desc.Column("CreatedAt")
	assert.Equal(t, "audit.CreatedAt", created.Field)
	assert.Equal(t, []int{1, 0}, created.Index)
	assert.Equal(t, KindDateTime, created.Kind)
	assert.True(t, created.IsReadOnly())

	amount, _ := desc.Column("Amount")
	assert.Equal(t, KindDecimal, amount.Kind)
	ref, _ := desc.Column("Ref")
	assert.Equal(t, KindGUID, ref.Kind)
	comment, _ := desc.Column("Comment")
	assert.Equal(t, KindAnsiString, comment.Kind)
	assert.Equal(t, 200, comment.Size)
	shipped, _ := desc.Column("Shipped")
	assert.Equal(t, KindBoolean, shipped.Kind)

	assert.Len(t, desc.PrimaryKeys(), 2)
	_, ok := desc.Identity()
	assert.False(t, ok)
}

func TestExtractConfigurationErrors(t *testing.T) {
	type badTable struct {
		Entity `norm:"table:Customers; DROP TABLE x"`
		Id     int `norm:"Id"`
	}
	type badColumn struct {
		Entity
		Id int `norm:"Id--"`
	}
	type badOption struct {
		Entity
		Id int `norm:"Id,primary"`
	}
	type badKind struct {
		Entity
		Id int `norm:"Id,kind:bigint"`
	}
	type badSoftDelete struct {
		Entity
		Flag int32 `norm:"Flag,softdelete:yes"`
	}
	type duplicate struct {
		Entity
		A int `norm:"Id"`
		B int `norm:"id"`
	}
	type twoIdentities struct {
		Entity
		A int `norm:"A,identity"`
		B int `norm:"B,identity"`
	}
	type stringIdentity struct {
		Entity
		A string `norm:"A,identity"`
	}
	type noColumns struct {
		Entity
		A int
	}

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"table injection", reflect.TypeOf(badTable{})},
		{"column name", reflect.TypeOf(badColumn{})},
		{"unknown option", reflect.TypeOf(badOption{})},
		{"unknown kind", reflect.TypeOf(badKind{})},
		{"soft delete literal", reflect.TypeOf(badSoftDelete{})},
		{"duplicate column", reflect.TypeOf(duplicate{})},
		{"two identities", reflect.TypeOf(twoIdentities{})},
		{"string identity", reflect.TypeOf(stringIdentity{})},
		{"no columns", reflect.TypeOf(noColumns{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(tt.typ)
			require.Error(t, err)
			assert.True(t, IsConfiguration(err), "got %v", err)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.NotEmpty(t, cfgErr.Entity)
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, ValidIdentifier("Customers"))
	assert.True(t, ValidIdentifier("dbo.Customers"))
	assert.True(t, ValidIdentifier("_x1"))
	assert.False(t, ValidIdentifier(""))
	assert.False(t, ValidIdentifier("1abc"))
	assert.False(t, ValidIdentifier("a b"))
	assert.False(t, ValidIdentifier("a;--"))
	assert.False(t, ValidIdentifier("a.b.c"))
}

func TestWritableAndSoftDeleteTargets(t *testing.T) {
	desc, err := ExtractOf[customer]()
	require.NoError(t, err)

	writable := desc.Writable()
	require.Len(t, writable, 1)
	assert.Equal(t, "Name", writable[0].Name)

	targets := desc.SoftDeleteTargets()
	require.Len(t, targets, 1)
	assert.Equal(t, "DeletedFlag", targets[0].Name)

	desc.SoftDelete = false
	assert.Len(t, desc.Writable(), 2)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "none", RoleNone.String())
	assert.Equal(t, "pk|identity", (RolePrimaryKey | RoleIdentity).String())
	assert.Equal(t, "readonly|softdelete", (RoleReadOnly | RoleSoftDeleteTarget).String())
}
