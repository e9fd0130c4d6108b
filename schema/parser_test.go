package schema

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/normgo/mapping"
	"github.com/satishbabariya/normgo/query/sqlgen"
)

const customers = `
// customers live in the main database
entity Customer table Customers connection main softdelete {
  Id          int32 pk identity
  Name        string(50)
  DeletedFlag int32 softdelete(1)
}

# free-form notes are allowed too
entity Note {
  Code     fixedstring(8) pk
  Body     string? readonly
  Created  datetime field(CreatedAt)
  Revision int64 converter(parseRevision)
}
`

func TestParseCustomer(t *testing.T) {
	s, err := ParseString("customers.norm", customers)
	require.NoError(t, err)
	require.Len(t, s.Entities, 2)

	c, ok := s.Entity("Customer")
	require.True(t, ok)
	d := c.Descriptor
	assert.Equal(t, "Customers", d.Table)
	assert.Equal(t, "main", d.Connection)
	assert.True(t, d.SoftDelete)
	require.Len(t, d.Columns, 3)

	assert.Equal(t, mapping.RolePrimaryKey|mapping.RoleIdentity, d.Columns[0].Roles)
	assert.Equal(t, mapping.KindInt32, d.Columns[0].Kind)
	assert.Equal(t, 50, d.Columns[1].Size)
	assert.Equal(t, mapping.KindString, d.Columns[1].Kind)
	assert.True(t, d.Columns[2].IsSoftDeleteTarget())
	assert.Equal(t, int32(1), d.Columns[2].SoftDeleteValue)

	stmts, err := sqlgen.NewGenerator(sqlgen.Ansi).Generate(d)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Id,Name,DeletedFlag FROM Customers", stmts.Select.Text)
	assert.Equal(t, "UPDATE Customers SET DeletedFlag = ? WHERE Id = ?;", stmts.Delete.Text)
}

func TestParseOptions(t *testing.T) {
	s, err := ParseString("notes.norm", customers)
	require.NoError(t, err)

	n, ok := s.Entity("Note")
	require.True(t, ok)
	d := n.Descriptor
	assert.Equal(t, "Note", d.Table)
	assert.Empty(t, d.Connection)

	assert.Equal(t, mapping.KindFixedString, d.Columns[0].Kind)
	assert.Equal(t, 8, d.Columns[0].Size)
	assert.True(t, n.IsNullable("Body"))
	assert.False(t, n.IsNullable("Code"))
	assert.True(t, d.Columns[1].IsReadOnly())
	assert.Equal(t, "CreatedAt", d.Columns[2].Field)
	assert.Equal(t, "Created", d.Columns[2].Name)
	assert.Equal(t, "parseRevision", d.Columns[3].Converter)

	assert.Len(t, s.Descriptors(), 2)
	_, ok = s.Entity("Missing")
	assert.False(t, ok)
}

func TestColumnsNamedLikeOptions(t *testing.T) {
	s, err := ParseString("keywords.norm", `entity Flags {
  Id       int32 pk
  readonly string
  identity int64 readonly // trailing comment
  pk       boolean
}`)
	require.NoError(t, err)

	d := s.Entities[0].Descriptor
	require.Len(t, d.Columns, 4)
	assert.Equal(t, mapping.RolePrimaryKey, d.Columns[0].Roles)
	assert.Equal(t, "readonly", d.Columns[1].Name)
	assert.Equal(t, mapping.RoleNone, d.Columns[1].Roles)
	assert.Equal(t, "identity", d.Columns[2].Name)
	assert.True(t, d.Columns[2].IsReadOnly())
	assert.Equal(t, "pk", d.Columns[3].Name)
	assert.Equal(t, mapping.KindBoolean, d.Columns[3].Kind)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "syntax",
			input: `entity Broken { Id int32 pk`,
			want:  "unexpected",
		},
		{
			name:  "unknown kind",
			input: `entity A { Id money pk }`,
			want:  `unknown column kind "money"`,
		},
		{
			name:  "bad soft-delete literal",
			input: `entity A softdelete { Id int32 pk  Gone int32 softdelete(yes) }`,
			want:  "invalid soft-delete value",
		},
		{
			name:  "duplicate column",
			input: `entity A { Id int32 pk  id int64 }`,
			want:  "duplicate",
		},
		{
			name:  "duplicate entity",
			input: "entity A { Id int32 pk }\nentity A { Id int32 pk }",
			want:  "already declared",
		},
		{
			name:  "two identities",
			input: `entity A { Id int32 pk identity  Seq int64 identity }`,
			want:  "more than one identity column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString("bad.norm", tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/schemas/app.norm", []byte(customers), 0644))

	s, err := ParseFile(fs, "/schemas/app.norm")
	require.NoError(t, err)
	assert.Len(t, s.Entities, 2)

	_, err = ParseFile(fs, "/schemas/missing.norm")
	assert.Error(t, err)
}
