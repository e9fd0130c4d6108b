package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/normgo/config"
	"github.com/satishbabariya/normgo/mapping"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/schema"
)

const descriptors = `entity Customer table Customers connection main softdelete {
  Id          int32      pk identity
  Name        string(50)
  DeletedFlag int32      softdelete(1)
}

entity Log {
  Message string
}
`

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prevFs, prevCfg := config.AppFs, cfg
	config.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() {
		config.AppFs = prevFs
		cfg = prevCfg
	})
	return config.AppFs
}

func parse(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.ParseString("app.norm", descriptors)
	require.NoError(t, err)
	return s
}

func TestStatementRows(t *testing.T) {
	rows, hazards, err := statementRows(parse(t), sqlgen.Postgres)
	require.NoError(t, err)
	require.Len(t, rows, 8)

	assert.Equal(t, []string{"Customer", "SELECT", "SELECT Id,Name,DeletedFlag FROM Customers"}, rows[0])
	assert.Equal(t, []string{"Customer", "UPDATE", "UPDATE Customers SET Name = $1 WHERE Id = $2;"}, rows[2])
	assert.Equal(t, []string{"Customer", "DELETE", "UPDATE Customers SET DeletedFlag = $1 WHERE Id = $2;"}, rows[3])
	assert.Equal(t, "INSERT INTO Customers(Name) VALUES($1); SELECT lastval();", rows[1][2])

	require.Len(t, hazards, 2)
	assert.Contains(t, hazards[0], "Log: ")
}

func TestDescribeMarkdown(t *testing.T) {
	md := describeMarkdown(parse(t))
	assert.Contains(t, md, "## Customer\n\ntable `Customers`, connection `main`, soft delete\n")
	assert.Contains(t, md, "| Id | Id | int32 |  |  | pk, identity |")
	assert.Contains(t, md, "| DeletedFlag | DeletedFlag | int32 |  |  | softdelete (1) |")
	assert.Contains(t, md, "table `Log`, **no primary key**")
}

func TestValidationReport(t *testing.T) {
	useMemFs(t)
	cfg = &config.Config{
		DefaultConnection: "main",
		Connections:       map[string]config.Connection{"main": {Provider: "sqlite"}},
	}
	s := parse(t)

	warnings, err := validationReport(s, sqlgen.SQLite, false)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Log: no primary key")

	_, err = validationReport(s, sqlgen.SQLite, true)
	assert.True(t, mapping.IsConfiguration(err))

	cfg.Connections = map[string]config.Connection{"other": {Provider: "sqlite"}}
	_, err = validationReport(s, sqlgen.SQLite, false)
	assert.ErrorIs(t, err, config.ErrUnknownConnection)
}

func TestWriteProject(t *testing.T) {
	fs := useMemFs(t)

	created, err := writeProject("/proj", initAnswers{Connection: "main", Provider: "postgres", URL: "${DATABASE_URL}"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/proj/.norm.yaml", "/proj/schema.norm", "/proj/.env.example"}, created)

	loaded, err := config.Load("/proj/.norm.yaml")
	require.NoError(t, err)
	assert.Equal(t, "main", loaded.DefaultConnection)
	assert.Equal(t, "postgres", loaded.Connections["main"].Provider)

	src, err := afero.ReadFile(fs, "/proj/schema.norm")
	require.NoError(t, err)
	s, err := schema.ParseString("schema.norm", string(src))
	require.NoError(t, err)
	assert.Equal(t, string(src), schema.Format(s))

	created, err = writeProject("/proj", initAnswers{Connection: "main", Provider: "sqlite", URL: "x.db"})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestVersionCommand(t *testing.T) {
	useMemFs(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version", "--check", "v99.0.0"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		versionLatest = ""
	})

	require.NoError(t, Execute())
	assert.Contains(t, out.String(), "norm version")
	assert.Contains(t, out.String(), "A new version is available")
}

func TestFormatCommand(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/app.norm", []byte("entity Log {\nMessage   string\n}"), 0644))
	rootCmd.SetArgs([]string{"fmt", "/app.norm"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, Execute())
	src, err := afero.ReadFile(fs, "/app.norm")
	require.NoError(t, err)
	assert.Equal(t, "entity Log {\n  Message string\n}\n", string(src))
}
