package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
default_connection: main
dialect: sqlite
strict_keys: true
connections:
  main:
    provider: sqlite
    url: ${NORM_TEST_DIR}/main.db
  Reporting:
    provider: postgres
    url: postgres://localhost/reports
`

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = prev })
	return AppFs
}

func TestLoadAndResolve(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/work/.norm.yaml", []byte(sample), 0644))
	t.Setenv("NORM_TEST_DIR", "/tmp/norm")

	cfg, err := Load("/work/.norm.yaml")
	require.NoError(t, err)

	assert.Equal(t, "main", cfg.DefaultConnection)
	assert.True(t, cfg.StrictKeys)
	assert.Equal(t, "entities", cfg.Package)
	assert.Equal(t, []string{"main", "reporting"}, cfg.ConnectionIDs())

	conn, err := cfg.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", conn.Provider)
	assert.Equal(t, "/tmp/norm/main.db", conn.URL)

	conn, err = cfg.Resolve("REPORTING")
	require.NoError(t, err)
	assert.Equal(t, "postgres", conn.Provider)
}

func TestResolveUnknown(t *testing.T) {
	fs := useMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/work/.norm.yaml", []byte(sample), 0644))

	cfg, err := Load("/work/.norm.yaml")
	require.NoError(t, err)

	_, err = cfg.Resolve("archive")
	assert.ErrorIs(t, err, ErrUnknownConnection)
	assert.Contains(t, err.Error(), `"archive"`)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	useMemFs(t)
	_, err := Load("/nowhere/.norm.yaml")
	assert.Error(t, err)
}

func TestEnvOverridesAndDatabaseURL(t *testing.T) {
	useMemFs(t)
	t.Setenv("NORM_DIALECT", "mysql")
	t.Setenv("NORM_DEBUG", "true")
	t.Setenv("DATABASE_URL", "user:pw@/shop")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.True(t, cfg.Debug)

	conn, err := cfg.Resolve(DefaultConnection)
	require.NoError(t, err)
	assert.Equal(t, "mysql", conn.Provider)
	assert.Equal(t, "user:pw@/shop", conn.URL)
}

func TestSaveRoundTrip(t *testing.T) {
	useMemFs(t)
	in := &Config{
		DefaultConnection: "main",
		Dialect:           "postgres",
		Package:           "models",
		Connections: map[string]Connection{
			"main": {Provider: "postgres", URL: "postgres://db/app"},
		},
	}
	require.NoError(t, Save(in, "/cfg/.norm.yaml"))

	out, err := Load("/cfg/.norm.yaml")
	require.NoError(t, err)
	assert.Equal(t, "models", out.Package)
	assert.Equal(t, in.Connections["main"], out.Connections["main"])
}
