// Package config loads connection and registry settings from .norm.yaml,
// NORM_* environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// ErrUnknownConnection is returned when an entity names a connection that
// is not configured.
var ErrUnknownConnection = errors.New("unknown connection")

const (
	// DefaultConnection is the id used when an entity names no connection.
	DefaultConnection = "default"

	configName = ".norm"
	envPrefix  = "NORM"
)

// Connection is one configured database.
type Connection struct {
	Provider string `mapstructure:"provider"`
	URL      string `mapstructure:"url"`
}

// Config holds the application configuration
type Config struct {
	DefaultConnection string                `mapstructure:"default_connection"`
	Dialect           string                `mapstructure:"dialect"`
	StrictKeys        bool                  `mapstructure:"strict_keys"`
	Debug             bool                  `mapstructure:"debug"`
	SchemaPath        string                `mapstructure:"schema_path"`
	OutputPath        string                `mapstructure:"output_path"`
	Package           string                `mapstructure:"package"`
	Connections       map[string]Connection `mapstructure:"connections"`
}

// Load reads configuration. An empty path searches the working directory,
// the home directory and ~/.config/norm for .norm.yaml; a missing file is
// not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "norm"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_connection", DefaultConnection)
	v.SetDefault("dialect", "")
	v.SetDefault("strict_keys", false)
	v.SetDefault("debug", false)
	v.SetDefault("schema_path", "schema.norm")
	v.SetDefault("output_path", "./entities")
	v.SetDefault("package", "entities")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	loadDotEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// loadDotEnv loads .env and then .env.local, which wins on conflicts.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

func (c *Config) normalize() {
	if c.Connections == nil {
		c.Connections = make(map[string]Connection)
	}
	c.DefaultConnection = strings.ToLower(c.DefaultConnection)

	// DATABASE_URL stands in for an unconfigured default connection.
	if _, ok := c.Connections[c.DefaultConnection]; !ok {
		if url := os.Getenv("DATABASE_URL"); url != "" {
			c.Connections[c.DefaultConnection] = Connection{Provider: c.Dialect, URL: url}
		}
	}
}

// Resolve returns the connection for id. An empty id resolves to the
// default connection. Connection ids are case-insensitive.
func (c *Config) Resolve(id string) (Connection, error) {
	key := strings.ToLower(id)
	if key == "" {
		key = c.DefaultConnection
	}
	conn, ok := c.Connections[key]
	if !ok {
		return Connection{}, fmt.Errorf("%w: %q", ErrUnknownConnection, id)
	}
	if conn.Provider == "" {
		conn.Provider = c.Dialect
	}
	conn.URL = os.ExpandEnv(conn.URL)
	return conn, nil
}

// ConnectionIDs returns the configured connection ids in sorted order.
func (c *Config) ConnectionIDs() []string {
	ids := make([]string, 0, len(c.Connections))
	for id := range c.Connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes cfg to path, or to ~/.config/norm/.norm.yaml when path is empty.
func Save(cfg *Config, path string) error {
	v := viper.New()
	v.SetFs(AppFs)

	v.Set("default_connection", cfg.DefaultConnection)
	v.Set("dialect", cfg.Dialect)
	v.Set("strict_keys", cfg.StrictKeys)
	v.Set("debug", cfg.Debug)
	v.Set("schema_path", cfg.SchemaPath)
	v.Set("output_path", cfg.OutputPath)
	v.Set("package", cfg.Package)
	for id, conn := range cfg.Connections {
		v.Set("connections."+id+".provider", conn.Provider)
		v.Set("connections."+id+".url", conn.URL)
	}

	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, ".config", "norm", configName+".yaml")
	}
	if err := AppFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}
