package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/satishbabariya/normgo/config"
	"github.com/satishbabariya/normgo/query/sqlgen"
	"github.com/satishbabariya/normgo/schema"
)

// getSchemaPath returns the schema path using consistent logic:
// 1. Use explicit flag value if set
// 2. Use first argument if provided
// 3. Use the configured schema_path
func getSchemaPath(flagValue string, args []string) string {
	if flagValue != "" {
		return flagValue
	}
	if len(args) > 0 {
		return args[0]
	}
	return cfg.SchemaPath
}

// loadSchema parses the descriptor file at path.
func loadSchema(path string) (*schema.Schema, error) {
	if _, err := config.AppFs.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("schema file not found: %s", path)
	}
	s, err := schema.ParseFile(config.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return s, nil
}

// dialectFor resolves the dialect flag, falling back to the configured
// dialect and then to the default connection's provider.
func dialectFor(flagValue string) (sqlgen.Dialect, error) {
	name := flagValue
	if name == "" {
		name = cfg.Dialect
	}
	if name == "" {
		if conn, err := cfg.Resolve(""); err == nil {
			name = conn.Provider
		}
	}
	return sqlgen.DialectFor(name)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
