package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect holds the per-database details statement execution depends on.
// Statement text itself is dialect independent apart from the identity
// retrieval suffix.
type Dialect struct {
	Name string
	// Driver is the database/sql driver name, empty when no driver is linked.
	Driver string
	// IdentityQuery recovers the last generated identity on the same connection.
	IdentityQuery string
	// NamedParams reports whether the driver binds sql.Named arguments to
	// @Column placeholders.
	NamedParams bool
	// Numbered reports whether positional placeholders are written $1, $2...
	Numbered bool
}

var (
	Ansi = Dialect{
		Name:          "ansi",
		IdentityQuery: "SELECT @@IDENTITY;",
	}
	SQLite = Dialect{
		Name:          "sqlite",
		Driver:        "sqlite3",
		IdentityQuery: "SELECT last_insert_rowid();",
		NamedParams:   true,
	}
	MySQL = Dialect{
		Name:          "mysql",
		Driver:        "mysql",
		IdentityQuery: "SELECT LAST_INSERT_ID();",
	}
	Postgres = Dialect{
		Name:          "postgres",
		Driver:        "postgres",
		IdentityQuery: "SELECT lastval();",
		Numbered:      true,
	}
)

// DialectFor maps a provider name to its dialect.
func DialectFor(provider string) (Dialect, error) {
	switch strings.ToLower(provider) {
	case "postgresql", "postgres":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "ansi", "sqlserver", "mssql", "":
		return Ansi, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// Rebind rewrites generic ? placeholders into the dialect's positional form.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := byte(0)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quoted != 0:
			if c == quoted {
				quoted = 0
			}
		case c == '\'' || c == '"':
			quoted = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (d Dialect) String() string {
	return d.Name
}
