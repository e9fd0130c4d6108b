// Package mapping extracts relational metadata from annotated Go types.
package mapping

import (
	"regexp"
	"strings"
)

// Role is the set of key and write roles a column plays.
type Role uint8

const (
	RolePrimaryKey Role = 1 << iota
	RoleIdentity
	RoleReadOnly
	RoleSoftDeleteTarget

	// RoleNone is returned for fields that are not mapped to a column.
	RoleNone Role = 0
)

// Has reports whether all roles in r2 are set in r.
func (r Role) Has(r2 Role) bool {
	return r&r2 == r2 && r2 != 0
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	var parts []string
	if r.Has(RolePrimaryKey) {
		parts = append(parts, "pk")
	}
	if r.Has(RoleIdentity) {
		parts = append(parts, "identity")
	}
	if r.Has(RoleReadOnly) {
		parts = append(parts, "readonly")
	}
	if r.Has(RoleSoftDeleteTarget) {
		parts = append(parts, "softdelete")
	}
	return strings.Join(parts, "|")
}

// ColumnDescriptor describes one mapped field.
type ColumnDescriptor struct {
	// Name is the column name used in statement text.
	Name string
	// Field is the Go field name, dotted for fields promoted from embedded structs.
	Field string
	// Index is the reflect field index path. Empty for descriptors not built
	// from a Go type.
	Index []int

	Kind  Kind
	Size  int
	Roles Role

	// Converter names a function registered with the registry that maps the
	// stored value to the field value.
	Converter string

	// SoftDeleteValue is written by the soft-delete statement. It is already
	// parsed into the canonical Go value of Kind.
	SoftDeleteValue any
}

func (c ColumnDescriptor) IsPrimaryKey() bool       { return c.Roles.Has(RolePrimaryKey) }
func (c ColumnDescriptor) IsIdentity() bool         { return c.Roles.Has(RoleIdentity) }
func (c ColumnDescriptor) IsReadOnly() bool         { return c.Roles.Has(RoleReadOnly) }
func (c ColumnDescriptor) IsSoftDeleteTarget() bool { return c.Roles.Has(RoleSoftDeleteTarget) }

// EntityDescriptor describes a mapped type.
type EntityDescriptor struct {
	// Name is the Go type name.
	Name       string
	Table      string
	Connection string
	SoftDelete bool
	// Columns are in field declaration order.
	Columns []ColumnDescriptor
}

// Column finds a column by name.
func (d *EntityDescriptor) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// RolesOf returns the roles of the column mapped from the named Go field.
// A field without a column annotation has RoleNone.
func (d *EntityDescriptor) RolesOf(field string) Role {
	for _, c := range d.Columns {
		if c.Field == field {
			return c.Roles
		}
	}
	return RoleNone
}

// PrimaryKeys returns the primary-key columns in declaration order.
func (d *EntityDescriptor) PrimaryKeys() []ColumnDescriptor {
	return d.filter(func(c ColumnDescriptor) bool { return c.IsPrimaryKey() })
}

// Identity returns the identity column, if the entity has one.
func (d *EntityDescriptor) Identity() (ColumnDescriptor, bool) {
	for _, c := range d.Columns {
		if c.IsIdentity() {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// Writable returns the columns an INSERT or UPDATE SET list writes: every
// column except identity, read-only and, on soft-delete entities, the
// soft-delete targets. Targets are written only by the soft-delete
// statement, so inserted rows take the column default and a soft-deleted
// row cannot be restored through Update.
func (d *EntityDescriptor) Writable() []ColumnDescriptor {
	return d.filter(func(c ColumnDescriptor) bool {
		if c.IsIdentity() || c.IsReadOnly() {
			return false
		}
		return !(d.SoftDelete && c.IsSoftDeleteTarget())
	})
}

// SoftDeleteTargets returns the columns the soft-delete statement sets.
func (d *EntityDescriptor) SoftDeleteTargets() []ColumnDescriptor {
	return d.filter(func(c ColumnDescriptor) bool {
		return c.IsSoftDeleteTarget() && !c.IsIdentity() && !c.IsReadOnly() && !c.IsPrimaryKey()
	})
}

func (d *EntityDescriptor) filter(keep func(ColumnDescriptor) bool) []ColumnDescriptor {
	var out []ColumnDescriptor
	for _, c := range d.Columns {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether s may appear unquoted in statement text.
func ValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// Validate checks the descriptor for inconsistencies that extraction from
// tags or descriptor files could introduce.
func (d *EntityDescriptor) Validate() error {
	if !ValidIdentifier(d.Table) {
		return Configf(d.Name, "", "invalid table name %q", d.Table)
	}
	if len(d.Columns) == 0 {
		return Configf(d.Name, "", "no mapped columns")
	}
	seen := make(map[string]bool, len(d.Columns))
	identities := 0
	for _, c := range d.Columns {
		if !ValidIdentifier(c.Name) {
			return Configf(d.Name, c.Name, "invalid column name")
		}
		key := strings.ToLower(c.Name)
		if seen[key] {
			return Configf(d.Name, c.Name, "duplicate column")
		}
		seen[key] = true
		if c.Kind == KindInvalid {
			return Configf(d.Name, c.Name, "missing column kind")
		}
		if c.Size < 0 {
			return Configf(d.Name, c.Name, "negative size %d", c.Size)
		}
		if c.IsIdentity() {
			identities++
			if !c.Kind.IsInteger() && c.Kind != KindDecimal {
				return Configf(d.Name, c.Name, "identity column must be numeric, got %s", c.Kind)
			}
		}
		if c.IsSoftDeleteTarget() && c.SoftDeleteValue == nil {
			return Configf(d.Name, c.Name, "soft-delete target without a value")
		}
	}
	if identities > 1 {
		return Configf(d.Name, "", "more than one identity column")
	}
	return nil
}
