// Package schema parses descriptor files, a declarative way of describing
// entities without Go struct tags.
//
//	// customers
//	entity Customer table Customers connection main softdelete {
//	  Id          int32 pk identity
//	  Name        string(50)
//	  DeletedFlag int32 softdelete(1)
//	}
//
// An entity header ends with "{" on the same line. Column options end at a
// line break, so a column may be named pk, identity or readonly when it
// starts its own line.
//
// The descriptors it produces are validated the same way as those extracted
// from tagged structs and feed the same statement synthesizer.
package schema

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/spf13/afero"

	"github.com/satishbabariya/normgo/mapping"
)

// Entity is one declared entity with the details a descriptor does not
// carry.
type Entity struct {
	Pos        lexer.Position
	Descriptor *mapping.EntityDescriptor
	// Nullable holds the column names declared with a trailing "?".
	Nullable map[string]bool
}

// IsNullable reports whether column was declared nullable.
func (e *Entity) IsNullable(column string) bool {
	return e.Nullable[column]
}

// Schema is a parsed descriptor file.
type Schema struct {
	Entities []*Entity
}

// Descriptors returns the entity descriptors in declaration order.
func (s *Schema) Descriptors() []*mapping.EntityDescriptor {
	out := make([]*mapping.EntityDescriptor, len(s.Entities))
	for i, e := range s.Entities {
		out[i] = e.Descriptor
	}
	return out
}

// Entity returns the entity with the given name.
func (s *Schema) Entity(name string) (*Entity, bool) {
	for _, e := range s.Entities {
		if e.Descriptor.Name == name {
			return e, true
		}
	}
	return nil, false
}

// parser is the Participle parser instance.
var parser = participle.MustBuild[File](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses a descriptor file from an io.Reader.
func Parse(filename string, r io.Reader) (*Schema, error) {
	raw, err := parser.Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return build(raw)
}

// ParseString parses a descriptor file from a string.
func ParseString(filename, input string) (*Schema, error) {
	return Parse(filename, strings.NewReader(input))
}

// ParseFile reads and parses path from fs.
func ParseFile(fs afero.Fs, path string) (*Schema, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

// build converts the parse tree into validated descriptors. Every entity is
// checked and all failures are reported together.
func build(raw *File) (*Schema, error) {
	s := &Schema{}
	seen := make(map[string]lexer.Position)
	var errs []error

	for _, decl := range raw.Entities {
		if prev, ok := seen[decl.Name]; ok {
			errs = append(errs, fmt.Errorf("%s: entity %s already declared at %s", decl.Pos, decl.Name, prev))
			continue
		}
		seen[decl.Name] = decl.Pos

		e, err := buildEntity(decl)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", decl.Pos, err))
			continue
		}
		s.Entities = append(s.Entities, e)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func buildEntity(decl *EntityDecl) (*Entity, error) {
	desc := &mapping.EntityDescriptor{Name: decl.Name, Table: decl.Name}
	for _, opt := range decl.Options {
		switch {
		case opt.Table != nil:
			desc.Table = *opt.Table
		case opt.Connection != nil:
			desc.Connection = *opt.Connection
		case opt.SoftDelete:
			desc.SoftDelete = true
		}
	}

	e := &Entity{Pos: decl.Pos, Descriptor: desc, Nullable: make(map[string]bool)}
	for _, cd := range decl.Columns {
		col, err := buildColumn(decl.Name, cd)
		if err != nil {
			return nil, err
		}
		desc.Columns = append(desc.Columns, col)
		if cd.Nullable {
			e.Nullable[col.Name] = true
		}
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func buildColumn(entity string, cd *ColumnDecl) (mapping.ColumnDescriptor, error) {
	col := mapping.ColumnDescriptor{Name: cd.Name, Field: cd.Name}
	k, err := mapping.ParseKind(cd.Kind)
	if err != nil {
		return col, mapping.Configf(entity, cd.Name, "%v", err)
	}
	col.Kind = k
	if cd.Size != nil {
		col.Size = *cd.Size
	}

	for _, opt := range cd.Options {
		switch {
		case opt.PrimaryKey:
			col.Roles |= mapping.RolePrimaryKey
		case opt.Identity:
			col.Roles |= mapping.RoleIdentity
		case opt.ReadOnly:
			col.Roles |= mapping.RoleReadOnly
		case opt.Converter != nil:
			col.Converter = *opt.Converter
		case opt.Field != nil:
			col.Field = *opt.Field
		case opt.SoftDelete != nil:
			v, err := mapping.ParseLiteral(col.Kind, opt.SoftDelete.Value)
			if err != nil {
				return col, mapping.Configf(entity, cd.Name, "invalid soft-delete value %q for %s: %v", opt.SoftDelete.Value, col.Kind, err)
			}
			col.Roles |= mapping.RoleSoftDeleteTarget
			col.SoftDeleteValue = v
		}
	}
	return col, nil
}
