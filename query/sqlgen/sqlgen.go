// Package sqlgen synthesizes CRUD statement text from entity descriptors.
package sqlgen

import (
	"strings"

	"github.com/satishbabariya/normgo/mapping"
)

// Op identifies one of the four synthesized statements.
type Op int

const (
	OpSelect Op = iota
	OpInsert
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpSelect:
		return "SELECT"
	case OpInsert:
		return "INSERT"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// Ops lists every operation in synthesis order.
var Ops = []Op{OpSelect, OpInsert, OpUpdate, OpDelete}

// Param describes one placeholder. Params appear in placeholder order.
type Param struct {
	Column string
	Kind   mapping.Kind
	Size   int
	// Const is bound instead of a field value when IsConst is set.
	Const   any
	IsConst bool
}

// Statement is synthesized statement text and its parameter contract.
type Statement struct {
	Op    Op
	Table string
	// Text is the full statement using ? placeholders, including the
	// identity retrieval suffix for INSERT.
	Text string
	// Core is Text without the identity retrieval suffix.
	Core string
	// IdentityQuery is set on INSERT when the entity has an identity column.
	IdentityQuery string
	Params        []Param
	// Soft reports that a DELETE was synthesized as a soft-delete UPDATE.
	Soft bool
	// Hazard is set when the statement affects every row of the table.
	Hazard string
}

// Named renders the statement with @Column placeholders. Identity retrieval
// is kept as a separate trailing statement, as in Text.
func (s *Statement) Named() string {
	if s.IdentityQuery == "" {
		return s.NamedCore()
	}
	return s.NamedCore() + " " + s.IdentityQuery
}

// NamedCore is Core with @Column placeholders.
func (s *Statement) NamedCore() string {
	var b strings.Builder
	i := 0
	for _, part := range strings.SplitAfter(s.Core, "?") {
		if strings.HasSuffix(part, "?") && i < len(s.Params) {
			b.WriteString(part[:len(part)-1])
			b.WriteString("@")
			b.WriteString(s.Params[i].Column)
			i++
			continue
		}
		b.WriteString(part)
	}
	return b.String()
}

// Statements holds the four statements of one entity.
type Statements struct {
	Select *Statement
	Insert *Statement
	Update *Statement
	Delete *Statement
}

// Get returns the statement for op.
func (s *Statements) Get(op Op) *Statement {
	switch op {
	case OpSelect:
		return s.Select
	case OpInsert:
		return s.Insert
	case OpUpdate:
		return s.Update
	case OpDelete:
		return s.Delete
	}
	return nil
}

// Hazards returns the hazard messages of all statements.
func (s *Statements) Hazards() []string {
	var out []string
	for _, op := range Ops {
		if st := s.Get(op); st != nil && st.Hazard != "" {
			out = append(out, st.Hazard)
		}
	}
	return out
}

// Generator synthesizes statements for a dialect.
type Generator struct {
	dialect Dialect
}

// NewGenerator creates a new generator for the given dialect.
func NewGenerator(dialect Dialect) *Generator {
	return &Generator{dialect: dialect}
}

// Dialect returns the generator's dialect.
func (g *Generator) Dialect() Dialect {
	return g.dialect
}

// Generate synthesizes all four statements. Any degenerate statement fails
// the whole entity.
func (g *Generator) Generate(desc *mapping.EntityDescriptor) (*Statements, error) {
	ins, err := g.GenerateInsert(desc)
	if err != nil {
		return nil, err
	}
	upd, err := g.GenerateUpdate(desc)
	if err != nil {
		return nil, err
	}
	del, err := g.GenerateDelete(desc)
	if err != nil {
		return nil, err
	}
	return &Statements{
		Select: g.GenerateSelect(desc),
		Insert: ins,
		Update: upd,
		Delete: del,
	}, nil
}

// GenerateSelect produces a full-table projection in descriptor order.
func (g *Generator) GenerateSelect(desc *mapping.EntityDescriptor) *Statement {
	cols := make([]string, len(desc.Columns))
	for i, c := range desc.Columns {
		cols[i] = c.Name
	}
	text := "SELECT " + strings.Join(cols, ",") + " FROM " + desc.Table
	return &Statement{
		Op:    OpSelect,
		Table: desc.Table,
		Text:  text,
		Core:  text,
	}
}

// GenerateInsert writes every writable column and, when the entity has an
// identity column, appends the dialect's identity retrieval.
func (g *Generator) GenerateInsert(desc *mapping.EntityDescriptor) (*Statement, error) {
	writable := desc.Writable()
	if len(writable) == 0 {
		return nil, mapping.Configf(desc.Name, "", "INSERT has no writable columns")
	}

	cols := make([]string, len(writable))
	marks := make([]string, len(writable))
	for i, c := range writable {
		cols[i] = c.Name
		marks[i] = "?"
	}
	core := "INSERT INTO " + desc.Table + "(" + strings.Join(cols, ",") + ") VALUES(" + strings.Join(marks, ",") + ");"

	st := &Statement{
		Op:     OpInsert,
		Table:  desc.Table,
		Text:   core,
		Core:   core,
		Params: params(writable),
	}
	if _, ok := desc.Identity(); ok {
		st.IdentityQuery = g.dialect.IdentityQuery
		st.Text = core + " " + st.IdentityQuery
	}
	return st, nil
}

// GenerateUpdate sets every writable column and matches on the primary keys.
func (g *Generator) GenerateUpdate(desc *mapping.EntityDescriptor) (*Statement, error) {
	sets := desc.Writable()
	if len(sets) == 0 {
		return nil, mapping.Configf(desc.Name, "", "UPDATE has an empty SET list")
	}
	keys := desc.PrimaryKeys()

	parts := []string{"UPDATE " + desc.Table, "SET " + assignments(sets, ", ")}
	if len(keys) > 0 {
		parts = append(parts, "WHERE "+assignments(keys, " AND "))
	}
	text := strings.Join(parts, " ") + ";"

	st := &Statement{
		Op:     OpUpdate,
		Table:  desc.Table,
		Text:   text,
		Core:   text,
		Params: append(params(sets), params(keys)...),
	}
	if len(keys) == 0 {
		st.Hazard = desc.Name + ": UPDATE has no primary key and affects every row of " + desc.Table
	}
	return st, nil
}

// GenerateDelete produces a hard DELETE, or for soft-delete entities an
// UPDATE that writes the soft-delete target values.
func (g *Generator) GenerateDelete(desc *mapping.EntityDescriptor) (*Statement, error) {
	keys := desc.PrimaryKeys()

	var parts []string
	var ps []Param
	soft := desc.SoftDelete
	if soft {
		targets := desc.SoftDeleteTargets()
		if len(targets) == 0 {
			return nil, mapping.Configf(desc.Name, "", "soft delete declared without soft-delete target columns")
		}
		parts = append(parts, "UPDATE "+desc.Table, "SET "+assignments(targets, ", "))
		for _, c := range targets {
			ps = append(ps, Param{
				Column:  c.Name,
				Kind:    c.Kind,
				Size:    c.Size,
				Const:   c.SoftDeleteValue,
				IsConst: true,
			})
		}
	} else {
		parts = append(parts, "DELETE FROM "+desc.Table)
	}
	if len(keys) > 0 {
		parts = append(parts, "WHERE "+assignments(keys, " AND "))
		ps = append(ps, params(keys)...)
	}
	text := strings.Join(parts, " ") + ";"

	st := &Statement{
		Op:     OpDelete,
		Table:  desc.Table,
		Text:   text,
		Core:   text,
		Params: ps,
		Soft:   soft,
	}
	if len(keys) == 0 {
		st.Hazard = desc.Name + ": DELETE has no primary key and affects every row of " + desc.Table
	}
	return st, nil
}

func assignments(cols []mapping.ColumnDescriptor, sep string) string {
	items := make([]string, len(cols))
	for i, c := range cols {
		items[i] = c.Name + " = ?"
	}
	return strings.Join(items, sep)
}

func params(cols []mapping.ColumnDescriptor) []Param {
	out := make([]Param, len(cols))
	for i, c := range cols {
		out[i] = Param{Column: c.Name, Kind: c.Kind, Size: c.Size}
	}
	return out
}
