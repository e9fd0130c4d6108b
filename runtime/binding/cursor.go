package binding

import (
	"fmt"
	"strings"
)

// Reader is a forward-only tabular result. *sql.Rows implements it.
type Reader interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// Source is a materialized row addressed by column name.
type Source interface {
	Value(column string) (any, bool)
}

// Row is a materialized row. Lookups fall back to a case-insensitive match.
type Row map[string]any

// Value implements Source.
func (r Row) Value(column string) (any, bool) {
	if v, ok := r[column]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return nil, false
}

// Cursor binds the rows of one result set. Column ordinals are resolved when
// the cursor is opened, so binding a row is a scan plus one assignment per
// mapped column.
type Cursor struct {
	plan   *Plan
	r      Reader
	slots  []*fieldPlan
	values []any
	ptrs   []any
}

// Cursor opens a cursor over r.
func (p *Plan) Cursor(r Reader) (*Cursor, error) {
	cols, err := r.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	c := &Cursor{
		plan:   p,
		r:      r,
		slots:  make([]*fieldPlan, len(cols)),
		values: make([]any, len(cols)),
		ptrs:   make([]any, len(cols)),
	}
	for i, name := range cols {
		if fp, ok := p.field(name); ok {
			c.slots[i] = fp
		}
		c.ptrs[i] = &c.values[i]
	}
	return c, nil
}

// Next advances to the next row.
func (c *Cursor) Next() bool {
	return c.r.Next()
}

// Err returns the error, if any, that ended iteration.
func (c *Cursor) Err() error {
	return c.r.Err()
}

// Bind copies the current row into dst and returns it. A nil dst allocates
// a new entity. Fields whose column is absent from the result are left
// untouched.
func (c *Cursor) Bind(dst any) (any, error) {
	ev, out, err := c.plan.target(dst)
	if err != nil {
		return nil, err
	}
	for i := range c.values {
		c.values[i] = nil
	}
	if err := c.r.Scan(c.ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	for i, fp := range c.slots {
		if fp == nil {
			continue
		}
		if err := c.plan.assign(ev, fp, c.values[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BindReader binds the current row of r into dst. Prefer Cursor when binding
// more than one row of the same result.
func (p *Plan) BindReader(dst any, r Reader) (any, error) {
	c, err := p.Cursor(r)
	if err != nil {
		return nil, err
	}
	return c.Bind(dst)
}

// BindRow copies a materialized row into dst and returns it. Semantics match
// Cursor.Bind.
func (p *Plan) BindRow(dst any, src Source) (any, error) {
	ev, out, err := p.target(dst)
	if err != nil {
		return nil, err
	}
	for i := range p.fields {
		fp := &p.fields[i]
		v, ok := src.Value(fp.col.Name)
		if !ok {
			continue
		}
		if err := p.assign(ev, fp, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Materialize reads every remaining row of r.
func Materialize(r Reader) ([]Row, error) {
	cols, err := r.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	var rows []Row
	for r.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := r.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, name := range cols {
			row[name] = values[i]
		}
		rows = append(rows, row)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
