package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/satishbabariya/normgo/mapping"
)

var bareLiteral = regexp.MustCompile(`^(?:-?\d+(?:\.\d+)?|[\p{L}_][\p{L}\p{N}_]*)$`)

// Format renders s in canonical form: one blank line between entities, two
// space indentation, column names and kinds aligned. Parsing the output
// yields the same descriptors.
func Format(s *Schema) string {
	var b strings.Builder
	for i, e := range s.Entities {
		if i > 0 {
			b.WriteString("\n")
		}
		formatEntity(&b, e)
	}
	return b.String()
}

func formatEntity(b *strings.Builder, e *Entity) {
	d := e.Descriptor
	b.WriteString("entity " + d.Name)
	if d.Table != d.Name {
		b.WriteString(" table " + d.Table)
	}
	if d.Connection != "" {
		b.WriteString(" connection " + d.Connection)
	}
	if d.SoftDelete {
		b.WriteString(" softdelete")
	}
	b.WriteString(" {\n")

	kinds := make([]string, len(d.Columns))
	nameWidth, kindWidth := 0, 0
	for i, col := range d.Columns {
		kinds[i] = col.Kind.String()
		if col.Size > 0 {
			kinds[i] += fmt.Sprintf("(%d)", col.Size)
		}
		if e.IsNullable(col.Name) {
			kinds[i] += "?"
		}
		nameWidth = max(nameWidth, len(col.Name))
		kindWidth = max(kindWidth, len(kinds[i]))
	}

	for i, col := range d.Columns {
		opts := columnOptions(col)
		if len(opts) == 0 {
			fmt.Fprintf(b, "  %-*s %s\n", nameWidth, col.Name, kinds[i])
			continue
		}
		fmt.Fprintf(b, "  %-*s %-*s %s\n", nameWidth, col.Name, kindWidth, kinds[i], strings.Join(opts, " "))
	}
	b.WriteString("}\n")
}

func columnOptions(col mapping.ColumnDescriptor) []string {
	var opts []string
	if col.IsPrimaryKey() {
		opts = append(opts, "pk")
	}
	if col.IsIdentity() {
		opts = append(opts, "identity")
	}
	if col.IsReadOnly() {
		opts = append(opts, "readonly")
	}
	if col.Converter != "" {
		opts = append(opts, "converter("+col.Converter+")")
	}
	if col.Field != col.Name {
		opts = append(opts, "field("+col.Field+")")
	}
	if col.IsSoftDeleteTarget() {
		lit := mapping.FormatLiteral(col.SoftDeleteValue)
		if !bareLiteral.MatchString(lit) {
			lit = strconv.Quote(lit)
		}
		opts = append(opts, "softdelete("+lit+")")
	}
	return opts
}
