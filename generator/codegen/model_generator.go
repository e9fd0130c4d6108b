package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/satishbabariya/normgo/mapping"
	"github.com/satishbabariya/normgo/schema"
)

// ModelInfo represents information about an entity for code generation
type ModelInfo struct {
	Name       string
	TableName  string
	Connection string
	SoftDelete bool
	Fields     []FieldInfo
}

// FieldInfo represents information about a field
type FieldInfo struct {
	Column string
	GoName string
	GoType string
	Tag    string
}

// EntityTag returns the tag of the embedded mapping.Entity marker.
func (m ModelInfo) EntityTag() string {
	opts := []string{"table:" + m.TableName}
	if m.Connection != "" {
		opts = append(opts, "connection:"+m.Connection)
	}
	if m.SoftDelete {
		opts = append(opts, "softdelete")
	}
	return fmt.Sprintf("`%s:%q`", mapping.TagName, strings.Join(opts, ","))
}

// Imports returns the import paths the model's field types need.
func (m ModelInfo) Imports() []string {
	var out []string
	for _, f := range m.Fields {
		switch {
		case strings.Contains(f.GoType, "time."):
			out = append(out, "time")
		case strings.Contains(f.GoType, "decimal."):
			out = append(out, "github.com/shopspring/decimal")
		case strings.Contains(f.GoType, "uuid."):
			out = append(out, "github.com/google/uuid")
		}
	}
	return out
}

// ModelsFromSchema generates model information from a parsed descriptor file
func ModelsFromSchema(s *schema.Schema) []ModelInfo {
	models := make([]ModelInfo, 0, len(s.Entities))
	for _, e := range s.Entities {
		d := e.Descriptor
		model := ModelInfo{
			Name:       toPascalCase(d.Name),
			TableName:  d.Table,
			Connection: d.Connection,
			SoftDelete: d.SoftDelete,
		}
		for _, col := range d.Columns {
			model.Fields = append(model.Fields, generateFieldInfo(col, e.IsNullable(col.Name)))
		}
		models = append(models, model)
	}
	return models
}

func generateFieldInfo(col mapping.ColumnDescriptor, nullable bool) FieldInfo {
	goType := goTypeFor(col.Kind, nullable)
	return FieldInfo{
		Column: col.Name,
		GoName: toPascalCase(col.Field),
		GoType: goType,
		Tag:    columnTag(col, goType),
	}
}

// goTypeFor maps a column kind to the Go field type the binder fills.
func goTypeFor(k mapping.Kind, nullable bool) string {
	var base string
	switch k {
	case mapping.KindInt64:
		base = "int64"
	case mapping.KindInt32:
		base = "int32"
	case mapping.KindInt16:
		base = "int16"
	case mapping.KindByte:
		base = "uint8"
	case mapping.KindBoolean:
		base = "bool"
	case mapping.KindSingle:
		base = "float32"
	case mapping.KindDouble:
		base = "float64"
	case mapping.KindDecimal:
		if nullable {
			return "decimal.NullDecimal"
		}
		return "decimal.Decimal"
	case mapping.KindGUID:
		if nullable {
			return "uuid.NullUUID"
		}
		return "uuid.UUID"
	case mapping.KindBinary:
		return "[]byte"
	case mapping.KindObject:
		return "any"
	default:
		switch {
		case k.IsText():
			base = "string"
		case k.IsTemporal():
			base = "time.Time"
		default:
			base = "string"
		}
	}
	if nullable {
		return "*" + base
	}
	return base
}

// inferredKind is the kind the extractor assigns a field of goType when the
// tag names none.
func inferredKind(goType string) mapping.Kind {
	switch strings.TrimPrefix(goType, "*") {
	case "int64":
		return mapping.KindInt64
	case "int32":
		return mapping.KindInt32
	case "int16":
		return mapping.KindInt16
	case "uint8":
		return mapping.KindByte
	case "bool":
		return mapping.KindBoolean
	case "float32":
		return mapping.KindSingle
	case "float64":
		return mapping.KindDouble
	case "string":
		return mapping.KindString
	case "time.Time":
		return mapping.KindDateTime
	case "decimal.Decimal", "decimal.NullDecimal":
		return mapping.KindDecimal
	case "uuid.UUID", "uuid.NullUUID":
		return mapping.KindGUID
	case "[]byte":
		return mapping.KindBinary
	}
	return mapping.KindObject
}

// columnTag renders the struct tag that extracts back to col.
func columnTag(col mapping.ColumnDescriptor, goType string) string {
	opts := []string{col.Name}
	if col.Kind != inferredKind(goType) {
		opts = append(opts, "kind:"+col.Kind.String())
	}
	if col.Size > 0 {
		opts = append(opts, fmt.Sprintf("size:%d", col.Size))
	}
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
		opts = append(opts, "converter:"+col.Converter)
	}
	if col.IsSoftDeleteTarget() {
		opts = append(opts, "softdelete:"+mapping.FormatLiteral(col.SoftDeleteValue))
	}
	return fmt.Sprintf("`%s:%q`", mapping.TagName, strings.Join(opts, ","))
}

// toPascalCase exports a field name, dropping underscores between words.
func toPascalCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' || r == '.' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
