// Package binding compiles per-type routines that copy column values between
// query results and entity fields.
//
// A Plan is built once per entity type. All metadata lookups, field index
// resolution and conversion selection happen in Compile; binding a row only
// walks the precomputed field plans.
package binding

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/satishbabariya/normgo/mapping"
	"github.com/satishbabariya/normgo/query/sqlgen"
)

// Converter maps a stored value onto a field value. It receives the value
// already normalized to the Go type of the column kind.
type Converter func(stored any) (any, error)

type wrapping int

const (
	wrapNone wrapping = iota
	wrapPointer
	wrapNullStruct
)

type fieldPlan struct {
	col   mapping.ColumnDescriptor
	index []int
	typ   reflect.Type
	base  reflect.Type
	wrap  wrapping

	convert   converterFunc
	normalize converterFunc
	converter Converter
}

// Plan is the compiled binding of one entity type.
type Plan struct {
	typ      reflect.Type
	desc     *mapping.EntityDescriptor
	fields   []fieldPlan
	byColumn map[string]int
	identity int
}

// Compile builds the plan of t, which must be the struct type desc was
// extracted from (or a pointer to it). converters resolves the converter
// names declared on columns.
func Compile(t reflect.Type, desc *mapping.EntityDescriptor, converters map[string]Converter) (*Plan, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &mapping.NotAnEntityError{Type: t.String()}
	}

	p := &Plan{
		typ:      t,
		desc:     desc,
		fields:   make([]fieldPlan, 0, len(desc.Columns)),
		byColumn: make(map[string]int, len(desc.Columns)*2),
		identity: -1,
	}
	for _, col := range desc.Columns {
		fp, err := compileField(t, desc, col, converters)
		if err != nil {
			return nil, err
		}
		i := len(p.fields)
		p.fields = append(p.fields, fp)
		p.byColumn[col.Name] = i
		if _, ok := p.byColumn[strings.ToLower(col.Name)]; !ok {
			p.byColumn[strings.ToLower(col.Name)] = i
		}
		if col.IsIdentity() {
			p.identity = i
		}
	}
	return p, nil
}

func compileField(t reflect.Type, desc *mapping.EntityDescriptor, col mapping.ColumnDescriptor, converters map[string]Converter) (fieldPlan, error) {
	var sf reflect.StructField
	if len(col.Index) > 0 {
		sf = t.FieldByIndex(col.Index)
	} else {
		f, ok := t.FieldByName(col.Field)
		if !ok {
			return fieldPlan{}, mapping.Configf(desc.Name, col.Name, "no field %q on %s", col.Field, t)
		}
		sf = f
	}

	fp := fieldPlan{
		col:   col,
		index: sf.Index,
		typ:   sf.Type,
	}
	if len(col.Index) > 0 {
		fp.index = col.Index
	}

	base, nullable := mapping.Underlying(sf.Type)
	fp.base = base
	switch {
	case !nullable:
		fp.wrap = wrapNone
	case sf.Type.Kind() == reflect.Pointer:
		fp.wrap = wrapPointer
	default:
		fp.wrap = wrapNullStruct
	}

	fp.convert = converterFor(base)
	if col.Converter != "" {
		conv, ok := converters[col.Converter]
		if !ok {
			return fieldPlan{}, mapping.Configf(desc.Name, col.Name, "unknown converter %q", col.Converter)
		}
		fp.converter = conv
		if ct := canonicalType(col.Kind); ct != nil {
			fp.normalize = converterFor(ct)
		}
	} else if err := checkCompatible(col.Kind, base); err != nil {
		return fieldPlan{}, mapping.Configf(desc.Name, col.Name, "%v", err)
	}
	return fp, nil
}

// checkCompatible rejects kind and field pairs no stored value could satisfy.
func checkCompatible(k mapping.Kind, base reflect.Type) error {
	if k == mapping.KindObject || base.Kind() == reflect.Interface {
		return nil
	}
	if base != decimalType && base != uuidType && base != timeType && reflect.PointerTo(base).Implements(scannerType) {
		return nil
	}
	isNumber := func() bool {
		switch base.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64, reflect.Bool:
			return true
		}
		return base == decimalType
	}
	ok := true
	switch {
	case k.IsNumeric() || k == mapping.KindBoolean:
		ok = isNumber() || base.Kind() == reflect.String
	case k.IsText():
		ok = base.Kind() == reflect.String || base.Kind() == reflect.Slice && base.Elem().Kind() == reflect.Uint8 || base == uuidType || isNumber()
	case k == mapping.KindBinary:
		ok = base.Kind() == reflect.Slice && base.Elem().Kind() == reflect.Uint8 || base.Kind() == reflect.String || base == uuidType
	case k.IsTemporal():
		ok = base == timeType || base.Kind() == reflect.String
	case k == mapping.KindGUID:
		ok = base == uuidType || base.Kind() == reflect.String || base.Kind() == reflect.Slice && base.Elem().Kind() == reflect.Uint8
	}
	if !ok {
		return fmt.Errorf("kind %s cannot be bound to field type %s", k, base)
	}
	return nil
}

// Type returns the entity struct type.
func (p *Plan) Type() reflect.Type {
	return p.typ
}

// Descriptor returns the descriptor the plan was compiled from.
func (p *Plan) Descriptor() *mapping.EntityDescriptor {
	return p.desc
}

// New allocates a new zero entity and returns a pointer to it.
func (p *Plan) New() any {
	return reflect.New(p.typ).Interface()
}

// HasIdentity reports whether the entity has an identity column.
func (p *Plan) HasIdentity() bool {
	return p.identity >= 0
}

func (p *Plan) field(column string) (*fieldPlan, bool) {
	i, ok := p.byColumn[column]
	if !ok {
		i, ok = p.byColumn[strings.ToLower(column)]
	}
	if !ok {
		return nil, false
	}
	return &p.fields[i], true
}

// target resolves dst into the addressable struct value to bind into and the
// pointer handed back to the caller. A nil dst allocates a new instance.
func (p *Plan) target(dst any) (reflect.Value, any, error) {
	if dst == nil {
		ptr := reflect.New(p.typ)
		return ptr.Elem(), ptr.Interface(), nil
	}
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != p.typ {
		return reflect.Value{}, nil, fmt.Errorf("%w: want *%s, got %T", ErrTypeMismatch, p.typ, dst)
	}
	return v.Elem(), dst, nil
}

// assign stores src in the field. A nil src sets the field to its zero
// value: nullable wrappers become absent and other fields take their Go
// zero value.
func (p *Plan) assign(entity reflect.Value, fp *fieldPlan, src any) error {
	field := entity.FieldByIndex(fp.index)
	if src == nil {
		field.SetZero()
		return nil
	}

	if fp.converter != nil {
		if fp.normalize != nil {
			nv, err := fp.normalize(src)
			if err != nil {
				return p.conversionError(fp, src, canonicalType(fp.col.Kind), err)
			}
			src = nv.Interface()
		}
		out, err := fp.converter(src)
		if err != nil {
			return p.conversionError(fp, src, fp.base, err)
		}
		if out == nil {
			field.SetZero()
			return nil
		}
		src = out
	}

	v, err := fp.convert(src)
	if err != nil {
		return p.conversionError(fp, src, fp.base, err)
	}
	fp.set(field, v)
	return nil
}

// set stores v, re-wrapping it when the field is nullable.
func (fp *fieldPlan) set(field, v reflect.Value) {
	switch fp.wrap {
	case wrapPointer:
		ptr := reflect.New(fp.base)
		ptr.Elem().Set(v)
		field.Set(ptr)
	case wrapNullStruct:
		field.Field(0).Set(v)
		field.Field(1).SetBool(true)
	default:
		field.Set(v)
	}
}

func (p *Plan) conversionError(fp *fieldPlan, src any, to reflect.Type, cause error) error {
	toName := "<nil>"
	if to != nil {
		toName = to.String()
	}
	return &ConversionError{
		Entity: p.desc.Name,
		Column: fp.col.Name,
		From:   fmt.Sprintf("%T", src),
		To:     toName,
		Cause:  cause,
	}
}

// value reads the field as a driver argument. Absent nullable values are nil.
func (p *Plan) value(entity reflect.Value, fp *fieldPlan) (any, error) {
	field := entity.FieldByIndex(fp.index)
	switch fp.wrap {
	case wrapPointer:
		if field.IsNil() {
			return nil, nil
		}
		field = field.Elem()
	case wrapNullStruct:
		if !field.Field(1).Bool() {
			return nil, nil
		}
		field = field.Field(0)
	}

	v := field.Interface()
	if fp.col.Kind.IsVariableLength() && fp.col.Size > 0 {
		n := -1
		switch x := v.(type) {
		case string:
			n = utf8.RuneCountInString(x)
		case []byte:
			n = len(x)
		}
		if n > fp.col.Size {
			return nil, fmt.Errorf("%w: %s.%s has %d, limit %d", ErrValueTooLong, p.desc.Name, fp.col.Name, n, fp.col.Size)
		}
	}
	return v, nil
}

func (p *Plan) entityValue(entity any) (reflect.Value, error) {
	v := reflect.ValueOf(entity)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != p.typ {
		return reflect.Value{}, fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, p.typ, entity)
	}
	return v, nil
}

// Args extracts the argument values of params from entity, in parameter
// order. Constant parameters are passed through unchanged.
func (p *Plan) Args(entity any, params []sqlgen.Param) ([]any, error) {
	ev, err := p.entityValue(entity)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(params))
	for i, param := range params {
		if param.IsConst {
			args[i] = param.Const
			continue
		}
		fp, ok := p.field(param.Column)
		if !ok {
			return nil, mapping.Configf(p.desc.Name, param.Column, "parameter has no mapped field")
		}
		if args[i], err = p.value(ev, fp); err != nil {
			return nil, err
		}
	}
	return args, nil
}

// NamedArgs is Args rendered as sql.Named arguments for @Column
// placeholders. A column bound twice is passed once.
func (p *Plan) NamedArgs(entity any, params []sqlgen.Param) ([]any, error) {
	values, err := p.Args(entity, params)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(params))
	args := make([]any, 0, len(params))
	for i, param := range params {
		if seen[param.Column] {
			continue
		}
		seen[param.Column] = true
		args = append(args, sql.Named(param.Column, values[i]))
	}
	return args, nil
}

// CheckIdentityTarget reports whether a generated identity could be written
// back to entity. Entities without an identity column are accepted as values
// or pointers; otherwise entity must be a non-nil pointer to the entity type.
func (p *Plan) CheckIdentityTarget(entity any) error {
	if p.identity < 0 {
		return nil
	}
	ev := reflect.ValueOf(entity)
	if ev.Kind() != reflect.Pointer || ev.IsNil() || ev.Elem().Type() != p.typ {
		return fmt.Errorf("%w: want *%s, got %T", ErrTypeMismatch, p.typ, entity)
	}
	return nil
}

// SetIdentity assigns a database generated identity to the entity's identity
// field. The raw value is decoded through decimal before narrowing.
func (p *Plan) SetIdentity(entity any, raw any) error {
	if p.identity < 0 {
		return mapping.Configf(p.desc.Name, "", "no identity column")
	}
	if err := p.CheckIdentityTarget(entity); err != nil {
		return err
	}
	ev := reflect.ValueOf(entity)
	fp := &p.fields[p.identity]
	if raw == nil {
		return p.conversionError(fp, raw, fp.base, fmt.Errorf("no identity returned"))
	}
	d, err := toDecimal(raw)
	if err != nil {
		return p.conversionError(fp, raw, fp.base, err)
	}
	v, err := fp.convert(d)
	if err != nil {
		return p.conversionError(fp, raw, fp.base, err)
	}
	fp.set(ev.Elem().FieldByIndex(fp.index), v)
	return nil
}
