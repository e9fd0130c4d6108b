package mapping

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate go tool stringer -type=Kind -linecomment -output=kind_string.go

// Kind is the semantic data kind of a column.
type Kind int

const (
	KindInvalid         Kind = iota // invalid
	KindInt64                       // int64
	KindInt32                       // int32
	KindInt16                       // int16
	KindByte                        // byte
	KindBoolean                     // boolean
	KindSingle                      // single
	KindDouble                      // double
	KindDecimal                     // decimal
	KindString                      // string
	KindFixedString                 // fixedstring
	KindAnsiString                  // ansistring
	KindFixedAnsiString             // fixedansistring
	KindBinary                      // binary
	KindDate                        // date
	KindTime                        // time
	KindDateTime                    // datetime
	KindDateTime2                   // datetime2
	KindDateTimeOffset              // datetimeoffset
	KindGUID                        // guid
	KindObject                      // object
	KindXML                         // xml
)

// ParseKind resolves a kind by its tag name. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k := KindInt64; k <= KindXML; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown column kind %q", s)
}

// IsInteger reports whether values of the kind are whole numbers.
func (k Kind) IsInteger() bool {
	switch k {
	case KindInt64, KindInt32, KindInt16, KindByte:
		return true
	}
	return false
}

// IsNumeric reports whether the kind holds integer, floating or fixed-point numbers.
func (k Kind) IsNumeric() bool {
	return k.IsInteger() || k == KindSingle || k == KindDouble || k == KindDecimal
}

// IsText reports whether the kind holds character data.
func (k Kind) IsText() bool {
	switch k {
	case KindString, KindFixedString, KindAnsiString, KindFixedAnsiString, KindXML:
		return true
	}
	return false
}

// IsTemporal reports whether the kind holds a date or time.
func (k Kind) IsTemporal() bool {
	switch k {
	case KindDate, KindTime, KindDateTime, KindDateTime2, KindDateTimeOffset:
		return true
	}
	return false
}

// IsVariableLength reports whether a declared size applies to the kind.
func (k Kind) IsVariableLength() bool {
	switch k {
	case KindString, KindFixedString, KindAnsiString, KindFixedAnsiString, KindBinary:
		return true
	}
	return false
}

var (
	timeType        = reflect.TypeOf(time.Time{})
	decimalType     = reflect.TypeOf(decimal.Decimal{})
	uuidType        = reflect.TypeOf(uuid.UUID{})
	bytesType       = reflect.TypeOf([]byte(nil))
	nullDecimalType = reflect.TypeOf(decimal.NullDecimal{})
	nullUUIDType    = reflect.TypeOf(uuid.NullUUID{})
)

// InferKind derives a column kind from a Go field type. Nullable wrappers are
// looked through, so *int32 and sql.Null[int32] both infer int32.
func InferKind(t reflect.Type) Kind {
	t, _ = Underlying(t)
	switch t {
	case timeType:
		return KindDateTime
	case decimalType:
		return KindDecimal
	case uuidType:
		return KindGUID
	case bytesType:
		return KindBinary
	}
	switch t.Kind() {
	case reflect.Int64, reflect.Int, reflect.Uint64, reflect.Uint, reflect.Uint32:
		return KindInt64
	case reflect.Int32, reflect.Uint16:
		return KindInt32
	case reflect.Int16, reflect.Int8:
		return KindInt16
	case reflect.Uint8:
		return KindByte
	case reflect.Bool:
		return KindBoolean
	case reflect.Float32:
		return KindSingle
	case reflect.Float64:
		return KindDouble
	case reflect.String:
		return KindString
	}
	return KindObject
}

// Underlying strips a nullable wrapper from t and reports whether one was
// present. Recognized wrappers are pointers, sql.Null[T], the database/sql
// Null* structs, decimal.NullDecimal and uuid.NullUUID.
func Underlying(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer {
		return t.Elem(), true
	}
	switch t {
	case nullDecimalType:
		return decimalType, true
	case nullUUIDType:
		return uuidType, true
	}
	if inner, ok := nullStructValue(t); ok {
		return inner.Type, true
	}
	return t, false
}

// nullStructValue matches the shape shared by sql.Null[T] and sql.NullString
// and friends: a struct from database/sql with a value field followed by a
// Valid bool.
func nullStructValue(t reflect.Type) (reflect.StructField, bool) {
	if t.Kind() != reflect.Struct || t.PkgPath() != "database/sql" || t.NumField() != 2 {
		return reflect.StructField{}, false
	}
	valid := t.Field(1)
	if valid.Name != "Valid" || valid.Type.Kind() != reflect.Bool {
		return reflect.StructField{}, false
	}
	return t.Field(0), true
}

var literalLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"15:04:05",
}

// ParseLiteral parses s into the canonical Go representation of kind k.
func ParseLiteral(k Kind, s string) (any, error) {
	switch k {
	case KindInt64:
		return strconv.ParseInt(s, 10, 64)
	case KindInt32:
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case KindInt16:
		v, err := strconv.ParseInt(s, 10, 16)
		return int16(v), err
	case KindByte:
		v, err := strconv.ParseUint(s, 10, 8)
		return uint8(v), err
	case KindBoolean:
		return strconv.ParseBool(s)
	case KindSingle:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case KindDouble:
		return strconv.ParseFloat(s, 64)
	case KindDecimal:
		return decimal.NewFromString(s)
	case KindGUID:
		return uuid.Parse(s)
	case KindBinary:
		return []byte(s), nil
	case KindInvalid:
		return nil, fmt.Errorf("invalid kind")
	}
	if k.IsTemporal() {
		return ParseTime(s)
	}
	return s, nil
}

// ParseTime parses s using the layouts drivers commonly return for temporal
// columns.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range literalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}

// FormatLiteral renders a canonical value as ParseLiteral accepts it.
func FormatLiteral(v any) string {
	switch v := v.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}
