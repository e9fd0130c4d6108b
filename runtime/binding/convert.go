package binding

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/satishbabariya/normgo/mapping"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

var errNotIntegral = errors.New("value is not integral")

// converterFunc turns a non-nil stored value into a value of one Go type.
type converterFunc func(src any) (reflect.Value, error)

// converterFor returns the conversion into t, or nil if t is not supported.
func converterFor(t reflect.Type) converterFunc {
	switch t {
	case timeType:
		return func(src any) (reflect.Value, error) {
			v, err := toTime(src)
			return reflect.ValueOf(v), err
		}
	case decimalType:
		return func(src any) (reflect.Value, error) {
			v, err := toDecimal(src)
			return reflect.ValueOf(v), err
		}
	case uuidType:
		return func(src any) (reflect.Value, error) {
			v, err := toUUID(src)
			return reflect.ValueOf(v), err
		}
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(src any) (reflect.Value, error) {
			n, err := toInt64(src)
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			if v.OverflowInt(n) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", n, t)
			}
			v.SetInt(n)
			return v, nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(src any) (reflect.Value, error) {
			n, err := toUint64(src)
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			if v.OverflowUint(n) {
				return reflect.Value{}, fmt.Errorf("%d overflows %s", n, t)
			}
			v.SetUint(n)
			return v, nil
		}
	case reflect.Float32, reflect.Float64:
		return func(src any) (reflect.Value, error) {
			// Floats always pass through the fixed-point intermediate.
			d, err := toDecimal(src)
			if err != nil {
				return reflect.Value{}, err
			}
			f, _ := d.Float64()
			v := reflect.New(t).Elem()
			if v.OverflowFloat(f) {
				return reflect.Value{}, fmt.Errorf("%s overflows %s", d, t)
			}
			v.SetFloat(f)
			return v, nil
		}
	case reflect.Bool:
		return func(src any) (reflect.Value, error) {
			b, err := toBool(src)
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetBool(b)
			return v, nil
		}
	case reflect.String:
		return func(src any) (reflect.Value, error) {
			v := reflect.New(t).Elem()
			v.SetString(toString(src))
			return v, nil
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(src any) (reflect.Value, error) {
				b, err := toBytes(src)
				if err != nil {
					return reflect.Value{}, err
				}
				v := reflect.New(t).Elem()
				v.SetBytes(b)
				return v, nil
			}
		}
	case reflect.Interface:
		return func(src any) (reflect.Value, error) {
			v := reflect.New(t).Elem()
			sv := reflect.ValueOf(src)
			if !sv.Type().AssignableTo(t) {
				return reflect.Value{}, fmt.Errorf("%T does not implement %s", src, t)
			}
			v.Set(sv)
			return v, nil
		}
	}

	if reflect.PointerTo(t).Implements(scannerType) {
		return func(src any) (reflect.Value, error) {
			p := reflect.New(t)
			if err := p.Interface().(sql.Scanner).Scan(src); err != nil {
				return reflect.Value{}, err
			}
			return p.Elem(), nil
		}
	}
	return func(src any) (reflect.Value, error) {
		sv := reflect.ValueOf(src)
		if sv.Type().ConvertibleTo(t) {
			return sv.Convert(t), nil
		}
		return reflect.Value{}, fmt.Errorf("unsupported conversion")
	}
}

// canonicalType is the Go type a converter receives for a column kind.
func canonicalType(k mapping.Kind) reflect.Type {
	switch k {
	case mapping.KindInt64:
		return reflect.TypeOf(int64(0))
	case mapping.KindInt32:
		return reflect.TypeOf(int32(0))
	case mapping.KindInt16:
		return reflect.TypeOf(int16(0))
	case mapping.KindByte:
		return reflect.TypeOf(uint8(0))
	case mapping.KindBoolean:
		return reflect.TypeOf(false)
	case mapping.KindSingle:
		return reflect.TypeOf(float32(0))
	case mapping.KindDouble:
		return reflect.TypeOf(float64(0))
	case mapping.KindDecimal:
		return decimalType
	case mapping.KindBinary:
		return reflect.TypeOf([]byte(nil))
	case mapping.KindGUID:
		return uuidType
	}
	if k.IsText() {
		return reflect.TypeOf("")
	}
	if k.IsTemporal() {
		return timeType
	}
	return nil
}

func toDecimal(src any) (decimal.Decimal, error) {
	switch v := src.(type) {
	case decimal.Decimal:
		return v, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int16:
		return decimal.NewFromInt(int64(v)), nil
	case int8:
		return decimal.NewFromInt(int64(v)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), nil
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0), nil
	case uint32:
		return decimal.NewFromInt(int64(v)), nil
	case uint16:
		return decimal.NewFromInt(int64(v)), nil
	case uint8:
		return decimal.NewFromInt(int64(v)), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, fmt.Errorf("non-finite float %v", v)
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Decimal{}, fmt.Errorf("non-finite float %v", v)
		}
		return decimal.NewFromFloat32(v), nil
	case bool:
		if v {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	}
	return decimal.Decimal{}, fmt.Errorf("%T is not numeric", src)
}

func toInt64(src any) (int64, error) {
	switch v := src.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	}
	d, err := toDecimal(src)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, errNotIntegral
	}
	b := d.BigInt()
	if !b.IsInt64() {
		return 0, fmt.Errorf("%s overflows int64", d)
	}
	return b.Int64(), nil
}

func toUint64(src any) (uint64, error) {
	d, err := toDecimal(src)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, errNotIntegral
	}
	b := d.BigInt()
	if !b.IsUint64() {
		return 0, fmt.Errorf("%s overflows uint64", d)
	}
	return b.Uint64(), nil
}

func toBool(src any) (bool, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	case []byte:
		return strconv.ParseBool(string(v))
	}
	d, err := toDecimal(src)
	if err != nil {
		return false, err
	}
	return !d.IsZero(), nil
}

func toString(src any) string {
	switch v := src.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(src)
}

func toBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		return []byte(v), nil
	case uuid.UUID:
		return append([]byte(nil), v[:]...), nil
	}
	return nil, fmt.Errorf("%T is not binary", src)
}

func toTime(src any) (time.Time, error) {
	switch v := src.(type) {
	case time.Time:
		return v, nil
	case string:
		return mapping.ParseTime(v)
	case []byte:
		return mapping.ParseTime(string(v))
	case int64:
		return time.Unix(v, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%T is not a time", src)
}

func toUUID(src any) (uuid.UUID, error) {
	switch v := src.(type) {
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	}
	return uuid.UUID{}, fmt.Errorf("%T is not a uuid", src)
}
