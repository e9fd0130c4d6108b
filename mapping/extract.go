package mapping

import (
	"reflect"
	"strconv"
	"strings"
)

// TagName is the struct tag key read by Extract.
const TagName = "norm"

// Entity marks a struct as a mapped entity when embedded. Options are given
// in the tag of the embedded field:
//
//	type Customer struct {
//		mapping.Entity `norm:"table:Customers,connection:main,softdelete"`
//		Id   int32  `norm:"Id,pk,identity"`
//		Name string `norm:"Name,size:50"`
//	}
type Entity struct{}

var entityType = reflect.TypeOf(Entity{})

// IsEntity reports whether t (or the struct t points to) embeds Entity.
func IsEntity(t reflect.Type) bool {
	_, ok := entityField(indirect(t))
	return ok
}

// Extract builds the descriptor of an entity type. t may be a struct type or
// a pointer to one.
func Extract(t reflect.Type) (*EntityDescriptor, error) {
	st := indirect(t)
	marker, ok := entityField(st)
	if !ok {
		return nil, &NotAnEntityError{Type: t.String()}
	}

	desc := &EntityDescriptor{
		Name:  st.Name(),
		Table: st.Name(),
	}
	if err := parseEntityTag(desc, marker.Tag.Get(TagName)); err != nil {
		return nil, err
	}
	if err := collectColumns(desc, st, nil, ""); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

// ExtractOf builds the descriptor of T.
func ExtractOf[T any]() (*EntityDescriptor, error) {
	return Extract(reflect.TypeFor[T]())
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func entityField(t reflect.Type) (reflect.StructField, bool) {
	if t == nil || t.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == entityType {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func parseEntityTag(desc *EntityDescriptor, tag string) error {
	if tag == "" {
		return nil
	}
	for _, opt := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), ":")
		switch key {
		case "table":
			desc.Table = value
		case "connection":
			desc.Connection = value
		case "softdelete":
			desc.SoftDelete = true
		case "":
		default:
			return Configf(desc.Name, "", "unknown entity option %q", key)
		}
	}
	return nil
}

func collectColumns(desc *EntityDescriptor, st reflect.Type, index []int, prefix string) error {
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if f.Type == entityType {
			continue
		}
		path := append(append([]int(nil), index...), i)
		tag, tagged := f.Tag.Lookup(TagName)

		if f.Anonymous && !tagged {
			inner := indirect(f.Type)
			if inner.Kind() == reflect.Struct && f.Type.Kind() != reflect.Pointer {
				if err := collectColumns(desc, inner, path, prefix+f.Name+"."); err != nil {
					return err
				}
			}
			continue
		}
		if !f.IsExported() || !tagged {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			// Role options without a column have no effect.
			continue
		}
		col := ColumnDescriptor{
			Name:  name,
			Field: prefix + f.Name,
			Index: path,
			Kind:  InferKind(f.Type),
		}
		if err := parseColumnOptions(desc.Name, &col, opts); err != nil {
			return err
		}
		desc.Columns = append(desc.Columns, col)
	}
	return nil
}

func parseColumnOptions(entity string, col *ColumnDescriptor, opts string) error {
	var softDelete *string
	for _, opt := range strings.Split(opts, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), ":")
		switch key {
		case "":
		case "kind":
			k, err := ParseKind(value)
			if err != nil {
				return Configf(entity, col.Name, "%v", err)
			}
			col.Kind = k
		case "size":
			n, err := strconv.Atoi(value)
			if err != nil {
				return Configf(entity, col.Name, "invalid size %q", value)
			}
			col.Size = n
		case "pk":
			col.Roles |= RolePrimaryKey
		case "identity":
			col.Roles |= RoleIdentity
		case "readonly":
			col.Roles |= RoleReadOnly
		case "converter":
			if value == "" {
				return Configf(entity, col.Name, "empty converter name")
			}
			col.Converter = value
		case "softdelete":
			v := value
			softDelete = &v
		default:
			return Configf(entity, col.Name, "unknown column option %q", key)
		}
	}
	if softDelete != nil {
		v, err := ParseLiteral(col.Kind, *softDelete)
		if err != nil {
			return Configf(entity, col.Name, "invalid soft-delete value %q for %s: %v", *softDelete, col.Kind, err)
		}
		col.Roles |= RoleSoftDeleteTarget
		col.SoftDeleteValue = v
	}
	return nil
}
