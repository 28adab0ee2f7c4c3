// Package mapper converts the opaque row maps a database driver produces
// into caller-defined struct types, the row-to-object mapper spec.md §1
// names as an external collaborator and SPEC_FULL.md §4 supplements with a
// real implementation grounded on original_source's mapper/column.py.
package mapper

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// Naming is a field-name-to-column-name transform applied when neither a
// struct tag nor an explicit column map names the column, per
// original_source's entity() naming parameter.
type Naming int

const (
	// AsIs uses the Go field name verbatim as the column name.
	AsIs Naming = iota
	// SnakeToCamel maps a "snake_case" column to a "SnakeCase" field.
	SnakeToCamel
	// CamelToSnake maps a "CamelCase" field to a "camel_case" column.
	CamelToSnake
)

// Column is the parsed form of a field's `sqlyway:"..."` struct tag: the
// per-field column-name override, taking precedence over any explicit map
// or naming transform, the same way original_source's dataclass Column
// annotation takes precedence over the class-level column_map and naming
// settings. Skip is set for a "-" tag, which excludes the field entirely.
type Column struct {
	Name string
	Skip bool
}

const tagKey = "sqlyway"

type options struct {
	columnMap map[string]string
	naming    Naming
}

// Option configures MapRow/MapRows's column resolution.
type Option func(*options)

// WithColumnMap supplies an explicit field-name -> column-name map, the Go
// analogue of original_source's @entity(column_map=...) argument.
func WithColumnMap(m map[string]string) Option {
	return func(o *options) { o.columnMap = m }
}

// WithNaming selects the naming transform used when a field has neither a
// struct tag nor an explicit column-map entry.
func WithNaming(n Naming) Option {
	return func(o *options) { o.naming = n }
}

// MapRows converts every row into a T, in order.
func MapRows[T any](rows []map[string]any, opts ...Option) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		v, err := MapRow[T](row, opts...)
		if err != nil {
			return nil, fmt.Errorf("mapper: row %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// MapRow converts one row map into a T, which must be a struct or a
// pointer-to-struct type.
func MapRow[T any](row map[string]any, opts ...Option) (T, error) {
	var zero T
	o := &options{naming: AsIs}
	for _, opt := range opts {
		opt(o)
	}

	rt := reflect.TypeOf(zero)
	ptr := false
	if rt.Kind() == reflect.Ptr {
		ptr = true
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return zero, fmt.Errorf("mapper: %s is not a struct", rt)
	}

	dest := reflect.New(rt)
	if err := populate(dest.Elem(), row, o); err != nil {
		return zero, err
	}

	if ptr {
		return dest.Interface().(T), nil
	}
	return dest.Elem().Interface().(T), nil
}

func populate(sv reflect.Value, row map[string]any, o *options) error {
	rt := sv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		col, raw, ok := resolveColumn(field, row, o)
		if !ok {
			continue
		}

		if err := setField(sv.Field(i), raw); err != nil {
			return fmt.Errorf("mapper: column %q -> field %q: %w", col, field.Name, err)
		}
	}
	return nil
}

// resolveColumn applies the precedence order spec.md and original_source's
// mapper/column.py establish: struct tag > explicit column map > naming
// transform > field name verbatim.
func resolveColumn(field reflect.StructField, row map[string]any, o *options) (column string, value any, ok bool) {
	if tag, present := field.Tag.Lookup(tagKey); present {
		col := parseTag(tag)
		if col.Skip {
			return "", nil, false
		}
		if col.Name != "" {
			v, found := lookupCol(row, col.Name)
			return col.Name, v, found
		}
	}
	if o.columnMap != nil {
		if name, present := o.columnMap[field.Name]; present {
			v, found := lookupCol(row, name)
			return name, v, found
		}
	}

	if o.naming == SnakeToCamel {
		// A Go field name carries no underscores to split on, so match each
		// snake_case column's CamelCase form against the field instead.
		for k, v := range row {
			if strings.EqualFold(snakeToCamel(k), field.Name) {
				return k, v, true
			}
		}
	}

	name := transform(field.Name, o.naming)
	v, found := lookupCol(row, name)
	return name, v, found
}

// parseTag parses a `sqlyway:"..."` tag value into its Column form.
func parseTag(tag string) Column {
	if tag == "-" {
		return Column{Skip: true}
	}
	parts := strings.Split(tag, ",")
	return Column{Name: parts[0]}
}

// lookupCol is case-insensitive, since drivers disagree on the case of
// column names returned in a row's description.
func lookupCol(row map[string]any, name string) (any, bool) {
	if v, ok := row[name]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func transform(field string, n Naming) string {
	switch n {
	case SnakeToCamel:
		return snakeToCamel(field)
	case CamelToSnake:
		return camelToSnake(field)
	default:
		return field
	}
}

func snakeToCamel(s string) string {
	parts := strings.Split(s, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}

func camelToSnake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r - 'A' + 'a')
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// setField assigns raw into dst, converting numeric/string driver values
// into the destination field's type, including DECIMAL/NUMERIC columns
// that arrive as strings or float64 and must land in a decimal.Decimal
// field without the precision loss a plain float64 conversion would cost.
func setField(dst reflect.Value, raw any) error {
	if raw == nil {
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		elem := reflect.New(dst.Type().Elem())
		if err := setField(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if dst.Type() == decimalType {
		d, err := toDecimal(raw)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(fmt.Sprint(raw))
	default:
		return fmt.Errorf("cannot assign %T to %s", raw, dst.Type())
	}
	return nil
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("cannot convert %T to decimal.Decimal", raw)
	}
}
