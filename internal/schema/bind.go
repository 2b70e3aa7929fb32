package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/boom-astro/babamul/internal/domain"
)

var (
	identifierType = reflect.TypeOf(domain.Identifier(""))
	bandType       = reflect.TypeOf(domain.Band(""))
	bytesType      = reflect.TypeOf([]byte(nil))
)

// Bind validates rec against the struct pointed to by dst and fills it.
//
// Fields are matched by their json tag name, then by the comma-separated
// names in an alias tag. Pointer, slice and map fields are nullable: an
// absent or null key leaves them nil. Every other field is required and a
// missing, null or mistyped value yields a *domain.DeserializationError
// whose Path is rooted at path.
func Bind(path string, rec Record, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("schema: Bind target must be a pointer to struct, got %T", dst))
	}
	return bindStruct(path, rec, rv.Elem())
}

func bindStruct(path string, rec Record, sv reflect.Value) error {
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		names := fieldNames(f)
		if names == nil {
			continue
		}
		fieldPath := Join(path, names[0])

		raw, present := Lookup(rec, names...)
		if !present || raw == nil {
			if nullable(f.Type) {
				continue
			}
			return Missing(fieldPath)
		}
		if err := bindValue(fieldPath, raw, sv.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

func fieldNames(f reflect.StructField) []string {
	tag := f.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return nil
	}
	if name == "" {
		name = f.Name
	}
	names := []string{name}
	if alias := f.Tag.Get("alias"); alias != "" {
		names = append(names, strings.Split(alias, ",")...)
	}
	return names
}

func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

func bindValue(path string, raw any, v reflect.Value) error {
	t := v.Type()

	switch {
	case t == identifierType:
		id, err := Identifier(path, raw)
		if err != nil {
			return err
		}
		v.SetString(string(id))
		return nil
	case t == bandType:
		b, err := Band(path, raw)
		if err != nil {
			return err
		}
		v.SetString(string(b))
		return nil
	case t == bytesType:
		b, err := Bytes(path, raw)
		if err != nil {
			return err
		}
		v.SetBytes(b)
		return nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		if raw == nil {
			return nil
		}
		elem := reflect.New(t.Elem())
		if err := bindValue(path, raw, elem.Elem()); err != nil {
			return err
		}
		v.Set(elem)
	case reflect.Float64, reflect.Float32:
		f, err := Float(path, raw)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Int32:
		i, err := Int32(path, raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(i))
	case reflect.Int64, reflect.Int:
		i, err := Int(path, raw)
		if err != nil {
			return err
		}
		v.SetInt(i)
	case reflect.Bool:
		b, err := Bool(path, raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.String:
		s, err := String(path, raw)
		if err != nil {
			return err
		}
		v.SetString(s)
	case reflect.Struct:
		rec, err := AsRecord(path, raw)
		if err != nil {
			return err
		}
		return bindStruct(path, rec, v)
	case reflect.Slice:
		list, err := AsList(path, raw)
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(t, len(list), len(list))
		for i, item := range list {
			itemPath := Index(path, i)
			if item == nil && !nullable(t.Elem()) {
				return Missing(itemPath)
			}
			if err := bindValue(itemPath, item, out.Index(i)); err != nil {
				return err
			}
		}
		v.Set(out)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			panic(fmt.Sprintf("schema: unsupported map key type %s", t.Key()))
		}
		m, ok := unwrap(raw, false).(map[string]any)
		if !ok {
			return mismatch(path, "map", raw)
		}
		out := reflect.MakeMapWithSize(t, len(m))
		for k, item := range m {
			elem := reflect.New(t.Elem()).Elem()
			if err := bindValue(Join(path, k), item, elem); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), elem)
		}
		v.Set(out)
	case reflect.Interface:
		if raw != nil {
			v.Set(reflect.ValueOf(raw))
		}
	default:
		panic(fmt.Sprintf("schema: unsupported field type %s", t))
	}
	return nil
}
