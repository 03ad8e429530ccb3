package memstore

import (
	"fmt"
	"reflect"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// normalize copies values, dereferencing pointers so later mutation of the
// caller's data cannot reach stored rows.
func normalize(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		rv := reflect.ValueOf(v)
		for rv.IsValid() && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				rv = reflect.Value{}
				break
			}
			rv = rv.Elem()
		}
		if rv.IsValid() {
			out[i] = rv.Interface()
		}
	}
	return out
}

// assign stores v into the pointer dest, allocating when dest points at a
// pointer field and zeroing it for nil values.
func assign(dest, v any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return errors.Errorf("memstore: destination %T is not a non-nil pointer", dest)
	}
	target := dv.Elem()
	if v == nil {
		target.SetZero()
		return nil
	}

	sv := reflect.ValueOf(v)
	switch {
	case sv.Type().AssignableTo(target.Type()):
		target.Set(sv)
	case target.Kind() == reflect.Pointer && sv.Type().AssignableTo(target.Type().Elem()):
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(sv)
		target.Set(p)
	case sv.Kind() == target.Kind() && sv.Type().ConvertibleTo(target.Type()):
		target.Set(sv.Convert(target.Type()))
	case target.Kind() == reflect.Pointer && sv.Kind() == target.Type().Elem().Kind() && sv.Type().ConvertibleTo(target.Type().Elem()):
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(sv.Convert(target.Type().Elem()))
		target.Set(p)
	default:
		return errors.Errorf("memstore: cannot assign %T to %s", v, target.Type())
	}
	return nil
}

func uuidOf(v any) (uuid.UUID, bool) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, id != uuid.Nil
	case uuid.NullUUID:
		return id.UUID, id.Valid
	default:
		return uuid.Nil, false
	}
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
