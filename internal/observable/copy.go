package observable

import (
	"reflect"
)

// DeepCopy recursively copies maps and slices. Primitives, nil and any other
// kind of value are returned unchanged. Cycles are not detected: the caller is
// responsible for passing acyclic data.
func DeepCopy(v any) any {
	if v == nil {
		return nil
	}
	c := deepCopy(reflect.ValueOf(v))
	if !c.IsValid() {
		return nil
	}
	return c.Interface()
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		inner := deepCopy(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(inner)
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	default:
		return v
	}
}
