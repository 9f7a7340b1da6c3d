package observable

import (
	"math"
	"reflect"
)

// Node is a live observing wrapper over one nested container of a Store.
type Node struct {
	store *Store
	value reflect.Value
	path  string
}

// Path returns the dotted path of this container, rooted at "data".
func (n *Node) Path() string {
	return n.path
}

// Value returns the wrapped container, unobserved. Writes made through it do
// not notify; callers treat it as read-only.
func (n *Node) Value() any {
	return n.value.Interface()
}

// Len returns the number of entries of the container.
func (n *Node) Len() int {
	return n.value.Len()
}

// Has reports whether key exists in the container.
func (n *Node) Has(key string) bool {
	_, ok := n.lookup(key)
	return ok
}

// Get reads key. Nested maps and slices come back as *Node with the path
// tracker extended; leaves come back raw. Missing keys read as nil.
func (n *Node) Get(key string) any {
	if n.path == RootPath {
		n.store.track(RootPath)
	}

	v, ok := n.lookup(key)
	if !ok {
		return nil
	}

	if isContainer(v) {
		child := &Node{store: n.store, value: v, path: n.path + "." + key}
		n.store.track(child.path)
		return child
	}

	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

// Node reads key and returns it only if it is a container.
func (n *Node) Node(key string) (*Node, bool) {
	child, ok := n.Get(key).(*Node)
	return child, ok
}

// Set writes value at key and notifies the owner. It returns false, without
// notifying, when the write cannot be represented: an index past the end of a
// slice, a nil map, or a value that does not fit the element type.
func (n *Node) Set(key string, value any) bool {
	return n.store.write(n, key, value)
}

func (n *Node) lookup(key string) (reflect.Value, bool) {
	switch n.value.Kind() {
	case reflect.Map:
		if n.value.IsNil() {
			return reflect.Value{}, false
		}
		v := n.value.MapIndex(reflect.ValueOf(key).Convert(n.value.Type().Key()))
		if !v.IsValid() {
			return reflect.Value{}, false
		}
		return unwrap(v), true
	case reflect.Slice:
		i, ok := sliceIndex(key)
		if !ok || i >= n.value.Len() {
			return reflect.Value{}, false
		}
		return unwrap(n.value.Index(i)), true
	}
	return reflect.Value{}, false
}

// assign writes value at key and returns the value actually stored.
func assign(container reflect.Value, key string, value any) (reflect.Value, bool) {
	switch container.Kind() {
	case reflect.Map:
		if container.IsNil() {
			return reflect.Value{}, false
		}
		v, ok := fit(value, container.Type().Elem())
		if !ok {
			return reflect.Value{}, false
		}
		container.SetMapIndex(reflect.ValueOf(key).Convert(container.Type().Key()), v)
		return v, true
	case reflect.Slice:
		i, ok := sliceIndex(key)
		if !ok || i >= container.Len() {
			return reflect.Value{}, false
		}
		v, ok := fit(value, container.Type().Elem())
		if !ok {
			return reflect.Value{}, false
		}
		container.Index(i).Set(v)
		return v, true
	}
	return reflect.Value{}, false
}

// fit converts value to t. Numeric conversions are allowed only when the
// converted value converts back to the same number.
func fit(value any, t reflect.Type) (reflect.Value, bool) {
	if value == nil {
		return reflect.Zero(t), true
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return rv, true
	}
	if !rv.Type().ConvertibleTo(t) {
		return reflect.Value{}, false
	}
	if isNumber(rv.Kind()) && isNumber(t.Kind()) {
		converted := rv.Convert(t)
		if !lossless(rv, converted) {
			return reflect.Value{}, false
		}
		return converted, true
	}
	if rv.Kind() == t.Kind() {
		return rv.Convert(t), true
	}
	return reflect.Value{}, false
}

// lossless reports whether to holds exactly the number in from.
func lossless(from, to reflect.Value) bool {
	if from.CanFloat() && (math.IsNaN(from.Float()) || math.IsInf(from.Float(), 0)) {
		return to.CanFloat()
	}
	if from.CanFloat() && from.Float() != math.Trunc(from.Float()) && !to.CanFloat() {
		return false
	}
	if from.CanInt() && from.Int() < 0 && to.CanUint() {
		return false
	}
	if from.CanFloat() && from.Float() < 0 && to.CanUint() {
		return false
	}
	if from.CanUint() && to.CanInt() && to.Int() < 0 {
		return false
	}
	return to.Convert(from.Type()).Equal(from)
}

func isContainer(v reflect.Value) bool {
	v = unwrap(v)
	switch v.Kind() {
	case reflect.Map:
		return v.Type().Key().Kind() == reflect.String
	case reflect.Slice:
		return true
	}
	return false
}

func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
