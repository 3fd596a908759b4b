package attrs

import "reflect"

// deepEqual reports whether two attribute values are equal: identity for
// primitives, structural equality for composite values. Used to suppress
// change notifications for writes that do not actually change anything.
func deepEqual(a, b any) bool {
	// Fast paths for the common primitive attribute types.
	switch av := a.(type) {
	case nil:
		return b == nil
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		// Slices, maps, structs and everything else.
		return reflect.DeepEqual(a, b)
	}
}
