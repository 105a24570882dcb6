package cache

// Op is a mutation applied to a cached list.
type Op int

const (
	// OpCreate prepends the item so the newest entry shows first.
	OpCreate Op = iota
	// OpUpdate replaces the matching item in place, preserving order.
	OpUpdate
	// OpDelete prunes the matching item, preserving order.
	OpDelete
)

// Reconcile returns a new list with the mutation applied. The input list is
// never modified. An update with no matching key leaves the list unchanged;
// a delete prunes every entry with the matching key.
func Reconcile[T any](list []T, item T, op Op, key func(T) string) []T {
	switch op {
	case OpCreate:
		out := make([]T, 0, len(list)+1)
		out = append(out, item)
		return append(out, list...)

	case OpUpdate:
		out := make([]T, len(list))
		k := key(item)
		for i, existing := range list {
			if key(existing) == k {
				out[i] = item
			} else {
				out[i] = existing
			}
		}
		return out

	case OpDelete:
		out := make([]T, 0, len(list))
		k := key(item)
		for _, existing := range list {
			if key(existing) != k {
				out = append(out, existing)
			}
		}
		return out

	default:
		out := make([]T, len(list))
		copy(out, list)
		return out
	}
}
