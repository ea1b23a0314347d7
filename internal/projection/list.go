package projection

// IndexOf returns the position of the first item matching, or -1.
func IndexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}

// RemoveFirst returns a copy of items without the first match.
func RemoveFirst[T any](items []T, match func(T) bool) []T {
	i := IndexOf(items, match)
	if i < 0 {
		return items
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

// RemoveAll returns items without any match. items itself is never modified.
func RemoveAll[T any](items []T, match func(T) bool) []T {
	if IndexOf(items, match) < 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Upsert replaces the first match with item, or appends item when nothing matches.
func Upsert[T any](items []T, item T, match func(T) bool) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	if i := IndexOf(out, match); i >= 0 {
		out[i] = item
		return out
	}
	return append(out, item)
}

// UpdateAll applies fn to a copy of every match.
func UpdateAll[T any](items []T, match func(T) bool, fn func(*T)) []T {
	if IndexOf(items, match) < 0 {
		return items
	}
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if match(out[i]) {
			fn(&out[i])
		}
	}
	return out
}
