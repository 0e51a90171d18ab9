package prefstore

// ArrayStore layers ordered-list semantics over a Store, holding a single
// JSON array under one key.
type ArrayStore[T any] struct {
	store Store
	key   string
}

// NewArrayStore creates an array store for the given key.
func NewArrayStore[T any](store Store, key string) *ArrayStore[T] {
	return &ArrayStore[T]{store: store, key: key}
}

// GetAll returns the stored list, or an empty slice when absent.
func (a *ArrayStore[T]) GetAll() []T {
	var items []T
	if !a.store.Get(a.key, &items) || items == nil {
		return []T{}
	}
	return items
}

// Add appends item to the list.
func (a *ArrayStore[T]) Add(item T) error {
	items := a.GetAll()
	items = append(items, item)
	return a.store.Set(a.key, items)
}

// Remove deletes every element matching predicate. It returns true iff at
// least one element matched; when nothing matches storage is left untouched.
func (a *ArrayStore[T]) Remove(predicate func(T) bool) (bool, error) {
	items := a.GetAll()
	kept := items[:0:0]
	for _, it := range items {
		if !predicate(it) {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	if kept == nil {
		kept = []T{}
	}
	return true, a.store.Set(a.key, kept)
}

// Exists reports whether any element matches predicate.
func (a *ArrayStore[T]) Exists(predicate func(T) bool) bool {
	for _, it := range a.GetAll() {
		if predicate(it) {
			return true
		}
	}
	return false
}

// SetAll replaces the entire list.
func (a *ArrayStore[T]) SetAll(items []T) error {
	if items == nil {
		items = []T{}
	}
	return a.store.Set(a.key, items)
}

// Clear removes the list entirely.
func (a *ArrayStore[T]) Clear() error {
	return a.store.Remove(a.key)
}
