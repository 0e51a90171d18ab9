// Package prefstore provides namespaced key-value persistence for user
// preference state (favorites, recent views). Values are stored as JSON;
// a value that fails to deserialize reads as absent rather than as an
// error, so corrupted state degrades to empty instead of failing callers.
package prefstore

import "encoding/json"

// Store is the key-value adapter contract. Keys are scoped under the
// namespace prefix supplied at construction, so co-located logical stores
// never collide.
type Store interface {
	// Get unmarshals the value stored under key into out and reports
	// whether a usable value was present. Malformed stored JSON is
	// treated as absence.
	Get(key string, out any) bool
	// Set stores value under key, serialized as JSON.
	Set(key string, value any) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// AllKeys returns every key in this store's namespace.
	AllKeys() ([]string, error)
}

// decode unmarshals raw JSON into out, reporting false on malformed data.
func decode(raw []byte, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}
