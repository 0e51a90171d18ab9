package prefstore

import (
	"encoding/json"
	"sync"
)

// Mem is an in-memory Store for tests and ephemeral use. It round-trips
// values through JSON so it behaves identically to the file store.
type Mem struct {
	mu        sync.RWMutex
	namespace string
	data      map[string][]byte
}

// NewMem creates an empty in-memory store.
func NewMem(namespace string) *Mem {
	return &Mem{namespace: namespace, data: make(map[string][]byte)}
}

// Corrupt stores raw bytes directly, bypassing JSON encoding. Test hook for
// exercising the malformed-value-reads-as-absent policy.
func (m *Mem) Corrupt(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.namespace+"_"+key] = raw
}

func (m *Mem) Get(key string, out any) bool {
	m.mu.RLock()
	raw, ok := m.data[m.namespace+"_"+key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return decode(raw, out)
}

func (m *Mem) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[m.namespace+"_"+key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Mem) Remove(key string) error {
	m.mu.Lock()
	delete(m.data, m.namespace+"_"+key)
	m.mu.Unlock()
	return nil
}

func (m *Mem) AllKeys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := m.namespace + "_"
	var keys []string
	for k := range m.data {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k[len(prefix):])
		}
	}
	return keys, nil
}
