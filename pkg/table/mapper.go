package table

import "sync"

// ColumnMapper is a name to index registry for column labels. Indices are
// assigned in first-seen order and always form a dense 0..n-1 range.
// It is safe for concurrent use.
type ColumnMapper struct {
	mu    sync.Mutex
	index map[string]int
	names []string
}

// NewColumnMapper creates a mapper with the given names pre-registered.
// Repeated names keep the index of their first occurrence.
func NewColumnMapper(names ...string) *ColumnMapper {
	m := &ColumnMapper{
		index: make(map[string]int, len(names)),
		names: make([]string, 0, len(names)),
	}
	for _, name := range names {
		m.assign(name)
	}
	return m
}

// IndexOf returns the index of an already registered name.
func (m *ColumnMapper) IndexOf(name string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.index[name]
	return idx, ok
}

// GetOrAssign returns the index of name, registering it with the next free
// index if it has not been seen yet.
func (m *ColumnMapper) GetOrAssign(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, _ := m.assign(name)
	return idx
}

// assign must be called with mu held (or before the mapper is shared).
func (m *ColumnMapper) assign(name string) (int, bool) {
	if idx, ok := m.index[name]; ok {
		return idx, false
	}
	idx := len(m.names)
	m.index[name] = idx
	m.names = append(m.names, name)
	return idx, true
}

// Names returns the registered names ordered by index.
func (m *ColumnMapper) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of registered names.
func (m *ColumnMapper) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.names)
}
