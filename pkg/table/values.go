package table

import "sort"

// Values is an insertion-ordered mapping of field names to values. Row
// transforms return one Values per row; the order in which names were first
// set decides the order of newly discovered output columns.
type Values struct {
	names  []string
	index  map[string]int
	values []any
}

// NewValues creates an empty Values with room for capacity fields.
func NewValues(capacity int) *Values {
	return &Values{
		names:  make([]string, 0, capacity),
		index:  make(map[string]int, capacity),
		values: make([]any, 0, capacity),
	}
}

// ValuesFromMap builds a Values from a Go map. Map iteration order is
// random, so keys are sorted to keep column discovery deterministic.
func ValuesFromMap(m map[string]any) *Values {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	v := NewValues(len(keys))
	for _, k := range keys {
		v.Set(k, m[k])
	}
	return v
}

// Set stores value under name. Overwriting keeps the original position.
func (v *Values) Set(name string, value any) *Values {
	if v.index == nil {
		v.index = make(map[string]int)
	}
	if i, ok := v.index[name]; ok {
		v.values[i] = value
		return v
	}
	v.index[name] = len(v.names)
	v.names = append(v.names, name)
	v.values = append(v.values, value)
	return v
}

// Get returns the value stored under name.
func (v *Values) Get(name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	i, ok := v.index[name]
	if !ok {
		return nil, false
	}
	return v.values[i], true
}

// Delete removes name, preserving the order of the remaining fields.
func (v *Values) Delete(name string) bool {
	if v == nil {
		return false
	}
	i, ok := v.index[name]
	if !ok {
		return false
	}
	v.names = append(v.names[:i], v.names[i+1:]...)
	v.values = append(v.values[:i], v.values[i+1:]...)
	delete(v.index, name)
	for j := i; j < len(v.names); j++ {
		v.index[v.names[j]] = j
	}
	return true
}

// Len returns the number of fields.
func (v *Values) Len() int {
	if v == nil {
		return 0
	}
	return len(v.names)
}

// Names returns the field names in insertion order.
func (v *Values) Names() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Range calls fn for every field in insertion order until fn returns false.
func (v *Values) Range(fn func(name string, value any) bool) {
	if v == nil {
		return
	}
	for i, name := range v.names {
		if !fn(name, v.values[i]) {
			return
		}
	}
}

// ToMap copies the fields into a plain map.
func (v *Values) ToMap() map[string]any {
	out := make(map[string]any, v.Len())
	v.Range(func(name string, value any) bool {
		out[name] = value
		return true
	})
	return out
}
