package table

import "sort"

// DropSet names output columns that must never be materialized. A nil
// DropSet drops nothing.
type DropSet map[string]struct{}

// NewDropSet builds a DropSet from names. It returns nil for no names.
func NewDropSet(names ...string) DropSet {
	if len(names) == 0 {
		return nil
	}
	d := make(DropSet, len(names))
	for _, name := range names {
		d[name] = struct{}{}
	}
	return d
}

// Contains reports whether name is dropped.
func (d DropSet) Contains(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d[name]
	return ok
}

// Len returns the number of dropped names.
func (d DropSet) Len() int { return len(d) }

// Names returns the dropped names sorted.
func (d DropSet) Names() []string {
	out := make([]string, 0, len(d))
	for name := range d {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
