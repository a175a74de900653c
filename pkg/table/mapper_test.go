package table

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnMapper_GetOrAssign(t *testing.T) {
	m := NewColumnMapper("a", "b")

	assert.Equal(t, 0, m.GetOrAssign("a"))
	assert.Equal(t, 1, m.GetOrAssign("b"))
	assert.Equal(t, 2, m.GetOrAssign("c"))
	assert.Equal(t, 2, m.GetOrAssign("c"), "assign must be idempotent")
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"a", "b", "c"}, m.Names())
}

func TestColumnMapper_IndexOf(t *testing.T) {
	m := NewColumnMapper("x")

	idx, ok := m.IndexOf("x")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = m.IndexOf("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len(), "IndexOf must not register names")
}

func TestColumnMapper_DuplicateSeedNames(t *testing.T) {
	m := NewColumnMapper("a", "b", "a")
	assert.Equal(t, []string{"a", "b"}, m.Names())
}

func TestColumnMapper_NamesIsCopy(t *testing.T) {
	m := NewColumnMapper("a")
	names := m.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, m.Names())
}

func TestColumnMapper_ConcurrentAssignIsDense(t *testing.T) {
	m := NewColumnMapper()

	const workers = 16
	const names = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < names; i++ {
				m.GetOrAssign(fmt.Sprintf("col_%d", i))
			}
		}()
	}
	wg.Wait()

	require.Equal(t, names, m.Len())

	seen := make([]int, 0, names)
	for _, name := range m.Names() {
		idx, ok := m.IndexOf(name)
		require.True(t, ok)
		seen = append(seen, idx)
	}
	sort.Ints(seen)
	for i, idx := range seen {
		assert.Equal(t, i, idx, "indices must form a dense 0..n-1 range")
	}
}
