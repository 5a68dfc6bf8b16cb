package util

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestOrderedMapEntries(t *testing.T) {
	m := NewOrderedMap[string, string]()
	require.NoError(t, m.Insert("wasm_snake_bg.wasm", "c3"))
	require.NoError(t, m.Insert("index.html", "a1"))
	require.NoError(t, m.Insert("wasm_snake.js", "b2"))

	require.Equal(t, []OrderedMapEntry[string, string]{
		{Key: "index.html", Value: "a1"},
		{Key: "wasm_snake.js", Value: "b2"},
		{Key: "wasm_snake_bg.wasm", Value: "c3"},
	}, m.Entries())
}

func TestOrderedMapOverrides(t *testing.T) {
	m := NewOrderedMap[string, int]()
	require.NoError(t, m.Insert("index.html", 1))
	require.Error(t, m.Insert("index.html", 2))

	v, ok := m.Lookup("index.html")
	require.True(t, ok)
	require.Equal(t, 1, v)

	m.AllowOverrides()
	require.NoError(t, m.Insert("index.html", 2))
	v, _ = m.Lookup("index.html")
	require.Equal(t, 2, v)

	_, ok = m.Lookup("missing.js")
	require.False(t, ok)
}

func TestOrderedKeysAreSorted(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.MapOf(rapid.String(), rapid.Int()).Draw(t, "raw")

		keys := OrderedKeys(raw)
		if len(keys) != len(raw) {
			t.Fatalf("expected %d keys, got %d", len(raw), len(keys))
		}
		if !sort.StringsAreSorted(keys) {
			t.Fatalf("keys are not sorted: %v", keys)
		}
	})
}
