package util

import (
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"
)

// OrderedMap is a map iterated in key order. Inserting a key twice is an error
// unless AllowOverrides was called.
type OrderedMap[K constraints.Ordered, V any] struct {
	data            map[K]V
	forbidOverrides bool
}

type OrderedMapEntry[K constraints.Ordered, V any] struct {
	Key   K
	Value V
}

func NewOrderedMap[K constraints.Ordered, V any]() OrderedMap[K, V] {
	return OrderedMap[K, V]{data: map[K]V{}, forbidOverrides: true}
}

// AllowOverrides lets Insert replace existing keys.
func (m *OrderedMap[K, V]) AllowOverrides() {
	m.forbidOverrides = false
}

func (m *OrderedMap[K, V]) Insert(key K, value V) error {
	if _, ok := m.data[key]; ok && m.forbidOverrides {
		return fmt.Errorf("duplicate key %v", key)
	}
	m.data[key] = value
	return nil
}

func (m *OrderedMap[K, V]) Lookup(key K) (V, bool) {
	val, ok := m.data[key]
	return val, ok
}

// Entries returns the (key, value) pairs sorted by key.
func (m *OrderedMap[K, V]) Entries() []OrderedMapEntry[K, V] {
	result := make([]OrderedMapEntry[K, V], 0, len(m.data))
	for _, k := range OrderedKeys(m.data) {
		result = append(result, OrderedMapEntry[K, V]{Key: k, Value: m.data[k]})
	}
	return result
}

// OrderedKeys returns the keys of m in ascending order.
func OrderedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
