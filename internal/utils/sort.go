package utils

import (
	"cmp"
	"sort"
)

// SortedKeys returns the keys of m in ascending order. Map iteration order is
// not deterministic, so every place that walks a map and cares about output
// order goes through here.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
