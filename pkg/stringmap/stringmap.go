package stringmap

import (
	"sort"
	"strings"
)

// StringMap holds the named capture groups of a matched log line before type
// coercion turns them into a typed record.
type StringMap map[string]string

// Copy returns new StringMap as a copy of the original.
func (m StringMap) Copy() StringMap {
	copied := StringMap{}
	for k, v := range m {
		copied[k] = v
	}
	return copied
}

// Keys returns non-ordered list of StringMap keys.
func (m StringMap) Keys() []string {
	var keys []string
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// SortedKeys returns sorted list of StringMap keys.
func (m StringMap) SortedKeys() []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}

// Matches returns true if every key of the original StringMap is present in the other StringMap and refers to the same value, otherwise returns false.
func (m StringMap) Matches(other StringMap) bool {
	if len(m) > len(other) {
		return false
	}
	for k, v := range m {
		otherV, ok := other[k]
		if !ok {
			return false
		}
		if v != otherV {
			return false
		}
	}
	return true
}

// String returns ordered key-value list separated with comma.
func (m StringMap) String() string {
	items := make([]string, len(m))
	for i, key := range m.SortedKeys() {
		items[i] = key + `="` + m[key] + `"`
	}
	return strings.Join(items, ",")
}
