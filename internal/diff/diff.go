// Package diff computes key-wise differences between two flat maps.
package diff

import (
	"maps"
	"slices"
)

// Entry is a key and its value on one side of a diff.
type Entry[V comparable] struct {
	Key   string
	Value V
}

// Change is a key present on both sides with differing values.
type Change[V comparable] struct {
	Key  string
	From V
	To   V
}

type Result[V comparable] struct {
	Added   []Entry[V]
	Removed []Entry[V]
	Changed []Change[V]
	Equals  bool
}

// Map classifies the keys of from and to. Keys only in to are added, keys
// only in from are removed and keys in both with different values are
// changed. Output lists follow sorted key order.
func Map[V comparable](from, to map[string]V) Result[V] {
	res := Result[V]{
		Added:   []Entry[V]{},
		Removed: []Entry[V]{},
		Changed: []Change[V]{},
	}

	for _, key := range slices.Sorted(maps.Keys(to)) {
		toValue := to[key]
		fromValue, ok := from[key]
		switch {
		case !ok:
			res.Added = append(res.Added, Entry[V]{Key: key, Value: toValue})
		case fromValue != toValue:
			res.Changed = append(res.Changed, Change[V]{Key: key, From: fromValue, To: toValue})
		}
	}

	for _, key := range slices.Sorted(maps.Keys(from)) {
		if _, ok := to[key]; !ok {
			res.Removed = append(res.Removed, Entry[V]{Key: key, Value: from[key]})
		}
	}

	res.Equals = len(res.Added) == 0 && len(res.Removed) == 0 && len(res.Changed) == 0
	return res
}

// Keys returns the keys of entries in order.
func Keys[V comparable](entries []Entry[V]) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

// ChangedKeys returns the keys of changes in order.
func ChangedKeys[V comparable](changes []Change[V]) []string {
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		out = append(out, c.Key)
	}
	return out
}
