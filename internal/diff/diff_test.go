package diff

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name string
		from map[string]string
		to   map[string]string
		want Result[string]
	}{
		{
			name: "both empty",
			want: Result[string]{Added: []Entry[string]{}, Removed: []Entry[string]{}, Changed: []Change[string]{}, Equals: true},
		},
		{
			name: "added only",
			to:   map[string]string{"b": "2", "a": "1"},
			want: Result[string]{
				Added:   []Entry[string]{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}},
				Removed: []Entry[string]{},
				Changed: []Change[string]{},
			},
		},
		{
			name: "removed only",
			from: map[string]string{"a": "1"},
			to:   map[string]string{},
			want: Result[string]{
				Added:   []Entry[string]{},
				Removed: []Entry[string]{{Key: "a", Value: "1"}},
				Changed: []Change[string]{},
			},
		},
		{
			name: "mixed",
			from: map[string]string{"keep": "1", "change": "1", "drop": "1"},
			to:   map[string]string{"keep": "1", "change": "2", "new": "1"},
			want: Result[string]{
				Added:   []Entry[string]{{Key: "new", Value: "1"}},
				Removed: []Entry[string]{{Key: "drop", Value: "1"}},
				Changed: []Change[string]{{Key: "change", From: "1", To: "2"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Map(tt.from, tt.to))
		})
	}
}

func TestMapIdentity(t *testing.T) {
	maps := []map[string]string{
		{},
		{"a": "1"},
		{"a": "1", "b": "2", "c": ""},
	}
	for _, m := range maps {
		res := Map(m, m)
		require.True(t, res.Equals)
		require.Empty(t, res.Added)
		require.Empty(t, res.Removed)
		require.Empty(t, res.Changed)
	}
}

func TestMapDisjointSizes(t *testing.T) {
	for n := 0; n < 5; n++ {
		m := map[string]string{}
		for i := 0; i < n; i++ {
			m[fmt.Sprintf("k%d", i)] = fmt.Sprintf("v%d", i)
		}
		require.Len(t, Map(map[string]string{}, m).Added, n)
		require.Len(t, Map(m, map[string]string{}).Removed, n)
		require.Equal(t, n == 0, Map(m, map[string]string{}).Equals)
	}
}

func TestKeys(t *testing.T) {
	res := Map(map[string]string{"x": "1", "y": "1"}, map[string]string{"y": "2", "z": "1"})
	require.Equal(t, []string{"z"}, Keys(res.Added))
	require.Equal(t, []string{"x"}, Keys(res.Removed))
	require.Equal(t, []string{"y"}, ChangedKeys(res.Changed))
}
