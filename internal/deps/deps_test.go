package deps

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		sources []Source
		want    MergeResult
	}{
		{
			name: "no sources",
			want: MergeResult{Dependencies: map[string]string{}, Conflicts: []Conflict{}},
		},
		{
			name: "identical versions never conflict",
			sources: []Source{
				{Name: "a", Dependencies: map[string]string{"react": "18.2.0"}},
				{Name: "b", Dependencies: map[string]string{"react": "18.2.0", "lodash": "4"}},
			},
			want: MergeResult{
				Dependencies: map[string]string{"react": "18.2.0", "lodash": "4"},
				Conflicts:    []Conflict{},
			},
		},
		{
			name: "distinct versions conflict",
			sources: []Source{
				{Name: "deployed", Dependencies: map[string]string{"a": "1.0", "b": "1"}},
				{Name: "uploading", Dependencies: map[string]string{"a": "1.1", "b": "1"}},
				{Name: "other", Dependencies: map[string]string{"a": "1.0"}},
			},
			want: MergeResult{
				Dependencies: map[string]string{"b": "1"},
				Conflicts: []Conflict{
					{
						DependencyName: "a",
						Versions: map[string][]string{
							"1.0": {"deployed", "other"},
							"1.1": {"uploading"},
						},
					},
				},
			},
		},
		{
			name: "conflicts listed in first observed order",
			sources: []Source{
				{Name: "s1", Dependencies: map[string]string{"z": "1"}},
				{Name: "s2", Dependencies: map[string]string{"a": "1", "z": "2"}},
				{Name: "s3", Dependencies: map[string]string{"a": "2"}},
			},
			want: MergeResult{
				Dependencies: map[string]string{},
				Conflicts: []Conflict{
					{DependencyName: "z", Versions: map[string][]string{"1": {"s1"}, "2": {"s2"}}},
					{DependencyName: "a", Versions: map[string][]string{"1": {"s2"}, "2": {"s3"}}},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Merge(tt.sources))
		})
	}
}

func TestMergePartitionsSources(t *testing.T) {
	sources := []Source{
		{Name: "one", Dependencies: map[string]string{"dep": "1"}},
		{Name: "two", Dependencies: map[string]string{"dep": "2"}},
		{Name: "three", Dependencies: map[string]string{"dep": "1"}},
		{Name: "four", Dependencies: map[string]string{"dep": "3"}},
		{Name: "five", Dependencies: map[string]string{"other": "3"}},
	}
	res := Merge(sources)
	require.Len(t, res.Conflicts, 1)

	var all []string
	for _, names := range res.Conflicts[0].Versions {
		all = append(all, names...)
	}
	slices.Sort(all)
	require.Equal(t, []string{"four", "one", "three", "two"}, all)

	// every input key lands in exactly one output
	_, accepted := res.Dependencies["dep"]
	require.False(t, accepted)
	require.Equal(t, "3", res.Dependencies["other"])
}

func TestConflictString(t *testing.T) {
	c := Conflict{DependencyName: "react", Versions: map[string][]string{"17": {"<SERVER>"}, "18": {"app/", "admin/"}}}
	require.Equal(t, "react:\n  \"17\" required by <SERVER>\n  \"18\" required by app/, admin/", c.String())
}

func TestUnited(t *testing.T) {
	res := United(
		map[string]string{"express": "4"},
		map[string]map[string]string{
			"b/": {"react": "18"},
			"a/": {"react": "17", "express": "4"},
		},
	)
	require.Equal(t, map[string]string{"express": "4"}, res.Dependencies)
	require.Equal(t, []Conflict{
		{DependencyName: "react", Versions: map[string][]string{"17": {"a/"}, "18": {"b/"}}},
	}, res.Conflicts)
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		version string
		wantErr bool
	}{
		{in: "react:18.2.0", name: "react", version: "18.2.0"},
		{in: "@scope/pkg:^1.0.0", name: "@scope/pkg", version: "^1.0.0"},
		{in: "git:https://x/y", name: "git", version: "https://x/y"},
		{in: "empty:", name: "empty", version: ""},
		{in: "noversion", wantErr: true},
		{in: ":1.0", wantErr: true},
	}
	for _, tt := range tests {
		name, version, err := ParseFlag(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.name, name)
		require.Equal(t, tt.version, version)
	}
}

func TestFromMetadata(t *testing.T) {
	server, united, err := FromMetadata(nil)
	require.NoError(t, err)
	require.Empty(t, server)
	require.Empty(t, united)

	server, united, err = FromMetadata(map[string]string{
		ServerDependenciesVar: `{"express":"4"}`,
		UnitedDependenciesVar: `{"express":"4","react":"18"}`,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"express": "4"}, server)
	require.Equal(t, map[string]string{"express": "4", "react": "18"}, united)

	_, _, err = FromMetadata(map[string]string{UnitedDependenciesVar: `[`})
	require.Error(t, err)
}
