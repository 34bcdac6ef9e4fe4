// Package deps merges independently declared flat dependency maps and
// surfaces version disagreements as data.
package deps

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ServerSource names the dependencies declared by the serving function itself.
const ServerSource = "<SERVER>"

// Source is a named dependency map; the name identifies provenance in
// conflict reports.
type Source struct {
	Name         string
	Dependencies map[string]string
}

// Conflict records every version demanded for one dependency together with
// the sources demanding it.
type Conflict struct {
	DependencyName string              `json:"dependencyName"`
	Versions       map[string][]string `json:"versions"`
}

type MergeResult struct {
	Dependencies map[string]string `json:"dependencies"`
	Conflicts    []Conflict        `json:"conflicts"`
}

// Merge combines the sources into a single map. A dependency with exactly
// one distinct version is accepted; anything else becomes a conflict.
// Conflicts are listed by first observed dependency name, and sources per
// version in the order they were given.
func Merge(sources []Source) MergeResult {
	type versions struct {
		order   []string
		sources map[string][]string
	}
	index := make(map[string]*versions)
	var order []string

	for _, source := range sources {
		// map iteration order is random; sort to keep reports reproducible
		for _, name := range slices.Sorted(maps.Keys(source.Dependencies)) {
			version := source.Dependencies[name]
			v, ok := index[name]
			if !ok {
				v = &versions{sources: make(map[string][]string)}
				index[name] = v
				order = append(order, name)
			}
			if _, seen := v.sources[version]; !seen {
				v.order = append(v.order, version)
			}
			v.sources[version] = append(v.sources[version], source.Name)
		}
	}

	res := MergeResult{
		Dependencies: make(map[string]string),
		Conflicts:    []Conflict{},
	}
	for _, name := range order {
		v := index[name]
		if len(v.order) == 1 {
			res.Dependencies[name] = v.order[0]
			continue
		}
		res.Conflicts = append(res.Conflicts, Conflict{DependencyName: name, Versions: v.sources})
	}
	return res
}

// String renders the conflict as one line per version.
func (c Conflict) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", c.DependencyName)
	for _, version := range slices.Sorted(maps.Keys(c.Versions)) {
		fmt.Fprintf(&b, "\n  %q required by %s", version, strings.Join(c.Versions[version], ", "))
	}
	return b.String()
}

// United merges the server dependencies with every module's dependencies.
func United(server map[string]string, modules map[string]map[string]string) MergeResult {
	sources := []Source{{Name: ServerSource, Dependencies: server}}
	for _, module := range slices.Sorted(maps.Keys(modules)) {
		sources = append(sources, Source{Name: module, Dependencies: modules[module]})
	}
	return Merge(sources)
}

// ParseFlag parses a "name:version" pair.
func ParseFlag(value string) (string, string, error) {
	name, version, ok := strings.Cut(value, ":")
	if !ok || name == "" {
		return "", "", fmt.Errorf("incorrect dependency format '%s', expected name:version", value)
	}
	return name, version, nil
}
