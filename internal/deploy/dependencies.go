package deploy

import (
	"context"
	"fmt"
	"sync"

	"github.com/torfstack/gcff/internal/deps"
	"github.com/torfstack/gcff/internal/diff"
	"github.com/torfstack/gcff/internal/manifest"
	"golang.org/x/sync/errgroup"
)

// CurrentDependencies is what a function and its modules declare right now.
type CurrentDependencies struct {
	Server  map[string]string            `json:"server"`
	Modules map[string]map[string]string `json:"modules"`
	United  map[string]string            `json:"united"`
}

type VersionChange struct {
	From string `json:"fromVersion"`
	To   string `json:"toVersion"`
}

// DependencyReport compares the recorded union with the union recomputed
// from the server and every module manifest.
type DependencyReport struct {
	Current   CurrentDependencies      `json:"current"`
	Proposed  map[string]string        `json:"proposed"`
	Conflicts []deps.Conflict          `json:"conflicts"`
	Missing   map[string]string        `json:"missingDependencies"`
	Extra     map[string]string        `json:"extraDependencies"`
	Updated   map[string]VersionChange `json:"updatedDependencies"`
	UpToDate  bool                     `json:"upToDate"`
}

// Dependencies returns the function's recorded dependency union.
func (e *Engine) Dependencies(ctx context.Context, functionName string) (map[string]string, error) {
	target, err := e.resolve(ctx, functionName)
	if err != nil {
		return nil, err
	}
	united := target.Function.UnitedDependencies
	if united == nil {
		united = map[string]string{}
	}
	return united, nil
}

// CheckDependencies recomputes the union and reports how it differs from the
// recorded one.
func (e *Engine) CheckDependencies(ctx context.Context, functionName string) (*DependencyReport, error) {
	target, err := e.resolve(ctx, functionName)
	if err != nil {
		return nil, err
	}
	modules, err := FindModules(ctx, target.Store)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	current := CurrentDependencies{
		Server:  orEmptyMap(target.Function.ServerDependencies),
		Modules: make(map[string]map[string]string, len(modules)),
		United:  orEmptyMap(target.Function.UnitedDependencies),
	}
	g, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for _, module := range modules {
		g.Go(func() error {
			key := manifest.Key(module)
			data, err := target.Store.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("could not download '%s': %w", key, err)
			}
			moduleDeps, err := manifest.ParseDependencies(data)
			if err != nil {
				return fmt.Errorf("could not parse '%s': %w", key, err)
			}
			mu.Lock()
			current.Modules[module] = moduleDeps
			mu.Unlock()
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	merged := deps.United(current.Server, current.Modules)
	d := diff.Map(current.United, merged.Dependencies)

	report := &DependencyReport{
		Current:   current,
		Proposed:  merged.Dependencies,
		Conflicts: merged.Conflicts,
		Missing:   map[string]string{},
		Extra:     map[string]string{},
		Updated:   map[string]VersionChange{},
		UpToDate:  d.Equals,
	}
	for _, added := range d.Added {
		report.Missing[added.Key] = added.Value
	}
	for _, removed := range d.Removed {
		report.Extra[removed.Key] = removed.Value
	}
	for _, changed := range d.Changed {
		report.Updated[changed.Key] = VersionChange{From: changed.From, To: changed.To}
	}
	return report, nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
