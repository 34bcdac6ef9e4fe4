package deploy

import (
	"context"
	"fmt"
	"slices"

	"github.com/torfstack/gcff/internal/manifest"
	"github.com/torfstack/gcff/internal/store"
)

// FindModules lists the module paths that have a manifest in s. The root
// module is the empty path; every other path ends with a slash.
func FindModules(ctx context.Context, s store.ObjectStore) ([]string, error) {
	keys, err := s.List(ctx, "**/"+manifest.Filename)
	if err != nil {
		return nil, fmt.Errorf("could not list manifests: %w", err)
	}

	modules := make([]string, 0, len(keys))
	for _, key := range keys {
		modulePath, ok := manifest.ModulePath(key)
		if !ok {
			return nil, &DiscoveryError{Key: key}
		}
		modules = append(modules, modulePath)
	}
	slices.Sort(modules)
	return slices.Compact(modules), nil
}

// ListModules lists every module deployed under a function.
func (e *Engine) ListModules(ctx context.Context, functionName string) ([]string, error) {
	target, err := e.resolve(ctx, functionName)
	if err != nil {
		return nil, err
	}
	return FindModules(ctx, target.Store)
}
