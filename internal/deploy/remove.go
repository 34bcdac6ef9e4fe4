package deploy

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/torfstack/gcff/internal/manifest"
	"github.com/torfstack/gcff/internal/store"
)

type RemoveRequest struct {
	Module      Identity
	AutoConfirm bool
	DryRun      bool
}

type RemoveResult struct {
	Plan    Plan
	Applied ApplyResult
}

// Remove deletes a module's manifest and every file it declares.
func (e *Engine) Remove(ctx context.Context, req RemoveRequest) (*RemoveResult, error) {
	dest := NormalizeDestination(req.Module.Destination)
	target, err := e.resolve(ctx, req.Module.Function)
	if err != nil {
		return nil, err
	}

	key := manifest.Key(dest)
	data, err := target.Store.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: no %s at %s", ErrModuleNotFound, manifest.Filename, req.Module)
	case err != nil:
		return nil, fmt.Errorf("could not download '%s': %w", key, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse '%s'; consider 'client prune --remove-damaged-files': %w", key, err)
	}

	res := &RemoveResult{Plan: Plan{Target: req.Module.String()}}
	res.Plan.Removed = append([]string{manifest.Filename}, slices.Sorted(maps.Keys(m.Files))...)
	for _, name := range res.Plan.Removed {
		res.Plan.Operations = append(res.Plan.Operations, Delete(dest+name))
	}

	e.reporter.Plan(res.Plan)
	if req.DryRun {
		return res, nil
	}

	if err = e.confirm(fmt.Sprintf("You are about to remove module %s", req.Module), req.AutoConfirm); err != nil {
		return res, err
	}

	res.Applied, err = e.apply(ctx, target.Store, "removing", res.Plan.Operations, nil)
	if err != nil {
		return res, err
	}
	e.record(ctx, JournalEntry{
		Kind:          "remove",
		Function:      req.Module.Function,
		Destination:   dest,
		Deletes:       len(res.Applied.Deleted),
		FailedDeletes: len(res.Applied.FailedDeletes),
	})
	return res, nil
}
