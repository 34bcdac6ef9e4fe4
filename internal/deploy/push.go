package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/torfstack/gcff/internal/deps"
	"github.com/torfstack/gcff/internal/diff"
	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/manifest"
)

// Stage is a step of a push.
type Stage string

const (
	StageResolving  Stage = "resolving"
	StageDiffing    Stage = "diffing"
	StageValidating Stage = "validating"
	StageConfirming Stage = "confirming"
	StageApplying   Stage = "applying"
	StageDone       Stage = "done"
)

// Dependency source names used when validating a push.
const (
	sourceDeployed  = "deployed"
	sourceUploading = "uploading"
)

const forceAdvisory = "dependency check is disabled with --force;" +
	" consider running 'dependencies sync' after a successful push"

type PushRequest struct {
	Module Identity
	// Files maps module-relative paths to content.
	Files        map[string][]byte
	Dependencies map[string]string
	Rules        []json.RawMessage
	// Force skips diffing and dependency validation and writes every file.
	// Files removed locally are left in place remotely.
	Force       bool
	AutoConfirm bool
	DryRun      bool
}

// Plan is the set of changes a command is about to make.
type Plan struct {
	Target  string
	Added   []string
	Changed []string
	Removed []string
	// Operations are keyed relative to the function's storage prefix.
	Operations []Operation
}

// Empty reports whether the plan touches no content.
func (p Plan) Empty() bool {
	return len(p.Added) == 0 && len(p.Changed) == 0 && len(p.Removed) == 0
}

type PushResult struct {
	Plan       Plan
	Applied    ApplyResult
	Advisories []string
	// ViewURL is where the pushed module is served.
	ViewURL string
	Stage   Stage
}

// Push uploads a module's local files and manifest. Unless forced, only
// added and changed files are written, files dropped locally are deleted, and
// the push fails if its dependencies conflict with or would change the
// function's dependency union.
func (e *Engine) Push(ctx context.Context, req PushRequest) (*PushResult, error) {
	for name := range req.Files {
		if manifest.IsKey(name) {
			return nil, fmt.Errorf("%w: %s", ErrReservedFile, name)
		}
	}
	req.Module.Destination = NormalizeDestination(req.Module.Destination)
	res := &PushResult{Plan: Plan{Target: req.Module.String()}}

	fail := func(stage Stage, err error) (*PushResult, error) {
		res.Stage = stage
		return res, &StageError{Stage: stage, Err: err}
	}

	res.Stage = StageResolving
	target, err := e.resolve(ctx, req.Module.Function)
	if err != nil {
		return fail(StageResolving, err)
	}
	dest := req.Module.Destination
	logging.Debugf("Upload path is gs://%s/%s%s", target.Function.Bucket, target.Function.Prefix, dest)

	candidate := manifest.New(req.Files, req.Rules, req.Dependencies)

	if req.Force {
		for _, name := range slices.Sorted(maps.Keys(req.Files)) {
			res.Plan.Added = append(res.Plan.Added, name)
			res.Plan.Operations = append(res.Plan.Operations, Put(dest+name, req.Files[name]))
		}
		if len(req.Dependencies) > 0 {
			logging.Warnf(forceAdvisory)
			res.Advisories = append(res.Advisories, forceAdvisory)
		}
	} else {
		res.Stage = StageDiffing
		existing, err := fetchManifest(ctx, target.Store, manifest.Key(dest))
		if err != nil {
			return fail(StageDiffing, err)
		}
		files := diff.Map(existing.Files, candidate.Files)

		res.Stage = StageValidating
		if err = validateDependencies(target.Function.UnitedDependencies, req.Dependencies); err != nil {
			return fail(StageValidating, err)
		}

		res.Plan.Added = diff.Keys(files.Added)
		res.Plan.Changed = diff.ChangedKeys(files.Changed)
		res.Plan.Removed = diff.Keys(files.Removed)
		for _, name := range append(slices.Clone(res.Plan.Added), res.Plan.Changed...) {
			res.Plan.Operations = append(res.Plan.Operations, Put(dest+name, req.Files[name]))
		}
		for _, name := range res.Plan.Removed {
			res.Plan.Operations = append(res.Plan.Operations, Delete(dest+name))
		}
	}

	content, err := candidate.Marshal()
	if err != nil {
		return fail(res.Stage, err)
	}
	res.Plan.Operations = append(res.Plan.Operations, Put(manifest.Key(dest), content))
	res.ViewURL = target.Function.URL + "/" + dest

	e.reporter.Plan(res.Plan)
	if req.DryRun {
		return res, nil
	}

	res.Stage = StageConfirming
	if err = e.confirm(fmt.Sprintf("You are about to upload changes to %s", req.Module), req.AutoConfirm); err != nil {
		return fail(StageConfirming, err)
	}

	// the manifest goes last so it never declares content that failed to upload
	res.Stage = StageApplying
	ops := res.Plan.Operations
	res.Applied, err = e.apply(ctx, target.Store, "uploading", ops[:len(ops)-1], &ops[len(ops)-1])
	if err != nil {
		return fail(StageApplying, err)
	}
	e.record(ctx, JournalEntry{
		Kind:          "push",
		Function:      req.Module.Function,
		Destination:   dest,
		Puts:          len(res.Applied.Written),
		Deletes:       len(res.Applied.Deleted),
		FailedDeletes: len(res.Applied.FailedDeletes),
	})

	res.Stage = StageDone
	return res, nil
}

// validateDependencies checks an upload against the recorded union. The
// union must already contain exactly what the upload needs.
func validateDependencies(united, uploading map[string]string) error {
	merged := deps.Merge([]deps.Source{
		{Name: sourceDeployed, Dependencies: united},
		{Name: sourceUploading, Dependencies: uploading},
	})
	if len(merged.Conflicts) > 0 {
		return &ConflictError{Conflicts: merged.Conflicts}
	}
	d := diff.Map(united, merged.Dependencies)
	if !d.Equals {
		return &DependencyDriftError{Diff: d}
	}
	return nil
}
