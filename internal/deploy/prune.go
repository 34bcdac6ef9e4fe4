package deploy

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/manifest"
	"github.com/torfstack/gcff/internal/store"
	"github.com/torfstack/gcff/internal/util"
	"golang.org/x/sync/errgroup"
)

// Classifications reported by a prune scan.
const (
	ClassMissing  = "missing"
	ClassDamaged  = "damaged"
	ClassExtra    = "extra"
	ClassVerified = "verified"
)

type PruneRequest struct {
	Function string
	// RemoveDamaged adds damaged files and manifests to the removal set.
	RemoveDamaged bool
	AutoConfirm   bool
	DryRun        bool
}

// PruneReport classifies every object under a function's prefix. A path
// appears in at most one of Missing, Damaged, Extra and Verified.
type PruneReport struct {
	Missing  []string `json:"missingFiles"`
	Damaged  []string `json:"damagedFiles"`
	Extra    []string `json:"extraFiles"`
	Verified []string `json:"verifiedFiles"`
	ToRemove []string `json:"filesToRemove"`
}

type PruneResult struct {
	Report  PruneReport
	Plan    Plan
	Applied ApplyResult
}

// Prune cross-checks every manifest against the stored objects, then removes
// files no manifest references and, when asked, damaged ones.
func (e *Engine) Prune(ctx context.Context, req PruneRequest) (*PruneResult, error) {
	target, err := e.resolve(ctx, req.Function)
	if err != nil {
		return nil, err
	}

	report, err := e.scan(ctx, target.Store)
	if err != nil {
		return nil, err
	}
	report.ToRemove = slices.Clone(report.Extra)
	if req.RemoveDamaged {
		report.ToRemove = append(report.ToRemove, report.Damaged...)
	}
	slices.Sort(report.ToRemove)
	report.ToRemove = slices.Compact(report.ToRemove)

	e.observer.PruneClassified(ClassMissing, len(report.Missing))
	e.observer.PruneClassified(ClassDamaged, len(report.Damaged))
	e.observer.PruneClassified(ClassExtra, len(report.Extra))
	e.observer.PruneClassified(ClassVerified, len(report.Verified))
	e.reporter.Scanned(*report)

	res := &PruneResult{Report: *report, Plan: Plan{Target: req.Function}}
	if len(report.ToRemove) == 0 {
		return res, nil
	}
	res.Plan.Removed = report.ToRemove
	for _, name := range report.ToRemove {
		res.Plan.Operations = append(res.Plan.Operations, Delete(name))
	}

	e.reporter.Plan(res.Plan)
	if req.DryRun {
		return res, nil
	}

	msg := fmt.Sprintf("You are about to remove %d files from %s", len(report.ToRemove), req.Function)
	if err = e.confirm(msg, req.AutoConfirm); err != nil {
		return res, err
	}

	res.Applied, err = e.apply(ctx, target.Store, "removing", res.Plan.Operations, nil)
	if err != nil {
		return res, err
	}
	e.record(ctx, JournalEntry{
		Kind:          "prune",
		Function:      req.Function,
		Deletes:       len(res.Applied.Deleted),
		FailedDeletes: len(res.Applied.FailedDeletes),
	})
	return res, nil
}

// usage tracks which plain files have been claimed by a manifest during one
// scan.
type usage struct {
	mu    sync.Mutex
	inUse map[string]bool
}

// claim marks path as used. It reports whether the path is a known file and
// whether this call was the one that claimed it.
func (u *usage) claim(path string) (known, claimed bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	used, ok := u.inUse[path]
	if !ok {
		return false, false
	}
	if used {
		return true, false
	}
	u.inUse[path] = true
	return true, true
}

func (u *usage) unused() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []string
	for _, path := range slices.Sorted(maps.Keys(u.inUse)) {
		if !u.inUse[path] {
			out = append(out, path)
		}
	}
	return out
}

type scanner struct {
	store     store.ObjectStore
	limit     int
	manifests map[string]bool
	files     *usage

	missing  *util.SyncSet[string]
	damaged  *util.SyncSet[string]
	verified *util.SyncSet[string]
}

func (e *Engine) scan(ctx context.Context, s store.ObjectStore) (*PruneReport, error) {
	keys, err := s.List(ctx, "**")
	if err != nil {
		return nil, fmt.Errorf("could not list objects: %w", err)
	}

	sc := &scanner{
		store:     s,
		limit:     e.limit,
		manifests: make(map[string]bool),
		files:     &usage{inUse: make(map[string]bool)},
		missing:   util.NewSyncSet[string](),
		damaged:   util.NewSyncSet[string](),
		verified:  util.NewSyncSet[string](),
	}
	for _, key := range keys {
		if key == "" || strings.HasSuffix(key, "/") {
			continue
		}
		if manifest.IsKey(key) {
			sc.manifests[key] = true
		} else {
			sc.files.inUse[key] = false
		}
	}
	logging.Debugf("Scanning %d manifests and %d files", len(sc.manifests), len(sc.files.inUse))

	g, gctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for _, key := range slices.Sorted(maps.Keys(sc.manifests)) {
		g.Go(func() error {
			return sc.checkModule(gctx, key)
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	return &PruneReport{
		Missing:  orEmpty(sc.missing.Sorted()),
		Damaged:  orEmpty(sc.damaged.Sorted()),
		Extra:    orEmpty(sc.files.unused()),
		Verified: orEmpty(sc.verified.Sorted()),
	}, nil
}

func (sc *scanner) checkModule(ctx context.Context, key string) error {
	modulePath, _ := manifest.ModulePath(key)

	data, err := sc.store.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		logging.Warnf("Manifest %s disappeared during the scan", key)
		return nil
	case err != nil:
		return fmt.Errorf("could not download '%s': %w", key, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		logging.Warnf("Can't read %s: %s", key, err)
		sc.damaged.Add(key)
		return nil
	}
	sc.verified.Add(key)

	g, gctx := errgroup.WithContext(ctx)
	if sc.limit > 0 {
		g.SetLimit(sc.limit)
	}
	for _, name := range slices.Sorted(maps.Keys(m.Files)) {
		checksum := m.Files[name]
		g.Go(func() error {
			return sc.checkFile(gctx, modulePath+name, checksum)
		})
	}
	return g.Wait()
}

func (sc *scanner) checkFile(ctx context.Context, path, checksum string) error {
	if sc.manifests[path] {
		logging.Warnf("File %s is the manifest of another module and can't be declared as content", path)
		sc.missing.Add(path)
		return nil
	}

	known, claimed := sc.files.claim(path)
	switch {
	case !known:
		sc.missing.Add(path)
		return nil
	case !claimed:
		logging.Warnf("File %s seems to be used by multiple modules", path)
		return nil
	}

	content, err := sc.store.Get(ctx, path)
	switch {
	case errors.Is(err, store.ErrNotFound):
		sc.missing.Add(path)
		return nil
	case err != nil:
		return fmt.Errorf("could not download '%s': %w", path, err)
	}

	if manifest.Hash(content) == checksum {
		sc.verified.Add(path)
	} else {
		logging.Debugf("Checksum mismatch for %s", path)
		sc.damaged.Add(path)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
