package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/torfstack/gcff/internal/deploy"
	"github.com/torfstack/gcff/internal/local"
	"github.com/torfstack/gcff/internal/logging"
)

var ErrWatchNeedsYes = errors.New("--watch pushes without asking; pass --yes to accept every push")

// WatchStatic pushes the directory once and again after every settled
// change until ctx is done. A failed re-push is logged and watching
// continues.
func (s *Service) WatchStatic(ctx context.Context, req PushStatic, debounce time.Duration) error {
	if !s.opts.Yes {
		return ErrWatchNeedsYes
	}
	module, err := deploy.ParseModulePath(req.Module)
	if err != nil {
		return err
	}
	dependencies, err := readDependencies(req.Dependencies, req.DependenciesFile)
	if err != nil {
		return err
	}

	w, err := local.NewWatcher(req.Dir, req.Ignore, debounce)
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}
	defer w.Close()

	if err = s.pushStatic(ctx, module, dependencies, req); err != nil {
		return err
	}
	logging.Infof("Watching %s for changes", w.RootPath)

	err = w.Run(ctx, func(ctx context.Context, changed []string) error {
		logging.Infof("Changed: %s", strings.Join(changed, ", "))
		return s.pushStatic(ctx, module, dependencies, req)
	})
	if err != nil {
		return fmt.Errorf("error while watching: %w", err)
	}
	return nil
}
