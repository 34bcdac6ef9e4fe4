package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/torfstack/gcff/internal/deploy"
	"github.com/torfstack/gcff/internal/ui"
	"github.com/torfstack/gcff/internal/util"
)

func (s *Service) ListModules(ctx context.Context, functionName string) error {
	modules, err := s.engine.ListModules(ctx, functionName)
	if err != nil {
		return err
	}
	return s.print(modules, func(w io.Writer) {
		ui.Modules(w, functionName, modules)
	})
}

func (s *Service) Remove(ctx context.Context, modulePath string) error {
	module, err := deploy.ParseModulePath(modulePath)
	if err != nil {
		return err
	}
	res, err := s.engine.Remove(ctx, deploy.RemoveRequest{
		Module:      module,
		AutoConfirm: s.opts.Yes,
		DryRun:      s.opts.DryRun,
	})
	if err != nil {
		return err
	}
	return s.print(res.Applied, func(w io.Writer) {
		if s.opts.DryRun {
			_, _ = fmt.Fprintln(w, "Dry run, nothing was removed")
			return
		}
		_, _ = fmt.Fprintf(w, "Removed module %s\n", module)
	})
}

func (s *Service) Prune(ctx context.Context, functionName string, removeDamaged bool) error {
	res, err := s.engine.Prune(ctx, deploy.PruneRequest{
		Function:      functionName,
		RemoveDamaged: removeDamaged,
		AutoConfirm:   s.opts.Yes,
		DryRun:        s.opts.DryRun,
	})
	if err != nil {
		return err
	}
	return s.print(res.Report, func(w io.Writer) {
		if len(res.Report.ToRemove) > 0 && !s.opts.DryRun {
			_, _ = fmt.Fprintf(w, "Removed %d of %d files\n", len(res.Applied.Deleted), len(res.Report.ToRemove))
		}
	})
}

func (s *Service) Dependencies(ctx context.Context, functionName string) error {
	dependencies, err := s.engine.Dependencies(ctx, functionName)
	if err != nil {
		return err
	}
	return s.print(dependencies, func(w io.Writer) {
		ui.Dependencies(w, dependencies)
	})
}

// CheckDependencies reports how the recorded dependency union differs from
// the one the modules need, optionally saving the proposed union to saveTo.
// Any conflict fails the check.
func (s *Service) CheckDependencies(ctx context.Context, functionName, saveTo string) error {
	report, err := s.engine.CheckDependencies(ctx, functionName)
	if err != nil {
		return err
	}
	if saveTo != "" {
		if err = saveProposed(saveTo, report.Proposed); err != nil {
			return err
		}
	}
	if err = s.print(report, func(w io.Writer) { ui.DependencyReport(w, report) }); err != nil {
		return err
	}
	if len(report.Conflicts) > 0 {
		return fmt.Errorf("found %d conflicts", len(report.Conflicts))
	}
	return nil
}

func saveProposed(path string, proposed map[string]string) error {
	var buf bytes.Buffer
	if err := ui.JSON(&buf, map[string]map[string]string{"dependencies": proposed}); err != nil {
		return err
	}
	if err := util.WriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("could not write '%s': %w", path, err)
	}
	return nil
}
