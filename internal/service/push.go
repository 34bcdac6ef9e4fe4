package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/torfstack/gcff/internal/deploy"
	"github.com/torfstack/gcff/internal/deps"
	"github.com/torfstack/gcff/internal/local"
)

// PushStatic pushes a directory of static files as one module.
type PushStatic struct {
	Module string
	Dir    string
	// Index is served for the module root; it defaults to Default.
	Index string
	// Default is served when a requested file does not exist.
	Default          string
	Dependencies     []string
	DependenciesFile string
	Ignore           []string
	Force            bool
}

type staticRule struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type pushOutput struct {
	Target     string   `json:"target"`
	Added      []string `json:"added"`
	Changed    []string `json:"changed"`
	Removed    []string `json:"removed"`
	Advisories []string `json:"advisories"`
	ViewURL    string   `json:"viewUrl"`
	DryRun     bool     `json:"dryRun"`
}

func (s *Service) PushStatic(ctx context.Context, req PushStatic) error {
	module, err := deploy.ParseModulePath(req.Module)
	if err != nil {
		return err
	}
	dependencies, err := readDependencies(req.Dependencies, req.DependenciesFile)
	if err != nil {
		return err
	}
	return s.pushStatic(ctx, module, dependencies, req)
}

func (s *Service) pushStatic(ctx context.Context, module deploy.Identity, dependencies map[string]string, req PushStatic) error {
	files, err := local.ReadDir(req.Dir, req.Ignore)
	if err != nil {
		return err
	}
	rules, err := staticRules(files, req.Index, req.Default)
	if err != nil {
		return err
	}

	res, err := s.engine.Push(ctx, deploy.PushRequest{
		Module:       module,
		Files:        files,
		Dependencies: dependencies,
		Rules:        rules,
		Force:        req.Force,
		AutoConfirm:  s.opts.Yes,
		DryRun:       s.opts.DryRun,
	})
	if err != nil {
		return err
	}

	out := pushOutput{
		Target:     res.Plan.Target,
		Added:      orEmpty(res.Plan.Added),
		Changed:    orEmpty(res.Plan.Changed),
		Removed:    orEmpty(res.Plan.Removed),
		Advisories: orEmpty(res.Advisories),
		ViewURL:    res.ViewURL,
		DryRun:     s.opts.DryRun,
	}
	return s.print(out, func(w io.Writer) {
		if s.opts.DryRun {
			_, _ = fmt.Fprintln(w, "Dry run, nothing was uploaded")
			return
		}
		_, _ = fmt.Fprintf(w, "Module is available at %s\n", res.ViewURL)
	})
}

// staticRules serves every file under its own path, the index file for the
// module root and the default file for anything else.
func staticRules(files map[string][]byte, index, fallback string) ([]json.RawMessage, error) {
	var rules []staticRule
	for _, name := range slices.Sorted(maps.Keys(files)) {
		rules = append(rules, staticRule{Path: name, Type: "static", Name: name})
	}
	if index == "" {
		index = fallback
	}
	if index != "" {
		rules = append(rules, staticRule{Path: ".", Type: "static", Name: index})
	}
	if fallback != "" {
		rules = append(rules, staticRule{Path: "**", Type: "static", Name: fallback})
	}

	out := make([]json.RawMessage, 0, len(rules))
	for _, rule := range rules {
		b, err := json.Marshal(rule)
		if err != nil {
			return nil, fmt.Errorf("could not encode rule for '%s': %w", rule.Path, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// readDependencies merges a package.json style file with name:version flags.
// Flags win over the file.
func readDependencies(flags []string, file string) (map[string]string, error) {
	out := map[string]string{}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("could not read dependencies file: %w", err)
		}
		var pkg struct {
			Dependencies map[string]string `json:"dependencies"`
		}
		if err = json.Unmarshal(b, &pkg); err != nil {
			return nil, fmt.Errorf("could not parse dependencies file '%s': %w", file, err)
		}
		maps.Copy(out, pkg.Dependencies)
	}
	for _, flag := range flags {
		name, version, err := deps.ParseFlag(flag)
		if err != nil {
			return nil, err
		}
		out[name] = version
	}
	return out, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
