package deploy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/torfstack/gcff/internal/deps"
	"github.com/torfstack/gcff/internal/diff"
	"github.com/torfstack/gcff/internal/manifest"
)

var (
	ErrCanceled       = errors.New("canceled")
	ErrReservedFile   = errors.New(manifest.Filename + " must not be provided in files")
	ErrModuleNotFound = errors.New("module not found")
)

// ConflictError reports dependencies that are demanded in more than one
// version.
type ConflictError struct {
	Conflicts []deps.Conflict
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	b.WriteString("conflict in dependencies detected:")
	for _, c := range e.Conflicts {
		b.WriteString("\n")
		b.WriteString(c.String())
	}
	b.WriteString("\nsolve the conflicts manually with 'dependencies sync' by adding, changing or removing dependencies," +
		" or push with --force and fix dependencies later (may lead to downtime for this module)")
	return b.String()
}

// DependencyDriftError reports that a push would change the function's
// dependency union. The union is never changed as a side effect of a push.
type DependencyDriftError struct {
	Diff diff.Result[string]
}

// Flags returns the 'dependencies sync' flags that reconcile the union.
func (e *DependencyDriftError) Flags() []string {
	var flags []string
	for _, added := range e.Diff.Added {
		flags = append(flags, fmt.Sprintf("--add-dependency=%s:%s", added.Key, added.Value))
	}
	for _, changed := range e.Diff.Changed {
		flags = append(flags, fmt.Sprintf("--add-dependency=%s:%s", changed.Key, changed.To))
	}
	for _, removed := range e.Diff.Removed {
		flags = append(flags, fmt.Sprintf("--remove-dependency=%s", removed.Key))
	}
	return flags
}

func (e *DependencyDriftError) Error() string {
	return fmt.Sprintf(
		"dependencies have been changed; to avoid downtime, run 'dependencies sync' first with flags '%s',"+
			" or push with --force and fix dependencies with 'dependencies sync' later (may lead to downtime for this module)",
		strings.Join(e.Flags(), " "),
	)
}

// DiscoveryError is raised when a listed manifest key does not end with the
// manifest filename.
type DiscoveryError struct {
	Key string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("internal error: invalid manifest name '%s'", e.Key)
}

// StageError records the push stage an error occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
