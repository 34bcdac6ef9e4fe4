package deploy

import (
	"context"

	"github.com/torfstack/gcff/internal/store"
)

// Function describes a serving function as far as module deployment cares.
type Function struct {
	Name string
	// URL is the public base address of the function.
	URL string
	// Bucket and Prefix locate the object namespace the function serves from.
	Bucket string
	Prefix string
	// ServerDependencies are declared by the function's own source.
	ServerDependencies map[string]string
	// UnitedDependencies is the recorded union across the function and every
	// deployed module.
	UnitedDependencies map[string]string
}

// Target is a resolved function together with its scoped object store.
type Target struct {
	Function Function
	Store    store.ObjectStore
}

// Host resolves a function name into a deployment target.
type Host interface {
	Resolve(ctx context.Context, functionName string) (*Target, error)
}
