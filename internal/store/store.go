// Package store defines the flat key to bytes namespace that module content
// and manifests live in.
package store

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("object not found")

// ObjectStore is a flat object namespace. List matches keys against a
// doublestar style glob; "**" lists everything.
type ObjectStore interface {
	List(ctx context.Context, glob string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, content []byte) error
	Delete(ctx context.Context, key string) error
}

// Scoped returns a view of s in which every key is relative to prefix.
func Scoped(s ObjectStore, prefix string) ObjectStore {
	if prefix == "" {
		return s
	}
	return &scoped{inner: s, prefix: prefix}
}

type scoped struct {
	inner  ObjectStore
	prefix string
}

func (s *scoped) List(ctx context.Context, glob string) ([]string, error) {
	keys, err := s.inner.List(ctx, s.prefix+glob)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if rel, ok := strings.CutPrefix(key, s.prefix); ok {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scoped) Put(ctx context.Context, key string, content []byte) error {
	return s.inner.Put(ctx, s.prefix+key, content)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}
