package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Op is one recorded call against a Memory store.
type Op struct {
	Kind string
	Key  string
}

// Memory is an in-process ObjectStore. Fault hooks let callers fail
// individual operations.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	ops     []Op

	GetErr    func(key string) error
	PutErr    func(key string) error
	DeleteErr func(key string) error
}

var _ ObjectStore = (*Memory)(nil)

func NewMemory(objects map[string][]byte) *Memory {
	m := &Memory{objects: make(map[string][]byte)}
	for key, content := range objects {
		m.objects[key] = slices.Clone(content)
	}
	return m
}

func (m *Memory) List(_ context.Context, glob string) ([]string, error) {
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid glob pattern '%s'", glob)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, key := range slices.Sorted(maps.Keys(m.objects)) {
		if ok, _ := doublestar.Match(glob, key); ok {
			out = append(out, key)
		}
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.record("get", key)
	if m.GetErr != nil {
		if err := m.GetErr(key); err != nil {
			return nil, err
		}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return slices.Clone(content), nil
}

func (m *Memory) Put(_ context.Context, key string, content []byte) error {
	m.record("put", key)
	if m.PutErr != nil {
		if err := m.PutErr(key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = slices.Clone(content)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.record("delete", key)
	if m.DeleteErr != nil {
		if err := m.DeleteErr(key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(m.objects, key)
	return nil
}

// Keys returns every stored key in order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.objects))
}

// Object returns the stored content for key.
func (m *Memory) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.objects[key]
	return content, ok
}

// Ops returns the keys touched by the given kind of call, sorted.
func (m *Memory) Ops(kind string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, op := range m.ops {
		if op.Kind == kind {
			out = append(out, op.Key)
		}
	}
	slices.Sort(out)
	return out
}

// ResetOps forgets every recorded call.
func (m *Memory) ResetOps() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = nil
}

func (m *Memory) record(kind, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, Op{Kind: kind, Key: key})
}
