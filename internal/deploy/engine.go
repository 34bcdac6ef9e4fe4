// Package deploy pushes, verifies and removes modules mounted under a shared
// serving function, keeping manifests, remote content and the dependency
// union consistent.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/manifest"
	"github.com/torfstack/gcff/internal/store"
)

// JournalEntry describes one applied change set.
type JournalEntry struct {
	Kind          string    `json:"kind"`
	Function      string    `json:"function"`
	Destination   string    `json:"destination"`
	Puts          int       `json:"puts"`
	Deletes       int       `json:"deletes"`
	FailedDeletes int       `json:"failedDeletes"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Recorder keeps a history of applied change sets.
type Recorder interface {
	Record(ctx context.Context, entry JournalEntry) error
}

type Engine struct {
	host     Host
	prompter Prompter
	reporter Reporter
	observer Observer
	recorder Recorder
	limit    int
}

type Option func(*Engine)

func WithPrompter(p Prompter) Option {
	return func(e *Engine) { e.prompter = p }
}

func WithReporter(r Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithConcurrency caps the number of in-flight store calls per fan-out.
// Zero or less means no cap.
func WithConcurrency(limit int) Option {
	return func(e *Engine) { e.limit = limit }
}

func NewEngine(host Host, opts ...Option) *Engine {
	e := &Engine{
		host:     host,
		prompter: Decline,
		reporter: NopReporter{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) resolve(ctx context.Context, functionName string) (*Target, error) {
	if functionName == "" {
		return nil, errors.New("no function name provided")
	}
	target, err := e.host.Resolve(ctx, functionName)
	if err != nil {
		return nil, fmt.Errorf("could not resolve function '%s': %w", functionName, err)
	}
	logging.Debugf("Resolved function '%s' to gs://%s/%s", functionName, target.Function.Bucket, target.Function.Prefix)
	return target, nil
}

func (e *Engine) record(ctx context.Context, entry JournalEntry) {
	if e.recorder == nil {
		return
	}
	entry.CreatedAt = time.Now().UTC()
	if err := e.recorder.Record(ctx, entry); err != nil {
		logging.Warnf("Could not record %s of '%s/%s' in journal: %s", entry.Kind, entry.Function, entry.Destination, err)
	}
}

// fetchManifest downloads and parses a manifest; a missing manifest is the
// empty manifest.
func fetchManifest(ctx context.Context, s store.ObjectStore, key string) (*manifest.Manifest, error) {
	data, err := s.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return manifest.Empty(), nil
	case err != nil:
		return nil, fmt.Errorf("could not download '%s': %w", key, err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse '%s': %w", key, err)
	}
	return m, nil
}
