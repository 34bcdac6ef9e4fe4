package deploy

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/store"
	"golang.org/x/sync/errgroup"
)

// Operation is a single write or delete against the object store.
type Operation struct {
	Key     string
	Content []byte
	Delete  bool
}

func Put(key string, content []byte) Operation {
	return Operation{Key: key, Content: content}
}

func Delete(key string) Operation {
	return Operation{Key: key, Delete: true}
}

type ApplyResult struct {
	Written       []string
	Deleted       []string
	FailedDeletes []string
}

// ApplyOptions tunes a batch.
type ApplyOptions struct {
	// Name labels the batch in progress output.
	Name     string
	Reporter Reporter
	Observer Observer
	// Limit caps concurrent operations; zero or less means no cap.
	Limit int
	// Commit is put only after every other operation finished without
	// error.
	Commit *Operation
}

// Apply issues every operation concurrently. A failed delete is logged and
// the batch continues; a failed put fails the batch and skips the commit.
// Operations that already succeeded are not rolled back.
func Apply(ctx context.Context, s store.ObjectStore, ops []Operation, opts ApplyOptions) (ApplyResult, error) {
	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	var (
		mu  sync.Mutex
		res ApplyResult
	)
	g, gctx := errgroup.WithContext(ctx)
	if opts.Limit > 0 {
		g.SetLimit(opts.Limit)
	}

	total := len(ops)
	if opts.Commit != nil {
		total++
	}
	opts.Reporter.Start(opts.Name, total)
	for _, op := range ops {
		g.Go(func() error {
			defer opts.Reporter.Advance()
			if op.Delete {
				if err := s.Delete(gctx, op.Key); err != nil {
					logging.Warnf("Can't remove file '%s': %s", op.Key, err)
					opts.Observer.DeleteFailed()
					mu.Lock()
					res.FailedDeletes = append(res.FailedDeletes, op.Key)
					mu.Unlock()
					return nil
				}
				opts.Observer.ObjectDeleted()
				mu.Lock()
				res.Deleted = append(res.Deleted, op.Key)
				mu.Unlock()
				return nil
			}

			if err := s.Put(gctx, op.Key, op.Content); err != nil {
				return fmt.Errorf("could not upload '%s': %w", op.Key, err)
			}
			logging.Debugf("Uploaded %s (%d bytes)", op.Key, len(op.Content))
			opts.Observer.ObjectWritten()
			mu.Lock()
			res.Written = append(res.Written, op.Key)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil && opts.Commit != nil {
		err = commit(ctx, s, *opts.Commit, opts)
		if err == nil {
			res.Written = append(res.Written, opts.Commit.Key)
		}
	}
	opts.Reporter.Done()

	slices.Sort(res.Written)
	slices.Sort(res.Deleted)
	slices.Sort(res.FailedDeletes)
	return res, err
}

func commit(ctx context.Context, s store.ObjectStore, op Operation, opts ApplyOptions) error {
	defer opts.Reporter.Advance()
	if err := s.Put(ctx, op.Key, op.Content); err != nil {
		return fmt.Errorf("could not upload '%s': %w", op.Key, err)
	}
	opts.Observer.ObjectWritten()
	return nil
}

func (e *Engine) apply(ctx context.Context, s store.ObjectStore, name string, ops []Operation, last *Operation) (ApplyResult, error) {
	return Apply(ctx, s, ops, ApplyOptions{
		Name:     name,
		Reporter: e.reporter,
		Observer: e.observer,
		Limit:    e.limit,
		Commit:   last,
	})
}
