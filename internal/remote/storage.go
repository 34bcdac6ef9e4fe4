package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/store"
	"google.golang.org/api/storage/v1"
)

// Storage is a bucket of Cloud Storage seen as a flat object store.
type Storage struct {
	svc    *storage.Service
	bucket string
}

var _ store.ObjectStore = (*Storage)(nil)

func NewStorage(svc *storage.Service, bucket string) *Storage {
	return &Storage{svc: svc, bucket: bucket}
}

func (s *Storage) List(ctx context.Context, glob string) ([]string, error) {
	var keys []string
	call := s.svc.Objects.List(s.bucket).
		Prefix(literalPrefix(glob)).
		MatchGlob(glob).
		Fields("nextPageToken", "items(name)")
	err := call.Pages(ctx, func(objects *storage.Objects) error {
		for _, obj := range objects.Items {
			// folder placeholders created by the console
			if strings.HasSuffix(obj.Name, "/") {
				continue
			}
			keys = append(keys, obj.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not list gs://%s/%s: %w", s.bucket, glob, err)
	}
	return keys, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := s.svc.Objects.Get(s.bucket, key).Context(ctx).Download()
	switch {
	case isNotFound(err):
		return nil, fmt.Errorf("%w: gs://%s/%s", store.ErrNotFound, s.bucket, key)
	case err != nil:
		return nil, fmt.Errorf("could not download gs://%s/%s: %w", s.bucket, key, err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logging.Debugf("Could not close body: %s", err)
		}
	}(res.Body)

	content, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read gs://%s/%s: %w", s.bucket, key, err)
	}
	return content, nil
}

func (s *Storage) Put(ctx context.Context, key string, content []byte) error {
	_, err := s.svc.Objects.Insert(s.bucket, &storage.Object{Name: key}).
		Media(bytes.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("could not upload gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	err := s.svc.Objects.Delete(s.bucket, key).Context(ctx).Do()
	switch {
	case isNotFound(err):
		return fmt.Errorf("%w: gs://%s/%s", store.ErrNotFound, s.bucket, key)
	case err != nil:
		return fmt.Errorf("could not delete gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// literalPrefix returns the part of glob before its first wildcard, which
// narrows the listing server side.
func literalPrefix(glob string) string {
	if i := strings.IndexAny(glob, `*?[{\`); i >= 0 {
		return glob[:i]
	}
	return glob
}
