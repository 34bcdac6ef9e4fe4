// Package remote talks to Google Cloud: Cloud Functions for the serving
// function's metadata and Cloud Storage for module content.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/torfstack/gcff/internal/deploy"
	"github.com/torfstack/gcff/internal/deps"
	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/store"
	"google.golang.org/api/cloudfunctions/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

// StoragePathVar is the service environment variable naming the bucket and
// prefix a function serves modules from, as "bucket/prefix".
const StoragePathVar = "GCFF_PATH"

var (
	ErrFunctionNotFound = errors.New("function not found")
	ErrNoStoragePath    = errors.New("no env variable " + StoragePathVar + " for provided cloud function")

	storagePathPattern = regexp.MustCompile(`^([^/]+)(/(.*))?$`)
)

// Client resolves serving functions into deployment targets.
type Client struct {
	functions *Functions
	storage   *storage.Service
}

var _ deploy.Host = (*Client)(nil)

func NewClient(functions *Functions, storageSvc *storage.Service) *Client {
	return &Client{functions: functions, storage: storageSvc}
}

// Dial creates the Cloud Functions and Cloud Storage services for a project
// and region.
func Dial(ctx context.Context, project, region string, opts ...option.ClientOption) (*Client, error) {
	fnSvc, err := cloudfunctions.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create cloud functions service: %w", err)
	}
	storageSvc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create storage service: %w", err)
	}
	return NewClient(NewFunctions(fnSvc, project, region), storageSvc), nil
}

func (c *Client) Resolve(ctx context.Context, functionName string) (*deploy.Target, error) {
	fn, err := c.functions.Describe(ctx, functionName)
	if err != nil {
		return nil, err
	}

	var serviceEnv, buildEnv map[string]string
	url := fn.Url
	if fn.ServiceConfig != nil {
		serviceEnv = fn.ServiceConfig.EnvironmentVariables
		if url == "" {
			url = fn.ServiceConfig.Uri
		}
	}
	if fn.BuildConfig != nil {
		buildEnv = fn.BuildConfig.EnvironmentVariables
	}

	bucket, prefix, err := ParseStoragePath(serviceEnv[StoragePathVar])
	if err != nil {
		return nil, err
	}
	server, united, err := deps.FromMetadata(buildEnv)
	if err != nil {
		return nil, err
	}
	logging.Debugf("Function '%s' serves from gs://%s/%s", functionName, bucket, prefix)

	return &deploy.Target{
		Function: deploy.Function{
			Name:               functionName,
			URL:                url,
			Bucket:             bucket,
			Prefix:             prefix,
			ServerDependencies: server,
			UnitedDependencies: united,
		},
		Store: store.Scoped(NewStorage(c.storage, bucket), prefix),
	}, nil
}

// ParseStoragePath splits a "bucket/prefix" value. A non-empty prefix always
// ends with a slash.
func ParseStoragePath(value string) (bucket, prefix string, err error) {
	if value == "" {
		return "", "", ErrNoStoragePath
	}
	match := storagePathPattern.FindStringSubmatch(value)
	if match == nil {
		return "", "", fmt.Errorf("%w: %s set to incorrect value '%s'", ErrNoStoragePath, StoragePathVar, value)
	}
	return match[1], deploy.NormalizeDestination(match[3]), nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
