// Package auth resolves the Google Cloud credentials and project gcff acts
// with.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/torfstack/gcff/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

var (
	ErrNoProject = errors.New("no project configured; pass --project or set 'project' in the config file")

	findDefaultCredentials = google.FindDefaultCredentials
)

type Credentials struct {
	TokenSource oauth2.TokenSource
	Project     string
}

// Resolve uses accessToken when given and Application Default Credentials
// otherwise. An explicit project wins over the one the credentials carry.
func Resolve(ctx context.Context, accessToken, project string) (*Credentials, error) {
	if accessToken != "" {
		if project == "" {
			return nil, fmt.Errorf("--access-token requires a project: %w", ErrNoProject)
		}
		logging.Debug("Using provided access token")
		return &Credentials{
			TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Project:     project,
		}, nil
	}

	creds, err := findDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("could not find application default credentials: %w", err)
	}
	if project == "" {
		project = creds.ProjectID
	}
	if project == "" {
		return nil, ErrNoProject
	}
	logging.Debugf("Using application default credentials for project '%s'", project)
	return &Credentials{TokenSource: creds.TokenSource, Project: project}, nil
}

func (c *Credentials) ClientOptions() []option.ClientOption {
	return []option.ClientOption{option.WithTokenSource(c.TokenSource)}
}
