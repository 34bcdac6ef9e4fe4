// Package service wires configuration, credentials, remote access and the
// deploy engine behind the gcff commands.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/torfstack/gcff/internal/auth"
	"github.com/torfstack/gcff/internal/config"
	"github.com/torfstack/gcff/internal/db"
	"github.com/torfstack/gcff/internal/deploy"
	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/metrics"
	"github.com/torfstack/gcff/internal/remote"
	"github.com/torfstack/gcff/internal/ui"
)

// Options are the global command line settings. Non-empty values override
// the config file.
type Options struct {
	Project     string
	Region      string
	AccessToken string
	MetricsFile string
	JSON        bool
	Yes         bool
	DryRun      bool
}

type Service struct {
	cfg     config.Config
	opts    Options
	engine  *deploy.Engine
	journal *db.Journal
	metrics *metrics.Collector
	out     io.Writer
	started time.Time
}

func NewService(ctx context.Context, cfg config.Config, opts Options) (*Service, error) {
	cfg = opts.apply(cfg)

	creds, err := auth.Resolve(ctx, opts.AccessToken, cfg.Project)
	if err != nil {
		return nil, fmt.Errorf("could not authorize: %w", err)
	}
	client, err := remote.Dial(ctx, creds.Project, cfg.Region, creds.ClientOptions()...)
	if err != nil {
		return nil, err
	}

	journal, err := db.Open(ctx, cfg.JournalPath)
	if err != nil {
		logging.Warnf("Journal disabled: %s", err)
		journal = nil
	}

	return newService(client, cfg, opts, ui.NewPrompt(os.Stdin, os.Stderr), os.Stdout, os.Stderr, journal), nil
}

func newService(
	host deploy.Host,
	cfg config.Config,
	opts Options,
	prompter deploy.Prompter,
	out, errOut io.Writer,
	journal *db.Journal,
) *Service {
	cfg = opts.apply(cfg)
	collector := metrics.New()

	// keep stdout parseable when printing JSON
	reportTo := out
	if opts.JSON {
		reportTo = errOut
	}

	engineOpts := []deploy.Option{
		deploy.WithPrompter(prompter),
		deploy.WithReporter(ui.NewReporter(reportTo)),
		deploy.WithObserver(collector),
		deploy.WithConcurrency(cfg.Concurrency),
	}
	if journal != nil {
		engineOpts = append(engineOpts, deploy.WithRecorder(journal))
	}

	return &Service{
		cfg:     cfg,
		opts:    opts,
		engine:  deploy.NewEngine(host, engineOpts...),
		journal: journal,
		metrics: collector,
		out:     out,
		started: time.Now(),
	}
}

// Close records the command outcome, exports metrics and releases the
// journal.
func (s *Service) Close(command string, cmdErr error) {
	s.metrics.CommandFinished(command, cmdErr, time.Since(s.started))
	if s.cfg.MetricsFile != "" {
		if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			logging.Warnf("%s", err)
		}
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			logging.Debugf("Could not close journal: %s", err)
		}
	}
}

func (s *Service) print(v any, text func(w io.Writer)) error {
	if s.opts.JSON {
		return ui.JSON(s.out, v)
	}
	text(s.out)
	return nil
}

func (o Options) apply(cfg config.Config) config.Config {
	if o.Project != "" {
		cfg.Project = o.Project
	}
	if o.Region != "" {
		cfg.Region = o.Region
	}
	if o.MetricsFile != "" {
		cfg.MetricsFile = o.MetricsFile
	}
	if cfg.Region == "" {
		cfg.Region = config.DefaultRegion
	}
	return cfg
}
