package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/torfstack/gcff/internal/config"
	"github.com/torfstack/gcff/internal/deploy"
	"github.com/torfstack/gcff/internal/local"
	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/service"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "gcff",
		Short:         "Deploy modules into a shared Google Cloud Function",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		debug bool
		opts  service.Options
	)
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&opts.Project, "project", "", "Google Cloud project")
	rootCmd.PersistentFlags().StringVar(&opts.Region, "region", "", "Region of the function")
	rootCmd.PersistentFlags().StringVar(&opts.AccessToken, "access-token", "", "OAuth2 access token to use instead of application default credentials")
	rootCmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the command")
	rootCmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Print machine readable output")
	rootCmd.PersistentFlags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without changing anything")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.SetDebug(debug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// withService builds the service for a command and reports its outcome
	// when the command returns.
	withService := func(name string, fn func(ctx context.Context, srv *service.Service) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return err
			}
			srv, err := service.NewService(ctx, cfg, opts)
			if err != nil {
				return err
			}
			err = fn(ctx, srv)
			srv.Close(name, err)
			return err
		}
	}

	var clientCmd = &cobra.Command{
		Use:   "client",
		Short: "Push, list, remove and verify modules",
	}

	var push service.PushStatic
	var (
		watch    bool
		debounce = local.DefaultDebounce
	)
	var pushCmd = &cobra.Command{
		Use:   "push",
		Short: "Push a module",
	}
	var pushStaticCmd = &cobra.Command{
		Use:   "static FUNCTION[/PATH] DIR",
		Short: "Push a directory of static files as a module",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			push.Module, push.Dir = args[0], args[1]
			return withService("push", func(ctx context.Context, srv *service.Service) error {
				if watch {
					return srv.WatchStatic(ctx, push, debounce)
				}
				return srv.PushStatic(ctx, push)
			})(cmd, args)
		},
	}
	pushStaticCmd.Flags().StringVar(&push.Index, "index", "", "File served for the module root")
	pushStaticCmd.Flags().StringVar(&push.Default, "default", "", "File served when a path does not exist")
	pushStaticCmd.Flags().StringArrayVar(&push.Dependencies, "dependency", nil, "Dependency as name:version, may be repeated")
	pushStaticCmd.Flags().StringVar(&push.DependenciesFile, "dependencies-file", "", "package.json to read dependencies from")
	pushStaticCmd.Flags().StringArrayVar(&push.Ignore, "ignore", nil, "Glob of files to leave out, may be repeated")
	pushStaticCmd.Flags().BoolVar(&push.Force, "force", false, "Upload every file and skip dependency validation")
	pushStaticCmd.Flags().BoolVar(&watch, "watch", false, "Push again whenever the directory changes")
	pushStaticCmd.Flags().DurationVar(&debounce, "debounce", debounce, "Quiet period before a watched change is pushed")
	pushCmd.AddCommand(pushStaticCmd)

	var listCmd = &cobra.Command{
		Use:   "list FUNCTION",
		Short: "List the modules deployed to a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService("list", func(ctx context.Context, srv *service.Service) error {
				return srv.ListModules(ctx, args[0])
			})(cmd, args)
		},
	}

	var removeCmd = &cobra.Command{
		Use:   "remove FUNCTION[/PATH]",
		Short: "Remove a module and its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService("remove", func(ctx context.Context, srv *service.Service) error {
				return srv.Remove(ctx, args[0])
			})(cmd, args)
		},
	}

	var removeDamaged bool
	var pruneCmd = &cobra.Command{
		Use:   "prune FUNCTION",
		Short: "Verify deployed files and remove the ones no module references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService("prune", func(ctx context.Context, srv *service.Service) error {
				return srv.Prune(ctx, args[0], removeDamaged)
			})(cmd, args)
		},
	}
	pruneCmd.Flags().BoolVar(&removeDamaged, "remove-damaged-files", false, "Also remove damaged files and manifests")

	clientCmd.AddCommand(pushCmd, listCmd, removeCmd, pruneCmd)

	var dependenciesCmd = &cobra.Command{
		Use:   "dependencies",
		Short: "Inspect the dependencies of a function",
	}

	var dependenciesListCmd = &cobra.Command{
		Use:   "list FUNCTION",
		Short: "List the dependencies installed on a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService("dependencies-list", func(ctx context.Context, srv *service.Service) error {
				return srv.Dependencies(ctx, args[0])
			})(cmd, args)
		},
	}

	var saveTo string
	var dependenciesCheckCmd = &cobra.Command{
		Use:   "check FUNCTION",
		Short: "Compare installed dependencies with what the deployed modules need",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService("dependencies-check", func(ctx context.Context, srv *service.Service) error {
				return srv.CheckDependencies(ctx, args[0], saveTo)
			})(cmd, args)
		},
	}
	dependenciesCheckCmd.Flags().StringVar(&saveTo, "save", "", "Write the proposed dependencies to this file")

	dependenciesCmd.AddCommand(dependenciesListCmd, dependenciesCheckCmd)

	var limit int
	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show the changes made from this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return err
			}
			return service.History(ctx, cfg, limit, opts.JSON, os.Stdout)
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show, 0 for all")

	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	var configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Interactively create the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Init(); err != nil {
				return err
			}
			fmt.Printf("Configuration written to %s\n", config.Path())
			return nil
		},
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(clientCmd, dependenciesCmd, historyCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, deploy.ErrCanceled) {
			fmt.Fprintln(os.Stderr, "Canceled")
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
