package main

import (
	"context"
	"fmt"
	"github.com/asynkron/protoactor-go/actor"
	zLog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go-toolrouter/internal/api"
	"go-toolrouter/pkg/config"
	"go-toolrouter/pkg/logger"
	"go-toolrouter/pkg/metrics"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "toolrouter",
		Short:         "Route natural-language requests to HTTP tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to a YAML config file")

	load := func() (config.Config, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return config.Config{}, err
		}
		if err := logger.NewGlobal(cfg.Log.Level, cfg.Log.Pretty); err != nil {
			return config.Config{}, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return cfg, nil
	}

	cmd.AddCommand(newServeCmd(load), newIndexCmd(load), newAskCmd(load))
	return cmd
}

func newServeCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Index the collections if needed and start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Println("starting server")
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := indexCollections(ctx, cfg, store); err != nil {
				zLog.Warn().Err(err).Msg("unable to index collections, serving the existing catalog")
			}

			reg := newRegistry()
			m := metrics.New(reg)
			wf, err := newWorkflow(cfg, store, m)
			if err != nil {
				return err
			}

			system := actor.NewActorSystem()
			app := api.New(system.Root, api.Config{
				Addr:           cfg.Server.Addr,
				RequestTimeout: cfg.Workflow.Timeout + 15*time.Second,
			}, api.Deps{Runner: wf, Tools: store, Gatherer: reg})

			go func() {
				err := app.Start()
				if err != nil {
					zLog.Panic().Err(err).Msg("server crash")
				}
			}()

			<-ctx.Done()

			stop()
			zLog.Info().Msg("shutting down gracefully")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := app.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			zLog.Info().Msg("server exiting")
			return nil
		},
	}
}

func newIndexCmd(load func() (config.Config, error)) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Parse the Postman collections and index them into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if reset {
				if err := store.Reset(ctx); err != nil {
					return err
				}
			}
			n, err := indexCollections(ctx, cfg, store)
			if err != nil {
				return err
			}
			info, err := store.Info(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d tools, %s now holds %d\n", n, info.Name, info.Count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop the indexed tools before indexing")
	return cmd
}

func newAskCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <query>",
		Short: "Run a single query through the workflow",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := openCatalog(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := indexCollections(ctx, cfg, store); err != nil {
				zLog.Warn().Err(err).Msg("unable to index collections")
			}

			wf, err := newWorkflow(cfg, store, nil)
			if err != nil {
				return err
			}
			res := wf.Run(ctx, strings.Join(args, " "), nil)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.FinalResponse)
			fmt.Fprintf(out, "\ndomain: %s\npath:   %s\n", res.Domain, strings.Join(res.WorkflowPath, " -> "))
			return nil
		},
	}
}
