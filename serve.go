// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"dnsoperator/api"
	"dnsoperator/config"
	"dnsoperator/daemon"
	"dnsoperator/logger"
	"dnsoperator/manifest"
	"dnsoperator/operator"
	"dnsoperator/revisions"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		apiEnabled bool
		apiPort    string
		dnsPort    string
		binary     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the DNS server and restart it whenever the manifest changes",
		Long: `serve creates a default manifest and Corefile when they are missing, starts
the DNS server, watches both files and restarts the server after every
change. With --api it also serves the REST API for record management.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			cfg := loaded.Config
			if cmd.Flags().Changed("api") {
				cfg.APIEnabled = apiEnabled
			}
			if apiPort != "" {
				cfg.RESTPort = apiPort
			}
			if dnsPort != "" {
				cfg.DNSPort = dnsPort
			}
			if binary != "" {
				cfg.ServerBinary = binary
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&apiEnabled, "api", false, "serve the REST API (overrides config)")
	cmd.Flags().StringVar(&apiPort, "apiport", "", "REST API port (overrides config)")
	cmd.Flags().StringVar(&dnsPort, "port", "", "DNS port written to a new Corefile (overrides config)")
	cmd.Flags().StringVar(&binary, "server", "", "DNS server binary (overrides config)")
	return cmd
}

// serve runs the operator loop and, when enabled, the API until ctx is
// cancelled or SIGINT/SIGTERM arrives.
func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	opLog := logger.NewServerLogger(logger.OperatorLog, cfg.Log)
	apiLog := logger.NewServerLogger(logger.APIServerLog, cfg.Log)

	journal, err := revisions.Open(cfg.RevisionsPath())
	if err != nil {
		return err
	}
	defer journal.Close()

	store := manifest.NewStore(cfg.ManifestPath, manifest.WithLogger(opLog), manifest.WithJournal(journal))
	if err := ensureZone(store, cfg, opLog); err != nil {
		return fmt.Errorf("prepare zone: %w", err)
	}

	state := daemon.NewState()
	state.UpdateListener(func(ls *daemon.ListenerSettings) {
		ls.ManifestPath = cfg.ManifestPath
		ls.CorefilePath = cfg.CorefilePath
		ls.DNSPort = cfg.DNSPort
		ls.APIPort = cfg.RESTPort
		ls.APIEnabled = cfg.APIEnabled
	})

	rt := operator.NewProcessRuntime(operator.ProcessConfig{
		Binary: cfg.ServerBinary,
		Args:   serverArgs(cfg),
		Dir:    filepath.Dir(cfg.CorefilePath),
		Logger: opLog.With("component", "server"),
		State:  state,
	})
	watcher, err := operator.NewFileWatcher([]string{cfg.ManifestPath, cfg.CorefilePath}, cfg.Debounce(), opLog)
	if err != nil {
		return err
	}
	defer watcher.Unwatch()

	controller := &operator.RestartController{
		Logger: opLog,
		Validate: func() error {
			return manifest.ValidateFile(store.Path())
		},
	}
	op, err := operator.New(rt, watcher, controller, operator.WithLogger(opLog), operator.WithState(state))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server process is not tied to ctx; it is stopped here once the loop ends.
	go func() {
		<-state.StopChannel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := op.Shutdown(shutdownCtx); err != nil && !errors.Is(err, operator.ErrNoRunningProcess) {
			opLog.Error("server shutdown failed", "error", err)
		}
		state.NotifyStopped()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return op.Run(gctx)
	})
	if cfg.APIEnabled {
		srv := &api.Server{Store: store, State: state, Journal: journal, Logger: apiLog}
		g.Go(func() error {
			return srv.Start(gctx, cfg.RESTPort)
		})
	}

	opLog.Info("dnsoperator started",
		"manifest", cfg.ManifestPath,
		"corefile", cfg.CorefilePath,
		"server", cfg.ServerBinary,
		"api", cfg.APIEnabled,
		"apiport", cfg.RESTPort)

	runErr := g.Wait()
	<-state.SignalStop()
	if runErr != nil {
		opLog.Error("dnsoperator stopped", "error", runErr)
		return runErr
	}
	opLog.Info("dnsoperator stopped")
	return nil
}

// serverArgs points the server at the Corefile unless the config supplies its own arguments.
func serverArgs(cfg config.Config) []string {
	if len(cfg.ServerArgs) > 0 {
		return cfg.ServerArgs
	}
	return []string{"-conf", cfg.CorefilePath}
}
