package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/creative280/proyecto-fs-servicios/internal/accesslog"
	"github.com/creative280/proyecto-fs-servicios/internal/config"
	"github.com/creative280/proyecto-fs-servicios/internal/filestore"
	"github.com/creative280/proyecto-fs-servicios/internal/logging"
	"github.com/creative280/proyecto-fs-servicios/internal/logstream"
	"github.com/creative280/proyecto-fs-servicios/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Addr       string
	DataDir    string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the file storage HTTP server",
		Long: `Start the HTTP server.

User files live in <dataDir>/archivos and the access log in
<dataDir>/log.txt unless the config file says otherwise. Flags given on
the command line override the config file.

Example:
  fsapi serve
  fsapi serve --config ./fsapi.yaml --addr :8080
  fsapi serve --data-dir /srv/fsapi --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "data directory (overrides server.dataDir)")

	return cmd
}

// loadServeConfig reads the config file and applies the flags the user set.
func loadServeConfig(opts *ServeOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = opts.Addr
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Server.DataDir = opts.DataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := loadServeConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger, closer, err := logging.New(cfg.Logging, logging.Options{
		Out:     cmd.ErrOrStderr(),
		Verbose: opts.Verbose,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	store, err := filestore.New(nil, cfg.Server.BaseDir)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open file store", err)
	}
	logger.Info("file store ready", "dir", store.BaseDir())

	engineOpts := []accesslog.Option{accesslog.WithLogger(logger)}
	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}

	var hub *logstream.Hub
	if cfg.Stream.Enabled {
		hub = logstream.NewHub(
			logstream.WithHistory(cfg.Stream.History),
			logstream.WithLogger(logger),
		)
		engineOpts = append(engineOpts, accesslog.WithObserver(hub))
		serverOpts = append(serverOpts, server.WithStream(hub))
	}

	engine, err := accesslog.New(cfg.Server.LogFile, engineOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open access log", err)
	}
	logger.Info("access log ready", "file", engine.Path())

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	hubDone := make(chan struct{})
	if hub != nil {
		go func() {
			defer close(hubDone)
			if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("log stream stopped", "error", err)
			}
		}()
	} else {
		close(hubDone)
	}

	srv := server.New(store, engine, serverOpts...)
	err = srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
	cancel()
	<-hubDone
	if err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
