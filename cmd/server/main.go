package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/sudoku-race/internal/api"
	"github.com/mcoot/sudoku-race/internal/config"
	"github.com/mcoot/sudoku-race/internal/factory"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sudoku-race-server",
		Short: "Two-player sudoku race server",
		Long: `sudoku-race-server hosts head-to-head sudoku races.

Players create and join rooms over the JSON API, then race over the /ws
websocket. Spectators can follow a room over server-sent events.`,
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (env: SUDOKU_*)")
	cmd.Flags().Int("port", 0, "Override the listen port")
	cmd.Flags().String("storage", "", "Override the results storage backend: memory, redis")
	cmd.Flags().String("log-level", "", "Override the log level")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		v := config.New(configPath)
		if configPath != "" {
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config file: %w", err)
			}
		}
		for key, flag := range map[string]string{
			"server.port":   "port",
			"storage.type":  "storage",
			"logging.level": "log-level",
		} {
			if cmd.Flags().Changed(flag) {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
		}

		cfg, err := config.LoadFromViper(v)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return run(cmd.Context(), cfg, newLogger(os.Stdout, cfg.Logging))
	}

	return cmd
}

func newLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func run(parent context.Context, cfg config.Config, logger *slog.Logger) error {
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage.Type,
		Session:     cfg.Session.Protocol(),
	}
	if cfg.Storage.Type == config.StorageTypeRedis {
		redisCfg := cfg.Storage.Redis.Client()
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer app.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.Engine.Run(ctx)

	server := api.NewServer(app.Handler, cfg.Server.HTTP(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", cfg.Server.Addr()),
		slog.String("storage", cfg.Storage.Type))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
