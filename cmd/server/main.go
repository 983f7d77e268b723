package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/leca/ace-image-gateway/internal/config"
	"github.com/leca/ace-image-gateway/internal/database"
	"github.com/leca/ace-image-gateway/internal/router"
	"github.com/leca/ace-image-gateway/internal/upstream"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "ace-image-gateway",
		Short: "Serve content images by content id and asset name",
		Long: `ace-image-gateway resolves /{content_id}/{asset_path} against the content
metadata service and streams the referenced file from the file service.

Configuration is read from GW_* environment variables, optionally layered
over a config file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (optional, env overrides it)")
	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides GW_LISTEN_ADDR)")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	db, err := database.NewSQLiteDB(cfg.DBPath, database.WithMaxRows(cfg.DeliveryLogRows))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	up := upstream.NewClient(upstream.Config{
		MetadataBaseURL: cfg.MetadataBaseURL,
		FileBaseURL:     cfg.FileBaseURL,
		FilesAspect:     cfg.FilesAspect,
		RPS:             cfg.UpstreamRPS,
		Burst:           cfg.UpstreamBurst,
	})

	srv := router.New(db, up, cfg)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		slog.Info("starting server",
			"addr", cfg.ListenAddr,
			"metadata_base_url", cfg.MetadataBaseURL,
			"file_base_url", cfg.FileBaseURL,
			"route_prefix", cfg.RoutePrefix)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "cause", context.Cause(gctx))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
