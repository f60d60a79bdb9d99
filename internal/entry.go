// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/mcpserver"
	"github.com/starford/quire/internal/sse"
	"github.com/starford/quire/internal/storage"
)

const reloadThrottle = 2 * time.Second

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_root", cfg.Content.Root),
		slog.String("artifact_path", cfg.Content.ArtifactPath),
		slog.String("engagement_driver", cfg.Engagement.Driver),
		slog.Bool("watch", cfg.Content.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := ensureDir(cfg.Content.Root); err != nil {
		return err
	}
	store, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	scores, closeScores, err := openEngagement(ctx, cfg.Engagement)
	if err != nil {
		return fmt.Errorf("init engagement: %w", err)
	}
	defer closeScores()

	// A failed startup build leaves the service unready rather than
	// aborting: in preview the next file save can fix it.
	holder := index.NewHolder(nil)
	svc := newService(cfg, holder, scores, store, logger)
	if a, err := loadArtifact(ctx, cfg, store, logger); err != nil {
		if !cfg.Content.Watch {
			return fmt.Errorf("init index: %w", err)
		}
		logger.Error("index: initial build failed", slog.String("error", err.Error()))
	} else {
		svc.Swap(a)
	}

	broker := sse.NewBroker(reloadThrottle)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newHTTPHandler(cfg, svc, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Content.Watch {
		g.Go(func() error {
			return index.Watch(gCtx, store, cfg.Content.Root, loadOptions(cfg, logger), holder, func(a *index.Artifact) {
				svc.Swap(a)
				broker.PublishReload(sse.ReloadInfo{Documents: a.Len(), Checksum: a.Checksum()})
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunBuild builds the index artifact from content.root once and writes it.
func RunBuild(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stderr)

	out := cfg.Content.ArtifactPath
	if app.output != "" {
		out = app.output
	}
	if out == "" {
		return errors.New("build: no output path")
	}

	store, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	a, err := index.BuildIndex(ctx, store, loadOptions(cfg, logger))
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := index.WriteFile(out, a); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	logger.Info("build: artifact written",
		slog.String("path", out),
		slog.Int("documents", a.Len()),
		slog.String("checksum", a.Checksum()))
	return nil
}

// RunMCP serves the search tools over MCP stdio. Logs go to stderr since
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	scores, closeScores, err := openEngagement(ctx, cfg.Engagement)
	if err != nil {
		return fmt.Errorf("init engagement: %w", err)
	}
	defer closeScores()

	a, err := loadArtifact(ctx, cfg, store, logger)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	svc := newService(cfg, index.NewHolder(a), scores, store, logger)

	return mcpserver.New(svc, app.version).ServeStdio()
}
