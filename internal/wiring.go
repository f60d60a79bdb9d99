package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/quire/internal/api"
	"github.com/starford/quire/internal/engagement"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/search"
	"github.com/starford/quire/internal/searchservice"
	"github.com/starford/quire/internal/sse"
	"github.com/starford/quire/internal/storage"
)

var errConfigRequired = errors.New("config is required")

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func loadOptions(cfg *Config, logger *slog.Logger) index.LoadOptions {
	return index.LoadOptions{
		IncludeDrafts: cfg.Content.IncludeDrafts,
		Logger:        logger,
	}
}

// loadArtifact returns the snapshot to serve at startup. A prebuilt artifact
// is preferred unless the watcher is on; otherwise the corpus is built and
// the result written to artifact_path.
func loadArtifact(ctx context.Context, cfg *Config, store storage.Provider, logger *slog.Logger) (*index.Artifact, error) {
	path := cfg.Content.ArtifactPath
	if path != "" && !cfg.Content.Watch {
		a, err := index.ReadFile(path)
		if err == nil {
			logger.Info("index: artifact loaded",
				slog.String("path", path),
				slog.Int("documents", a.Len()))
			return a, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Info("index: no artifact, building", slog.String("path", path))
	}

	a, err := index.BuildIndex(ctx, store, loadOptions(cfg, logger))
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := index.WriteFile(path, a); err != nil {
			return nil, err
		}
	}
	logger.Info("index: built",
		slog.Int("documents", a.Len()),
		slog.String("checksum", a.Checksum()))
	return a, nil
}

// openEngagement opens the configured backend wrapped in the batching
// provider. The returned close func is never nil.
func openEngagement(ctx context.Context, cfg EngagementConfig) (engagement.Provider, func() error, error) {
	noop := func() error { return nil }

	var (
		p      engagement.Provider
		closer = noop
	)
	switch cfg.Driver {
	case DriverStatic:
		p = engagement.Static{}
	case DriverSQLite:
		db, err := engagement.NewSQLite(cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		p, closer = db, db.Close
	case DriverPostgres:
		db, err := engagement.NewPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		p, closer = db, db.Close
	case DriverRedis:
		r, err := engagement.NewRedis(engagement.RedisConfig{Addrs: splitAddrs(cfg.DSN)})
		if err != nil {
			return nil, noop, err
		}
		p, closer = r, r.Close
	default:
		return nil, noop, fmt.Errorf("engagement: unknown driver %q", cfg.Driver)
	}
	return engagement.Batched(p, cfg.BatchSize), closer, nil
}

func splitAddrs(dsn string) []string {
	var out []string
	for _, a := range strings.Split(dsn, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func newService(cfg *Config, holder *index.Holder, scores engagement.Provider, store storage.Provider, logger *slog.Logger) *searchservice.Service {
	return searchservice.New(holder, scores, searchservice.Config{
		Limits: search.Limits{
			Min:     cfg.Search.MinPageSize,
			Max:     cfg.Search.MaxPageSize,
			Default: cfg.Search.DefaultPageSize,
		},
		EngagementTimeout: cfg.Engagement.Timeout,
		Store:             store,
		LoadOptions:       loadOptions(cfg, logger),
		ArtifactPath:      cfg.Content.ArtifactPath,
		Logger:            logger,
	})
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

// newHTTPHandler builds the root router: health, metrics and the API under /api.
func newHTTPHandler(cfg *Config, svc *searchservice.Service, broker *sse.Broker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !svc.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "loading")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	opts := api.Options{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		DegradeHot:  cfg.Search.DegradeHot,
	}
	if broker != nil {
		opts.Events = broker
		opts.OnReload = func(a *index.Artifact) {
			broker.PublishReload(sse.ReloadInfo{Documents: a.Len(), Checksum: a.Checksum()})
		}
	}
	r.Mount("/api", api.NewRouter(svc, opts))

	return r
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create content dir: %w", err)
	}
	return nil
}
