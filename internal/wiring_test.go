package internal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/quire/internal/engagement"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/testutil"
)

func testConfig(t *testing.T, root string) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Content.Root = root
	cfg.Content.ArtifactPath = filepath.Join(t.TempDir(), "public", "search-index.json")
	cfg.Engagement = EngagementConfig{Driver: DriverStatic}
	return cfg
}

func TestLoadArtifact_BuildsAndWrites(t *testing.T) {
	root, store := testutil.WriteCorpus(t, testutil.ScenarioFiles)
	cfg := testConfig(t, root)
	logger := newLogger(cfg, io.Discard)

	a, err := loadArtifact(context.Background(), cfg, store, logger)
	if err != nil {
		t.Fatalf("loadArtifact: %v", err)
	}
	if a.Len() != 3 {
		t.Errorf("documents = %d, want 3", a.Len())
	}
	if _, err := os.Stat(cfg.Content.ArtifactPath); err != nil {
		t.Fatalf("artifact not written: %v", err)
	}

	// Second start reads the file even if the corpus is gone.
	if err := os.Remove(filepath.Join(root, "c.md")); err != nil {
		t.Fatal(err)
	}
	again, err := loadArtifact(context.Background(), cfg, store, logger)
	if err != nil {
		t.Fatalf("loadArtifact: %v", err)
	}
	if again.Checksum() != a.Checksum() {
		t.Error("expected the prebuilt artifact to be reused")
	}
}

func TestLoadArtifact_WatchRebuilds(t *testing.T) {
	root, store := testutil.WriteCorpus(t, testutil.ScenarioFiles)
	cfg := testConfig(t, root)
	cfg.Content.Watch = true
	logger := newLogger(cfg, io.Discard)

	stale, err := index.Build(testutil.ScenarioDocs()[:1])
	if err != nil {
		t.Fatal(err)
	}
	if err := index.WriteFile(cfg.Content.ArtifactPath, stale); err != nil {
		t.Fatal(err)
	}

	a, err := loadArtifact(context.Background(), cfg, store, logger)
	if err != nil {
		t.Fatalf("loadArtifact: %v", err)
	}
	if a.Len() != 3 {
		t.Errorf("documents = %d, want a fresh build of 3", a.Len())
	}
}

func TestOpenEngagement(t *testing.T) {
	ctx := context.Background()

	p, closeFn, err := openEngagement(ctx, EngagementConfig{Driver: DriverStatic})
	if err != nil {
		t.Fatalf("static: %v", err)
	}
	scores, err := p.GetScores(ctx, []string{"a"})
	if err != nil || len(scores) != 0 {
		t.Errorf("static scores = %v, %v", scores, err)
	}
	_ = closeFn()

	dsn := filepath.Join(t.TempDir(), "engagement.db")
	db, err := engagement.NewSQLite(dsn)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AddLike(ctx, "a", "u1"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	p, closeFn, err = openEngagement(ctx, EngagementConfig{Driver: DriverSQLite, DSN: dsn, BatchSize: 1})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer closeFn()
	scores, err = p.GetScores(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("GetScores: %v", err)
	}
	if scores["a"] != 1 {
		t.Errorf("scores = %v", scores)
	}

	if _, _, err := openEngagement(ctx, EngagementConfig{Driver: "mongo"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestSplitAddrs(t *testing.T) {
	got := splitAddrs(" a:6379, ,b:6379")
	if len(got) != 2 || got[0] != "a:6379" || got[1] != "b:6379" {
		t.Errorf("splitAddrs = %q", got)
	}
}

func TestHTTPHandler_Health(t *testing.T) {
	root, store := testutil.WriteCorpus(t, testutil.ScenarioFiles)
	cfg := testConfig(t, root)
	logger := newLogger(cfg, io.Discard)

	holder := index.NewHolder(nil)
	svc := newService(cfg, holder, engagement.Static{}, store, logger)
	h := newHTTPHandler(cfg, svc, nil)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/health/live"); rec.Code != http.StatusOK {
		t.Errorf("live = %d", rec.Code)
	}
	if rec := get("/health/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready before load = %d", rec.Code)
	}

	a, err := loadArtifact(context.Background(), cfg, store, logger)
	if err != nil {
		t.Fatal(err)
	}
	svc.Swap(a)

	if rec := get("/health/ready"); rec.Code != http.StatusOK {
		t.Errorf("ready after load = %d", rec.Code)
	}
	rec := get("/api/search?q=paper")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"slug":"a"`) {
		t.Errorf("search = %d %s", rec.Code, rec.Body.String())
	}
	rec = get("/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "quire_http_requests_total") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestRunBuild(t *testing.T) {
	root, _ := testutil.WriteCorpus(t, testutil.ScenarioFiles)
	cfg := testConfig(t, root)
	out := filepath.Join(t.TempDir(), "out", "index.json")

	if err := RunBuild(context.Background(), WithConfig(cfg), WithOutput(out)); err != nil {
		t.Fatalf("RunBuild: %v", err)
	}
	a, err := index.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if a.Len() != 3 {
		t.Errorf("documents = %d", a.Len())
	}

	if err := RunBuild(context.Background()); err == nil {
		t.Error("expected error without config")
	}
}
