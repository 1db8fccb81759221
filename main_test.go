package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/config"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/locale"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/models"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/server"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/web"
)

var bootstrapRE = regexp.MustCompile(`(?s)<script id="bootstrap" type="application/json">(.*?)</script>`)

func newTestHandler(t *testing.T, apiBase string) http.Handler {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	locales, err := locale.Load()
	if err != nil {
		t.Fatalf("locale.Load: %v", err)
	}

	cfg := config.Config{Transport: config.TransportHTTP, Port: "0", DataDir: t.TempDir(), APIBase: apiBase}
	return newHandler(cfg, zap.NewNop().Sugar(), server.New(store), store, locales)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandlerRoutes(t *testing.T) {
	h := newTestHandler(t, "/v1")

	rec := get(t, h, "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("/health = %d %q", rec.Code, rec.Body.String())
	}

	rec = get(t, h, "/v1/provenance/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("/v1/provenance/graph = %d: %s", rec.Code, rec.Body.String())
	}
	var env models.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success {
		t.Errorf("envelope = %+v, want success", env)
	}

	rec = get(t, h, "/v1/provenance/entity/ghost")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown entity = %d, want 404", rec.Code)
	}

	rec = get(t, h, "/provenance")
	if rec.Code != http.StatusOK {
		t.Errorf("shell route = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	m := bootstrapRE.FindSubmatch(body)
	if m == nil {
		t.Fatalf("no bootstrap block in %s", body)
	}
	var boot web.Bootstrap
	if err := json.Unmarshal(m[1], &boot); err != nil {
		t.Fatalf("decode bootstrap: %v", err)
	}
	if boot.APIBase != "/v1" || boot.Route != "Provenance" {
		t.Errorf("bootstrap = %+v, want route Provenance under /v1", boot)
	}

	if rec := get(t, h, "/no/such/page"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown page = %d, want 404", rec.Code)
	}
}

func TestHTTPServerLeavesStreamsOpen(t *testing.T) {
	srv := newHTTPServer(":0", http.NotFoundHandler())
	if srv.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %v, want 0 so /mcp streams are not cut", srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout <= 0 {
		t.Error("ReadHeaderTimeout should be set")
	}
}
