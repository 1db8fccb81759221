package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/api"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/locale"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/seed"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

type recorded struct {
	method      string
	uri         string
	contentType string
}

type recorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.seen...)
}

func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.seen = append(rec.seen, recorded{
			method:      r.Method,
			uri:         r.URL.RequestURI(),
			contentType: r.Header.Get("Content-Type"),
		})
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestRequestURLs(t *testing.T) {
	srv, rec := recordingServer(t, http.StatusOK, `{"success":true,"data":{}}`)
	c := New(srv.URL + "/api/")
	ctx := context.Background()

	calls := []struct {
		name string
		call func() error
		uri  string
	}{
		{"graph", func() error { _, err := c.GetGraph(ctx); return err }, "/api/provenance/graph"},
		{"entity", func() error { _, err := c.GetEntityProvenance(ctx, "e1"); return err }, "/api/provenance/entity/e1"},
		{"activity", func() error { _, err := c.GetActivityProvenance(ctx, "a 1"); return err }, "/api/provenance/activity/a%201"},
		{"search", func() error { _, err := c.Search(ctx, "lv", ""); return err }, "/api/provenance/search?q=lv"},
		{"search typed", func() error { _, err := c.Search(ctx, "light curve", "entity"); return err }, "/api/provenance/search?q=light+curve&type=entity"},
		{"timeline", func() error { _, err := c.GetTimeline(ctx); return err }, "/api/provenance/timeline"},
		{"entity lineage", func() error { _, err := c.GetEntityLineage(ctx, "e1"); return err }, "/api/provenance/graph/e1"},
		{"activity lineage", func() error { _, err := c.GetActivityLineage(ctx, "a1"); return err }, "/api/provenance/activity-graph/a1"},
		{"summary", func() error { _, err := c.GetSummary(ctx); return err }, "/api/provenance/graph-summary"},
	}

	for i, tc := range calls {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.call())
			seen := rec.all()
			require.Len(t, seen, i+1)
			got := seen[i]
			assert.Equal(t, http.MethodGet, got.method)
			assert.Equal(t, tc.uri, got.uri)
			assert.Equal(t, "application/json", got.contentType)
		})
	}
}

func TestNon2xxIsStatusError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		srv, _ := recordingServer(t, status, `{"success":false,"error":"boom"}`)

		_, err := New(srv.URL).GetGraph(context.Background())
		var se *StatusError
		require.True(t, errors.As(err, &se), "status %d", status)
		assert.Equal(t, status, se.StatusCode)
		assert.Equal(t, "HTTP error! status: "+strconv.Itoa(status), err.Error())
	}
}

func TestDefaults(t *testing.T) {
	c := New("")
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)

	c = New("http://example.test/api", WithTimeout(time.Second))
	assert.Equal(t, time.Second, c.http.Timeout)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, WithTimeout(20*time.Millisecond)).GetGraph(context.Background())
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestAgainstAPIServer(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	sample, err := seed.Load(store)
	require.NoError(t, err)
	locales, err := locale.Load()
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewServer(store, locales, zap.NewNop().Sugar(), "/api"))
	t.Cleanup(srv.Close)

	c := New(srv.URL + "/api")
	ctx := context.Background()

	graph, err := c.GetGraph(ctx)
	require.NoError(t, err)
	assert.True(t, graph.Success)
	assert.Len(t, graph.Data.Entities, 11)

	prov, err := c.GetEntityProvenance(ctx, sample.Lv1.ID)
	require.NoError(t, err)
	assert.Equal(t, "lv1", prov.Data.Entity.Name)
	require.NotNil(t, prov.Data.GeneratedBy.Activity)
	assert.Equal(t, "Data Generation Software", prov.Data.GeneratedBy.Activity.Name)
	assert.Len(t, prov.Data.DerivedFrom, 4)

	act, err := c.GetActivityProvenance(ctx, sample.Generation.ID)
	require.NoError(t, err)
	assert.Len(t, act.Data.Inputs, 4)
	assert.Len(t, act.Data.Dependencies, 1)

	found, err := c.Search(ctx, "LV", "entity")
	require.NoError(t, err)
	assert.Len(t, found.Data.Entities, 2)
	assert.Empty(t, found.Data.Activities)

	tl, err := c.GetTimeline(ctx)
	require.NoError(t, err)
	assert.Len(t, tl.Data.Timeline, 19)

	lin, err := c.GetEntityLineage(ctx, sample.Image.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, lin.Data.TotalNodes)
	assert.Len(t, lin.Data.NodesByLevel[0], 2)

	sum, err := c.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, sum.Data.Entities.Total)

	_, err = c.GetEntityProvenance(ctx, "ghost")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	_, err = c.Search(ctx, "", "")
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}
