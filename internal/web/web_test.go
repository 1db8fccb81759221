package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/locale"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		path   string
		name   string
		params map[string]string
	}{
		{"/", "Home", map[string]string{}},
		{"/project/42", "ProjectDetail", map[string]string{"id": "42"}},
		{"/project/42/", "ProjectDetail", map[string]string{"id": "42"}},
		{"/template/t-9/edit", "TemplateEdit", map[string]string{"templateId": "t-9"}},
		{"/provenance", "Provenance", map[string]string{}},
		{"/entities", "EntityList", map[string]string{}},
		{"/about", "about", map[string]string{}},
	}
	for _, tc := range cases {
		route, params, ok := Match(tc.path)
		require.True(t, ok, tc.path)
		assert.Equal(t, tc.name, route.Name, tc.path)
		assert.Equal(t, tc.params, params, tc.path)
	}

	for _, path := range []string{"/project", "/project/1/extra", "/template/1", "/unknown"} {
		_, _, ok := Match(path)
		assert.False(t, ok, path)
	}
}

func TestOnlyHomeIsEager(t *testing.T) {
	for _, r := range Routes {
		assert.Equal(t, r.Name != "Home", r.Lazy, r.Name)
	}
}

var bootstrapRE = regexp.MustCompile(`(?s)<script id="bootstrap" type="application/json">(.*?)</script>`)

func render(t *testing.T, path string, header http.Header) (*http.Response, string) {
	t.Helper()
	locales, err := locale.Load()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	NewShell(locales, "/api", zap.NewNop().Sugar()).ServeHTTP(rec, req)

	resp := rec.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestShellBootstrap(t *testing.T) {
	resp, body := render(t, "/template/abc/edit", http.Header{"Accept-Language": {"zh-CN"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `<html lang="zh">`)
	assert.Contains(t, body, "<title>数据溯源图</title>")

	m := bootstrapRE.FindStringSubmatch(body)
	require.Len(t, m, 2)
	var b Bootstrap
	require.NoError(t, json.Unmarshal([]byte(m[1]), &b))
	assert.Equal(t, "TemplateEdit", b.Route)
	assert.Equal(t, map[string]string{"templateId": "abc"}, b.Params)
	assert.Equal(t, "zh", b.Locale)
	assert.Equal(t, "zh", b.FallbackLocale)
	assert.Equal(t, "/api", b.APIBase)
	assert.Equal(t, "节点详情", b.Messages["dialog.nodeDetail"])
	assert.Len(t, b.Routes, len(Routes))
}

func TestShellLocaleOverride(t *testing.T) {
	_, body := render(t, "/about?lang=en", http.Header{"Accept-Language": {"zh"}})
	assert.Contains(t, body, `<html lang="en">`)
	assert.Contains(t, body, ">About</a>")

	_, body = render(t, "/about", http.Header{"Cookie": {"locale=zh"}})
	assert.Contains(t, body, `<html lang="zh">`)

	_, body = render(t, "/about", nil)
	assert.Contains(t, body, `<html lang="en">`)
}

func TestShellUnknownPath(t *testing.T) {
	resp, _ := render(t, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
