package web

import (
	"bytes"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/locale"
)

// Bootstrap is the state handed to the client before its first API call.
type Bootstrap struct {
	Route          string            `json:"route"`
	Path           string            `json:"path"`
	Params         map[string]string `json:"params"`
	Locale         string            `json:"locale"`
	FallbackLocale string            `json:"fallback_locale"`
	Messages       map[string]string `json:"messages"`
	APIBase        string            `json:"api_base"`
	Routes         []Route           `json:"routes"`
}

type page struct {
	Lang      string
	Title     string
	Menu      []menuItem
	Bootstrap Bootstrap
}

type menuItem struct {
	Href  string
	Label string
}

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: #0f172a;
            color: #e2e8f0;
            min-height: 100vh;
        }
        nav {
            display: flex;
            gap: 1.5rem;
            padding: 1rem 2rem;
            background: #1e293b;
            border-bottom: 1px solid #334155;
        }
        nav a { color: #94a3b8; text-decoration: none; }
        nav a:hover { color: #f1f5f9; }
        #app { padding: 2rem; }
    </style>
</head>
<body>
    <nav>
        {{range .Menu}}<a href="{{.Href}}">{{.Label}}</a>
        {{end}}
    </nav>
    <div id="app"></div>
    <script id="bootstrap" type="application/json">{{.Bootstrap}}</script>
</body>
</html>
`))

// Shell renders the application document for every known client route.
type Shell struct {
	locales *locale.Bundle
	apiBase string
	log     *zap.SugaredLogger
}

// NewShell returns the shell handler. apiBase is the path prefix the client
// should call, for example "/api".
func NewShell(locales *locale.Bundle, apiBase string, log *zap.SugaredLogger) *Shell {
	return &Shell{locales: locales, apiBase: apiBase, log: log}
}

// Locale picks the page locale: an explicit ?lang= wins, then the locale
// cookie, then Accept-Language.
func (s *Shell) Locale(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); s.locales.HasLocale(lang) {
		return lang
	}
	if c, err := r.Cookie("locale"); err == nil && s.locales.HasLocale(c.Value) {
		return c.Value
	}
	return s.locales.Match(r.Header.Get("Accept-Language"))
}

func (s *Shell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, params, ok := Match(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	lang := s.Locale(r)
	messages, _ := s.locales.Messages(lang)
	data := page{
		Lang:  lang,
		Title: s.locales.T(lang, "graph.title"),
		Menu: []menuItem{
			{Href: "/", Label: s.locales.T(lang, "menu.home")},
			{Href: "/provenance", Label: s.locales.T(lang, "graph.title")},
			{Href: "/about", Label: s.locales.T(lang, "menu.about")},
		},
		Bootstrap: Bootstrap{
			Route:          route.Name,
			Path:           r.URL.Path,
			Params:         params,
			Locale:         lang,
			FallbackLocale: s.locales.Fallback(),
			Messages:       messages,
			APIBase:        s.apiBase,
			Routes:         Routes,
		},
	}

	var buf bytes.Buffer
	if err := shellTemplate.Execute(&buf, data); err != nil {
		s.log.Errorw("Render shell", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
