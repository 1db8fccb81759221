// Package web serves the viewer's application shell for every client-side
// route, with the route table, translations and API base baked in.
package web

import "strings"

// Route is one client-side page.
type Route struct {
	Path string `json:"path"`
	Name string `json:"name"`
	// Lazy pages are fetched on first navigation; eager ones ship with the
	// shell.
	Lazy bool `json:"lazy"`
}

// Routes is the viewer's route table, in match order.
var Routes = []Route{
	{Path: "/", Name: "Home"},
	{Path: "/project/:id", Name: "ProjectDetail", Lazy: true},
	{Path: "/template/:templateId/edit", Name: "TemplateEdit", Lazy: true},
	{Path: "/provenance", Name: "Provenance", Lazy: true},
	{Path: "/entities", Name: "EntityList", Lazy: true},
	{Path: "/about", Name: "about", Lazy: true},
}

// Match finds the route for path and extracts its ":param" segments.
func Match(path string) (Route, map[string]string, bool) {
	segments := split(path)
	for _, r := range Routes {
		if params, ok := matchSegments(split(r.Path), segments); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchSegments(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[p[1:]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}
