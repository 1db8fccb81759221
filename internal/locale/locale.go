// Package locale holds the translation catalogs served to the viewer.
//
// Catalogs are YAML files embedded under locales/, one per language, with a
// nested message tree. Keys are flattened to dotted paths ("graph.title").
package locale

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLocale is the locale used when nothing else matches.
	DefaultLocale = "en"
	// FallbackLocale supplies messages missing from the active locale.
	FallbackLocale = "zh"
)

//go:embed locales/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale   string         `yaml:"locale"`
	Messages map[string]any `yaml:"messages"`
}

// Bundle is a loaded set of catalogs.
type Bundle struct {
	defaultLocale  string
	fallbackLocale string
	locales        map[string]map[string]string
	order          []string
	matcher        language.Matcher
}

// Load reads the embedded catalogs with the stock default and fallback.
func Load() (*Bundle, error) {
	return LoadWith(DefaultLocale, FallbackLocale)
}

// LoadWith reads the embedded catalogs with a configured default and
// fallback locale.
func LoadWith(defaultLocale, fallbackLocale string) (*Bundle, error) {
	return LoadFS(embeddedFS, defaultLocale, fallbackLocale)
}

// LoadFS reads every locales/*.yaml file in fsys. Both defaultLocale and
// fallbackLocale must be present.
func LoadFS(fsys fs.FS, defaultLocale, fallbackLocale string) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{
		defaultLocale:  defaultLocale,
		fallbackLocale: fallbackLocale,
		locales:        map[string]map[string]string{},
	}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}

		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if file.Locale != name {
			return nil, fmt.Errorf("catalog %s: locale %q must match file name", p, file.Locale)
		}
		if len(file.Messages) == 0 {
			return nil, fmt.Errorf("catalog %s: messages are required", p)
		}
		messages := map[string]string{}
		flatten("", file.Messages, messages)
		b.locales[name] = messages
	}

	for _, l := range []string{defaultLocale, fallbackLocale} {
		if _, ok := b.locales[l]; !ok {
			return nil, fmt.Errorf("locale %q is not defined in catalogs", l)
		}
	}

	// The default goes first so the matcher falls back to it.
	b.order = append(b.order, defaultLocale)
	for l := range b.locales {
		if l != defaultLocale {
			b.order = append(b.order, l)
		}
	}
	sort.Strings(b.order[1:])

	tags := make([]language.Tag, 0, len(b.order))
	for _, l := range b.order {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", l, err)
		}
		tags = append(tags, tag)
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func flatten(prefix string, tree map[string]any, out map[string]string) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		case nil:
			out[full] = ""
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// Default returns the default locale.
func (b *Bundle) Default() string { return b.defaultLocale }

// Fallback returns the fallback locale.
func (b *Bundle) Fallback() string { return b.fallbackLocale }

// Locales returns the available locales, default first.
func (b *Bundle) Locales() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// HasLocale reports whether a catalog exists for locale.
func (b *Bundle) HasLocale(locale string) bool {
	_, ok := b.locales[locale]
	return ok
}

// Messages returns a copy of the flattened catalog for locale, with keys it
// lacks filled in from the fallback locale.
func (b *Bundle) Messages(locale string) (map[string]string, bool) {
	own, ok := b.locales[locale]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(own))
	for k, v := range b.locales[b.fallbackLocale] {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out, true
}

// T translates key. Lookup order is locale, then the fallback locale; a key
// found in neither is returned as is.
func (b *Bundle) T(locale, key string) string {
	if v, ok := b.locales[locale][key]; ok {
		return v
	}
	if v, ok := b.locales[b.fallbackLocale][key]; ok {
		return v
	}
	return key
}

// Match picks the best available locale for an Accept-Language header.
func (b *Bundle) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.defaultLocale
	}
	_, index, confidence := b.matcher.Match(tags...)
	if confidence == language.No {
		return b.defaultLocale
	}
	return b.order[index]
}

// MissingKeys lists, per locale, the keys some other catalog defines that
// this one does not. An empty map means every catalog has the same keys.
func (b *Bundle) MissingKeys() map[string][]string {
	all := map[string]bool{}
	for _, messages := range b.locales {
		for k := range messages {
			all[k] = true
		}
	}

	missing := map[string][]string{}
	for l, messages := range b.locales {
		for k := range all {
			if _, ok := messages[k]; !ok {
				missing[l] = append(missing[l], k)
			}
		}
		sort.Strings(missing[l])
	}
	for l, keys := range missing {
		if len(keys) == 0 {
			delete(missing, l)
		}
	}
	return missing
}
