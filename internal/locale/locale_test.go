package locale

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalogsShareKeys(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "zh"}, b.Locales())
	assert.Empty(t, b.MissingKeys())

	en, ok := b.Messages("en")
	require.True(t, ok)
	zh, ok := b.Messages("zh")
	require.True(t, ok)
	assert.Len(t, en, len(zh))
	assert.Len(t, en, 31)
}

func TestTranslate(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Provenance Graph", b.T("en", "graph.title"))
	assert.Equal(t, "数据溯源图", b.T("zh", "graph.title"))
	assert.Equal(t, "Load Entity Provenance", b.T("en", "button.loadEntity"))
	assert.Equal(t, "角色", b.T("zh", "table.role"))
	assert.Equal(t, "graph.unknown", b.T("en", "graph.unknown"))
	// Unknown locales use the fallback catalog.
	assert.Equal(t, "首页", b.T("fr", "menu.home"))
}

func TestMatch(t *testing.T) {
	b, err := Load()
	require.NoError(t, err)

	cases := map[string]string{
		"":                           "en",
		"zh-CN,zh;q=0.9,en;q=0.8":    "zh",
		"en-US,en;q=0.9":             "en",
		"fr-FR":                      "en",
		"de;q=0.9, zh-Hans-CN;q=0.5": "zh",
		"not a header;;;":            "en",
	}
	for header, want := range cases {
		assert.Equal(t, want, b.Match(header), "Accept-Language %q", header)
	}
}

func TestMissingKeysAndFallbackFill(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("locale: en\nmessages:\n  menu:\n    home: Home\n    about: About\n")},
		"locales/zh.yaml": {Data: []byte("locale: zh\nmessages:\n  menu:\n    home: 首页\n")},
	}
	b, err := LoadFS(fsys, "zh", "en")
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"zh": {"menu.about"}}, b.MissingKeys())
	assert.Equal(t, []string{"zh", "en"}, b.Locales())

	zh, ok := b.Messages("zh")
	require.True(t, ok)
	assert.Equal(t, "首页", zh["menu.home"])
	assert.Equal(t, "About", zh["menu.about"])

	_, ok = b.Messages("fr")
	assert.False(t, ok)
}

func TestLoadFSErrors(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{}, "en", "zh")
	assert.Error(t, err)

	mismatched := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("locale: de\nmessages:\n  a: b\n")},
	}
	_, err = LoadFS(mismatched, "en", "en")
	assert.ErrorContains(t, err, "must match file name")

	noFallback := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("locale: en\nmessages:\n  a: b\n")},
	}
	_, err = LoadFS(noFallback, "en", "zh")
	assert.ErrorContains(t, err, `locale "zh" is not defined`)
}

func TestLoadWithConfiguredLocales(t *testing.T) {
	b, err := LoadWith("zh", "en")
	require.NoError(t, err)

	assert.Equal(t, "zh", b.Default())
	assert.Equal(t, "en", b.Fallback())
	assert.Equal(t, []string{"zh", "en"}, b.Locales())

	_, err = LoadWith("fr", "en")
	assert.Error(t, err)
}
