package template_test

import (
	stdErrors "errors"
	"net/url"
	"testing"

	"github.com/reglet-dev/opensearch-nix/application/template"
	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestNixRenderer_Render(t *testing.T) {
	renderer := template.NewNixRenderer()

	t.Run("Full Description", func(t *testing.T) {
		desc := &entities.SearchDescription{
			ShortName:   "Test",
			Description: "Hi there",
			Images: []entities.SearchImage{
				{Type: "image/x-icon", Width: 16, Height: 16, URL: mustURL(t, "https://example.com/small.ico")},
				{Type: "image/x-icon", Width: 32, Height: 32, URL: mustURL(t, "https://example.com/large.ico")},
			},
			URLs: []entities.SearchURL{
				{Type: "text/html", Template: mustURL(t, "https://example.com/search?q={searchTerms}&lang=en")},
				{Type: "application/x-suggestions+json", Template: mustURL(t, "https://example.com/suggest/{searchTerms}")},
			},
		}

		out, err := renderer.Render(desc)
		require.NoError(t, err)

		want := `"Test" = {
    urls = [
        {
            template = "https://example.com/search";
            type = "text/html";
            params = [
                {
                    name = "q";
                    value = "{searchTerms}";
                }
                {
                    name = "lang";
                    value = "en";
                }
            ];
        }
        {
            template = "https://example.com/suggest/{searchTerms}";
            type = "application/x-suggestions+json";
        }
    ];
    iconUpdateURL = "https://example.com/large.ico";
    description = "Hi there";
};`
		assert.Equal(t, want, string(out))
	})

	t.Run("No Image And Empty Query", func(t *testing.T) {
		desc := &entities.SearchDescription{
			ShortName: "Bare",
			URLs:      []entities.SearchURL{{Type: "text/html", Template: mustURL(t, "https://example.com/?")}},
		}

		out, err := renderer.Render(desc)
		require.NoError(t, err)

		want := `"Bare" = {
    urls = [
        {
            template = "https://example.com/";
            type = "text/html";
            params = [
            ];
        }
    ];
    description = "";
};`
		assert.Equal(t, want, string(out))
	})

	t.Run("Strings Are Escaped", func(t *testing.T) {
		desc := &entities.SearchDescription{
			ShortName:   `Say "hi"`,
			Description: "costs ${price}\\unit",
			URLs:        []entities.SearchURL{{Type: "text/html", Template: mustURL(t, "https://example.com/s?q=a%22b")}},
		}

		out, err := renderer.Render(desc)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"Say \"hi\"" = {`)
		assert.Contains(t, string(out), `description = "costs \${price}\\unit";`)
		assert.Contains(t, string(out), `value = "a\"b";`)
	})

	t.Run("No URL Fails", func(t *testing.T) {
		_, err := renderer.Render(&entities.SearchDescription{ShortName: "Empty"})
		require.Error(t, err)
		assert.True(t, stdErrors.Is(err, errors.ErrNoSearchURL))
		assert.Equal(t, "OpenSearch requires at least one defined URL; none were found", err.Error())
	})

	t.Run("Malformed Query Escape Kept", func(t *testing.T) {
		raw := "https://example.com/s?q={searchTerms}&pct=100%"
		desc := &entities.SearchDescription{
			ShortName: "Pct",
			URLs:      []entities.SearchURL{{Type: "text/html", Template: mustURL(t, raw), Raw: raw}},
		}
		out, err := renderer.Render(desc)
		require.NoError(t, err)
		assert.Contains(t, string(out), `value = "100%";`)
	})

	t.Run("Encoded Brace Stays Encoded", func(t *testing.T) {
		raw := "https://example.com/a%7Bb/{searchTerms}"
		desc := &entities.SearchDescription{
			ShortName: "Brace",
			URLs:      []entities.SearchURL{{Type: "text/html", Template: mustURL(t, raw), Raw: raw}},
		}
		out, err := renderer.Render(desc)
		require.NoError(t, err)
		assert.Contains(t, string(out), `template = "https://example.com/a%7Bb/{searchTerms}";`)
	})
}

func TestNixRenderer_NonStrict(t *testing.T) {
	out, err := template.NewNixRenderer(template.WithStrict(false)).Render(&entities.SearchDescription{
		ShortName: "x",
		URLs:      []entities.SearchURL{{Type: "text/html", Template: mustURL(t, "https://example.com/")}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), `template = "https://example.com/";`)
}
