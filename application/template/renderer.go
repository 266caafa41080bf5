// Package template renders OpenSearch descriptions as Nix attribute sets
// in the shape of a search engine entry of a browser configuration.
package template

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/domain/ports"
	"github.com/reglet-dev/opensearch-nix/internal/nixlit"
)

const nixEngine = `{{.name}} = {
    urls = [
{{- range .urls}}
        {
            template = {{.template}};
            type = {{.type}};
{{- if .hasQuery}}
            params = [
{{- range .params}}
                {
                    name = {{.name}};
                    value = {{.value}};
                }
{{- end}}
            ];
{{- end}}
        }
{{- end}}
    ];
{{- if .icon}}
    iconUpdateURL = {{.icon}};
{{- end}}
    description = {{.description}};
};`

// templateConfig holds configuration for the NixRenderer.
type templateConfig struct {
	strict bool // Fail on missing keys
}

func defaultTemplateConfig() templateConfig {
	return templateConfig{
		strict: true,
	}
}

// TemplateOption configures a NixRenderer.
type TemplateOption func(*templateConfig)

// WithStrict enables/disables strict mode for missing keys.
// When enabled (default), rendering fails if the template references a key
// the view does not provide.
func WithStrict(enabled bool) TemplateOption {
	return func(c *templateConfig) {
		c.strict = enabled
	}
}

// NixRenderer implements ports.DescriptionRenderer using text/template.
type NixRenderer struct {
	tmpl   *template.Template
	config templateConfig
}

var _ ports.DescriptionRenderer = (*NixRenderer)(nil)

// NewNixRenderer creates a new NixRenderer.
func NewNixRenderer(opts ...TemplateOption) *NixRenderer {
	cfg := defaultTemplateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	tmpl := template.New("engine")
	if cfg.strict {
		tmpl = tmpl.Option("missingkey=error")
	}
	return &NixRenderer{
		tmpl:   template.Must(tmpl.Parse(nixEngine)),
		config: cfg,
	}
}

// Render writes the description as a Nix attribute named after its short
// name. The output has no trailing newline. A description without any URL
// template fails with errors.ErrNoSearchURL.
func (r *NixRenderer) Render(desc *entities.SearchDescription) ([]byte, error) {
	if len(desc.URLs) == 0 {
		return nil, errors.ErrNoSearchURL
	}

	view := newView(desc)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render %q: %w", desc.ShortName, err)
	}
	return buf.Bytes(), nil
}

// newView flattens the description into quoted Nix literals.
func newView(desc *entities.SearchDescription) map[string]interface{} {
	urls := make([]map[string]interface{}, 0, len(desc.URLs))
	for _, u := range desc.URLs {
		params := u.Params()
		quoted := make([]map[string]interface{}, 0, len(params))
		for _, p := range params {
			quoted = append(quoted, map[string]interface{}{
				"name":  nixlit.Quote(p.Name),
				"value": nixlit.Quote(p.Value),
			})
		}
		urls = append(urls, map[string]interface{}{
			"template": nixlit.Quote(u.Base()),
			"type":     nixlit.Quote(u.Type),
			"hasQuery": u.HasQuery(),
			"params":   quoted,
		})
	}

	icon := ""
	if img, ok := desc.BestImage(); ok {
		icon = nixlit.Quote(img.URL.String())
	}

	return map[string]interface{}{
		"name":        nixlit.Quote(desc.ShortName),
		"description": nixlit.Quote(desc.Description),
		"urls":        urls,
		"icon":        icon,
	}
}
