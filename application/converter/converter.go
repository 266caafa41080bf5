// Package converter turns a website into the Nix declaration of its
// OpenSearch engine: fetch the page, follow its description link, decode
// the description and render it.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/domain/ports"
	"golang.org/x/sync/errgroup"
)

// Converter runs the conversion pipeline over injected adapters.
type Converter struct {
	client   ports.HTTPClient
	locator  ports.LinkLocator
	decoder  ports.DescriptionDecoder
	renderer ports.DescriptionRenderer
	logger   *slog.Logger
	jobs     int
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger that reports pipeline progress at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithJobs bounds how many sites ConvertAll processes at once.
func WithJobs(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.jobs = n
		}
	}
}

// New creates a Converter.
func New(client ports.HTTPClient, locator ports.LinkLocator, decoder ports.DescriptionDecoder, renderer ports.DescriptionRenderer, opts ...Option) *Converter {
	c := &Converter{
		client:   client,
		locator:  locator,
		decoder:  decoder,
		renderer: renderer,
		logger:   slog.Default(),
		jobs:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Discover fetches the page and returns the description URL it announces.
// The link is resolved against the page's final URL after redirects.
func (c *Converter) Discover(ctx context.Context, website *url.URL) (*url.URL, error) {
	c.logger.Debug("fetching HTML page", "url", website.String())
	resp, err := c.fetch(ctx, website.String())
	if err != nil {
		return nil, err
	}

	base := website
	if resp.FinalURL != "" {
		if final, err := url.Parse(resp.FinalURL); err == nil {
			base = final
		}
	}

	c.logger.Debug("received webpage; parsing", "url", base.String(), "bytes", len(resp.Body))
	link, err := c.locator.Locate(resp.Body, base)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("found opensearch url", "url", link.String())
	return link, nil
}

// Describe discovers, fetches and decodes the site's description.
func (c *Converter) Describe(ctx context.Context, website *url.URL) (*entities.SearchDescription, error) {
	link, err := c.Discover(ctx, website)
	if err != nil {
		return nil, err
	}

	resp, err := c.fetch(ctx, link.String())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("received opensearch file; parsing", "url", link.String(), "bytes", len(resp.Body))
	return c.decoder.Decode(resp.Body)
}

// Convert runs the whole pipeline for one website.
func (c *Converter) Convert(ctx context.Context, website *url.URL) ([]byte, error) {
	desc, err := c.Describe(ctx, website)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("serializing into Nix", "short_name", desc.ShortName, "urls", len(desc.URLs), "images", len(desc.Images))
	return c.renderer.Render(desc)
}

// Result is the outcome of converting one website.
type Result struct {
	Website *url.URL
	Err     error
	Nix     []byte
}

// ConvertAll converts every website with at most the configured number of
// conversions in flight. Results are in input order. A failing site does
// not stop the others; only context cancellation does.
func (c *Converter) ConvertAll(ctx context.Context, websites []*url.URL) ([]Result, error) {
	results := make([]Result, len(websites))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)
	for i, website := range websites {
		results[i].Website = website
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Nix, results[i].Err = c.Convert(gctx, website)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func (c *Converter) fetch(ctx context.Context, target string) (*ports.HTTPResponse, error) {
	resp, err := c.client.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &errors.HTTPError{
			Method:     "GET",
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return resp, nil
}
