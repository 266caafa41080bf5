// Package htmlsearch finds the OpenSearch description link an HTML page
// announces in its <head>.
package htmlsearch

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/domain/ports"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoLink is wrapped by the DiscoveryError returned when no element
// announces a description.
var ErrNoLink = stdErrors.New("no <link rel=\"search\" type=\"" + entities.OpenSearchMediaType + "\"> in <head>")

// Locator implements ports.LinkLocator on golang.org/x/net/html.
type Locator struct {
	rel       string
	mediaType string
}

var _ ports.LinkLocator = (*Locator)(nil)

// NewLocator creates a Locator for OpenSearch description links.
func NewLocator() *Locator {
	return &Locator{rel: entities.OpenSearchRel, mediaType: entities.OpenSearchMediaType}
}

// Locate parses the page and returns the href of the first direct child of
// <head> whose rel contains the search token and whose type is the
// OpenSearch description media type, resolved against base.
func (l *Locator) Locate(page []byte, base *url.URL) (*url.URL, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, &errors.DiscoveryError{Page: base.String(), Err: err}
	}

	head := findHead(doc)
	if head == nil {
		return nil, &errors.DiscoveryError{Page: base.String(), Err: ErrNoLink}
	}

	for n := head.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode || !l.matches(n) {
			continue
		}
		href, ok := attr(n, "href")
		if !ok || strings.TrimSpace(href) == "" {
			return nil, &errors.DiscoveryError{
				Page: base.String(),
				Err:  fmt.Errorf("<%s rel=%q> has no href", n.Data, l.rel),
			}
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return nil, &errors.DiscoveryError{Page: base.String(), Err: fmt.Errorf("bad href: %w", err)}
		}
		return base.ResolveReference(ref), nil
	}
	return nil, &errors.DiscoveryError{Page: base.String(), Err: ErrNoLink}
}

func (l *Locator) matches(n *html.Node) bool {
	rel, ok := attr(n, "rel")
	if !ok || !hasToken(rel, l.rel) {
		return false
	}
	typ, ok := attr(n, "type")
	return ok && strings.EqualFold(strings.TrimSpace(typ), l.mediaType)
}

// findHead returns the <head> child of the <html> root. The parser always
// synthesizes both.
func findHead(doc *html.Node) *html.Node {
	for root := doc.FirstChild; root != nil; root = root.NextSibling {
		if root.Type != html.ElementNode || root.DataAtom != atom.Html {
			continue
		}
		for n := root.FirstChild; n != nil; n = n.NextSibling {
			if n.Type == html.ElementNode && n.DataAtom == atom.Head {
				return n
			}
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// hasToken reports whether the space-separated list contains token,
// ignoring ASCII case.
func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
