package entities

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Link relation and media type that announce an OpenSearch description.
const (
	OpenSearchRel       = "search"
	OpenSearchMediaType = "application/opensearchdescription+xml"
)

// SearchDescription is a decoded OpenSearch description document.
type SearchDescription struct {
	ShortName   string
	Description string
	Images      []SearchImage
	URLs        []SearchURL
}

// SearchURL is one <Url> template of a description. Raw is the template
// attribute as written; Base uses it to tell literal braces from encoded
// ones.
type SearchURL struct {
	Template *url.URL
	Type     string
	Raw      string
}

// QueryParam is a single decoded query parameter of a URL template.
type QueryParam struct {
	Name  string
	Value string
}

var (
	encodedBrace = regexp.MustCompile(`%7[BD]`)
	rawBrace     = regexp.MustCompile(`(?i)[{}]|%7[bd]`)
)

// HasQuery reports whether the template carries a query string, even an
// empty one.
func (u SearchURL) HasQuery() bool {
	return u.Template.RawQuery != "" || u.Template.ForceQuery
}

// Base returns the template with its query removed. Serialization
// percent-encodes braces, so {name} parameters are restored; a brace the
// raw template already encoded stays encoded.
func (u SearchURL) Base() string {
	base := *u.Template
	base.RawQuery = ""
	base.ForceQuery = false
	serialized := base.String()

	literal := literalBraces(u.Raw)
	i := 0
	return encodedBrace.ReplaceAllStringFunc(serialized, func(m string) string {
		n := i
		i++
		if u.Raw != "" && (n >= len(literal) || !literal[n]) {
			return m
		}
		if m == "%7B" {
			return "{"
		}
		return "}"
	})
}

// literalBraces lists, in order, whether each brace of the raw template
// outside its query was written literally or percent-encoded.
func literalBraces(raw string) []bool {
	fragment := ""
	if h := strings.IndexByte(raw, '#'); h >= 0 {
		raw, fragment = raw[:h], raw[h:]
	}
	if q := strings.IndexByte(raw, '?'); q >= 0 {
		raw = raw[:q]
	}
	matches := rawBrace.FindAllString(raw+fragment, -1)
	literal := make([]bool, len(matches))
	for i, m := range matches {
		literal[i] = m == "{" || m == "}"
	}
	return literal
}

// Params returns the template's query parameters in document order,
// form-decoded. Empty pairs are skipped; a key without "=" has an empty
// value. Malformed percent escapes are kept as written.
func (u SearchURL) Params() []QueryParam {
	var params []QueryParam
	for _, pair := range strings.Split(u.Template.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		params = append(params, QueryParam{Name: formUnescape(key), Value: formUnescape(value)})
	}
	return params
}

// formUnescape decodes '+' and valid %XX escapes. Invalid UTF-8 in the
// result is replaced with U+FFFD.
func formUnescape(s string) string {
	if !strings.ContainsAny(s, "+%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return strings.ToValidUTF8(b.String(), "\uFFFD")
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

// SearchImage is one <Image> of a description. Width and Height are zero
// when the document omits them.
type SearchImage struct {
	URL    *url.URL
	Type   string
	Width  int
	Height int
}

// Area returns the image's pixel area.
func (i SearchImage) Area() int {
	return i.Width * i.Height
}

// BestImage returns the preferred icon of the description. Images of the
// same media type are ordered by descending area; images of different types
// keep their document order.
func (d *SearchDescription) BestImage() (SearchImage, bool) {
	if len(d.Images) == 0 {
		return SearchImage{}, false
	}
	sorted := make([]SearchImage, len(d.Images))
	copy(sorted, d.Images)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Type != sorted[j].Type {
			return false
		}
		return sorted[i].Area() > sorted[j].Area()
	})
	return sorted[0], true
}
