// Package osdxml decodes OpenSearch description documents.
package osdxml

import (
	"bytes"
	stdErrors "errors"
	"encoding/xml"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/domain/ports"
	"golang.org/x/net/html/charset"
)

const rootElement = "OpenSearchDescription"

// Decoder implements ports.DescriptionDecoder on encoding/xml.
type Decoder struct{}

var _ ports.DescriptionDecoder = (*Decoder)(nil)

// NewDecoder creates a new Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

type xmlImage struct {
	Type   string `xml:"type,attr"`
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
	URL    string `xml:",chardata"`
}

type xmlURL struct {
	Type     string `xml:"type,attr"`
	Template string `xml:"template,attr"`
}

// Decode parses an OpenSearch description. Element names are matched
// without regard to namespace. Unknown children of the root are skipped.
func (d *Decoder) Decode(data []byte) (*entities.SearchDescription, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	root, err := findRoot(dec)
	if err != nil {
		return nil, err
	}
	if root.Name.Local != rootElement {
		return nil, decodeErr(root.Name.Local, fmt.Errorf("root element must be <%s>", rootElement))
	}

	desc := &entities.SearchDescription{}
	var haveShortName, haveDescription bool
	for {
		tok, err := dec.Token()
		if err != nil {
			if stdErrors.Is(err, io.EOF) {
				return nil, decodeErr(rootElement, io.ErrUnexpectedEOF)
			}
			return nil, decodeErr("", err)
		}

		switch t := tok.(type) {
		case xml.EndElement:
			return desc, nil
		case xml.StartElement:
			switch t.Name.Local {
			case "ShortName":
				if haveShortName {
					return nil, decodeErr(t.Name.Local, stdErrors.New("multiple short name values were provided"))
				}
				haveShortName = true
				if desc.ShortName, err = text(dec, t); err != nil {
					return nil, err
				}
			case "Description":
				if haveDescription {
					return nil, decodeErr(t.Name.Local, stdErrors.New("multiple descriptions were provided"))
				}
				haveDescription = true
				if desc.Description, err = text(dec, t); err != nil {
					return nil, err
				}
			case "Image":
				img, err := decodeImage(dec, t)
				if err != nil {
					return nil, err
				}
				desc.Images = append(desc.Images, img)
			case "Url":
				u, err := decodeURL(dec, t)
				if err != nil {
					return nil, err
				}
				desc.URLs = append(desc.URLs, u)
			default:
				if err := dec.Skip(); err != nil {
					return nil, decodeErr(t.Name.Local, err)
				}
			}
		}
	}
}

// findRoot returns the document's first start element.
func findRoot(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if stdErrors.Is(err, io.EOF) {
				return xml.StartElement{}, decodeErr("", stdErrors.New("document is empty"))
			}
			return xml.StartElement{}, decodeErr("", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start, nil
		}
	}
}

func text(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var s string
	if err := dec.DecodeElement(&s, &start); err != nil {
		return "", decodeErr(start.Name.Local, err)
	}
	return strings.TrimSpace(s), nil
}

func decodeImage(dec *xml.Decoder, start xml.StartElement) (entities.SearchImage, error) {
	var raw xmlImage
	if err := dec.DecodeElement(&raw, &start); err != nil {
		return entities.SearchImage{}, decodeErr("Image", err)
	}

	mediaType, err := parseMediaType(raw.Type)
	if err != nil {
		return entities.SearchImage{}, decodeErr("Image", err)
	}
	width, err := parseDimension("width", raw.Width)
	if err != nil {
		return entities.SearchImage{}, decodeErr("Image", err)
	}
	height, err := parseDimension("height", raw.Height)
	if err != nil {
		return entities.SearchImage{}, decodeErr("Image", err)
	}
	u, err := parseAbsoluteURL(strings.TrimSpace(raw.URL))
	if err != nil {
		return entities.SearchImage{}, decodeErr("Image", err)
	}

	return entities.SearchImage{URL: u, Type: mediaType, Width: width, Height: height}, nil
}

func decodeURL(dec *xml.Decoder, start xml.StartElement) (entities.SearchURL, error) {
	var raw xmlURL
	if err := dec.DecodeElement(&raw, &start); err != nil {
		return entities.SearchURL{}, decodeErr("Url", err)
	}

	mediaType, err := parseMediaType(raw.Type)
	if err != nil {
		return entities.SearchURL{}, decodeErr("Url", err)
	}
	u, err := parseAbsoluteURL(raw.Template)
	if err != nil {
		return entities.SearchURL{}, decodeErr("Url", fmt.Errorf("template: %w", err))
	}

	return entities.SearchURL{Template: u, Type: mediaType, Raw: strings.TrimSpace(raw.Template)}, nil
}

// parseMediaType validates a type attribute and returns it in canonical
// form (lower-case type, sorted parameters).
func parseMediaType(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", stdErrors.New("type is required")
	}
	mediaType, params, err := mime.ParseMediaType(s)
	if err != nil {
		return "", fmt.Errorf("type %q: %w", s, err)
	}
	if !strings.Contains(mediaType, "/") {
		return "", fmt.Errorf("type %q: missing subtype", s)
	}
	return mime.FormatMediaType(mediaType, params), nil
}

// parseDimension reads an optional pixel size. Absent means zero.
func parseDimension(name, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a pixel count", name, s)
	}
	return int(n), nil
}

func parseAbsoluteURL(s string) (*url.URL, error) {
	if s == "" {
		return nil, stdErrors.New("URL is required")
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%q is not an absolute URL", s)
	}
	return u, nil
}

func decodeErr(element string, err error) error {
	return &errors.DecodeError{Source: "opensearch description", Element: element, Err: err}
}
