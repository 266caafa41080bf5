package ports

import (
	"net/url"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
)

// LinkLocator finds the OpenSearch description link announced by an HTML page.
type LinkLocator interface {
	// Locate returns the description URL resolved against base.
	Locate(page []byte, base *url.URL) (*url.URL, error)
}

// DescriptionDecoder parses an OpenSearch description document.
type DescriptionDecoder interface {
	Decode(data []byte) (*entities.SearchDescription, error)
}

// DescriptionRenderer serializes a description into a target language.
type DescriptionRenderer interface {
	Render(description *entities.SearchDescription) ([]byte, error)
}
