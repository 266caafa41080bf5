package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPResponse_ContentType(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string][]string
		want    string
	}{
		{name: "canonical", headers: map[string][]string{"Content-Type": {"text/html; charset=utf-8"}}, want: "text/html; charset=utf-8"},
		{name: "first value wins", headers: map[string][]string{"Content-Type": {"application/xml", "text/plain"}}, want: "application/xml"},
		{name: "missing", headers: map[string][]string{"Server": {"nginx"}}, want: ""},
		{name: "nil headers", headers: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &HTTPResponse{Headers: tt.headers}
			assert.Equal(t, tt.want, resp.ContentType())
		})
	}
}
