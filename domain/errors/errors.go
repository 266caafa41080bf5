// Package errors provides domain-specific error types for opensearch-nix.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
)

// ErrNoSearchURL is returned when a description declares no <Url> template.
var ErrNoSearchURL = stdErrors.New("OpenSearch requires at least one defined URL; none were found")

// DetailedError is implemented by error types that can describe themselves
// as a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to a structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return entities.NewErrorDetail("internal", err.Error())
}

// HTTPError represents an HTTP request failure. StatusCode is zero when no
// response was received.
type HTTPError struct {
	Err        error
	Method     string
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("http %s %s failed with status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("http %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) Timeout() bool {
	if t, ok := e.Err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}
	return false
}

// ToErrorDetail implements DetailedError.
func (e *HTTPError) ToErrorDetail() *entities.ErrorDetail {
	detail := entities.NewErrorDetail("network", e.Error()).
		WithCode(fmt.Sprintf("http_%d", e.StatusCode)).
		WithDetails(map[string]any{"method": e.Method, "url": e.URL, "status": e.StatusCode})
	if e.Timeout() {
		detail.Type = "timeout"
		detail.IsTimeout = true
	}
	return detail
}

// TimeoutError represents a timeout during an operation.
type TimeoutError struct {
	Operation string
	Target    string
	Duration  time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s timeout after %v (target: %s)", e.Operation, e.Duration, e.Target)
	}
	return fmt.Sprintf("%s timeout after %v", e.Operation, e.Duration)
}

func (e *TimeoutError) Timeout() bool {
	return true
}

// ToErrorDetail implements DetailedError.
func (e *TimeoutError) ToErrorDetail() *entities.ErrorDetail {
	detail := entities.NewErrorDetail("timeout", e.Error()).
		WithCode(e.Operation).
		WithDetails(map[string]any{"target": e.Target, "duration": e.Duration.String()})
	detail.IsTimeout = true
	return detail
}

// DiscoveryError reports that a page does not announce a usable OpenSearch
// description.
type DiscoveryError struct {
	Err  error
	Page string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("no opensearch description on %s: %v", e.Page, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *DiscoveryError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("discovery", e.Error()).
		WithCode("link").
		WithDetails(map[string]any{"page": e.Page})
}

// DecodeError reports a malformed document. Element names the XML element
// being decoded when known.
type DecodeError struct {
	Err     error
	Source  string
	Element string
}

func (e *DecodeError) Error() string {
	if e.Element != "" {
		return fmt.Sprintf("decode %s: <%s>: %v", e.Source, e.Element, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *DecodeError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("decode", e.Error()).
		WithCode(e.Element).
		WithDetails(map[string]any{"source": e.Source})
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("config", e.Error()).WithCode(e.Field)
}

// SchemaError represents a schema generation or compilation error.
type SchemaError struct {
	Err  error
	Type string
}

func (e *SchemaError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("schema error for type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("schema error: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *SchemaError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("validation", e.Error()).WithCode("schema")
}

// ManifestError reports a failure to read, write or encode a devshell
// manifest.
type ManifestError struct {
	Err       error
	Operation string
	Path      string
}

func (e *ManifestError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("manifest %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("manifest %s: %v", e.Operation, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ManifestError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("manifest", e.Error()).
		WithCode(e.Operation).
		WithDetails(map[string]any{"path": e.Path})
}

// RoundTripError reports identifiers gained or lost by re-serializing a
// manifest.
type RoundTripError struct {
	Format     string
	Added      []entities.ToolIdentifier
	Removed    []entities.ToolIdentifier
	Duplicated []entities.ToolIdentifier
}

func (e *RoundTripError) Error() string {
	var parts []string
	if len(e.Added) > 0 {
		parts = append(parts, "added "+joinIDs(e.Added))
	}
	if len(e.Removed) > 0 {
		parts = append(parts, "removed "+joinIDs(e.Removed))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, "duplicated "+joinIDs(e.Duplicated))
	}
	return fmt.Sprintf("%s round-trip changed the tool set: %s", e.Format, strings.Join(parts, "; "))
}

// ToErrorDetail implements DetailedError.
func (e *RoundTripError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("manifest", e.Error()).
		WithCode("round_trip").
		WithDetails(map[string]any{
			"format":     e.Format,
			"added":      e.Added,
			"removed":    e.Removed,
			"duplicated": e.Duplicated,
		})
}

func joinIDs(ids []entities.ToolIdentifier) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, ", ")
}
