// Package devshell implements the operations on a development shell
// manifest: checking its structural rules, normalizing it, and proving that
// re-serializing it through a codec preserves the declared tool set.
package devshell

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/domain/ports"
)

// Service ties a validator to the manifest operations.
type Service struct {
	validator ports.ManifestValidator
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a Service.
func NewService(validator ports.ManifestValidator, opts ...ServiceOption) *Service {
	s := &Service{validator: validator, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks the manifest's structural rules.
func (s *Service) Validate(manifest *entities.Manifest) (*entities.ValidationResult, error) {
	return s.validator.Validate(manifest)
}

// Check decodes raw file contents with c and validates both the generic
// document (when the codec supports it) and the decoded manifest. A decode
// failure is returned as an error; rule violations are in the result.
func (s *Service) Check(data []byte, c ports.ManifestCodec) (*entities.Manifest, *entities.ValidationResult, error) {
	manifest, err := c.Decode(data)
	if err != nil {
		return nil, nil, err
	}

	result := &entities.ValidationResult{Valid: true}
	dv, hasDocValidator := s.validator.(ports.DocumentValidator)
	dd, hasDocDecoder := c.(ports.DocumentDecoder)
	if hasDocValidator && hasDocDecoder {
		doc, err := dd.DecodeDocument(data)
		if err != nil {
			return nil, nil, err
		}
		docResult, err := dv.ValidateDocument(doc)
		if err != nil {
			return nil, nil, err
		}
		if !docResult.Valid {
			s.logger.Debug("document failed schema validation", "format", c.Format(), "errors", len(docResult.Errors))
			return manifest, docResult, nil
		}
	}

	structResult, err := s.validator.Validate(manifest)
	if err != nil {
		return nil, nil, err
	}
	result.Errors = append(result.Errors, structResult.Errors...)
	result.Valid = structResult.Valid
	return manifest, result, nil
}

// RoundTrip encodes the manifest with c, decodes the output, and checks
// that the identifier set survived with no additions, removals or
// duplicates. The input is normalized first, since duplicates are
// idempotent.
func (s *Service) RoundTrip(manifest *entities.Manifest, c ports.ManifestCodec) (*entities.Manifest, error) {
	normalized := Normalize(manifest)

	data, err := c.Encode(normalized)
	if err != nil {
		return nil, &errors.ManifestError{Operation: "encode", Err: err}
	}
	decoded, err := c.Decode(data)
	if err != nil {
		return nil, &errors.ManifestError{Operation: "decode", Err: fmt.Errorf("re-reading %s output: %w", c.Format(), err)}
	}

	added, removed := Diff(normalized, decoded)
	duplicated := Duplicates(decoded)
	if len(added) > 0 || len(removed) > 0 || len(duplicated) > 0 {
		return nil, &errors.RoundTripError{Format: c.Format(), Added: added, Removed: removed, Duplicated: duplicated}
	}

	s.logger.Debug("round-trip preserved tool set", "format", c.Format(), "tools", len(decoded.Tools))
	return decoded, nil
}

// Normalize returns a copy of the manifest without duplicate identifiers.
// The first occurrence of each name is kept, with its role and description.
func Normalize(manifest *entities.Manifest) *entities.Manifest {
	out := &entities.Manifest{
		Name:        manifest.Name,
		Description: manifest.Description,
		Tools:       make([]entities.Tool, 0, len(manifest.Tools)),
	}
	seen := make(map[entities.ToolIdentifier]struct{}, len(manifest.Tools))
	for _, t := range manifest.Tools {
		if _, ok := seen[t.Name]; ok {
			continue
		}
		seen[t.Name] = struct{}{}
		out.Tools = append(out.Tools, t)
	}
	return out
}

// Equivalent reports whether two manifests declare the same identifier set.
func Equivalent(a, b *entities.Manifest) bool {
	added, removed := Diff(a, b)
	return len(added) == 0 && len(removed) == 0
}

// Diff returns the identifiers present only in after (added) and only in
// before (removed), each sorted.
func Diff(before, after *entities.Manifest) (added, removed []entities.ToolIdentifier) {
	inBefore := toSet(before.Set())
	inAfter := toSet(after.Set())
	for id := range inAfter {
		if _, ok := inBefore[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range inBefore {
		if _, ok := inAfter[id]; !ok {
			removed = append(removed, id)
		}
	}
	sortIDs(added)
	sortIDs(removed)
	return added, removed
}

// Duplicates returns identifiers declared more than once, sorted.
func Duplicates(manifest *entities.Manifest) []entities.ToolIdentifier {
	counts := make(map[entities.ToolIdentifier]int, len(manifest.Tools))
	var dups []entities.ToolIdentifier
	for _, t := range manifest.Tools {
		counts[t.Name]++
		if counts[t.Name] == 2 {
			dups = append(dups, t.Name)
		}
	}
	sortIDs(dups)
	return dups
}

func toSet(ids []entities.ToolIdentifier) map[entities.ToolIdentifier]struct{} {
	set := make(map[entities.ToolIdentifier]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortIDs(ids []entities.ToolIdentifier) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
