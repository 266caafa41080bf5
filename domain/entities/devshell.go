package entities

import (
	"sort"
	"strings"
	"unicode"
)

// ToolIdentifier names an external package resolved by the provisioning
// system (for example "go", "openssl" or "python3Packages.black").
type ToolIdentifier string

// HasWhitespace reports whether the identifier contains any Unicode space.
func (id ToolIdentifier) HasWhitespace() bool {
	return strings.IndexFunc(string(id), unicode.IsSpace) >= 0
}

// ToolRole classifies what a tool is for. It is informational only.
type ToolRole string

const (
	RoleCompiler          ToolRole = "compiler"
	RoleAnalyzer          ToolRole = "analyzer"
	RoleBuildTool         ToolRole = "build-tool"
	RoleBuildConfigHelper ToolRole = "build-config-helper"
	RoleCryptoLibrary     ToolRole = "crypto-library"
	RoleOther             ToolRole = "other"
)

// KnownRoles lists every accepted ToolRole.
func KnownRoles() []ToolRole {
	return []ToolRole{
		RoleCompiler,
		RoleAnalyzer,
		RoleBuildTool,
		RoleBuildConfigHelper,
		RoleCryptoLibrary,
		RoleOther,
	}
}

// Tool is a single entry of a development shell manifest.
type Tool struct {
	Name        ToolIdentifier `json:"name" yaml:"name" toml:"name" validate:"required,toolname" jsonschema:"minLength=1,pattern=^[A-Za-z0-9_+-]+(\\.[A-Za-z0-9_+-]+)*$"`
	Role        ToolRole       `json:"role,omitempty" yaml:"role,omitempty" toml:"role,omitempty" validate:"omitempty,oneof=compiler analyzer build-tool build-config-helper crypto-library other" jsonschema:"enum=compiler,enum=analyzer,enum=build-tool,enum=build-config-helper,enum=crypto-library,enum=other"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// Bare reports whether the tool carries nothing but its name.
func (t Tool) Bare() bool {
	return t.Role == "" && t.Description == ""
}

// Manifest is the development shell descriptor: the set of tools the
// provisioning system must place on the shell's PATH. Order is not
// significant and duplicate names are idempotent.
type Manifest struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Tools       []Tool `json:"tools" yaml:"tools" toml:"tools" validate:"min=1,dive" jsonschema:"minItems=1"`
}

// Identifiers returns the tool names in declaration order, duplicates included.
func (m *Manifest) Identifiers() []ToolIdentifier {
	ids := make([]ToolIdentifier, 0, len(m.Tools))
	for _, t := range m.Tools {
		ids = append(ids, t.Name)
	}
	return ids
}

// Set returns the distinct tool names, sorted.
func (m *Manifest) Set() []ToolIdentifier {
	seen := make(map[ToolIdentifier]struct{}, len(m.Tools))
	ids := make([]ToolIdentifier, 0, len(m.Tools))
	for _, t := range m.Tools {
		if _, ok := seen[t.Name]; ok {
			continue
		}
		seen[t.Name] = struct{}{}
		ids = append(ids, t.Name)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewManifest builds a manifest of bare tools from identifiers.
func NewManifest(ids ...ToolIdentifier) *Manifest {
	m := &Manifest{Tools: make([]Tool, 0, len(ids))}
	for _, id := range ids {
		m.Tools = append(m.Tools, Tool{Name: id})
	}
	return m
}
