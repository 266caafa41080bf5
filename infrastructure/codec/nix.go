package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/internal/nixlit"
)

// NixCodec writes a manifest as a pkgs.mkShell expression and reads the
// tool lists back from one. Only flat lists of package names are
// understood; any other expression inside a list is a decode error.
type NixCodec struct{}

// NewNixCodec creates a new NixCodec.
func NewNixCodec() *NixCodec {
	return &NixCodec{}
}

var (
	nixListAttr = regexp.MustCompile(`(?s)\b(packages|buildInputs|nativeBuildInputs)\s*=\s*(?:with\s+pkgs\s*;\s*)?\[(.*?)\]`)
	nixNameAttr = regexp.MustCompile(`(?m)^\s*name\s*=\s*("(?:[^"\\]|\\.)*")\s*;`)
)

// Format implements ports.ManifestCodec.
func (c *NixCodec) Format() string { return "nix" }

// Encode implements ports.ManifestCodec.
func (c *NixCodec) Encode(manifest *entities.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if manifest.Description != "" {
		for _, line := range strings.Split(manifest.Description, "\n") {
			fmt.Fprintf(&buf, "# %s\n", line)
		}
	}
	buf.WriteString("{ pkgs ? import <nixpkgs> { } }:\n\n")
	buf.WriteString("pkgs.mkShell {\n")
	if manifest.Name != "" {
		fmt.Fprintf(&buf, "  name = %s;\n", nixlit.Quote(manifest.Name))
	}
	buf.WriteString("  packages = with pkgs; [\n")
	for _, t := range manifest.Tools {
		if t.Role != "" {
			fmt.Fprintf(&buf, "    %s # %s\n", t.Name, t.Role)
			continue
		}
		fmt.Fprintf(&buf, "    %s\n", t.Name)
	}
	buf.WriteString("  ];\n")
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Decode implements ports.ManifestCodec.
func (c *NixCodec) Decode(data []byte) (*entities.Manifest, error) {
	src := string(data)
	m := &entities.Manifest{Description: leadingComment(src)}

	code, bare, comments := maskSource(src)
	if loc := nixNameAttr.FindStringSubmatchIndex(bare); loc != nil {
		name, err := nixlit.Unquote(code[loc[2]:loc[3]])
		if err != nil {
			return nil, &errors.DecodeError{Source: "nix", Element: "name", Err: err}
		}
		m.Name = name
	}

	lists := nixListAttr.FindAllStringSubmatchIndex(bare, -1)
	if len(lists) == 0 {
		return nil, &errors.DecodeError{
			Source: "nix",
			Err:    fmt.Errorf("no packages, buildInputs or nativeBuildInputs list found"),
		}
	}
	for _, loc := range lists {
		attr := bare[loc[2]:loc[3]]
		firstLine := strings.Count(bare[:loc[4]], "\n")
		tools, err := decodeNixList(bare[loc[4]:loc[5]], firstLine, comments)
		if err != nil {
			return nil, &errors.DecodeError{Source: "nix", Element: attr, Err: err}
		}
		m.Tools = append(m.Tools, tools...)
	}
	return m, nil
}

// decodeNixList reads the names of a comment-free list body. A line
// holding a single name takes its role from that line's comment.
func decodeNixList(body string, firstLine int, comments map[int]string) ([]entities.Tool, error) {
	var tools []entities.Tool
	scanner := bufio.NewScanner(strings.NewReader(body))
	for line := firstLine; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		for _, f := range fields {
			if strings.ContainsAny(f, `(){}"=;:[]`) || strings.Contains(f, "''") {
				return nil, fmt.Errorf("unsupported expression %q in package list", f)
			}
			tool := entities.Tool{Name: entities.ToolIdentifier(strings.TrimPrefix(f, "pkgs."))}
			if comment := comments[line]; len(fields) == 1 && isKnownRole(comment) {
				tool.Role = entities.ToolRole(comment)
			}
			tools = append(tools, tool)
		}
	}
	return tools, scanner.Err()
}

// maskSource blanks out every comment of src, keeping line breaks, so
// offsets and line numbers still match src. code keeps string literals;
// bare also blanks their contents, leaving the delimiters. The text of
// each "#" comment is returned by zero-based line number.
func maskSource(src string) (code, bare string, comments map[int]string) {
	out := []byte(src)
	blank := []byte(src)
	comments = make(map[int]string)
	line := 0
	for i := 0; i < len(src); i++ {
		switch c := src[i]; {
		case c == '\n':
			line++
		case c == '"':
			end := skipString(src, i+1)
			line += blankRange(blank, i+1, end)
			i = end
		case c == '\'' && i+1 < len(src) && src[i+1] == '\'':
			end := skipIndentedString(src, i+2)
			line += blankRange(blank, i+2, end-1)
			i = end
		case c == '#':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			comments[line] = strings.TrimSpace(src[i+1 : i+end])
			blankRange(out, i, i+end)
			blankRange(blank, i, i+end)
			i += end - 1
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			stop := len(src)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			line += blankRange(out, i, stop)
			blankRange(blank, i, stop)
			i = stop - 1
		}
	}
	return string(out), string(blank), comments
}

// blankRange replaces b[from:to] with spaces, except line breaks, and
// returns the number of line breaks kept.
func blankRange(b []byte, from, to int) int {
	lines := 0
	for j := from; j < to && j < len(b); j++ {
		if b[j] == '\n' {
			lines++
			continue
		}
		b[j] = ' '
	}
	return lines
}

// skipString returns the index of the quote closing the string that starts
// at i, or the last index when it is unterminated.
func skipString(src string, i int) int {
	for ; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return len(src) - 1
}

// skipIndentedString is skipString for ''...'' strings, where '' followed
// by ', $ or \ is an escape.
func skipIndentedString(src string, i int) int {
	for ; i+1 < len(src); i++ {
		if src[i] != '\'' || src[i+1] != '\'' {
			continue
		}
		if i+2 < len(src) && strings.IndexByte(`'$\`, src[i+2]) >= 0 {
			i += 2
			continue
		}
		return i + 1
	}
	return len(src) - 1
}

// leadingComment returns the "# " lines that open the file, joined.
func leadingComment(src string) string {
	var lines []string
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			break
		}
		lines = append(lines, strings.TrimPrefix(strings.TrimPrefix(trimmed, "#"), " "))
	}
	return strings.Join(lines, "\n")
}

func isKnownRole(s string) bool {
	for _, r := range entities.KnownRoles() {
		if string(r) == s {
			return true
		}
	}
	return false
}
