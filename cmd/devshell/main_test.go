package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `name: opensearch-nix
tools:
  - name: openssl
    role: crypto-library
  - go
  - gnumake
  - go
`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_Check(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeManifest(t, "devshell.yaml", testManifest)
		var stdout, stderr bytes.Buffer

		require.NoError(t, run([]string{"check", "--file", path}, &stdout, &stderr))
		assert.Equal(t, path+": ok (3 tools)\n", stdout.String())
	})

	t.Run("violations", func(t *testing.T) {
		path := writeManifest(t, "devshell.json", `{"tools": ["go", "pkg config", {"name": "openssl", "role": "linker"}]}`)
		var stdout, stderr bytes.Buffer

		err := run([]string{"check", "-f", path}, &stdout, &stderr)
		require.Error(t, err)
		coder, ok := err.(interface{ ExitCode() int })
		require.True(t, ok)
		assert.Equal(t, 1, coder.ExitCode())
		assert.Contains(t, stderr.String(), path+": ")
		assert.Empty(t, stdout.String())
	})

	t.Run("missing file", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run([]string{"check", "--file", filepath.Join(t.TempDir(), "devshell.yaml")}, &stdout, &stderr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "manifest read")
	})
}

func TestRun_List(t *testing.T) {
	path := writeManifest(t, "devshell.yaml", testManifest)
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"list", "--file", path}, &stdout, &stderr))
	assert.Equal(t, "gnumake\ngo\nopenssl\n", stdout.String())
}

func TestRun_Fmt(t *testing.T) {
	path := writeManifest(t, "devshell.yaml", testManifest)
	want := `name: opensearch-nix
tools:
  - name: openssl
    role: crypto-library
  - go
  - gnumake
`

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"fmt", "--file", path}, &stdout, &stderr))
	assert.Equal(t, want, stdout.String())

	stdout.Reset()
	require.NoError(t, run([]string{"fmt", "--file", path, "--write"}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func TestRun_Convert(t *testing.T) {
	in := writeManifest(t, "devshell.yaml", testManifest)
	out := filepath.Join(t.TempDir(), "shell.nix")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"convert", "--file", in, "--out", out}, &stdout, &stderr))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pkgs.mkShell {")
	assert.Contains(t, string(data), "    openssl # crypto-library\n")

	stdout.Reset()
	require.NoError(t, run([]string{"list", "--file", out}, &stdout, &stderr))
	assert.Equal(t, "gnumake\ngo\nopenssl\n", stdout.String())

	err = run([]string{"convert", "--file", in}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--out")
}

func TestRun_Schema(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"schema"}, &stdout, &stderr))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &doc))
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", doc["$schema"])
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	require.Error(t, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Commands:")

	err := run([]string{"build"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "build"`)

	require.NoError(t, run([]string{"list", "--help"}, &stdout, &stderr))
}

func TestRepositoryManifest(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"check", "--file", "../../devshell.yaml"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "ok (5 tools)")

	stdout.Reset()
	require.NoError(t, run([]string{"list", "--file", "../../shell.nix"}, &stdout, &stderr))
	assert.Equal(t, "gnumake\ngo\ngolangci-lint\nopenssl\npkg-config\n", stdout.String())
}
