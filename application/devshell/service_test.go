package devshell_test

import (
	stdErrors "errors"
	"testing"

	"github.com/reglet-dev/opensearch-nix/application/devshell"
	"github.com/reglet-dev/opensearch-nix/application/validation"
	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/infrastructure/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *devshell.Service {
	t.Helper()
	v, err := validation.NewManifestValidator()
	require.NoError(t, err)
	return devshell.NewService(v)
}

// lossyCodec drops the last tool and repeats the first one.
type lossyCodec struct {
	*codec.JSONCodec
}

func (c lossyCodec) Format() string { return "lossy" }

func (c lossyCodec) Decode(data []byte) (*entities.Manifest, error) {
	m, err := c.JSONCodec.Decode(data)
	if err != nil {
		return nil, err
	}
	m.Tools = append([]entities.Tool{m.Tools[0]}, m.Tools[:len(m.Tools)-1]...)
	m.Tools = append(m.Tools, entities.Tool{Name: "gcc"})
	return m, nil
}

func TestService_RoundTrip(t *testing.T) {
	svc := newService(t)
	five := entities.NewManifest("compiler", "analyzer", "build-tool", "build-config-helper", "crypto-library")

	for _, c := range codec.NewRegistry().Formats() {
		t.Run(c, func(t *testing.T) {
			cdc, ok := codec.NewRegistry().ForFormat(c)
			require.True(t, ok)

			out, err := svc.RoundTrip(five, cdc)
			require.NoError(t, err)
			assert.Equal(t, five.Set(), out.Set())
			assert.Len(t, out.Tools, 5)
			assert.Empty(t, devshell.Duplicates(out))
		})
	}

	t.Run("duplicates collapse", func(t *testing.T) {
		out, err := svc.RoundTrip(entities.NewManifest("go", "openssl", "go"), codec.NewYAMLCodec())
		require.NoError(t, err)
		assert.Equal(t, []entities.ToolIdentifier{"go", "openssl"}, out.Identifiers())
	})

	t.Run("lossy codec is reported", func(t *testing.T) {
		_, err := svc.RoundTrip(entities.NewManifest("go", "openssl"), lossyCodec{codec.NewJSONCodec()})
		var rtErr *errors.RoundTripError
		require.True(t, stdErrors.As(err, &rtErr), "got %v", err)
		assert.Equal(t, []entities.ToolIdentifier{"gcc"}, rtErr.Added)
		assert.Equal(t, []entities.ToolIdentifier{"openssl"}, rtErr.Removed)
		assert.Equal(t, []entities.ToolIdentifier{"go"}, rtErr.Duplicated)
	})
}

func TestService_Check(t *testing.T) {
	svc := newService(t)

	t.Run("valid yaml", func(t *testing.T) {
		m, res, err := svc.Check([]byte("tools:\n  - go\n  - name: openssl\n    role: crypto-library\n"), codec.NewYAMLCodec())
		require.NoError(t, err)
		assert.True(t, res.Valid, res.Summary())
		assert.Len(t, m.Tools, 2)
	})

	t.Run("unknown key caught by schema", func(t *testing.T) {
		_, res, err := svc.Check([]byte("tools: [go]\nshell: bash\n"), codec.NewYAMLCodec())
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("nix has no document form", func(t *testing.T) {
		_, res, err := svc.Check([]byte("pkgs.mkShell { packages = [ \"pkg config\" ]; }"), codec.NewNixCodec())
		require.Error(t, err)
		assert.Nil(t, res)

		_, res, err = svc.Check([]byte("pkgs.mkShell { packages = [ go ]; }"), codec.NewNixCodec())
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})

	t.Run("empty list", func(t *testing.T) {
		_, res, err := svc.Check([]byte(`{"tools": []}`), codec.NewJSONCodec())
		require.NoError(t, err)
		assert.False(t, res.Valid)
	})

	t.Run("decode failure", func(t *testing.T) {
		_, _, err := svc.Check([]byte("tools = ["), codec.NewTOMLCodec())
		assert.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	m := &entities.Manifest{
		Name: "shell",
		Tools: []entities.Tool{
			{Name: "go", Role: entities.RoleCompiler},
			{Name: "openssl"},
			{Name: "go", Role: entities.RoleOther},
		},
	}
	out := devshell.Normalize(m)

	assert.Equal(t, "shell", out.Name)
	assert.Equal(t, []entities.Tool{{Name: "go", Role: entities.RoleCompiler}, {Name: "openssl"}}, out.Tools)
	assert.Len(t, m.Tools, 3, "input must not be modified")
}

func TestEquivalentAndDiff(t *testing.T) {
	a := entities.NewManifest("go", "openssl", "go")
	b := entities.NewManifest("openssl", "go")
	c := entities.NewManifest("go", "gnumake")

	assert.True(t, devshell.Equivalent(a, b))
	assert.False(t, devshell.Equivalent(a, c))

	added, removed := devshell.Diff(a, c)
	assert.Equal(t, []entities.ToolIdentifier{"gnumake"}, added)
	assert.Equal(t, []entities.ToolIdentifier{"openssl"}, removed)
}
