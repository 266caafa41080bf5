package manifeststore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reglet-dev/opensearch-nix/domain/entities"
	"github.com/reglet-dev/opensearch-nix/domain/errors"
	"github.com/reglet-dev/opensearch-nix/domain/ports"
	"github.com/reglet-dev/opensearch-nix/infrastructure/codec"
)

// DefaultPath is the manifest file looked up in the working directory.
const DefaultPath = "devshell.yaml"

// fileStoreConfig holds configuration for the FileStore.
type fileStoreConfig struct {
	codecs   ports.CodecRegistry
	path     string      // Path to the manifest file
	dirPerm  os.FileMode // Permission for created directories
	filePerm os.FileMode // Permission for the manifest file
}

func defaultFileStoreConfig() fileStoreConfig {
	return fileStoreConfig{
		codecs:   codec.NewRegistry(),
		path:     DefaultPath,
		dirPerm:  0o755,
		filePerm: 0o644, // Checked into the repository alongside the code
	}
}

// FileStoreOption configures a FileStore instance.
type FileStoreOption func(*fileStoreConfig)

// WithPath sets the path to the manifest file. The extension selects the codec.
func WithPath(path string) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.path = path
	}
}

// WithFilePermissions sets the file permissions for the manifest file.
// Default is 0o644.
func WithFilePermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.filePerm = perm
	}
}

// WithDirPermissions sets the permissions for directories created on Save.
// Default is 0o755.
func WithDirPermissions(perm os.FileMode) FileStoreOption {
	return func(c *fileStoreConfig) {
		c.dirPerm = perm
	}
}

// WithCodecs replaces the codec registry used to resolve file extensions.
func WithCodecs(r ports.CodecRegistry) FileStoreOption {
	return func(c *fileStoreConfig) {
		if r != nil {
			c.codecs = r
		}
	}
}

// FileStore provides file-based persistence for a devshell manifest.
type FileStore struct {
	config fileStoreConfig
}

// NewFileStore creates a new FileStore with the given options.
func NewFileStore(opts ...FileStoreOption) *FileStore {
	cfg := defaultFileStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileStore{config: cfg}
}

var _ ports.ManifestStore = (*FileStore)(nil)

// Codec returns the codec selected by the file's extension.
func (s *FileStore) Codec() (ports.ManifestCodec, error) {
	c, ok := s.config.codecs.ForPath(s.config.path)
	if !ok {
		return nil, &errors.ManifestError{
			Operation: "open",
			Path:      s.config.path,
			Err:       fmt.Errorf("no codec for extension %q (known formats: %v)", filepath.Ext(s.config.path), s.config.codecs.Formats()),
		}
	}
	return c, nil
}

// LoadRaw reads the manifest file without decoding it and returns the codec
// that understands it.
func (s *FileStore) LoadRaw() ([]byte, ports.ManifestCodec, error) {
	c, err := s.Codec()
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(s.config.path)
	if err != nil {
		return nil, nil, &errors.ManifestError{Operation: "read", Path: s.config.path, Err: err}
	}
	return data, c, nil
}

// Load reads and decodes the manifest. A missing file is an error: a
// development shell without a manifest declares nothing.
func (s *FileStore) Load() (*entities.Manifest, error) {
	data, c, err := s.LoadRaw()
	if err != nil {
		return nil, err
	}
	m, err := c.Decode(data)
	if err != nil {
		return nil, &errors.ManifestError{Operation: "parse", Path: s.config.path, Err: err}
	}
	return m, nil
}

// Save encodes the manifest with the codec for the file's extension and
// writes it, creating parent directories as needed.
func (s *FileStore) Save(manifest *entities.Manifest) error {
	c, err := s.Codec()
	if err != nil {
		return err
	}
	data, err := c.Encode(manifest)
	if err != nil {
		return &errors.ManifestError{Operation: "encode", Path: s.config.path, Err: err}
	}

	dir := filepath.Dir(s.config.path)
	if err := os.MkdirAll(dir, s.config.dirPerm); err != nil {
		return &errors.ManifestError{Operation: "write", Path: dir, Err: err}
	}

	if err := os.WriteFile(s.config.path, data, s.config.filePerm); err != nil {
		return &errors.ManifestError{Operation: "write", Path: s.config.path, Err: err}
	}
	return nil
}

// Path returns the path to the backing file.
func (s *FileStore) Path() string {
	return s.config.path
}
