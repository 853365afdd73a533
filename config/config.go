// Package config loads YAML workspace files: the target platform, the
// archive mounts searched in order, and cache and IO limits.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/hupe1980/resforge/internal/cache"
	"github.com/hupe1980/resforge/platform"
)

// Mount kinds.
const (
	KindTree   = "tree"
	KindHashed = "hashed"
	KindDir    = "dir"
)

// Store backends for tree mounts.
const (
	StoreLocal  = "local"
	StoreMemory = "memory"
	StoreS3     = "s3"
	StoreMinio  = "minio"
)

// DefaultWorkers is used when Workers is zero.
const DefaultWorkers = 4

// Config is a workspace file.
type Config struct {
	Platform           string  `yaml:"platform"`
	Version            int     `yaml:"version,omitempty"`
	Mounts             []Mount `yaml:"mounts"`
	Cache              Cache   `yaml:"cache,omitempty"`
	IOLimitBytesPerSec int64   `yaml:"io_limit_bytes_per_sec,omitempty"`
	LogLevel           string  `yaml:"log_level,omitempty"`
	Workers            int     `yaml:"workers,omitempty"`
}

// Mount is one archive or directory in the search order.
type Mount struct {
	// Kind is tree, hashed or dir.
	Kind string `yaml:"kind"`
	// Path is the archive base name for tree mounts, the archive file for
	// hashed mounts and the root for dir mounts.
	Path string `yaml:"path"`
	// Store selects the backend holding a tree archive. Defaults to local.
	Store string `yaml:"store,omitempty"`
	// Root is the local store directory of a tree mount. Defaults to the
	// directory of Path.
	Root     string `yaml:"root,omitempty"`
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Secure   bool   `yaml:"secure,omitempty"`
}

// Cache configures the block caches in front of remote stores.
type Cache struct {
	MemoryBytes int64  `yaml:"memory_bytes,omitempty"`
	DiskDir     string `yaml:"disk_dir,omitempty"`
	DiskBytes   int64  `yaml:"disk_bytes,omitempty"`
	Compression string `yaml:"compression,omitempty"`
}

// FieldError reports an invalid field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Load reads and validates the workspace file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a workspace document. Unknown fields are
// rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) setDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	for i := range c.Mounts {
		if c.Mounts[i].Kind == KindTree && c.Mounts[i].Store == "" {
			c.Mounts[i].Store = StoreLocal
		}
	}
}

// Profile resolves the configured platform.
func (c *Config) Profile() (*platform.Profile, error) {
	return platform.Parse(c.Platform)
}

// EffectiveVersion returns Version, or the platform default when unset.
func (c *Config) EffectiveVersion() (int, error) {
	p, err := c.Profile()
	if err != nil {
		return 0, err
	}
	if c.Version == 0 {
		return p.DefaultVersion, nil
	}
	return c.Version, nil
}

// Validate checks every field and joins the failures.
func (c *Config) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if _, err := platform.Parse(c.Platform); err != nil {
		fail("platform", "unknown platform %q", c.Platform)
	}
	if c.Version < 0 {
		fail("version", "must not be negative")
	}
	if c.Workers < 0 {
		fail("workers", "must not be negative")
	}
	if c.IOLimitBytesPerSec < 0 {
		fail("io_limit_bytes_per_sec", "must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		fail("log_level", "unknown level %q", c.LogLevel)
	}

	if c.Cache.MemoryBytes < 0 {
		fail("cache.memory_bytes", "must not be negative")
	}
	if c.Cache.DiskBytes < 0 {
		fail("cache.disk_bytes", "must not be negative")
	}
	if c.Cache.DiskBytes > 0 && c.Cache.DiskDir == "" {
		fail("cache.disk_dir", "required when disk_bytes is set")
	}
	if _, err := cache.ParseCompression(c.Cache.Compression); err != nil {
		fail("cache.compression", "%v", err)
	}

	if len(c.Mounts) == 0 {
		fail("mounts", "at least one mount is required")
	}
	for i, m := range c.Mounts {
		field := func(name string) string { return fmt.Sprintf("mounts[%d].%s", i, name) }
		if m.Path == "" {
			fail(field("path"), "required")
		}
		switch m.Kind {
		case KindHashed, KindDir:
			if m.Store != "" && m.Store != StoreLocal {
				fail(field("store"), "%s mounts only support local files", m.Kind)
			}
		case KindTree:
			switch m.Store {
			case StoreLocal, StoreMemory:
			case StoreS3:
				if m.Bucket == "" {
					fail(field("bucket"), "required for s3")
				}
			case StoreMinio:
				if m.Bucket == "" {
					fail(field("bucket"), "required for minio")
				}
				if m.Endpoint == "" {
					fail(field("endpoint"), "required for minio")
				}
			default:
				fail(field("store"), "unknown store %q", m.Store)
			}
		default:
			fail(field("kind"), "unknown kind %q", m.Kind)
		}
	}
	return errors.Join(errs...)
}
