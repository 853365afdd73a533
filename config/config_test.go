package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
platform: ps3
mounts:
  - kind: tree
    path: data/GAME
  - kind: hashed
    path: data/patch.arc
  - kind: tree
    path: GAME
    store: s3
    bucket: assets
    prefix: v2/
cache:
  memory_bytes: 1048576
  disk_dir: /tmp/resforge
  disk_bytes: 67108864
  compression: lz4
io_limit_bytes_per_sec: 1000000
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "ps3", cfg.Platform)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	require.Len(t, cfg.Mounts, 3)
	assert.Equal(t, StoreLocal, cfg.Mounts[0].Store)
	assert.Equal(t, "", cfg.Mounts[1].Store)
	assert.Equal(t, "assets", cfg.Mounts[2].Bucket)
	assert.Equal(t, int64(1<<20), cfg.Cache.MemoryBytes)
	assert.Equal(t, int64(1000000), cfg.IOLimitBytesPerSec)

	p, err := cfg.Profile()
	require.NoError(t, err)
	assert.True(t, p.BigEndian)

	v, err := cfg.EffectiveVersion()
	require.NoError(t, err)
	assert.Equal(t, p.DefaultVersion, v)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("platform: win32\nmounts: [{kind: dir, path: x}]\ncolour: red\n"))
	require.Error(t, err)
}

func TestValidateNamesField(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"platform", "platform: dreamcast\nmounts: [{kind: dir, path: x}]", "platform"},
		{"no mounts", "platform: win32", "mounts"},
		{"kind", "platform: win32\nmounts: [{kind: zip, path: x}]", "mounts[0].kind"},
		{"path", "platform: win32\nmounts: [{kind: dir}]", "mounts[0].path"},
		{"store", "platform: win32\nmounts: [{kind: tree, path: x, store: ftp}]", "mounts[0].store"},
		{"bucket", "platform: win32\nmounts: [{kind: tree, path: x, store: s3}]", "mounts[0].bucket"},
		{"endpoint", "platform: win32\nmounts: [{kind: tree, path: x, store: minio, bucket: b}]", "mounts[0].endpoint"},
		{"hashed store", "platform: win32\nmounts: [{kind: hashed, path: x, store: s3}]", "mounts[0].store"},
		{"log level", "platform: win32\nlog_level: loud\nmounts: [{kind: dir, path: x}]", "log_level"},
		{"disk dir", "platform: win32\ncache: {disk_bytes: 10}\nmounts: [{kind: dir, path: x}]", "cache.disk_dir"},
		{"compression", "platform: win32\ncache: {compression: brotli}\nmounts: [{kind: dir, path: x}]", "cache.compression"},
		{"workers", "platform: win32\nworkers: -1\nmounts: [{kind: dir, path: x}]", "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	out, err := cfg.Marshal()
	require.NoError(t, err)
	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
