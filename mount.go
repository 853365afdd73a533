package resforge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hupe1980/resforge/archive/hashed"
	"github.com/hupe1980/resforge/archive/tree"
	"github.com/hupe1980/resforge/blobstore"
	miniostore "github.com/hupe1980/resforge/blobstore/minio"
	s3store "github.com/hupe1980/resforge/blobstore/s3"
	"github.com/hupe1980/resforge/config"
	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/cache"
	"github.com/hupe1980/resforge/vfs"
)

// MinIO credentials are read from these environment variables.
const (
	EnvMinioAccessKey = "RESFORGE_MINIO_ACCESS_KEY"
	EnvMinioSecretKey = "RESFORGE_MINIO_SECRET_KEY"
)

// Mount describes one member of a workspace search order.
type Mount struct {
	Kind string
	Path string
	FS   vfs.FS
}

type mounted struct {
	Mount
	tree   *tree.Archive
	hashed *hashed.Archive
}

func (m *mounted) close() error {
	switch {
	case m.tree != nil:
		return m.tree.Close()
	case m.hashed != nil:
		return m.hashed.Close()
	}
	return nil
}

func (ws *Workspace) mount(ctx context.Context, i int, m config.Mount) (*mounted, error) {
	out := &mounted{Mount: Mount{Kind: m.Kind, Path: m.Path}}
	switch m.Kind {
	case config.KindTree:
		store, base, err := ws.treeStore(ctx, i, m)
		if err != nil {
			return nil, err
		}
		a, err := tree.Open(ctx, store, base,
			tree.WithByteOrder(ws.profile.Order),
			tree.WithLogger(ws.logger.Logger),
		)
		if err != nil {
			return nil, err
		}
		out.tree, out.FS = a, a
	case config.KindHashed:
		a, err := hashed.Open(m.Path, hashed.WithLogger(ws.logger.Logger))
		if err != nil {
			return nil, err
		}
		out.hashed, out.FS = a, a
	case config.KindDir:
		info, err := os.Stat(m.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errs.Missingf("directory %s", m.Path)
			}
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", m.Path)
		}
		out.FS = vfs.NewDir(m.Path, nil)
	default:
		return nil, fmt.Errorf("unknown mount kind %q", m.Kind)
	}
	return out, nil
}

// treeStore resolves the blob store and base name of a tree mount.
func (ws *Workspace) treeStore(ctx context.Context, i int, m config.Mount) (blobstore.BlobStore, string, error) {
	if s, ok := ws.opts.stores[m.Store]; ok {
		return ws.withCache(i, m, s)
	}

	switch m.Store {
	case config.StoreLocal, "":
		root, base := m.Root, m.Path
		if root == "" {
			root, base = filepath.Dir(m.Path), filepath.Base(m.Path)
		}
		return blobstore.NewLocalStore(root), base, nil
	case config.StoreS3:
		s, err := s3store.New(ctx, m.Bucket,
			s3store.WithPrefix(m.Prefix),
			s3store.WithRegion(m.Region),
			s3store.WithEndpoint(m.Endpoint),
		)
		if err != nil {
			return nil, "", err
		}
		return ws.withCache(i, m, s)
	case config.StoreMinio:
		s, err := miniostore.New(miniostore.Config{
			Endpoint:  m.Endpoint,
			AccessKey: os.Getenv(EnvMinioAccessKey),
			SecretKey: os.Getenv(EnvMinioSecretKey),
			Region:    m.Region,
			Secure:    m.Secure,
		}, m.Bucket, m.Prefix)
		if err != nil {
			return nil, "", err
		}
		return ws.withCache(i, m, s)
	case config.StoreMemory:
		return nil, "", fmt.Errorf("store %q must be supplied with WithStore", m.Store)
	default:
		return nil, "", fmt.Errorf("unknown store %q", m.Store)
	}
}

// withCache wraps remote stores in the configured block caches. Each mount
// gets its own caches since blob names are only unique per store.
func (ws *Workspace) withCache(i int, m config.Mount, s blobstore.BlobStore) (blobstore.BlobStore, string, error) {
	if m.Store != config.StoreS3 && m.Store != config.StoreMinio {
		return s, m.Path, nil
	}
	if ws.cfg.Cache.DiskBytes > 0 {
		mode, err := cache.ParseCompression(ws.cfg.Cache.Compression)
		if err != nil {
			return nil, "", err
		}
		disk, err := cache.NewDiskBlockCache(cache.DiskCacheConfig{
			RootDir:      filepath.Join(ws.cfg.Cache.DiskDir, strconv.Itoa(i)),
			MaxSizeBytes: ws.cfg.Cache.DiskBytes,
			Compression:  mode,
		})
		if err != nil {
			return nil, "", fmt.Errorf("disk cache: %w", err)
		}
		ws.caches = append(ws.caches, disk)
		s = blobstore.NewCachingStore(s, disk, blobstore.DefaultBlockSize)
	}
	if ws.memoryCacheBytes > 0 {
		lru := cache.NewLRUBlockCache(ws.memoryCacheBytes, ws.rc)
		ws.caches = append(ws.caches, lru)
		s = blobstore.NewCachingStore(s, lru, blobstore.DefaultBlockSize)
	}
	return s, m.Path, nil
}
