package resforge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/config"
	"github.com/hupe1980/resforge/errs"
	"github.com/hupe1980/resforge/internal/cache"
	"github.com/hupe1980/resforge/internal/resource"
	"github.com/hupe1980/resforge/platform"
	res "github.com/hupe1980/resforge/resource"
	"github.com/hupe1980/resforge/vfs"
)

// GPUSuffix names the side file holding a resource's GPU buffer.
const GPUSuffix = ".gpu"

// Workspace is an ordered set of mounted archives and directories for one
// target platform. Earlier mounts shadow later ones.
type Workspace struct {
	cfg     config.Config
	opts    options
	profile *platform.Profile
	version int

	mounts []*mounted
	chain  *vfs.Chain
	caches []cache.BlockCache

	rc               *resource.Controller
	memoryCacheBytes int64

	logger  *Logger
	metrics MetricsCollector
	closed  atomic.Bool
}

// Open mounts every archive named by cfg in order.
func Open(ctx context.Context, cfg *config.Config, optFns ...Option) (*Workspace, error) {
	if cfg == nil {
		return nil, errors.New("resforge: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)

	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}
	version, err := cfg.EffectiveVersion()
	if err != nil {
		return nil, err
	}

	memBytes := cfg.Cache.MemoryBytes
	if o.memoryCacheBytes >= 0 {
		memBytes = o.memoryCacheBytes
	}
	ioLimit := cfg.IOLimitBytesPerSec
	if o.ioLimit >= 0 {
		ioLimit = o.ioLimit
	}
	workers := cfg.Workers
	if o.workers > 0 {
		workers = o.workers
	}
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	ws := &Workspace{
		cfg:     *cfg,
		opts:    o,
		profile: profile,
		version: version,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   memBytes,
			MaxWorkers:         int64(workers),
			IOLimitBytesPerSec: ioLimit,
		}),
		memoryCacheBytes: memBytes,
		logger:           o.logger.WithPlatform(profile, version),
		metrics:          o.metricsCollector,
	}

	members := make([]vfs.FS, 0, len(cfg.Mounts))
	for i, m := range cfg.Mounts {
		mt, err := ws.mount(ctx, i, m)
		ws.logger.LogMount(ctx, m.Kind, m.Path, err)
		if err != nil {
			_ = ws.Close()
			return nil, &MountError{Kind: m.Kind, Path: m.Path, cause: err}
		}
		ws.mounts = append(ws.mounts, mt)
		members = append(members, mt.FS)
	}
	ws.chain = vfs.NewChain(members...)
	return ws, nil
}

// Platform returns the target platform.
func (ws *Workspace) Platform() *platform.Profile { return ws.profile }

// Version returns the resource version used for loads and saves.
func (ws *Workspace) Version() int { return ws.version }

// Mounts returns the search order.
func (ws *Workspace) Mounts() []Mount {
	out := make([]Mount, len(ws.mounts))
	for i, m := range ws.mounts {
		out[i] = m.Mount
	}
	return out
}

// FS returns the workspace as a single vfs.FS.
func (ws *Workspace) FS() vfs.FS { return ws.chain }

// Exists reports whether any mount holds path.
func (ws *Workspace) Exists(ctx context.Context, path string) bool {
	if ws.closed.Load() {
		return false
	}
	return ws.chain.Exists(ctx, path)
}

// Read returns path from the first mount that holds it.
func (ws *Workspace) Read(ctx context.Context, path string) ([]byte, error) {
	if ws.closed.Load() {
		return nil, ErrClosed
	}
	start := time.Now()
	data, err := ws.chain.Read(ctx, path)
	if err == nil {
		err = ws.rc.AcquireIO(ctx, len(data))
	}
	err = translateError(err)
	ws.metrics.RecordRead(len(data), time.Since(start), err)
	ws.logger.LogRead(ctx, path, len(data), err)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Open returns a reader for path and its size.
func (ws *Workspace) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	if ws.closed.Load() {
		return nil, 0, ErrClosed
	}
	rc, n, err := ws.chain.Open(ctx, path)
	return rc, n, translateError(err)
}

// Load reads path and decodes it as a resource of kind k. A GPU side file
// (path + GPUSuffix) is attached when present.
func (ws *Workspace) Load(ctx context.Context, path string, k res.Kind) (codec.Object, error) {
	data, err := ws.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	opts := []codec.Option{codec.WithLogger(ws.logger.Logger)}
	if ws.Exists(ctx, path+GPUSuffix) {
		gpu, err := ws.Read(ctx, path+GPUSuffix)
		if err != nil {
			return nil, err
		}
		opts = append(opts, codec.WithGPUData(gpu))
	}

	start := time.Now()
	obj, err := res.Decode(k, data, ws.profile, ws.version, opts...)
	ws.metrics.RecordLoad(string(k), time.Since(start), err)
	ws.logger.LogLoad(ctx, path, string(k), err)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return obj, nil
}

// Encode serializes obj for the workspace platform and version.
func (ws *Workspace) Encode(obj codec.Object) (*codec.Result, error) {
	start := time.Now()
	r, err := codec.Save(obj, ws.profile, ws.version, codec.WithLogger(ws.logger.Logger))
	size := 0
	if r != nil {
		size = len(r.Data)
	}
	ws.metrics.RecordSave(fmt.Sprintf("%T", obj), size, time.Since(start), err)
	return r, err
}

// Save encodes obj and writes it back to the hashed archive that holds path.
// The GPU buffer, if any, goes to path + GPUSuffix in the same archive.
func (ws *Workspace) Save(ctx context.Context, path string, obj codec.Object) error {
	if ws.closed.Load() {
		return ErrClosed
	}
	i := ws.chain.Locate(ctx, path)
	if i < 0 {
		return errs.NotFound(path)
	}
	m := ws.mounts[i]
	if m.hashed == nil {
		return fmt.Errorf("save %s: %s mount %s: %w", path, m.Kind, m.Path, ErrReadOnly)
	}

	r, err := ws.Encode(obj)
	if err == nil {
		err = m.hashed.Update(path, r.Data)
	}
	if err == nil && len(r.GPU) > 0 {
		gpu := path + GPUSuffix
		if m.hashed.Exists(ctx, gpu) {
			err = m.hashed.Update(gpu, r.GPU)
		} else {
			err = m.hashed.Add(gpu, r.GPU)
		}
	}
	size, gpuSize := 0, 0
	if r != nil {
		size, gpuSize = len(r.Data), len(r.GPU)
	}
	ws.logger.LogSave(ctx, path, size, gpuSize, err)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Extract copies paths into dir, preserving their relative layout. Reads fan
// out over the configured worker count. Every failure is reported.
func (ws *Workspace) Extract(ctx context.Context, paths []string, dir string) error {
	if ws.closed.Load() {
		return ErrClosed
	}
	var (
		mu      sync.Mutex
		errList []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range paths {
		if err := ws.rc.AcquireWorker(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer ws.rc.ReleaseWorker()
			if err := ws.extractOne(gctx, p, dir); err != nil {
				mu.Lock()
				errList = append(errList, fmt.Errorf("%s: %w", p, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	ws.logger.LogExtract(ctx, len(paths), len(errList))
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errList...)
}

func (ws *Workspace) extractOne(ctx context.Context, p, dir string) error {
	data, err := ws.Read(ctx, p)
	if err != nil {
		return err
	}
	rel := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, `\`, "/")), "/")
	dst := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// Stats reports block cache hits and misses summed over all mounts, and the
// bytes read through the workspace.
func (ws *Workspace) Stats() (hits, misses, bytesRead int64) {
	for _, c := range ws.caches {
		h, m := c.Stats()
		hits += h
		misses += m
	}
	return hits, misses, ws.rc.IOBytes()
}

// Close releases every mount and cache.
func (ws *Workspace) Close() error {
	if ws.closed.Swap(true) {
		return nil
	}
	var errList []error
	for _, m := range ws.mounts {
		if err := m.close(); err != nil {
			errList = append(errList, fmt.Errorf("close %s: %w", m.Path, err))
		}
	}
	for _, c := range ws.caches {
		if err := c.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
