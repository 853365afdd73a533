package resforge

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resforge/archive/hashed"
	"github.com/hupe1980/resforge/archive/tree"
	"github.com/hupe1980/resforge/blobstore"
	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/config"
	"github.com/hupe1980/resforge/platform"
	"github.com/hupe1980/resforge/resource"
)

func navigation() *resource.Navigation {
	n := &resource.Navigation{}
	g := &resource.SpatialGroup{Max: [3]float32{10, 10, 10}}
	a := &resource.Waypoint{Position: [3]float32{1, 0, 1}, Radius: 0.5}
	b := &resource.Waypoint{Position: [3]float32{4, 0, 4}, Radius: 1}
	n.Groups = []*resource.SpatialGroup{g}
	n.Waypoints = []*resource.Waypoint{a, b}
	n.Connect(a, b, g, 2)
	return n
}

type fixture struct {
	dir     string
	arcPath string
	store   *blobstore.MemoryStore
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	p := platform.MustLookup(platform.Win32)
	dir := t.TempDir()

	nav, err := codec.Save(navigation(), p, p.DefaultVersion)
	require.NoError(t, err)

	arcPath := filepath.Join(dir, "patch.arc")
	arc, err := hashed.Create(arcPath, 16)
	require.NoError(t, err)
	require.NoError(t, arc.Add("tracks/alps/nav.bin", nav.Data))
	require.NoError(t, arc.Add("ui/icon.png", []byte("patched icon")))

	b := tree.NewBuilder(tree.WithByteOrder(p.Order))
	require.NoError(t, b.Add("ui/icon.png", []byte("original icon")))
	require.NoError(t, b.Add("ui/font.fnt", []byte("font")))
	img, err := b.Build()
	require.NoError(t, err)
	store := blobstore.NewMemoryStore()
	require.NoError(t, img.Write(ctx, store, "GAME"))

	loose := filepath.Join(dir, "loose")
	require.NoError(t, os.MkdirAll(filepath.Join(loose, "cfg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(loose, "cfg", "game.ini"), []byte("[game]"), 0o644))

	return &fixture{
		dir:     dir,
		arcPath: arcPath,
		store:   store,
		cfg: &config.Config{
			Platform: "win32",
			Mounts: []config.Mount{
				{Kind: config.KindHashed, Path: arcPath},
				{Kind: config.KindTree, Path: "GAME", Store: config.StoreMemory},
				{Kind: config.KindDir, Path: loose},
			},
		},
	}
}

func (f *fixture) open(t *testing.T, opts ...Option) *Workspace {
	t.Helper()
	opts = append([]Option{WithStore(config.StoreMemory, f.store)}, opts...)
	ws, err := Open(context.Background(), f.cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestWorkspaceRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	metrics := &BasicMetricsCollector{}
	ws := f.open(t, WithMetricsCollector(metrics))

	assert.Equal(t, platform.Win32, ws.Platform().ID)
	assert.Equal(t, 1, ws.Version())
	require.Len(t, ws.Mounts(), 3)
	assert.Equal(t, config.KindTree, ws.Mounts()[1].Kind)

	data, err := ws.Read(ctx, "ui/icon.png")
	require.NoError(t, err)
	assert.Equal(t, "patched icon", string(data))

	data, err = ws.Read(ctx, "ui/font.fnt")
	require.NoError(t, err)
	assert.Equal(t, "font", string(data))

	rc, n, err := ws.Open(ctx, "cfg/game.ini")
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, int64(6), n)

	_, err = ws.Read(ctx, "ui/missing.png")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, ws.Exists(ctx, "ui/missing.png"))

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.ReadCount)
	assert.Equal(t, int64(1), stats.ReadErrors)
	assert.Equal(t, int64(len("patched icon")+len("font")), stats.ReadBytes)

	_, _, read := ws.Stats()
	assert.Equal(t, stats.ReadBytes, read)
}

func TestWorkspaceLoadSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ws := f.open(t)

	obj, err := ws.Load(ctx, "tracks/alps/nav.bin", resource.KindNavigation)
	require.NoError(t, err)
	nav := obj.(*resource.Navigation)
	require.Len(t, nav.Waypoints, 2)
	assert.Same(t, nav.Waypoints[1], nav.Links[0].To)

	nav.Waypoints[1].Radius = 7
	require.NoError(t, ws.Save(ctx, "tracks/alps/nav.bin", nav))
	require.NoError(t, ws.Close())

	ws = f.open(t)
	obj, err = ws.Load(ctx, "tracks/alps/nav.bin", resource.KindNavigation)
	require.NoError(t, err)
	assert.Equal(t, float32(7), obj.(*resource.Navigation).Waypoints[1].Radius)

	_, err = ws.Load(ctx, "ui/font.fnt", resource.KindNavigation)
	require.ErrorIs(t, err, ErrFormat)

	err = ws.Save(ctx, "ui/font.fnt", navigation())
	require.ErrorIs(t, err, ErrReadOnly)

	err = ws.Save(ctx, "nowhere.bin", navigation())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWorkspaceMeshGPU(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ws := f.open(t)

	mesh := &resource.Mesh{
		Name:        "kart",
		VertexCount: 2,
		Streams:     []*resource.Stream{{Stride: 12}},
		VertexData:  bytes.Repeat([]byte{0x5a}, 24),
	}

	arc, err := hashed.Open(f.arcPath)
	require.NoError(t, err)
	r, err := ws.Encode(mesh)
	require.NoError(t, err)
	require.NoError(t, arc.Add("cars/kart.msh", r.Data))
	require.NoError(t, ws.Close())

	ws = f.open(t)
	mesh.VertexData = bytes.Repeat([]byte{0x6b}, 24)
	require.NoError(t, ws.Save(ctx, "cars/kart.msh", mesh))
	assert.True(t, ws.Exists(ctx, "cars/kart.msh"+GPUSuffix))
	require.NoError(t, ws.Close())

	ws = f.open(t)
	obj, err := ws.Load(ctx, "cars/kart.msh", resource.KindMesh)
	require.NoError(t, err)
	got := obj.(*resource.Mesh)
	assert.Equal(t, "kart", got.Name)
	assert.Equal(t, mesh.VertexData, got.VertexData)
}

func TestWorkspaceExtract(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ws := f.open(t, WithWorkers(2))
	out := filepath.Join(f.dir, "out")

	err := ws.Extract(ctx, []string{"ui/icon.png", "ui/font.fnt", "cfg/game.ini"}, out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "ui", "icon.png"))
	require.NoError(t, err)
	assert.Equal(t, "patched icon", string(data))
	_, err = os.Stat(filepath.Join(out, "cfg", "game.ini"))
	require.NoError(t, err)

	err = ws.Extract(ctx, []string{"ui/font.fnt", "gone.bin"}, out)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "gone.bin")
}

func TestWorkspaceOpenErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := Open(ctx, f.cfg)
	require.Error(t, err)
	var me *MountError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, config.KindTree, me.Kind)

	cfg := *f.cfg
	cfg.Mounts = []config.Mount{{Kind: config.KindHashed, Path: filepath.Join(f.dir, "absent.arc")}}
	_, err = Open(ctx, &cfg)
	require.ErrorIs(t, err, ErrMissingData)

	cfg.Mounts = []config.Mount{{Kind: config.KindDir, Path: filepath.Join(f.dir, "absent")}}
	_, err = Open(ctx, &cfg)
	require.ErrorIs(t, err, ErrMissingData)

	cfg.Platform = "amiga"
	_, err = Open(ctx, &cfg)
	var fe *config.FieldError
	require.ErrorAs(t, err, &fe)

	_, err = Open(ctx, nil)
	require.Error(t, err)
}

func TestWorkspaceClosed(t *testing.T) {
	ctx := context.Background()
	ws := newFixture(t).open(t)
	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())

	_, err := ws.Read(ctx, "ui/icon.png")
	require.ErrorIs(t, err, ErrClosed)
	assert.False(t, ws.Exists(ctx, "ui/icon.png"))
	require.ErrorIs(t, ws.Save(ctx, "ui/icon.png", navigation()), ErrClosed)
}
