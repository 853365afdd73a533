package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/resforge/archive/hashed"
	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/platform"
	"github.com/hupe1980/resforge/resource"
)

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestUsage(t *testing.T) {
	_, stderr, code := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "pack-tree")

	_, stderr, code = runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	_, stderr, code = runCLI(t, "cat", "only-one-arg")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: resforge cat")
}

func TestHash(t *testing.T) {
	out, _, code := runCLI(t, "hash", "data/model.dat")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `.\DATA\MODEL.DAT`)
	assert.Contains(t, out, hexHash("data/model.dat"))
}

func hexHash(p string) string {
	return fmt.Sprintf("%08x", hashed.PathHash(p))
}

func TestTreeCommands(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "ui", "icon.png"), []byte("icon"))
	writeFile(t, filepath.Join(src, "tracks", "alps.trk"), []byte("alps track"))
	base := filepath.Join(dir, "out", "GAME")
	require.NoError(t, os.MkdirAll(filepath.Dir(base), 0o755))

	out, stderr, code := runCLI(t, "pack-tree", "-o", base, "-platform", "ps3", src)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "packed 2 files")

	out, stderr, code = runCLI(t, "ls", "-platform", "ps3", base)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "ui/icon.png\t4\t")
	assert.Contains(t, out, "tracks/\n")

	out, stderr, code = runCLI(t, "cat", "-platform", "ps3", base, "tracks/alps.trk")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "alps track", out)

	_, stderr, code = runCLI(t, "cat", "-platform", "ps3", base, "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not found")

	dst := filepath.Join(dir, "extracted")
	_, stderr, code = runCLI(t, "extract", "-platform", "ps3", "-o", dst, base)
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(filepath.Join(dst, "ui", "icon.png"))
	require.NoError(t, err)
	assert.Equal(t, "icon", string(data))
}

func TestHashedCommands(t *testing.T) {
	dir := t.TempDir()
	arc := filepath.Join(dir, "patch.arc")
	small := filepath.Join(dir, "small.txt")
	big := filepath.Join(dir, "big.txt")
	writeFile(t, small, []byte("small"))
	writeFile(t, big, bytes.Repeat([]byte("lap "), 2000))

	_, stderr, code := runCLI(t, "create", "-capacity", "4", arc)
	require.Equal(t, 0, code, stderr)
	_, stderr, code = runCLI(t, "add", arc, "cfg/a.txt", small)
	require.Equal(t, 0, code, stderr)
	_, stderr, code = runCLI(t, "add", "-z", "9", arc, "cfg/b.txt", big)
	require.Equal(t, 0, code, stderr)
	_, stderr, code = runCLI(t, "update", arc, "cfg/a.txt", big)
	require.Equal(t, 0, code, stderr)
	_, stderr, code = runCLI(t, "rebuild", "-capacity", "8", arc)
	require.Equal(t, 0, code, stderr)

	out, stderr, code := runCLI(t, "ls", arc)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "entries 2/8")
	assert.Contains(t, out, hexHash("cfg/b.txt"))

	out, stderr, code = runCLI(t, "cat", arc, `CFG\A.TXT`)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, 8000, len(out))

	list := filepath.Join(dir, "list.txt")
	writeFile(t, list, []byte("# files\ncfg/a.txt\ncfg/b.txt\n"))
	dst := filepath.Join(dir, "x")
	_, stderr, code = runCLI(t, "extract", "-o", dst, "-list", list, arc)
	require.Equal(t, 0, code, stderr)
	_, err := os.Stat(filepath.Join(dst, "cfg", "b.txt"))
	require.NoError(t, err)

	_, stderr, code = runCLI(t, "extract", "-o", dst, arc)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-list")

	_, stderr, code = runCLI(t, "add", arc, "cfg/a.txt", small)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "exists")
}

func TestResourceCommands(t *testing.T) {
	dir := t.TempDir()
	p := platform.MustLookup(platform.Xbox360)

	n := &resource.Navigation{}
	g := &resource.SpatialGroup{Max: [3]float32{1, 1, 1}}
	a := &resource.Waypoint{Radius: 1}
	b := &resource.Waypoint{Position: [3]float32{2, 0, 0}, Radius: 3}
	n.Groups = []*resource.SpatialGroup{g}
	n.Waypoints = []*resource.Waypoint{a, b}
	n.Connect(a, b, g, 1.5)
	n.Connect(b, a, g, 2.5)

	res, err := codec.Save(n, p, p.DefaultVersion)
	require.NoError(t, err)
	file := filepath.Join(dir, "nav.bin")
	writeFile(t, file, res.Data)

	out, stderr, code := runCLI(t, "roundtrip", "-type", "nav", "-platform", "xbox360", file)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "identical")

	out, stderr, code = runCLI(t, "dump", "-type", "nav", "-platform", "xbox360", file)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "waypoints:")
	assert.Contains(t, out, "cost: 2.5")
	assert.Contains(t, out, "from: 1")

	padded := append(append([]byte{}, res.Data...), 0, 0, 0, 0)
	writeFile(t, file, padded)
	out, _, code = runCLI(t, "roundtrip", "-type", "nav", "-platform", "xbox360", file)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "differs")

	_, stderr, code = runCLI(t, "dump", "-type", "font", file)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown resource kind")
}

func TestFirstDiff(t *testing.T) {
	_, ok := firstDiff([]byte{1, 2}, []byte{1, 2})
	assert.True(t, ok)
	off, ok := firstDiff([]byte{1, 2, 3}, []byte{1, 9, 3})
	assert.False(t, ok)
	assert.Equal(t, 1, off)
	off, ok = firstDiff([]byte{1}, []byte{1, 2})
	assert.False(t, ok)
	assert.Equal(t, 1, off)
}
