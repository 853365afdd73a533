package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/resforge"
	"github.com/hupe1980/resforge/archive/hashed"
	"github.com/hupe1980/resforge/archive/tree"
	"github.com/hupe1980/resforge/blobstore"
	"github.com/hupe1980/resforge/config"
	"github.com/hupe1980/resforge/platform"
	"github.com/hupe1980/resforge/vfs"
)

type archive interface {
	vfs.FS
	Close() error
}

// openArchive opens a tree archive if <path>.TOC exists and a hashed
// archive otherwise.
func openArchive(ctx context.Context, path string, p *platform.Profile) (archive, error) {
	if _, err := os.Stat(tree.TOCName(path)); err == nil {
		store := blobstore.NewLocalStore(filepath.Dir(path))
		return tree.Open(ctx, store, filepath.Base(path), tree.WithByteOrder(p.Order))
	}
	return hashed.Open(path)
}

func platformFlag(fl *flag.FlagSet, name *string) {
	fl.StringVar(name, "platform", "win32", "target platform (win32, ps3, xbox360, wiiu, android)")
}

func runLs(ctx context.Context, e *env, args []string) error {
	fl := newFlagSet("ls", e)
	var plat string
	platformFlag(fl, &plat)
	if err := fl.Parse(args); err != nil {
		return err
	}
	if fl.NArg() != 1 {
		return errUsage
	}
	p, err := platform.Parse(plat)
	if err != nil {
		return err
	}
	a, err := openArchive(ctx, fl.Arg(0), p)
	if err != nil {
		return err
	}
	defer a.Close()

	w := bufio.NewWriter(e.stdout)
	defer w.Flush()

	switch a := a.(type) {
	case *tree.Archive:
		for _, ent := range a.Entries() {
			if ent.Path == "" {
				continue
			}
			if ent.IsDir {
				fmt.Fprintf(w, "%s/\n", dirColor(ent.Path))
				continue
			}
			fmt.Fprintf(w, "%s\t%d\tM%02d@0x%x\n", ent.Path, ent.Size(), ent.Bin(), ent.Offset())
		}
	case *hashed.Archive:
		h := a.Header()
		fmt.Fprintf(w, "entries %d/%d, block 0x%x\n", h.EntryCount, h.Capacity, h.BlockSize)
		for _, ent := range a.Entries() {
			size := fmt.Sprintf("%d", ent.UncompressedSize)
			if ent.Compressed() {
				size = packedColor(fmt.Sprintf("%d (%d)", ent.UncompressedSize, ent.CompressedSize))
			}
			fmt.Fprintf(w, "%s\t0x%08x\t%s\n", hashColor(fmt.Sprintf("%08x", ent.Hash)), ent.Offset, size)
		}
	}
	return nil
}

func runCat(ctx context.Context, e *env, args []string) error {
	fl := newFlagSet("cat", e)
	var plat, cfgPath string
	platformFlag(fl, &plat)
	fl.StringVar(&cfgPath, "config", "", "workspace config file")
	if err := fl.Parse(args); err != nil {
		return err
	}

	var (
		src  vfs.FS
		name string
	)
	if cfgPath != "" {
		if fl.NArg() != 1 {
			return errUsage
		}
		ws, err := openWorkspace(ctx, cfgPath)
		if err != nil {
			return err
		}
		defer ws.Close()
		src, name = ws, fl.Arg(0)
	} else {
		if fl.NArg() != 2 {
			return errUsage
		}
		p, err := platform.Parse(plat)
		if err != nil {
			return err
		}
		a, err := openArchive(ctx, fl.Arg(0), p)
		if err != nil {
			return err
		}
		defer a.Close()
		src, name = a, fl.Arg(1)
	}

	rc, _, err := src.Open(ctx, name)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(e.stdout, rc)
	return err
}

func openWorkspace(ctx context.Context, path string) (*resforge.Workspace, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	level, err := resforge.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return resforge.Open(ctx, cfg, resforge.WithLogLevel(level))
}

func runExtract(ctx context.Context, e *env, args []string) error {
	fl := newFlagSet("extract", e)
	var plat, cfgPath, out, list string
	var workers int
	platformFlag(fl, &plat)
	fl.StringVar(&cfgPath, "config", "", "workspace config file")
	fl.StringVar(&out, "o", "", "output directory")
	fl.StringVar(&list, "list", "", "file with one path per line (required for hashed archives)")
	fl.IntVar(&workers, "workers", 0, "concurrent reads (default from config)")
	if err := fl.Parse(args); err != nil {
		return err
	}
	if out == "" {
		return errUsage
	}

	var cfg *config.Config
	if cfgPath != "" {
		if fl.NArg() != 0 || list == "" {
			return errUsage
		}
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = c
	} else {
		if fl.NArg() != 1 {
			return errUsage
		}
		path := fl.Arg(0)
		m := config.Mount{Kind: config.KindHashed, Path: path}
		if _, err := os.Stat(tree.TOCName(path)); err == nil {
			m = config.Mount{Kind: config.KindTree, Path: path, Store: config.StoreLocal}
		}
		cfg = &config.Config{Platform: plat, Mounts: []config.Mount{m}}
	}

	ws, err := resforge.Open(ctx, cfg, resforge.WithWorkers(workers))
	if err != nil {
		return err
	}
	defer ws.Close()

	var paths []string
	switch {
	case list != "":
		paths, err = readList(list)
		if err != nil {
			return err
		}
	default:
		a, ok := ws.Mounts()[0].FS.(*tree.Archive)
		if !ok {
			return errors.New("hashed archives store no names; pass -list")
		}
		for _, ent := range a.Files() {
			paths = append(paths, ent.Path)
		}
	}

	if err := ws.Extract(ctx, paths, out); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "extracted %d files to %s\n", len(paths), out)
	return nil
}

func readList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

func runHash(_ context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	for _, p := range args {
		fmt.Fprintf(e.stdout, "%s\t%s\n", hashColor(fmt.Sprintf("%08x", hashed.PathHash(p))), hashed.Canonical(p))
	}
	return nil
}

func runCreate(_ context.Context, e *env, args []string) error {
	fl := newFlagSet("create", e)
	capacity := fl.Int("capacity", 256, "entry table capacity")
	if err := fl.Parse(args); err != nil {
		return err
	}
	if fl.NArg() != 1 {
		return errUsage
	}
	a, err := hashed.Create(fl.Arg(0), *capacity)
	if err != nil {
		return err
	}
	return a.Close()
}

func runAdd(_ context.Context, e *env, args []string) error {
	return mutate("add", e, args, (*hashed.Archive).Add)
}

func runUpdate(_ context.Context, e *env, args []string) error {
	return mutate("update", e, args, (*hashed.Archive).Update)
}

func mutate(name string, e *env, args []string, op func(*hashed.Archive, string, []byte) error) error {
	fl := newFlagSet(name, e)
	level := fl.Int("z", -1, "deflate level 0-9 (default: store raw)")
	if err := fl.Parse(args); err != nil {
		return err
	}
	if fl.NArg() != 3 {
		return errUsage
	}
	data, err := os.ReadFile(fl.Arg(2))
	if err != nil {
		return err
	}
	var opts []hashed.Option
	if *level >= 0 {
		opts = append(opts, hashed.WithCompression(*level))
	}
	a, err := hashed.Open(fl.Arg(0), opts...)
	if err != nil {
		return err
	}
	defer a.Close()
	return op(a, fl.Arg(1), data)
}

func runRebuild(_ context.Context, e *env, args []string) error {
	fl := newFlagSet("rebuild", e)
	capacity := fl.Int("capacity", 0, "new table capacity (default: keep)")
	if err := fl.Parse(args); err != nil {
		return err
	}
	if fl.NArg() != 1 {
		return errUsage
	}
	a, err := hashed.Open(fl.Arg(0))
	if err != nil {
		return err
	}
	defer a.Close()
	n := *capacity
	if n == 0 {
		n = int(a.Header().Capacity)
	}
	return a.Rebuild(n)
}

func runPackTree(ctx context.Context, e *env, args []string) error {
	fl := newFlagSet("pack-tree", e)
	var plat, out string
	var maxSize int64
	platformFlag(fl, &plat)
	fl.StringVar(&out, "o", "", "output base path (writes <base>.TOC and <base>.Mnn)")
	fl.Int64Var(&maxSize, "max-data-size", 0, "split data files above this size")
	if err := fl.Parse(args); err != nil {
		return err
	}
	if out == "" || fl.NArg() != 1 {
		return errUsage
	}
	p, err := platform.Parse(plat)
	if err != nil {
		return err
	}

	opts := []tree.Option{tree.WithByteOrder(p.Order)}
	if maxSize > 0 {
		opts = append(opts, tree.WithMaxDataFileSize(maxSize))
	}
	b := tree.NewBuilder(opts...)
	root := fl.Arg(0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return b.Add(filepath.ToSlash(rel), data)
	})
	if err != nil {
		return err
	}
	img, err := b.Build()
	if err != nil {
		return err
	}
	store := blobstore.NewLocalStore(filepath.Dir(out))
	if err := img.Write(ctx, store, filepath.Base(out)); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "packed %d files into %s (%d data files)\n", b.Len(), tree.TOCName(out), len(img.Data))
	return nil
}
