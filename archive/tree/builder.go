package tree

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/resforge/blobstore"
	"github.com/hupe1980/resforge/internal/byteio"
	"github.com/hupe1980/resforge/internal/conv"
	"github.com/hupe1980/resforge/internal/hash"
)

// Builder assembles a tree archive from files.
type Builder struct {
	opts  options
	root  *node
	count int
}

type node struct {
	name     string
	dir      bool
	data     []byte
	children map[string]*node

	index, parent, first, nchild int
}

// NewBuilder returns an empty builder.
func NewBuilder(optFns ...Option) *Builder {
	return &Builder{
		opts: applyOptions(optFns),
		root: &node{dir: true, children: map[string]*node{}},
	}
}

// Add adds a file. Intermediate directories are created as needed.
func (b *Builder) Add(path string, data []byte) error {
	clean := Clean(path)
	if clean == "" {
		return fmt.Errorf("tree: empty path %q", path)
	}
	parts := strings.Split(clean, "/")
	cur := b.root
	for i, part := range parts {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("tree: invalid path %q", path)
		}
		next, ok := cur.children[part]
		last := i == len(parts)-1
		switch {
		case !ok && last:
			cur.children[part] = &node{name: part, data: data}
			b.count++
			return nil
		case !ok:
			next = &node{name: part, dir: true, children: map[string]*node{}}
			cur.children[part] = next
		case last && next.dir:
			return fmt.Errorf("tree: %q is a directory", clean)
		case last:
			next.data = data
			return nil
		case !next.dir:
			return fmt.Errorf("tree: %q is a file", strings.Join(parts[:i+1], "/"))
		}
		cur = next
	}
	return nil
}

// Len returns the number of files added.
func (b *Builder) Len() int { return b.count }

// Image is a built archive.
type Image struct {
	TOC  []byte
	Data [][]byte
}

// Write stores the image under base.
func (img *Image) Write(ctx context.Context, store blobstore.BlobStore, base string) error {
	for i, d := range img.Data {
		if err := store.Put(ctx, DataFileName(base, i), d); err != nil {
			return err
		}
	}
	return store.Put(ctx, TOCName(base), img.TOC)
}

// Build lays out entries breadth first so every directory's children are
// contiguous, packs payloads into data files and obfuscates the TOC.
func (b *Builder) Build() (*Image, error) {
	order := []*node{b.root}
	b.root.parent = -1
	for qi := 0; qi < len(order); qi++ {
		n := order[qi]
		n.index = qi
		if !n.dir {
			continue
		}
		names := make([]string, 0, len(n.children))
		for name := range n.children {
			names = append(names, name)
		}
		sort.Strings(names)
		n.first, n.nchild = len(order), len(names)
		for _, name := range names {
			c := n.children[name]
			c.parent = qi
			order = append(order, c)
		}
	}

	// String pool; offset 0 is the root's empty name.
	pool := []byte{0}
	nameOff := map[string]int{"": 0}
	for _, n := range order {
		if _, ok := nameOff[n.name]; !ok {
			nameOff[n.name] = len(pool)
			pool = append(pool, n.name...)
			pool = append(pool, 0)
		}
	}

	var bins []*byteio.Writer
	var cur *byteio.Writer
	type placed struct {
		bin, off int
	}
	where := make(map[*node]placed)
	for _, n := range order {
		if n.dir {
			continue
		}
		if cur == nil || (b.opts.maxDataSize > 0 && cur.Len() > 0 &&
			int64(byteio.AlignUp(cur.Len(), b.opts.align)+len(n.data)) > b.opts.maxDataSize) {
			if len(bins) == MaxDataFiles {
				return nil, fmt.Errorf("tree: more than %d data files needed", MaxDataFiles)
			}
			cur = byteio.NewWriter(b.opts.order)
			bins = append(bins, cur)
		}
		where[n] = placed{bin: len(bins) - 1, off: cur.Append(n.data, b.opts.align)}
	}

	tableOff := HeaderSize
	poolOff := tableOff + len(order)*EntrySize
	w := byteio.NewWriter(b.opts.order)
	w.Reserve(poolOff, 1)
	w.Append(pool, 1)

	h := Header{
		EntryCount:       uint32(len(order)),
		DataFileCount:    uint32(len(bins)),
		TableOffset:      uint32(tableOff),
		StringPoolOffset: uint32(poolOff),
	}
	var err error
	if h.StringPoolSize, err = conv.IntToUint32(len(pool)); err != nil {
		return nil, fmt.Errorf("tree: string pool: %w", err)
	}
	if err := h.put(w); err != nil {
		return nil, err
	}

	for _, n := range order {
		at := tableOff + n.index*EntrySize
		var isDir, a, c uint32
		var parentOrBin int32
		if n.dir {
			isDir = 1
			parentOrBin = int32(n.parent)
			a, c = uint32(n.first), uint32(n.nchild)
			if n.nchild == 0 {
				a = 0
			}
		} else {
			p := where[n]
			parentOrBin = int32(p.bin)
			if a, err = conv.IntToUint32(p.off); err != nil {
				return nil, fmt.Errorf("tree: offset of %s: %w", n.name, err)
			}
			if c, err = conv.IntToUint32(len(n.data)); err != nil {
				return nil, fmt.Errorf("tree: size of %s: %w", n.name, err)
			}
		}
		fields := []uint32{hash.CRC32C([]byte(n.name)), isDir, uint32(parentOrBin), a, c, uint32(nameOff[n.name])}
		for i, v := range fields {
			if err := w.PutU32(at+4*i, v); err != nil {
				return nil, err
			}
		}
	}

	toc := w.Bytes()
	Munge(toc[HeaderSize:])

	img := &Image{TOC: toc, Data: make([][]byte, len(bins))}
	for i, bw := range bins {
		img.Data[i] = bw.Bytes()
	}
	b.opts.logger.Debug("tree archive built", "entries", len(order), "files", b.count, "data_files", len(bins))
	return img, nil
}
