// Package tree reads and writes archives with a tree-structured, obfuscated
// table of contents.
//
// An archive named base consists of base.TOC and up to 100 data files
// base.M00 .. base.M99. The TOC starts with a clear 0x18-byte header; the rest
// is XOR-obfuscated (see Munge). Entries form a tree: entry 0 is the root and
// every directory names a contiguous range of child entries. Paths are
// resolved once at Open by a single descent from the root and indexed for
// lookup.
//
//	arc, err := tree.Open(ctx, store, "GAME")
//	data, err := arc.Read(ctx, "ui/icon.png")
//
// Data files are held open for the lifetime of the Archive. Reads are safe
// for concurrent use; Close must not race with reads.
package tree
