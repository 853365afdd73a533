// Package fs abstracts the file operations behind writable archives.
//
// Archive writers take a [FileSystem] so tests can substitute [FaultyFS],
// which fails writes, syncs, closes or renames of selected files:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tmp", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context; local file calls are not interruptible.
package fs
