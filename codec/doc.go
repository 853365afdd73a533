// Package codec loads and saves resource object graphs stored as flat byte
// buffers with internal pointers.
//
// A resource buffer is a set of fixed-layout records that reference each other
// through stored offsets. Offset 0 is the root record and doubles as the null
// pointer, so nothing can point at the root. Pointer width and byte order come
// from the active platform.Profile; record layouts may also branch on the
// format version.
//
// # Loading
//
// Load decodes the root record at offset 0 and follows pointers on demand.
// Every non-null offset is decoded at most once per pass: a second reference
// to the same offset returns the same instance, which keeps shared and cyclic
// graphs finite and consistent.
//
//	nav, err := codec.Load[resource.Navigation](buf, platform.MustLookup(platform.PS3), 1)
//
// # Saving
//
// Save runs in two phases. Phase one allocates an aligned region per object
// and lets the object encode its fields at explicit offsets; every pointer
// write is recorded as a fixup. Phase two appends the string pool and patches
// every fixup with its target's final offset. Deferred fixups never allocate
// their target: some other part of the graph must place it before the pass
// ends, otherwise the save fails with errs.ErrDanglingReference.
//
//	res, err := codec.Save(nav, platform.MustLookup(platform.Win32), 1)
//
// Contexts are single-use and not safe for concurrent use.
package codec
