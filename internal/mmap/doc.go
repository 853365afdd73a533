// Package mmap maps archive data files read-only into memory.
//
// Tree archives keep their backing data files open for the archive's
// lifetime and serve every entry read as a slice of the mapping, so a read
// never copies through kernel buffers.
//
//	m, err := mmap.Open("GAME.M00")
//	if err != nil { ... }
//	defer m.Close()
//
//	payload, err := m.Slice(off, size)
//
// # Platform Support
//
//   - Unix: mmap(2), with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (hints are a no-op)
//
// Mappings are safe for concurrent reads. Close is idempotent, but slices
// obtained before Close must not be used afterwards.
package mmap
