// Package hashed reads and mutates single-file archives indexed by a flat
// table of path hashes.
//
// Layout (little endian):
//
//	0x00  u32 entry count
//	0x04  u32 capacity (table slots)
//	0x08  u32 block size (0x800)
//	0x0c  u32 reserved
//	0x10  capacity records of 0x14 bytes:
//	      u32 hash | u32 offset | u32 uncompressed size | u32 compressed size | u32 flags
//	...   payloads, each starting on a block boundary
//
// Lookup is a linear scan over the used records and the first matching hash
// wins. Hash collisions are not detected: two paths with the same PathHash
// resolve to the earlier entry.
//
// The archive file is opened for every read, so an Archive may serve
// concurrent reads. Mutations (Add, Update, Rebuild) are serialized.
package hashed
