// Package hash provides the checksums and name hashes used by archive
// formats.
//
// CRC32C is used for tree TOC name hashes and S3 upload checksums; Reverse
// is the backward polynomial hash behind hashed TOC lookups:
//
//	sum := hash.CRC32C(name)
//	h := hash.Reverse(`.\DATA\MODEL.DAT`, 0x83)
package hash
