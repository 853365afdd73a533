// Package cache caches fixed-size blocks of archive data files.
//
// Blocks are keyed by source name and block index. LRUBlockCache keeps
// blocks in memory and reports its usage to a resource.Controller;
// DiskBlockCache persists compressed blocks on local disk as a second level
// for remote stores.
package cache
