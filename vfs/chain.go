package vfs

import (
	"context"
	"io"

	"github.com/hupe1980/resforge/errs"
)

// Chain searches its members in order. A lookup miss falls through to the
// next member; the first hit or the first non-miss error is returned.
type Chain struct {
	members []FS
}

// NewChain returns a chain over members, searched in the given order.
func NewChain(members ...FS) *Chain {
	return &Chain{members: members}
}

// Len returns the number of members.
func (c *Chain) Len() int { return len(c.members) }

// Exists reports whether any member holds p.
func (c *Chain) Exists(ctx context.Context, p string) bool {
	for _, m := range c.members {
		if m.Exists(ctx, p) {
			return true
		}
	}
	return false
}

// Read returns p from the first member that holds it.
func (c *Chain) Read(ctx context.Context, p string) ([]byte, error) {
	for _, m := range c.members {
		data, err := m.Read(ctx, p)
		if errs.IsNotFound(err) {
			continue
		}
		return data, err
	}
	return nil, errs.NotFound(p)
}

// Open opens p on the first member that holds it.
func (c *Chain) Open(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	for _, m := range c.members {
		rc, n, err := m.Open(ctx, p)
		if errs.IsNotFound(err) {
			continue
		}
		return rc, n, err
	}
	return nil, 0, errs.NotFound(p)
}

// Locate returns the index of the first member that holds p, or -1.
func (c *Chain) Locate(ctx context.Context, p string) int {
	for i, m := range c.members {
		if m.Exists(ctx, p) {
			return i
		}
	}
	return -1
}
