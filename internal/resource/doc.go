// Package resource bounds the shared resources of a workspace.
//
// A Controller tracks block-cache memory against a hard limit, caps the
// number of concurrent extraction workers and throttles archive reads to a
// byte rate. A nil *Controller is valid and imposes no limits, so callers
// never need to check for one.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   256 << 20,
//	    MaxWorkers:         8,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//
//	if err := rc.AcquireIO(ctx, len(buf)); err != nil { ... }
package resource
