// Package resforge reads and writes the binary resources and archives of a
// multi-platform racing game engine.
//
// A Workspace mounts tree-TOC archives, hashed-TOC archives and plain
// directories in a fixed search order and decodes resources for one target
// platform:
//
//	cfg, _ := config.Load("workspace.yaml")
//	ws, _ := resforge.Open(ctx, cfg)
//	defer ws.Close()
//
//	obj, _ := ws.Load(ctx, "tracks/alps/nav.bin", resource.KindNavigation)
//	nav := obj.(*resource.Navigation)
//	nav.Waypoints[0].Radius = 2
//	_ = ws.Save(ctx, "tracks/alps/nav.bin", nav)
//
// Tree archives can live on local disk, S3 or MinIO:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("archives/"))
//	ws, _ := resforge.Open(ctx, cfg, resforge.WithStore("s3", store))
//
// # Packages
//
//   - codec: the pointer-graph resource codec (Load, Save)
//   - resource: resource types built on the codec
//   - archive/tree, archive/hashed: archive formats
//   - vfs: the read-only file contract and mount chain
//   - blobstore: local, memory, S3 and MinIO backing stores with block caching
//   - platform: per-platform pointer width, byte order and default version
package resforge
