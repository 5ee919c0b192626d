// Package storage archives run snapshots in S3-compatible object storage.
//
// It wraps the MinIO Go client behind the small Client interface so the archive
// can be tested with the mock in core/storage/mocks. Snapshots are written to
// snapshots/<store>/<yyyy>/<mm>/<dd>/<runID>.json; the bucket is created on first use.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	archive := storage.NewArchive(client, cfg.Storage.Bucket, cfg.Storage.Region)
//	name, err := archive.Save(ctx, state)
package storage
