// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so the audio tree and exported add-on packages can be
// mirrored to AWS S3 or a self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists / MakeBucket: bucket checks, combined by EnsureBucket.
//   - PutObject: uploads add-on package files.
//   - ListObjects: lists the mirrored audio tree to build a remote audio index.
//   - RemoveObject: deletes stale package files.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
