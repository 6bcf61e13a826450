// Package reconcile compares three sources of truth for a set of keys: the
// catalog that says what should exist, the local disk, and object storage.
//
// Loaders for the three sources run concurrently. The union of their keys
// yields one Result per key, and BuildPlan turns the results into upload and
// purge actions:
//
//   - local present, storage missing: upload (DoUpload)
//   - catalog missing: delete from storage and local disk (DoPurge)
//
// ApplyPlan executes a plan through a Mutator and does nothing unless the
// options are confirmed and not a dry run.
//
// # Usage Example
//
//	src := reconcile.Sources{Catalog: catalogKeys, Local: localKeys, Storage: storageKeys}
//	plan, err := reconcile.ReconcileWithPlan(ctx, src, opts)
//	executed, err := reconcile.ApplyPlan(ctx, plan, mutator, opts)
package reconcile
