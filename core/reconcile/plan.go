package reconcile

import (
	"context"
	"fmt"
	"strings"
)

// ReconcileWithPlan performs reconciliation and returns a plan with results and actions.
// It does NOT execute actions; use ApplyPlan for that.
func ReconcileWithPlan(ctx context.Context, src Sources, opts Options) (*Plan, error) {
	results, err := ReconcileAll(ctx, src)
	if err != nil {
		return nil, err
	}
	return BuildPlan(results, opts), nil
}

// BuildPlan derives the summary and actions from reconciliation results.
func BuildPlan(results []Result, opts Options) *Plan {
	plan := &Plan{Results: results, Actions: []Action{}}
	summary := &plan.Summary
	summary.TotalItems = len(results)

	for _, result := range results {
		if result.CatalogPresent && !result.LocalPresent {
			summary.MissingLocal++
		}
		if result.LocalPresent && !result.StoragePresent {
			summary.MissingStorage++
		}
		if !result.CatalogPresent {
			summary.Orphaned++
		}

		// Purge takes precedence over upload for orphaned keys.
		if !result.CatalogPresent {
			if opts.DoPurge {
				reason := "not in catalog"
				if result.StoragePresent {
					plan.Actions = append(plan.Actions, Action{Type: ActionDeleteStorage, Key: result.Key, Reason: reason})
					summary.PurgeActions++
				}
				if result.LocalPresent {
					plan.Actions = append(plan.Actions, Action{Type: ActionDeleteLocal, Key: result.Key, Reason: reason})
					summary.PurgeActions++
				}
			}
			continue
		}

		if opts.DoUpload && result.LocalPresent && !result.StoragePresent {
			plan.Actions = append(plan.Actions, Action{
				Type:   ActionUploadStorage,
				Key:    result.Key,
				Reason: missingReason(result),
			})
			summary.UploadActions++
		}
	}

	return plan
}

// ApplyPlan executes the actions in a plan.
// Returns the number of actions executed and any error encountered.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func ApplyPlan(ctx context.Context, plan *Plan, mutator Mutator, opts Options) (executed int, err error) {
	// Safety check: do not execute if not confirmed or dry-run
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}

	var (
		uploadKeys        []string
		deleteStorageKeys []string
		deleteLocalKeys   []string
	)
	for _, action := range plan.Actions {
		switch action.Type {
		case ActionUploadStorage:
			uploadKeys = append(uploadKeys, action.Key)
		case ActionDeleteStorage:
			deleteStorageKeys = append(deleteStorageKeys, action.Key)
		case ActionDeleteLocal:
			deleteLocalKeys = append(deleteLocalKeys, action.Key)
		}
	}

	// Deletions run before uploads.
	if len(deleteStorageKeys) > 0 {
		type StorageBatchDeleter interface {
			DeleteStorageBatch(ctx context.Context, keys []string) error
		}
		if batchDeleter, ok := mutator.(StorageBatchDeleter); ok {
			if err := batchDeleter.DeleteStorageBatch(ctx, deleteStorageKeys); err != nil {
				return executed, fmt.Errorf("failed to batch delete storage keys: %w", err)
			}
			executed += len(deleteStorageKeys)
		} else {
			for _, key := range deleteStorageKeys {
				if err := ctx.Err(); err != nil {
					return executed, err
				}
				if err := mutator.DeleteStorage(ctx, key); err != nil {
					return executed, fmt.Errorf("failed to delete storage key %s: %w", key, err)
				}
				executed++
			}
		}
	}

	for _, key := range deleteLocalKeys {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		if err := mutator.DeleteLocal(ctx, key); err != nil {
			return executed, fmt.Errorf("failed to delete local key %s: %w", key, err)
		}
		executed++
	}

	for _, key := range uploadKeys {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		if err := mutator.Upload(ctx, key); err != nil {
			return executed, fmt.Errorf("failed to upload key %s: %w", key, err)
		}
		executed++
	}

	return executed, nil
}

// ReconcileAndApply is a convenience wrapper that plans and optionally applies actions.
func ReconcileAndApply(ctx context.Context, src Sources, mutator Mutator, opts Options) (*Plan, int, error) {
	plan, err := ReconcileWithPlan(ctx, src, opts)
	if err != nil {
		return nil, 0, err
	}

	executed, err := ApplyPlan(ctx, plan, mutator, opts)
	return plan, executed, err
}

// missingReason builds a reason string naming the sources a key is absent from.
func missingReason(result Result) string {
	var missing []string
	if !result.CatalogPresent {
		missing = append(missing, "catalog")
	}
	if !result.LocalPresent {
		missing = append(missing, "local")
	}
	if !result.StoragePresent {
		missing = append(missing, "storage")
	}

	if len(missing) == 0 {
		return "complete"
	}
	return "missing in: " + strings.Join(missing, ", ")
}
