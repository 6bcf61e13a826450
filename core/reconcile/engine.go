package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Load runs the three loaders concurrently.
func Load(ctx context.Context, src Sources) (*Sets, error) {
	if src.Catalog == nil || src.Local == nil || src.Storage == nil {
		return nil, errors.New("reconcile sources incomplete")
	}

	sets := &Sets{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := src.Catalog(gctx)
		if err != nil {
			return fmt.Errorf("failed to load catalog keys: %w", err)
		}
		sets.Catalog = s
		return nil
	})
	g.Go(func() error {
		s, err := src.Local(gctx)
		if err != nil {
			return fmt.Errorf("failed to load local keys: %w", err)
		}
		sets.Local = s
		return nil
	})
	g.Go(func() error {
		s, err := src.Storage(gctx)
		if err != nil {
			return fmt.Errorf("failed to load storage keys: %w", err)
		}
		sets.Storage = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

// Reconcile builds one result per key in the union of all sets.
func Reconcile(sets *Sets, less func(a, b string) bool) []Result {
	union := buildUnion(sets.Catalog, sets.Local, sets.Storage)

	results := make([]Result, 0, len(union))
	for key := range union {
		results = append(results, Result{
			Key:            key,
			CatalogPresent: sets.Catalog.Has(key),
			LocalPresent:   sets.Local.Has(key),
			StoragePresent: sets.Storage.Has(key),
		})
	}

	if less == nil {
		less = func(a, b string) bool { return a < b }
	}
	sort.Slice(results, func(i, j int) bool {
		return less(results[i].Key, results[j].Key)
	})
	return results
}

// ReconcileAll loads all sources and reconciles them.
func ReconcileAll(ctx context.Context, src Sources) ([]Result, error) {
	sets, err := Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return Reconcile(sets, src.Less), nil
}

func buildUnion(sets ...KeySet) KeySet {
	size := 0
	for _, s := range sets {
		if len(s) > size {
			size = len(s)
		}
	}
	union := make(KeySet, size)
	for _, s := range sets {
		for key := range s {
			union.Add(key)
		}
	}
	return union
}
