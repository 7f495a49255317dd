// Package pack orchestrates the build pipeline: scan, compile, merge,
// resolve, write. Parallelism lives inside individual stages; no stage
// starts its successor until every task it submitted has completed.
package pack

import (
	"log/slog"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/resource"
)

// mergeItems folds one module's compiled items into the cross-module set.
// Within a module a duplicate (type, name, limit-key) is fatal and reported
// by the compilers; across modules a collision against a coverable item
// replaces it silently (HAP overlay), anything else keeps the first
// declaration with a warning. tipError promotes the cross-module collision
// to a fatal error, used while a single logical module arrives in parts.
func mergeItems(all map[uint32][]resource.Item, other map[uint32][]resource.Item, tipError bool) error {
	logger := slog.Default().With("component", "merger")
	for id, items := range other {
		existing, ok := all[id]
		if !ok {
			all[id] = items
			continue
		}
		for _, item := range items {
			idx := -1
			for i := range existing {
				if existing[i].LimitKey == item.LimitKey {
					idx = i
					break
				}
			}
			if idx < 0 {
				existing = append(existing, item)
				continue
			}
			if existing[idx].Coverable {
				existing[idx] = item
				continue
			}
			if tipError {
				return diag.New(diag.CodeResourceDuplicate,
					item.Name, existing[idx].FilePath, item.FilePath)
			}
			logger.Warn("resource conflict, first declaration kept",
				"name", item.Name,
				"declared", existing[idx].FilePath,
				"again", item.FilePath)
		}
		all[id] = existing
	}
	return nil
}

// checkBaseCoverage warns once for every resource that has no base-limit
// variant. Missing base is never an error.
func checkBaseCoverage(all map[uint32][]resource.Item) {
	logger := slog.Default().With("component", "merger")
	type nameKey struct {
		t    resource.Type
		name string
	}
	warned := make(map[nameKey]bool)
	for _, items := range all {
		hasBase := false
		for _, it := range items {
			if it.LimitKey == resource.BaseLimitKey {
				hasBase = true
				break
			}
		}
		if hasBase || len(items) == 0 {
			continue
		}
		first := items[0]
		k := nameKey{t: first.Type, name: first.Name}
		if warned[k] {
			continue
		}
		warned[k] = true
		logger.Warn("resource has no base variant",
			"type", resource.TypeString(first.Type), "name", first.Name)
	}
}
