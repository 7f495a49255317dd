// Package compiler turns scanned files into resource items: the element
// compiler parses and validates JSON resource definitions, the generic
// compiler copies or transcodes media, profile and raw assets. Both feed
// the same per-module merge keyed by (type, name).
package compiler

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/ids"
	"github.com/respack/respack/internal/pool"
	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/scanner"
)

// nameKey groups items of one logical resource.
type nameKey struct {
	Type resource.Type
	Name string
}

// Compiler is the behavior shared by the element and generic compilers:
// produce items for one file.
type Compiler interface {
	CompileFile(info resource.FileInfo) ([]resource.Item, error)
}

// Run compiles every file of the given cluster directories through c, in
// parallel on workers, and returns the merged result keyed by ID. Merge
// order is file-scan order (sorted within a directory); the per-name merge
// happens after all tasks complete, so results are deterministic regardless
// of scheduling.
func Run(c Compiler, sc *scanner.Scanner, infos []resource.DirectoryInfo,
	workers *pool.Pool, worker *ids.Worker) (map[uint32][]resource.Item, error) {
	var files []resource.FileInfo
	for _, info := range infos {
		list, err := sc.ListFiles(info)
		if err != nil {
			return nil, err
		}
		files = append(files, list...)
	}

	var (
		mu      sync.Mutex
		results = make([][]resource.Item, len(files))
	)
	futures := make([]*pool.Future, 0, len(files))
	for i, file := range files {
		i, file := i, file
		futures = append(futures, workers.Submit(func() error {
			items, err := c.CompileFile(file)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = items
			mu.Unlock()
			return nil
		}))
	}
	if err := pool.WaitAll(futures); err != nil {
		return nil, err
	}

	merged := make(map[nameKey][]resource.Item)
	for _, items := range results {
		for _, item := range items {
			if err := mergeItem(merged, item); err != nil {
				return nil, err
			}
		}
	}
	return commit(merged, worker)
}

// mergeItem appends an item to its (type, name) group, rejecting a second
// definition under the same limit key.
func mergeItem(merged map[nameKey][]resource.Item, item resource.Item) error {
	idName := resource.IDName(item.Name, item.Type)
	if !resource.IsValidName(idName) {
		return diag.New(diag.CodeInvalidResourceName, idName).At(item.FilePath)
	}
	k := nameKey{Type: item.Type, Name: idName}
	for _, existing := range merged[k] {
		if existing.LimitKey == item.LimitKey {
			return diag.New(diag.CodeResourceDuplicate, idName, existing.FilePath, item.FilePath)
		}
	}
	merged[k] = append(merged[k], item)
	return nil
}

// commit allocates an ID per logical resource and regroups items by ID.
// Allocation runs in (type, name) order so dynamically assigned IDs are
// deterministic across runs.
func commit(merged map[nameKey][]resource.Item, worker *ids.Worker) (map[uint32][]resource.Item, error) {
	keys := make([]nameKey, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Name < keys[j].Name
	})
	out := make(map[uint32][]resource.Item, len(merged))
	for _, k := range keys {
		id, err := worker.GenerateID(k.Type, k.Name)
		if err != nil {
			slog.Default().With("component", "compiler").Error("id allocation failed",
				"type", resource.TypeString(k.Type), "name", k.Name)
			return nil, err
		}
		out[id] = merged[k]
	}
	return out, nil
}
