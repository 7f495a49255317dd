// Package ids implements the ID allocator: every (resource type, name) pair
// receives a stable 32-bit identifier, honoring fixed assignments from
// id_defined.json manifests, IDs carried over from a prior HAP, and the
// incremental-build cache.
package ids

import (
	"fmt"
	"sort"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/resource"
)

// Cluster selects the allocation pool.
type Cluster int

const (
	// ClusterApp is the default pool for application resources.
	ClusterApp Cluster = iota
	// ClusterSys is the pool of the system resource module; only predefined
	// IDs resolve there.
	ClusterSys
)

// DefaultAppBase is the first ID of the app pool when no start ID is given.
const DefaultAppBase uint64 = 0x01000000

// DefaultSysBase is the base of the system pool.
const DefaultSysBase uint64 = 0x07800000

// key identifies a resource inside one cluster.
type key struct {
	typ  resource.Type
	name string
}

// Assigned is one allocated (type, name, id) triple, used for header
// generation and id_defined.json emission.
type Assigned struct {
	Type resource.Type
	Name string
	ID   uint32
}

// Worker allocates IDs for one cluster. It is not safe for concurrent use;
// allocation happens on the pipeline goroutine after compilation merges.
type Worker struct {
	cluster Cluster

	next uint64
	max  uint64

	ids        map[key]uint32
	appDefined map[key]uint32
	sysDefined map[key]uint32
	freeList   []uint32
	cache      map[key]uint32
}

// NewWorker builds a worker for the given cluster. startID uplifts the app
// base; zero selects the default. The exclusive upper bound derives from the
// start ID's lowest set bit: the block ends where the next single-bit
// boundary above the start begins.
func NewWorker(cluster Cluster, startID uint64, defined *Defined) *Worker {
	if startID == 0 {
		startID = DefaultAppBase
	}
	w := &Worker{
		cluster:    cluster,
		next:       startID,
		max:        maxID(startID),
		ids:        make(map[key]uint32),
		appDefined: make(map[key]uint32),
		sysDefined: make(map[key]uint32),
		cache:      make(map[key]uint32),
	}
	if defined != nil {
		for k, id := range defined.App {
			w.appDefined[key{k.Type, k.Name}] = id
		}
		for k, id := range defined.Sys {
			w.sysDefined[key{k.Type, k.Name}] = id
		}
	}
	return w
}

// maxID derives the inclusive upper bound of the block starting at startID:
// round up to the next single-bit boundary above startID, minus one.
func maxID(startID uint64) uint64 {
	flag := uint64(1)
	for flag&startID == 0 {
		flag <<= 1
	}
	return startID + flag - 1
}

// SeedCache installs carryover assignments from a previous incremental
// build. Cached IDs apply only when neither the current run nor a manifest
// has already bound the name.
func (w *Worker) SeedCache(assigned []Assigned) {
	for _, a := range assigned {
		w.cache[key{a.Type, a.Name}] = a.ID
	}
}

// GenerateID allocates or returns the ID for (t, name). In the system
// cluster only predefined IDs resolve; anything else fails.
func (w *Worker) GenerateID(t resource.Type, name string) (uint32, error) {
	if w.cluster == ClusterSys {
		return w.generateSysID(t, name)
	}
	return w.generateAppID(t, name)
}

func (w *Worker) generateAppID(t resource.Type, name string) (uint32, error) {
	k := key{t, name}
	if id, ok := w.ids[k]; ok {
		return id, nil
	}
	if id, ok := w.appDefined[k]; ok {
		w.ids[k] = id
		return id, nil
	}
	if id, ok := w.cache[k]; ok {
		w.ids[k] = id
		return id, nil
	}
	if len(w.freeList) > 0 {
		id := w.freeList[0]
		w.freeList = w.freeList[1:]
		w.ids[k] = id
		return id, nil
	}
	id, err := w.nextFree()
	if err != nil {
		return 0, err
	}
	w.ids[k] = id
	return id, nil
}

// nextFree scans upward from the cursor, skipping IDs pinned by the app
// manifest.
func (w *Worker) nextFree() (uint32, error) {
	if len(w.appDefined) == 0 {
		if w.next > w.max {
			return 0, diag.New(diag.CodeResourceIDExceed, fmt.Sprintf("%#x > %#x", w.next, w.max))
		}
		id := uint32(w.next)
		w.next++
		return id, nil
	}
	taken := make(map[uint32]bool, len(w.appDefined))
	for _, id := range w.appDefined {
		taken[id] = true
	}
	for w.next <= w.max {
		id := uint32(w.next)
		w.next++
		if !taken[id] {
			return id, nil
		}
	}
	return 0, diag.New(diag.CodeResourceIDExceed, fmt.Sprintf("%#x > %#x", w.next, w.max))
}

func (w *Worker) generateSysID(t resource.Type, name string) (uint32, error) {
	k := key{t, name}
	if id, ok := w.ids[k]; ok {
		return id, nil
	}
	if id, ok := w.sysDefined[k]; ok {
		w.ids[k] = id
		return id, nil
	}
	return 0, diag.New(diag.CodeResourceIDNotDefined, name, resource.TypeString(t))
}

// ID returns the already-assigned ID for (t, name), or false.
func (w *Worker) ID(t resource.Type, name string) (uint32, bool) {
	id, ok := w.ids[key{t, name}]
	return id, ok
}

// SystemID resolves a $ohos: reference against the system manifests.
func (w *Worker) SystemID(t resource.Type, name string) (uint32, bool) {
	id, ok := w.sysDefined[key{t, name}]
	return id, ok
}

// LoadFromHap ingests the ID table of a loaded prior HAP: every known
// (type, name) keeps its shipped ID, the cursor moves past the highest
// shipped ID, and the block bound derives from the lowest.
func (w *Worker) LoadFromHap(items map[uint32][]resource.Item) {
	minID := uint64(0xFFFFFFFF)
	maxSeen := DefaultAppBase
	for id, list := range items {
		for _, it := range list {
			w.ids[key{it.Type, resource.IDName(it.Name, it.Type)}] = id
		}
		if uint64(id) < minID {
			minID = uint64(id)
		}
		if uint64(id) > maxSeen {
			maxSeen = uint64(id)
		}
	}
	if len(items) == 0 {
		return
	}
	w.max = maxID(minID)
	w.next = maxSeen + 1
}

// All returns every assignment sorted by type then name.
func (w *Worker) All() []Assigned {
	out := make([]Assigned, 0, len(w.ids))
	for k, id := range w.ids {
		out = append(out, Assigned{Type: k.typ, Name: k.name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out
}
