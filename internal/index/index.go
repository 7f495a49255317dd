// Package index serializes merged resource items to the binary
// resources.index file and loads them back for overlay and incremental
// builds. Two layouts share the file name; the version tag of the 128-byte
// header discriminates. Readers bounds-check every access against the
// buffer length and verify the literal section tags.
package index

import (
	"sort"
	"strings"

	"github.com/respack/respack/internal/resource"
)

// versionMaxLen is the fixed size of the null-padded version tag.
const versionMaxLen = 128

// tagLen is the size of the section tags ("KEYS", "IDSS", "DATA").
const tagLen = 4

// toolVersion is the version tag written by the v1 layout. The v2 layout
// splices "V2" between the tool name and the version number.
const toolVersion = "Restool 5.0.1.011"

const (
	tagKeys = "KEYS"
	tagIDSS = "IDSS"
	tagData = "DATA"
)

// v2Version derives the v2 header tag from toolVersion.
func v2Version() string {
	name, rest, _ := strings.Cut(toolVersion, " ")
	return name + "V2 " + rest
}

// paddedVersion returns the 128-byte null-padded form of tag.
func paddedVersion(tag string) []byte {
	out := make([]byte, versionMaxLen)
	copy(out, tag)
	return out
}

// tableRow pairs an item with its assigned ID for serialization.
type tableRow struct {
	id   uint32
	item resource.Item
}

// groupByLimitKey arranges the merged item set into limit-key groups with
// deterministic ordering: groups sorted lexicographically by limit key,
// rows within a group sorted by ID. Resources of type ID carry no payload
// and are excluded from the table.
func groupByLimitKey(items map[uint32][]resource.Item) (keys []string, groups map[string][]tableRow) {
	groups = make(map[string][]tableRow)
	idOrder := make([]uint32, 0, len(items))
	for id := range items {
		idOrder = append(idOrder, id)
	}
	sort.Slice(idOrder, func(i, j int) bool { return idOrder[i] < idOrder[j] })
	for _, id := range idOrder {
		for _, it := range items[id] {
			if it.Type == resource.ID {
				continue
			}
			groups[it.LimitKey] = append(groups[it.LimitKey], tableRow{id: id, item: it})
		}
	}
	keys = make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}
