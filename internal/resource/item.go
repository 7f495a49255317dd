package resource

import (
	"path"
	"regexp"
	"strings"
)

// Item is the unit of work flowing through the pipeline. Each stage fills or
// rewrites fields:
//
//   - compilers set Name, Type, KeyParams, LimitKey, FilePath and Data
//   - the merger groups items by (type, name) and enforces limit-key
//     uniqueness
//   - the resolver rewrites references inside Data
//   - the index writer serializes Data per qualifier set
//
// Data is an opaque byte payload whose format depends on Type: UTF-8 text
// for scalar types, length-prefixed string sequences for array and pair
// types, and the relative output path for media/profile/raw/res entries.
type Item struct {
	Name      string
	Type      Type
	KeyParams []KeyParam
	LimitKey  string
	FilePath  string
	Data      []byte

	// Coverable marks items ingested from a prebuilt HAP index: a same-keyed
	// item from the current build silently replaces them.
	Coverable bool
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// IsValidName reports whether name is a legal element resource name.
func IsValidName(name string) bool {
	return validName.MatchString(name)
}

// IDName returns the identifier a resource is registered under. Media and
// profile resources drop the file extension; everything else keeps the name
// verbatim.
func IDName(name string, t Type) string {
	if t != Media && t != Profile {
		return name
	}
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext)
}

// IsArray reports whether the item payload is a plain string sequence.
func (it *Item) IsArray() bool {
	return it.Type == StrArray || it.Type == IntArray
}

// IsPair reports whether the item payload is a (key, value) sequence.
func (it *Item) IsPair() bool {
	return it.Type == Theme || it.Type == Plural || it.Type == Pattern
}

// TrimTrailingNul drops one trailing NUL from scalar payloads loaded from a
// v1 index record, where values are stored NUL-terminated. Compound payloads
// are framed and never end with a bare NUL terminator, so callers apply this
// only where the format guarantees one.
func (it *Item) TrimTrailingNul() {
	if n := len(it.Data); n > 0 && it.Data[n-1] == 0 {
		it.Data = it.Data[:n-1]
	}
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() Item {
	dup := *it
	dup.KeyParams = append([]KeyParam(nil), it.KeyParams...)
	dup.Data = append([]byte(nil), it.Data...)
	return dup
}
