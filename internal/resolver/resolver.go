// Package resolver rewrites symbolic references of the form $type:name and
// $ohos:type:name into numeric resource IDs. It walks compiled item
// payloads, media and profile JSON side-car files, and the application
// manifest, and records layered-icon references for the icon checker.
package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/ids"
	"github.com/respack/respack/internal/resource"
)

// refKinds lists the recognized reference type tags in match order.
var refKinds = []struct {
	tag string
	typ resource.Type
}{
	{"id", resource.ID},
	{"boolean", resource.Boolean},
	{"color", resource.Color},
	{"float", resource.Float},
	{"media", resource.Media},
	{"profile", resource.Profile},
	{"integer", resource.Integer},
	{"string", resource.String},
	{"pattern", resource.Pattern},
	{"plural", resource.Plural},
	{"theme", resource.Theme},
	{"symbol", resource.Symbol},
}

var (
	sysRef = regexp.MustCompile(`^\$ohos:[a-z]+:.+`)
	appRef = regexp.MustCompile(`^\$[a-z]+:.+`)
)

// scalarTypes are item kinds whose payload is one resolvable string.
var scalarTypes = map[resource.Type]bool{
	resource.String: true, resource.Integer: true, resource.Boolean: true,
	resource.Color: true, resource.Float: true, resource.Symbol: true,
}

// arrayTypes are item kinds whose payload decomposes into resolvable
// elements.
var arrayTypes = map[resource.Type]bool{
	resource.StrArray: true, resource.IntArray: true, resource.Plural: true,
	resource.Theme: true, resource.Pattern: true,
}

// Resolver resolves references against the assigned ID table. It runs after
// the ID worker has allocated every ID and before the index writer
// serializes payloads.
type Resolver struct {
	worker *ids.Worker
	output string

	// layerIcons maps a media JSON's own ID to the media IDs it references;
	// the icon checker walks these sets transitively.
	layerIcons map[uint32]map[uint32]struct{}

	// mediaJSONID is the carrier ID while a media side-car is being walked.
	mediaJSONID uint32
	inMediaJSON bool
}

// New creates a resolver writing rewritten side-car files under output.
func New(worker *ids.Worker, output string) *Resolver {
	return &Resolver{
		worker:     worker,
		output:     output,
		layerIcons: make(map[uint32]map[uint32]struct{}),
	}
}

// LayerIcons exposes the recorded layered-icon reference sets.
func (r *Resolver) LayerIcons() map[uint32]map[uint32]struct{} {
	return r.layerIcons
}

// ResolveItems rewrites references in every non-coverable item and their
// JSON side-car files.
func (r *Resolver) ResolveItems(items map[uint32][]resource.Item) error {
	for id, list := range items {
		for i := range list {
			it := &list[i]
			if it.Coverable {
				continue
			}
			if scalarTypes[it.Type] || arrayTypes[it.Type] {
				if err := r.resolveItem(it); err != nil {
					return err
				}
			}
			if r.isMediaSidecar(it) || r.isProfileSidecar(it) {
				if err := r.resolveSidecar(it); err != nil {
					return err
				}
			}
		}
		items[id] = list
	}
	return nil
}

func (r *Resolver) isMediaSidecar(it *resource.Item) bool {
	return it.Type == resource.Media && filepath.Ext(it.FilePath) == resource.JSONExtension
}

func (r *Resolver) isProfileSidecar(it *resource.Item) bool {
	return it.Type == resource.Profile && it.LimitKey == resource.BaseLimitKey &&
		filepath.Ext(it.FilePath) == resource.JSONExtension
}

func (r *Resolver) resolveItem(it *resource.Item) error {
	if scalarTypes[it.Type] {
		value := string(it.Data)
		updated, err := r.ResolveString(&value, it.FilePath)
		if err != nil {
			return err
		}
		if updated {
			it.Data = []byte(value)
		}
		return nil
	}

	contents, err := resource.DecomposeStrings(it.Data)
	if err != nil {
		return diag.New(diag.CodeArrayTooLarge, it.Name).At(it.FilePath).Wrap(err)
	}
	changed := false
	for i := range contents {
		updated, err := r.ResolveString(&contents[i], it.FilePath)
		if err != nil {
			return err
		}
		changed = changed || updated
	}
	if !changed {
		return nil
	}
	data, err := resource.ComposeStrings(contents, false)
	if err != nil {
		return diag.New(diag.CodeArrayTooLarge, it.Name).At(it.FilePath)
	}
	it.Data = data
	return nil
}

// resolveSidecar walks a media or base-profile JSON file, resolving every
// string leaf, and rewrites the copied file only when a substitution
// occurred.
func (r *Resolver) resolveSidecar(it *resource.Item) error {
	var dst string
	if it.Type == resource.Media {
		dst = filepath.Join(r.output, resource.ResourcesDir, it.LimitKey, "media", it.Name)
		r.inMediaJSON = true
		if id, ok := r.worker.ID(resource.Media, resource.IDName(it.Name, resource.Media)); ok {
			r.mediaJSONID = id
			r.layerIcons[id] = make(map[uint32]struct{})
		}
		defer func() {
			r.inMediaJSON = false
			r.mediaJSONID = 0
		}()
	} else {
		dst = filepath.Join(r.output, resource.ResourcesDir, resource.BaseLimitKey, "profile", it.Name)
	}

	raw, err := os.ReadFile(it.FilePath)
	if err != nil {
		return diag.New(diag.CodeOpenJSONFail, it.FilePath, err.Error())
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return diag.New(diag.CodeJSONFormat).At(it.FilePath).Wrap(err)
	}
	changed, err := r.resolveTree(&tree, it.FilePath)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	out, err := json.MarshalIndent(tree, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return diag.New(diag.CodeCreateFile, filepath.Dir(dst), err.Error())
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return diag.New(diag.CodeCreateFile, dst, err.Error())
	}
	return nil
}

// resolveTree recurses into every string leaf of a decoded JSON tree.
func (r *Resolver) resolveTree(node *any, path string) (bool, error) {
	switch v := (*node).(type) {
	case map[string]any:
		changed := false
		for key, child := range v {
			c := child
			updated, err := r.resolveTree(&c, path)
			if err != nil {
				return false, err
			}
			if updated {
				v[key] = c
				changed = true
			}
		}
		return changed, nil
	case []any:
		changed := false
		for i := range v {
			updated, err := r.resolveTree(&v[i], path)
			if err != nil {
				return false, err
			}
			changed = changed || updated
		}
		return changed, nil
	case string:
		value := v
		updated, err := r.ResolveString(&value, path)
		if err != nil {
			return false, err
		}
		if updated {
			*node = value
		}
		return updated, nil
	}
	return false, nil
}

// ResolveString rewrites one reference in place. Non-reference strings pass
// through untouched. For types other than id the replacement keeps the type
// tag ("$color:16777216") so downstream consumers can still classify it.
func (r *Resolver) ResolveString(value *string, path string) (bool, error) {
	switch {
	case sysRef.MatchString(*value):
		return true, r.resolveRef(value, true, path)
	case appRef.MatchString(*value):
		return true, r.resolveRef(value, false, path)
	}
	return false, nil
}

func (r *Resolver) resolveRef(value *string, system bool, path string) error {
	prefix := "$"
	if system {
		prefix = "$ohos:"
	}
	for _, kind := range refKinds {
		tag := prefix + kind.tag + ":"
		if !strings.HasPrefix(*value, tag) {
			continue
		}
		name := (*value)[len(tag):]
		var id uint32
		var ok bool
		if system {
			id, ok = r.worker.SystemID(kind.typ, name)
		} else {
			id, ok = r.worker.ID(kind.typ, name)
			if ok && kind.typ == resource.Media && r.inMediaJSON && r.mediaJSONID != 0 {
				r.layerIcons[r.mediaJSONID][id] = struct{}{}
			}
		}
		if !ok {
			return diag.New(diag.CodeRefNotDefined, *value).At(path)
		}
		if kind.typ == resource.ID {
			*value = strconv.FormatUint(uint64(id), 10)
		} else {
			*value = "$" + kind.tag + ":" + strconv.FormatUint(uint64(id), 10)
		}
		return nil
	}
	var expected []string
	for _, kind := range refKinds {
		expected = append(expected, prefix+kind.tag+":")
	}
	return diag.New(diag.CodeInvalidResourceRef, *value, strings.Join(expected, " ")).At(path)
}
