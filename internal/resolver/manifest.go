package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/resource"
)

// MinNewIndexAPIVersion is the manifest app.minAPIVersion at which the
// writer switches to the v2 index layout.
const MinNewIndexAPIVersion = 12

// manifestStringRefs maps manifest keys to the reference prefix their string
// values may carry. Successful substitution adds a numeric "<key>Id"
// sibling.
var manifestStringRefs = map[string]*regexp.Regexp{
	"icon":                  regexp.MustCompile(`^\$media:`),
	"label":                 regexp.MustCompile(`^\$string:`),
	"description":           regexp.MustCompile(`^\$string:`),
	"theme":                 regexp.MustCompile(`^\$theme:`),
	"reason":                regexp.MustCompile(`^\$string:`),
	"startWindowIcon":       regexp.MustCompile(`^\$media:`),
	"startWindowBackground": regexp.MustCompile(`^\$color:`),
	"resource":              regexp.MustCompile(`^\$[a-z]+:`),
	"extra":                 regexp.MustCompile(`^\$[a-z]+:`),
	"fileContextMenu":       regexp.MustCompile(`^\$profile:`),
	"orientation":           regexp.MustCompile(`^\$string:`),
	"value":                 regexp.MustCompile(`^\$string:`),
	"startWindow":           regexp.MustCompile(`^\$profile:`),
}

// manifestArrayRefs is the analogous table for string-array nodes.
var manifestArrayRefs = map[string]*regexp.Regexp{
	"landscapeLayouts": regexp.MustCompile(`^\$layout:`),
	"portraitLayouts":  regexp.MustCompile(`^\$layout:`),
}

// ModuleType classifies the manifest module.
type ModuleType int

const (
	ModuleNone ModuleType = iota
	ModuleHar
	ModuleEntry
	ModuleFeature
	ModuleShared
)

var moduleTypes = map[string]ModuleType{
	"har":     ModuleHar,
	"entry":   ModuleEntry,
	"feature": ModuleFeature,
	"shared":  ModuleShared,
}

// Manifest is the parsed config.json / module.json. The decoded tree is
// retained so the resolver pass can rewrite it in place.
type Manifest struct {
	Path       string
	UseModule  bool
	ModuleName string
	Type       ModuleType
	NewIndex   bool

	tree map[string]any

	// checkIDs collects resolved icon IDs per manifest key for the icon
	// checker.
	checkIDs map[string]map[uint32]struct{}
}

// LoadManifest reads and validates a manifest. useModule selects the
// module.json schema (module.name/module.type at the top) over the legacy
// config.json schema (module.distro).
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.CodeOpenJSONFail, path, err.Error())
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, diag.New(diag.CodeJSONFormat).At(path).Wrap(err)
	}
	m := &Manifest{
		Path:      path,
		UseModule: filepath.Base(path) == resource.ModuleJSON,
		tree:      tree,
		checkIDs:  make(map[string]map[uint32]struct{}),
	}

	if app, ok := tree["app"].(map[string]any); ok {
		if v, ok := app["minAPIVersion"].(float64); ok && int(v) >= MinNewIndexAPIVersion {
			m.NewIndex = true
		}
	}

	module, ok := tree["module"].(map[string]any)
	if !ok {
		return nil, diag.New(diag.CodeJSONNodeMismatch, "module", "object").At(path)
	}
	if len(module) == 0 {
		return nil, diag.New(diag.CodeJSONNodeEmpty, "module").At(path)
	}

	if m.UseModule {
		name, _ := module["name"].(string)
		if name == "" {
			return nil, diag.New(diag.CodeJSONNodeMissing, "module.name").At(path)
		}
		m.ModuleName = name
		if t, ok := module["type"].(string); ok {
			if err := m.setType(t); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	distro, ok := module["distro"].(map[string]any)
	if !ok {
		return nil, diag.New(diag.CodeJSONNodeMismatch, "distro", "object").At(path)
	}
	name, _ := distro["moduleName"].(string)
	if name == "" {
		return nil, diag.New(diag.CodeJSONNodeMissing, "distro.moduleName").At(path)
	}
	m.ModuleName = name
	if t, ok := distro["moduleType"].(string); ok {
		if err := m.setType(t); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manifest) setType(t string) error {
	mt, ok := moduleTypes[t]
	if !ok {
		return diag.New(diag.CodeInvalidModuleType, t).At(m.Path)
	}
	m.Type = mt
	return nil
}

// IsHar reports whether the module is a har library, which forces plain
// copies over transcoding.
func (m *Manifest) IsHar() bool {
	return m.Type == ModuleHar
}

// CheckIDs returns the icon-check candidates recorded while resolving.
func (m *Manifest) CheckIDs() map[string]map[uint32]struct{} {
	return m.checkIDs
}

// Resolve rewrites every eligible reference in the manifest tree and
// records icon-check candidates, following layered icons through the
// resolver's tracking sets.
func (m *Manifest) Resolve(r *Resolver) error {
	var tree any = m.tree
	return m.resolveNode(nil, "", &tree, r)
}

func (m *Manifest) resolveNode(parent map[string]any, key string, node *any, r *Resolver) error {
	switch v := (*node).(type) {
	case map[string]any:
		for childKey := range v {
			child := v[childKey]
			if err := m.resolveNode(v, childKey, &child, r); err != nil {
				return err
			}
			v[childKey] = child
		}
	case []any:
		if _, ok := manifestArrayRefs[key]; ok && parent != nil {
			return m.resolveArrayRef(parent, key, v, r)
		}
		for i := range v {
			if err := m.resolveNode(nil, "", &v[i], r); err != nil {
				return err
			}
		}
	case string:
		if parent == nil || key == "" {
			return nil
		}
		return m.resolveStringRef(parent, key, v, r)
	}
	return nil
}

func (m *Manifest) resolveStringRef(parent map[string]any, key, value string, r *Resolver) error {
	want, ok := manifestStringRefs[key]
	if !ok {
		return nil
	}
	updated, err := r.ResolveString(&value, m.Path)
	if err != nil {
		return err
	}
	if !updated {
		return nil
	}
	match := want.FindString(value)
	if match == "" {
		return diag.New(diag.CodeInvalidResourceRef, value, want.String()).At(m.Path)
	}
	idText := value[len(match):]
	id, err := strconv.ParseUint(idText, 10, 32)
	if err != nil {
		return diag.New(diag.CodeInvalidResourceRef, value, want.String()).At(m.Path)
	}
	parent[key+"Id"] = float64(id)
	m.addCheckNode(key, uint32(id), r)
	return nil
}

func (m *Manifest) resolveArrayRef(parent map[string]any, key string, values []any, r *Resolver) error {
	want := manifestArrayRefs[key]
	var out []any
	for _, raw := range values {
		value, ok := raw.(string)
		if !ok {
			return diag.New(diag.CodeJSONNodeMismatch, key+" value", "string").At(m.Path)
		}
		updated, err := r.ResolveString(&value, m.Path)
		if err != nil {
			return err
		}
		if !updated {
			continue
		}
		match := want.FindString(value)
		if match == "" {
			return diag.New(diag.CodeInvalidResourceRef, value, want.String()).At(m.Path)
		}
		id, err := strconv.ParseUint(value[len(match):], 10, 32)
		if err != nil {
			return diag.New(diag.CodeInvalidResourceRef, value, want.String()).At(m.Path)
		}
		out = append(out, float64(id))
	}
	parent[key+"Id"] = out
	return nil
}

// addCheckNode records IDs reachable from icon-bearing manifest keys,
// expanding layered icons.
func (m *Manifest) addCheckNode(key string, id uint32, r *Resolver) {
	if _, ok := resource.IconKeyIndexes[key]; !ok {
		return
	}
	set, ok := m.checkIDs[key]
	if !ok {
		set = make(map[uint32]struct{})
		m.checkIDs[key] = set
	}
	set[id] = struct{}{}
	for layer := range r.LayerIcons()[id] {
		set[layer] = struct{}{}
	}
}

// Save writes the (possibly rewritten) manifest into the output root under
// its original basename.
func (m *Manifest) Save(outputDir string) error {
	raw, err := json.MarshalIndent(m.tree, "", "    ")
	if err != nil {
		return err
	}
	dst := filepath.Join(outputDir, filepath.Base(m.Path))
	if err := os.WriteFile(dst, raw, 0o644); err != nil {
		return diag.New(diag.CodeCreateFile, dst, err.Error())
	}
	return nil
}
