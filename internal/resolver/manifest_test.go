package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/testutil"
)

func TestLoadManifest_ModuleJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, resource.ModuleJSON, []byte(`{
	    "app": { "minAPIVersion": 12 },
	    "module": { "name": "entry", "type": "entry" }
	}`))
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "entry", m.ModuleName)
	assert.Equal(t, ModuleEntry, m.Type)
	assert.True(t, m.NewIndex)
	assert.False(t, m.IsHar())
}

func TestLoadManifest_LegacyConfigJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, resource.ConfigJSON, []byte(`{
	    "module": {
	        "package": "com.example.demo",
	        "distro": { "moduleName": "entry", "moduleType": "har" }
	    }
	}`))
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "entry", m.ModuleName)
	assert.True(t, m.IsHar())
	assert.False(t, m.NewIndex)
}

func TestLoadManifest_Validation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "module missing", file: "a/config.json", content: `{}`},
		{name: "distro missing", file: "b/config.json", content: `{"module": {"package": "x"}}`},
		{name: "bad module type", file: "c/module.json",
			content: `{"module": {"name": "entry", "type": "plugin"}}`},
		{name: "module name missing", file: "d/module.json",
			content: `{"module": {"type": "entry"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := testutil.WriteFile(t, dir, tt.file, []byte(tt.content))
			_, err := LoadManifest(path)
			assert.Error(t, err)
		})
	}
}

func TestManifest_Resolve(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	iconID := mustID(t, w, resource.Media, "app_icon")
	labelID := mustID(t, w, resource.String, "app_label")

	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, resource.ModuleJSON, []byte(`{
	    "app": { "minAPIVersion": 12 },
	    "module": {
	        "name": "entry",
	        "type": "entry",
	        "abilities": [{
	            "name": "MainAbility",
	            "icon": "$media:app_icon",
	            "label": "$string:app_label",
	            "description": "plain text"
	        }]
	    }
	}`))
	m, err := LoadManifest(path)
	require.NoError(t, err)

	r := New(w, t.TempDir())
	require.NoError(t, m.Resolve(r))

	output := t.TempDir()
	require.NoError(t, m.Save(output))
	raw, err := os.ReadFile(filepath.Join(output, resource.ModuleJSON))
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(raw, &tree))
	ability := tree["module"].(map[string]any)["abilities"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(iconID), ability["iconId"])
	assert.Equal(t, float64(labelID), ability["labelId"])
	// The symbolic reference is retained alongside the numeric sibling.
	assert.Equal(t, "$media:app_icon", ability["icon"])
	assert.Equal(t, "plain text", ability["description"])

	// Icon-check candidates recorded for the icon key only.
	_, ok := m.CheckIDs()["icon"][iconID]
	assert.True(t, ok)
	_, ok = m.CheckIDs()["label"]
	assert.False(t, ok)
}

func TestManifest_ResolveWrongPrefix(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	mustID(t, w, resource.String, "oops")

	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, resource.ModuleJSON, []byte(`{
	    "module": {
	        "name": "entry",
	        "abilities": [{ "icon": "$string:oops" }]
	    }
	}`))
	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Error(t, m.Resolve(New(w, t.TempDir())))
}
