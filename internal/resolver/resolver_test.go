package resolver

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/ids"
	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/testutil"
)

func newWorker(t *testing.T) *ids.Worker {
	t.Helper()
	defined := ids.NewDefined()
	defined.Sys[ids.DefinedKey{Type: resource.Color, Name: "warning"}] = 0x07800010
	w := ids.NewWorker(ids.ClusterApp, 0, defined)
	return w
}

func mustID(t *testing.T, w *ids.Worker, typ resource.Type, name string) uint32 {
	t.Helper()
	id, err := w.GenerateID(typ, name)
	require.NoError(t, err)
	return id
}

func TestResolveItems_Scalar(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	appName := mustID(t, w, resource.String, "app_name")

	items := map[uint32][]resource.Item{
		appName + 1: {{
			Name: "greeting", Type: resource.String, LimitKey: "base",
			Data: []byte("$string:app_name"),
		}},
	}
	r := New(w, t.TempDir())
	require.NoError(t, r.ResolveItems(items))
	assert.Equal(t, "$string:16777216", string(items[appName+1][0].Data))
}

func TestResolveItems_IDRefBecomesBareNumber(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	id := mustID(t, w, resource.ID, "next_button")

	items := map[uint32][]resource.Item{
		id + 1: {{
			Name: "target", Type: resource.String, LimitKey: "base",
			Data: []byte("$id:next_button"),
		}},
	}
	r := New(w, t.TempDir())
	require.NoError(t, r.ResolveItems(items))
	assert.Equal(t, "16777216", string(items[id+1][0].Data))
}

func TestResolveItems_SystemRef(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	items := map[uint32][]resource.Item{
		0x01000000: {{
			Name: "border", Type: resource.Color, LimitKey: "base",
			Data: []byte("$ohos:color:warning"),
		}},
	}
	r := New(w, t.TempDir())
	require.NoError(t, r.ResolveItems(items))
	assert.Equal(t, "$color:125829136", string(items[0x01000000][0].Data))
}

func TestResolveItems_ArrayElements(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	mustID(t, w, resource.String, "small")

	data, err := resource.ComposeStrings([]string{"$string:small", "plain"}, false)
	require.NoError(t, err)
	items := map[uint32][]resource.Item{
		0x01000010: {{
			Name: "sizes", Type: resource.StrArray, LimitKey: "base", Data: data,
		}},
	}
	r := New(w, t.TempDir())
	require.NoError(t, r.ResolveItems(items))

	got, err := resource.DecomposeStrings(items[0x01000010][0].Data)
	require.NoError(t, err)
	assert.Equal(t, []string{"$string:16777216", "plain"}, got)
}

func TestResolveItems_UnresolvableIsFatal(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	items := map[uint32][]resource.Item{
		0x01000000: {{
			Name: "greeting", Type: resource.String, LimitKey: "base",
			Data: []byte("$string:never_defined"),
		}},
	}
	r := New(w, t.TempDir())
	err := r.ResolveItems(items)
	var d *diag.Error
	require.True(t, errors.As(err, &d))
	assert.Equal(t, diag.CodeRefNotDefined, d.Code)
}

func TestResolveItems_CoverableSkipped(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	items := map[uint32][]resource.Item{
		0x01000000: {{
			Name: "greeting", Type: resource.String, LimitKey: "base",
			Data: []byte("$string:never_defined"), Coverable: true,
		}},
	}
	r := New(w, t.TempDir())
	assert.NoError(t, r.ResolveItems(items))
}

func TestResolveItems_NoRecognizedPrefixSurvives(t *testing.T) {
	t.Parallel()

	// Reference closure: after the pass no payload keeps a resolvable
	// $type: prefix.
	w := newWorker(t)
	mustID(t, w, resource.Color, "primary")
	items := map[uint32][]resource.Item{
		0x01000010: {
			{Name: "a", Type: resource.Color, LimitKey: "base", Data: []byte("$color:primary")},
			{Name: "b", Type: resource.String, LimitKey: "base", Data: []byte("no refs here")},
		},
	}
	r := New(w, t.TempDir())
	require.NoError(t, r.ResolveItems(items))
	for _, list := range items {
		for _, it := range list {
			value := string(it.Data)
			assert.NotRegexp(t, `^\$[a-z]+:[^0-9]`, value)
		}
	}
}

func TestResolveSidecar_MediaJSONRewrittenAndTracked(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	layerID := mustID(t, w, resource.Media, "foreground")
	iconID := mustID(t, w, resource.Media, "layered")

	srcDir := t.TempDir()
	output := t.TempDir()
	src := testutil.WriteFile(t, srcDir, "layered.json", []byte(`{
	    "layered-image": {
	        "background": "$media:foreground",
	        "label": "static"
	    }
	}`))

	items := map[uint32][]resource.Item{
		iconID: {{
			Name: "layered.json", Type: resource.Media, LimitKey: "base",
			FilePath: src,
		}},
	}
	r := New(w, output)
	require.NoError(t, r.ResolveItems(items))

	rewritten, err := os.ReadFile(filepath.Join(output, "resources", "base", "media", "layered.json"))
	require.NoError(t, err)
	var tree map[string]any
	require.NoError(t, json.Unmarshal(rewritten, &tree))
	inner := tree["layered-image"].(map[string]any)
	assert.Equal(t, "$media:16777216", inner["background"])
	assert.Equal(t, "static", inner["label"])

	// The carrier icon records its referenced layer.
	_, ok := r.LayerIcons()[iconID][layerID]
	assert.True(t, ok)
}

func TestResolveSidecar_ProfileOnlyBaseLimit(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	mustID(t, w, resource.String, "title")
	srcDir := t.TempDir()
	output := t.TempDir()
	src := testutil.WriteFile(t, srcDir, "page.json",
		[]byte(`{"title": "$string:title"}`))

	items := map[uint32][]resource.Item{
		0x01000010: {{
			Name: "page.json", Type: resource.Profile, LimitKey: "zh_CN",
			FilePath: src,
		}},
	}
	r := New(w, output)
	require.NoError(t, r.ResolveItems(items))
	assert.NoFileExists(t, filepath.Join(output, "resources", "base", "profile", "page.json"))
}

func TestResolveSidecar_NoChangeNoWrite(t *testing.T) {
	t.Parallel()

	w := newWorker(t)
	srcDir := t.TempDir()
	output := t.TempDir()
	src := testutil.WriteFile(t, srcDir, "plain.json", []byte(`{"label": "static"}`))

	items := map[uint32][]resource.Item{
		0x01000010: {{
			Name: "plain.json", Type: resource.Media, LimitKey: "base",
			FilePath: src,
		}},
	}
	r := New(w, output)
	require.NoError(t, r.ResolveItems(items))
	assert.NoFileExists(t, filepath.Join(output, "resources", "base", "media", "plain.json"))
}
