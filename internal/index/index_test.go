package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/qualifier"
	"github.com/respack/respack/internal/resource"
)

func sampleItems(t *testing.T) map[uint32][]resource.Item {
	t.Helper()
	zhCN, err := qualifier.Parse("zh_CN")
	require.NoError(t, err)
	plural, err := resource.ComposeStrings([]string{"one", "an apple", "other", "%d apples"}, false)
	require.NoError(t, err)
	return map[uint32][]resource.Item{
		0x01000000: {
			{Name: "app_name", Type: resource.String, LimitKey: "base", Data: []byte("Hello")},
			{Name: "app_name", Type: resource.String, LimitKey: "zh_CN", KeyParams: zhCN, Data: []byte("你好")},
		},
		0x01000001: {
			{Name: "primary", Type: resource.Color, LimitKey: "base", Data: []byte("#FF0000")},
		},
		0x01000002: {
			{Name: "apples", Type: resource.Plural, LimitKey: "base", Data: plural},
		},
		0x01000003: {
			{Name: "empty", Type: resource.String, LimitKey: "base", Data: nil},
		},
	}
}

// assertRoundTrip verifies load(write(items)) equality up to ordering, with
// every re-ingested item coverable.
func assertRoundTrip(t *testing.T, items, loaded map[uint32][]resource.Item) {
	t.Helper()
	require.Len(t, loaded, len(items))
	for id, want := range items {
		got, ok := loaded[id]
		require.True(t, ok, "id %#x missing", id)
		require.Len(t, got, len(want))
		for _, w := range want {
			found := false
			for _, g := range got {
				if g.LimitKey != w.LimitKey {
					continue
				}
				found = true
				assert.Equal(t, w.Name, g.Name)
				assert.Equal(t, w.Type, g.Type)
				assert.Equal(t, string(w.Data), string(g.Data))
				assert.True(t, g.Coverable)
			}
			assert.True(t, found, "limit key %q missing for id %#x", w.LimitKey, id)
		}
	}
}

func TestV1_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), resource.ResourceIndexFile)
	items := sampleItems(t)
	require.NoError(t, WriteV1(path, items))

	loaded, err := Load(path)
	require.NoError(t, err)
	assertRoundTrip(t, items, loaded)
}

func TestV2_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), resource.ResourceIndexFile)
	items := sampleItems(t)
	require.NoError(t, WriteV2(path, items))

	loaded, err := Load(path)
	require.NoError(t, err)
	assertRoundTrip(t, items, loaded)
}

func TestVersionDiscrimination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	v1Path := filepath.Join(dir, "v1.index")
	v2Path := filepath.Join(dir, "v2.index")
	items := sampleItems(t)
	require.NoError(t, WriteV1(v1Path, items))
	require.NoError(t, WriteV2(v2Path, items))

	v1Raw, err := os.ReadFile(v1Path)
	require.NoError(t, err)
	assert.Equal(t, "Restool ", string(v1Raw[:8]))

	v2Raw, err := os.ReadFile(v2Path)
	require.NoError(t, err)
	assert.Equal(t, "RestoolV2 ", string(v2Raw[:10]))
}

func TestV2_SharesIdenticalPayloads(t *testing.T) {
	t.Parallel()

	zhCN, err := qualifier.Parse("zh_CN")
	require.NoError(t, err)
	items := map[uint32][]resource.Item{
		0x01000000: {
			{Name: "same", Type: resource.String, LimitKey: "base", Data: []byte("identical")},
			{Name: "same", Type: resource.String, LimitKey: "zh_CN", KeyParams: zhCN, Data: []byte("identical")},
		},
	}
	shared := filepath.Join(t.TempDir(), "shared.index")
	require.NoError(t, WriteV2(shared, items))

	items[0x01000000][1].Data = []byte("different")
	distinct := filepath.Join(t.TempDir(), "distinct.index")
	require.NoError(t, WriteV2(distinct, items))

	sharedInfo, err := os.Stat(shared)
	require.NoError(t, err)
	distinctInfo, err := os.Stat(distinct)
	require.NoError(t, err)
	assert.Less(t, sharedInfo.Size(), distinctInfo.Size())
}

func TestLoad_Corrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	short := filepath.Join(dir, "short.index")
	require.NoError(t, os.WriteFile(short, []byte("Restool"), 0o644))
	_, err := Load(short)
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.index")
	require.NoError(t, os.WriteFile(unknown, paddedVersion("Sometool 1.0"), 0o644))
	_, err = Load(unknown)
	assert.Error(t, err)

	// Truncate a valid file inside the record region.
	valid := filepath.Join(dir, "valid.index")
	require.NoError(t, WriteV1(valid, sampleItems(t)))
	raw, err := os.ReadFile(valid)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(valid, raw[:len(raw)-3], 0o644))
	_, err = Load(valid)
	assert.Error(t, err)

	// Corrupt a section tag.
	require.NoError(t, os.WriteFile(valid, raw, 0o644))
	tagged := append([]byte(nil), raw...)
	copy(tagged[versionMaxLen+8:], "XXXX")
	require.NoError(t, os.WriteFile(valid, tagged, 0o644))
	_, err = Load(valid)
	assert.Error(t, err)
}

func TestGroupByLimitKey_ExcludesIDType(t *testing.T) {
	t.Parallel()

	items := map[uint32][]resource.Item{
		0x01000000: {{Name: "btn", Type: resource.ID, LimitKey: "base", Data: []byte("x")}},
		0x01000001: {{Name: "s", Type: resource.String, LimitKey: "base", Data: []byte("v")}},
	}
	keys, groups := groupByLimitKey(items)
	require.Equal(t, []string{"base"}, keys)
	require.Len(t, groups["base"], 1)
	assert.Equal(t, "s", groups["base"][0].item.Name)
}
