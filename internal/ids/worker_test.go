package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/resource"
)

func TestGenerateID_Monotonic(t *testing.T) {
	t.Parallel()

	w := NewWorker(ClusterApp, 0, nil)
	prev := uint32(0)
	names := []string{"a", "b", "c", "d", "e"}
	for _, name := range names {
		id, err := w.GenerateID(resource.String, name)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
	first, err := w.GenerateID(resource.String, "a")
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultAppBase), first)
}

func TestGenerateID_Idempotent(t *testing.T) {
	t.Parallel()

	w := NewWorker(ClusterApp, 0, nil)
	id1, err := w.GenerateID(resource.Color, "primary")
	require.NoError(t, err)
	id2, err := w.GenerateID(resource.Color, "primary")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// Name uniqueness is per type.
	other, err := w.GenerateID(resource.String, "primary")
	require.NoError(t, err)
	assert.NotEqual(t, id1, other)
}

func TestGenerateID_StartIDBoundaries(t *testing.T) {
	t.Parallel()

	t.Run("refuses to cross into reserved range", func(t *testing.T) {
		t.Parallel()
		w := NewWorker(ClusterApp, 0x06FFFFFF, nil)
		id, err := w.GenerateID(resource.String, "only")
		require.NoError(t, err)
		assert.Equal(t, uint32(0x06FFFFFF), id)
		_, err = w.GenerateID(resource.String, "next")
		assert.Error(t, err)
	})

	t.Run("exhausts in exactly two allocations", func(t *testing.T) {
		t.Parallel()
		w := NewWorker(ClusterApp, 0xFFFFFFFE, nil)
		_, err := w.GenerateID(resource.String, "one")
		require.NoError(t, err)
		_, err = w.GenerateID(resource.String, "two")
		require.NoError(t, err)
		_, err = w.GenerateID(resource.String, "three")
		assert.Error(t, err)
	})
}

func TestGenerateID_DefinedTakesPrecedence(t *testing.T) {
	t.Parallel()

	defined := NewDefined()
	defined.App[DefinedKey{Type: resource.String, Name: "app_name"}] = 0x01000500

	w := NewWorker(ClusterApp, 0, defined)
	id, err := w.GenerateID(resource.String, "app_name")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01000500), id)

	// Dynamic allocation skips pinned IDs.
	w2 := NewWorker(ClusterApp, 0, func() *Defined {
		d := NewDefined()
		d.App[DefinedKey{Type: resource.Color, Name: "pinned"}] = uint32(DefaultAppBase)
		return d
	}())
	id, err = w2.GenerateID(resource.String, "dynamic")
	require.NoError(t, err)
	assert.Equal(t, uint32(DefaultAppBase)+1, id)
}

func TestGenerateID_CacheTier(t *testing.T) {
	t.Parallel()

	w := NewWorker(ClusterApp, 0, nil)
	w.SeedCache([]Assigned{{Type: resource.String, Name: "cached", ID: 0x01000042}})
	id, err := w.GenerateID(resource.String, "cached")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01000042), id)
}

func TestGenerateID_SystemCluster(t *testing.T) {
	t.Parallel()

	defined := NewDefined()
	defined.Sys[DefinedKey{Type: resource.String, Name: "ohos_lab"}] = 0x07800001

	w := NewWorker(ClusterSys, 0, defined)
	id, err := w.GenerateID(resource.String, "ohos_lab")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07800001), id)

	_, err = w.GenerateID(resource.String, "undefined_name")
	assert.Error(t, err)
}

func TestLoadFromHap(t *testing.T) {
	t.Parallel()

	w := NewWorker(ClusterApp, 0, nil)
	items := map[uint32][]resource.Item{
		0x01000000: {{Name: "app_name", Type: resource.String}},
		0x01000007: {{Name: "primary", Type: resource.Color}},
	}
	w.LoadFromHap(items)

	id, ok := w.ID(resource.String, "app_name")
	assert.True(t, ok)
	assert.Equal(t, uint32(0x01000000), id)

	next, err := w.GenerateID(resource.String, "fresh")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01000008), next)
}

func TestAll_SortedByTypeThenName(t *testing.T) {
	t.Parallel()

	w := NewWorker(ClusterApp, 0, nil)
	for _, name := range []string{"zeta", "alpha"} {
		_, err := w.GenerateID(resource.String, name)
		require.NoError(t, err)
	}
	_, err := w.GenerateID(resource.Color, "mid")
	require.NoError(t, err)

	all := w.All()
	require.Len(t, all, 3)
	assert.Equal(t, resource.Color, all[0].Type)
	assert.Equal(t, "alpha", all[1].Name)
	assert.Equal(t, "zeta", all[2].Name)
}
