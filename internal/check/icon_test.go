package check

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/qualifier"
	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/testutil"
)

// pngBytes builds a minimal PNG header carrying the given IHDR dimensions.
func pngBytes(width, height uint32) []byte {
	out := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	out = binary.BigEndian.AppendUint32(out, 13) // IHDR length
	out = append(out, "IHDR"...)
	out = binary.BigEndian.AppendUint32(out, width)
	out = binary.BigEndian.AppendUint32(out, height)
	out = append(out, make([]byte, 5)...)
	return out
}

func TestPngSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "icon.png", pngBytes(54, 54))
	w, h, ok := pngSize(path)
	require.True(t, ok)
	assert.Equal(t, uint32(54), w)
	assert.Equal(t, uint32(54), h)

	notPNG := testutil.WriteFile(t, dir, "icon.jpg", []byte("jfif"))
	_, _, ok = pngSize(notPNG)
	assert.False(t, ok)
}

func TestNormalSize(t *testing.T) {
	t.Parallel()

	mdpiPhone, err := qualifier.Parse("phone-mdpi")
	require.NoError(t, err)
	assert.Equal(t, uint32(54), normalSize(mdpiPhone, 0))
	assert.Equal(t, uint32(192), normalSize(mdpiPhone, 1))

	xldpiTablet, err := qualifier.Parse("tablet-xldpi")
	require.NoError(t, err)
	assert.Equal(t, uint32(136), normalSize(xldpiTablet, 0))
	assert.Equal(t, uint32(512), normalSize(xldpiTablet, 1))

	// Defaults when qualifiers are absent: sdpi phone.
	assert.Equal(t, uint32(41), normalSize(nil, 0))

	car, err := qualifier.Parse("car")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), normalSize(car, 0))
}

func TestCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	square := testutil.WriteFile(t, dir, "ok.png", pngBytes(41, 41))
	oblong := testutil.WriteFile(t, dir, "oblong.png", pngBytes(60, 40))
	huge := testutil.WriteFile(t, dir, "huge.png", pngBytes(4096, 4096))

	items := map[uint32][]resource.Item{
		1: {{Name: "ok.png", Type: resource.Media, LimitKey: "base", FilePath: square}},
		2: {{Name: "oblong.png", Type: resource.Media, LimitKey: "base", FilePath: oblong}},
		3: {{Name: "huge.png", Type: resource.Media, LimitKey: "base", FilePath: huge}},
	}
	checkIDs := map[string]map[uint32]struct{}{
		"icon": {1: {}, 2: {}, 3: {}},
	}

	warnings := New().Check(checkIDs, items)
	require.Len(t, warnings, 2)
	paths := []string{warnings[0].Path, warnings[1].Path}
	assert.ElementsMatch(t, []string{oblong, huge}, paths)
}
