package pack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/dedup"
	"github.com/respack/respack/internal/pool"
	"github.com/respack/respack/internal/scanner"
	"github.com/respack/respack/internal/testutil"
	"github.com/respack/respack/internal/transcode"
)

func newCopier(t *testing.T, output string) (*BinaryCopier, *pool.Pool) {
	t.Helper()
	p, err := pool.New(4)
	require.NoError(t, err)
	t.Cleanup(p.Stop)
	c := NewBinaryCopier(output, "entry", false, dedup.New(), scanner.NewIgnorer(),
		transcode.Copier{}, nil, p)
	return c, p
}

func TestCopyAsync_CopiesTrees(t *testing.T) {
	t.Parallel()

	input := t.TempDir()
	output := t.TempDir()
	testutil.WriteFile(t, input, "rawfile/a.bin", []byte("a"))
	testutil.WriteFile(t, input, "rawfile/nested/b.bin", []byte("b"))
	testutil.WriteFile(t, input, "resfile/c.dat", []byte("c"))
	testutil.WriteFile(t, input, "rawfile/.hidden", []byte("x"))

	c, _ := newCopier(t, output)
	require.NoError(t, c.CopyAsync([]string{input}).Wait())

	assert.FileExists(t, filepath.Join(output, "resources", "rawfile", "a.bin"))
	assert.FileExists(t, filepath.Join(output, "resources", "rawfile", "nested", "b.bin"))
	assert.FileExists(t, filepath.Join(output, "resources", "resfile", "c.dat"))
	assert.NoFileExists(t, filepath.Join(output, "resources", "rawfile", ".hidden"))
}

func TestCopyAsync_DedupAcrossInputs(t *testing.T) {
	t.Parallel()

	inputA := t.TempDir()
	inputB := t.TempDir()
	output := t.TempDir()
	testutil.WriteFile(t, inputA, "rawfile/same.bin", []byte("first"))
	testutil.WriteFile(t, inputB, "rawfile/same.bin", []byte("second"))

	c, _ := newCopier(t, output)
	require.NoError(t, c.CopyAsync([]string{inputA, inputB}).Wait())

	raw, err := os.ReadFile(filepath.Join(output, "resources", "rawfile", "same.bin"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(raw))
}

func TestCopyAsync_StoppedBeforeStart(t *testing.T) {
	t.Parallel()

	input := t.TempDir()
	output := t.TempDir()
	testutil.WriteFile(t, input, "rawfile/a.bin", []byte("a"))

	c, _ := newCopier(t, output)
	c.Stop()
	err := c.CopyAsync([]string{input}).Wait()
	assert.Error(t, err)
	assert.NoDirExists(t, filepath.Join(output, "resources", "rawfile"))
}

func TestCopyAsync_MissingTreesAreFine(t *testing.T) {
	t.Parallel()

	c, _ := newCopier(t, t.TempDir())
	assert.NoError(t, c.CopyAsync([]string{t.TempDir()}).Wait())
}

func TestCopyAsync_HapShadowing(t *testing.T) {
	t.Parallel()

	hap := t.TempDir()
	module := t.TempDir()
	output := t.TempDir()
	testutil.WriteFile(t, hap, "rawfile/logo.bin", []byte("hap"))
	testutil.WriteFile(t, module, "rawfile/logo.bin", []byte("module"))

	c, _ := newCopier(t, output)
	c.SetHapMode(true)
	require.NoError(t, c.CopyAsync([]string{hap}).Wait())
	c.SetHapMode(false)
	require.NoError(t, c.CopyAsync([]string{module}).Wait())

	raw, err := os.ReadFile(filepath.Join(output, "resources", "rawfile", "logo.bin"))
	require.NoError(t, err)
	assert.Equal(t, "module", string(raw))
}
