package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/dedup"
	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/ids"
	"github.com/respack/respack/internal/pool"
	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/scanner"
	"github.com/respack/respack/internal/testutil"
	"github.com/respack/respack/internal/transcode"
)

func newPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.New(4)
	require.NoError(t, err)
	t.Cleanup(p.Stop)
	return p
}

func TestRun_ElementsAcrossQualifiers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteFile(t, root, "base/element/string.json",
		[]byte(`{"string": [{"name": "app_name", "value": "Hello"}]}`))
	testutil.WriteFile(t, root, "zh_CN/element/string.json",
		[]byte(`{"string": [{"name": "app_name", "value": "你好"}]}`))

	sc := scanner.New()
	dirs, err := sc.ScanResources(root)
	require.NoError(t, err)

	worker := ids.NewWorker(ids.ClusterApp, 0, nil)
	result, err := Run(&ElementCompiler{}, sc, dirs[resource.Element], newPool(t), worker)
	require.NoError(t, err)

	require.Len(t, result, 1)
	items := result[0x01000000]
	require.Len(t, items, 2)
	limits := []string{items[0].LimitKey, items[1].LimitKey}
	assert.ElementsMatch(t, []string{"base", "zh_CN"}, limits)
}

func TestRun_DuplicateSameLimitKeyIsFatal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteFile(t, root, "base/element/one.json",
		[]byte(`{"string": [{"name": "app_name", "value": "a"}]}`))
	testutil.WriteFile(t, root, "base/element/two.json",
		[]byte(`{"string": [{"name": "app_name", "value": "b"}]}`))

	sc := scanner.New()
	dirs, err := sc.ScanResources(root)
	require.NoError(t, err)

	worker := ids.NewWorker(ids.ClusterApp, 0, nil)
	_, err = Run(&ElementCompiler{}, sc, dirs[resource.Element], newPool(t), worker)
	assert.Equal(t, diag.CodeResourceDuplicate, diagCode(t, err))
}

func TestRun_GenericCompilerCopiesAndDedups(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	output := t.TempDir()
	testutil.WriteFile(t, root, "base/media/icon.png", []byte("png-bytes"))

	sc := scanner.New()
	dirs, err := sc.ScanResources(root)
	require.NoError(t, err)

	worker := ids.NewWorker(ids.ClusterApp, 0, nil)
	g := &GenericCompiler{
		ModuleName: "entry",
		Output:     output,
		Paths:      dedup.New(),
		Transcoder: transcode.Copier{},
	}
	result, err := Run(g, sc, dirs[resource.Media], newPool(t), worker)
	require.NoError(t, err)

	require.Len(t, result, 1)
	items := result[0x01000000]
	require.Len(t, items, 1)
	assert.Equal(t, "icon.png", items[0].Name)
	assert.Equal(t, "entry/resources/base/media/icon.png", string(items[0].Data))
	assert.FileExists(t, output+"/resources/base/media/icon.png")

	// The same file claimed again produces nothing.
	again, err := g.CompileFile(resource.FileInfo{
		DirectoryInfo: dirs[resource.Media][0],
		FilePath:      root + "/base/media/icon.png",
		Filename:      "icon.png",
	})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestRun_InvalidResourceName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteFile(t, root, "base/element/string.json",
		[]byte(`{"string": [{"name": "bad-name", "value": "x"}]}`))

	sc := scanner.New()
	dirs, err := sc.ScanResources(root)
	require.NoError(t, err)

	worker := ids.NewWorker(ids.ClusterApp, 0, nil)
	_, err = Run(&ElementCompiler{}, sc, dirs[resource.Element], newPool(t), worker)
	assert.Equal(t, diag.CodeInvalidResourceName, diagCode(t, err))
}
