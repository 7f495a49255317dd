package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/testutil"
)

func TestRootCommand_PackagesModule(t *testing.T) {
	moduleDir := t.TempDir()
	testutil.WriteFile(t, moduleDir, resource.ConfigJSON, []byte(`{
	    "module": {
	        "package": "com.example.demo",
	        "distro": { "moduleName": "entry", "moduleType": "entry" }
	    }
	}`))
	testutil.WriteFile(t, moduleDir, "resources/base/element/string.json",
		[]byte(`{"string": [{"name": "app_name", "value": "Hello"}]}`))
	output := t.TempDir()

	cmd := RootCmd()
	cmd.SetArgs([]string{
		"-i", filepath.Join(moduleDir, resource.ResourcesDir),
		"-p", "com.example.demo",
		"-o", output,
		"-f",
		"--thread", "2",
		"-q",
	})
	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(output, resource.ResourceIndexFile))
	assert.FileExists(t, filepath.Join(output, "ResourceTable.txt"))

	// The dump subcommand loads the produced index.
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"dump", filepath.Join(output, resource.ResourceIndexFile)})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "app_name")
}
