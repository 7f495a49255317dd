package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respack/respack/internal/testutil"
)

func validValues(t *testing.T) *FlagValues {
	t.Helper()
	input := t.TempDir()
	return &FlagValues{
		Inputs:      []string{input},
		PackageName: "com.example.demo",
		Output:      t.TempDir(),
	}
}

func TestResolve_Minimal(t *testing.T) {
	t.Parallel()

	cfg, err := validValues(t).Resolve()
	require.NoError(t, err)
	assert.Len(t, cfg.Inputs, 1)
	assert.NotNil(t, cfg.Ignorer)
	assert.Zero(t, cfg.StartID)
}

func TestResolve_StartID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   string
		want    uint64
		wantErr bool
	}{
		{value: "0x01000000", want: 0x01000000},
		{value: "0x08000000", want: 0x08000000},
		{value: "01000000", want: 0x01000000},
		{value: "0x06FFFFFF", wantErr: true}, // exclusive upper bound
		{value: "0x07000000", wantErr: true}, // reserved block
		{value: "0x00000001", wantErr: true},
		{value: "0xFFFFFFFF", wantErr: true},
		{value: "zzz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			fv := validValues(t)
			fv.StartID = tt.value
			cfg, err := fv.Resolve()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.StartID)
		})
	}
}

func TestResolve_DuplicateInput(t *testing.T) {
	t.Parallel()

	fv := validValues(t)
	fv.Inputs = append(fv.Inputs, fv.Inputs[0])
	_, err := fv.Resolve()
	assert.Error(t, err)
}

func TestResolve_MissingRequired(t *testing.T) {
	t.Parallel()

	fv := &FlagValues{Output: t.TempDir()}
	_, err := fv.Resolve()
	assert.Error(t, err)

	fv = &FlagValues{Inputs: []string{t.TempDir()}}
	_, err = fv.Resolve()
	assert.Error(t, err)
}

func TestResolve_Modules(t *testing.T) {
	t.Parallel()

	fv := validValues(t)
	fv.Modules = "entry, feature1 ,feature2"
	cfg, err := fv.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"entry", "feature1", "feature2"}, cfg.Modules)
}

func TestResolve_TargetConfig(t *testing.T) {
	t.Parallel()

	fv := validValues(t)
	fv.TargetConfig = "Device[phone];ColorMode[dark]"
	cfg, err := fv.Resolve()
	require.NoError(t, err)
	require.NotNil(t, cfg.TargetConfig)

	fv = validValues(t)
	fv.TargetConfig = "Device[phone"
	_, err = fv.Resolve()
	assert.Error(t, err)
}

func TestResolve_FileList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	moduleRes := t.TempDir()
	list := testutil.WriteFile(t, dir, "filelist.json", []byte(`{
	    "packageName": "com.from.file",
	    "output": "`+filepath.ToSlash(t.TempDir())+`",
	    "moduleNames": "entry",
	    "startId": "0x01000000",
	    "moduleResources": ["`+filepath.ToSlash(moduleRes)+`"]
	}`))

	fv := &FlagValues{FileList: list}
	cfg, err := fv.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "com.from.file", cfg.PackageName)
	assert.Equal(t, []string{"entry"}, cfg.Modules)
	assert.Equal(t, uint64(0x01000000), cfg.StartID)
	assert.Equal(t, []string{moduleRes}, cfg.Inputs)
}

func TestResolve_FlagsWinOverFileList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	list := testutil.WriteFile(t, dir, "filelist.json",
		[]byte(`{"packageName": "com.from.file"}`))

	fv := validValues(t)
	fv.FileList = list
	cfg, err := fv.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "com.example.demo", cfg.PackageName)
}
