package config

import (
	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/respack/respack/internal/diag"
)

// applyFileList loads the --fileList JSON option set. Package name, output,
// module names, config path, start ID, compression path and icon check are
// taken from the file only when the flag was left empty; input and header
// paths from the file are appended to those given as flags. The file uses
// its own key names, which differ from the long option spellings:
//
//	{
//	    "configPath": "module.json",
//	    "packageName": "com.example.demo",
//	    "output": "build/res",
//	    "moduleNames": "entry",
//	    "ResourceTable": ["ResourceTable.h"],
//	    "startId": "0x01000000",
//	    "applicationResource": "AppScope/resources",
//	    "moduleResources": ["entry/src/main/resources"],
//	    "compressionPath": "opt-compression.json",
//	    "iconCheck": true
//	}
func (fv *FlagValues) applyFileList(path string) error {
	k := koanf.New(".")

	// Defaults layer mirrors the current flag state so the file only fills
	// gaps.
	defaults := map[string]any{
		"packageName": fv.PackageName,
		"output":      fv.Output,
		"moduleNames": fv.Modules,
		"configPath":  fv.ConfigJSON,
		"startId":     fv.StartID,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return diag.New(diag.CodeOpenJSONFail, path, err.Error())
	}
	if err := k.Load(file.Provider(path), koanfjson.Parser()); err != nil {
		return diag.New(diag.CodeOpenJSONFail, path, err.Error())
	}

	if fv.PackageName == "" {
		fv.PackageName = k.String("packageName")
	}
	if fv.Output == "" {
		fv.Output = k.String("output")
	}
	if fv.Modules == "" {
		fv.Modules = k.String("moduleNames")
	}
	if fv.ConfigJSON == "" {
		fv.ConfigJSON = k.String("configPath")
	}
	if fv.StartID == "" {
		fv.StartID = k.String("startId")
	}
	if fv.CompressedConfig == "" {
		fv.CompressedConfig = k.String("compressionPath")
	}
	if !fv.IconCheck {
		fv.IconCheck = k.Bool("iconCheck")
	}
	if app := k.String("applicationResource"); app != "" {
		fv.Inputs = append(fv.Inputs, app)
	}
	fv.Inputs = append(fv.Inputs, k.Strings("moduleResources")...)
	fv.ResourceHeaders = append(fv.ResourceHeaders, k.Strings("ResourceTable")...)
	return nil
}
