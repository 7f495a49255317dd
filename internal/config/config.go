// Package config provides the validated option set consumed by the packer
// core, flag binding for the CLI, the --fileList JSON option-set loader,
// and logging setup. It is a foundational cross-cutting concern used by
// every other internal package.
package config

import (
	"github.com/respack/respack/internal/qualifier"
	"github.com/respack/respack/internal/scanner"
	"github.com/respack/respack/internal/transcode"
)

// Config is the validated option set of one package build. The CLI and the
// file-list loader both populate this struct; the pipeline consumes it
// read-only.
type Config struct {
	// Inputs are the resource source directories, in module order. In
	// overlay mode the first input belongs to the prebuilt HAP.
	Inputs []string

	// PackageName is the application package name.
	PackageName string

	// Output is the build output root.
	Output string

	// ResourceHeaders are the generated header artifact paths (.h, .js,
	// .txt).
	ResourceHeaders []string

	// ForceWrite overwrites an existing output tree.
	ForceWrite bool

	// Modules are the module names of a multi-module build; a module's
	// position uplifts its start ID.
	Modules []string

	// ConfigJSON is the explicit module.json / config.json path.
	ConfigJSON string

	// StartID uplifts the app ID base; zero means default.
	StartID uint64

	// Append are append-mode source paths.
	Append []string

	// Combine enables incremental compilation.
	Combine bool

	// IDsOutput, when set, receives a normalized id_defined.json after a
	// successful build.
	IDsOutput string

	// DefinedIDsPath is an input id_defined.json superseding the per-input
	// manifests.
	DefinedIDsPath string

	// DependEntry is the entry-module build directory of a feature build.
	DependEntry string

	// IconCheck enables icon dimension validation.
	IconCheck bool

	// TargetConfig is the parsed selective-compile filter.
	TargetConfig *qualifier.TargetConfig

	// SysIDDefinedPaths are system id_defined.json manifests.
	SysIDDefinedPaths []string

	// CompressionPath is the opt-compression.json path.
	CompressionPath string
	// Compression is the loaded option set; nil disables transcoding.
	Compression *transcode.Options

	// ThreadCount is the worker pool size; zero selects the platform
	// default.
	ThreadCount int

	// Ignorer is the active ignore rule set.
	Ignorer *scanner.Ignorer
}
