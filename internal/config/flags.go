package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/qualifier"
	"github.com/respack/respack/internal/scanner"
	"github.com/respack/respack/internal/transcode"
)

// FlagValues collects the raw flag values bound on the root command. Raw
// strings are parsed and validated into a Config by Resolve.
type FlagValues struct {
	Inputs           []string
	PackageName      string
	Output           string
	ResourceHeaders  []string
	ForceWrite       bool
	Modules          string
	ConfigJSON       string
	StartID          string
	Append           []string
	Combine          bool
	FileList         string
	IDsOutput        string
	DefinedIDsPath   string
	DependEntry      string
	IconCheck        bool
	TargetConfig     string
	SysIDDefined     []string
	CompressedConfig string
	Thread           int
	IgnoreConfig     string

	Verbose bool
	Quiet   bool
}

// BindFlags registers the package-build flags on cmd and returns the value
// holder populated at parse time.
func BindFlags(cmd *cobra.Command) *FlagValues {
	fv := &FlagValues{}
	pf := cmd.PersistentFlags()
	pf.StringArrayVarP(&fv.Inputs, "inputPath", "i", nil, "resource source directory (repeatable)")
	pf.StringVarP(&fv.PackageName, "packageName", "p", "", "application package name")
	pf.StringVarP(&fv.Output, "outputPath", "o", "", "output root directory")
	pf.StringArrayVarP(&fv.ResourceHeaders, "resHeader", "r", nil, "generated header artifact path (repeatable)")
	pf.BoolVarP(&fv.ForceWrite, "forceWrite", "f", false, "overwrite existing output")
	pf.StringVarP(&fv.Modules, "modules", "m", "", "comma-separated module names")
	pf.StringVarP(&fv.ConfigJSON, "json", "j", "", "path to module.json or config.json")
	pf.StringVarP(&fv.StartID, "startId", "e", "", "hex start ID")
	pf.StringArrayVarP(&fv.Append, "append", "x", nil, "append-mode source path (repeatable)")
	pf.BoolVarP(&fv.Combine, "combine", "z", false, "incremental-compile flag")
	pf.StringVarP(&fv.FileList, "fileList", "l", "", "path to a JSON file describing the option set")
	pf.StringVar(&fv.IDsOutput, "ids", "", "directory to emit id_defined.json")
	pf.StringVar(&fv.DefinedIDsPath, "defined-ids", "", "path to an input id_defined.json")
	pf.StringVar(&fv.DependEntry, "dependEntry", "", "entry-module build directory")
	pf.BoolVar(&fv.IconCheck, "icon-check", false, "enable icon dimension checking")
	pf.StringVar(&fv.TargetConfig, "target-config", "", "selective-compile filter")
	pf.StringArrayVar(&fv.SysIDDefined, "defined-sysids", nil, "path to a system id_defined.json (repeatable)")
	pf.StringVar(&fv.CompressedConfig, "compressed-config", "", "path to opt-compression.json")
	pf.IntVar(&fv.Thread, "thread", 0, "worker count (positive integer)")
	pf.StringVar(&fv.IgnoreConfig, "ignore-config", "", "path to an ignore-pattern override file")
	pf.BoolVarP(&fv.Verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVarP(&fv.Quiet, "quiet", "q", false, "suppress all output except errors")
	return fv
}

// legal start ID ranges; the reserved system block never hosts app IDs.
const (
	startIDLowMin  = 0x01000000
	startIDLowMax  = 0x06FFFFFF
	startIDHighMin = 0x08000000
	startIDHighMax = 0xFFFFFFFF
)

// Resolve parses and validates the raw flag values into a Config, applying
// the --fileList option set first so explicit flags win.
func (fv *FlagValues) Resolve() (*Config, error) {
	if fv.FileList != "" {
		if err := fv.applyFileList(fv.FileList); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		PackageName:       fv.PackageName,
		Output:            fv.Output,
		ResourceHeaders:   fv.ResourceHeaders,
		ForceWrite:        fv.ForceWrite,
		ConfigJSON:        fv.ConfigJSON,
		Append:            fv.Append,
		Combine:           fv.Combine,
		IDsOutput:         fv.IDsOutput,
		DefinedIDsPath:    fv.DefinedIDsPath,
		DependEntry:       fv.DependEntry,
		IconCheck:         fv.IconCheck,
		SysIDDefinedPaths: fv.SysIDDefined,
		CompressionPath:   fv.CompressedConfig,
	}

	seen := make(map[string]bool)
	for _, input := range fv.Inputs {
		if seen[input] {
			return nil, diag.New(diag.CodeDuplicateInput, input)
		}
		seen[input] = true
		info, err := os.Stat(input)
		if err != nil {
			return nil, diag.New(diag.CodeInvalidInput, input, err.Error())
		}
		if !info.IsDir() {
			return nil, diag.New(diag.CodeInvalidInput, input, "not a directory")
		}
		cfg.Inputs = append(cfg.Inputs, input)
	}
	if len(cfg.Inputs) == 0 && len(cfg.Append) == 0 {
		return nil, diag.New(diag.CodeMissingArgument, "--inputPath")
	}
	if cfg.Output == "" {
		return nil, diag.New(diag.CodeMissingArgument, "--outputPath")
	}

	if fv.Modules != "" {
		for _, m := range strings.Split(fv.Modules, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.Modules = append(cfg.Modules, m)
			}
		}
	}

	if fv.StartID != "" {
		id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(fv.StartID, "0x"), "0X"), 16, 64)
		if err != nil {
			return nil, diag.New(diag.CodeInvalidStartID, fv.StartID)
		}
		if !(id >= startIDLowMin && id < startIDLowMax) &&
			!(id >= startIDHighMin && id < startIDHighMax) {
			return nil, diag.New(diag.CodeInvalidStartID, fv.StartID)
		}
		cfg.StartID = id
	}

	if fv.TargetConfig != "" {
		tc, err := qualifier.ParseTargetConfig(fv.TargetConfig)
		if err != nil {
			return nil, diag.New(diag.CodeInvalidTargetConfig, fv.TargetConfig, err.Error())
		}
		cfg.TargetConfig = tc
	}

	if fv.Thread < 0 {
		return nil, diag.New(diag.CodeInvalidThreadCount, fmt.Sprintf("%d", fv.Thread))
	}
	cfg.ThreadCount = fv.Thread

	if fv.IgnoreConfig != "" {
		ig, err := scanner.LoadIgnorer(fv.IgnoreConfig)
		if err != nil {
			return nil, err
		}
		cfg.Ignorer = ig
	} else {
		cfg.Ignorer = scanner.NewIgnorer()
	}

	if cfg.CompressionPath != "" {
		opts, err := transcode.LoadOptions(cfg.CompressionPath)
		if err != nil {
			return nil, err
		}
		cfg.Compression = opts
	}

	return cfg, nil
}
