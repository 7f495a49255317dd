package pack

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/respack/respack/internal/check"
	"github.com/respack/respack/internal/compiler"
	"github.com/respack/respack/internal/config"
	"github.com/respack/respack/internal/dedup"
	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/ids"
	"github.com/respack/respack/internal/index"
	"github.com/respack/respack/internal/pool"
	"github.com/respack/respack/internal/resolver"
	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/scanner"
	"github.com/respack/respack/internal/transcode"
)

// compileOrder fixes the cluster compile sequence within one module.
var compileOrder = []resource.Type{resource.Element, resource.Media, resource.Profile}

// Packer drives one package build: scan every input, compile, merge,
// resolve references, and write the index and header artifacts.
type Packer struct {
	cfg        *config.Config
	manifest   *resolver.Manifest
	moduleName string

	workers    *pool.Pool
	paths      *dedup.PathSet
	worker     *ids.Worker
	scanner    *scanner.Scanner
	transcoder transcode.Transcoder

	items  map[uint32][]resource.Item
	logger *slog.Logger
}

// New builds a Packer from a validated config.
func New(cfg *config.Config) (*Packer, error) {
	size := cfg.ThreadCount
	if size == 0 {
		size = pool.DefaultSize()
	}
	workers, err := pool.New(size)
	if err != nil {
		return nil, diag.New(diag.CodeInvalidThreadCount, err.Error())
	}
	return &Packer{
		cfg:        cfg,
		workers:    workers,
		paths:      dedup.New(),
		scanner:    scanner.New(scanner.WithIgnorer(cfg.Ignorer), scanner.WithTargetConfig(cfg.TargetConfig)),
		transcoder: transcode.Copier{},
		items:      make(map[uint32][]resource.Item),
		logger:     slog.Default().With("component", "pack"),
	}, nil
}

// Close releases the worker pool.
func (p *Packer) Close() {
	p.workers.Stop()
}

// Package runs the build. Overlay mode is selected when the first input
// carries a prebuilt resources.index next to it.
func (p *Packer) Package() error {
	if err := p.initOutput(); err != nil {
		return err
	}
	if err := p.initManifest(); err != nil {
		return err
	}
	if err := p.initIDWorker(); err != nil {
		return err
	}
	if p.overlayIndexPath() != "" {
		return p.packOverlay()
	}
	return p.packNormal()
}

// Items exposes the merged item set, for tests and the dump command.
func (p *Packer) Items() map[uint32][]resource.Item {
	return p.items
}

func (p *Packer) initOutput() error {
	resourcesPath := filepath.Join(p.cfg.Output, resource.ResourcesDir)
	if _, err := os.Stat(resourcesPath); err == nil {
		if !p.cfg.ForceWrite {
			return diag.New(diag.CodeOutputExist, resourcesPath)
		}
		if err := os.RemoveAll(resourcesPath); err != nil && !p.cfg.Combine {
			return diag.New(diag.CodeRemoveFile, resourcesPath, err.Error())
		}
	}
	return os.MkdirAll(p.cfg.Output, 0o755)
}

func (p *Packer) initManifest() error {
	path := p.cfg.ConfigJSON
	if path == "" {
		if len(p.cfg.Inputs) != 1 {
			return diag.New(diag.CodeConfigJSONMissing, "-j required unless exactly one input path is given")
		}
		main := filepath.Dir(p.cfg.Inputs[0])
		path = filepath.Join(main, resource.ConfigJSON)
		if _, err := os.Stat(path); err != nil {
			path = filepath.Join(main, resource.ModuleJSON)
		}
	}
	m, err := resolver.LoadManifest(path)
	if err != nil {
		return err
	}
	p.manifest = m
	p.moduleName = m.ModuleName
	return nil
}

func (p *Packer) initIDWorker() error {
	cluster := ids.ClusterApp
	if p.cfg.PackageName == resource.SystemPackage {
		cluster = ids.ClusterSys
	}

	defined := ids.NewDefined()
	startID := p.cfg.StartID
	for _, input := range p.cfg.Inputs {
		path := ids.BaseElementDefinedPath(input, p.cfg.Combine)
		if _, err := os.Stat(path); err == nil && startID > 0 {
			return diag.New(diag.CodeExclusiveStartID)
		}
		if err := defined.LoadFile(path, cluster == ids.ClusterSys); err != nil {
			return err
		}
	}
	if p.cfg.DefinedIDsPath != "" {
		defined.ResetApp()
		if err := defined.LoadFile(p.cfg.DefinedIDsPath, false); err != nil {
			return err
		}
	}
	for _, path := range p.cfg.SysIDDefinedPaths {
		if err := defined.LoadFile(path, true); err != nil {
			return err
		}
	}

	if startID == 0 && len(p.cfg.Modules) > 0 {
		id, err := p.moduleStartID()
		if err != nil {
			return err
		}
		startID = id
	}
	p.worker = ids.NewWorker(cluster, startID, defined)

	if p.cfg.Combine {
		cachePath := filepath.Join(p.cfg.Output, resource.IDDefinedFile)
		if cached := ids.LoadCache(cachePath); cached != nil {
			p.worker.SeedCache(cached)
		}
	}
	return nil
}

// moduleStartID uplifts the base by the module's position in the sorted
// module-name list, skipping the reserved system block.
func (p *Packer) moduleStartID() (uint64, error) {
	names := append([]string(nil), p.cfg.Modules...)
	sort.Strings(names)
	pos := -1
	for i, name := range names {
		if name == p.moduleName {
			pos = i
			break
		}
	}
	if pos < 0 {
		return 0, diag.New(diag.CodeModuleNameNotFound, p.moduleName, strings.Join(names, " "))
	}
	startID := uint64(pos+1) * 0x01000000
	if startID >= 0x07000000 {
		startID += 0x01000000
	}
	return startID, nil
}

// overlayIndexPath returns the prebuilt index path of an overlay build, or
// "".
func (p *Packer) overlayIndexPath() string {
	if len(p.cfg.Inputs) == 0 {
		return ""
	}
	path := filepath.Join(filepath.Dir(p.cfg.Inputs[0]), resource.ResourceIndexFile)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (p *Packer) packNormal() error {
	copier := NewBinaryCopier(p.cfg.Output, p.moduleName, p.manifest.IsHar(), p.paths, p.scanner.Ignorer(),
		p.transcoder, p.cfg.Compression, p.workers)
	inputs := append(append([]string(nil), p.cfg.Inputs...), p.cfg.Append...)
	copyFuture := copier.CopyAsync(inputs)

	err := p.packQualified(inputs, false)
	if err != nil {
		copier.Stop()
	}
	copyErr := copyFuture.Wait()
	if err != nil {
		return err
	}
	return copyErr
}

func (p *Packer) packOverlay() error {
	copier := NewBinaryCopier(p.cfg.Output, p.moduleName, p.manifest.IsHar(), p.paths, p.scanner.Ignorer(),
		p.transcoder, p.cfg.Compression, p.workers)
	copier.SetHapMode(true)
	hapFuture := copier.CopyAsync(p.cfg.Inputs[:1])

	if err := p.loadHapResources(); err != nil {
		copier.Stop()
		_ = hapFuture.Wait()
		return err
	}
	if err := hapFuture.Wait(); err != nil {
		return err
	}
	copier.SetHapMode(false)
	restFuture := copier.CopyAsync(p.cfg.Inputs[1:])

	// The HAP's own qualified resources are rescanned as coverable items,
	// then the module inputs replace what they shadow.
	err := p.scanModule(p.cfg.Inputs[0], true)
	if err == nil {
		err = p.packQualified(p.cfg.Inputs[1:], false)
	}
	if err != nil {
		copier.Stop()
		_ = restFuture.Wait()
		return err
	}
	return restFuture.Wait()
}

// loadHapResources ingests the prebuilt index: items arrive coverable, IDs
// seed the worker.
func (p *Packer) loadHapResources() error {
	items, err := index.Load(p.overlayIndexPath())
	if err != nil {
		return err
	}
	p.worker.LoadFromHap(items)
	return mergeItems(p.items, items, false)
}

// packQualified runs the qualified-resource half of the pipeline over the
// given inputs and finishes the build artifacts.
func (p *Packer) packQualified(inputs []string, overlayScan bool) error {
	for _, input := range inputs {
		if err := p.scanModule(input, overlayScan); err != nil {
			return err
		}
	}
	checkBaseCoverage(p.items)

	res := resolver.New(p.worker, p.cfg.Output)
	if err := res.ResolveItems(p.items); err != nil {
		return err
	}
	if err := p.manifest.Resolve(res); err != nil {
		return err
	}
	if err := p.manifest.Save(p.cfg.Output); err != nil {
		return err
	}

	if p.cfg.IconCheck {
		check.New().Check(p.manifest.CheckIDs(), p.items)
	}

	assigned := p.worker.All()
	if err := writeHeaders(p.cfg.Output, p.cfg.ResourceHeaders, assigned); err != nil {
		return err
	}

	indexPath := filepath.Join(p.cfg.Output, resource.ResourceIndexFile)
	if p.manifest.NewIndex {
		if err := index.WriteV2(indexPath, p.items); err != nil {
			return err
		}
	} else {
		if err := index.WriteV1(indexPath, p.items); err != nil {
			return err
		}
	}

	if p.cfg.IDsOutput != "" {
		if err := ids.Emit(p.cfg.IDsOutput, assigned); err != nil {
			return err
		}
	}
	return nil
}

// scanModule compiles one input's cluster directories and merges the
// result.
func (p *Packer) scanModule(input string, overlayScan bool) error {
	if _, err := os.Stat(input); err != nil {
		return nil
	}
	dirs, err := p.scanner.ScanResources(input)
	if err != nil {
		return err
	}
	for _, t := range compileOrder {
		infos := dirs[t]
		if len(infos) == 0 {
			continue
		}
		var c compiler.Compiler
		switch t {
		case resource.Element:
			c = &compiler.ElementCompiler{Overlay: overlayScan}
		default:
			c = &compiler.GenericCompiler{
				ModuleName: p.moduleName,
				Har:        p.manifest.IsHar(),
				Output:     p.cfg.Output,
				Overlay:    overlayScan,
				Paths:      p.paths,
				Transcoder: p.transcoder,
				Options:    p.cfg.Compression,
			}
		}
		result, err := compiler.Run(c, p.scanner, infos, p.workers, p.worker)
		if err != nil {
			return err
		}
		if err := mergeItems(p.items, result, false); err != nil {
			return err
		}
	}
	return nil
}
