package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/qualifier"
	"github.com/respack/respack/internal/resource"
)

// Scanner discovers cluster directories under one input root. First-level
// children are either limit-key directories, bare cluster names (implying
// the base limit key), or rawfile/resfile trees handled by the binary
// copier.
type Scanner struct {
	ignorer *Ignorer
	target  interface {
		Selects([]resource.KeyParam) bool
	}
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithIgnorer replaces the default ignore rules.
func WithIgnorer(ig *Ignorer) Option {
	return func(s *Scanner) { s.ignorer = ig }
}

// WithTargetConfig installs the selective-compile filter; limit keys whose
// qualifiers fall outside the filter are dropped silently.
func WithTargetConfig(tc *qualifier.TargetConfig) Option {
	return func(s *Scanner) {
		if tc != nil {
			s.target = tc
		}
	}
}

// New creates a scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{ignorer: NewIgnorer()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ignorer exposes the active ignore rules for reuse by the binary copier.
func (s *Scanner) Ignorer() *Ignorer {
	return s.ignorer
}

// ScanResources walks the resources directory of one input and returns the
// discovered cluster directories grouped by resource type. rawfile/resfile
// children are skipped here; the binary copier owns them.
func (s *Scanner) ScanResources(resourcesDir string) (map[resource.Type][]resource.DirectoryInfo, error) {
	entries, err := os.ReadDir(resourcesDir)
	if err != nil {
		return nil, diag.New(diag.CodeOpenFile, resourcesDir, err.Error())
	}
	out := make(map[resource.Type][]resource.DirectoryInfo)
	for _, entry := range entries {
		name := entry.Name()
		if s.ignorer.IsIgnored(name, filepath.Join(resourcesDir, name), !entry.IsDir()) {
			continue
		}
		if strings.HasPrefix(name, resource.RawFileDir) || strings.HasPrefix(name, resource.ResFileDir) {
			continue
		}
		if !entry.IsDir() {
			return nil, diag.New(diag.CodeInvalidResourcePath,
				filepath.Join(resourcesDir, name), "not a directory")
		}
		// A bare cluster directory at the first level belongs to the base
		// limit key.
		if t, ok := resource.FileClusters[name]; ok {
			out[t] = append(out[t], resource.DirectoryInfo{
				LimitKey: resource.BaseLimitKey,
				Cluster:  name,
				DirPath:  filepath.Join(resourcesDir, name),
				Type:     t,
			})
			continue
		}
		params, err := qualifier.Parse(name)
		if err != nil {
			return nil, diag.New(diag.CodeInvalidLimitKey, name).At(resourcesDir).Wrap(err)
		}
		if s.target != nil && !s.target.Selects(params) {
			continue
		}
		if err := s.scanLimitKeyDir(filepath.Join(resourcesDir, name), name, params, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Scanner) scanLimitKeyDir(dir, limitKey string, params []resource.KeyParam,
	out map[resource.Type][]resource.DirectoryInfo) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return diag.New(diag.CodeOpenFile, dir, err.Error())
	}
	for _, entry := range entries {
		cluster := entry.Name()
		path := filepath.Join(dir, cluster)
		if s.ignorer.IsIgnored(cluster, path, !entry.IsDir()) {
			continue
		}
		if !entry.IsDir() {
			return diag.New(diag.CodeInvalidResourcePath, path, "not a directory")
		}
		t, ok := resource.FileClusters[cluster]
		if !ok {
			return diag.New(diag.CodeInvalidResourceDir, cluster, ClusterNames()).At(path)
		}
		out[t] = append(out[t], resource.DirectoryInfo{
			LimitKey:  limitKey,
			Cluster:   cluster,
			DirPath:   path,
			KeyParams: params,
			Type:      t,
		})
	}
	return nil
}

// ListFiles expands a cluster directory into its file records, skipping
// ignored names and rejecting nested directories. Results are sorted by
// path so downstream merge order is deterministic.
func (s *Scanner) ListFiles(info resource.DirectoryInfo) ([]resource.FileInfo, error) {
	entries, err := os.ReadDir(info.DirPath)
	if err != nil {
		return nil, diag.New(diag.CodeOpenFile, info.DirPath, err.Error())
	}
	var files []resource.FileInfo
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(info.DirPath, name)
		if s.ignorer.IsIgnored(name, path, !entry.IsDir()) {
			continue
		}
		if entry.IsDir() {
			return nil, diag.New(diag.CodeInvalidResourcePath, path, "not a file")
		}
		files = append(files, resource.FileInfo{
			DirectoryInfo: info,
			FilePath:      path,
			Filename:      name,
			FileType:      info.Type,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].FilePath < files[j].FilePath })
	return files, nil
}

// ClusterNames returns the legal cluster directory names for diagnostics.
func ClusterNames() string {
	names := make([]string, 0, len(resource.FileClusters))
	for name := range resource.FileClusters {
		names = append(names, fmt.Sprintf("%q", name))
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ",") + "]"
}
