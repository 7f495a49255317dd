package pack

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/respack/respack/internal/dedup"
	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/pool"
	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/scanner"
	"github.com/respack/respack/internal/transcode"
)

// BinaryCopier copies the rawfile/ and resfile/ trees of every input into
// the output, in parallel on the worker pool. A sibling pipeline stage that
// fails flips the stop flag; every task polls it at entry and directory
// boundaries and returns immediately without touching the filesystem.
type BinaryCopier struct {
	output     string
	moduleName string
	har        bool
	paths      *dedup.PathSet
	ignorer    *scanner.Ignorer
	transcoder transcode.Transcoder
	options    *transcode.Options
	workers    *pool.Pool

	stopCopy atomic.Bool
	hapMode  bool

	mu      sync.Mutex
	futures []*pool.Future
	logger  *slog.Logger
}

// NewBinaryCopier builds a copier sharing the pipeline's dedup sets and
// worker pool.
func NewBinaryCopier(output, moduleName string, har bool, paths *dedup.PathSet, ig *scanner.Ignorer,
	tr transcode.Transcoder, opts *transcode.Options, workers *pool.Pool) *BinaryCopier {
	return &BinaryCopier{
		output:     output,
		moduleName: moduleName,
		har:        har,
		paths:      paths,
		ignorer:    ig,
		transcoder: tr,
		options:    opts,
		workers:    workers,
		logger:     slog.Default().With("component", "binary-copier"),
	}
}

// Stop signals every outstanding and future copy task to abort.
func (c *BinaryCopier) Stop() {
	c.stopCopy.Store(true)
}

// SetHapMode switches dedup accounting for the HAP copy pass of an overlay
// build.
func (c *BinaryCopier) SetHapMode(on bool) {
	c.hapMode = on
	c.paths.SetHapMode(on)
}

// CopyAsync walks the inputs' binary trees, scheduling one task per file,
// and returns a future completing when every file is handled. In overlay
// mode callers copy the HAP input first with hap mode enabled, then the
// rest.
func (c *BinaryCopier) CopyAsync(inputs []string) *pool.Future {
	return pool.Go(func() error {
		return c.copyInputs(inputs)
	})
}

func (c *BinaryCopier) copyInputs(inputs []string) error {
	for _, input := range inputs {
		entries, err := os.ReadDir(input)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			name := entry.Name()
			if !entry.IsDir() {
				continue
			}
			// rawfile, resfile, and suffixed variants (rawfile1) all copy
			// under their own name.
			for dir := range resource.CopyClusters {
				if strings.HasPrefix(name, dir) {
					src := filepath.Join(input, name)
					dst := filepath.Join(c.output, resource.ResourcesDir, name)
					if err := c.copyTree(src, dst); err != nil {
						return err
					}
					break
				}
			}
		}
	}
	c.mu.Lock()
	futures := c.futures
	c.futures = nil
	c.mu.Unlock()
	for _, f := range futures {
		if c.stopCopy.Load() {
			c.logger.Info("binary copy stopped")
			return diag.New(diag.CodeCopyFile, "", "", "copy cancelled")
		}
		if err := f.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (c *BinaryCopier) copyTree(src, dst string) error {
	if c.stopCopy.Load() {
		c.logger.Info("binary copy stopped")
		return diag.New(diag.CodeCopyFile, src, dst, "copy cancelled")
	}
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return diag.New(diag.CodeOpenFile, src, err.Error())
	}
	if !info.IsDir() {
		return diag.New(diag.CodeInvalidResourcePath, src, "not a directory")
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return diag.New(diag.CodeCreateFile, dst, err.Error())
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return diag.New(diag.CodeOpenFile, src, err.Error())
	}
	for _, entry := range entries {
		if c.stopCopy.Load() {
			c.logger.Info("binary copy stopped")
			return diag.New(diag.CodeCopyFile, "", "", "copy cancelled")
		}
		name := entry.Name()
		srcPath := filepath.Join(src, name)
		dstPath := filepath.Join(dst, name)
		if c.ignorer.IsIgnored(name, srcPath, !entry.IsDir()) {
			continue
		}
		if entry.IsDir() {
			if err := c.copyTree(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if !c.paths.Claim(dstPath) {
			c.logger.Warn("file defined repeatedly", "path", srcPath)
			continue
		}
		f := c.workers.Submit(func() error {
			return c.copyFile(srcPath, dstPath)
		})
		c.mu.Lock()
		c.futures = append(c.futures, f)
		c.mu.Unlock()
	}
	return nil
}

func (c *BinaryCopier) copyFile(src, dst string) error {
	if c.stopCopy.Load() {
		return diag.New(diag.CodeCopyFile, src, dst, "copy cancelled")
	}
	if c.har || c.options == nil || !c.options.Applies(src) {
		_, err := transcode.CopyFile(src, dst)
		return err
	}
	if _, code := c.transcoder.Transcode(src, true, dst); code != transcode.Success {
		if code.Fallback() || c.options.DefaultCompress {
			_, err := transcode.CopyFile(src, dst)
			return err
		}
		return diag.New(diag.CodeCopyFile, src, dst, "transcode failed")
	}
	return nil
}
