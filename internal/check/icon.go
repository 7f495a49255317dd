// Package check validates icon resources referenced from the manifest:
// icons must be square PNGs no wider than the per-device, per-density
// targets. Violations are warnings, never errors.
package check

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/respack/respack/internal/qualifier"
	"github.com/respack/respack/internal/resource"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// pngSize reads the IHDR dimensions of a PNG file. Non-PNG files report
// ok=false.
func pngSize(path string) (width, height uint32, ok bool) {
	raw, err := os.ReadFile(path)
	if err != nil || len(raw) < 24 || !bytes.HasPrefix(raw, pngSignature) {
		return 0, 0, false
	}
	// Signature, IHDR chunk length and type, then width and height.
	if string(raw[12:16]) != "IHDR" {
		return 0, 0, false
	}
	return binary.BigEndian.Uint32(raw[16:20]), binary.BigEndian.Uint32(raw[20:24]), true
}

// normalSize resolves the maximum width target for a qualifier set and key
// index. Devices other than phone and tablet have no limit.
func normalSize(params []resource.KeyParam, index uint32) uint32 {
	device := ""
	dpi := ""
	for _, p := range params {
		switch p.Type {
		case resource.KeyDeviceType:
			device = qualifier.Value(p)
		case resource.KeyResolution:
			dpi = qualifier.Value(p)
		}
	}
	if device == "" {
		device = "phone"
	}
	if dpi == "" {
		dpi = "sdpi"
	}
	if device != "phone" && device != "tablet" {
		return 0
	}
	sizes, ok := resource.NormalIconSizes[dpi+"-"+device]
	if !ok {
		return 0
	}
	return sizes[index]
}

// Checker validates icon candidates collected from the manifest resolver.
type Checker struct {
	logger *slog.Logger
}

// New creates a Checker.
func New() *Checker {
	return &Checker{logger: slog.Default().With("component", "icon-check")}
}

// Warning describes one icon violation.
type Warning struct {
	Path    string
	Message string
}

// Check validates every item reachable from the manifest's icon keys.
// Items are checked concurrently; warnings come back in one slice and are
// also logged.
func (c *Checker) Check(checkIDs map[string]map[uint32]struct{},
	items map[uint32][]resource.Item) []Warning {
	var (
		mu       sync.Mutex
		warnings []Warning
	)
	var g errgroup.Group
	g.SetLimit(4)
	for key, idSet := range checkIDs {
		index, ok := resource.IconKeyIndexes[key]
		if !ok {
			continue
		}
		for id := range idSet {
			list, ok := items[id]
			if !ok {
				continue
			}
			for _, it := range list {
				key, it := key, it
				g.Go(func() error {
					if w := c.checkItem(key, index, it); w != nil {
						mu.Lock()
						warnings = append(warnings, *w)
						mu.Unlock()
					}
					return nil
				})
			}
		}
	}
	_ = g.Wait()
	return warnings
}

func (c *Checker) checkItem(key string, index uint32, it resource.Item) *Warning {
	width, height, ok := pngSize(it.FilePath)
	if !ok {
		return nil
	}
	if width != height {
		w := &Warning{Path: it.FilePath, Message: "the png width and height are not equal"}
		c.logger.Warn(w.Message, "path", it.FilePath, "width", width, "height", height)
		return w
	}
	limit := normalSize(it.KeyParams, index)
	if limit != 0 && width > limit {
		w := &Warning{
			Path: it.FilePath,
			Message: "the width or height of the png file referenced by the " + key +
				" exceeds the limit",
		}
		c.logger.Warn(w.Message, "path", it.FilePath, "width", width, "limit", limit)
		return w
	}
	return nil
}
