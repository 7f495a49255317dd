package transcode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/respack/respack/internal/diag"
)

// Filter is one compression rule set from opt-compression.json: the path
// globs it applies to, the globs it excludes, and the opaque rule payloads
// forwarded to the codec.
type Filter struct {
	Path         []string `json:"path"`
	ExcludePath  []string `json:"excludePath"`
	Rules        string   `json:"rules"`
	ExcludeRules string   `json:"excludeRules"`
	Method       string   `json:"method"`
}

// Options is the parsed opt-compression.json.
type Options struct {
	// Compression enables transcoding at all.
	Compression bool `json:"compression"`
	// DefaultCompress downgrades codec failures to plain copies.
	DefaultCompress bool     `json:"defaultCompress"`
	Filters         []Filter `json:"filters"`
}

// LoadOptions reads an opt-compression.json file.
func LoadOptions(path string) (*Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.CodeOpenJSONFail, path, err.Error())
	}
	var wrapper struct {
		Context Options `json:"context"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, diag.New(diag.CodeJSONFormat).At(path).Wrap(err)
	}
	return &wrapper.Context, nil
}

// Applies reports whether any filter selects the given source path: at
// least one path glob matches and no exclude glob does. With no filters
// configured every path applies.
func (o *Options) Applies(src string) bool {
	if o == nil || !o.Compression {
		return false
	}
	if len(o.Filters) == 0 {
		return true
	}
	probe := filepath.ToSlash(src)
	for _, f := range o.Filters {
		if matchAny(f.ExcludePath, probe) {
			continue
		}
		if len(f.Path) == 0 || matchAny(f.Path, probe) {
			return true
		}
	}
	return false
}

func matchAny(globs []string, probe string) bool {
	for _, g := range globs {
		ok, err := doublestar.Match(g, probe)
		if err == nil && ok {
			return true
		}
		// A bare directory prefix is accepted the way build tools usually
		// write it.
		if strings.HasPrefix(probe, strings.TrimSuffix(g, "/")+"/") {
			return true
		}
	}
	return false
}
