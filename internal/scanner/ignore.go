// Package scanner walks resource input roots, mapping first-level directory
// names to qualifier sets and second-level cluster names to compilers, and
// applies the file ignore protocol shared with the binary copier.
package scanner

import (
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/respack/respack/internal/diag"
)

// IgnoreScope limits a pattern to files, directories, or both.
type IgnoreScope int

const (
	IgnoreAll IgnoreScope = iota
	IgnoreFile
	IgnoreDir
)

// ignoreRule is one compiled ignore pattern.
type ignoreRule struct {
	re    *regexp.Regexp
	scope IgnoreScope
}

// Ignorer decides whether a directory entry is skipped during scans and
// binary copies. The default rule set matches the conventional junk-file
// names; a user-supplied config replaces it wholesale.
type Ignorer struct {
	rules      []ignoreRule
	custom     bool
	matchPaths bool
	logger     *slog.Logger
}

// Default ignore patterns, matched case-insensitively against the bare
// filename.
var defaultPatterns = []string{
	`\.git`,
	`\.svn`,
	`.+\.scc`,
	`\.ds_store`,
	`desktop\.ini`,
	`picasa\.ini`,
	`\..+`,
	`cvs`,
	`thumbs\.db`,
	`.+~`,
}

// NewIgnorer returns the default ignorer.
func NewIgnorer() *Ignorer {
	ig := &Ignorer{logger: slog.Default().With("component", "scanner")}
	for _, p := range defaultPatterns {
		ig.rules = append(ig.rules, ignoreRule{re: regexp.MustCompile("^" + p + "$"), scope: IgnoreAll})
	}
	return ig
}

// ignoreConfig is the on-disk shape of the --ignore-config file.
type ignoreConfig struct {
	MatchPaths bool `toml:"match_paths"`
	Patterns   []struct {
		Pattern string `toml:"pattern"`
		Scope   string `toml:"scope"`
	} `toml:"patterns"`
}

// LoadIgnorer parses a user ignore-override config. The user rule set
// replaces the defaults entirely and is matched case-sensitively.
func LoadIgnorer(path string) (*Ignorer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.CodeInvalidIgnoreFile, path, err.Error())
	}
	var cfg ignoreConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return nil, diag.New(diag.CodeInvalidIgnoreFile, path, err.Error())
	}
	if len(cfg.Patterns) == 0 {
		return nil, diag.New(diag.CodeInvalidIgnoreFile, path, "no patterns defined")
	}
	ig := &Ignorer{
		custom:     true,
		matchPaths: cfg.MatchPaths,
		logger:     slog.Default().With("component", "scanner"),
	}
	for _, p := range cfg.Patterns {
		var scope IgnoreScope
		switch p.Scope {
		case "", "all":
			scope = IgnoreAll
		case "file":
			scope = IgnoreFile
		case "dir":
			scope = IgnoreDir
		default:
			return nil, diag.New(diag.CodeInvalidIgnoreFile, path, "invalid scope '"+p.Scope+"'")
		}
		re, err := regexp.Compile("^" + p.Pattern + "$")
		if err != nil {
			return nil, diag.New(diag.CodeInvalidIgnoreFile, path, err.Error())
		}
		ig.rules = append(ig.rules, ignoreRule{re: re, scope: scope})
	}
	return ig, nil
}

// IsIgnored reports whether the entry with the given name should be
// skipped. When path matching is enabled for a custom rule set, the full
// slash-separated path is also tested.
func (ig *Ignorer) IsIgnored(name, path string, isFile bool) bool {
	probe := name
	source := "user"
	if !ig.custom {
		probe = strings.ToLower(name)
		source = "default"
	}
	for _, rule := range ig.rules {
		if (rule.scope == IgnoreFile && !isFile) || (rule.scope == IgnoreDir && isFile) {
			continue
		}
		if rule.re.MatchString(probe) {
			ig.logger.Info("file ignored", "name", name, "source", source, "pattern", rule.re.String())
			return true
		}
		if ig.custom && ig.matchPaths && rule.re.MatchString(strings.ReplaceAll(path, "\\", "/")) {
			ig.logger.Info("file ignored by path", "path", path, "pattern", rule.re.String())
			return true
		}
	}
	return false
}
