package compiler

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/respack/respack/internal/dedup"
	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/resource"
	"github.com/respack/respack/internal/transcode"
)

// GenericCompiler copies or transcodes media, profile and asset files into
// the output tree and emits items whose payload is the relative output
// path.
type GenericCompiler struct {
	// ModuleName prefixes the payload path ("<module>/resources/...").
	ModuleName string
	// Har forces plain copies; har library modules never transcode.
	Har bool
	// Output is the build output root.
	Output string
	// Overlay marks produced items coverable.
	Overlay bool
	// Paths is the process-wide dedup bookkeeping.
	Paths *dedup.PathSet
	// Transcoder converts media files; har modules always plain-copy.
	Transcoder transcode.Transcoder
	// Options gate which sources the transcoder applies to.
	Options *transcode.Options

	logger *slog.Logger
}

func (g *GenericCompiler) log() *slog.Logger {
	if g.logger == nil {
		g.logger = slog.Default().With("component", "generic-compiler")
	}
	return g.logger
}

// CompileFile copies one asset into
// output/resources/<limit-key>/<cluster>/<filename> and returns its item.
// A path already claimed by an earlier file warns and produces nothing.
func (g *GenericCompiler) CompileFile(info resource.FileInfo) ([]resource.Item, error) {
	dst := filepath.Join(g.Output, resource.ResourcesDir, info.LimitKey, info.Cluster, info.Filename)
	if !g.Paths.Claim(dst) {
		g.log().Warn("resource defined repeatedly", "path", info.FilePath)
		return nil, nil
	}

	if err := g.copyOrTranscode(info, dst); err != nil {
		return nil, err
	}

	data := path.Join(g.ModuleName, resource.ResourcesDir, info.LimitKey, info.Cluster, info.Filename)
	item := resource.Item{
		Name:      info.Filename,
		Type:      info.Type,
		KeyParams: info.KeyParams,
		LimitKey:  info.LimitKey,
		FilePath:  info.FilePath,
		Data:      []byte(data),
		Coverable: g.Overlay,
	}
	return []resource.Item{item}, nil
}

func (g *GenericCompiler) copyOrTranscode(info resource.FileInfo, dst string) error {
	if g.Har || info.Type != resource.Media || !g.Options.Applies(info.FilePath) {
		_, err := transcode.CopyFile(info.FilePath, dst)
		return err
	}
	_, code := g.Transcoder.Transcode(info.FilePath, false, dst)
	if code == transcode.Success {
		return nil
	}
	if code.Fallback() || (g.Options != nil && g.Options.DefaultCompress) {
		g.log().Debug("transcode not applicable, copying", "src", info.FilePath, "code", int(code))
		_, err := transcode.CopyFile(info.FilePath, dst)
		return err
	}
	return diag.New(diag.CodeCopyFile, info.FilePath, dst,
		fmt.Sprintf("transcode failed with code %d", int(code)))
}
