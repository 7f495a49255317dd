// Package transcode defines the boundary to the external image transcoder
// and the opt-compression.json option set that drives it. The real codec is
// a dynamically loaded library; this package ships the interface and a copy
// implementation used when no library is configured, so every consumer is
// written against the same three entry points.
package transcode

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/respack/respack/internal/diag"
)

// Code is a transcoder result code.
type Code int

const (
	Success Code = iota
	InvalidParameters
	ImageError
	AnimatedImageSkip
	MallocFailed
	EncodeASTCFailed
	SuperCompressFailed

	// notMatchBase..notMatchButt bracket the "not applicable" band: the
	// source did not match the configured rules and a plain copy is the
	// right fallback.
	notMatchBase Code = iota + 100
	ImageSizeNotMatch
	ImageResolutionNotMatch
	ExcludeMatch
	LoadCompressFailed
	notMatchButt
)

// Fallback reports whether a code means "not applicable; fall back to copy".
func (c Code) Fallback() bool {
	return c > notMatchBase && c < notMatchButt
}

// ImageSize is the target geometry for Scale.
type ImageSize struct {
	Width  uint32
	Height uint32
}

// Result carries the metrics of a successful transcode.
type Result struct {
	OutputPath string
	Bytes      int64
}

// Transcoder is the external codec seen by the generic compiler and binary
// copier.
type Transcoder interface {
	// SetOptions installs the JSON option and exclude sets.
	SetOptions(optionsJSON, excludeJSON string) bool
	// Transcode converts src into dst. extAppend controls whether the codec
	// may append a format extension to dst.
	Transcode(src string, extAppend bool, dst string) (Result, Code)
	// Scale resizes src into dst.
	Scale(src, dst string, size ImageSize) Code
}

// Copier is the default Transcoder: a byte-for-byte copy. It stands in for
// the dynamic library in tests and whenever --compressed-config is absent.
type Copier struct{}

// SetOptions accepts anything.
func (Copier) SetOptions(_, _ string) bool { return true }

// Transcode copies src to dst verbatim.
func (Copier) Transcode(src string, _ bool, dst string) (Result, Code) {
	n, err := CopyFile(src, dst)
	if err != nil {
		slog.Default().With("component", "transcode").Error("copy failed",
			"src", src, "dst", dst, "error", err)
		return Result{}, ImageError
	}
	return Result{OutputPath: dst, Bytes: n}, Success
}

// Scale copies src to dst without resizing.
func (Copier) Scale(src, dst string, _ ImageSize) Code {
	if _, err := CopyFile(src, dst); err != nil {
		return ImageError
	}
	return Success
}

// CopyFile copies one file, creating parent directories as needed.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, diag.New(diag.CodeOpenFile, src, err.Error())
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, diag.New(diag.CodeCreateFile, filepath.Dir(dst), err.Error())
	}
	out, err := os.Create(dst)
	if err != nil {
		return 0, diag.New(diag.CodeCreateFile, dst, err.Error())
	}
	defer out.Close()
	n, err := io.Copy(out, in)
	if err != nil {
		return 0, diag.New(diag.CodeCopyFile, src, dst, err.Error())
	}
	return n, nil
}
