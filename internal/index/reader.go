package index

import (
	"bytes"
	"encoding/binary"
	"os"
	"strings"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/resource"
)

// reader is a bounds-checked cursor over the index bytes. The first failed
// access poisons it; callers test err after each logical section.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) fail() {
	if r.err == nil {
		r.err = diag.New(diag.CodeInvalidResourceIndex, "unexpected end of file")
	}
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	if r.pos+n > len(r.buf) {
		r.fail()
		return
	}
	r.pos += n
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.pos+4 > len(r.buf) {
		r.fail()
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) u16at(offset int) (uint16, bool) {
	if offset < 0 || offset+2 > len(r.buf) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(r.buf[offset:]), true
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.fail()
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// tag consumes a 4-byte section tag and verifies it literally.
func (r *reader) tag(want string) bool {
	b := r.bytes(tagLen)
	if r.err != nil {
		return false
	}
	return string(b) == want
}

// Load reads a resources.index file, discriminating the layout by the
// version tag: a first whitespace-delimited token equal to "Restool"
// selects v1; a token beginning "Restool" followed by "V2" selects v2.
func Load(path string) (map[uint32][]resource.Item, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.CodeOpenFile, path, err.Error())
	}
	if len(raw) < versionMaxLen {
		return nil, invalidIndex("header length error")
	}
	version := string(bytes.TrimRight(raw[:versionMaxLen], "\x00"))
	token, _, _ := strings.Cut(version, " ")
	switch {
	case token == "Restool":
		return readV1(raw)
	case strings.HasPrefix(token, "RestoolV2"):
		return readV2(raw)
	}
	return nil, invalidIndex("unknown version tag '" + version + "'")
}
