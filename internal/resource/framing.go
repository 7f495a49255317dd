package resource

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ComposeStrings packs a string sequence into the length-prefixed framing
// shared by compound item payloads and the index data pool: for every
// element a little-endian uint16 length, the bytes, and one NUL terminator.
//
// When addNul is true the recorded length covers an extra terminator byte;
// the v1 record writer uses this so readers recover NUL-terminated strings.
func ComposeStrings(contents []string, addNul bool) ([]byte, error) {
	var out []byte
	for _, s := range contents {
		if len(s) > math.MaxUint16 {
			return nil, fmt.Errorf("element of %d bytes exceeds frame limit", len(s))
		}
		size := uint16(len(s))
		if addNul {
			size++
		}
		out = binary.LittleEndian.AppendUint16(out, size)
		out = append(out, s...)
		out = append(out, 0)
		if len(out) > math.MaxUint16 {
			return nil, fmt.Errorf("composed payload of %d bytes exceeds frame limit", len(out))
		}
	}
	return out, nil
}

// DecomposeStrings unpacks a payload produced by ComposeStrings (without the
// addNul variant). A malformed payload yields an error rather than a partial
// result.
func DecomposeStrings(content []byte) ([]string, error) {
	var result []string
	pos := 0
	for pos < len(content) {
		if pos+2 > len(content) {
			return nil, fmt.Errorf("truncated frame header at offset %d", pos)
		}
		size := int(binary.LittleEndian.Uint16(content[pos:]))
		pos += 2
		if pos+size+1 > len(content) {
			return nil, fmt.Errorf("truncated frame body at offset %d", pos)
		}
		result = append(result, string(content[pos:pos+size]))
		pos += size + 1
	}
	return result, nil
}
