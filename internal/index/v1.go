package index

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/qualifier"
	"github.com/respack/respack/internal/resource"
)

// v1 section sizes.
const (
	v1HeaderLen    = versionMaxLen + 8
	v1RecordFixed  = 12 // size + resType + id
	keyParamLen    = 8
	limitKeyFixed  = tagLen + 8 // tag + offset + keyCount
	idSetFixed     = tagLen + 4 // tag + idCount
	idDataLen      = 8          // id + offset
)

// WriteV1 serializes items in the legacy layout. Records carry the payload
// and resource name as NUL-terminated framed strings; each limit-key config
// points at the IdSet listing its IDs and record offsets.
func WriteV1(path string, items map[uint32][]resource.Item) error {
	keys, groups := groupByLimitKey(items)

	// First pass sizes the header region so record offsets are known.
	pos := uint32(v1HeaderLen)
	for _, k := range keys {
		pos += limitKeyFixed + uint32(len(groups[k][0].item.KeyParams))*keyParamLen
	}
	idSetOffsets := make(map[string]uint32, len(keys))
	for _, k := range keys {
		idSetOffsets[k] = pos
		pos += idSetFixed + uint32(len(groups[k]))*idDataLen
	}

	// Second pass lays out records and backfills the IdSet offsets.
	var records bytes.Buffer
	recordOffsets := make(map[string][]uint32, len(keys))
	for _, k := range keys {
		for _, row := range groups[k] {
			data, err := resource.ComposeStrings([]string{
				string(row.item.Data),
				resource.IDName(row.item.Name, row.item.Type),
			}, true)
			if err != nil {
				return diag.New(diag.CodeArrayTooLarge, row.item.Name).At(row.item.FilePath)
			}
			recordOffsets[k] = append(recordOffsets[k], pos)
			size := uint32(v1RecordFixed + len(data) - 4)
			writeU32(&records, size)
			writeU32(&records, uint32(row.item.Type))
			writeU32(&records, row.id)
			records.Write(data)
			pos += size + 4
		}
	}

	var out bytes.Buffer
	out.Write(paddedVersion(toolVersion))
	writeU32(&out, pos)
	writeU32(&out, uint32(len(keys)))
	for _, k := range keys {
		params := groups[k][0].item.KeyParams
		out.WriteString(tagKeys)
		writeU32(&out, idSetOffsets[k])
		writeU32(&out, uint32(len(params)))
		for _, p := range params {
			writeU32(&out, uint32(p.Type))
			writeU32(&out, p.Value)
		}
	}
	for _, k := range keys {
		out.WriteString(tagIDSS)
		writeU32(&out, uint32(len(groups[k])))
		for i, row := range groups[k] {
			writeU32(&out, row.id)
			writeU32(&out, recordOffsets[k][i])
		}
	}
	out.Write(records.Bytes())

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return diag.New(diag.CodeCreateFile, path, err.Error())
	}
	return nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// readV1 loads the legacy layout from raw. Every loaded item is marked
// coverable per the overlay contract.
func readV1(raw []byte) (map[uint32][]resource.Item, error) {
	r := &reader{buf: raw}
	r.skip(versionMaxLen)
	_ = r.u32() // file size
	keyCount := r.u32()
	if r.err != nil {
		return nil, invalidIndex("header length error")
	}

	// limit keys keyed by their IdSet offset
	limitKeys := make(map[uint32][]resource.KeyParam)
	for i := uint32(0); i < keyCount; i++ {
		if !r.tag(tagKeys) {
			return nil, invalidIndex("invalid key tag")
		}
		offset := r.u32()
		n := r.u32()
		if r.err != nil {
			return nil, invalidIndex("KEYS length error")
		}
		params := make([]resource.KeyParam, 0, n)
		for j := uint32(0); j < n; j++ {
			kt := r.u32()
			v := r.u32()
			if r.err != nil {
				return nil, invalidIndex("keyParams length error")
			}
			params = append(params, resource.KeyParam{Type: resource.KeyType(kt), Value: v})
		}
		limitKeys[offset] = params
	}

	// record offset -> (id, owning IdSet offset)
	type recordRef struct {
		id        uint32
		setOffset uint32
	}
	records := make(map[uint32]recordRef)
	for i := uint32(0); i < keyCount; i++ {
		setOffset := uint32(r.pos)
		if !r.tag(tagIDSS) {
			return nil, invalidIndex("invalid id tag")
		}
		n := r.u32()
		if r.err != nil {
			return nil, invalidIndex("IDSS length error")
		}
		for j := uint32(0); j < n; j++ {
			id := r.u32()
			offset := r.u32()
			if r.err != nil {
				return nil, invalidIndex("id data length error")
			}
			records[offset] = recordRef{id: id, setOffset: setOffset}
		}
	}

	out := make(map[uint32][]resource.Item)
	for r.pos < len(r.buf) {
		recordOffset := uint32(r.pos)
		size := r.u32()
		resType := r.u32()
		id := r.u32()
		if r.err != nil {
			return nil, invalidIndex("data record length error")
		}
		body := r.bytes(int(size) - 8)
		if r.err != nil {
			return nil, invalidIndex("record size length error")
		}
		value, name, ok := splitRecord(body)
		if !ok {
			return nil, invalidIndex("value size error")
		}

		ref, ok := records[recordOffset]
		if !ok {
			return nil, invalidIndex("invalid id offset")
		}
		if ref.id != id {
			return nil, invalidIndex("invalid id")
		}
		params, ok := limitKeys[ref.setOffset]
		if !ok {
			return nil, invalidIndex("invalid limit key offset")
		}
		t := resource.TypeFromValue(int32(resType))
		if t == resource.Invalid {
			return nil, invalidIndex("invalid resource type")
		}
		item := resource.Item{
			Name:      name,
			Type:      t,
			KeyParams: params,
			LimitKey:  qualifier.Format(params),
			Data:      value,
			Coverable: true,
		}
		out[id] = append(out[id], item)
	}
	return out, nil
}

// splitRecord unpacks the framed (value, name) payload of a v1 record. The
// recorded lengths include the NUL terminator, which is stripped here.
func splitRecord(body []byte) (value []byte, name string, ok bool) {
	if len(body) < 2 {
		return nil, "", false
	}
	valueLen := int(binary.LittleEndian.Uint16(body))
	if 2+valueLen > len(body) || valueLen < 1 {
		return nil, "", false
	}
	value = append([]byte(nil), body[2:2+valueLen-1]...)
	rest := body[2+valueLen:]
	if len(rest) < 2 {
		return nil, "", false
	}
	nameLen := int(binary.LittleEndian.Uint16(rest))
	if 2+nameLen > len(rest) || nameLen < 1 {
		return nil, "", false
	}
	name = string(rest[2 : 2+nameLen-1])
	return value, name, true
}

func invalidIndex(cause string) error {
	return diag.New(diag.CodeInvalidResourceIndex, cause)
}
