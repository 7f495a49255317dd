package index

import (
	"bytes"
	"os"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/qualifier"
	"github.com/respack/respack/internal/resource"
)

// v2 section sizes.
const (
	v2HeaderLen      = versionMaxLen + 12
	keyConfigFixed   = tagLen + 8  // tag + configId + keyCount
	idSetHeaderLen   = tagLen + 12 // tag + length + typeCount + idCount
	resTypeHeaderLen = 12          // resType + length + count
	resIndexFixed    = 12          // resId + offset + nameLength
	dataHeaderLen    = tagLen + 8  // tag + length + idCount
	resInfoFixed     = 12          // resId + length + valueCount
	dataOffsetLen    = 8           // configId + offset
)

// WriteV2 serializes items in the newer layout: resource metadata hoisted
// into one search structure, payloads referenced by offset into a shared
// data pool. Identical payloads are stored once and shared across qualifier
// sets.
func WriteV2(path string, items map[uint32][]resource.Item) error {
	keys, groups := groupByLimitKey(items)

	// configId is the dense index of the limit key in sorted order.
	configIDs := make(map[string]uint32, len(keys))
	for i, k := range keys {
		configIDs[k] = uint32(i)
	}

	// Pool layout with payload dedup keyed by content hash.
	var pool bytes.Buffer
	poolOffsets := make(map[uint64]uint32)
	offsetOf := func(data []byte) (uint32, error) {
		h := xxh3.Hash(data)
		if off, ok := poolOffsets[h]; ok {
			return off, nil
		}
		off := uint32(pool.Len())
		if len(data) > 0xFFFF {
			return 0, diag.New(diag.CodeArrayTooLarge, "data pool entry")
		}
		pool.WriteByte(byte(len(data)))
		pool.WriteByte(byte(len(data) >> 8))
		pool.Write(data)
		poolOffsets[h] = off
		return off, nil
	}

	// Collect per-resource metadata: name, type, and (configId, poolOffset)
	// values ordered by configId.
	type resInfo struct {
		id      uint32
		name    string
		typ     resource.Type
		configs []uint32
		offsets []uint32
	}
	infos := make(map[uint32]*resInfo)
	var idOrder []uint32
	for _, k := range keys {
		for _, row := range groups[k] {
			info, ok := infos[row.id]
			if !ok {
				info = &resInfo{
					id:   row.id,
					name: resource.IDName(row.item.Name, row.item.Type),
					typ:  row.item.Type,
				}
				infos[row.id] = info
				idOrder = append(idOrder, row.id)
			}
			off, err := offsetOf(row.item.Data)
			if err != nil {
				return err
			}
			info.configs = append(info.configs, configIDs[k])
			info.offsets = append(info.offsets, off)
		}
	}
	sort.Slice(idOrder, func(i, j int) bool { return idOrder[i] < idOrder[j] })

	// Section lengths.
	headerLen := uint32(v2HeaderLen)
	for _, k := range keys {
		headerLen += keyConfigFixed + uint32(len(groups[k][0].item.KeyParams))*keyParamLen
	}

	typeSet := make(map[resource.Type][]*resInfo)
	var typeOrder []resource.Type
	for _, id := range idOrder {
		info := infos[id]
		if _, ok := typeSet[info.typ]; !ok {
			typeOrder = append(typeOrder, info.typ)
		}
		typeSet[info.typ] = append(typeSet[info.typ], info)
	}
	sort.Slice(typeOrder, func(i, j int) bool { return typeOrder[i] < typeOrder[j] })

	idSetLen := uint32(idSetHeaderLen)
	for _, t := range typeOrder {
		idSetLen += resTypeHeaderLen
		for _, info := range typeSet[t] {
			idSetLen += resIndexFixed + uint32(len(info.name))
		}
	}

	dataLen := uint32(dataHeaderLen)
	resInfoOffsets := make(map[uint32]uint32, len(idOrder))
	{
		cursor := headerLen + idSetLen + dataHeaderLen
		for _, id := range idOrder {
			resInfoOffsets[id] = cursor
			n := uint32(resInfoFixed + len(infos[id].configs)*dataOffsetLen)
			dataLen += n
			cursor += n
		}
	}
	dataBlockOffset := headerLen + idSetLen
	poolBase := dataBlockOffset + dataLen
	total := poolBase + uint32(pool.Len())

	var out bytes.Buffer
	out.Write(paddedVersion(v2Version()))
	writeU32(&out, total)
	writeU32(&out, uint32(len(keys)))
	writeU32(&out, dataBlockOffset)
	for i, k := range keys {
		params := groups[k][0].item.KeyParams
		out.WriteString(tagKeys)
		writeU32(&out, uint32(i))
		writeU32(&out, uint32(len(params)))
		for _, p := range params {
			writeU32(&out, uint32(p.Type))
			writeU32(&out, p.Value)
		}
	}

	out.WriteString(tagIDSS)
	writeU32(&out, idSetLen)
	writeU32(&out, uint32(len(typeOrder)))
	writeU32(&out, uint32(len(idOrder)))
	for _, t := range typeOrder {
		list := typeSet[t]
		typeLen := uint32(resTypeHeaderLen)
		for _, info := range list {
			typeLen += resIndexFixed + uint32(len(info.name))
		}
		writeU32(&out, uint32(t))
		writeU32(&out, typeLen)
		writeU32(&out, uint32(len(list)))
		for _, info := range list {
			writeU32(&out, info.id)
			writeU32(&out, resInfoOffsets[info.id])
			writeU32(&out, uint32(len(info.name)))
			out.WriteString(info.name)
		}
	}

	out.WriteString(tagData)
	writeU32(&out, dataLen)
	writeU32(&out, uint32(len(idOrder)))
	for _, id := range idOrder {
		info := infos[id]
		writeU32(&out, info.id)
		writeU32(&out, uint32(resInfoFixed+len(info.configs)*dataOffsetLen))
		writeU32(&out, uint32(len(info.configs)))
		for i := range info.configs {
			writeU32(&out, info.configs[i])
			writeU32(&out, poolBase+info.offsets[i])
		}
	}
	out.Write(pool.Bytes())

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return diag.New(diag.CodeCreateFile, path, err.Error())
	}
	return nil
}

// readV2 loads the newer layout. Every loaded item is marked coverable per
// the overlay contract.
func readV2(raw []byte) (map[uint32][]resource.Item, error) {
	r := &reader{buf: raw}
	r.skip(versionMaxLen)
	_ = r.u32() // total length
	keyCount := r.u32()
	_ = r.u32() // data block offset
	if r.err != nil {
		return nil, invalidIndex("header length error")
	}

	configs := make(map[uint32][]resource.KeyParam)
	for i := uint32(0); i < keyCount; i++ {
		if !r.tag(tagKeys) {
			return nil, invalidIndex("invalid key tag")
		}
		configID := r.u32()
		n := r.u32()
		if r.err != nil {
			return nil, invalidIndex("KeyConfig header length error")
		}
		params := make([]resource.KeyParam, 0, n)
		for j := uint32(0); j < n; j++ {
			kt := r.u32()
			v := r.u32()
			if r.err != nil {
				return nil, invalidIndex("KeyParam length error")
			}
			params = append(params, resource.KeyParam{Type: resource.KeyType(kt), Value: v})
		}
		configs[configID] = params
	}

	if !r.tag(tagIDSS) {
		return nil, invalidIndex("invalid id tag")
	}
	_ = r.u32() // idset length
	typeCount := r.u32()
	_ = r.u32() // id count
	if r.err != nil {
		return nil, invalidIndex("IdSet header length error")
	}

	type resIndex struct {
		id     uint32
		offset uint32
		name   string
		typ    resource.Type
	}
	var indexes []resIndex
	for i := uint32(0); i < typeCount; i++ {
		rawType := r.u32()
		_ = r.u32() // type section length
		count := r.u32()
		if r.err != nil {
			return nil, invalidIndex("ResType header length error")
		}
		t := resource.TypeFromValue(int32(rawType))
		if t == resource.Invalid {
			return nil, invalidIndex("invalid resource type")
		}
		for j := uint32(0); j < count; j++ {
			id := r.u32()
			offset := r.u32()
			nameLen := r.u32()
			if r.err != nil {
				return nil, invalidIndex("ResIndex length error")
			}
			name := r.bytes(int(nameLen))
			if r.err != nil {
				return nil, invalidIndex("resource name length error")
			}
			indexes = append(indexes, resIndex{id: id, offset: offset, name: string(name), typ: t})
		}
	}

	out := make(map[uint32][]resource.Item)
	for _, idx := range indexes {
		sub := &reader{buf: raw, pos: int(idx.offset)}
		resID := sub.u32()
		_ = sub.u32() // resInfo length
		valueCount := sub.u32()
		if sub.err != nil || resID != idx.id {
			return nil, invalidIndex("ResInfo length error")
		}
		for v := uint32(0); v < valueCount; v++ {
			configID := sub.u32()
			dataOffset := sub.u32()
			if sub.err != nil {
				return nil, invalidIndex("config id length error")
			}
			params, ok := configs[configID]
			if !ok {
				return nil, invalidIndex("invalid config id")
			}
			dataLen, ok := sub.u16at(int(dataOffset))
			if !ok {
				return nil, invalidIndex("resource length error")
			}
			if int(dataOffset)+2+int(dataLen) > len(raw) {
				return nil, invalidIndex("resource length error")
			}
			data := append([]byte(nil), raw[int(dataOffset)+2:int(dataOffset)+2+int(dataLen)]...)
			item := resource.Item{
				Name:      idx.name,
				Type:      idx.typ,
				KeyParams: params,
				LimitKey:  qualifier.Format(params),
				Data:      data,
				Coverable: true,
			}
			out[idx.id] = append(out[idx.id], item)
		}
	}
	return out, nil
}
