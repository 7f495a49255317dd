package ids

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/resource"
)

// DefinedKey identifies one fixed assignment.
type DefinedKey struct {
	Type resource.Type
	Name string
}

// Defined collects the fixed ID assignments loaded from id_defined.json
// manifests, split into the app and system pools.
type Defined struct {
	App map[DefinedKey]uint32
	Sys map[DefinedKey]uint32

	// seenIDs tracks globally claimed IDs for duplicate detection.
	seenIDs map[uint32]string
}

// NewDefined returns an empty assignment set.
func NewDefined() *Defined {
	return &Defined{
		App:     make(map[DefinedKey]uint32),
		Sys:     make(map[DefinedKey]uint32),
		seenIDs: make(map[uint32]string),
	}
}

// definedFile is the on-disk shape of id_defined.json.
type definedFile struct {
	StartID string          `json:"startId,omitempty"`
	Record  []definedRecord `json:"record"`
}

type definedRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
	Order *int64 `json:"order,omitempty"`
}

var hexID = regexp.MustCompile(`^0[xX][0-9a-fA-F]{8}$`)

// LoadFile parses one id_defined.json. For application manifests the id
// field is mandatory; for system manifests the order field is mandatory and
// ids derive from startId + order. Missing files are not an error.
func (d *Defined) LoadFile(path string, system bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return diag.New(diag.CodeOpenJSONFail, path, err.Error())
	}
	var file definedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return diag.New(diag.CodeJSONFormat).At(path).Wrap(err)
	}
	if len(file.Record) == 0 {
		return nil
	}

	var startSysID uint64
	if system {
		if file.StartID == "" {
			return diag.New(diag.CodeInvalidSystemDefined, path, "'startId' missing")
		}
		startSysID, err = strconv.ParseUint(file.StartID, 0, 64)
		if err != nil || startSysID == 0 {
			return diag.New(diag.CodeInvalidSystemDefined, path, "'startId' is not a valid hexadecimal string")
		}
	}

	perFile := make(map[DefinedKey]bool)
	for seq, rec := range file.Record {
		t := resource.TypeFromString(rec.Type)
		if t == resource.Invalid {
			return diag.New(diag.CodeIDDefinedInvalidType, seq, rec.Type).At(path)
		}
		if rec.Name == "" {
			return diag.New(diag.CodeIDDefinedInvalidID, seq, "name empty").At(path)
		}

		var id uint64
		if system {
			if rec.Order == nil {
				return diag.New(diag.CodeIDDefinedInvalidID, seq, "order empty").At(path)
			}
			if *rec.Order != int64(seq) {
				return diag.New(diag.CodeIDDefinedOrderMismatch, seq, *rec.Order, seq).At(path)
			}
			id = startSysID + uint64(*rec.Order)
			if startSysID&DefaultSysBase == DefaultSysBase && !resource.IsValidName(rec.Name) {
				return diag.New(diag.CodeInvalidResourceName, rec.Name).At(path)
			}
		} else {
			if rec.ID == "" {
				return diag.New(diag.CodeIDDefinedInvalidID, seq, "id empty").At(path)
			}
			if !hexID.MatchString(rec.ID) {
				return diag.New(diag.CodeIDDefinedInvalidID, seq,
					"id must be a hex string, eg: ^0[xX][0-9a-fA-F]{8}$").At(path)
			}
			id, _ = strconv.ParseUint(rec.ID, 0, 64)
			if id < 0x01000000 || (id > 0x06FFFFFF && id < 0x08000000) || id > 0xFFFFFFFF {
				return diag.New(diag.CodeIDDefinedInvalidID, seq,
					"id must be in [0x01000000,0x06FFFFFF] or [0x08000000,0xFFFFFFFF]").At(path)
			}
		}

		k := DefinedKey{Type: t, Name: rec.Name}
		if perFile[k] {
			return diag.New(diag.CodeResourceDuplicate, rec.Name, path, path)
		}
		perFile[k] = true
		if prev, taken := d.seenIDs[uint32(id)]; taken {
			return diag.New(diag.CodeIDDefinedSameID, prev, rec.Name).At(path)
		}
		d.seenIDs[uint32(id)] = rec.Name

		if system {
			d.Sys[k] = uint32(id)
		} else {
			d.App[k] = uint32(id)
		}
	}
	return nil
}

// ResetApp clears the application assignments, used when --defined-ids
// supersedes the per-input manifests.
func (d *Defined) ResetApp() {
	for _, id := range d.App {
		delete(d.seenIDs, id)
	}
	d.App = make(map[DefinedKey]uint32)
}

// BaseElementDefinedPath returns the conventional per-input manifest path.
func BaseElementDefinedPath(input string, combine bool) string {
	if combine {
		return filepath.Join(input, resource.IDDefinedFile)
	}
	return filepath.Join(input, resource.BaseLimitKey, "element", resource.IDDefinedFile)
}

// Emit writes the normalized id_defined.json listing every assignment in
// hexadecimal form into dir.
func Emit(dir string, assigned []Assigned) error {
	file := definedFile{Record: make([]definedRecord, 0, len(assigned))}
	for _, a := range assigned {
		file.Record = append(file.Record, definedRecord{
			Type: resource.TypeString(a.Type),
			Name: a.Name,
			ID:   fmt.Sprintf("0x%08X", a.ID),
		})
	}
	raw, err := json.MarshalIndent(&file, "", "    ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return diag.New(diag.CodeCreateFile, dir, err.Error())
	}
	path := filepath.Join(dir, resource.IDDefinedFile)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return diag.New(diag.CodeCreateFile, path, err.Error())
	}
	return nil
}

// LoadCache reads a previously emitted id_defined.json for the incremental
// cache tier. A missing or malformed file yields no cache.
func LoadCache(path string) []Assigned {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var file definedFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil
	}
	var out []Assigned
	for _, rec := range file.Record {
		t := resource.TypeFromString(rec.Type)
		if t == resource.Invalid || !hexID.MatchString(rec.ID) {
			continue
		}
		id, _ := strconv.ParseUint(rec.ID, 0, 64)
		out = append(out, Assigned{Type: t, Name: rec.Name, ID: uint32(id)})
	}
	return out
}
