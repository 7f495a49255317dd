package qualifier

import (
	"fmt"
	"strings"

	"github.com/respack/respack/internal/resource"
)

// TargetConfig is the parsed form of the --target-config filter. Each field
// holds the accepted qualifier values for one segment kind; an empty field
// leaves that kind unconstrained.
type TargetConfig struct {
	MccMnc      []resource.KeyParam
	Locale      []resource.KeyParam
	Orientation []resource.KeyParam
	Device      []resource.KeyParam
	ColorMode   []resource.KeyParam
	Density     []resource.KeyParam
}

// mccmnc is one MCC with its optional MNC. An unset MNC matches any.
type mccmnc struct {
	mcc resource.KeyParam
	mnc resource.KeyParam
}

// locale is one language with optional script and region. Unset parts match
// any.
type locale struct {
	language resource.KeyParam
	script   resource.KeyParam
	region   resource.KeyParam
}

func unset() resource.KeyParam {
	return resource.KeyParam{Type: resource.KeyOther}
}

// ParseTargetConfig parses the "Segment[v{,v}*];..." grammar, e.g.
// "Device[phone,tablet];ColorMode[dark];Locale[zh_CN,en_US]". Segment names
// are case-insensitive.
func ParseTargetConfig(s string) (*TargetConfig, error) {
	tc := &TargetConfig{}
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		open := strings.IndexByte(seg, '[')
		if open < 0 || !strings.HasSuffix(seg, "]") {
			return nil, fmt.Errorf("malformed segment %q", seg)
		}
		name := strings.ToLower(strings.TrimSpace(seg[:open]))
		body := seg[open+1 : len(seg)-1]
		var values []string
		for _, v := range strings.Split(body, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("segment %q has no values", seg)
		}
		if err := tc.addSegment(name, values); err != nil {
			return nil, err
		}
	}
	return tc, nil
}

func (tc *TargetConfig) addSegment(name string, values []string) error {
	for _, value := range values {
		params, err := Parse(value)
		if err != nil {
			return fmt.Errorf("segment %s: %w", name, err)
		}
		var accepted map[resource.KeyType]*[]resource.KeyParam
		switch name {
		case "mccmnc":
			accepted = map[resource.KeyType]*[]resource.KeyParam{
				resource.KeyMcc: &tc.MccMnc,
				resource.KeyMnc: &tc.MccMnc,
			}
		case "locale":
			accepted = map[resource.KeyType]*[]resource.KeyParam{
				resource.KeyLanguage: &tc.Locale,
				resource.KeyScript:   &tc.Locale,
				resource.KeyRegion:   &tc.Locale,
			}
		case "orientation":
			accepted = map[resource.KeyType]*[]resource.KeyParam{resource.KeyOrientation: &tc.Orientation}
		case "device":
			accepted = map[resource.KeyType]*[]resource.KeyParam{resource.KeyDeviceType: &tc.Device}
		case "colormode":
			accepted = map[resource.KeyType]*[]resource.KeyParam{resource.KeyNightMode: &tc.ColorMode}
		case "density":
			accepted = map[resource.KeyType]*[]resource.KeyParam{resource.KeyResolution: &tc.Density}
		default:
			return fmt.Errorf("unknown segment %q", name)
		}
		for _, param := range params {
			dst, ok := accepted[param.Type]
			if !ok {
				return fmt.Errorf("segment %s: value %q carries qualifier kind %d", name, value, param.Type)
			}
			*dst = append(*dst, param)
		}
	}
	return nil
}

// Selects reports whether an item with the given qualifier list passes the
// filter: every qualifier kind present in the list must either be absent
// from the filter or contained in the filter's value set for that kind.
// MCC/MNC and locale match as grouped tuples with unset parts wild.
func (tc *TargetConfig) Selects(params []resource.KeyParam) bool {
	if tc == nil || len(params) == 0 {
		return true
	}
	for i := 0; i < len(params); i++ {
		switch params[i].Type {
		case resource.KeyMcc:
			if !tc.selectsMccMnc(params, &i) {
				return false
			}
		case resource.KeyLanguage:
			if !tc.selectsLocale(params, &i) {
				return false
			}
		case resource.KeyOrientation:
			if !contains(tc.Orientation, params[i]) {
				return false
			}
		case resource.KeyDeviceType:
			if !contains(tc.Device, params[i]) {
				return false
			}
		case resource.KeyNightMode:
			if !contains(tc.ColorMode, params[i]) {
				return false
			}
		case resource.KeyResolution:
			if !contains(tc.Density, params[i]) {
				return false
			}
		}
	}
	return true
}

func contains(limit []resource.KeyParam, p resource.KeyParam) bool {
	if len(limit) == 0 {
		return true
	}
	for _, l := range limit {
		if l.Type == p.Type && l.Value == p.Value {
			return true
		}
	}
	return false
}

func (tc *TargetConfig) selectsMccMnc(params []resource.KeyParam, i *int) bool {
	if len(tc.MccMnc) == 0 {
		return true
	}
	want := mccmnc{mcc: params[*i], mnc: unset()}
	if *i+1 < len(params) && params[*i+1].Type == resource.KeyMnc {
		*i++
		want.mnc = params[*i]
	}
	for _, cand := range groupMccMnc(tc.MccMnc) {
		if cand.mcc.Value != want.mcc.Value {
			continue
		}
		if cand.mnc.Type == resource.KeyOther || want.mnc.Type == resource.KeyOther ||
			cand.mnc.Value == want.mnc.Value {
			return true
		}
	}
	return false
}

func (tc *TargetConfig) selectsLocale(params []resource.KeyParam, i *int) bool {
	if len(tc.Locale) == 0 {
		return true
	}
	want := locale{language: params[*i], script: unset(), region: unset()}
	for *i+1 < len(params) {
		next := params[*i+1]
		if next.Type == resource.KeyScript {
			want.script = next
			*i++
			continue
		}
		if next.Type == resource.KeyRegion {
			want.region = next
			*i++
		}
		break
	}
	for _, cand := range groupLocale(tc.Locale) {
		if cand.language.Value != want.language.Value {
			continue
		}
		if cand.script.Type != resource.KeyOther && want.script.Type != resource.KeyOther &&
			cand.script.Value != want.script.Value {
			continue
		}
		if cand.region.Type != resource.KeyOther && want.region.Type != resource.KeyOther &&
			cand.region.Value != want.region.Value {
			continue
		}
		return true
	}
	return false
}

func groupMccMnc(limit []resource.KeyParam) []mccmnc {
	var out []mccmnc
	for _, p := range limit {
		switch p.Type {
		case resource.KeyMcc:
			out = append(out, mccmnc{mcc: p, mnc: unset()})
		case resource.KeyMnc:
			if len(out) > 0 {
				out[len(out)-1].mnc = p
			}
		}
	}
	return out
}

func groupLocale(limit []resource.KeyParam) []locale {
	var out []locale
	for _, p := range limit {
		switch p.Type {
		case resource.KeyLanguage:
			out = append(out, locale{language: p, script: unset(), region: unset()})
		case resource.KeyScript:
			if len(out) > 0 {
				out[len(out)-1].script = p
			}
		case resource.KeyRegion:
			if len(out) > 0 {
				out[len(out)-1].region = p
			}
		}
	}
	return out
}
