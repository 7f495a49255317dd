// Package qualifier parses directory-segment strings such as
// "zh_CN-vertical-phone-mdpi" into ordered lists of typed key parameters and
// formats them back to their canonical string form. It also implements the
// --target-config selective-compile filter, which reuses the same token
// grammar.
package qualifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/respack/respack/internal/resource"
)

// PackLocale packs an ASCII language/region/script code into the uint32
// qualifier value. Reading non-zero bytes from the most significant byte
// downward recovers the code.
func PackLocale(code string) uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v <<= 8
		if i < len(code) {
			v |= uint32(code[i])
		}
	}
	return v
}

// UnpackLocale recovers the ASCII code packed by PackLocale.
func UnpackLocale(v uint32) string {
	var b []byte
	for shift := 24; shift >= 0; shift -= 8 {
		c := byte(v >> shift)
		if c != 0 {
			b = append(b, c)
		}
	}
	return string(b)
}

var (
	languageRe = regexp.MustCompile(`^[a-z]{2,3}$`)
	scriptRe   = regexp.MustCompile(`^[A-Z][a-z]{3}$`)
	regionRe   = regexp.MustCompile(`^[A-Z]{2,3}$`)
	mccRe      = regexp.MustCompile(`^mcc(\d{3})$`)
	mncRe      = regexp.MustCompile(`^mnc(\d{1,3})$`)
)

// token parse order. Keyword kinds are matched before the locale patterns so
// that a token like "tv", which is also a well-formed language code, binds to
// its keyword kind; the positional check below still rejects out-of-order
// sequences.
var keywordKinds = []struct {
	kind   resource.KeyType
	values map[string]uint32
}{
	{resource.KeyOrientation, resource.Orientations},
	{resource.KeyDeviceType, resource.Devices},
	{resource.KeyNightMode, resource.NightModes},
	{resource.KeyResolution, resource.Densities},
	{resource.KeyInputDevice, resource.InputDevices},
}

// order assigns each kind its position in a well-formed limit key.
var order = map[resource.KeyType]int{
	resource.KeyLanguage:    0,
	resource.KeyScript:      1,
	resource.KeyRegion:      2,
	resource.KeyMcc:         3,
	resource.KeyMnc:         4,
	resource.KeyOrientation: 5,
	resource.KeyDeviceType:  6,
	resource.KeyNightMode:   7,
	resource.KeyResolution:  8,
	resource.KeyInputDevice: 9,
}

func classify(tok string) (resource.KeyParam, bool) {
	for _, kw := range keywordKinds {
		if v, ok := kw.values[tok]; ok {
			return resource.KeyParam{Type: kw.kind, Value: v}, true
		}
	}
	if m := mccRe.FindStringSubmatch(tok); m != nil {
		n, _ := strconv.ParseUint(m[1], 10, 32)
		return resource.KeyParam{Type: resource.KeyMcc, Value: uint32(n)}, true
	}
	if m := mncRe.FindStringSubmatch(tok); m != nil {
		n, _ := strconv.ParseUint(m[1], 10, 32)
		return resource.KeyParam{Type: resource.KeyMnc, Value: uint32(n)}, true
	}
	switch {
	case languageRe.MatchString(tok):
		return resource.KeyParam{Type: resource.KeyLanguage, Value: PackLocale(tok)}, true
	case scriptRe.MatchString(tok):
		return resource.KeyParam{Type: resource.KeyScript, Value: PackLocale(tok)}, true
	case regionRe.MatchString(tok):
		return resource.KeyParam{Type: resource.KeyRegion, Value: PackLocale(tok)}, true
	}
	return resource.KeyParam{}, false
}

// Parse converts a directory-segment string into its ordered qualifier list.
// The literal "base" yields an empty list. Tokens are separated by "-" or
// "_"; any token that cannot be classified, or that appears out of the fixed
// kind order, fails the whole segment.
func Parse(limitKey string) ([]resource.KeyParam, error) {
	if limitKey == resource.BaseLimitKey {
		return nil, nil
	}
	tokens := strings.FieldsFunc(limitKey, func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty limit key")
	}
	var params []resource.KeyParam
	last := -1
	for _, tok := range tokens {
		param, ok := classify(tok)
		if !ok {
			return nil, fmt.Errorf("unknown qualifier %q", tok)
		}
		pos := order[param.Type]
		if pos <= last {
			return nil, fmt.Errorf("qualifier %q out of order", tok)
		}
		last = pos
		params = append(params, param)
	}
	return params, nil
}

// Value returns the token form of one qualifier parameter.
func Value(param resource.KeyParam) string {
	switch param.Type {
	case resource.KeyLanguage, resource.KeyScript, resource.KeyRegion:
		return UnpackLocale(param.Value)
	case resource.KeyOrientation:
		if param.Value == resource.OrientationVertical {
			return "vertical"
		}
		return "horizontal"
	case resource.KeyNightMode:
		if param.Value == resource.NightModeDark {
			return "dark"
		}
		return "light"
	case resource.KeyDeviceType:
		return lookup(resource.Devices, param.Value)
	case resource.KeyResolution:
		return lookup(resource.Densities, param.Value)
	case resource.KeyInputDevice:
		if param.Value == resource.InputDeviceNotSet {
			return ""
		}
		return "pointingdevice"
	default:
		return strconv.FormatUint(uint64(param.Value), 10)
	}
}

func lookup(m map[string]uint32, v uint32) string {
	for name, value := range m {
		if value == v {
			return name
		}
	}
	return ""
}

// Format renders a qualifier list back to its canonical string form: token
// values joined with "-", except region and MNC which attach with "_". An
// empty list formats as "base".
func Format(params []resource.KeyParam) string {
	if len(params) == 0 {
		return resource.BaseLimitKey
	}
	var b strings.Builder
	for _, param := range params {
		val := Value(param)
		if val == "" {
			continue
		}
		switch param.Type {
		case resource.KeyMcc:
			val = "mcc" + val
		case resource.KeyMnc:
			val = "mnc" + val
		}
		if b.Len() > 0 {
			if param.Type == resource.KeyRegion || param.Type == resource.KeyMnc {
				b.WriteByte('_')
			} else {
				b.WriteByte('-')
			}
		}
		b.WriteString(val)
	}
	return b.String()
}
