// Package resource defines the central data types shared across all packer
// stages: resource type and qualifier enumerations, the Item carried
// from the compilers through the merger and resolver into the index writer,
// and the length-prefixed framing used for compound payloads.
//
// This package has no dependencies outside the stdlib. It contains only data
// types and lightweight helpers; no business logic.
package resource

// Type enumerates the resource kinds carried by every Item. The numeric
// values are part of the on-disk index format and must not be reordered.
type Type int32

const (
	Element  Type = 0
	Raw      Type = 6
	Integer  Type = 8
	String   Type = 9
	StrArray Type = 10
	IntArray Type = 11
	Boolean  Type = 12
	Color    Type = 14
	ID       Type = 15
	Theme    Type = 16
	Plural   Type = 17
	Float    Type = 18
	Media    Type = 19
	Profile  Type = 20
	Pattern  Type = 22
	Symbol   Type = 23
	Res      Type = 24

	Invalid Type = -1
)

// KeyType identifies the kind of a qualifier parameter. The numeric values
// are part of the on-disk index format.
type KeyType int32

const (
	KeyLanguage    KeyType = 0
	KeyRegion      KeyType = 1
	KeyResolution  KeyType = 2
	KeyOrientation KeyType = 3
	KeyDeviceType  KeyType = 4
	KeyScript      KeyType = 5
	KeyNightMode   KeyType = 6
	KeyMcc         KeyType = 7
	KeyMnc         KeyType = 8
	// 9 reserved
	KeyInputDevice KeyType = 10

	// KeyOther marks an unset slot in locale/mccmnc matching.
	KeyOther KeyType = 99
)

// KeyParam is one typed qualifier parameter. Value interpretation depends on
// Type: packed ASCII for language/region/script, an enumerant otherwise.
type KeyParam struct {
	Type  KeyType
	Value uint32
}

// Orientation values.
const (
	OrientationVertical   uint32 = 0
	OrientationHorizontal uint32 = 1
)

// Device type values. 3 and 5 are reserved.
const (
	DevicePhone    uint32 = 0
	DeviceTablet   uint32 = 1
	DeviceCar      uint32 = 2
	DeviceTV       uint32 = 4
	DeviceWearable uint32 = 6
	DeviceTwoInOne uint32 = 7
)

// Screen density values (dpi).
const (
	DensitySDPI    uint32 = 120
	DensityMDPI    uint32 = 160
	DensityLDPI    uint32 = 240
	DensityXLDPI   uint32 = 320
	DensityXXLDPI  uint32 = 480
	DensityXXXLDPI uint32 = 640
)

// Color mode values.
const (
	NightModeDark  uint32 = 0
	NightModeLight uint32 = 1
)

// Input device values. The "not set" sentinel is stored as the two's
// complement bit pattern of -1.
const (
	InputDeviceNotSet   uint32 = 0xFFFFFFFF
	InputDevicePointing uint32 = 0
)

// Devices maps device-type tokens to their numeric values.
var Devices = map[string]uint32{
	"phone":    DevicePhone,
	"tablet":   DeviceTablet,
	"car":      DeviceCar,
	"tv":       DeviceTV,
	"wearable": DeviceWearable,
	"2in1":     DeviceTwoInOne,
}

// Densities maps density tokens to dpi values.
var Densities = map[string]uint32{
	"sdpi":    DensitySDPI,
	"mdpi":    DensityMDPI,
	"ldpi":    DensityLDPI,
	"xldpi":   DensityXLDPI,
	"xxldpi":  DensityXXLDPI,
	"xxxldpi": DensityXXXLDPI,
}

// Orientations maps orientation tokens to their numeric values.
var Orientations = map[string]uint32{
	"vertical":   OrientationVertical,
	"horizontal": OrientationHorizontal,
}

// NightModes maps color-mode tokens to their numeric values.
var NightModes = map[string]uint32{
	"dark":  NightModeDark,
	"light": NightModeLight,
}

// InputDevices maps input-device tokens to their numeric values.
var InputDevices = map[string]uint32{
	"pointingdevice": InputDevicePointing,
}

// FileClusters maps first-level cluster directory names to the resource type
// their files produce.
var FileClusters = map[string]Type{
	"element": Element,
	"media":   Media,
	"profile": Profile,
}

// ContentClusters maps element JSON root keys to resource types.
var ContentClusters = map[string]Type{
	"id":       ID,
	"integer":  Integer,
	"string":   String,
	"strarray": StrArray,
	"intarray": IntArray,
	"color":    Color,
	"plural":   Plural,
	"boolean":  Boolean,
	"pattern":  Pattern,
	"theme":    Theme,
	"float":    Float,
	"symbol":   Symbol,
}

// CopyClusters maps the binary copy tree prefixes to their resource types.
var CopyClusters = map[string]Type{
	RawFileDir: Raw,
	ResFileDir: Res,
}

// Well-known names shared across the pipeline.
const (
	ResourcesDir      = "resources"
	RawFileDir        = "rawfile"
	ResFileDir        = "resfile"
	ConfigJSON        = "config.json"
	ModuleJSON        = "module.json"
	IDDefinedFile     = "id_defined.json"
	ResourceIndexFile = "resources.index"
	JSONExtension     = ".json"
	BaseLimitKey      = "base"

	// SystemPackage is the package name of the system resource module, which
	// allocates from the system ID cluster instead of the app cluster.
	SystemPackage = "ohos.global.systemres"
)

// TypeString returns the canonical cluster/element name of a resource type,
// or "" for types with no textual form.
func TypeString(t Type) string {
	for name, ct := range FileClusters {
		if ct == t {
			return name
		}
	}
	for name, ct := range ContentClusters {
		if ct == t {
			return name
		}
	}
	return ""
}

// TypeFromString resolves a cluster or element type name. Returns Invalid
// for unknown names.
func TypeFromString(name string) Type {
	if t, ok := FileClusters[name]; ok {
		return t
	}
	if t, ok := ContentClusters[name]; ok {
		return t
	}
	return Invalid
}

// TypeFromValue validates a raw on-disk type value. Returns Invalid for
// values outside the enumeration.
func TypeFromValue(v int32) Type {
	switch Type(v) {
	case Element, Raw, Integer, String, StrArray, IntArray, Boolean, Color,
		ID, Theme, Plural, Float, Media, Profile, Pattern, Symbol, Res:
		return Type(v)
	}
	return Invalid
}

// DirectoryInfo describes one cluster directory discovered by the scanner.
type DirectoryInfo struct {
	LimitKey  string
	Cluster   string
	DirPath   string
	KeyParams []KeyParam
	Type      Type
}

// FileInfo describes one file inside a cluster directory. FileType is the
// element type derived from the JSON root key for element files, and equals
// the directory type for media/profile files.
type FileInfo struct {
	DirectoryInfo
	FilePath string
	Filename string
	FileType Type
}

// NormalIconSizes maps "<dpi>-<device>" to the {icon, startwindow} maximum
// pixel widths used by the icon checker.
var NormalIconSizes = map[string][2]uint32{
	"sdpi-phone":     {41, 144},
	"sdpi-tablet":    {51, 192},
	"mdpi-phone":     {54, 192},
	"mdpi-tablet":    {68, 256},
	"ldpi-phone":     {81, 288},
	"ldpi-tablet":    {102, 384},
	"xldpi-phone":    {108, 384},
	"xldpi-tablet":   {136, 512},
	"xxldpi-phone":   {162, 576},
	"xxldpi-tablet":  {204, 768},
	"xxxldpi-phone":  {216, 768},
	"xxxldpi-tablet": {272, 1024},
}

// IconKeyIndexes maps manifest keys subject to icon checking to the index
// into the NormalIconSizes pair.
var IconKeyIndexes = map[string]uint32{
	"icon":            0,
	"startWindowIcon": 1,
}
