package diag

// entry is one static catalog record. The cause field is a printf-style
// template substituted when the diagnostic is built.
type entry struct {
	category  string
	cause     string
	solutions []string
}

const (
	catDependency   = "Dependency Error"
	catConfig       = "Config Error"
	catFileResource = "File Resource Error"
	catCommandParse = "Command Parse Error"
	catResourcePack = "Resource Pack Error"
	catResourceDump = "Resource Dump Error"
	catUndefined    = "Undefined Error"
)

var catalog = map[int]entry{
	CodeUndefined: {catUndefined, "Unknown error: %s", []string{"Please try again."}},

	CodeLoadLibraryFail: {catDependency, "Failed to load the library '%s', %s", []string{
		"Make sure the library path is correct and has access permissions.",
		"Install the missing third-party dependency libraries displayed in the error information.",
	}},

	CodeOpenJSONFail: {catConfig, "Failed to open the JSON file '%s', %s.", []string{
		"Make sure the JSON file path is correct and has access permissions.",
	}},
	CodeJSONFormat: {catConfig, "Failed to parse the JSON file: incorrect format.", []string{
		"Check the JSON file and delete unnecessary commas (,).",
		"Check the JSON file to make sure the root bracket is {}.",
	}},
	CodeJSONNodeMismatch: {catConfig, "The value type of node '%s' does not match. Expected type: %s.", nil},
	CodeJSONNodeMissing:  {catConfig, "The required node '%s' is missing.", nil},
	CodeJSONNodeEmpty:    {catConfig, "The array or object node '%s' cannot be empty.", nil},
	CodeJSONNotOneMember: {catConfig, "The node '%s' in the JSON file can only have one member.", nil},
	CodeJSONInvalidNode:  {catConfig, "Invalid node name '%s'. Valid values: %s.", nil},

	CodeCreateFile: {catFileResource, "Failed to create the directory or file '%s', %s.", []string{
		"Make sure the file path is correct and has access permissions.",
	}},
	CodeRemoveFile: {catFileResource, "Failed to delete the directory or file '%s', %s.", []string{
		"Make sure the file path is correct and has access permissions.",
	}},
	CodeCopyFile: {catFileResource, "Failed to copy the file from '%s' to '%s', %s.", []string{
		"Make sure the src and dest file path is correct and has access permissions.",
	}},
	CodeOpenFile: {catFileResource, "Failed to open the file '%s', %s.", []string{
		"Make sure the file path is correct and has access permissions.",
	}},
	CodeReadFile: {catFileResource, "Failed to read the file '%s', %s.", []string{
		"Make sure the file content is correct.",
	}},

	CodeUnknownCommand:  {catCommandParse, "Unknown command: %s.", nil},
	CodeUnknownOption:   {catCommandParse, "Unknown option: %s.", nil},
	CodeMissingArgument: {catCommandParse, "Option '%s' requires an argument.", nil},
	CodeInvalidArgument: {catCommandParse, "Invalid argument for option '%s': %s.", nil},
	CodeInvalidInput:    {catCommandParse, "Invalid input path '%s', %s.", []string{
		"Make sure the input path exists and is a directory.",
	}},
	CodeDuplicateInput: {catCommandParse, "The input path '%s' is specified repeatedly.", nil},
	CodeInvalidOutput:  {catCommandParse, "Invalid output path '%s', %s.", nil},
	CodeInvalidStartID: {catCommandParse, "Invalid start ID '%s'.", []string{
		"The start ID must be in [0x01000000,0x06FFFFFF) or [0x08000000,0xFFFFFFFF).",
	}},
	CodeInvalidTargetConfig: {catCommandParse, "Invalid target config '%s', %s.", []string{
		"Use the grammar Segment[value{,value}*];... with segments MccMnc, Locale, Orientation, Device, ColorMode, Density.",
	}},
	CodeInvalidSystemDefined: {catCommandParse, "Invalid system id_defined.json '%s', %s.", nil},
	CodeInvalidThreadCount:   {catCommandParse, "Invalid thread count '%s'.", []string{
		"The thread count must be a positive integer.",
	}},
	CodeInvalidIgnoreFile: {catCommandParse, "Invalid ignore config file '%s', %s.", []string{
		"Each entry needs a valid regular expression pattern and a scope of all, file or dir.",
	}},

	CodeOutputExist: {catResourcePack, "The output path '%s' already exists.", []string{
		"Pass --forceWrite to overwrite the existing output.",
	}},
	CodeConfigJSONMissing: {catResourcePack, "The config.json or module.json file is missing, %s.", nil},
	CodeInvalidModuleType: {catResourcePack, "Invalid module type '%s'. Valid values: [\"har\",\"entry\",\"feature\",\"shared\"].", nil},
	CodeExclusiveStartID:  {catResourcePack, "The set start ID and id_defined.json cannot be used together.", []string{
		"Remove the --startId option or the base/element/id_defined.json file.",
	}},
	CodeIDDefinedInvalidType: {catResourcePack, "id_defined.json seq = %d: type '%s' invalid.", nil},
	CodeIDDefinedInvalidID:   {catResourcePack, "id_defined.json seq = %d: %s.", []string{
		"The id must be a hex string matching ^0[xX][0-9a-fA-F]{8}$ inside [0x01000000,0x06FFFFFF] or [0x08000000,0xFFFFFFFF].",
	}},
	CodeIDDefinedOrderMismatch: {catResourcePack, "id_defined.json seq = %d: order value %d, expected %d.", nil},
	CodeIDDefinedSameID:        {catResourcePack, "'%s' and '%s' define the same ID.", nil},
	CodeModuleNameNotFound:     {catResourcePack, "Module name '%s' not in [%s].", nil},

	CodeInvalidResourcePath: {catResourcePack, "Invalid resource path '%s', %s.", nil},
	CodeInvalidLimitKey:     {catResourcePack, "Invalid limit key '%s'.", nil},
	CodeInvalidResourceDir:  {catResourcePack, "Invalid directory name '%s'. Valid values: %s.", nil},
	CodeInvalidTranslatePriority: {catResourcePack, "Invalid priority '%s'. Valid values: %s.", nil},
	CodeInvalidElementType:  {catResourcePack, "Invalid element type '%s'. Valid values: %s.", nil},
	CodeInvalidColorValue:   {catResourcePack, "Invalid color value '%s' of resource '%s'.", []string{
		"A color is a $color: reference or #RGB/#ARGB/#RRGGBB/#AARRGGBB hexadecimal literal.",
	}},
	CodeInvalidResourceRef: {catResourcePack, "Invalid resource reference '%s'. Expected format: %s.", nil},
	CodeParentEmpty:        {catResourcePack, "The parent of resource '%s' cannot be empty.", nil},
	CodeArrayTooLarge:      {catResourcePack, "The value of resource '%s' is too large.", []string{
		"Each element and the composed payload must stay below 65536 bytes.",
	}},
	CodeInvalidQuantity: {catResourcePack, "Invalid quantity '%s' of resource '%s'. Valid values: %s.", nil},
	CodeDuplicateQuantity: {catResourcePack, "Duplicate quantity '%s' in resource '%s'.", nil},
	CodeQuantityNoOther: {catResourcePack, "Resource '%s' is missing the 'other' quantity.", []string{
		"Every plural resource must define the 'other' quantity.",
	}},
	CodeInvalidSymbol: {catResourcePack, "Invalid symbol value '0x%X' of resource '%s'.", []string{
		"Symbol codepoints must be in plane 15 or 16: [0xF0000,0xFFFFF] or [0x100000,0x10FFFF].",
	}},
	CodeInvalidResourceName: {catResourcePack, "Invalid resource name '%s'.", []string{
		"Resource names must match [a-zA-Z0-9_]+.",
	}},
	CodeResourceDuplicate: {catResourcePack, "Resource '%s' is duplicated, first declared in '%s', declared again in '%s'.", nil},
	CodeResourceIDExceed:  {catResourcePack, "Resource ID exceeded: %s.", []string{
		"Reduce the number of resources or move the start ID.",
	}},
	CodeResourceIDNotDefined: {catResourcePack, "Resource '%s' of type '%s' has no assignable ID.", nil},
	CodeRefNotDefined:        {catResourcePack, "The referenced resource '%s' is not defined.", nil},
	CodeInvalidResourceIndex: {catResourcePack, "Invalid resource index: %s.", []string{
		"Rebuild the resources.index file.",
	}},

	CodeParseHap: {catResourceDump, "Failed to parse the package '%s', %s.", nil},
}
