package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/resource"
)

// ElementCompiler parses element JSON files. Each file has a single root
// key naming the element type; its value is an array of entries validated
// per the type's schema.
type ElementCompiler struct {
	// Overlay marks produced items coverable (HAP scan pass).
	Overlay bool
}

// entry is the raw shape of one element definition. Value stays raw because
// its type depends on the element kind.
type entry struct {
	Name   *string         `json:"name"`
	Value  json.RawMessage `json:"value"`
	Parent *string         `json:"parent"`
	Attr   json.RawMessage `json:"attr"`
}

var (
	refAny     = regexp.MustCompile(`^\$.+:`)
	refString  = regexp.MustCompile(`^\$(ohos:)?string:`)
	refColor   = regexp.MustCompile(`^\$(ohos:)?color:`)
	refFloat   = regexp.MustCompile(`^\$(ohos:)?float:`)
	refInteger = regexp.MustCompile(`^\$(ohos:)?integer:.*`)
	refBoolean = regexp.MustCompile(`^\$(ohos:)?boolean:.*`)
	refSymbol  = regexp.MustCompile(`^\$(ohos:)?symbol:.*`)
	colorLit   = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{4}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)
	sysParent  = regexp.MustCompile(`^ohos:[a-z]+:.+`)
)

var quantities = []string{"zero", "one", "two", "few", "many", "other"}

// translationTypes are the element kinds whose base-limit values run
// through the translatable attribute check and tag stripper.
var translationTypes = map[resource.Type]bool{
	resource.String:   true,
	resource.StrArray: true,
	resource.Plural:   true,
}

// CompileFile parses one element JSON file. The reserved
// base/element/id_defined.json is consumed by the ID worker, not compiled.
func (c *ElementCompiler) CompileFile(info resource.FileInfo) ([]resource.Item, error) {
	if info.LimitKey == resource.BaseLimitKey && info.Cluster == "element" &&
		info.Filename == resource.IDDefinedFile {
		return nil, nil
	}

	raw, err := os.ReadFile(info.FilePath)
	if err != nil {
		return nil, diag.New(diag.CodeOpenJSONFail, info.FilePath, err.Error())
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, diag.New(diag.CodeJSONFormat).At(info.FilePath).Wrap(err)
	}
	if len(root) != 1 {
		return nil, diag.New(diag.CodeJSONNotOneMember, "root").At(info.FilePath)
	}

	var tag string
	var body json.RawMessage
	for k, v := range root {
		tag, body = k, v
	}
	t, ok := resource.ContentClusters[tag]
	if !ok {
		return nil, diag.New(diag.CodeJSONInvalidNode, tag, contentTypeNames()).At(info.FilePath)
	}
	info.FileType = t

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, diag.New(diag.CodeJSONNodeMismatch, tag, "array").At(info.FilePath)
	}
	if len(entries) == 0 {
		return nil, diag.New(diag.CodeJSONNodeEmpty, tag).At(info.FilePath)
	}

	baseTranslatable := info.LimitKey == resource.BaseLimitKey && translationTypes[t]
	var items []resource.Item
	for _, rawEntry := range entries {
		var e entry
		if err := json.Unmarshal(rawEntry, &e); err != nil {
			return nil, diag.New(diag.CodeJSONNodeMismatch, "item", "object").At(info.FilePath)
		}
		if e.Name == nil {
			return nil, diag.New(diag.CodeJSONNodeMissing, "name").At(info.FilePath)
		}
		item := resource.Item{
			Name:      *e.Name,
			Type:      t,
			KeyParams: info.KeyParams,
			LimitKey:  info.LimitKey,
			FilePath:  info.FilePath,
			Coverable: c.Overlay,
		}
		if baseTranslatable {
			var err error
			e, err = checkTranslatable(e, t, info.FilePath)
			if err != nil {
				return nil, err
			}
		}
		data, err := c.compileValue(t, e, item)
		if err != nil {
			return nil, err
		}
		item.Data = data
		items = append(items, item)
	}
	return items, nil
}

func (c *ElementCompiler) compileValue(t resource.Type, e entry, item resource.Item) ([]byte, error) {
	switch t {
	case resource.String, resource.Color, resource.Float:
		return c.scalarString(t, e, item)
	case resource.Integer:
		return c.integer(e, item)
	case resource.Boolean:
		return c.boolean(e, item)
	case resource.Symbol:
		return c.symbol(e, item)
	case resource.StrArray:
		return c.strArray(e, item)
	case resource.IntArray:
		return c.intArray(e, item)
	case resource.Theme, resource.Pattern:
		return c.pairs(t, e, item)
	case resource.Plural:
		return c.plural(e, item)
	}
	return nil, diag.New(diag.CodeInvalidElementType, resource.TypeString(t), elementTypeNames()).At(item.FilePath)
}

// checkStringValue validates a scalar string under the per-type reference
// rules.
func checkStringValue(t resource.Type, value, name, path string) error {
	refs := map[resource.Type]*regexp.Regexp{
		resource.String:   refString,
		resource.StrArray: refString,
		resource.Color:    refColor,
		resource.Float:    refFloat,
	}
	if t == resource.Color && !refAny.MatchString(value) && !colorLit.MatchString(value) {
		return diag.New(diag.CodeInvalidColorValue, value, name).At(path)
	}
	if want, ok := refs[t]; ok {
		if m := refAny.FindString(value); m != "" && !want.MatchString(value) {
			return diag.New(diag.CodeInvalidResourceRef, value, want.String()).At(path)
		}
	}
	return nil
}

func (c *ElementCompiler) scalarString(t resource.Type, e entry, item resource.Item) ([]byte, error) {
	var value string
	if err := json.Unmarshal(e.Value, &value); err != nil {
		return nil, diag.New(diag.CodeJSONNodeMismatch, item.Name+" value", "string").At(item.FilePath)
	}
	if err := checkStringValue(t, value, item.Name, item.FilePath); err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// checkIntegerValue accepts a $integer: reference or a JSON number equal to
// its integer part, returning the decimal text stored as payload.
func checkIntegerValue(raw json.RawMessage, name, path string) (string, error) {
	if len(raw) == 0 {
		return "", diag.New(diag.CodeJSONNodeMissing, name+" value").At(path)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if !refInteger.MatchString(s) {
			return "", diag.New(diag.CodeInvalidResourceRef, s, "$(ohos:)?integer:").At(path)
		}
		return s, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != float64(int64(f)) {
		return "", diag.New(diag.CodeJSONNodeMismatch, name+" value", "integer").At(path)
	}
	return strconv.FormatInt(int64(f), 10), nil
}

func (c *ElementCompiler) integer(e entry, item resource.Item) ([]byte, error) {
	text, err := checkIntegerValue(e.Value, item.Name, item.FilePath)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

func (c *ElementCompiler) boolean(e entry, item resource.Item) ([]byte, error) {
	if len(e.Value) == 0 {
		return nil, diag.New(diag.CodeJSONNodeMissing, item.Name+" value").At(item.FilePath)
	}
	var s string
	if err := json.Unmarshal(e.Value, &s); err == nil {
		if !refBoolean.MatchString(s) {
			return nil, diag.New(diag.CodeInvalidResourceRef, s, "$(ohos:)?boolean:").At(item.FilePath)
		}
		return []byte(s), nil
	}
	var b bool
	if err := json.Unmarshal(e.Value, &b); err != nil {
		return nil, diag.New(diag.CodeJSONNodeMismatch, item.Name+" value", "bool").At(item.FilePath)
	}
	return []byte(strconv.FormatBool(b)), nil
}

func (c *ElementCompiler) symbol(e entry, item resource.Item) ([]byte, error) {
	var s string
	if err := json.Unmarshal(e.Value, &s); err != nil {
		return nil, diag.New(diag.CodeJSONNodeMismatch, item.Name+" value", "string").At(item.FilePath)
	}
	if refSymbol.MatchString(s) {
		return []byte(s), nil
	}
	code, _ := strconv.ParseInt(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"), 16, 64)
	if !unicodeInPlane15or16(code) {
		return nil, diag.New(diag.CodeInvalidSymbol, code, item.Name).At(item.FilePath)
	}
	return []byte(s), nil
}

func unicodeInPlane15or16(code int64) bool {
	return (code >= 0xF0000 && code <= 0xFFFFF) || (code >= 0x100000 && code <= 0x10FFFF)
}

func (c *ElementCompiler) strArray(e entry, item resource.Item) ([]byte, error) {
	var arr []struct {
		Value *string `json:"value"`
	}
	if err := parseValueArray(e.Value, &arr, item); err != nil {
		return nil, err
	}
	var contents []string
	for _, av := range arr {
		if av.Value == nil {
			return nil, diag.New(diag.CodeJSONNodeMismatch, item.Name+" value", "string").At(item.FilePath)
		}
		if err := checkStringValue(resource.StrArray, *av.Value, item.Name, item.FilePath); err != nil {
			return nil, err
		}
		contents = append(contents, *av.Value)
	}
	return compose(contents, item)
}

func (c *ElementCompiler) intArray(e entry, item resource.Item) ([]byte, error) {
	var arr []json.RawMessage
	if err := parseValueArray(e.Value, &arr, item); err != nil {
		return nil, err
	}
	var contents []string
	for _, raw := range arr {
		text, err := checkIntegerValue(raw, item.Name, item.FilePath)
		if err != nil {
			return nil, err
		}
		contents = append(contents, text)
	}
	return compose(contents, item)
}

// pairs compiles theme and pattern entries: an optional parent reference
// followed by (name, value) attribute pairs.
func (c *ElementCompiler) pairs(t resource.Type, e entry, item resource.Item) ([]byte, error) {
	var contents []string
	if e.Parent != nil {
		parent := *e.Parent
		if parent == "" {
			return nil, diag.New(diag.CodeParentEmpty, item.Name).At(item.FilePath)
		}
		typeName := resource.TypeString(t)
		if sysParent.MatchString(parent) {
			parent = "$" + parent
		} else {
			parent = "$" + typeName + ":" + parent
		}
		contents = append(contents, parent)
	}

	var arr []struct {
		Name  *string `json:"name"`
		Value *string `json:"value"`
	}
	if err := parseValueArray(e.Value, &arr, item); err != nil {
		return nil, err
	}
	attrName := item.Name + " attribute"
	for _, av := range arr {
		if av.Name == nil {
			return nil, diag.New(diag.CodeJSONNodeMissing, attrName).At(item.FilePath)
		}
		if av.Value == nil {
			return nil, diag.New(diag.CodeJSONNodeMissing,
				fmt.Sprintf("%s '%s'", attrName, *av.Name)).At(item.FilePath)
		}
		contents = append(contents, *av.Name, *av.Value)
	}
	return compose(contents, item)
}

func (c *ElementCompiler) plural(e entry, item resource.Item) ([]byte, error) {
	var arr []struct {
		Quantity *string `json:"quantity"`
		Value    *string `json:"value"`
	}
	if err := parseValueArray(e.Value, &arr, item); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var contents []string
	for _, av := range arr {
		if av.Quantity == nil {
			return nil, diag.New(diag.CodeJSONNodeMissing, item.Name+" quantity").At(item.FilePath)
		}
		q := *av.Quantity
		if !contains(quantities, q) {
			return nil, diag.New(diag.CodeInvalidQuantity, q, item.Name, quantityNames()).At(item.FilePath)
		}
		if seen[q] {
			return nil, diag.New(diag.CodeDuplicateQuantity, q, item.Name).At(item.FilePath)
		}
		seen[q] = true
		if av.Value == nil {
			return nil, diag.New(diag.CodeJSONNodeMissing,
				fmt.Sprintf("%s '%s' value", item.Name, q)).At(item.FilePath)
		}
		contents = append(contents, q, *av.Value)
	}
	if !seen["other"] {
		return nil, diag.New(diag.CodeQuantityNoOther, item.Name).At(item.FilePath)
	}
	return compose(contents, item)
}

// parseValueArray unmarshals the value node into dst, rejecting missing,
// mistyped and empty arrays.
func parseValueArray(raw json.RawMessage, dst any, item resource.Item) error {
	if len(raw) == 0 {
		return diag.New(diag.CodeJSONNodeMissing, item.Name+" value").At(item.FilePath)
	}
	var probe []json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return diag.New(diag.CodeJSONNodeMismatch, item.Name+" value", "array").At(item.FilePath)
	}
	if len(probe) == 0 {
		return diag.New(diag.CodeJSONNodeEmpty, item.Name+" value").At(item.FilePath)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return diag.New(diag.CodeJSONNodeMismatch, item.Name+" value", "array").At(item.FilePath)
	}
	return nil
}

func compose(contents []string, item resource.Item) ([]byte, error) {
	data, err := resource.ComposeStrings(contents, false)
	if err != nil {
		return nil, diag.New(diag.CodeArrayTooLarge, item.Name).At(item.FilePath)
	}
	return data, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func contentTypeNames() string {
	names := make([]string, 0, len(resource.ContentClusters))
	for name := range resource.ContentClusters {
		names = append(names, fmt.Sprintf("%q", name))
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ",") + "]"
}

// elementTypeNames lists the types the compiler has handlers for. The "id"
// cluster name is a reference target only, never an authorable element.
func elementTypeNames() string {
	names := make([]string, 0, len(resource.ContentClusters))
	for name, t := range resource.ContentClusters {
		if t == resource.ID {
			continue
		}
		names = append(names, fmt.Sprintf("%q", name))
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ",") + "]"
}

func quantityNames() string {
	names := make([]string, 0, len(quantities))
	for _, q := range quantities {
		names = append(names, fmt.Sprintf("%q", q))
	}
	return "[" + strings.Join(names, ",") + "]"
}
