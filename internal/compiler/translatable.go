package compiler

import (
	"encoding/json"
	"strings"

	"github.com/respack/respack/internal/diag"
	"github.com/respack/respack/internal/resource"
)

const (
	noTranslateStart = "{noTranslateStart}"
	noTranslateEnd   = "{noTranslateEnd}"
)

var priorities = []string{"code", "translate", "LT", "customer"}

// translatableAttr is the optional attr node of base-limit string-like
// entries.
type translatableAttr struct {
	Translatable *bool   `json:"translatable"`
	Priority     *string `json:"priority"`
}

// checkTranslatable validates the attr node of a base-limit entry and strips
// the no-translate tag pairs from its value strings. The entry comes back
// with a rewritten value node.
func checkTranslatable(e entry, t resource.Type, path string) (entry, error) {
	if len(e.Attr) > 0 {
		var attr translatableAttr
		if err := json.Unmarshal(e.Attr, &attr); err != nil {
			return e, diag.New(diag.CodeJSONNodeMismatch, "attr", "object").At(path)
		}
		if attr.Priority != nil && !contains(priorities, *attr.Priority) {
			return e, diag.New(diag.CodeInvalidTranslatePriority, *attr.Priority,
				`["code","translate","LT","customer"]`).At(path)
		}
	}

	switch t {
	case resource.String:
		var value string
		if err := json.Unmarshal(e.Value, &value); err != nil {
			return e, diag.New(diag.CodeJSONNodeMismatch, "value", "string").At(path)
		}
		e.Value, _ = json.Marshal(stripTranslateTags(value))

	case resource.StrArray:
		var arr []map[string]json.RawMessage
		if err := parseTranslatableArray(e.Value, &arr, path); err != nil {
			return e, err
		}
		for _, node := range arr {
			if err := stripNodeValue(node, path); err != nil {
				return e, err
			}
		}
		e.Value, _ = json.Marshal(arr)

	case resource.Plural:
		var arr []map[string]json.RawMessage
		if err := parseTranslatableArray(e.Value, &arr, path); err != nil {
			return e, err
		}
		for _, node := range arr {
			if err := stripNodeValue(node, path); err != nil {
				return e, err
			}
		}
		e.Value, _ = json.Marshal(arr)
	}
	return e, nil
}

func parseTranslatableArray(raw json.RawMessage, dst *[]map[string]json.RawMessage, path string) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return diag.New(diag.CodeJSONNodeMismatch, "value", "array").At(path)
	}
	if len(*dst) == 0 {
		return diag.New(diag.CodeJSONNodeEmpty, "value").At(path)
	}
	return nil
}

func stripNodeValue(node map[string]json.RawMessage, path string) error {
	rawValue, ok := node["value"]
	if !ok {
		return nil
	}
	var value string
	if err := json.Unmarshal(rawValue, &value); err != nil {
		return diag.New(diag.CodeJSONNodeMismatch, "value", "string").At(path)
	}
	node["value"], _ = json.Marshal(stripTranslateTags(value))
	return nil
}

// stripTranslateTags removes every matched {noTranslateStart}…{noTranslateEnd}
// pair, keeping the content between them. A value with unmatched or
// out-of-order tags comes back unmodified, tags and all.
func stripTranslateTags(s string) string {
	type span struct{ start, end int }
	var pairs []span
	startPos := strings.Index(s, noTranslateStart)
	endPos := strings.Index(s, noTranslateEnd)
	lastEnd := -1
	for startPos >= 0 || endPos >= 0 {
		if startPos < 0 || endPos < 0 || startPos >= endPos || startPos <= lastEnd {
			return s
		}
		pairs = append(pairs, span{start: startPos, end: endPos})
		lastEnd = endPos
		startPos = indexFrom(s, noTranslateStart, startPos+len(noTranslateStart))
		endPos = indexFrom(s, noTranslateEnd, lastEnd+len(noTranslateEnd))
	}
	if len(pairs) == 0 {
		return s
	}
	var b strings.Builder
	cursor := 0
	for _, p := range pairs {
		b.WriteString(s[cursor:p.start])
		b.WriteString(s[p.start+len(noTranslateStart) : p.end])
		cursor = p.end + len(noTranslateEnd)
	}
	b.WriteString(s[cursor:])
	return b.String()
}

func indexFrom(s, sub string, from int) int {
	if from >= len(s) {
		return -1
	}
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}
