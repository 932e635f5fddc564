// Package jsonx recovers JSON values from noisy language-model output.
// Models asked for JSON routinely wrap it in markdown fences or prose, or
// emit near-miss syntax such as trailing commas and Python-literal nulls.
// Each recovery stage is strictly more invasive than the last, so rewrites
// only touch text that already failed a cheaper parse.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceOpenRe   = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	fenceCloseRe  = regexp.MustCompile("\\s*```$")
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	objectSpanRe  = regexp.MustCompile(`(?s)\{.*\}`)
	emptyValueRe  = regexp.MustCompile(`:\s*,`)
	noneTokenRe   = regexp.MustCompile(`\b(?:None|NULL)\b`)
)

// IsSentinel reports whether v is the failure sentinel produced by Decode.
func IsSentinel(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, hasRaw := m["raw_output"]
	return hasRaw && m["error"] == "Invalid JSON"
}

// Decode extracts a JSON value from raw. It never fails: when every stage is
// exhausted the documented sentinel map is returned instead.
func Decode(raw string) any {
	text := strings.TrimSpace(raw)
	text = fenceOpenRe.ReplaceAllString(text, "")
	text = fenceCloseRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if v, ok := tryParse(text); ok {
		return v
	}

	// Model may have surrounded the object with prose; retry on the first
	// {...} span alone.
	if span := objectSpanRe.FindString(text); span != "" {
		if v, ok := tryParse(span); ok {
			return v
		}
		text = span
	}

	// Last resort: rewrite Python-literal nulls and dangling value positions.
	text = noneTokenRe.ReplaceAllString(text, "null")
	text = emptyValueRe.ReplaceAllString(text, ": null,")
	if v, ok := tryParse(text); ok {
		return v
	}

	return map[string]any{"error": "Invalid JSON", "raw_output": raw}
}

// DecodeObject is Decode constrained to a JSON object. Non-object results,
// including the sentinel, are reported through ok=false with the sentinel map
// still returned for callers that persist raw output.
func DecodeObject(raw string) (map[string]any, bool) {
	v := Decode(raw)
	m, isMap := v.(map[string]any)
	if !isMap {
		return map[string]any{"error": "Invalid JSON", "raw_output": raw}, false
	}
	if IsSentinel(m) {
		return m, false
	}
	return m, true
}

func tryParse(text string) (any, bool) {
	if text == "" {
		return nil, false
	}
	cleaned := trailingComma.ReplaceAllString(text, "$1")
	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, false
	}
	return v, true
}
