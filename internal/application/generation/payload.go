package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON pulls the JSON document out of raw model output. Models wrap
// payloads in Markdown code fences or prose despite JSON-mode instructions,
// so we strip fences and cut to the outermost object or array.
func ExtractJSON(text string) []byte {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	start, end := objStart, strings.LastIndexByte(cleaned, '}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, end = arrStart, strings.LastIndexByte(cleaned, ']')
	}
	if start == -1 || end <= start {
		return []byte(cleaned)
	}
	return []byte(cleaned[start : end+1])
}

// DecodeObject unmarshals model output into v after JSON extraction.
func DecodeObject(text string, v any) error {
	raw := ExtractJSON(text)
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode generation payload: %w", err)
	}
	return nil
}

// DecodeList unmarshals model output expected to be a JSON array of T.
// Providers differ in how they wrap arrays, so a fixed set of strategies is
// tried in order: a bare array, an object keyed by one of the given
// alternate keys, then an object whose single value is an array. Adding a
// new provider quirk means adding one alternate key at the call site.
func DecodeList[T any](text string, altKeys ...string) ([]T, error) {
	raw := ExtractJSON(text)

	var direct []T
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("decode generation payload: %w", err)
	}

	for _, key := range altKeys {
		if inner, ok := wrapper[key]; ok {
			var out []T
			if err := json.Unmarshal(inner, &out); err == nil {
				return out, nil
			}
		}
	}

	if len(wrapper) == 1 {
		for _, inner := range wrapper {
			var out []T
			if err := json.Unmarshal(inner, &out); err == nil {
				return out, nil
			}
		}
	}

	return nil, fmt.Errorf("decode generation payload: no array found under keys %v", altKeys)
}
