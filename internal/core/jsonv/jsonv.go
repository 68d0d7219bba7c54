// Package jsonv converts arbitrary Go values into the decoded-JSON value space
// (nil, bool, float64, string, []any, map[string]any) so the engine can treat
// backend output and typed structs alike.
package jsonv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Canonicalize returns v in decoded-JSON form. Values already in that form are
// deep-copied without a round trip; anything else is marshaled and decoded.
// Values encoding/json cannot represent return an error.
func Canonicalize(v any) (any, error) {
	if out, ok := canonicalFast(v); ok {
		return out, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jsonv: marshal %T: %w", v, err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("jsonv: decode %T: %w", v, err)
	}
	return out, nil
}

func canonicalFast(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case bool, string, float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, false
		}
		return f, true
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			c, ok := canonicalFast(el)
			if !ok {
				return nil, false
			}
			out[i] = c
		}
		return out, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, el := range x {
			c, ok := canonicalFast(el)
			if !ok {
				return nil, false
			}
			out[k] = c
		}
		return out, true
	}
	return nil, false
}

// Clone deep-copies a canonical value. Non-canonical leaves are kept as is.
func Clone(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, el := range x {
			out[i] = Clone(el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, el := range x {
			out[k] = Clone(el)
		}
		return out
	}
	return v
}

// Decode parses LLM output text. Surrounding whitespace and markdown code
// fences are stripped first. Anything that is not valid JSON returns nil.
func Decode(text string) any {
	text = stripFences(text)
	if text == "" {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(text))
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	if dec.More() {
		return nil
	}
	return out
}

// DecodeBytes is Decode for a byte slice.
func DecodeBytes(b []byte) any {
	return Decode(string(bytes.TrimSpace(b)))
}

func stripFences(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

// As decodes a canonical value into T, typically one of the domain variant
// structs.
func As[T any](v any) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("jsonv: marshal: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("jsonv: decode into %s: %w", reflect.TypeOf(out), err)
	}
	return out, nil
}

// Object returns v as a JSON object when it is one.
func Object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// Present reports whether key exists in obj with a non-null value.
func Present(obj map[string]any, key string) bool {
	v, ok := obj[key]
	return ok && v != nil
}

// Marshal renders a canonical value as indented JSON, for CLI output and
// prompt examples.
func Marshal(v any) (string, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("jsonv: marshal: %w", err)
	}
	return string(raw), nil
}
