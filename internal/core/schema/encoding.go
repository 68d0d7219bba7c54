package schema

import (
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
)

// Encoding names one physical rendering of a variant schema.
type Encoding string

const (
	EncodingPrompt     Encoding = "prompt"
	EncodingJSONSchema Encoding = "json_schema"
	EncodingStrict     Encoding = "strict_json_schema"
	EncodingGemini     Encoding = "gemini"
)

var ErrUnknownEncoding = errors.New("schema: unknown encoding")

// Encodings lists every supported encoding.
func Encodings() []Encoding {
	return []Encoding{EncodingPrompt, EncodingJSONSchema, EncodingStrict, EncodingGemini}
}

// ParseEncoding maps a user-supplied name to an Encoding. The empty string
// selects json_schema.
func ParseEncoding(s string) (Encoding, error) {
	if s == "" {
		return EncodingJSONSchema, nil
	}
	for _, e := range Encodings() {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// Describe renders key in the requested encoding: a string for prompt, a
// map for the JSON Schema forms and *genai.Schema for gemini.
func Describe(key domain.IntentType, enc Encoding) (any, error) {
	switch enc {
	case EncodingPrompt:
		return InstructionsFor(key), nil
	case EncodingJSONSchema:
		return JSONSchema(key), nil
	case EncodingStrict:
		return StrictJSONSchema(key), nil
	case EncodingGemini:
		return GeminiSchema(key), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
}

// JSONSchema returns a draft 2020-12 style JSON Schema for key.
func JSONSchema(key domain.IntentType) map[string]any {
	s := SchemaFor(key)
	out := objectSchema(s.variant.Fields, false)
	out["title"] = s.Name()
	out["description"] = s.Description()
	return out
}

// StrictJSONSchema returns the OpenAI structured-output form of key: every
// property is listed as required, optional properties accept null and no
// object admits additional properties.
func StrictJSONSchema(key domain.IntentType) map[string]any {
	s := SchemaFor(key)
	out := objectSchema(s.variant.Fields, true)
	out["title"] = s.Name()
	out["description"] = s.Description()
	return out
}

func objectSchema(fields []domain.Field, strict bool) map[string]any {
	props := make(map[string]any, len(fields))
	required := make([]any, 0, len(fields))
	for _, f := range fields {
		props[f.Name] = fieldSchema(f, strict, !f.Required)
		if f.Required || strict {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
	if strict {
		out["additionalProperties"] = false
	}
	return out
}

func fieldSchema(f domain.Field, strict, nullable bool) map[string]any {
	var out map[string]any
	switch {
	case f.Kind == domain.KindObject && (len(f.Fields) > 0 || strict):
		out = objectSchema(f.Fields, strict)
	default:
		out = map[string]any{"type": string(f.Kind)}
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	if len(f.Enum) > 0 {
		enum := make([]any, 0, len(f.Enum)+1)
		for _, v := range f.Enum {
			enum = append(enum, v)
		}
		if strict && nullable {
			enum = append(enum, nil)
		}
		out["enum"] = enum
	}
	if f.Range != nil {
		out["minimum"] = f.Range.Min
		out["maximum"] = f.Range.Max
	}
	if f.NonEmpty {
		switch f.Kind {
		case domain.KindString:
			out["minLength"] = 1
		case domain.KindArray:
			out["minItems"] = 1
		}
	}
	if f.Kind == domain.KindArray && f.Items != nil {
		out["items"] = fieldSchema(*f.Items, strict, false)
	}
	if strict && nullable {
		out["type"] = []any{out["type"], "null"}
	}
	return out
}

// GeminiSchema returns the response schema passed to Gemini through
// GenerateContentConfig.ResponseSchema.
func GeminiSchema(key domain.IntentType) *genai.Schema {
	s := SchemaFor(key)
	out := geminiObject(s.variant.Fields)
	out.Title = s.Name()
	out.Description = s.Description()
	return out
}

var geminiTypes = map[domain.FieldKind]genai.Type{
	domain.KindString:  genai.TypeString,
	domain.KindNumber:  genai.TypeNumber,
	domain.KindInteger: genai.TypeInteger,
	domain.KindBoolean: genai.TypeBoolean,
	domain.KindArray:   genai.TypeArray,
	domain.KindObject:  genai.TypeObject,
}

func geminiObject(fields []domain.Field) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		out.Properties[f.Name] = geminiField(f)
		out.PropertyOrdering = append(out.PropertyOrdering, f.Name)
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func geminiField(f domain.Field) *genai.Schema {
	var out *genai.Schema
	if f.Kind == domain.KindObject && len(f.Fields) > 0 {
		out = geminiObject(f.Fields)
	} else {
		out = &genai.Schema{Type: geminiTypes[f.Kind]}
	}
	out.Description = f.Description
	if len(f.Enum) > 0 {
		out.Format = "enum"
		out.Enum = append([]string(nil), f.Enum...)
	}
	if f.Range != nil {
		out.Minimum = genai.Ptr(f.Range.Min)
		out.Maximum = genai.Ptr(f.Range.Max)
	}
	if f.Kind == domain.KindArray && f.Items != nil {
		out.Items = geminiField(*f.Items)
	}
	if f.NonEmpty && f.Kind == domain.KindArray {
		out.MinItems = genai.Ptr[int64](1)
	}
	return out
}
