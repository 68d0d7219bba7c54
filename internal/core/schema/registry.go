// Package schema is the load-once registry of intent variants. Every backend
// encoding (JSON Schema, OpenAI strict schema, Gemini response schema, prompt
// instructions) is derived from the taxonomy in package domain, so enum values
// cannot drift between backends.
package schema

import (
	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
)

// Schema is the immutable description of one variant. Accessors return
// copies; the registry exposes no mutation path.
type Schema struct {
	variant  domain.Variant
	required []string
	optional []string
}

func (s *Schema) Key() domain.IntentType { return s.variant.Type }

func (s *Schema) Name() string { return s.variant.Name }

func (s *Schema) Description() string { return s.variant.Description }

// Fields returns a deep copy of the field definitions in declaration order.
func (s *Schema) Fields() []domain.Field {
	out := make([]domain.Field, len(s.variant.Fields))
	for i, f := range s.variant.Fields {
		out[i] = f.Clone()
	}
	return out
}

// Field returns a copy of the named top-level field.
func (s *Schema) Field(name string) (domain.Field, bool) {
	for _, f := range s.variant.Fields {
		if f.Name == name {
			return f.Clone(), true
		}
	}
	return domain.Field{}, false
}

func (s *Schema) Required() []string { return append([]string(nil), s.required...) }

func (s *Schema) Optional() []string { return append([]string(nil), s.optional...) }

var (
	schemas      map[domain.IntentType]*Schema
	instructions map[domain.IntentType]string
)

func init() {
	schemas = make(map[domain.IntentType]*Schema)
	instructions = make(map[domain.IntentType]string)
	for _, v := range domain.Variants() {
		s := &Schema{variant: v}
		for _, f := range v.Fields {
			if f.Required {
				s.required = append(s.required, f.Name)
			} else {
				s.optional = append(s.optional, f.Name)
			}
		}
		schemas[v.Type] = s
	}
	for key, s := range schemas {
		instructions[key] = renderInstructions(s)
	}
}

func resolve(key domain.IntentType) domain.IntentType {
	if _, ok := schemas[key]; ok {
		return key
	}
	return domain.DefaultIntentType
}

// SchemaFor returns the schema registered under key. Unknown keys fall back
// to the music_command schema, the most common case.
func SchemaFor(key domain.IntentType) *Schema {
	return schemas[resolve(key)]
}

// InstructionsFor returns the generation instructions for key, with the same
// fallback as SchemaFor.
func InstructionsFor(key domain.IntentType) string {
	return instructions[resolve(key)]
}
