package schema

import (
	"fmt"
	"strings"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
)

func renderInstructions(s *Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Respond with a single JSON object of type %s (%s).\n", s.Name(), s.Key())
	if s.Description() != "" {
		b.WriteString(s.Description())
		b.WriteString("\n")
	}
	b.WriteString("Return ONLY the JSON object. No prose, no markdown.\n\nRequired fields:\n")
	for _, f := range s.variant.Fields {
		if f.Required {
			writeField(&b, f, "- ")
		}
	}
	b.WriteString("\nOptional fields (omit when unknown):\n")
	for _, f := range s.variant.Fields {
		if !f.Required {
			writeField(&b, f, "- ")
		}
	}
	b.WriteString("\nExample:\n")
	b.WriteString(ExampleJSON(s.Key()))
	b.WriteString("\n")
	return b.String()
}

func writeField(b *strings.Builder, f domain.Field, indent string) {
	fmt.Fprintf(b, "%s%s (%s", indent, f.Name, describeKind(f))
	if f.Range != nil {
		fmt.Fprintf(b, ", %s to %s", formatBound(f.Range.Min), formatBound(f.Range.Max))
	}
	if f.NonEmpty {
		b.WriteString(", non-empty")
	}
	b.WriteString(")")
	if f.Description != "" {
		fmt.Fprintf(b, ": %s", f.Description)
	}
	if len(f.Enum) > 0 {
		fmt.Fprintf(b, ". One of: %s", strings.Join(f.Enum, ", "))
	}
	b.WriteString("\n")

	nested := f.Fields
	if f.Items != nil {
		nested = f.Items.Fields
	}
	for _, sub := range nested {
		writeField(b, sub, "  "+indent)
	}
}

func describeKind(f domain.Field) string {
	if f.Kind == domain.KindArray && f.Items != nil {
		return "array of " + string(f.Items.Kind)
	}
	return string(f.Kind)
}

func formatBound(v float64) string {
	return fmt.Sprintf("%g", v)
}
