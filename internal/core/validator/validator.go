// Package validator classifies untyped backend output into one intent
// variant, checks it against that variant's schema and optionally returns a
// normalized copy. It never panics and never mutates its input.
package validator

import (
	"fmt"
	"math"
	"strings"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/schema"
)

// Issue codes.
const (
	CodeInvalidInput     = "invalid_input"
	CodeMissingField     = "missing_field"
	CodeInvalidType      = "invalid_type"
	CodeEmptyValue       = "empty_value"
	CodeInvalidEnum      = "invalid_enum"
	CodeOutOfRange       = "out_of_range"
	CodeMissingCompanion = "missing_companion"
)

type Issue = domain.Issue

// Options toggle the two independent behaviours of a validation pass.
type Options struct {
	// Strict promotes every warning to an error.
	Strict bool
	// Normalize returns a canonical deep copy when the intent is valid.
	Normalize bool
}

// Result is the outcome of one validation pass. IntentType is empty when the
// input could not be classified at all.
type Result struct {
	IsValid          bool              `json:"isValid"`
	IntentType       domain.IntentType `json:"intentType,omitempty"`
	Errors           []Issue           `json:"errors"`
	Warnings         []Issue           `json:"warnings"`
	NormalizedIntent map[string]any    `json:"normalizedIntent,omitempty"`
}

type collector struct {
	errors   []Issue
	warnings []Issue
}

func (c *collector) errorf(field, code, format string, args ...any) {
	c.errors = append(c.errors, Issue{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) warnf(field, code, format string, args ...any) {
	c.warnings = append(c.warnings, Issue{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

// Validate checks raw, which may be nil, a decoded JSON value or any value
// encoding/json can marshal.
func Validate(raw any, opts Options) Result {
	c := &collector{}

	canonical, err := jsonv.Canonicalize(raw)
	if err != nil {
		c.errorf("", CodeInvalidInput, "Intent could not be read as JSON: %v", err)
		return c.result("", nil)
	}
	obj, ok := precondition(canonical, c)
	if !ok {
		return c.result("", nil)
	}

	// 1. Classify
	t := classify(obj)
	s := schema.SchemaFor(t)

	// 2. Structural checks
	checkFields(obj, s.Fields(), "", c)

	// 3. Companion-field checks
	switch t {
	case domain.IntentMusicCommand:
		checkCompanions(obj, "", c)
	case domain.IntentBatchCommand:
		if cmds, ok := obj["commands"].([]any); ok {
			for i, el := range cmds {
				if cmd, ok := el.(map[string]any); ok {
					checkCompanions(cmd, fmt.Sprintf("commands[%d].", i), c)
				}
			}
		}
	}

	// 4. Strict promotion
	if opts.Strict && len(c.warnings) > 0 {
		c.errors = append(c.errors, c.warnings...)
		c.warnings = nil
	}

	// 5. Normalize
	var normalized map[string]any
	if opts.Normalize && len(c.errors) == 0 {
		normalized = normalize(t, obj)
	}
	return c.result(t, normalized)
}

// ValidateMany validates every element in order. An invalid element never
// stops the rest.
func ValidateMany(raws []any, opts Options) []Result {
	out := make([]Result, len(raws))
	for i, raw := range raws {
		out[i] = Validate(raw, opts)
	}
	return out
}

// Classify reports which variant raw claims to be. ok is false when raw is
// not a non-empty object.
func Classify(raw any) (t domain.IntentType, ok bool) {
	canonical, err := jsonv.Canonicalize(raw)
	if err != nil {
		return "", false
	}
	obj, ok := canonical.(map[string]any)
	if !ok || len(obj) == 0 {
		return "", false
	}
	return classify(obj), true
}

func classify(obj map[string]any) domain.IntentType {
	for _, sig := range domain.ClassificationOrder() {
		matched := true
		for _, key := range sig.Keys {
			if !jsonv.Present(obj, key) {
				matched = false
				break
			}
		}
		if matched {
			return sig.Type
		}
	}
	return domain.DefaultIntentType
}

func precondition(v any, c *collector) (map[string]any, bool) {
	if v == nil {
		c.errorf("", CodeInvalidInput, "Intent is null or undefined")
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		c.errorf("", CodeInvalidInput, "Intent must be a JSON object, got %s", kindOf(v))
		return nil, false
	}
	if len(obj) == 0 {
		c.errorf("", CodeInvalidInput, "Intent is an empty object")
		return nil, false
	}
	return obj, true
}

func (c *collector) result(t domain.IntentType, normalized map[string]any) Result {
	r := Result{
		IsValid:          len(c.errors) == 0,
		IntentType:       t,
		Errors:           c.errors,
		Warnings:         c.warnings,
		NormalizedIntent: normalized,
	}
	if r.Errors == nil {
		r.Errors = []Issue{}
	}
	if r.Warnings == nil {
		r.Warnings = []Issue{}
	}
	return r
}

func checkFields(obj map[string]any, fields []domain.Field, prefix string, c *collector) {
	for _, f := range fields {
		path := prefix + f.Name
		v := obj[f.Name]
		if v == nil {
			if f.Required {
				c.errorf(path, CodeMissingField, "Missing required field %q", path)
			}
			continue
		}
		checkValue(v, f, path, c)
	}
}

func checkValue(v any, f domain.Field, path string, c *collector) {
	if !kindMatches(v, f.Kind) {
		c.errorf(path, CodeInvalidType, "Field %q must be %s", path, article(f.Kind))
		return
	}

	switch x := v.(type) {
	case string:
		if f.NonEmpty && strings.TrimSpace(x) == "" {
			c.errorf(path, CodeEmptyValue, "Field %q must be a non-empty string", path)
			return
		}
		if len(f.Enum) > 0 && !contains(f.Enum, x) {
			c.errorf(path, CodeInvalidEnum, "Invalid %s %q. Must be one of: %s", path, x, strings.Join(f.Enum, ", "))
		}
	case float64:
		if f.Range != nil && (x < f.Range.Min || x > f.Range.Max) {
			c.errorf(path, CodeOutOfRange, "Field %q must be between %g and %g", path, f.Range.Min, f.Range.Max)
		}
	case []any:
		if f.NonEmpty && len(x) == 0 {
			c.errorf(path, CodeEmptyValue, "Field %q must be a non-empty array", path)
			return
		}
		if f.Items == nil {
			return
		}
		for i, el := range x {
			elPath := fmt.Sprintf("%s[%d]", path, i)
			if el == nil {
				c.errorf(elPath, CodeInvalidType, "Field %q must be %s", elPath, article(f.Items.Kind))
				continue
			}
			checkValue(el, *f.Items, elPath, c)
		}
	case map[string]any:
		if len(f.Fields) > 0 {
			checkFields(x, f.Fields, path+".", c)
		}
	}
}

func checkCompanions(obj map[string]any, prefix string, c *collector) {
	intent, _ := obj["intent"].(string)
	for _, exp := range domain.CompanionExpectations() {
		if string(exp.Intent) != intent {
			continue
		}
		found := false
		for _, key := range exp.AnyOf {
			if jsonv.Present(obj, key) {
				found = true
				break
			}
		}
		if found {
			continue
		}
		quoted := make([]string, len(exp.AnyOf))
		for i, key := range exp.AnyOf {
			quoted[i] = fmt.Sprintf("%q", key)
		}
		c.warnf(prefix+exp.AnyOf[0], CodeMissingCompanion,
			"%s intent should include %s", intent, strings.Join(quoted, " or "))
	}
}

func kindMatches(v any, k domain.FieldKind) bool {
	switch k {
	case domain.KindString:
		_, ok := v.(string)
		return ok
	case domain.KindNumber:
		f, ok := v.(float64)
		return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
	case domain.KindInteger:
		f, ok := v.(float64)
		return ok && !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
	case domain.KindBoolean:
		_, ok := v.(bool)
		return ok
	case domain.KindArray:
		_, ok := v.([]any)
		return ok
	case domain.KindObject:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func article(k domain.FieldKind) string {
	switch k {
	case domain.KindInteger, domain.KindArray, domain.KindObject:
		return "an " + string(k)
	}
	return "a " + string(k)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
