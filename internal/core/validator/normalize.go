package validator

import (
	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/schema"
)

// normalize returns a deep copy of a valid intent with well-known optional
// fields defaulted. Required fields are never invented.
func normalize(t domain.IntentType, obj map[string]any) map[string]any {
	out := jsonv.Clone(obj).(map[string]any)
	dropNullOptionals(out, schema.SchemaFor(t).Optional())

	switch t {
	case domain.IntentMusicCommand:
		normalizeMusicCommand(out)
	case domain.IntentBatchCommand:
		cmds, _ := out["commands"].([]any)
		for _, el := range cmds {
			if cmd, ok := el.(map[string]any); ok {
				normalizeMusicCommand(cmd)
			}
		}
	case domain.IntentKnowledgeResponse:
		if _, ok := out["recommendations"]; !ok {
			out["recommendations"] = []any{}
		}
	case domain.IntentSearchEnhancement:
		if _, ok := out["filters"]; !ok {
			out["filters"] = map[string]any{}
		}
	}
	return out
}

var musicOptionals = schema.SchemaFor(domain.IntentMusicCommand).Optional()

func normalizeMusicCommand(cmd map[string]any) {
	dropNullOptionals(cmd, musicOptionals)
	if _, ok := cmd["alternatives"]; !ok {
		cmd["alternatives"] = []any{}
	}
	if mods, ok := cmd["modifiers"].(map[string]any); ok {
		if v, ok := mods["exclude"]; !ok || v == nil {
			mods["exclude"] = []any{}
		}
	}
}

func dropNullOptionals(obj map[string]any, optional []string) {
	for _, key := range optional {
		if v, ok := obj[key]; ok && v == nil {
			delete(obj, key)
		}
	}
}
