// Package fixtures builds minimal valid intents for tests and the regression
// battery.
package fixtures

import (
	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
)

type omit struct{}

// Omit, used as an override value, removes the field from the fixture.
var Omit = omit{}

// BuildFixture returns a minimal valid music command (intent "play") with
// overrides applied on top. Override values are deep-copied.
func BuildFixture(overrides map[string]any) map[string]any {
	out := map[string]any{
		"intent":     string(domain.MusicPlay),
		"confidence": 0.8,
		"reasoning":  "User asked to start playback.",
	}
	return apply(out, overrides)
}

// BuildBatch wraps commands in a minimal valid batch command.
func BuildBatch(commands ...map[string]any) map[string]any {
	cmds := make([]any, len(commands))
	for i, c := range commands {
		cmds[i] = jsonv.Clone(c)
	}
	return map[string]any{
		"commands":       cmds,
		"executionOrder": string(domain.ExecutionSequential),
	}
}

// BuildSearchEnhancement returns a minimal valid search enhancement.
func BuildSearchEnhancement(overrides map[string]any) map[string]any {
	out := map[string]any{
		"originalQuery": "that song from the car commercial",
		"enhancedQuery": "track:Pink Moon artist:Nick Drake",
		"searchType":    string(domain.SearchTrack),
		"explanation":   "Matched a well known advert soundtrack.",
	}
	return apply(out, overrides)
}

// BuildKnowledgeResponse returns a minimal valid knowledge response.
func BuildKnowledgeResponse(overrides map[string]any) map[string]any {
	out := map[string]any{
		"query":      "Who wrote Jolene?",
		"answer":     "Dolly Parton wrote and recorded Jolene in 1973.",
		"confidence": 0.9,
	}
	return apply(out, overrides)
}

// BuildErrorResponse returns a minimal valid error response.
func BuildErrorResponse(overrides map[string]any) map[string]any {
	return apply(map[string]any{"error": "Could not understand the request."}, overrides)
}

func apply(base, overrides map[string]any) map[string]any {
	for k, v := range overrides {
		if _, ok := v.(omit); ok {
			delete(base, k)
			continue
		}
		base[k] = jsonv.Clone(v)
	}
	return base
}
