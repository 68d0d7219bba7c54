package schema

import (
	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
)

var examples = map[domain.IntentType]map[string]any{
	domain.IntentMusicCommand: {
		"intent":       string(domain.MusicPlaySpecificSong),
		"confidence":   0.92,
		"reasoning":    "The user named a specific song and artist.",
		"query":        "Paranoid Android Radiohead",
		"artist":       "Radiohead",
		"track":        "Paranoid Android",
		"alternatives": []any{"Radiohead OK Computer"},
		"modifiers": map[string]any{
			"version": "original",
			"exclude": []any{"live"},
		},
	},
	domain.IntentSearchEnhancement: {
		"originalQuery": "that sad song from the whale movie",
		"enhancedQuery": "track:Hoppípolla artist:Sigur Rós",
		"searchType":    string(domain.SearchTrack),
		"filters":       map[string]any{},
		"popularity":    map[string]any{"min": 20.0, "max": 90.0},
		"explanation":   "The description matches a well known film soundtrack.",
	},
	domain.IntentKnowledgeResponse: {
		"query":  "Who produced Kind of Blue?",
		"answer": "Teo Macero produced Kind of Blue for Columbia in 1959.",
		"recommendations": []any{
			map[string]any{
				"artist":       "Miles Davis",
				"track":        "So What",
				"reason":       "Opening track of the album.",
				"spotifyQuery": "track:So What artist:Miles Davis",
			},
		},
		"confidence": 0.85,
	},
	domain.IntentErrorResponse: {
		"error":      "The request did not mention any music.",
		"suggestion": "Try naming a song, artist or playlist.",
	},
	domain.IntentBatchCommand: {
		"commands": []any{
			map[string]any{
				"intent":       string(domain.MusicSetVolume),
				"confidence":   0.95,
				"reasoning":    "Explicit volume request.",
				"volume_level": 30.0,
				"alternatives": []any{},
			},
			map[string]any{
				"intent":       string(domain.MusicPlayPlaylist),
				"confidence":   0.88,
				"reasoning":    "Explicit playlist request.",
				"query":        "Discover Weekly",
				"alternatives": []any{},
			},
		},
		"executionOrder": string(domain.ExecutionSequential),
	},
}

// Example returns a fresh copy of the canonical example object for key.
func Example(key domain.IntentType) map[string]any {
	return jsonv.Clone(examples[resolve(key)]).(map[string]any)
}

// ExampleJSON is Example rendered as indented JSON.
func ExampleJSON(key domain.IntentType) string {
	out, err := jsonv.Marshal(examples[resolve(key)])
	if err != nil {
		return "{}"
	}
	return out
}
