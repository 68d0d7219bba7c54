package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMusicIntents_ClosedSet(t *testing.T) {
	intents := MusicIntents()
	require.Len(t, intents, 27)

	seen := map[string]bool{}
	for _, name := range intents {
		assert.False(t, seen[name], "duplicate intent %q", name)
		seen[name] = true
		assert.True(t, IsValidMusicIntent(name))
	}
	assert.False(t, IsValidMusicIntent("invalid_intent"))
}

func TestAccessorsReturnCopies(t *testing.T) {
	intents := MusicIntents()
	intents[0] = "mutated"
	assert.Equal(t, string(MusicPlaySpecificSong), MusicIntents()[0])

	v, ok := LookupVariant(IntentMusicCommand)
	require.True(t, ok)
	v.Fields[0].Enum[0] = "mutated"
	v.Fields[0].Name = "mutated"

	again, _ := LookupVariant(IntentMusicCommand)
	assert.Equal(t, "intent", again.Fields[0].Name)
	assert.Equal(t, string(MusicPlaySpecificSong), again.Fields[0].Enum[0])
}

func TestVariants_CoverEveryIntentType(t *testing.T) {
	got := map[IntentType]bool{}
	for _, v := range Variants() {
		got[v.Type] = true
		assert.NotEmpty(t, v.Fields, "variant %s has no fields", v.Type)
	}
	for _, it := range IntentTypes() {
		assert.True(t, got[it], "missing variant for %s", it)
		assert.True(t, it.Known())
	}
	assert.False(t, IntentType("nope").Known())
}

func TestLookupVariant_Unknown(t *testing.T) {
	_, ok := LookupVariant("nope")
	assert.False(t, ok)
}

func TestClassificationOrder_Priority(t *testing.T) {
	order := ClassificationOrder()
	require.Len(t, order, 4)
	want := []IntentType{IntentBatchCommand, IntentErrorResponse, IntentSearchEnhancement, IntentKnowledgeResponse}
	for i, sig := range order {
		assert.Equal(t, want[i], sig.Type)
		assert.NotEmpty(t, sig.Keys)
	}
}
