package domain

// FieldKind is the JSON primitive a field must decode to.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindInteger FieldKind = "integer"
	KindBoolean FieldKind = "boolean"
	KindArray   FieldKind = "array"
	KindObject  FieldKind = "object"
)

// Range is an inclusive numeric bound.
type Range struct {
	Min float64
	Max float64
}

// Field describes one member of a variant. Items is set for arrays, Fields for
// objects with a known shape.
type Field struct {
	Name        string
	Kind        FieldKind
	Required    bool
	NonEmpty    bool
	Enum        []string
	Range       *Range
	Items       *Field
	Fields      []Field
	Description string
}

// Clone returns a deep copy of f.
func (f Field) Clone() Field {
	out := f
	if f.Enum != nil {
		out.Enum = append([]string(nil), f.Enum...)
	}
	if f.Range != nil {
		r := *f.Range
		out.Range = &r
	}
	if f.Items != nil {
		items := f.Items.Clone()
		out.Items = &items
	}
	if f.Fields != nil {
		out.Fields = cloneFields(f.Fields)
	}
	return out
}

func cloneFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

// Variant is one member of the intent tagged union.
type Variant struct {
	Type        IntentType
	Name        string
	Description string
	Fields      []Field
}

// Signature is the set of keys whose joint presence selects a variant during
// classification.
type Signature struct {
	Type IntentType
	Keys []string
}

var (
	musicIntents = []string{
		string(MusicPlaySpecificSong), string(MusicQueueSpecificSong), string(MusicQueueMultiple),
		string(MusicPlayPlaylist), string(MusicQueuePlaylist), string(MusicPlay), string(MusicPause),
		string(MusicResume), string(MusicSkip), string(MusicNext), string(MusicPrevious), string(MusicBack),
		string(MusicSetVolume), string(MusicVolume), string(MusicGetCurrentTrack), string(MusicSetShuffle),
		string(MusicSetRepeat), string(MusicClearQueue), string(MusicGetDevices), string(MusicGetPlaylists),
		string(MusicGetPlaylistTracks), string(MusicRecommendations), string(MusicGetPlaybackInfo),
		string(MusicSearch), string(MusicChat), string(MusicAskQuestion), string(MusicUnknown),
	}
	searchTypes     = []string{string(SearchTrack), string(SearchArtist), string(SearchAlbum), string(SearchPlaylist)}
	executionOrders = []string{string(ExecutionSequential), string(ExecutionParallel)}
	obscurityLevels = []string{"popular", "obscure", "rare", "deep_cut", "hidden"}
	versionTypes    = []string{"original", "remix", "acoustic", "live", "cover", "remaster"}
)

// MusicIntents returns the closed set of music command names.
func MusicIntents() []string { return append([]string(nil), musicIntents...) }

// SearchTypes returns the closed set of searchType values.
func SearchTypes() []string { return append([]string(nil), searchTypes...) }

// ExecutionOrders returns the closed set of executionOrder values.
func ExecutionOrders() []string { return append([]string(nil), executionOrders...) }

// ObscurityLevels returns the closed set of modifiers.obscurity values.
func ObscurityLevels() []string { return append([]string(nil), obscurityLevels...) }

// VersionTypes returns the closed set of modifiers.version values.
func VersionTypes() []string { return append([]string(nil), versionTypes...) }

// IsValidMusicIntent reports whether name is a canonical command name.
func IsValidMusicIntent(name string) bool {
	for _, v := range musicIntents {
		if v == name {
			return true
		}
	}
	return false
}

var unitRange = &Range{Min: 0, Max: 1}
var percentRange = &Range{Min: 0, Max: 100}

var modifierFields = []Field{
	{Name: "obscurity", Kind: KindString, Enum: obscurityLevels, Description: "how mainstream the result should be"},
	{Name: "version", Kind: KindString, Enum: versionTypes, Description: "which recording of the song"},
	{Name: "mood", Kind: KindString},
	{Name: "era", Kind: KindString},
	{Name: "genre", Kind: KindString},
	{Name: "exclude", Kind: KindArray, Items: &Field{Kind: KindString}, Description: "terms the result must not match"},
}

var songFields = []Field{
	{Name: "artist", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "track", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "album", Kind: KindString},
}

var recommendationFields = []Field{
	{Name: "artist", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "track", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "reason", Kind: KindString, Required: true},
	{Name: "spotifyQuery", Kind: KindString, Required: true},
}

var musicCommandFields = []Field{
	{Name: "intent", Kind: KindString, Required: true, Enum: musicIntents, Description: "the command to execute"},
	{Name: "confidence", Kind: KindNumber, Required: true, Range: unitRange, Description: "certainty between 0 and 1"},
	{Name: "reasoning", Kind: KindString, Required: true, NonEmpty: true, Description: "why this interpretation was chosen"},
	{Name: "query", Kind: KindString, Description: "search text for the requested music"},
	{Name: "artist", Kind: KindString},
	{Name: "track", Kind: KindString},
	{Name: "album", Kind: KindString},
	{Name: "value", Kind: KindNumber, Description: "generic numeric argument"},
	{Name: "volume_level", Kind: KindInteger, Range: percentRange, Description: "target volume between 0 and 100"},
	{Name: "enabled", Kind: KindBoolean, Description: "on/off for shuffle and repeat"},
	{Name: "modifiers", Kind: KindObject, Fields: modifierFields},
	{Name: "alternatives", Kind: KindArray, Items: &Field{Kind: KindString}, Description: "fallback queries"},
	{Name: "enhancedQuery", Kind: KindString},
	{Name: "responseMessage", Kind: KindString, Description: "short message shown to the user"},
	{Name: "songs", Kind: KindArray, Items: &Field{Kind: KindObject, Fields: songFields}},
	{Name: "theme", Kind: KindString},
}

var searchEnhancementFields = []Field{
	{Name: "originalQuery", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "enhancedQuery", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "searchType", Kind: KindString, Required: true, Enum: searchTypes},
	{Name: "filters", Kind: KindObject},
	{Name: "popularity", Kind: KindObject, Fields: []Field{
		{Name: "min", Kind: KindNumber, Range: percentRange},
		{Name: "max", Kind: KindNumber, Range: percentRange},
	}},
	{Name: "explanation", Kind: KindString, Required: true},
}

var knowledgeResponseFields = []Field{
	{Name: "query", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "answer", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "recommendations", Kind: KindArray, Items: &Field{Kind: KindObject, Fields: recommendationFields}},
	{Name: "context", Kind: KindString},
	{Name: "confidence", Kind: KindNumber, Required: true, Range: unitRange},
}

var errorResponseFields = []Field{
	{Name: "error", Kind: KindString, Required: true, NonEmpty: true},
	{Name: "suggestion", Kind: KindString},
	{Name: "fallback", Kind: KindString},
}

var batchCommandFields = []Field{
	{Name: "commands", Kind: KindArray, Required: true, NonEmpty: true,
		Items: &Field{Kind: KindObject, Fields: musicCommandFields}},
	{Name: "executionOrder", Kind: KindString, Required: true, Enum: executionOrders},
	{Name: "context", Kind: KindString},
}

var variants = []Variant{
	{Type: IntentMusicCommand, Name: "MusicCommandIntent",
		Description: "A playback command interpreted from the user's request.", Fields: musicCommandFields},
	{Type: IntentSearchEnhancement, Name: "SpotifySearchEnhancement",
		Description: "A vague search rewritten into a precise Spotify query.", Fields: searchEnhancementFields},
	{Type: IntentKnowledgeResponse, Name: "MusicKnowledgeResponse",
		Description: "An answer to a question about music, with optional recommendations.", Fields: knowledgeResponseFields},
	{Type: IntentErrorResponse, Name: "ErrorResponse",
		Description: "The request could not be interpreted.", Fields: errorResponseFields},
	{Type: IntentBatchCommand, Name: "BatchCommand",
		Description: "Several music commands executed together.", Fields: batchCommandFields},
}

// Variants returns a deep copy of every variant definition.
func Variants() []Variant {
	out := make([]Variant, len(variants))
	for i, v := range variants {
		out[i] = v
		out[i].Fields = cloneFields(v.Fields)
	}
	return out
}

// LookupVariant returns a deep copy of the variant registered under t.
func LookupVariant(t IntentType) (Variant, bool) {
	for _, v := range variants {
		if v.Type == t {
			v.Fields = cloneFields(v.Fields)
			return v, true
		}
	}
	return Variant{}, false
}

// ClassificationOrder is the fixed priority in which variant signatures are
// tested. The first signature whose keys are all present wins; an object
// matching none is a music_command. Several variants share optional names
// (query, context, confidence), so reordering changes results.
func ClassificationOrder() []Signature {
	return []Signature{
		{Type: IntentBatchCommand, Keys: []string{"commands"}},
		{Type: IntentErrorResponse, Keys: []string{"error"}},
		{Type: IntentSearchEnhancement, Keys: []string{"originalQuery", "searchType"}},
		{Type: IntentKnowledgeResponse, Keys: []string{"query", "answer"}},
	}
}

// Expectation is a soft rule: when a music command carries Intent, at least one
// of AnyOf should be present.
type Expectation struct {
	Intent MusicIntent
	AnyOf  []string
}

// CompanionExpectations lists the soft companion-field rules checked after the
// structural pass.
func CompanionExpectations() []Expectation {
	return []Expectation{
		{Intent: MusicSetVolume, AnyOf: []string{"volume_level", "value"}},
		{Intent: MusicSetShuffle, AnyOf: []string{"enabled"}},
		{Intent: MusicSetRepeat, AnyOf: []string{"enabled"}},
		{Intent: MusicPlaySpecificSong, AnyOf: []string{"query", "track"}},
		{Intent: MusicQueueSpecificSong, AnyOf: []string{"query", "track"}},
		{Intent: MusicQueueMultiple, AnyOf: []string{"songs"}},
		{Intent: MusicPlayPlaylist, AnyOf: []string{"query"}},
		{Intent: MusicQueuePlaylist, AnyOf: []string{"query"}},
	}
}
