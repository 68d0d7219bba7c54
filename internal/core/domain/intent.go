package domain

// IntentType is the registry key of one intent variant.
type IntentType string

const (
	IntentMusicCommand      IntentType = "music_command"
	IntentSearchEnhancement IntentType = "search_enhancement"
	IntentKnowledgeResponse IntentType = "knowledge_response"
	IntentErrorResponse     IntentType = "error_response"
	IntentBatchCommand      IntentType = "batch_command"
)

// DefaultIntentType is used when no other variant signature matches and as the
// registry fallback for unknown keys.
const DefaultIntentType = IntentMusicCommand

// IntentTypes lists every variant key in declaration order.
func IntentTypes() []IntentType {
	return []IntentType{
		IntentMusicCommand,
		IntentSearchEnhancement,
		IntentKnowledgeResponse,
		IntentErrorResponse,
		IntentBatchCommand,
	}
}

// Known reports whether t is one of the five variant keys.
func (t IntentType) Known() bool {
	switch t {
	case IntentMusicCommand, IntentSearchEnhancement, IntentKnowledgeResponse,
		IntentErrorResponse, IntentBatchCommand:
		return true
	}
	return false
}

// MusicIntent is the command name carried in MusicCommandIntent.Intent.
type MusicIntent string

const (
	MusicPlaySpecificSong  MusicIntent = "play_specific_song"
	MusicQueueSpecificSong MusicIntent = "queue_specific_song"
	MusicQueueMultiple     MusicIntent = "queue_multiple_songs"
	MusicPlayPlaylist      MusicIntent = "play_playlist"
	MusicQueuePlaylist     MusicIntent = "queue_playlist"
	MusicPlay              MusicIntent = "play"
	MusicPause             MusicIntent = "pause"
	MusicResume            MusicIntent = "resume"
	MusicSkip              MusicIntent = "skip"
	MusicNext              MusicIntent = "next"
	MusicPrevious          MusicIntent = "previous"
	MusicBack              MusicIntent = "back"
	MusicSetVolume         MusicIntent = "set_volume"
	MusicVolume            MusicIntent = "volume"
	MusicGetCurrentTrack   MusicIntent = "get_current_track"
	MusicSetShuffle        MusicIntent = "set_shuffle"
	MusicSetRepeat         MusicIntent = "set_repeat"
	MusicClearQueue        MusicIntent = "clear_queue"
	MusicGetDevices        MusicIntent = "get_devices"
	MusicGetPlaylists      MusicIntent = "get_playlists"
	MusicGetPlaylistTracks MusicIntent = "get_playlist_tracks"
	MusicRecommendations   MusicIntent = "get_recommendations"
	MusicGetPlaybackInfo   MusicIntent = "get_playback_info"
	MusicSearch            MusicIntent = "search"
	MusicChat              MusicIntent = "chat"
	MusicAskQuestion       MusicIntent = "ask_question"
	MusicUnknown           MusicIntent = "unknown"
)

// SearchType is SpotifySearchEnhancement.SearchType.
type SearchType string

const (
	SearchTrack    SearchType = "track"
	SearchArtist   SearchType = "artist"
	SearchAlbum    SearchType = "album"
	SearchPlaylist SearchType = "playlist"
)

// ExecutionOrder is BatchCommand.ExecutionOrder.
type ExecutionOrder string

const (
	ExecutionSequential ExecutionOrder = "sequential"
	ExecutionParallel   ExecutionOrder = "parallel"
)

// Modifiers refine a music command.
type Modifiers struct {
	Obscurity string   `json:"obscurity,omitempty"`
	Version   string   `json:"version,omitempty"`
	Mood      string   `json:"mood,omitempty"`
	Era       string   `json:"era,omitempty"`
	Genre     string   `json:"genre,omitempty"`
	Exclude   []string `json:"exclude"`
}

// SongRef names one song in a queue_multiple_songs command.
type SongRef struct {
	Artist string `json:"artist"`
	Track  string `json:"track"`
	Album  string `json:"album,omitempty"`
}

// MusicCommandIntent is the typed form of a normalized music_command.
type MusicCommandIntent struct {
	Intent          MusicIntent `json:"intent"`
	Confidence      float64     `json:"confidence"`
	Reasoning       string      `json:"reasoning"`
	Query           string      `json:"query,omitempty"`
	Artist          string      `json:"artist,omitempty"`
	Track           string      `json:"track,omitempty"`
	Album           string      `json:"album,omitempty"`
	Value           *float64    `json:"value,omitempty"`
	VolumeLevel     *int        `json:"volume_level,omitempty"`
	Enabled         *bool       `json:"enabled,omitempty"`
	Modifiers       *Modifiers  `json:"modifiers,omitempty"`
	Alternatives    []string    `json:"alternatives"`
	EnhancedQuery   string      `json:"enhancedQuery,omitempty"`
	ResponseMessage string      `json:"responseMessage,omitempty"`
	Songs           []SongRef   `json:"songs,omitempty"`
	Theme           string      `json:"theme,omitempty"`
}

// PopularityRange bounds Spotify popularity, both ends in [0,100].
type PopularityRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// SpotifySearchEnhancement rewrites a vague query into a Spotify search.
type SpotifySearchEnhancement struct {
	OriginalQuery string           `json:"originalQuery"`
	EnhancedQuery string           `json:"enhancedQuery"`
	SearchType    SearchType       `json:"searchType"`
	Filters       map[string]any   `json:"filters"`
	Popularity    *PopularityRange `json:"popularity,omitempty"`
	Explanation   string           `json:"explanation"`
}

// Recommendation is one suggestion inside a MusicKnowledgeResponse.
type Recommendation struct {
	Artist       string `json:"artist"`
	Track        string `json:"track"`
	Reason       string `json:"reason"`
	SpotifyQuery string `json:"spotifyQuery"`
}

// MusicKnowledgeResponse answers a question about music.
type MusicKnowledgeResponse struct {
	Query           string           `json:"query"`
	Answer          string           `json:"answer"`
	Recommendations []Recommendation `json:"recommendations"`
	Context         string           `json:"context,omitempty"`
	Confidence      float64          `json:"confidence"`
}

// ErrorResponse is what a backend returns when it cannot produce an intent.
type ErrorResponse struct {
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
	Fallback   string `json:"fallback,omitempty"`
}

// BatchCommand groups several music commands.
type BatchCommand struct {
	Commands       []MusicCommandIntent `json:"commands"`
	ExecutionOrder ExecutionOrder       `json:"executionOrder"`
	Context        string               `json:"context,omitempty"`
}
