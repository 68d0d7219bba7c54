package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("domain: not found")
	ErrDuplicateBackend = errors.New("domain: duplicate backend")
)

// Issue is one validation finding. Field is a dotted path ("modifiers.exclude",
// "commands[1].intent"); Code is a stable machine-readable tag.
type Issue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DiffKind classifies one Difference.
type DiffKind string

const (
	DiffMissingInA    DiffKind = "missing_in_a"
	DiffMissingInB    DiffKind = "missing_in_b"
	DiffValueMismatch DiffKind = "value_mismatch"
)

// Difference is one field that differs between two intents. A and B hold the
// canonical values at Path (nil when absent on that side).
type Difference struct {
	Path string   `json:"path"`
	Kind DiffKind `json:"kind"`
	A    any      `json:"a,omitempty"`
	B    any      `json:"b,omitempty"`
}

// DriftEntry records how one backend answered a drift check.
type DriftEntry struct {
	Backend     string       `json:"backend"`
	Valid       bool         `json:"valid"`
	Errors      []Issue      `json:"errors"`
	Differences []Difference `json:"differences"`
	Output      any          `json:"output,omitempty"`
}

// DriftReport is the outcome of sending one message to several backends and
// comparing their normalized intents. Baseline names the backend the others
// were compared against; it is empty when no backend produced a valid intent.
type DriftReport struct {
	ID         string       `json:"id"`
	Message    string       `json:"message"`
	IntentType IntentType   `json:"intent_type"`
	Baseline   string       `json:"baseline"`
	Entries    []DriftEntry `json:"entries"`
	CreatedAt  time.Time    `json:"created_at"`
}

func NewDriftReport(id, message string, t IntentType) (*DriftReport, error) {
	if id == "" || message == "" {
		return nil, errors.New("domain: invalid argument")
	}
	return &DriftReport{
		ID:         id,
		Message:    message,
		IntentType: t,
		Entries:    []DriftEntry{},
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// AddEntry appends a backend's result. A backend may appear only once per
// report; a repeated name returns ErrDuplicateBackend.
func (r *DriftReport) AddEntry(e DriftEntry) error {
	for _, ex := range r.Entries {
		if ex.Backend == e.Backend {
			return ErrDuplicateBackend
		}
	}
	r.Entries = append(r.Entries, e)
	return nil
}

// Drifted reports whether any entry was invalid or differed from the baseline.
func (r *DriftReport) Drifted() bool {
	for _, e := range r.Entries {
		if !e.Valid || len(e.Differences) > 0 {
			return true
		}
	}
	return false
}
