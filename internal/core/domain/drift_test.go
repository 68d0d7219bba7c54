package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewDriftReport(t *testing.T) {
	if _, err := NewDriftReport("", "play jazz", IntentMusicCommand); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := NewDriftReport("r-1", "", IntentMusicCommand); err == nil {
		t.Fatal("expected error for empty message")
	}

	r, err := NewDriftReport("r-1", "play jazz", IntentMusicCommand)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Entries == nil || len(r.Entries) != 0 {
		t.Fatalf("expected empty non-nil entries, got %#v", r.Entries)
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestDriftReport_AddEntry(t *testing.T) {
	tests := []struct {
		name    string
		initial []DriftEntry
		toAdd   DriftEntry
		wantErr error
		wantLen int
	}{
		{
			name:    "adds new backend successfully",
			initial: []DriftEntry{},
			toAdd:   DriftEntry{Backend: "ollama", Valid: true},
			wantLen: 1,
		},
		{
			name:    "fails when backend already recorded",
			initial: []DriftEntry{{Backend: "ollama", Valid: true}},
			toAdd:   DriftEntry{Backend: "ollama", Valid: false},
			wantErr: ErrDuplicateBackend,
			wantLen: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewDriftReport("r-1", "play jazz", IntentMusicCommand)
			if err != nil {
				t.Fatalf("failed to create report: %v", err)
			}
			r.Entries = append(r.Entries, tc.initial...)

			err = r.AddEntry(tc.toAdd)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if got := len(r.Entries); got != tc.wantLen {
				t.Fatalf("expected %d entries, got %d", tc.wantLen, got)
			}
			if tc.wantErr == nil {
				last := r.Entries[len(r.Entries)-1]
				if !reflect.DeepEqual(last, tc.toAdd) {
					t.Fatalf("last entry mismatch: want %+v, got %+v", tc.toAdd, last)
				}
			}
		})
	}
}

func TestDriftReport_Drifted(t *testing.T) {
	tests := []struct {
		name    string
		entries []DriftEntry
		want    bool
	}{
		{name: "no entries", entries: nil, want: false},
		{name: "all valid and equal", entries: []DriftEntry{{Backend: "a", Valid: true}, {Backend: "b", Valid: true}}, want: false},
		{name: "one invalid", entries: []DriftEntry{{Backend: "a", Valid: true}, {Backend: "b", Valid: false}}, want: true},
		{
			name: "one differs",
			entries: []DriftEntry{
				{Backend: "a", Valid: true},
				{Backend: "b", Valid: true, Differences: []Difference{{Path: "query", Kind: DiffMissingInA}}},
			},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &DriftReport{Entries: tc.entries}
			if got := r.Drifted(); got != tc.want {
				t.Fatalf("Drifted() = %v, want %v", got, tc.want)
			}
		})
	}
}
