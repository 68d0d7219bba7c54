// Package regression replays recorded backend outputs through the validator
// and comparator so prompt or model changes can be checked offline.
package regression

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
)

// CurrentVersion is the only battery file version understood.
const CurrentVersion = 1

var ErrInvalidBattery = errors.New("regression: invalid battery")

// Battery is a set of recorded cases.
type Battery struct {
	Version int    `yaml:"version"`
	Cases   []Case `yaml:"cases"`
}

// Case is one user message with the intent each backend produced for it.
// Expect, when set, is the intent every output must match after
// normalization. An output given as a string is treated as the raw model
// reply and decoded the way the backends decode it.
type Case struct {
	ID      string            `yaml:"id"`
	Message string            `yaml:"message"`
	Type    domain.IntentType `yaml:"type"`
	Strict  bool              `yaml:"strict"`
	Expect  map[string]any    `yaml:"expect"`
	Outputs map[string]any    `yaml:"outputs"`
}

// Backends returns the output names in sorted order.
func (c Case) Backends() []string {
	names := make([]string, 0, len(c.Outputs))
	for name := range c.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads and parses a battery file.
func Load(path string) (*Battery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("regression: read battery %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a battery and checks its structure. A missing version is
// read as CurrentVersion.
func Parse(data []byte) (*Battery, error) {
	var b Battery
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("regression: parse battery: %w", err)
	}
	if b.Version == 0 {
		b.Version = CurrentVersion
	}
	if b.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidBattery, b.Version)
	}
	if len(b.Cases) == 0 {
		return nil, fmt.Errorf("%w: no cases", ErrInvalidBattery)
	}

	seen := make(map[string]bool, len(b.Cases))
	for i, c := range b.Cases {
		switch {
		case c.ID == "":
			return nil, fmt.Errorf("%w: case %d has no id", ErrInvalidBattery, i)
		case seen[c.ID]:
			return nil, fmt.Errorf("%w: duplicate case id %q", ErrInvalidBattery, c.ID)
		case c.Type != "" && !c.Type.Known():
			return nil, fmt.Errorf("%w: case %q has unknown type %q", ErrInvalidBattery, c.ID, c.Type)
		case len(c.Outputs) == 0:
			return nil, fmt.Errorf("%w: case %q has no outputs", ErrInvalidBattery, c.ID)
		}
		seen[c.ID] = true
	}
	return &b, nil
}
