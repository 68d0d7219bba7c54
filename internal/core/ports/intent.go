package ports

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
)

// ErrMalformedOutput indicates a backend replied with text that is not JSON.
var ErrMalformedOutput = errors.New("malformed backend output")

// ErrUnknownBackend indicates no backend is registered under a name.
var ErrUnknownBackend = errors.New("unknown backend")

// MalformedOutputError carries the raw reply that failed to decode.
type MalformedOutputError struct {
	Backend string
	Raw     string
}

func (e MalformedOutputError) Error() string {
	if e.Backend == "" {
		return ErrMalformedOutput.Error()
	}
	raw := e.Raw
	if len(raw) > 120 {
		raw = raw[:120] + "..."
	}
	return fmt.Sprintf("%s: malformed output %q", e.Backend, raw)
}

func (e MalformedOutputError) Is(target error) bool {
	return target == ErrMalformedOutput
}

// IntentBackend turns a user message into a decoded JSON intent of the
// requested variant. Output is returned unvalidated.
type IntentBackend interface {
	Name() string
	Generate(ctx context.Context, message string, t domain.IntentType) (any, error)
}

// Registry looks backends up by name.
type Registry struct {
	backends map[string]IntentBackend
}

func NewRegistry(backends ...IntentBackend) *Registry {
	r := &Registry{backends: make(map[string]IntentBackend, len(backends))}
	for _, b := range backends {
		r.backends[b.Name()] = b
	}
	return r
}

func (r *Registry) Get(name string) (IntentBackend, error) {
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.backends))
	for name := range r.backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
