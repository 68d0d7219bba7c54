// Package compare diffs two intents field by field to detect drift between
// backends.
package compare

import (
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/jsonv"
)

type Difference = domain.Difference

// Result lists every field that differs. Differences is sorted by path and
// empty (not nil) when the intents are equal.
type Result struct {
	IsEqual     bool         `json:"isEqual"`
	Differences []Difference `json:"differences"`
}

// Compare reports the fields that differ between a and b. Objects are
// compared key by key with dotted paths; arrays are compared whole, in order,
// and reported once at the array field. Null-valued keys count as absent.
func Compare(a, b any) Result {
	ca := prune(canonical(a))
	cb := prune(canonical(b))

	r := newReporter()
	cmp.Equal(ca, cb, cmp.Reporter(r))

	out := Result{Differences: make([]Difference, 0, len(r.order))}
	for _, key := range r.order {
		segs := r.paths[key]
		va, inA := lookup(ca, segs)
		vb, inB := lookup(cb, segs)
		d := Difference{Path: key, A: va, B: vb}
		switch {
		case !inA:
			d.Kind = domain.DiffMissingInA
		case !inB:
			d.Kind = domain.DiffMissingInB
		default:
			d.Kind = domain.DiffValueMismatch
		}
		out.Differences = append(out.Differences, d)
	}
	sort.SliceStable(out.Differences, func(i, j int) bool {
		return out.Differences[i].Path < out.Differences[j].Path
	})
	out.IsEqual = len(out.Differences) == 0
	return out
}

// Diff renders a human-readable diff of a and b (-a +b).
func Diff(a, b any) string {
	return cmp.Diff(prune(canonical(a)), prune(canonical(b)))
}

func canonical(v any) any {
	c, err := jsonv.Canonicalize(v)
	if err != nil {
		return nil
	}
	return c
}

// prune removes null-valued keys from every object in v.
func prune(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, el := range x {
			if el == nil {
				delete(x, k)
				continue
			}
			x[k] = prune(el)
		}
	case []any:
		for i, el := range x {
			x[i] = prune(el)
		}
	}
	return v
}

func lookup(v any, segs []string) (any, bool) {
	cur := v
	for _, s := range segs {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[s]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// reporter collects the object path of every unequal leaf. Paths stop at the
// first slice index so array diffs roll up to the array field.
type reporter struct {
	path  cmp.Path
	paths map[string][]string
	order []string
}

func newReporter() *reporter {
	return &reporter{paths: make(map[string][]string)}
}

func (r *reporter) PushStep(ps cmp.PathStep) {
	r.path = append(r.path, ps)
}

func (r *reporter) PopStep() {
	r.path = r.path[:len(r.path)-1]
}

func (r *reporter) Report(rs cmp.Result) {
	if rs.Equal() {
		return
	}
	var segs []string
	for _, step := range r.path {
		if _, ok := step.(cmp.SliceIndex); ok {
			break
		}
		if mi, ok := step.(cmp.MapIndex); ok {
			segs = append(segs, mi.Key().String())
		}
	}
	key := strings.Join(segs, ".")
	if _, ok := r.paths[key]; ok {
		return
	}
	r.paths[key] = segs
	r.order = append(r.order, key)
}
