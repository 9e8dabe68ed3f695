// Package association computes and applies the edit plan that turns the
// persisted children of one parent into a desired set.
package association

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidQuantity = errors.New("invalid_quantity")

// Set maps a child id to its quantity for one parent.
type Set[K cmp.Ordered] map[K]int64

// Validate reports the first child whose quantity is not positive.
func (s Set[K]) Validate() error {
	for _, key := range sortedKeys(s) {
		if s[key] <= 0 {
			return fmt.Errorf("%w: child %v has quantity %d", ErrInvalidQuantity, key, s[key])
		}
	}
	return nil
}

func (s Set[K]) Clone() Set[K] {
	out := make(Set[K], len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type Link[K cmp.Ordered] struct {
	Child    K     `json:"child"`
	Quantity int64 `json:"quantity"`
}

// Plan lists deletions and upserts. Deletions are applied first.
type Plan[K cmp.Ordered] struct {
	Deletions []K       `json:"deletions"`
	Upserts   []Link[K] `json:"upserts"`
}

func (p Plan[K]) Empty() bool {
	return len(p.Deletions) == 0 && len(p.Upserts) == 0
}

// Apply returns the set obtained by applying p to current. current is not modified.
func (p Plan[K]) Apply(current Set[K]) Set[K] {
	out := current.Clone()
	for _, child := range p.Deletions {
		delete(out, child)
	}
	for _, link := range p.Upserts {
		out[link.Child] = link.Quantity
	}
	return out
}

type options struct {
	skipUnchanged bool
}

type Option func(*options)

// SkipUnchanged leaves out upserts whose quantity already matches current.
func SkipUnchanged() Option {
	return func(o *options) {
		o.skipUnchanged = true
	}
}

// Reconcile diffs current against desired. Children missing from desired
// are deleted and every desired child is upserted with its desired
// quantity. Both lists are sorted by child id.
func Reconcile[K cmp.Ordered](current, desired Set[K], opts ...Option) Plan[K] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	plan := Plan[K]{
		Deletions: []K{},
		Upserts:   make([]Link[K], 0, len(desired)),
	}

	for _, child := range sortedKeys(current) {
		if _, ok := desired[child]; !ok {
			plan.Deletions = append(plan.Deletions, child)
		}
	}

	for _, child := range sortedKeys(desired) {
		qty := desired[child]
		if o.skipUnchanged {
			if existing, ok := current[child]; ok && existing == qty {
				continue
			}
		}
		plan.Upserts = append(plan.Upserts, Link[K]{Child: child, Quantity: qty})
	}

	return plan
}

func sortedKeys[K cmp.Ordered](s Set[K]) []K {
	keys := make([]K, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
