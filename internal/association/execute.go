package association

import (
	"cmp"
	"context"
	"errors"
	"fmt"
)

var ErrPartialApply = errors.New("association_partial_apply")

// Store persists the children of a single parent.
type Store[K cmp.Ordered] interface {
	Delete(ctx context.Context, child K) error
	Upsert(ctx context.Context, child K, quantity int64) error
}

type Op string

const (
	OpDelete Op = "delete"
	OpUpsert Op = "upsert"
)

type Result struct {
	Deleted  int `json:"deleted"`
	Upserted int `json:"upserted"`
}

// PartialError reports a plan that stopped part way. Operations counted in
// Applied are committed; nothing after the failed one was attempted.
type PartialError[K cmp.Ordered] struct {
	Applied Result
	Op      Op
	Child   K
	Err     error
}

func (e *PartialError[K]) Error() string {
	return fmt.Sprintf("%s of child %v failed after %d deletions and %d upserts: %v",
		e.Op, e.Child, e.Applied.Deleted, e.Applied.Upserted, e.Err)
}

func (e *PartialError[K]) Unwrap() []error {
	return []error{ErrPartialApply, e.Err}
}

// Execute applies plan against store in order, deletions first. It stops at
// the first failing operation and does not retry.
func Execute[K cmp.Ordered](ctx context.Context, store Store[K], plan Plan[K]) (Result, error) {
	var res Result

	for _, child := range plan.Deletions {
		if err := ctx.Err(); err != nil {
			return res, &PartialError[K]{Applied: res, Op: OpDelete, Child: child, Err: err}
		}
		if err := store.Delete(ctx, child); err != nil {
			return res, &PartialError[K]{Applied: res, Op: OpDelete, Child: child, Err: err}
		}
		res.Deleted++
	}

	for _, link := range plan.Upserts {
		if err := ctx.Err(); err != nil {
			return res, &PartialError[K]{Applied: res, Op: OpUpsert, Child: link.Child, Err: err}
		}
		if err := store.Upsert(ctx, link.Child, link.Quantity); err != nil {
			return res, &PartialError[K]{Applied: res, Op: OpUpsert, Child: link.Child, Err: err}
		}
		res.Upserted++
	}

	return res, nil
}
