package association

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileDiff(t *testing.T) {
	plan := Reconcile(Set[string]{"A": 1, "B": 2}, Set[string]{"B": 3, "C": 1})

	assert.Equal(t, []string{"A"}, plan.Deletions)
	assert.Equal(t, []Link[string]{{Child: "B", Quantity: 3}, {Child: "C", Quantity: 1}}, plan.Upserts)
}

func TestReconcileEmpty(t *testing.T) {
	plan := Reconcile(Set[string]{}, Set[string]{})

	assert.Empty(t, plan.Deletions)
	assert.Empty(t, plan.Upserts)
	assert.True(t, plan.Empty())
}

func TestReconcileOnlyUpsertsWhenCurrentEmpty(t *testing.T) {
	plan := Reconcile(nil, Set[int64]{2: 1, 1: 4})

	assert.Empty(t, plan.Deletions)
	assert.Equal(t, []Link[int64]{{Child: 1, Quantity: 4}, {Child: 2, Quantity: 1}}, plan.Upserts)
}

func TestReconcileUpsertsUnchangedByDefault(t *testing.T) {
	current := Set[string]{"A": 1, "B": 2}

	plan := Reconcile(current, Set[string]{"A": 1, "B": 2})
	assert.Empty(t, plan.Deletions)
	assert.Len(t, plan.Upserts, 2)

	skipped := Reconcile(current, Set[string]{"A": 1, "B": 5}, SkipUnchanged())
	assert.Equal(t, []Link[string]{{Child: "B", Quantity: 5}}, skipped.Upserts)
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	current := Set[string]{"A": 1}
	desired := Set[string]{"B": 2}

	plan := Reconcile(current, desired)
	_ = plan.Apply(current)

	assert.Equal(t, Set[string]{"A": 1}, current)
	assert.Equal(t, Set[string]{"B": 2}, desired)
}

func randomSet(rng *rand.Rand) Set[int64] {
	s := Set[int64]{}
	n := rng.Intn(8)
	for i := 0; i < n; i++ {
		s[rng.Int63n(12)] = rng.Int63n(4) + 1
	}
	return s
}

func TestReconcileProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))

	for i := 0; i < 1000; i++ {
		current := randomSet(rng)
		desired := randomSet(rng)

		for _, opts := range [][]Option{nil, {SkipUnchanged()}} {
			plan := Reconcile(current, desired, opts...)

			// completeness
			assert.Equal(t, desired, plan.Apply(current))

			// minimality
			deleted := map[int64]bool{}
			for _, child := range plan.Deletions {
				deleted[child] = true
				_, inCurrent := current[child]
				assert.True(t, inCurrent, "deleting %d which is not persisted", child)
			}
			for _, link := range plan.Upserts {
				assert.False(t, deleted[link.Child], "child %d both deleted and upserted", link.Child)
				assert.Equal(t, desired[link.Child], link.Quantity)
			}
		}
	}
}

func TestSetValidate(t *testing.T) {
	assert.NoError(t, Set[string]{"A": 1}.Validate())
	assert.ErrorIs(t, Set[string]{"A": 1, "B": 0}.Validate(), ErrInvalidQuantity)
	assert.ErrorIs(t, Set[string]{"A": -3}.Validate(), ErrInvalidQuantity)
}
