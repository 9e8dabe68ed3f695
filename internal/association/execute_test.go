package association

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type storeMock struct {
	mock.Mock
}

func (m *storeMock) Delete(ctx context.Context, child string) error {
	return m.Called(ctx, child).Error(0)
}

func (m *storeMock) Upsert(ctx context.Context, child string, quantity int64) error {
	return m.Called(ctx, child, quantity).Error(0)
}

type memoryStore struct {
	set Set[string]
}

func (s *memoryStore) Delete(_ context.Context, child string) error {
	delete(s.set, child)
	return nil
}

func (s *memoryStore) Upsert(_ context.Context, child string, quantity int64) error {
	s.set[child] = quantity
	return nil
}

func TestExecuteAppliesInOrder(t *testing.T) {
	ctx := context.Background()
	store := &storeMock{}

	var calls []string
	store.On("Delete", ctx, "A").Run(func(mock.Arguments) { calls = append(calls, "delete A") }).Return(nil)
	store.On("Upsert", ctx, "B", int64(3)).Run(func(mock.Arguments) { calls = append(calls, "upsert B") }).Return(nil)
	store.On("Upsert", ctx, "C", int64(1)).Run(func(mock.Arguments) { calls = append(calls, "upsert C") }).Return(nil)

	plan := Reconcile(Set[string]{"A": 1, "B": 2}, Set[string]{"B": 3, "C": 1})
	res, err := Execute[string](ctx, store, plan)

	require.NoError(t, err)
	assert.Equal(t, Result{Deleted: 1, Upserted: 2}, res)
	assert.Equal(t, []string{"delete A", "upsert B", "upsert C"}, calls)
	store.AssertExpectations(t)
}

func TestExecuteReachesDesired(t *testing.T) {
	current := Set[string]{"A": 1, "B": 2, "D": 7}
	desired := Set[string]{"B": 3, "C": 1, "D": 7}
	store := &memoryStore{set: current.Clone()}

	_, err := Execute[string](context.Background(), store, Reconcile(current, desired))
	require.NoError(t, err)
	assert.Equal(t, desired, store.set)
}

func TestExecuteStopsOnFirstFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	store := &storeMock{}
	store.On("Delete", ctx, "A").Return(nil)
	store.On("Upsert", ctx, "B", int64(3)).Return(boom)

	plan := Reconcile(Set[string]{"A": 1, "B": 2}, Set[string]{"B": 3, "C": 1})
	res, err := Execute[string](ctx, store, plan)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialApply)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Result{Deleted: 1}, res)

	var partial *PartialError[string]
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, OpUpsert, partial.Op)
	assert.Equal(t, "B", partial.Child)

	// no retry, nothing after the failure
	store.AssertNumberOfCalls(t, "Upsert", 1)
	store.AssertNotCalled(t, "Upsert", ctx, "C", int64(1))
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &storeMock{}

	_, err := Execute[string](ctx, store, Plan[string]{Deletions: []string{"A"}})
	assert.ErrorIs(t, err, context.Canceled)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
