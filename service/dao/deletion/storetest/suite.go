// Package storetest holds the behaviour every deletion.Service implementation
// must share. Store packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao"
	"github.com/viant/retract/service/dao/criteria"
	"github.com/viant/retract/service/dao/deletion"
)

// NewRequest returns a pending request fixture.
func NewRequest(key string, createdAt time.Time) *request.DeletionRequest {
	return &request.DeletionRequest{
		CorrelationKey: key,
		Target:         request.Target{Location: "C1", Version: "1700000000." + key, AuthorID: "U1"},
		AuthorID:       "U1",
		RequesterID:    "U1",
		CreatedAt:      createdAt,
		Preview:        "hello " + key,
	}
}

// Run executes the shared store behaviour against stores produced by newStore.
func Run(t *testing.T, newStore func(t *testing.T) deletion.Service) {
	t.Run("create and lookup", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		id, err := store.Create(ctx, NewRequest("k1", createdAt))
		require.NoError(t, err)
		require.NotEmpty(t, id)

		byKey, err := store.GetByCorrelationKey(ctx, "k1")
		require.NoError(t, err)
		require.NotNil(t, byKey)
		assert.Equal(t, id, byKey.ID)
		assert.Equal(t, request.StatusPending, byKey.Status)
		assert.Equal(t, "U1", byKey.AuthorID)
		assert.Equal(t, "hello k1", byKey.Preview)
		assert.True(t, createdAt.Equal(byKey.CreatedAt))
		assert.Nil(t, byKey.DecidedAt)
		assert.Empty(t, byKey.DecidedBy)

		byID, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, "k1", byID.CorrelationKey)

		missing, err := store.GetByCorrelationKey(ctx, "absent")
		assert.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("duplicate correlation key", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		_, err := store.Create(ctx, NewRequest("dup", time.Now()))
		require.NoError(t, err)
		_, err = store.Create(ctx, NewRequest("dup", time.Now()))
		assert.ErrorIs(t, err, dao.ErrConflict)
	})

	t.Run("compare and swap", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		id, err := store.Create(ctx, NewRequest("cas", time.Now()))
		require.NoError(t, err)

		swapped, err := store.CompareAndSwapStatus(ctx, &deletion.Transition{ID: id, Expected: request.StatusPending, Status: request.StatusDeciding, DecidedBy: "A1", DeciderName: "Alice"})
		require.NoError(t, err)
		assert.True(t, swapped)

		swapped, err = store.CompareAndSwapStatus(ctx, &deletion.Transition{ID: id, Expected: request.StatusPending, Status: request.StatusDeciding, DecidedBy: "A2"})
		require.NoError(t, err)
		assert.False(t, swapped)

		decidedAt := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
		swapped, err = store.CompareAndSwapStatus(ctx, &deletion.Transition{ID: id, Expected: request.StatusDeciding, Status: request.StatusError, DecidedAt: &decidedAt, Notes: "boom"})
		require.NoError(t, err)
		assert.True(t, swapped)

		actual, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, request.StatusError, actual.Status)
		assert.Equal(t, "A1", actual.DecidedBy)
		assert.Equal(t, "Alice", actual.DeciderName)
		assert.Equal(t, "boom", actual.Notes)
		require.NotNil(t, actual.DecidedAt)
		assert.True(t, decidedAt.Equal(*actual.DecidedAt))

		_, err = store.CompareAndSwapStatus(ctx, &deletion.Transition{ID: "unknown", Expected: request.StatusPending, Status: request.StatusDenied})
		assert.ErrorIs(t, err, dao.ErrNotFound)
	})

	t.Run("concurrent compare and swap has one winner", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		id, err := store.Create(ctx, NewRequest("race", time.Now()))
		require.NoError(t, err)

		const workers = 16
		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				swapped, err := store.CompareAndSwapStatus(ctx, &deletion.Transition{ID: id, Expected: request.StatusPending, Status: request.StatusDeciding, DecidedBy: fmt.Sprintf("A%d", i)})
				if assert.NoError(t, err) && swapped {
					atomic.AddInt32(&wins, 1)
				}
			}(i)
		}
		wg.Wait()
		assert.EqualValues(t, 1, wins)
	})

	t.Run("list filters", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		var ids []string
		for i := 0; i < 3; i++ {
			id, err := store.Create(ctx, NewRequest(fmt.Sprintf("l%d", i), base.Add(time.Duration(i)*time.Minute)))
			require.NoError(t, err)
			ids = append(ids, id)
		}
		_, err := store.CompareAndSwapStatus(ctx, &deletion.Transition{ID: ids[0], Expected: request.StatusPending, Status: request.StatusDenied, DecidedBy: "A1"})
		require.NoError(t, err)

		type testCase struct {
			name       string
			parameters []*dao.Parameter
			expectKeys []string
		}
		for _, tc := range []testCase{
			{name: "all newest first", expectKeys: []string{"l2", "l1", "l0"}},
			{name: "pending", parameters: []*dao.Parameter{criteria.WithStatus(request.StatusPending)}, expectKeys: []string{"l2", "l1"}},
			{name: "denied", parameters: []*dao.Parameter{criteria.WithStatus(request.StatusDenied)}, expectKeys: []string{"l0"}},
			{name: "limit", parameters: []*dao.Parameter{criteria.WithLimit(1)}, expectKeys: []string{"l2"}},
			{name: "target", parameters: []*dao.Parameter{criteria.WithTarget(NewRequest("l1", base).Target)}, expectKeys: []string{"l1"}},
		} {
			t.Run(tc.name, func(t *testing.T) {
				actual, err := store.List(ctx, tc.parameters...)
				require.NoError(t, err)
				var keys []string
				for _, r := range actual {
					keys = append(keys, r.CorrelationKey)
				}
				assert.EqualValues(t, tc.expectKeys, keys)
			})
		}
	})
}
