package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/ports"
	"github.com/aretw0/bookclub/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data  map[string]*domain.FlowState
	mu    sync.Mutex
	saves atomic.Int32
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.FlowState) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.FlowState)
	}
	s.data[sessionID] = state.Snapshot()
	s.saves.Add(1)
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.FlowState, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_ReadModifyWriteIsSerialized(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, domain.NewFlowState(id, 10)))

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context) error {
				state, err := manager.Store().Load(ctx, id)
				if err != nil {
					return err
				}
				state.History = append(state.History, len(state.History))
				return manager.Store().Save(ctx, id, state)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.History, writers+1, "no update may be lost")
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, isNew, err := manager.LoadOrStart(ctx, id, 10)
			assert.NoError(t, err)
			assert.NotNil(t, state)
			if isNew {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "exactly one caller creates the session")
	assert.Equal(t, int32(1), store.saves.Load())

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Step)
	assert.Equal(t, 10, state.Total)
}

type fakeLocker struct {
	mu       sync.Mutex
	ttl      time.Duration
	locked   int
	unlocked int
	err      error
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.ttl = ttl
	f.locked++
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("Lock And Unlock Around Fn", func(t *testing.T) {
		locker := &fakeLocker{}
		manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))

		err := manager.WithLock(ctx, "s1", func(context.Context) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, 1, locker.locked)
		assert.Equal(t, 1, locker.unlocked)
		assert.Equal(t, 5*time.Second, locker.ttl)
	})

	t.Run("Lock Failure Skips Fn", func(t *testing.T) {
		locker := &fakeLocker{err: errors.New("redis down")}
		manager := session.NewManager(&SlowStore{}, session.WithLocker(locker))

		called := false
		err := manager.WithLock(ctx, "s1", func(context.Context) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})
}
