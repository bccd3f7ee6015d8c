package counter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/ratelimit/ports"
	"gatekeeper/pkg/testutil"
)

type MemoryStoreSuite struct {
	suite.Suite
	now   time.Time
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store, err := NewMemoryStore(100, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestIncrementAndExpiry() {
	n, err := s.store.IncrementWithTTL(s.ctx, "api:user:u1", time.Minute)
	s.Require().NoError(err)
	s.Equal(1, n)

	s.now = s.now.Add(30 * time.Second)
	n, _ = s.store.IncrementWithTTL(s.ctx, "api:user:u1", time.Minute)
	s.Equal(2, n)

	s.Run("ttl is fixed from the first request", func() {
		ttl, found, err := s.store.TTL(s.ctx, "api:user:u1")
		s.Require().NoError(err)
		s.True(found)
		s.Equal(30*time.Second, ttl)
	})

	s.Run("counter vanishes after the window", func() {
		s.now = s.now.Add(30 * time.Second)
		count, found, err := s.store.Get(s.ctx, "api:user:u1")
		s.Require().NoError(err)
		s.False(found)
		s.Zero(count)
	})

	s.Run("next increment opens a new window", func() {
		n, _ := s.store.IncrementWithTTL(s.ctx, "api:user:u1", time.Minute)
		s.Equal(1, n)
	})
}

func (s *MemoryStoreSuite) TestIncrementBelow() {
	for i := 1; i <= 3; i++ {
		n, allowed, err := s.store.IncrementBelow(s.ctx, "k", 3, time.Minute)
		s.Require().NoError(err)
		s.True(allowed)
		s.Equal(i, n)
	}

	n, allowed, err := s.store.IncrementBelow(s.ctx, "k", 3, time.Minute)
	s.Require().NoError(err)
	s.False(allowed)
	s.Equal(3, n, "denied requests are not counted")
}

func (s *MemoryStoreSuite) TestDelete() {
	_, _ = s.store.IncrementWithTTL(s.ctx, "k", time.Minute)

	existed, err := s.store.Delete(s.ctx, "k")
	s.Require().NoError(err)
	s.True(existed)

	existed, _ = s.store.Delete(s.ctx, "k")
	s.False(existed)

	_, found, _ := s.store.Get(s.ctx, "k")
	s.False(found)
}

func (s *MemoryStoreSuite) TestCapacityEvictsLeastRecentlyUsed() {
	store, err := NewMemoryStore(2)
	s.Require().NoError(err)

	_, _ = store.IncrementWithTTL(s.ctx, "a", time.Minute)
	_, _ = store.IncrementWithTTL(s.ctx, "b", time.Minute)
	_, _ = store.IncrementWithTTL(s.ctx, "c", time.Minute)

	s.Equal(2, store.Len())
	_, found, _ := store.Get(s.ctx, "a")
	s.False(found)
}

func (s *MemoryStoreSuite) TestSaturatedCountersSurviveCapacityPressure() {
	store, err := NewMemoryStore(3, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)

	for range 10 {
		_, _, _ = store.IncrementBelow(s.ctx, "upload:user:u1", 10, time.Hour)
	}
	_, allowed, _ := store.IncrementBelow(s.ctx, "upload:user:u1", 10, time.Hour)
	s.Require().False(allowed)

	for _, k := range []string{"public:10.0.0.1", "public:10.0.0.2", "public:10.0.0.3"} {
		_, ok, err := store.IncrementBelow(s.ctx, k, 100, time.Minute)
		s.Require().NoError(err)
		s.True(ok, k)
	}

	n, allowed, err := store.IncrementBelow(s.ctx, "upload:user:u1", 10, time.Hour)
	s.Require().NoError(err)
	s.False(allowed, "saturated counter must not be evicted")
	s.Equal(10, n)
	s.Equal(3, store.Len())

	s.Run("expired counters go first", func() {
		_, _, _ = store.IncrementBelow(s.ctx, "auth:10.0.0.9", 1, time.Minute)
		s.now = s.now.Add(2 * time.Minute)

		_, ok, err := store.IncrementBelow(s.ctx, "public:10.0.0.4", 100, time.Minute)
		s.Require().NoError(err)
		s.True(ok)
		_, found, _ := store.Get(s.ctx, "upload:user:u1")
		s.True(found)
	})

	s.Run("full of saturated counters refuses new keys", func() {
		full, err := NewMemoryStore(2, WithClock(func() time.Time { return s.now }))
		s.Require().NoError(err)
		_, _, _ = full.IncrementBelow(s.ctx, "a", 1, time.Hour)
		_, _, _ = full.IncrementBelow(s.ctx, "b", 1, time.Hour)

		_, _, err = full.IncrementBelow(s.ctx, "c", 1, time.Hour)
		s.ErrorIs(err, ports.ErrStoreFull)
		_, found, _ := full.Get(s.ctx, "a")
		s.True(found)
	})
}

func (s *MemoryStoreSuite) TestDecrement() {
	for range 3 {
		_, _ = s.store.IncrementWithTTL(s.ctx, "k", time.Minute)
	}
	s.now = s.now.Add(20 * time.Second)

	n, err := s.store.Decrement(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal(2, n)

	ttl, _, _ := s.store.TTL(s.ctx, "k")
	s.Equal(40*time.Second, ttl, "window is kept")

	_, _ = s.store.Decrement(s.ctx, "k")
	n, err = s.store.Decrement(s.ctx, "k")
	s.Require().NoError(err)
	s.Zero(n)
	_, found, _ := s.store.Get(s.ctx, "k")
	s.False(found)

	n, err = s.store.Decrement(s.ctx, "absent")
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *MemoryStoreSuite) TestInvalidCapacity() {
	_, err := NewMemoryStore(0)
	s.Error(err)
}

func (s *MemoryStoreSuite) TestConcurrentIncrementBelowNeverExceedsLimit() {
	const limit = 50
	res := testutil.RunConcurrentCtx(s.ctx, 200, func(ctx context.Context, _ int) error {
		_, ok, err := s.store.IncrementBelow(ctx, "hot", limit, time.Minute)
		if err != nil {
			return err
		}
		if !ok {
			return testutil.ErrRejected
		}
		return nil
	})

	s.Equal(int32(limit), res.Successes)
	s.Equal(int32(150), res.Rejected)
	s.Zero(res.Errors)
	count, _, _ := s.store.Get(s.ctx, "hot")
	s.Equal(limit, count)
}
