package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now     time.Time
	breaker *Breaker
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.breaker = New("store",
		WithFailureThreshold(2),
		WithSuccessThreshold(2),
		WithCooldown(time.Second),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *BreakerSuite) TestOpensAfterConsecutiveFailures() {
	s.False(s.breaker.RecordFailure().Opened)
	s.True(s.breaker.Allow())

	s.True(s.breaker.RecordFailure().Opened)
	s.Equal(StateOpen, s.breaker.State())
	s.False(s.breaker.Allow())
}

func (s *BreakerSuite) TestSuccessResetsFailureCount() {
	s.breaker.RecordFailure()
	s.breaker.RecordSuccess()
	s.False(s.breaker.RecordFailure().Opened, "count restarts after a success")
}

func (s *BreakerSuite) TestHalfOpenProbing() {
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()

	s.Run("cooldown promotes to half-open", func() {
		s.now = s.now.Add(time.Second)
		s.Equal(StateHalfOpen, s.breaker.State())
		s.True(s.breaker.Allow())
	})

	s.Run("probe failure re-opens", func() {
		s.breaker.RecordFailure()
		s.Equal(StateOpen, s.breaker.State())
	})

	s.Run("enough probe successes close", func() {
		s.now = s.now.Add(time.Second)
		s.False(s.breaker.RecordSuccess().Closed)
		s.True(s.breaker.RecordSuccess().Closed)
		s.Equal(StateClosed, s.breaker.State())
	})
}

func (s *BreakerSuite) TestReset() {
	s.breaker.RecordFailure()
	s.breaker.RecordFailure()
	s.breaker.Reset()
	s.Equal(StateClosed, s.breaker.State())
	s.Equal("store", s.breaker.Name())
	s.Equal("closed", StateClosed.String())
	s.Equal("open", StateOpen.String())
	s.Equal("half_open", StateHalfOpen.String())
}
