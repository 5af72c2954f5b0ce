package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func (s *EngineTestSuite) TestAdvanceUntilRunsDueProcesses() {
	eng := New()
	var order []string

	eng.Schedule(func(now float64) (float64, bool) {
		order = append(order, "a")
		return 1, true
	})
	eng.Schedule(func(now float64) (float64, bool) {
		order = append(order, "b")
		return 0, false
	})

	eng.AdvanceUntil(0)
	require.Equal(s.T(), []string{"a", "b"}, order)
	assert.Equal(s.T(), 0.0, eng.Now())
}

func (s *EngineTestSuite) TestSameInstantRegistrationOrder() {
	eng := New()
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		eng.Schedule(func(now float64) (float64, bool) {
			order = append(order, i)
			return 0, false
		})
	}

	eng.AdvanceUntil(0)
	assert.Equal(s.T(), []int{0, 1, 2, 3, 4}, order)
}

func (s *EngineTestSuite) TestZeroDelayReenqueueRunsBehindCurrentlyDue() {
	eng := New()
	var order []string
	reenqueued := false

	eng.Schedule(func(now float64) (float64, bool) {
		order = append(order, "first")
		if reenqueued {
			return 0, false
		}
		reenqueued = true
		return 0, true // re-enqueues at the same instant, behind "second"
	})
	eng.Schedule(func(now float64) (float64, bool) {
		order = append(order, "second")
		return 0, false
	})

	eng.AdvanceUntil(0)
	// "first" runs once before "second" (registration order), then its
	// zero-delay re-enqueue runs again behind "second".
	require.Equal(s.T(), []string{"first", "second", "first"}, order)
}

func (s *EngineTestSuite) TestAdvanceUntilLeavesNowAtHorizonWhenIdle() {
	eng := New()
	eng.AdvanceUntil(42)
	assert.Equal(s.T(), 42.0, eng.Now())
}

func (s *EngineTestSuite) TestChildScheduledAtCurrentNowRunsSameInstant() {
	eng := New()
	var order []string

	eng.Schedule(func(now float64) (float64, bool) {
		order = append(order, "parent")
		eng.Schedule(func(now float64) (float64, bool) {
			order = append(order, "child")
			return 0, false
		})
		return 0, false
	})

	eng.AdvanceUntil(0)
	assert.Equal(s.T(), []string{"parent", "child"}, order)
}

func (s *EngineTestSuite) TestDelayedProcessWakesAtCorrectTime() {
	eng := New()
	var observed float64 = -1

	eng.ScheduleAfter(5, func(now float64) (float64, bool) {
		observed = now
		return 0, false
	})

	eng.AdvanceUntil(10)
	assert.Equal(s.T(), 5.0, observed)
	assert.Equal(s.T(), 10.0, eng.Now())
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
