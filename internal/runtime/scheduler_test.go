package runtime_test

import (
	"sync"
	"testing"
	"time"

	"github.com/aretw0/chatsim/internal/runtime"
	"github.com/aretw0/chatsim/internal/testutils"
	"github.com/aretw0/chatsim/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var epoch = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestScheduler_Order(t *testing.T) {
	clock := testutils.NewManualClock(epoch)
	s := runtime.NewScheduler(clock)

	var got []string
	s.After(10*time.Millisecond, func() { got = append(got, "a") })
	s.After(10*time.Millisecond, func() { got = append(got, "b") })
	s.After(5*time.Millisecond, func() { got = append(got, "c") })
	assert.Equal(t, 3, s.Pending())

	clock.Advance(9 * time.Millisecond)
	assert.Equal(t, []string{"c"}, got)

	clock.Advance(1 * time.Millisecond)
	assert.Equal(t, []string{"c", "a", "b"}, got)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_NoReentrancy(t *testing.T) {
	clock := testutils.NewManualClock(epoch)
	s := runtime.NewScheduler(clock)

	var got []string
	s.After(time.Millisecond, func() {
		got = append(got, "outer-start")
		s.After(0, func() { got = append(got, "inner") })
		got = append(got, "outer-end")
	})
	s.After(time.Millisecond, func() { got = append(got, "sibling") })

	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"outer-start", "outer-end", "sibling", "inner"}, got)
}

func TestScheduler_Close(t *testing.T) {
	clock := testutils.NewManualClock(epoch)
	s := runtime.NewScheduler(clock)

	ran := false
	s.After(time.Second, func() { ran = true })
	s.Close()

	assert.Equal(t, 0, s.Pending())
	assert.False(t, s.After(time.Second, func() { ran = true }))

	clock.Advance(time.Minute)
	assert.False(t, ran)
	assert.Equal(t, 0, clock.Pending())
}

func TestScheduler_EarlierTaskRearms(t *testing.T) {
	clock := testutils.NewManualClock(epoch)
	s := runtime.NewScheduler(clock)

	var got []string
	s.After(time.Second, func() { got = append(got, "late") })
	s.After(100*time.Millisecond, func() { got = append(got, "early") })

	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"early"}, got)

	clock.Advance(900 * time.Millisecond)
	assert.Equal(t, []string{"early", "late"}, got)
}

func TestScheduler_SystemClockNoLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := runtime.NewScheduler(ports.SystemClock{})

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	wg.Add(3)
	for i, d := range []time.Duration{15, 5, 10} {
		require.True(t, s.After(d*time.Millisecond, func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		}))
	}
	s.After(time.Hour, func() { t.Error("closed scheduler ran a task") })

	wg.Wait()
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 0}, got)
}
