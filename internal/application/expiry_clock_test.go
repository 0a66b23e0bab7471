package application

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var anchorTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClock() (*ExpiryClock, *fakeClock, *tickerRecorder) {
	fc := newFakeClock(anchorTime)
	rec := &tickerRecorder{}
	return NewExpiryClock(WithTimeSource(fc), WithTickerFactory(rec.factory)), fc, rec
}

// step advances the local clock by d and runs one tick of the live run.
func step(c *ExpiryClock, fc *fakeClock, d time.Duration) bool {
	fc.Advance(d)
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	return c.tick(gen)
}

func TestExpiryClock_ScenarioA_ReachesZeroAfterThirtySeconds(t *testing.T) {
	c, fc, rec := newTestClock()
	var (
		mu    sync.Mutex
		ticks []Tick
	)
	c.AddListener(func(tk Tick) {
		mu.Lock()
		ticks = append(ticks, tk)
		mu.Unlock()
	})

	c.Start(sampleQuote("2026-02-20T08:00:00", "2026-02-20T08:00:30"))
	require.Equal(t, 30, c.Remaining())
	require.True(t, c.Running())

	for i := 0; i < 29; i++ {
		require.True(t, step(c, fc, time.Second))
	}
	require.Equal(t, 1, c.Remaining())
	require.False(t, c.Expired())

	require.False(t, step(c, fc, time.Second))
	require.Equal(t, 0, c.Remaining())
	require.True(t, c.Expired())
	require.False(t, c.Running())
	require.True(t, rec.last().isStopped())

	// later ticks of the finished run are ignored
	require.False(t, step(c, fc, time.Second))
	require.Equal(t, 0, c.Remaining())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ticks, 30)
	expired := 0
	for i, tk := range ticks {
		require.Equal(t, 29-i, tk.Remaining)
		if tk.Expired {
			expired++
		}
	}
	require.Equal(t, 1, expired)
}

func TestExpiryClock_NonIncreasingAndNeverNegative(t *testing.T) {
	c, fc, _ := newTestClock()
	c.Start(sampleQuote("2026-02-20T08:00:00", "2026-02-20T08:00:07.900"))
	require.Equal(t, 7, c.Remaining())

	prev := c.Remaining()
	steps := []time.Duration{300 * time.Millisecond, 900 * time.Millisecond, 2500 * time.Millisecond, 0, 10 * time.Second}
	for _, d := range steps {
		step(c, fc, d)
		cur := c.Remaining()
		require.LessOrEqual(t, cur, prev)
		require.GreaterOrEqual(t, cur, 0)
		prev = cur
	}
	require.Equal(t, 0, c.Remaining())
	require.True(t, c.Expired())
}

func TestExpiryClock_IgnoresServerClockOffset(t *testing.T) {
	c, fc, _ := newTestClock()
	// server timestamps far away from the local clock; only the lifespan matters
	c.Start(sampleQuote("2019-01-01T00:00:00Z", "2019-01-01T00:02:00Z"))
	step(c, fc, 5*time.Second)
	require.Equal(t, 115, c.Remaining())
}

func TestExpiryClock_MalformedTimestampsExpireOnFirstTick(t *testing.T) {
	c, fc, _ := newTestClock()
	c.Start(sampleQuote("2026-02-20T08:00:30", "2026-02-20T08:00:00"))
	require.Equal(t, 0, c.Remaining())
	require.False(t, c.Expired())

	require.False(t, step(c, fc, 0))
	require.True(t, c.Expired())
	require.False(t, c.Running())
}

func TestExpiryClock_StopIsIdempotent(t *testing.T) {
	c, fc, rec := newTestClock()
	require.NotPanics(t, func() {
		c.Stop()
		c.Stop()
	})
	require.Equal(t, 0, rec.count())

	c.Start(sampleQuote("2026-02-20T08:00:00", "2026-02-20T08:00:30"))
	c.Stop()
	c.Stop()
	require.False(t, c.Running())
	require.True(t, rec.last().isStopped())

	fired := false
	c.AddListener(func(Tick) { fired = true })
	require.False(t, step(c, fc, time.Second))
	require.False(t, fired)
	require.Equal(t, 30, c.Remaining())
}

func TestExpiryClock_RestartCancelsPreviousRun(t *testing.T) {
	c, fc, rec := newTestClock()
	c.Start(sampleQuote("2026-02-20T08:00:00", "2026-02-20T08:00:30"))
	c.mu.Lock()
	oldGen := c.gen
	c.mu.Unlock()
	first := rec.last()

	fc.Advance(10 * time.Second)
	c.Start(sampleQuote("2026-02-20T08:00:00", "2026-02-20T08:01:00"))
	require.True(t, first.isStopped())
	require.Equal(t, 2, rec.count())

	// a late tick of the first run must not touch the new countdown
	require.False(t, c.tick(oldGen))
	require.Equal(t, 60, c.Remaining())

	step(c, fc, 3*time.Second)
	require.Equal(t, 57, c.Remaining())
}

func TestExpiryClock_TickerDrivesCountdown(t *testing.T) {
	c, fc, rec := newTestClock()
	c.Start(sampleQuote("2026-02-20T08:00:00", "2026-02-20T08:00:02"))
	tk := rec.last()

	fc.Advance(time.Second)
	tk.ch <- fc.Now()
	require.Eventually(t, func() bool { return c.Remaining() == 1 }, time.Second, 5*time.Millisecond)

	fc.Advance(time.Second)
	tk.ch <- fc.Now()
	require.Eventually(t, c.Expired, time.Second, 5*time.Millisecond)
	require.True(t, tk.isStopped())
}

func TestExpiryClock_ListenerRemoval(t *testing.T) {
	c, fc, _ := newTestClock()
	n := 0
	remove := c.AddListener(func(Tick) { n++ })
	c.Start(sampleQuote("2026-02-20T08:00:00", "2026-02-20T08:00:30"))
	step(c, fc, time.Second)
	remove()
	step(c, fc, time.Second)
	require.Equal(t, 1, n)
}
