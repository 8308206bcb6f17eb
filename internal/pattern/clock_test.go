package pattern

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-beacon/internal/domain/alert"
)

// recorder collects levels reported by the clock.
type recorder struct {
	// mu protects levels.
	mu sync.Mutex
	// levels holds every reported level in order.
	levels []bool
}

// record appends a level.
func (r *recorder) record(level bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.levels = append(r.levels, level)
}

// snapshot returns a copy of the recorded levels.
func (r *recorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]bool, len(r.levels))
	copy(out, r.levels)

	return out
}

// TestClock_PatternIntegrity runs N full cycles and checks count and order of callbacks.
func TestClock_PatternIntegrity(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		const cycles = 3

		p := alert.SOSPattern()
		rec := new(recorder)
		clock := NewClock()

		clock.Start(p, rec.record)

		// Stop just before the first step of cycle N+1 is entered.
		time.Sleep(time.Duration(cycles)*p.Cycle() - time.Millisecond)
		synctest.Wait()
		clock.Cancel()

		got := rec.snapshot()
		require.Len(t, got, cycles*p.Len())

		for i, level := range got {
			require.Equal(t, p.Step(i%p.Len()).Level, level, "callback %d", i)
		}
	})
}

// TestClock_StepTiming checks that each level is reported at the boundary of its step.
func TestClock_StepTiming(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := alert.MustPattern(
			alert.SignalStep{Duration: 100 * time.Millisecond, Level: true},
			alert.SignalStep{Duration: 300 * time.Millisecond, Level: false},
		)
		rec := new(recorder)
		clock := NewClock()

		clock.Start(p, rec.record)
		require.Equal(t, []bool{true}, rec.snapshot())

		time.Sleep(99 * time.Millisecond)
		synctest.Wait()
		require.Len(t, rec.snapshot(), 1)

		time.Sleep(2 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, []bool{true, false}, rec.snapshot())

		// Seamless wrap: the next "on" lands exactly one cycle after start.
		time.Sleep(300 * time.Millisecond)
		synctest.Wait()
		require.Equal(t, []bool{true, false, true}, rec.snapshot())

		clock.Cancel()
	})
}

// TestClock_NoDanglingTimer asserts no callback fires after Cancel.
func TestClock_NoDanglingTimer(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := alert.SOSPattern()
		rec := new(recorder)
		clock := NewClock()

		clock.Start(p, rec.record)
		time.Sleep(450 * time.Millisecond)
		synctest.Wait()

		clock.Cancel()
		require.False(t, clock.Running())

		count := len(rec.snapshot())

		time.Sleep(2 * p.Cycle())
		synctest.Wait()
		require.Len(t, rec.snapshot(), count)

		// Cancel is idempotent.
		clock.Cancel()
	})
}

// TestClock_RestartKeepsSingleLoop verifies Cancel followed by Start never leaves two loops.
func TestClock_RestartKeepsSingleLoop(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		p := alert.SOSPattern()
		first := new(recorder)
		second := new(recorder)
		clock := NewClock()

		clock.Start(p, first.record)
		time.Sleep(100 * time.Millisecond)
		clock.Cancel()
		clock.Start(p, second.record)

		// Start without Cancel also replaces the running loop.
		clock.Start(p, second.record)

		time.Sleep(p.Cycle() - time.Millisecond)
		synctest.Wait()
		clock.Cancel()

		require.Len(t, first.snapshot(), 1)
		// One immediate callback per Start, then a single loop's worth of steps.
		require.Len(t, second.snapshot(), 1+p.Len())
	})
}

// TestClock_StaleFireIsIgnored simulates a timer that fired for an older loop.
func TestClock_StaleFireIsIgnored(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		rec := new(recorder)
		clock := NewClock()

		clock.Start(alert.SOSPattern(), rec.record)
		staleGeneration := clock.generation

		clock.Start(alert.SOSPattern(), rec.record)
		clock.fire(staleGeneration)
		require.Len(t, rec.snapshot(), 2)

		clock.Cancel()
		clock.fire(clock.generation)
		require.Len(t, rec.snapshot(), 2)
	})
}

// TestClock_EmptyPattern ensures an empty pattern never starts a loop.
func TestClock_EmptyPattern(t *testing.T) {
	t.Parallel()

	clock := NewClock()
	clock.Start(alert.Pattern{}, func(bool) { t.Fatal("unexpected step") })
	require.False(t, clock.Running())
}
