package audio

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/require"
)

var errNoDevice = errors.New("no audio device")

// fakeContext records streamers queued for playback.
type fakeContext struct {
	// mu protects the fields below.
	mu sync.Mutex
	// played holds every queued streamer.
	played []beep.Streamer
	// resumed counts Resume calls.
	resumed int
	// suspended counts Suspend calls.
	suspended int
}

// SampleRate returns the test rate.
func (f *fakeContext) SampleRate() beep.SampleRate { return testRate }

// Resume counts the call.
func (f *fakeContext) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resumed++

	return nil
}

// Suspend counts the call.
func (f *fakeContext) Suspend() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.suspended++

	return nil
}

// Play records s.
func (f *fakeContext) Play(s beep.Streamer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.played = append(f.played, s)
}

// factoryFor returns a factory handing out output and counting calls.
func factoryFor(output Context, err error, calls *int) ContextFactory {
	return func() (Context, error) {
		*calls++

		return output, err
	}
}

// TestChannel_StartStopStart verifies each activation gets a fresh oscillator and gain pair.
func TestChannel_StartStopStart(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		output := new(fakeContext)

		var calls int

		c := New(factoryFor(output, nil, &calls), DefaultSettings())
		require.True(t, c.Available())

		c.Start(ctx)
		require.True(t, c.Playing())

		first := c.oscillator

		// A second Start while playing is a no-op.
		c.Start(ctx)

		c.Stop(ctx)
		require.False(t, c.Playing())

		c.Start(ctx)
		require.True(t, c.Playing())
		require.NotSame(t, first, c.oscillator)

		c.Stop(ctx)
		c.Stop(ctx)

		require.Equal(t, 1, calls)
		require.Len(t, output.played, 2)
		require.Equal(t, 2, output.resumed)

		// The first pair ended its stream, so a mixer would have dropped it.
		_, ok := output.played[0].Stream(make([][2]float64, 8))
		require.False(t, ok)
	})
}

// TestChannel_GainAppliesAmplitude checks the played streamer is scaled to the configured gain.
func TestChannel_GainAppliesAmplitude(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		output := new(fakeContext)

		var calls int

		c := New(factoryFor(output, nil, &calls), DefaultSettings())
		c.Start(ctx)

		buf := make([][2]float64, 1000)
		n, ok := output.played[0].Stream(buf)
		require.True(t, ok)
		require.Equal(t, len(buf), n)

		var peak float64
		for _, sample := range buf {
			peak = math.Max(peak, math.Abs(sample[0]))
		}

		require.LessOrEqual(t, peak, 0.3+1e-9)
		require.Greater(t, peak, 0.2)

		c.Stop(ctx)
	})
}

// TestChannel_Resweeps verifies the sweep is re-triggered every period while playing.
func TestChannel_Resweeps(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		output := new(fakeContext)

		var calls int

		c := New(factoryFor(output, nil, &calls), DefaultSettings())
		c.Start(ctx)

		oscillator := c.oscillator

		// Render past the end of the first sweep without letting the ticker fire.
		stream(t, oscillator, 1500)
		require.InDelta(t, 800, oscillator.Frequency(), 1e-9)

		// The ticker restarts the ramp from the current sample.
		time.Sleep(time.Second)
		synctest.Wait()

		stream(t, oscillator, 500)
		require.InDelta(t, 1200, oscillator.Frequency(), 1e-9)

		c.Stop(ctx)
	})
}

// TestChannel_OutputFailureDisablesAudio ensures a failed output is reported once and never retried.
func TestChannel_OutputFailureDisablesAudio(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var calls int

	c := New(factoryFor(nil, errNoDevice, &calls), DefaultSettings())

	c.Start(ctx)
	require.False(t, c.Available())
	require.False(t, c.Playing())

	c.Start(ctx)
	c.Stop(ctx)
	c.Close(ctx)
	require.Equal(t, 1, calls)
}

// TestChannel_NilFactory checks audio can be switched off entirely.
func TestChannel_NilFactory(t *testing.T) {
	t.Parallel()

	c := New(nil, Settings{})
	c.Start(context.Background())
	require.False(t, c.Available())
	require.False(t, c.Playing())
}

// TestChannel_CloseSuspendsOutput verifies unmount silences the shared output.
func TestChannel_CloseSuspendsOutput(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		output := new(fakeContext)

		var calls int

		c := New(factoryFor(output, nil, &calls), DefaultSettings())
		c.Start(ctx)
		c.Close(ctx)

		require.False(t, c.Playing())
		require.Equal(t, 1, output.suspended)
	})
}
