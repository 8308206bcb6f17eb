package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSOSPattern_Shape verifies the step count, alternation and cycle length of the S-O-S pattern.
func TestSOSPattern_Shape(t *testing.T) {
	t.Parallel()

	p := SOSPattern()
	require.Equal(t, 18, p.Len())
	require.Equal(t, 5600*time.Millisecond, p.Cycle())

	var sum time.Duration

	for i, step := range p.Steps() {
		// Even indexes are flashes, odd indexes are gaps.
		require.Equal(t, i%2 == 0, step.Level, "step %d", i)

		sum += step.Duration
	}

	require.Equal(t, p.Cycle(), sum)

	// Dashes sit in the middle letter.
	require.Equal(t, DashDuration, p.Step(6).Duration)
	require.Equal(t, DashDuration, p.Step(10).Duration)
	require.Equal(t, PauseDuration, p.Step(17).Duration)
}

// TestNewPattern_Validation checks rejection of empty patterns and non-positive durations.
func TestNewPattern_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewPattern()
	require.ErrorIs(t, err, errEmptyPattern)

	_, err = NewPattern(SignalStep{Duration: time.Second, Level: true}, SignalStep{Duration: 0})
	require.ErrorIs(t, err, errNonPositiveDuration)

	require.Panics(t, func() { MustPattern() })
}

// TestPattern_IsImmutable ensures callers cannot alter a pattern through inputs or outputs.
func TestPattern_IsImmutable(t *testing.T) {
	t.Parallel()

	steps := []SignalStep{{Duration: time.Second, Level: true}}

	p, err := NewPattern(steps...)
	require.NoError(t, err)

	steps[0].Level = false
	require.True(t, p.Step(0).Level)

	out := p.Steps()
	out[0].Duration = time.Hour
	require.Equal(t, time.Second, p.Step(0).Duration)
}
