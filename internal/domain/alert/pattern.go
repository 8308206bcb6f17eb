package alert

import (
	"errors"
	"fmt"
	"time"
)

// S-O-S Morse timings.
const (
	// DotDuration is the length of a short flash.
	DotDuration = 200 * time.Millisecond
	// DashDuration is the length of a long flash.
	DashDuration = 600 * time.Millisecond
	// GapDuration separates flashes inside a letter and letters inside the word.
	GapDuration = 200 * time.Millisecond
	// PauseDuration is the dark pause before the word repeats.
	PauseDuration = 1000 * time.Millisecond
)

var (
	// errEmptyPattern is returned when a pattern has no steps.
	errEmptyPattern = errors.New("pattern must contain at least one step")
	// errNonPositiveDuration is returned when a step does not last.
	errNonPositiveDuration = errors.New("step duration must be positive")
)

// SignalStep holds the output at Level for Duration.
type SignalStep struct {
	// Duration is how long the level is held.
	Duration time.Duration
	// Level is the output level, true meaning "on".
	Level bool
}

// Pattern is an immutable ordered sequence of steps that loops forever.
// The zero value is an empty pattern and must not be started.
type Pattern struct {
	// steps is never exposed directly so callers cannot mutate a shared pattern.
	steps []SignalStep
}

// NewPattern validates the steps and returns a pattern owning a copy of them.
func NewPattern(steps ...SignalStep) (Pattern, error) {
	if len(steps) == 0 {
		return Pattern{}, errEmptyPattern
	}

	for i, step := range steps {
		if step.Duration <= 0 {
			return Pattern{}, fmt.Errorf("step %d: %w", i, errNonPositiveDuration)
		}
	}

	owned := make([]SignalStep, len(steps))
	copy(owned, steps)

	return Pattern{steps: owned}, nil
}

// MustPattern is like NewPattern but panics on invalid input.
// It is meant for package-level pattern definitions.
func MustPattern(steps ...SignalStep) Pattern {
	p, err := NewPattern(steps...)
	if err != nil {
		panic(err)
	}

	return p
}

// Len returns the number of steps in one cycle.
func (p Pattern) Len() int {
	return len(p.steps)
}

// Step returns the step at index i.
func (p Pattern) Step(i int) SignalStep {
	return p.steps[i]
}

// Steps returns a copy of all steps.
func (p Pattern) Steps() []SignalStep {
	out := make([]SignalStep, len(p.steps))
	copy(out, p.steps)

	return out
}

// Cycle returns the duration of one full pass through the pattern.
func (p Pattern) Cycle() time.Duration {
	var total time.Duration
	for _, step := range p.steps {
		total += step.Duration
	}

	return total
}

//nolint:gochecknoglobals // The S-O-S pattern is defined once and shared read-only.
var sosPattern = MustPattern(
	// S
	SignalStep{Duration: DotDuration, Level: true},
	SignalStep{Duration: GapDuration, Level: false},
	SignalStep{Duration: DotDuration, Level: true},
	SignalStep{Duration: GapDuration, Level: false},
	SignalStep{Duration: DotDuration, Level: true},
	SignalStep{Duration: GapDuration, Level: false},
	// O
	SignalStep{Duration: DashDuration, Level: true},
	SignalStep{Duration: GapDuration, Level: false},
	SignalStep{Duration: DashDuration, Level: true},
	SignalStep{Duration: GapDuration, Level: false},
	SignalStep{Duration: DashDuration, Level: true},
	SignalStep{Duration: GapDuration, Level: false},
	// S
	SignalStep{Duration: DotDuration, Level: true},
	SignalStep{Duration: GapDuration, Level: false},
	SignalStep{Duration: DotDuration, Level: true},
	SignalStep{Duration: GapDuration, Level: false},
	SignalStep{Duration: DotDuration, Level: true},
	SignalStep{Duration: PauseDuration, Level: false},
)

// SOSPattern returns the fixed S-O-S signal: three dots, three dashes,
// three dots, then a long pause before the word repeats.
func SOSPattern() Pattern {
	return sosPattern
}
