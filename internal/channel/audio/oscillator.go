package audio

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
)

// oscillatorState is the lifecycle of an Oscillator.
type oscillatorState int

const (
	oscillatorIdle oscillatorState = iota
	oscillatorStarted
	oscillatorStopped
)

var (
	// ErrOscillatorStarted is returned when Start is called twice.
	ErrOscillatorStarted = errors.New("oscillator already started")
	// ErrOscillatorStopped is returned when a stopped oscillator is used again.
	ErrOscillatorStopped = errors.New("oscillator already stopped")
)

// sweep is a scheduled low-high-low exponential frequency ramp.
type sweep struct {
	// start is the sample position the ramp begins at.
	start int
	// half is the length of each ramp leg in samples.
	half int
	// from is the resting frequency.
	from float64
	// to is the peak frequency.
	to float64
}

// Oscillator is a single-use sine wave beep.Streamer.
// It streams silence until started and ends the stream once stopped, which
// makes a beep.Mixer drop it.
type Oscillator struct {
	// mu protects every field below; Stream runs on the audio thread.
	mu sync.Mutex
	// rate is the output sample rate.
	rate beep.SampleRate
	// state is the lifecycle state.
	state oscillatorState
	// phase is the wave phase in [0, 1).
	phase float64
	// pos counts rendered samples since Start.
	pos int
	// base is the frequency used outside of sweeps.
	base float64
	// sweep is the last scheduled ramp, if any.
	sweep *sweep
}

// NewOscillator creates an idle oscillator at the given frequency.
func NewOscillator(rate beep.SampleRate, frequency float64) *Oscillator {
	return &Oscillator{
		rate: rate,
		base: frequency,
	}
}

// Start begins producing sound.
func (o *Oscillator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case oscillatorStarted:
		return ErrOscillatorStarted
	case oscillatorStopped:
		return ErrOscillatorStopped
	}

	o.state = oscillatorStarted

	return nil
}

// Stop ends the stream for good.
func (o *Oscillator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == oscillatorStopped {
		return ErrOscillatorStopped
	}

	o.state = oscillatorStopped

	return nil
}

// Sweep replaces any scheduled ramp with one starting at the current sample:
// from rises exponentially to to over period/2 and falls back over period/2.
// Non-positive frequencies hold from without ramping.
func (o *Oscillator) Sweep(from, to float64, period time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.base = from

	if from <= 0 || to <= 0 {
		o.sweep = nil

		return
	}

	half := max(o.rate.N(period/2), 1)

	o.sweep = &sweep{
		start: o.pos,
		half:  half,
		from:  from,
		to:    to,
	}
}

// Frequency returns the frequency of the next sample.
func (o *Oscillator) Frequency() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.frequencyAt(o.pos)
}

// Stream fills samples with the sine wave.
func (o *Oscillator) Stream(samples [][2]float64) (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == oscillatorStopped {
		return 0, false
	}

	for i := range samples {
		if o.state != oscillatorStarted {
			samples[i] = [2]float64{}

			continue
		}

		value := math.Sin(2 * math.Pi * o.phase)
		samples[i] = [2]float64{value, value}

		o.phase += o.frequencyAt(o.pos) / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.pos++
	}

	return len(samples), true
}

// Err always returns nil.
func (o *Oscillator) Err() error {
	return nil
}

// frequencyAt evaluates the scheduled ramp at a sample position.
func (o *Oscillator) frequencyAt(pos int) float64 {
	s := o.sweep
	if s == nil {
		return o.base
	}

	elapsed := pos - s.start

	switch {
	case elapsed < 0:
		return s.from
	case elapsed < s.half:
		return s.from * math.Pow(s.to/s.from, float64(elapsed)/float64(s.half))
	case elapsed < 2*s.half:
		return s.to * math.Pow(s.from/s.to, float64(elapsed-s.half)/float64(s.half))
	default:
		return s.from
	}
}
