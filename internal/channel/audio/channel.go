package audio

import (
	"context"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"

	"github.com/oshokin/sos-beacon/internal/logger"
)

// Context is the process-wide audio output the siren plays through.
type Context interface {
	// SampleRate is the output sample rate.
	SampleRate() beep.SampleRate
	// Resume lets queued streamers reach the output.
	Resume() error
	// Suspend silences the output without dropping streamers.
	Suspend() error
	// Play queues a streamer until it ends.
	Play(s beep.Streamer)
}

// ContextFactory creates the output Context. It is called at most once per
// channel, on the first Start.
type ContextFactory func() (Context, error)

// Settings tunes the siren.
type Settings struct {
	// Gain is the output amplitude in (0, 1].
	Gain float64
	// LowHz is the resting frequency.
	LowHz float64
	// HighHz is the peak frequency of every sweep.
	HighHz float64
	// SweepPeriod is the length of one low-high-low sweep and its repeat interval.
	SweepPeriod time.Duration
}

// DefaultSettings returns the classic 800-1200 Hz wail.
func DefaultSettings() Settings {
	return Settings{
		Gain:        0.3,
		LowHz:       800,
		HighHz:      1200,
		SweepPeriod: time.Second,
	}
}

// Channel starts and stops the siren alongside the alert.
type Channel struct {
	// factory lazily builds output.
	factory ContextFactory
	// settings tunes the siren.
	settings Settings

	// mu protects the fields below.
	mu sync.Mutex
	// output is created on first use and never recreated.
	output Context
	// disabled is set for good once the output failed to initialise.
	disabled bool
	// oscillator is the live oscillator, nil while silent.
	oscillator *Oscillator
	// gain wraps oscillator; it leaves the mixer together with it.
	gain *effects.Gain
	// stopSweep ends the re-sweep goroutine.
	stopSweep chan struct{}
	// sweepDone is closed when the re-sweep goroutine has exited.
	sweepDone chan struct{}
}

// New creates a siren channel. A nil factory disables audio.
func New(factory ContextFactory, settings Settings) *Channel {
	if settings.SweepPeriod <= 0 {
		settings.SweepPeriod = DefaultSettings().SweepPeriod
	}

	return &Channel{
		factory:  factory,
		settings: settings,
		disabled: factory == nil,
	}
}

// Start plays the siren. Output failures are logged and leave the channel silent.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled || c.oscillator != nil {
		return
	}

	if c.output == nil {
		output, err := c.factory()
		if err != nil {
			c.disabled = true
			logger.ErrorKV(ctx, "Audio output unavailable, siren disabled", "error", err)

			return
		}

		c.output = output
	}

	// Outputs start suspended until something asks for sound.
	if err := c.output.Resume(); err != nil {
		logger.WarnKV(ctx, "Failed to resume audio output", "error", err)
	}

	oscillator := NewOscillator(c.output.SampleRate(), c.settings.LowHz)
	oscillator.Sweep(c.settings.LowHz, c.settings.HighHz, c.settings.SweepPeriod)

	if err := oscillator.Start(); err != nil {
		logger.ErrorKV(ctx, "Failed to start oscillator", "error", err)

		return
	}

	gain := &effects.Gain{
		Streamer: oscillator,
		Gain:     c.settings.Gain - 1,
	}

	c.output.Play(gain)

	c.oscillator = oscillator
	c.gain = gain
	c.stopSweep = make(chan struct{})
	c.sweepDone = make(chan struct{})

	go c.resweep(oscillator, c.stopSweep, c.sweepDone)

	logger.DebugKV(ctx, "Siren started", "low_hz", c.settings.LowHz, "high_hz", c.settings.HighHz)
}

// Stop silences the siren and releases the oscillator. It is idempotent.
func (c *Channel) Stop(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.oscillator == nil {
		return
	}

	close(c.stopSweep)
	<-c.sweepDone

	if err := c.oscillator.Stop(); err != nil {
		logger.WarnKV(ctx, "Failed to stop oscillator", "error", err)
	}

	c.oscillator = nil
	c.gain = nil
	c.stopSweep = nil
	c.sweepDone = nil

	logger.Debug(ctx, "Siren stopped")
}

// Close stops the siren and suspends the output. The output is kept so the
// process never initialises audio twice.
func (c *Channel) Close(ctx context.Context) {
	c.Stop(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.output == nil {
		return
	}

	if err := c.output.Suspend(); err != nil {
		logger.WarnKV(ctx, "Failed to suspend audio output", "error", err)
	}
}

// Available reports whether the siren can play.
func (c *Channel) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return !c.disabled
}

// Playing reports whether the siren is currently on.
func (c *Channel) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.oscillator != nil
}

// resweep re-triggers the sweep every period until stop is closed.
func (c *Channel) resweep(oscillator *Oscillator, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.settings.SweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			oscillator.Sweep(c.settings.LowHz, c.settings.HighHz, c.settings.SweepPeriod)
		}
	}
}
