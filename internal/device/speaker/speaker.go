package speaker

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	// sampleRate is the playback rate of the speaker.
	sampleRate = beep.SampleRate(48000)
	// bufferDuration is the speaker buffer length; it bounds stop latency.
	bufferDuration = 100 * time.Millisecond
)

// Output is the shared playback context.
type Output struct {
	// mixer holds every playing streamer and drops finished ones.
	mixer *beep.Mixer
	// ctrl pauses the mixer while the output is suspended.
	ctrl *beep.Ctrl
}

var (
	//nolint:gochecknoglobals // The speaker can only be initialised once per process.
	openOnce sync.Once
	//nolint:gochecknoglobals // See openOnce.
	shared *Output
	//nolint:gochecknoglobals // See openOnce.
	errOpen error
)

// Open initialises the speaker once and returns the shared output.
// Later calls return the same output, or the same initialisation error.
func Open() (*Output, error) {
	openOnce.Do(func() {
		if err := speaker.Init(sampleRate, sampleRate.N(bufferDuration)); err != nil {
			errOpen = fmt.Errorf("init speaker: %w", err)

			return
		}

		shared = newOutput()
		speaker.Play(shared.ctrl)
	})

	return shared, errOpen
}

// newOutput builds a suspended output around an empty mixer.
func newOutput() *Output {
	mixer := new(beep.Mixer)

	return &Output{
		mixer: mixer,
		ctrl: &beep.Ctrl{
			Streamer: mixer,
			Paused:   true,
		},
	}
}

// SampleRate returns the playback rate.
func (o *Output) SampleRate() beep.SampleRate {
	return sampleRate
}

// Resume un-pauses the output.
func (o *Output) Resume() error {
	speaker.Lock()
	defer speaker.Unlock()

	o.ctrl.Paused = false

	return nil
}

// Suspend pauses the output; queued streamers keep their position.
func (o *Output) Suspend() error {
	speaker.Lock()
	defer speaker.Unlock()

	o.ctrl.Paused = true

	return nil
}

// Suspended reports whether the output is paused.
func (o *Output) Suspended() bool {
	speaker.Lock()
	defer speaker.Unlock()

	return o.ctrl.Paused
}

// Play adds s to the mixer. The mixer drops s once its stream ends.
func (o *Output) Play(s beep.Streamer) {
	speaker.Lock()
	defer speaker.Unlock()

	o.mixer.Add(s)
}
