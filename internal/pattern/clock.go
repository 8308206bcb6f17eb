package pattern

import (
	"sync"
	"time"

	"github.com/oshokin/sos-beacon/internal/domain/alert"
)

// StepFunc receives the level of the step the clock has just entered.
type StepFunc func(level bool)

// Clock steps through a pattern on its own timers.
//
// StepFunc is invoked while the clock's lock is held, so a callback must not
// call back into the same Clock. In exchange Cancel is synchronous: once it
// returns, no callback is running and none will run for the cancelled loop.
type Clock struct {
	// mu serializes ticks with Start and Cancel.
	mu sync.Mutex
	// timer is the single outstanding timer, nil when stopped.
	timer *time.Timer
	// pattern is the pattern being walked.
	pattern alert.Pattern
	// onStep receives step levels.
	onStep StepFunc
	// index is the step currently being held.
	index int
	// generation identifies the current loop; timers of older loops are stale.
	generation uint64
	// running is the liveness flag checked by every fired timer.
	running bool
}

// NewClock returns a stopped clock.
func NewClock() *Clock {
	return new(Clock)
}

// Start begins walking p from step 0, replacing any running loop.
// onStep is called immediately with the first level and then at every step boundary.
// An empty pattern leaves the clock stopped.
func (c *Clock) Start(p alert.Pattern, onStep StepFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	if p.Len() == 0 || onStep == nil {
		return
	}

	c.generation++
	c.pattern = p
	c.onStep = onStep
	c.index = 0
	c.running = true

	c.onStep(c.pattern.Step(0).Level)
	c.scheduleLocked(c.generation)
}

// Cancel stops the loop. It is idempotent.
func (c *Clock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
}

// Running reports whether a loop is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// fire advances to the next step of loop gen.
func (c *Clock) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The timer may have fired while Cancel or Start was waiting for the lock.
	if !c.running || gen != c.generation {
		return
	}

	c.index = (c.index + 1) % c.pattern.Len()
	c.onStep(c.pattern.Step(c.index).Level)
	c.scheduleLocked(gen)
}

// scheduleLocked arms the timer for the current step.
func (c *Clock) scheduleLocked(gen uint64) {
	c.timer = time.AfterFunc(c.pattern.Step(c.index).Duration, func() {
		c.fire(gen)
	})
}

// stopLocked clears the timer and the liveness flag.
func (c *Clock) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	c.running = false
	c.onStep = nil
}
