package sos

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/sos-beacon/internal/domain/alert"
	"github.com/oshokin/sos-beacon/internal/logger"
	"github.com/oshokin/sos-beacon/internal/pattern"
)

// ErrClosed is returned by transitions requested after Close.
var ErrClosed = errors.New("sos controller is closed")

// Option configures a Controller.
type Option func(*Controller)

// WithPattern replaces the S-O-S pattern.
func WithPattern(p alert.Pattern) Option {
	return func(c *Controller) {
		c.pattern = p
	}
}

// Controller is the alert state machine.
type Controller struct {
	// ctx bounds background work and carries the logger.
	ctx context.Context //nolint:containedctx // Background probes outlive the calls that start them.
	// cancel ends ctx on Close.
	cancel context.CancelFunc
	// channels are the driven outputs.
	channels Channels
	// clock walks the pattern while active.
	clock *pattern.Clock
	// pattern is the signalled sequence.
	pattern alert.Pattern
	// wg tracks background goroutines.
	wg sync.WaitGroup

	// mu serializes transitions and protects the fields below.
	// The clock callback never takes it.
	mu sync.Mutex
	// state is the activation state.
	state alert.State
	// timestamp is when state last changed.
	timestamp time.Time
	// actor performed the last transition.
	actor *alert.Actor
	// sessionID identifies the current or last activation.
	sessionID string
	// closed is set by Close.
	closed bool
	// subscribers receive coalesced snapshots.
	subscribers map[uint64]chan *alert.Snapshot
	// nextSubscriber is the id of the next subscriber.
	nextSubscriber uint64
}

// NewController creates an inactive controller and probes the torch in the background.
func NewController(ctx context.Context, channels Channels, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(logger.WithName(ctx, "sos"))

	c := &Controller{
		ctx:         ctx,
		cancel:      cancel,
		channels:    channels,
		clock:       pattern.NewClock(),
		pattern:     alert.SOSPattern(),
		state:       alert.Inactive,
		timestamp:   time.Now(),
		subscribers: make(map[uint64]chan *alert.Snapshot),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		c.channels.Torch.Probe(c.ctx)
		c.publish()
	}()

	return c
}

// Toggle flips the alert.
func (c *Controller) Toggle(ctx context.Context, actor *alert.Actor) (*alert.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	c.transitionLocked(ctx, actor, c.state != alert.Active)

	return c.snapshotLocked(), nil
}

// SetDesired converges the alert towards an externally supplied state.
// Nothing happens when the states already match.
func (c *Controller) SetDesired(ctx context.Context, actor *alert.Actor, active bool) (*alert.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	if (c.state == alert.Active) != active {
		c.transitionLocked(ctx, actor, active)
	}

	return c.snapshotLocked(), nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() *alert.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// Subscribe returns a feed of snapshots, starting with the current one.
// A slow reader only sees the latest snapshot. The feed is closed by the
// returned cancel function or by Close.
func (c *Controller) Subscribe() (<-chan *alert.Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	feed := make(chan *alert.Snapshot, 1)

	if c.closed {
		close(feed)

		return feed, func() {}
	}

	id := c.nextSubscriber
	c.nextSubscriber++
	c.subscribers[id] = feed
	feed <- c.snapshotLocked()

	var once sync.Once

	return feed, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			if sub, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops the alert, releases every channel and waits for background work.
// It is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()

		return
	}

	c.closed = true

	if c.state == alert.Active {
		c.deactivateLocked(c.ctx)
		c.timestamp = time.Now()
	}

	c.channels.Torch.Release()
	c.channels.Audio.Close(c.ctx)

	for id, sub := range c.subscribers {
		delete(c.subscribers, id)
		close(sub)
	}

	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	logger.Info(c.ctx, "SOS controller closed")
}

// transitionLocked records and performs a transition.
func (c *Controller) transitionLocked(ctx context.Context, actor *alert.Actor, active bool) {
	if active {
		c.activateLocked(ctx)
	} else {
		c.deactivateLocked(ctx)
	}

	c.timestamp = time.Now()
	c.actor = actor.Clone()

	logger.InfoKV(ctx, "Alert state changed",
		"state", c.state,
		"session", c.sessionID,
		"actor", actor,
	)

	c.publishLocked()
}

// activateLocked starts every channel and the clock.
func (c *Controller) activateLocked(ctx context.Context) {
	c.state = alert.Active
	c.sessionID = uuid.NewString()

	sessionCtx := logger.WithKV(ctx, "session", c.sessionID)

	c.channels.Visual.Start()
	c.channels.Audio.Start(sessionCtx)
	c.channels.Torch.Arm()

	// Ask for torch access now so the grant does not wait for the first pulse.
	if c.channels.Torch.Supported() && c.channels.Torch.Permission() == alert.PermissionPrompt {
		c.wg.Add(1)

		go func() {
			defer c.wg.Done()

			permission := c.channels.Torch.RequestPermission(c.ctx)
			logger.DebugKV(sessionCtx, "Torch permission resolved", "permission", permission)
			c.publish()
		}()
	}

	c.clock.Start(c.pattern, c.onStep)
}

// deactivateLocked stops the clock first, then every channel.
func (c *Controller) deactivateLocked(ctx context.Context) {
	c.state = alert.Inactive

	c.clock.Cancel()
	c.channels.Visual.Stop()
	c.channels.Audio.Stop(ctx)
	c.channels.Torch.Disarm()
}

// onStep forwards a clock level to the overlay and the torch.
func (c *Controller) onStep(level bool) {
	c.channels.Visual.OnLevel(level)

	if c.channels.Torch.Supported() {
		c.channels.Torch.SetLevel(level)
	}
}

// snapshotLocked builds the current snapshot.
func (c *Controller) snapshotLocked() *alert.Snapshot {
	return &alert.Snapshot{
		State:          c.state,
		Timestamp:      c.timestamp,
		LastActor:      c.actor.Clone(),
		SessionID:      c.sessionID,
		TorchSupported: c.channels.Torch.Supported(),
		Torch:          c.channels.Torch.Permission(),
		AudioAvailable: c.channels.Audio.Available(),
	}
}

// publish notifies subscribers about out-of-band changes such as probe results.
func (c *Controller) publish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.publishLocked()
}

// publishLocked hands the latest snapshot to every subscriber, replacing unread ones.
func (c *Controller) publishLocked() {
	if len(c.subscribers) == 0 {
		return
	}

	snapshot := c.snapshotLocked()

	for _, sub := range c.subscribers {
		select {
		case <-sub:
		default:
		}

		sub <- snapshot.Clone()
	}
}
