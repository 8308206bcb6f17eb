package torch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/oshokin/sos-beacon/internal/domain/alert"
	"github.com/oshokin/sos-beacon/internal/logger"
)

const (
	// permissionKey groups concurrent permission requests.
	permissionKey = "permission"
	// errorLogInterval limits repeated apply failures to one log line per interval.
	errorLogInterval = 5 * time.Second
)

// pulse is a requested torch level for one session.
type pulse struct {
	// on is the requested level.
	on bool
	// session is the arm session the pulse belongs to.
	session uint64
}

// Channel owns the torch hardware for the lifetime of the beacon.
type Channel struct {
	// camera is the hardware surface; nil means the platform has none.
	camera Camera
	// ctx bounds the channel lifetime and carries the logger.
	ctx context.Context //nolint:containedctx // Acquisitions outlive the callers that trigger them.
	// cancel ends ctx on Release.
	cancel context.CancelFunc
	// requests collapses concurrent permission requests into one acquisition.
	requests singleflight.Group
	// pulses is a single-slot mailbox holding the latest pulse.
	pulses chan pulse
	// errorLog throttles logging of apply failures.
	errorLog rate.Sometimes

	// mu protects the fields below and is held while a level is applied.
	mu sync.Mutex
	// supported is the probe result.
	supported bool
	// permission is the grant state.
	permission alert.Permission
	// stream is the cached stream once granted.
	stream Stream
	// track is the torch-capable track of stream.
	track Track
	// armed is true while the alert is active.
	armed bool
	// session increments on every Arm, Disarm and Release.
	session uint64
	// released is set by Release.
	released bool
}

// New creates a torch channel and starts its pulse worker.
// A nil camera yields a channel that reports no support.
func New(ctx context.Context, camera Camera) *Channel {
	ctx, cancel := context.WithCancel(logger.WithName(ctx, "torch"))

	c := &Channel{
		camera:   camera,
		ctx:      ctx,
		cancel:   cancel,
		pulses:   make(chan pulse, 1),
		errorLog: rate.Sometimes{Interval: errorLogInterval},
	}

	go c.run()

	return c
}

// Probe opens a throwaway stream to learn whether a torch is present.
// The stream is closed either way and every failure counts as "unsupported".
func (c *Channel) Probe(ctx context.Context) bool {
	supported := c.probe(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.released {
		c.supported = supported
	}

	logger.InfoKV(ctx, "Torch probe finished", "supported", supported)

	return supported
}

// Supported returns the probe result.
func (c *Channel) Supported() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.supported
}

// Permission returns the grant state.
func (c *Channel) Permission() alert.Permission {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.permission
}

// RequestPermission acquires and caches a torch-capable stream.
// Concurrent callers share one acquisition. A caller whose ctx ends stops
// waiting and gets the state at that moment; the acquisition carries on.
func (c *Channel) RequestPermission(ctx context.Context) alert.Permission {
	c.mu.Lock()

	switch {
	case c.released || !c.supported || c.permission == alert.PermissionDenied:
		permission := c.permission
		c.mu.Unlock()

		return permission
	case c.track != nil:
		c.mu.Unlock()

		return alert.PermissionGranted
	}

	c.mu.Unlock()

	result := c.requests.DoChan(permissionKey, func() (any, error) {
		return c.acquire(), nil
	})

	select {
	case res := <-result:
		permission, _ := res.Val.(alert.Permission)

		return permission
	case <-ctx.Done():
		return c.Permission()
	}
}

// Arm starts a new session in which pulses may light the torch.
func (c *Channel) Arm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}

	c.session++
	c.armed = true
}

// Disarm ends the current session and switches the torch off if it is held.
// Once Disarm returns no pulse of the ended session can switch the torch on.
func (c *Channel) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session++
	c.armed = false

	select {
	case <-c.pulses:
	default:
	}

	if c.released || c.track == nil {
		return
	}

	if err := c.track.ApplyTorch(c.ctx, false); err != nil {
		logger.WarnKV(c.ctx, "Failed to switch torch off", "error", err)
	}
}

// SetLevel asks the worker to switch the torch on or off. It never blocks;
// a pulse that has not been applied yet is replaced by the newer one.
func (c *Channel) SetLevel(on bool) {
	c.mu.Lock()

	if c.released || !c.armed || !c.supported {
		c.mu.Unlock()

		return
	}

	p := pulse{on: on, session: c.session}
	c.mu.Unlock()

	for {
		select {
		case c.pulses <- p:
			return
		default:
		}

		select {
		case <-c.pulses:
		default:
		}
	}
}

// Release stops the worker and closes the cached stream. It is idempotent.
func (c *Channel) Release() {
	c.mu.Lock()

	if c.released {
		c.mu.Unlock()

		return
	}

	c.released = true
	c.armed = false
	c.session++
	stream := c.stream
	c.stream, c.track = nil, nil
	c.mu.Unlock()

	c.cancel()

	if stream != nil {
		if err := stream.Close(); err != nil {
			logger.WarnKV(c.ctx, "Failed to close torch stream", "error", err)
		}
	}
}

// run applies pulses until the channel is released.
func (c *Channel) run() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case p := <-c.pulses:
			c.apply(p)
		}
	}
}

// apply switches the torch for a pulse, requesting access first if needed.
func (c *Channel) apply(p pulse) {
	c.mu.Lock()
	hasTrack := c.track != nil
	permission := c.permission
	c.mu.Unlock()

	if !hasTrack {
		// Denial is final: skip without asking again.
		if permission == alert.PermissionDenied {
			return
		}

		if c.RequestPermission(c.ctx) != alert.PermissionGranted {
			return
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Access may have been granted after the session ended.
	if c.released || !c.armed || p.session != c.session || c.track == nil {
		return
	}

	if err := c.track.ApplyTorch(c.ctx, p.on); err != nil {
		c.errorLog.Do(func() {
			logger.ErrorKV(c.ctx, "Failed to apply torch level, pulse skipped", "on", p.on, "error", err)
		})
	}
}

// probe performs the throwaway acquisition.
func (c *Channel) probe(ctx context.Context) bool {
	if c.camera == nil {
		return false
	}

	stream, err := c.camera.Open(ctx, Constraints{FacingMode: FacingEnvironment})
	if err != nil {
		logger.DebugKV(ctx, "Torch not supported", "error", err)

		return false
	}

	defer closeStream(ctx, stream)

	track := stream.Track()

	return track != nil && track.Capabilities().Torch
}

// acquire opens the stream that will be cached on success.
func (c *Channel) acquire() alert.Permission {
	stream, err := c.camera.Open(c.ctx, Constraints{FacingMode: FacingEnvironment})
	if err != nil {
		logger.WarnKV(c.ctx, "Torch permission denied", "error", err)

		return c.deny()
	}

	track := stream.Track()
	if track == nil || !track.Capabilities().Torch {
		closeStream(c.ctx, stream)
		logger.Warn(c.ctx, "Torch capability missing, permission denied")

		return c.deny()
	}

	c.mu.Lock()

	switch {
	case c.released:
		permission := c.permission
		c.mu.Unlock()
		closeStream(c.ctx, stream)

		return permission
	case c.track != nil:
		c.mu.Unlock()
		closeStream(c.ctx, stream)

		return alert.PermissionGranted
	}

	c.stream = stream
	c.track = track
	c.permission = alert.PermissionGranted
	c.mu.Unlock()

	logger.Info(c.ctx, "Torch permission granted")

	return alert.PermissionGranted
}

// deny records a final denial unless the channel is gone.
func (c *Channel) deny() alert.Permission {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return c.permission
	}

	c.permission = alert.PermissionDenied

	return c.permission
}

// closeStream releases a stream, logging failures.
func closeStream(ctx context.Context, stream Stream) {
	if err := stream.Close(); err != nil {
		logger.WarnKV(ctx, "Failed to close torch stream", "error", err)
	}
}
