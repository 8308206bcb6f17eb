package visual

import (
	"context"
	"sync"

	"github.com/oshokin/sos-beacon/internal/logger"
)

// Color is one of the two overlay colors.
type Color int

const (
	// ColorOn is shown while the signal level is on. It is also the resting color.
	ColorOn Color = iota
	// ColorOff is shown while the signal level is off.
	ColorOff
)

// String returns the CSS-like name of the color.
func (c Color) String() string {
	if c == ColorOff {
		return "black"
	}

	return "white"
}

// Overlay is the rendered state of the flash overlay.
type Overlay struct {
	// Visible reports whether the overlay covers the screen.
	Visible bool
	// Opacity is 1 while flashing and 0 when hidden.
	Opacity float64
	// Color is the current fill color.
	Color Color
}

// hidden is the resting overlay state.
//
//nolint:gochecknoglobals // Immutable value used as the reset target.
var hidden = Overlay{Visible: false, Opacity: 0, Color: ColorOn}

// Renderer draws overlay changes. RenderOverlay is called with the channel lock
// held, so renders arrive in the order the changes happened.
type Renderer interface {
	RenderOverlay(o Overlay)
}

// Channel owns the overlay and pushes every change to its renderer.
type Channel struct {
	// mu serializes changes and renders.
	mu sync.Mutex
	// renderer receives overlay changes; never nil.
	renderer Renderer
	// overlay is the current state.
	overlay Overlay
}

// New creates a hidden overlay channel. A nil renderer discards output.
func New(renderer Renderer) *Channel {
	if renderer == nil {
		renderer = nopRenderer{}
	}

	return &Channel{
		renderer: renderer,
		overlay:  hidden,
	}
}

// Start makes the overlay visible and fully opaque.
func (c *Channel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.overlay.Visible = true
	c.overlay.Opacity = 1
	c.renderer.RenderOverlay(c.overlay)
}

// OnLevel paints the overlay for a signal level. It is ignored while hidden so a
// late step can never bring the overlay back after Stop.
func (c *Channel) OnLevel(level bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.overlay.Visible {
		return
	}

	c.overlay.Color = ColorOff
	if level {
		c.overlay.Color = ColorOn
	}

	c.renderer.RenderOverlay(c.overlay)
}

// Stop hides the overlay and resets its color and opacity.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.overlay = hidden
	c.renderer.RenderOverlay(c.overlay)
}

// Overlay returns the current overlay state.
func (c *Channel) Overlay() Overlay {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.overlay
}

// nopRenderer discards overlay changes.
type nopRenderer struct{}

// RenderOverlay does nothing.
func (nopRenderer) RenderOverlay(Overlay) {}

// LogRenderer reports overlay visibility changes through the context logger.
// It stands in for a screen when the beacon runs headless.
type LogRenderer struct {
	// ctx carries the logger.
	ctx context.Context //nolint:containedctx // The renderer is driven by timers that have no context of their own.
	// mu protects visible.
	mu sync.Mutex
	// visible is the last logged visibility.
	visible bool
}

// NewLogRenderer creates a renderer logging through the logger in ctx.
func NewLogRenderer(ctx context.Context) *LogRenderer {
	return &LogRenderer{ctx: ctx}
}

// RenderOverlay logs visibility changes at info level and colors at debug level.
func (r *LogRenderer) RenderOverlay(o Overlay) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.Visible != r.visible {
		r.visible = o.Visible
		logger.InfoKV(r.ctx, "Overlay visibility changed", "visible", o.Visible)
	}

	logger.DebugKV(r.ctx, "Overlay rendered", "color", o.Color.String(), "opacity", o.Opacity)
}
