package visual

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRenderer records every rendered overlay.
type fakeRenderer struct {
	// renders holds overlays in render order.
	renders []Overlay
}

// RenderOverlay records o.
func (f *fakeRenderer) RenderOverlay(o Overlay) {
	f.renders = append(f.renders, o)
}

// TestChannel_Lifecycle walks start, levels and stop.
func TestChannel_Lifecycle(t *testing.T) {
	t.Parallel()

	r := new(fakeRenderer)
	c := New(r)
	require.Equal(t, hidden, c.Overlay())

	c.Start()
	require.Equal(t, Overlay{Visible: true, Opacity: 1, Color: ColorOn}, c.Overlay())

	c.OnLevel(false)
	require.Equal(t, ColorOff, c.Overlay().Color)

	c.OnLevel(true)
	require.Equal(t, ColorOn, c.Overlay().Color)

	c.OnLevel(false)
	c.Stop()
	require.Equal(t, hidden, c.Overlay())

	require.Len(t, r.renders, 5)
	require.Equal(t, hidden, r.renders[len(r.renders)-1])
}

// TestChannel_LevelAfterStopIsIgnored ensures the overlay stays hidden after Stop.
func TestChannel_LevelAfterStopIsIgnored(t *testing.T) {
	t.Parallel()

	r := new(fakeRenderer)
	c := New(r)

	c.Start()
	c.Stop()
	c.OnLevel(false)
	c.OnLevel(true)

	require.Equal(t, hidden, c.Overlay())
	require.Len(t, r.renders, 2)

	// Stop is idempotent.
	c.Stop()
	require.Equal(t, hidden, c.Overlay())
}

// TestChannel_NilRenderer checks the channel works without a renderer.
func TestChannel_NilRenderer(t *testing.T) {
	t.Parallel()

	c := New(nil)
	c.Start()
	c.OnLevel(true)
	c.Stop()
	require.False(t, c.Overlay().Visible)
}

// TestLogRenderer smoke-tests the headless renderer.
func TestLogRenderer(t *testing.T) {
	t.Parallel()

	c := New(NewLogRenderer(context.Background()))
	c.Start()
	c.OnLevel(false)
	c.Stop()
	require.Equal(t, "white", c.Overlay().Color.String())
	require.Equal(t, "black", ColorOff.String())
}
