package terminal

import (
	"context"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/oshokin/sos-beacon/internal/channel/visual"
	"github.com/oshokin/sos-beacon/internal/domain/alert"
	"github.com/oshokin/sos-beacon/internal/logger"
)

// eventBuffer is the capacity of the event queue between the poller and the loop.
const eventBuffer = 16

// Controller is what the key loop drives.
type Controller interface {
	Toggle(ctx context.Context, actor *alert.Actor) (*alert.Snapshot, error)
	Subscribe() (<-chan *alert.Snapshot, func())
}

//nolint:gochecknoglobals // Read-only styles.
var (
	styleWhite  = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	styleBlack  = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleTitle  = styleBlack.Bold(true)
	styleActive = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorRed).Bold(true)
	styleHint   = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorGray)
)

// Terminal owns a tcell screen.
type Terminal struct {
	// screen is the drawing surface.
	screen tcell.Screen

	// mu serializes drawing and protects the fields below.
	mu sync.Mutex
	// overlay is the latest overlay state.
	overlay visual.Overlay
	// status is the latest snapshot, nil before the first one.
	status *alert.Snapshot
	// closed is set by Close.
	closed bool
}

// Open initializes the controlling terminal.
func Open() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}

	if err = screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}

	return New(screen), nil
}

// New wraps an initialized screen.
func New(screen tcell.Screen) *Terminal {
	t := &Terminal{screen: screen}

	t.mu.Lock()
	t.drawLocked()
	t.mu.Unlock()

	return t
}

// RenderOverlay paints the overlay, or the status screen once it is hidden.
func (t *Terminal) RenderOverlay(overlay visual.Overlay) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.overlay = overlay
	t.drawLocked()
}

// RenderStatus updates the status screen.
func (t *Terminal) RenderStatus(snapshot *alert.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = snapshot.Clone()
	t.drawLocked()
}

// Run handles keys and status updates until ctx ends, the user quits or the
// controller closes. Space, Enter and "s" toggle the alert; "q", Esc and
// Ctrl-C quit.
func (t *Terminal) Run(ctx context.Context, controller Controller, actor *alert.Actor) error {
	feed, unsubscribe := controller.Subscribe()
	defer unsubscribe()

	events := make(chan tcell.Event, eventBuffer)
	stop := make(chan struct{})

	defer close(stop)

	go t.poll(events, stop)

	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot, ok := <-feed:
			if !ok {
				return nil
			}

			t.RenderStatus(snapshot)
		case event := <-events:
			switch event := event.(type) {
			case *tcell.EventKey:
				if isQuit(event) {
					logger.Info(ctx, "Quit requested from keyboard")

					return nil
				}

				if isToggle(event) {
					if _, err := controller.Toggle(ctx, actor); err != nil {
						logger.WarnKV(ctx, "Toggle failed", "error", err)
					}
				}
			case *tcell.EventResize:
				t.mu.Lock()
				t.screen.Sync()
				t.drawLocked()
				t.mu.Unlock()
			}
		}
	}
}

// Close restores the terminal. It is idempotent.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	t.closed = true
	t.screen.Fini()
}

// poll forwards screen events until the screen is finalized or stop closes.
func (t *Terminal) poll(events chan<- tcell.Event, stop <-chan struct{}) {
	for {
		event := t.screen.PollEvent()
		if event == nil {
			return
		}

		select {
		case events <- event:
		case <-stop:
			return
		}
	}
}

// drawLocked repaints the whole screen.
func (t *Terminal) drawLocked() {
	if t.closed {
		return
	}

	if t.overlay.Visible {
		style := styleBlack
		if t.overlay.Color == visual.ColorOn {
			style = styleWhite
		}

		t.screen.Fill(' ', style)
		t.screen.Show()

		return
	}

	t.screen.Fill(' ', styleBlack)

	state := alert.Inactive
	torch, audio := "probing", "ready"

	if t.status != nil {
		state = t.status.State

		switch {
		case !t.status.TorchSupported:
			torch = "unavailable"
		default:
			torch = t.status.Torch.String()
		}

		if !t.status.AudioAvailable {
			audio = "unavailable"
		}
	}

	stateStyle := styleTitle
	if state == alert.Active {
		stateStyle = styleActive
	}

	_, height := t.screen.Size()
	top := height/2 - 3

	t.centered(top, "SOS BEACON", styleTitle)
	t.centered(top+2, stateLabel(state), stateStyle)
	t.centered(top+4, "torch: "+torch+"   siren: "+audio, styleHint)
	t.centered(top+6, "space: send / stop SOS   q: quit", styleHint)
	t.screen.Show()
}

// centered writes text in the middle of row y.
func (t *Terminal) centered(y int, text string, style tcell.Style) {
	width, height := t.screen.Size()
	if y < 0 || y >= height {
		return
	}

	runes := []rune(text)

	x := (width - len(runes)) / 2
	if x < 0 {
		x = 0
	}

	for i, r := range runes {
		if x+i >= width {
			return
		}

		t.screen.SetContent(x+i, y, r, nil, style)
	}
}

// stateLabel is the headline for a state.
func stateLabel(state alert.State) string {
	if state == alert.Active {
		return "SOS ACTIVE"
	}

	return "INACTIVE"
}

// isQuit reports whether a key ends the program.
func isQuit(event *tcell.EventKey) bool {
	switch event.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return event.Rune() == 'q' || event.Rune() == 'Q'
	default:
		return false
	}
}

// isToggle reports whether a key flips the alert.
func isToggle(event *tcell.EventKey) bool {
	switch event.Key() {
	case tcell.KeyEnter:
		return true
	case tcell.KeyRune:
		switch event.Rune() {
		case ' ', 's', 'S':
			return true
		}
	}

	return false
}
