package sysfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/oshokin/sos-beacon/internal/channel/torch"
)

const (
	// DefaultRoot is where the kernel publishes LED class devices.
	DefaultRoot = "/sys/class/leds"
	// brightnessFile holds the current LED level.
	brightnessFile = "brightness"
	// maxBrightnessFile holds the highest accepted level.
	maxBrightnessFile = "max_brightness"
	// brightnessPermissions is used when writing; sysfs ignores it.
	brightnessPermissions = 0o644
)

var (
	// errNoLED is returned when no flash LED exists.
	errNoLED = errors.New("no flash LED found")
	// errUnsupportedFacing is returned for cameras other than the rear one.
	errUnsupportedFacing = errors.New("only the environment-facing light is available")
)

// ledPatterns are directory globs that identify flash LEDs.
//
//nolint:gochecknoglobals // Read-only lookup table.
var ledPatterns = []string{"*flash*", "*torch*"}

// Camera locates a flash LED under Root.
type Camera struct {
	// root is the LED class directory.
	root string
	// ledPath is an explicit LED directory; empty means auto-detect.
	ledPath string
}

// NewCamera returns a camera backed by the LED class directory.
// An empty root selects DefaultRoot. A non-empty ledPath skips detection.
func NewCamera(root, ledPath string) *Camera {
	if root == "" {
		root = DefaultRoot
	}

	return &Camera{
		root:    root,
		ledPath: ledPath,
	}
}

// Open checks the LED is present and writable and returns a stream for it.
func (c *Camera) Open(ctx context.Context, constraints torch.Constraints) (torch.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if constraints.FacingMode != torch.FacingEnvironment {
		return nil, errUnsupportedFacing
	}

	dir, err := c.locate()
	if err != nil {
		return nil, err
	}

	maxLevel, err := readLevel(filepath.Join(dir, maxBrightnessFile))
	if err != nil {
		return nil, err
	}

	brightness := filepath.Join(dir, brightnessFile)

	// Writability is the permission check.
	f, err := os.OpenFile(brightness, os.O_WRONLY, brightnessPermissions)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", brightness, err)
	}

	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", brightness, err)
	}

	return &Stream{
		track: &Track{
			brightness: brightness,
			maxLevel:   maxLevel,
		},
	}, nil
}

// locate returns the LED directory.
func (c *Camera) locate() (string, error) {
	if c.ledPath != "" {
		if _, err := os.Stat(c.ledPath); err != nil {
			return "", fmt.Errorf("stat LED %s: %w", c.ledPath, err)
		}

		return c.ledPath, nil
	}

	for _, pattern := range ledPatterns {
		matches, err := filepath.Glob(filepath.Join(c.root, pattern))
		if err != nil {
			return "", fmt.Errorf("search LEDs: %w", err)
		}

		for _, match := range matches {
			if _, err = os.Stat(filepath.Join(match, brightnessFile)); err == nil {
				return match, nil
			}
		}
	}

	return "", fmt.Errorf("%w in %s", errNoLED, c.root)
}

// Stream is an acquired LED.
type Stream struct {
	// mu protects closed.
	mu sync.Mutex
	// track is the LED control.
	track *Track
	// closed is set by Close.
	closed bool
}

// Track returns the LED control.
func (s *Stream) Track() torch.Track {
	return s.track
}

// Close switches the LED off. Subsequent calls do nothing.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	return s.track.write(false)
}

// Track writes brightness levels.
type Track struct {
	// brightness is the path of the brightness file.
	brightness string
	// maxLevel is written to switch the LED on.
	maxLevel int
}

// Capabilities reports torch support; an LED with no levels cannot light.
func (t *Track) Capabilities() torch.Capabilities {
	return torch.Capabilities{Torch: t.maxLevel > 0}
}

// ApplyTorch switches the LED.
func (t *Track) ApplyTorch(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.write(on)
}

// write stores the level for on.
func (t *Track) write(on bool) error {
	level := 0
	if on {
		level = t.maxLevel
	}

	if err := os.WriteFile(t.brightness, []byte(strconv.Itoa(level)), brightnessPermissions); err != nil {
		return fmt.Errorf("write %s: %w", t.brightness, err)
	}

	return nil
}

// readLevel parses an integer sysfs attribute.
func readLevel(path string) (int, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	level, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	return level, nil
}
