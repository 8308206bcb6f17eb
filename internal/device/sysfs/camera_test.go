package sysfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-beacon/internal/channel/torch"
)

// makeLED creates a fake LED class device.
func makeLED(t *testing.T, root, name, maxLevel string) string {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, maxBrightnessFile), []byte(maxLevel+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, brightnessFile), []byte("0\n"), 0o644))

	return dir
}

// brightness reads the current LED level.
func brightness(t *testing.T, dir string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, brightnessFile))
	require.NoError(t, err)

	return string(data)
}

var rear = torch.Constraints{FacingMode: torch.FacingEnvironment}

func TestCamera_DetectsAndDrivesLED(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makeLED(t, root, "input0::capslock", "1")
	dir := makeLED(t, root, "white:flash", "255")

	stream, err := NewCamera(root, "").Open(context.Background(), rear)
	require.NoError(t, err)

	track := stream.Track()
	require.True(t, track.Capabilities().Torch)

	require.NoError(t, track.ApplyTorch(context.Background(), true))
	require.Equal(t, "255", brightness(t, dir))

	require.NoError(t, track.ApplyTorch(context.Background(), false))
	require.Equal(t, "0", brightness(t, dir))

	require.NoError(t, track.ApplyTorch(context.Background(), true))
	require.NoError(t, stream.Close())
	require.Equal(t, "0", brightness(t, dir))
	require.NoError(t, stream.Close())
}

func TestCamera_ExplicitPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := makeLED(t, root, "custom-led", "3")

	stream, err := NewCamera(filepath.Join(root, "missing"), dir).Open(context.Background(), rear)
	require.NoError(t, err)
	require.NoError(t, stream.Track().ApplyTorch(context.Background(), true))
	require.Equal(t, "3", brightness(t, dir))
}

func TestCamera_ZeroMaxBrightnessHasNoTorch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	makeLED(t, root, "torch", "0")

	stream, err := NewCamera(root, "").Open(context.Background(), rear)
	require.NoError(t, err)
	require.False(t, stream.Track().Capabilities().Torch)
}

func TestCamera_Errors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	_, err := NewCamera(root, "").Open(context.Background(), rear)
	require.ErrorIs(t, err, errNoLED)

	makeLED(t, root, "white:flash", "1")

	_, err = NewCamera(root, "").Open(context.Background(), torch.Constraints{FacingMode: "user"})
	require.ErrorIs(t, err, errUnsupportedFacing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewCamera(root, "").Open(ctx, rear)
	require.ErrorIs(t, err, context.Canceled)

	_, err = NewCamera(root, filepath.Join(root, "absent")).Open(context.Background(), rear)
	require.Error(t, err)

	bad := makeLED(t, root, "bad", "many")
	_, err = NewCamera(root, bad).Open(context.Background(), rear)
	require.Error(t, err)
}

func TestNewCamera_DefaultRoot(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultRoot, NewCamera("", "").root)
}
