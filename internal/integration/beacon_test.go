package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-beacon/internal/config"
	"github.com/oshokin/sos-beacon/internal/service/beacon"
)

// startTimeout bounds how long a beacon may take to start or stop.
const startTimeout = 5 * time.Second

// testBeacon describes a running headless beacon.
type testBeacon struct {
	// configPath is the settings file clients should load.
	configPath string
	// control is the bound gRPC address.
	control string
	// bridge is the bound websocket bridge address.
	bridge string
}

// startBeacon runs a headless beacon with audio off and an empty LED tree.
// The beacon is stopped when the test ends.
func startBeacon(t *testing.T) *testBeacon {
	t.Helper()

	dir := t.TempDir()
	settings := config.Default()
	settings.ControlAddress = "127.0.0.1:0"
	settings.BridgeAddress = "127.0.0.1:0"
	settings.Timeout = 2 * time.Second
	settings.Audio.Disabled = true
	settings.Torch.LEDRoot = filepath.Join(dir, "leds")

	configPath := filepath.Join(dir, config.DefaultConfigFilename)
	require.NoError(t, config.Save(configPath, settings))

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan *testBeacon, 1)
	done := make(chan error, 1)

	go func() {
		done <- beacon.Run(ctx, &beacon.Options{
			ConfigPath:    configPath,
			Headless:      true,
			AllowMultiple: true,
			Ready: func(control, bridge string) {
				ready <- &testBeacon{configPath: configPath, control: control, bridge: bridge}
			},
		})
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(startTimeout):
			t.Error("beacon did not stop")
		}
	})

	select {
	case b := <-ready:
		return b
	case err := <-done:
		require.FailNow(t, "beacon exited early", "error: %v", err)
	case <-time.After(startTimeout):
		require.FailNow(t, "beacon did not start")
	}

	return nil
}
