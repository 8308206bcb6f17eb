package integration

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sos-beacon/internal/service/client"
)

// TestClient_Actions runs every sos-button action against a live beacon.
func TestClient_Actions(t *testing.T) {
	t.Parallel()

	b := startBeacon(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run := func(action client.Action, asJSON bool) string {
		var out bytes.Buffer

		err := client.Run(ctx, &client.Options{
			ConfigPath:    b.configPath,
			ServerAddress: b.control,
			Action:        action,
			JSON:          asJSON,
			Output:        &out,
		})
		require.NoError(t, err)

		return out.String()
	}

	require.True(t, strings.HasPrefix(run(client.ActionStatus, false), "inactive by "))
	require.True(t, strings.HasPrefix(run(client.ActionOn, false), "active by "))
	require.Contains(t, run(client.ActionStatus, true), `"is_active": true`)
	require.True(t, strings.HasPrefix(run(client.ActionToggle, false), "inactive by "))

	run(client.ActionOff, false)
	require.Contains(t, run(client.ActionStatus, true), `"is_active": false`)
}
