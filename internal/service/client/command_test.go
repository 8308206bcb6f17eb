package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
)

// TestFormatState covers populated and empty states.
func TestFormatState(t *testing.T) {
	t.Parallel()

	require.Equal(t, "<nil state>", FormatState(nil))

	require.Equal(t,
		"inactive by <unknown> (<unknown>), torch: unavailable, siren: unavailable",
		FormatState(new(pb.AlertState)),
	)

	state := &pb.AlertState{
		IsActive:        true,
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		LastActor:       &pb.SystemActor{Hostname: "kiosk", Username: "guard"},
		TorchSupported:  true,
		TorchPermission: "granted",
		AudioAvailable:  true,
	}

	require.Equal(t,
		"active by guard@kiosk (2026-03-01T12:00:00Z), torch: granted, siren: ready",
		FormatState(state),
	)
}
