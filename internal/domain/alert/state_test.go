package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestActorClone verifies that Clone returns a deep copy and handles nil safely.
func TestActorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Actor)(nil).Clone())

	a := &Actor{
		Hostname: "Oleg Shokin",
		Username: "o.shokin",
	}

	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
}

// TestSnapshotClone verifies that Snapshot.Clone copies fields and deep-copies LastActor.
func TestSnapshotClone(t *testing.T) {
	t.Parallel()

	s := &Snapshot{
		State:     Active,
		Timestamp: time.Now().UTC().Truncate(time.Second),
		LastActor: &Actor{
			Hostname: "Oleg Shokin",
			Username: "o.shokin",
		},
		SessionID:      "session",
		TorchSupported: true,
		Torch:          PermissionGranted,
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s.LastActor, c.LastActor)
	require.True(t, c.IsActive())
	require.Nil(t, (*Snapshot)(nil).Clone())
	require.False(t, (*Snapshot)(nil).IsActive())
}

// TestEnumStrings checks the readable forms and parsing of the enums.
func TestEnumStrings(t *testing.T) {
	t.Parallel()

	require.Equal(t, "active", Active.String())
	require.Equal(t, "inactive", Inactive.String())

	for _, p := range []Permission{PermissionPrompt, PermissionGranted, PermissionDenied} {
		require.Equal(t, p, ParsePermission(p.String()))
	}

	require.Equal(t, PermissionPrompt, ParsePermission("bogus"))
}
