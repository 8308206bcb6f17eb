package checker

import (
	"testing"

	"github.com/stretchr/testify/require"

	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
)

// TestWatcher_Changed reports only transitions.
func TestWatcher_Changed(t *testing.T) {
	t.Parallel()

	w := new(watcher)
	require.True(t, w.changed(new(pb.AlertState)))

	w.last = &pb.AlertState{IsActive: true, SessionID: "a", TorchPermission: "prompt"}

	require.False(t, w.changed(&pb.AlertState{IsActive: true, SessionID: "a", TorchPermission: "prompt"}))
	require.True(t, w.changed(&pb.AlertState{IsActive: false, SessionID: "a", TorchPermission: "prompt"}))
	require.True(t, w.changed(&pb.AlertState{IsActive: true, SessionID: "b", TorchPermission: "prompt"}))
	require.True(t, w.changed(&pb.AlertState{IsActive: true, SessionID: "a", TorchPermission: "granted"}))
}
