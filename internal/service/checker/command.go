package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/sos-beacon/internal/config"
	"github.com/oshokin/sos-beacon/internal/logger"
	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
	"github.com/oshokin/sos-beacon/internal/service/common"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional control address override.
	ServerAddress string
	// PollInterval defines the interval between state checks.
	PollInterval time.Duration
	// OnChange, when set, is called with every observed transition.
	OnChange func(state *pb.AlertState)
}

// DefaultPollInterval defines the polling interval for state checks.
const DefaultPollInterval = 2 * time.Second

// Run polls the alert state until ctx ends, logging every transition.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "sos-watch")

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	// Determine server address: command line argument overrides config.
	serverAddress := cfg.ControlAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial beacon: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Watching alert state", "server_address", serverAddress, "interval", pollInterval.String())

	w := &watcher{onChange: opts.OnChange}

	// Check right away, then on every tick.
	w.check(ctx, client, actor)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return nil
		case <-ticker.C:
			w.check(ctx, client, actor)
		}
	}
}

// watcher remembers the last observed state.
type watcher struct {
	// onChange is notified of transitions.
	onChange func(state *pb.AlertState)
	// last is the previous state, nil before the first successful poll.
	last *pb.AlertState
}

// check polls once and reports a transition.
func (w *watcher) check(ctx context.Context, client *common.Client, actor *pb.SystemActor) {
	state, err := client.GetAlertState(ctx, actor)
	if err != nil {
		logger.ErrorKV(ctx, "Check state failed", "error", err)

		return
	}

	if !w.changed(state) {
		return
	}

	w.last = state

	status := "inactive"
	if state.GetIsActive() {
		status = "active"
	}

	logger.InfoKV(ctx, "Alert state",
		"status", status,
		"session", state.GetSessionID(),
		"by", state.GetLastActor().GetUsername(),
		"host", state.GetLastActor().GetHostname(),
		"torch", state.TorchPermission,
	)

	if w.onChange != nil {
		w.onChange(state)
	}
}

// changed reports whether state differs from the last one.
func (w *watcher) changed(state *pb.AlertState) bool {
	if w.last == nil {
		return true
	}

	return w.last.GetIsActive() != state.GetIsActive() ||
		w.last.GetSessionID() != state.GetSessionID() ||
		w.last.TorchPermission != state.TorchPermission
}
