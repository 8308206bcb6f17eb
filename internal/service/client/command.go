package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protojson"

	"github.com/oshokin/sos-beacon/internal/config"
	"github.com/oshokin/sos-beacon/internal/logger"
	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
	"github.com/oshokin/sos-beacon/internal/service/common"
)

// Action selects what Run does.
type Action string

const (
	// ActionOn switches the alert on, retrying until the beacon confirms.
	ActionOn Action = "on"
	// ActionOff switches the alert off, retrying until the beacon confirms.
	ActionOff Action = "off"
	// ActionToggle flips the alert once.
	ActionToggle Action = "toggle"
	// ActionStatus prints the current state.
	ActionStatus Action = "status"
)

// Options configures a client action.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides the control address from config when specified.
	ServerAddress string

	// Action is the operation to perform.
	Action Action

	// JSON prints the state as JSON instead of a summary line.
	JSON bool

	// Output receives the printed state, os.Stdout when nil.
	Output io.Writer
}

// defaultPushInterval defines retry delay when pushing the desired state.
const defaultPushInterval = 1 * time.Second

// errUnknownAction is returned for unsupported actions.
var errUnknownAction = errors.New("unknown action")

// Run performs the requested action against the beacon.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "sos-button")

	// Load settings, falling back to defaults when no file exists.
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ControlAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname, reported with every change.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	var state *pb.AlertState

	switch opts.Action {
	case ActionOn, ActionOff:
		state, err = push(ctx, client, actor, opts.Action == ActionOn)
	case ActionToggle:
		state, err = client.ToggleAlert(ctx, actor)
	case ActionStatus:
		state, err = client.GetAlertState(ctx, actor)
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, opts.Action)
	}

	if err != nil {
		return err
	}

	return printState(opts, state)
}

// push sets the desired state, retrying until the beacon confirms or ctx ends.
func push(ctx context.Context, client *common.Client, actor *pb.SystemActor, desired bool) (*pb.AlertState, error) {
	logger.InfoKV(ctx, "Pushing desired alert state", "desired_state", desired)

	// attempt tries once to change the state, returns the confirmed state or nil.
	attempt := func() *pb.AlertState {
		resp, err := client.SetAlertState(ctx, actor, desired)
		if err != nil {
			// Log error but continue retrying for transient failures.
			logger.ErrorKV(ctx, "SetAlertState failed", "error", err)

			return nil
		}

		if resp.GetIsActive() != desired {
			return nil
		}

		return resp
	}

	// Attempt immediately before starting retry loop.
	if state := attempt(); state != nil {
		return state, nil
	}

	ticker := time.NewTicker(defaultPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if state := attempt(); state != nil {
				return state, nil
			}
		}
	}
}

// printState writes the state in the requested format.
func printState(opts *Options, state *pb.AlertState) error {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if !opts.JSON {
		_, err := fmt.Fprintln(out, FormatState(state))

		return err
	}

	payload, err := state.ToStruct()
	if err != nil {
		return err
	}

	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = fmt.Fprintln(out, string(data))

	return err
}

// FormatState converts an alert state into a readable line.
func FormatState(state *pb.AlertState) string {
	if state == nil {
		return "<nil state>"
	}

	// Extract timestamp with fallback for missing data.
	timestamp := "<unknown>"
	if t := state.GetTimestamp(); !t.IsZero() {
		timestamp = t.Format(time.RFC3339)
	}

	// Format actor as username@hostname with fallback.
	actor := "<unknown>"
	if state.GetLastActor() != nil {
		actor = fmt.Sprintf("%s@%s", state.GetLastActor().GetUsername(), state.GetLastActor().GetHostname())
	}

	status := "inactive"
	if state.GetIsActive() {
		status = "active"
	}

	torch := "unavailable"
	if state.TorchSupported {
		torch = state.TorchPermission
	}

	siren := "unavailable"
	if state.AudioAvailable {
		siren = "ready"
	}

	return fmt.Sprintf("%s by %s (%s), torch: %s, siren: %s", status, actor, timestamp, torch, siren)
}
