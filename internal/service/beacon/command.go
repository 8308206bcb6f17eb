package beacon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/sos-beacon/internal/api/grpc/alert"
	"github.com/oshokin/sos-beacon/internal/api/ws"
	"github.com/oshokin/sos-beacon/internal/channel/audio"
	"github.com/oshokin/sos-beacon/internal/channel/torch"
	"github.com/oshokin/sos-beacon/internal/channel/visual"
	"github.com/oshokin/sos-beacon/internal/config"
	"github.com/oshokin/sos-beacon/internal/device/speaker"
	"github.com/oshokin/sos-beacon/internal/device/sysfs"
	"github.com/oshokin/sos-beacon/internal/device/terminal"
	"github.com/oshokin/sos-beacon/internal/domain/alert"
	"github.com/oshokin/sos-beacon/internal/logger"
	pb "github.com/oshokin/sos-beacon/internal/pb/v1"
	"github.com/oshokin/sos-beacon/internal/service/common"
	"github.com/oshokin/sos-beacon/internal/service/sos"
	"github.com/oshokin/sos-beacon/internal/version"
)

// Options controls the beacon process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the control API address from config.
	ListenAddress string
	// Headless replaces the terminal UI with log output.
	Headless bool
	// AllowMultiple skips the single instance check.
	AllowMultiple bool
	// Ready, when set, receives the bound control and bridge addresses once
	// the beacon accepts requests. The bridge address is empty when disabled.
	Ready func(control, bridge string)
}

// ErrNoServerAddress indicates missing control address configuration.
var ErrNoServerAddress = errors.New("no control address configured")

// Run starts the beacon and blocks until ctx is canceled, the user quits or a
// server fails. Loads configuration first, then builds the devices.
//
//nolint:funlen // Start-up wiring reads best top to bottom.
func Run(ctx context.Context, opts *Options) error {
	settings, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	closeLog, err := setupLogging(settings, opts.Headless)
	if err != nil {
		return err
	}

	defer closeLog()

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "sos-beacon")

	if !opts.AllowMultiple {
		if err = EnsureSingleInstance(); err != nil {
			return err
		}
	}

	listenAddress, err := resolveListenAddress(settings.ControlAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	// Setup TCP listeners before touching any hardware.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	var bridgeListener net.Listener

	if settings.BridgeAddress != "" {
		bridgeListener, err = lc.Listen(ctx, "tcp", settings.BridgeAddress)
		if err != nil {
			_ = lis.Close()

			return fmt.Errorf("listen on %s: %w", settings.BridgeAddress, err)
		}
	}

	var (
		screen   *terminal.Terminal
		renderer visual.Renderer = visual.NewLogRenderer(overlayContext(ctx, settings))
	)

	if !opts.Headless {
		screen, err = terminal.Open()
		if err != nil {
			_ = lis.Close()

			if bridgeListener != nil {
				_ = bridgeListener.Close()
			}

			return fmt.Errorf("open terminal: %w", err)
		}

		defer screen.Close()

		renderer = screen
	}

	controller := sos.NewController(ctx, sos.Channels{
		Visual: visual.New(renderer),
		Audio:  audio.New(audioFactory(settings), audioSettings(settings)),
		Torch:  torch.New(ctx, torchCamera(settings)),
	})

	// Runs before screen.Close so the overlay is gone first.
	defer controller.Close()

	logger.InfoKV(ctx, "Beacon starting",
		"version", version.Short(),
		"control_address", lis.Addr().String(),
		"headless", opts.Headless,
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		return serveControl(groupCtx, lis, controller)
	})

	bridgeAddress := ""

	if bridgeListener != nil {
		bridgeAddress = bridgeListener.Addr().String()
		bridge := ws.NewBridge(controller)

		group.Go(func() error {
			return bridge.Serve(groupCtx, bridgeListener)
		})
	}

	if screen != nil {
		group.Go(func() error {
			// Quitting the UI stops the beacon.
			defer cancel()

			return screen.Run(groupCtx, controller, keyboardActor(ctx))
		})
	} else {
		group.Go(func() error {
			logTransitions(groupCtx, controller)

			return nil
		})
	}

	if opts.Ready != nil {
		opts.Ready(lis.Addr().String(), bridgeAddress)
	}

	if err = group.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Beacon stopped")

	return nil
}

// serveControl runs the gRPC control API until ctx ends.
func serveControl(ctx context.Context, lis net.Listener, controller *sos.Controller) error {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(logCalls))
	pb.RegisterAlertServiceServer(grpcServer, api.NewServer(controller))

	logger.InfoKV(ctx, "Control API listening", "listen_address", lis.Addr().String())

	// Done channel is closed after GracefulStop finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()
		close(done)
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "GRPC server stopped")

	return nil
}

// logCalls records each control API call with the caller's user agent.
func logCalls(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	var userAgent string

	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("user-agent"); len(values) > 0 {
			userAgent = values[0]
		}
	}

	ctx = logger.WithFields(ctx, "method", info.FullMethod, "user_agent", userAgent)

	resp, err := handler(ctx, req)
	if err != nil {
		logger.WarnKV(ctx, "Control call failed", "error", err)
	} else {
		logger.Debug(ctx, "Control call served")
	}

	return resp, err
}

// logTransitions reports state changes when no screen shows them.
func logTransitions(ctx context.Context, controller *sos.Controller) {
	feed, unsubscribe := controller.Subscribe()
	defer unsubscribe()

	var last *alert.Snapshot

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-feed:
			if !ok {
				return
			}

			if last != nil && last.State == snapshot.State && last.Torch == snapshot.Torch &&
				last.TorchSupported == snapshot.TorchSupported {
				continue
			}

			last = snapshot

			logger.InfoKV(ctx, "Beacon status",
				"state", snapshot.State,
				"torch_supported", snapshot.TorchSupported,
				"torch", snapshot.Torch,
				"audio", snapshot.AudioAvailable,
			)
		}
	}
}

// setupLogging applies the level and, when the terminal is used, redirects
// logs to the configured file. The returned function closes that file.
func setupLogging(settings *config.Config, headless bool) (func(), error) {
	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	if headless {
		return func() {}, nil
	}

	// The terminal owns stdout; without a file logs are dropped.
	var (
		out       io.Writer = io.Discard
		closeFile           = func() {}
	)

	if settings.LogFile != "" {
		f, err := logger.OpenFile(settings.LogFile)
		if err != nil {
			return nil, err
		}

		out = f
		closeFile = func() { _ = f.Close() }
	}

	logger.SetLogger(logger.NewWithWriter(out, nil))

	return closeFile, nil
}

// overlayContext names the headless overlay logger and applies its level override.
func overlayContext(ctx context.Context, settings *config.Config) context.Context {
	ctx = logger.WithName(ctx, "overlay")

	if settings.OverlayLogLevel == "" {
		return ctx
	}

	if level, ok := logger.ParseLogLevel(settings.OverlayLogLevel); ok {
		ctx = logger.WithContextLevel(ctx, level)
	}

	return ctx
}

// audioFactory opens the speaker unless audio is disabled.
func audioFactory(settings *config.Config) audio.ContextFactory {
	if settings.Audio.Disabled {
		return nil
	}

	return func() (audio.Context, error) {
		return speaker.Open()
	}
}

// audioSettings converts the configured siren tuning.
func audioSettings(settings *config.Config) audio.Settings {
	return audio.Settings{
		Gain:        settings.Audio.Gain,
		LowHz:       settings.Audio.LowHz,
		HighHz:      settings.Audio.HighHz,
		SweepPeriod: settings.Audio.SweepPeriod,
	}
}

// torchCamera returns the LED camera unless the torch is disabled.
func torchCamera(settings *config.Config) torch.Camera {
	if settings.Torch.Disabled {
		return nil
	}

	return sysfs.NewCamera(settings.Torch.LEDRoot, settings.Torch.LEDPath)
}

// keyboardActor identifies the local user for keyboard toggles.
func keyboardActor(ctx context.Context) *alert.Actor {
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Failed to detect local user", "error", err)

		return &alert.Actor{Username: "keyboard"}
	}

	return &alert.Actor{
		Hostname: actor.GetHostname(),
		Username: actor.GetUsername(),
	}
}

// resolveListenAddress determines the listen address for the control API.
// The override wins; otherwise the configured address is used as is.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	if _, _, err := net.SplitHostPort(configAddr); err != nil {
		return "", fmt.Errorf("invalid control address format %q: %w", configAddr, err)
	}

	return configAddr, nil
}
