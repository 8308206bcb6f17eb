package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/sos-beacon/internal/logger"
)

// Config holds the settings shared by the beacon binaries.
type Config struct {
	// ControlAddress is the gRPC control API address.
	ControlAddress string `yaml:"control_addr"`
	// BridgeAddress is the websocket bridge address; empty disables the bridge.
	BridgeAddress string `yaml:"bridge_addr,omitempty"`
	// Timeout is the duration for RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level written to the log.
	LogLevel string `yaml:"log_level"`
	// OverlayLogLevel overrides LogLevel for headless overlay flashes; empty keeps LogLevel.
	OverlayLogLevel string `yaml:"overlay_log_level,omitempty"`
	// LogFile receives beacon logs while the terminal is in use; empty means stdout.
	LogFile string `yaml:"log_file,omitempty"`
	// Torch configures the flash LED.
	Torch Torch `yaml:"torch"`
	// Audio configures the siren.
	Audio Audio `yaml:"audio"`
}

// Torch configures the flash LED.
type Torch struct {
	// Disabled turns the torch channel off.
	Disabled bool `yaml:"disabled"`
	// LEDRoot is the LED class directory searched for a flash LED.
	LEDRoot string `yaml:"led_root"`
	// LEDPath is an explicit LED directory; empty means auto-detect.
	LEDPath string `yaml:"led_path,omitempty"`
}

// Audio configures the siren.
type Audio struct {
	// Disabled turns the siren off.
	Disabled bool `yaml:"disabled"`
	// Gain is the output amplitude in (0, 1].
	Gain float64 `yaml:"gain"`
	// LowHz is the resting tone.
	LowHz float64 `yaml:"low_hz"`
	// HighHz is the peak tone.
	HighHz float64 `yaml:"high_hz"`
	// SweepPeriod is the length of one wail.
	SweepPeriod time.Duration `yaml:"sweep_period"`
}

const (
	// DefaultConfigFilename is the default filename for beacon settings.
	DefaultConfigFilename = "sos-beacon-settings.yaml"

	// DefaultControlAddress is where the control API listens by default.
	DefaultControlAddress = "127.0.0.1:7311"

	// DefaultBridgeAddress is where the websocket bridge listens by default.
	DefaultBridgeAddress = "127.0.0.1:7312"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultLogFile is where the beacon logs while it draws on the terminal.
	DefaultLogFile = "sos-beacon.log"

	// DefaultLEDRoot is the kernel LED class directory.
	DefaultLEDRoot = "/sys/class/leds"

	// DefaultGain, DefaultLowHz, DefaultHighHz and DefaultSweepPeriod tune the siren.
	DefaultGain        = 0.3
	DefaultLowHz       = 800
	DefaultHighHz      = 1200
	DefaultSweepPeriod = time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errControlAddressRequired is returned when the control address is missing.
	errControlAddressRequired = errors.New("control address must be provided")
	// errInvalidLogLevel is returned for unknown log levels.
	errInvalidLogLevel = errors.New("unknown log level")
	// errInvalidGain is returned for a gain outside (0, 1].
	errInvalidGain = errors.New("audio gain must be in (0, 1]")
	// errInvalidTone is returned when the tone range is empty or negative.
	errInvalidTone = errors.New("audio tones must satisfy 0 < low_hz < high_hz")
)

// Default returns the settings used when no file exists.
func Default() *Config {
	cfg := &Config{
		ControlAddress: DefaultControlAddress,
		BridgeAddress:  DefaultBridgeAddress,
		LogFile:        DefaultLogFile,
	}

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault is like Load but returns Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	return cfg, err
}

// Save writes Settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting,
// filling in defaults for optional ones.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ControlAddress == "" {
		return errControlAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ControlAddress); err != nil {
		return fmt.Errorf("invalid control address: %w", err)
	}

	if settings.BridgeAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.BridgeAddress); err != nil {
			return fmt.Errorf("invalid bridge address: %w", err)
		}
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, settings.LogLevel)
	}

	if settings.OverlayLogLevel != "" {
		if _, ok := logger.ParseLogLevel(settings.OverlayLogLevel); !ok {
			return fmt.Errorf("%w: %q", errInvalidLogLevel, settings.OverlayLogLevel)
		}
	}

	if settings.Torch.LEDRoot == "" {
		settings.Torch.LEDRoot = DefaultLEDRoot
	}

	return validateAudio(&settings.Audio)
}

// validateAudio fills siren defaults and checks ranges.
func validateAudio(audio *Audio) error {
	if audio.Gain == 0 {
		audio.Gain = DefaultGain
	}

	if audio.LowHz == 0 {
		audio.LowHz = DefaultLowHz
	}

	if audio.HighHz == 0 {
		audio.HighHz = DefaultHighHz
	}

	if audio.SweepPeriod <= 0 {
		audio.SweepPeriod = DefaultSweepPeriod
	}

	if audio.Gain < 0 || audio.Gain > 1 {
		return fmt.Errorf("%w: %v", errInvalidGain, audio.Gain)
	}

	if audio.LowHz <= 0 || audio.HighHz <= audio.LowHz {
		return fmt.Errorf("%w: %v..%v", errInvalidTone, audio.LowHz, audio.HighHz)
	}

	return nil
}
