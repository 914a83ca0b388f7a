// Package config provides configuration loading, XDG paths and the
// persistent application state file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/SeamusWaldron/cubetimer"
)

// FileConfig represents the TOML configuration file.
// Unset keys are nil and fall back to the library defaults.
type FileConfig struct {
	Timer   TimerConfig   `toml:"timer"`
	Device  DeviceConfig  `toml:"device"`
	Storage StorageConfig `toml:"storage"`
}

// TimerConfig maps timing settings.
type TimerConfig struct {
	HoldMs              *int  `toml:"hold_ms"`
	Inspection          *bool `toml:"inspection"`
	InspectionSeconds   *int  `toml:"inspection_s"`
	InspectionPenalties *bool `toml:"inspection_penalties"`
}

// DeviceConfig maps smart-timer settings.
type DeviceConfig struct {
	NamePrefixes    []string `toml:"name_prefixes"`
	ConnectTimeoutS *int     `toml:"connect_timeout_s"`
	AutoConnect     *bool    `toml:"auto_connect"`
}

// StorageConfig maps persistence settings.
type StorageConfig struct {
	DBPath  *string `toml:"db_path"`
	Session *string `toml:"session"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c FileConfig) validate() error {
	if c.Timer.HoldMs != nil && *c.Timer.HoldMs < 0 {
		return fmt.Errorf("timer.hold_ms must not be negative")
	}
	if c.Timer.InspectionSeconds != nil && *c.Timer.InspectionSeconds <= 0 {
		return fmt.Errorf("timer.inspection_s must be positive")
	}
	if c.Device.ConnectTimeoutS != nil && *c.Device.ConnectTimeoutS <= 0 {
		return fmt.Errorf("device.connect_timeout_s must be positive")
	}
	return nil
}

// Options converts the file settings into library options.
// Inspection stays disabled unless timer.inspection is true.
func (c FileConfig) Options() []cubetimer.Option {
	var opts []cubetimer.Option

	if c.Timer.HoldMs != nil {
		opts = append(opts, cubetimer.WithHoldThreshold(time.Duration(*c.Timer.HoldMs)*time.Millisecond))
	}
	if c.Timer.Inspection != nil && *c.Timer.Inspection {
		d := cubetimer.DefaultInspection
		if c.Timer.InspectionSeconds != nil {
			d = time.Duration(*c.Timer.InspectionSeconds) * time.Second
		}
		opts = append(opts, cubetimer.WithInspection(d))
		if c.Timer.InspectionPenalties != nil {
			opts = append(opts, cubetimer.WithInspectionPenalties(*c.Timer.InspectionPenalties))
		}
	}
	if len(c.Device.NamePrefixes) > 0 {
		opts = append(opts, cubetimer.WithNamePrefixes(c.Device.NamePrefixes...))
	}
	if c.Device.ConnectTimeoutS != nil {
		opts = append(opts, cubetimer.WithConnectTimeout(time.Duration(*c.Device.ConnectTimeoutS)*time.Second))
	}

	return opts
}

// AutoConnect reports whether the timer command should reconnect to the
// last device on start.
func (c FileConfig) AutoConnect() bool {
	return c.Device.AutoConnect != nil && *c.Device.AutoConnect
}

// DBPath returns the configured database path or the XDG default.
func (c FileConfig) DBPath() string {
	if c.Storage.DBPath != nil && *c.Storage.DBPath != "" {
		return *c.Storage.DBPath
	}
	return DefaultDBPath()
}

// Session returns the configured session name, empty for the default.
func (c FileConfig) Session() string {
	if c.Storage.Session != nil {
		return *c.Storage.Session
	}
	return ""
}
