// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Challenge ChallengeConfig `toml:"challenge"`
	Source    SourceConfig    `toml:"source"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// ChallengeConfig maps challenge-related settings.
type ChallengeConfig struct {
	Notes              *int     `toml:"notes"`
	Octaves            []int    `toml:"octaves"`
	ClarityFloor       *float64 `toml:"clarity-floor"`
	StabilityThreshold *float64 `toml:"stability-threshold"`
	AccuracyThreshold  *float64 `toml:"accuracy-threshold"`
	MaxAttemptMs       *int64   `toml:"max-attempt-ms"`
	MinSamples         *int     `toml:"min-samples"`
	FocusWeak          *bool    `toml:"focus-weak"`
	WeakTop            *int     `toml:"weak-top"`
	WeakFactor         *float64 `toml:"weak-factor"`
	WeakWindow         *int     `toml:"weak-window"`
}

// SourceConfig maps pitch source settings.
type SourceConfig struct {
	AubioBin *string `toml:"aubio-bin"`
}

// ServerConfig maps websocket server settings.
type ServerConfig struct {
	Addr               *string `toml:"addr"`
	ReadLimit          *int64  `toml:"read-limit"`
	HandshakeTimeoutMs *int64  `toml:"handshake-timeout-ms"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
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
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written by `pitchup config` when no file exists yet.
const Template = `# pitchup configuration

[challenge]
# notes = 10
# octaves = [3, 4, 5]
# clarity-floor = 0.8
# stability-threshold = 0.9
# accuracy-threshold = 10.0
# max-attempt-ms = 10000
# min-samples = 5
# focus-weak = false
# weak-top = 3
# weak-factor = 3.0
# weak-window = 20

[source]
# aubio-bin = "aubio"

[server]
# addr = "127.0.0.1:7420"
# read-limit = 4096
# handshake-timeout-ms = 5000

[log]
# level = "INFO"
`

// WriteTemplate creates path with Template unless it already exists.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
