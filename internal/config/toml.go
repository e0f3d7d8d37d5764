// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Capture CaptureConfig `toml:"capture"`
	Target  TargetConfig  `toml:"target"`
	Log     LogConfig     `toml:"log"`
}

// CaptureConfig maps capture and styling settings.
type CaptureConfig struct {
	Lang       *string `toml:"lang"`
	Position   *string `toml:"position"`
	Opacity    *int    `toml:"opacity"`
	IntervalMS *int    `toml:"interval-ms"`
	GraceMS    *int    `toml:"grace-ms"`
	Record     *bool   `toml:"record"`
}

// TargetConfig overrides how the Live Captions app is found and launched.
type TargetConfig struct {
	Titles      []string `toml:"titles"`
	HostClasses []string `toml:"host-classes"`
	TitleHint   *string  `toml:"title-hint"`
	Process     *string  `toml:"process"`
	Paths       []string `toml:"paths"`
	LaunchURI   *string  `toml:"launch-uri"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
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
