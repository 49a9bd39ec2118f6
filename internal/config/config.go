// Package config loads the `.config.yaml` recognized by §4.1/§6:
// traceSharingEnabled, baseUrl, uploadApi, downloadApi, deleteApi,
// defaultBuild, webApiRoot.
// Grounded on petar-djukic-crumbs/cmd/cupboard/config.go (viper.New,
// SetConfigType("yaml"), AddConfigPath, ConfigFileNotFoundError handling).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/metacraft-labs/codetracer-core/internal/paths"
)

// Config holds the recognized options of the YAML config file (§4.1).
type Config struct {
	TraceSharingEnabled bool   `mapstructure:"traceSharingEnabled" yaml:"traceSharingEnabled"`
	BaseURL             string `mapstructure:"baseUrl" yaml:"baseUrl,omitempty"`
	UploadAPI           string `mapstructure:"uploadApi" yaml:"uploadApi,omitempty"`
	DownloadAPI         string `mapstructure:"downloadApi" yaml:"downloadApi,omitempty"`
	DeleteAPI           string `mapstructure:"deleteApi" yaml:"deleteApi,omitempty"`
	DefaultBuild        string `mapstructure:"defaultBuild" yaml:"defaultBuild,omitempty"`
	WebAPIRoot          string `mapstructure:"webApiRoot" yaml:"webApiRoot,omitempty"`
}

// ErrSharingDisabled is returned by sharing operations when
// traceSharingEnabled is false (§4.6, §7 "Sharing disabled").
var ErrSharingDisabled = errors.New("trace sharing is disabled in config")

// Load reads the config file at the resolved config directory's
// ".config.yaml". A missing file is not an error: Load returns the zero
// Config (traceSharingEnabled defaults to false, matching "gates
// upload/download/delete" semantics of §4.1).
func Load() (Config, error) {
	dir, err := paths.ConfigDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(".config")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// defaultConfig is written by WriteDefaultIfMissing; trace sharing starts
// disabled until the user points it at a sharing server.
var defaultConfig = Config{
	TraceSharingEnabled: false,
	DefaultBuild:        "debug",
}

// WriteDefaultIfMissing creates the config directory and writes a default
// .config.yaml if one does not already exist.
func WriteDefaultIfMissing() (string, error) {
	dir, err := paths.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	path := filepath.Join(dir, ".config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&defaultConfig)
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write default config: %w", err)
	}
	return path, nil
}

// RequireSharing returns ErrSharingDisabled if the config does not enable
// trace sharing, used by every upload/download/delete entry point (§4.6 "All sharing operations fail fast ... if traceSharingEnabled=false").
func (c Config) RequireSharing() error {
	if !c.TraceSharingEnabled {
		return ErrSharingDisabled
	}
	return nil
}
