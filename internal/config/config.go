// Package config loads eewear configuration from JSONC files and flags.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/wearlevel/pkg/eeprom"
)

// FileName is the default project config file name.
const FileName = ".eewear.json"

// Config errors.
var (
	ErrFileNotFound = errors.New("config file not found")
	ErrFileRead     = errors.New("cannot read config file")
	ErrInvalid      = errors.New("invalid config file")
	ErrValue        = errors.New("invalid config value")
)

// Config holds all configuration options.
type Config struct {
	// WearLevelFactor is the number of slots per logical byte.
	WearLevelFactor int `json:"wear_level_factor"` //nolint:tagliatelle // snake_case for config file
	// MediumSize is the size of the backing image in bytes.
	MediumSize int `json:"medium_size"` //nolint:tagliatelle // snake_case for config file
	// MediumPath is the image file, relative to the work directory.
	MediumPath string `json:"medium_path"` //nolint:tagliatelle // snake_case for config file
	// ByteOps exposes the single-byte commands.
	ByteOps bool `json:"byte_ops"` //nolint:tagliatelle // snake_case for config file
	// BlockOps exposes the block commands.
	BlockOps bool `json:"block_ops"` //nolint:tagliatelle // snake_case for config file
}

// Overrides are values set on the command line. Nil fields are not set.
type Overrides struct {
	WearLevelFactor *int
	MediumSize      *int
	MediumPath      *string
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// fileConfig distinguishes absent keys from zero values.
type fileConfig struct {
	WearLevelFactor *int    `json:"wear_level_factor"` //nolint:tagliatelle // snake_case for config file
	MediumSize      *int    `json:"medium_size"`       //nolint:tagliatelle // snake_case for config file
	MediumPath      *string `json:"medium_path"`       //nolint:tagliatelle // snake_case for config file
	ByteOps         *bool   `json:"byte_ops"`          //nolint:tagliatelle // snake_case for config file
	BlockOps        *bool   `json:"block_ops"`         //nolint:tagliatelle // snake_case for config file
}

// Default returns the default configuration: a 1 KiB image with factor 8.
func Default() Config {
	return Config{
		WearLevelFactor: eeprom.DefaultWearLevelFactor,
		MediumSize:      1024,
		MediumPath:      "eeprom.img",
		ByteOps:         true,
		BlockOps:        true,
	}
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/eewear/config.json or ~/.config/eewear/config.json)
// 3. Project config file at default location (.eewear.json, if exists)
// 4. Explicit config file via configPath (replaces 3, must exist)
// 5. CLI overrides.
func Load(workDir, configPath string, overrides Overrides, env map[string]string) (Config, Sources, error) {
	cfg := Default()

	var sources Sources

	if globalPath := globalConfigPath(env); globalPath != "" {
		fc, loaded, err := loadFile(globalPath, false)
		if err != nil {
			return Config{}, Sources{}, err
		}

		if loaded {
			sources.Global = globalPath
			cfg = merge(cfg, fc)
		}
	}

	projectPath, mustExist := filepath.Join(workDir, FileName), false

	if configPath != "" {
		projectPath, mustExist = configPath, true
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
	}

	fc, loaded, err := loadFile(projectPath, mustExist)
	if err != nil {
		return Config{}, Sources{}, err
	}

	if loaded {
		sources.Project = projectPath
		cfg = merge(cfg, fc)
	}

	if overrides.WearLevelFactor != nil {
		cfg.WearLevelFactor = *overrides.WearLevelFactor
	}

	if overrides.MediumSize != nil {
		cfg.MediumSize = *overrides.MediumSize
	}

	if overrides.MediumPath != nil {
		cfg.MediumPath = *overrides.MediumPath
	}

	err = Validate(cfg)
	if err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, sources, nil
}

// globalConfigPath returns the path to the global config file, or "" if the
// home directory cannot be determined.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "eewear", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "eewear", "config.json")
	}

	return ""
}

// loadFile loads a config file. If mustExist is false, a missing file is not
// an error and reports loaded=false.
func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if !mustExist && errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, false, nil
		}

		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, false, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}

		return fileConfig{}, false, fmt.Errorf("%w: %s: %w", ErrFileRead, path, err)
	}

	fc, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}

	return fc, true, nil
}

func parse(data []byte) (fileConfig, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var fc fileConfig

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	err = dec.Decode(&fc)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return fc, nil
}

func merge(base Config, fc fileConfig) Config {
	if fc.WearLevelFactor != nil {
		base.WearLevelFactor = *fc.WearLevelFactor
	}

	if fc.MediumSize != nil {
		base.MediumSize = *fc.MediumSize
	}

	if fc.MediumPath != nil {
		base.MediumPath = *fc.MediumPath
	}

	if fc.ByteOps != nil {
		base.ByteOps = *fc.ByteOps
	}

	if fc.BlockOps != nil {
		base.BlockOps = *fc.BlockOps
	}

	return base
}

// Validate checks that cfg describes a usable medium.
func Validate(cfg Config) error {
	if cfg.WearLevelFactor < eeprom.MinWearLevelFactor || cfg.WearLevelFactor > eeprom.MaxWearLevelFactor {
		return fmt.Errorf("%w: wear_level_factor must be in [%d, %d], got %d",
			ErrValue, eeprom.MinWearLevelFactor, eeprom.MaxWearLevelFactor, cfg.WearLevelFactor)
	}

	if cfg.MediumSize < 2*cfg.WearLevelFactor {
		return fmt.Errorf("%w: medium_size %d cannot hold one slot-group of %d bytes",
			ErrValue, cfg.MediumSize, 2*cfg.WearLevelFactor)
	}

	if cfg.MediumPath == "" {
		return fmt.Errorf("%w: medium_path cannot be empty", ErrValue)
	}

	if !cfg.ByteOps && !cfg.BlockOps {
		return fmt.Errorf("%w: byte_ops and block_ops cannot both be disabled", ErrValue)
	}

	return nil
}

// StoreOptions returns the engine options described by cfg.
func (c Config) StoreOptions() eeprom.Options {
	var ops eeprom.Ops

	if c.ByteOps {
		ops |= eeprom.OpsByte
	}

	if c.BlockOps {
		ops |= eeprom.OpsBlock
	}

	return eeprom.Options{WearLevelFactor: c.WearLevelFactor, Ops: ops}
}

// Format returns the config as formatted JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
