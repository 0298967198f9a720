// SPDX-License-Identifier: MPL-2.0

// Package config loads packwright configuration: built-in defaults, an
// optional CUE config file, and PACKWRIGHT_* environment overrides, merged
// in that order through Viper.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/emberdeck/packwright/internal/resolver"
	"github.com/emberdeck/packwright/pkg/cueutil"
	"github.com/emberdeck/packwright/pkg/semver"
)

const (
	// AppName is the application name.
	AppName = "packwright"
	// ConfigFileName is the config file name (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "PACKWRIGHT"
)

//go:embed config_schema.cue
var configSchema string

// Config is the resolved packwright configuration.
type Config struct {
	// EngineVersion is the host engine version packs are gated against.
	EngineVersion string `mapstructure:"engine_version"`
	// Capabilities lists the rule extension points the host engine provides.
	Capabilities []string `mapstructure:"capabilities"`
	// SearchPaths lists directories scanned for pack roots.
	SearchPaths []string `mapstructure:"search_paths"`
	// DecodeWorkers bounds the artifact decode pool. 0 means the loader's
	// default.
	DecodeWorkers int `mapstructure:"decode_workers"`
	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		EngineVersion: "1.0.0",
		SearchPaths:   []string{"packs"},
	}
}

// Host converts the configured engine version and capability set into the
// resolver's host description.
func (c *Config) Host() (resolver.Host, error) {
	v, err := semver.Parse(c.EngineVersion)
	if err != nil {
		return resolver.Host{}, fmt.Errorf("engine_version: %w", err)
	}
	return resolver.NewHost(v, c.Capabilities), nil
}

// ConfigDir returns the packwright configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// LoadOptions controls config loading.
type LoadOptions struct {
	// ConfigFilePath, when set, is used exclusively instead of the default
	// lookup locations.
	ConfigFilePath string
	// ConfigDirPath overrides the platform config directory.
	ConfigDirPath string
}

// Load resolves the configuration: defaults, then the config file (when
// present), then PACKWRIGHT_* environment variables. Returns the config
// and the path of the file actually loaded ("" when none was).
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("engine_version", defaults.EngineVersion)
	v.SetDefault("capabilities", defaults.Capabilities)
	v.SetDefault("search_paths", defaults.SearchPaths)
	v.SetDefault("decode_workers", defaults.DecodeWorkers)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if _, err := os.Stat(opts.ConfigFilePath); err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", err
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir := opts.ConfigDirPath
		if cfgDir == "" {
			dir, err := ConfigDir()
			if err != nil {
				return nil, "", err
			}
			cfgDir = dir
		}
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if _, err := os.Stat(cuePath); err == nil {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", err
			}
			resolvedPath = cuePath
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.DecodeWorkers < 0 {
		return nil, "", fmt.Errorf("decode_workers must not be negative, got %d", cfg.DecodeWorkers)
	}

	return &cfg, resolvedPath, nil
}

// loadCUEIntoViper parses a CUE config file, validates it against the
// #Config schema, and merges it into Viper.
//
// Note: this uses manual CUE parsing instead of cueutil.ParseAndDecode
// because the config decodes to map[string]any (not a struct) for Viper
// integration, and validates with Concrete(false) since every field is
// optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}
