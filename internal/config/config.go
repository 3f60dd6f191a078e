package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	maxConfigFileBytes int64 = 64 << 10
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle quickly.
	renameRetryBaseDelay = 10 * time.Millisecond

	appDirName     = "nativekeymap"
	configFileName = "config.yaml"
)

// Output formats understood by the CLI.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultServeAddr binds the WebSocket server to loopback only.
const DefaultServeAddr = "127.0.0.1:7317"

// userConfigDirFn is a test seam.
var userConfigDirFn = os.UserConfigDir

// Config is the keymapctl configuration.
type Config struct {
	// Display is the X display to open; "" uses $DISPLAY.
	Display string `yaml:"display" json:"display"`
	// ExtendedLevels enables the Level5 probes on X11.
	ExtendedLevels bool `yaml:"extended_levels" json:"extended_levels"`
	// OutputFormat is "json" or "yaml".
	OutputFormat string      `yaml:"output_format" json:"output_format"`
	Log          LogConfig   `yaml:"log" json:"log"`
	Serve        ServeConfig `yaml:"serve" json:"serve"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ServeConfig configures the daemon surfaces.
type ServeConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// PipeName is a named pipe on Windows and a socket path elsewhere.
	// "" picks the platform default.
	PipeName string `yaml:"pipe_name" json:"pipe_name"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		OutputFormat: FormatJSON,
		Log:          LogConfig{Level: "info", Format: "text"},
		Serve:        ServeConfig{Addr: DefaultServeAddr},
	}
}

// DefaultPath resolves <user config dir>/nativekeymap/config.yaml, falling
// back to the temp dir when the user config dir is unknown.
func DefaultPath() string {
	base, err := userConfigDirFn()
	if err != nil || strings.TrimSpace(base) == "" {
		slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
		base = os.TempDir()
	}
	return filepath.Join(base, appDirName, configFileName)
}

// Load reads the config file. A missing or empty file yields defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, errors.New("config path required")
	}

	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		slog.Warn("[WARN-CONFIG] failed to parse config, using defaults", "path", path, "error", err)
		return DefaultConfig(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := applyDefaultsAndValidate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save validates cfg and writes it atomically. It returns the normalized
// config that was written.
func Save(path string, cfg Config) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return cfg, errors.New("config path required")
	}
	if err := applyDefaultsAndValidate(&cfg); err != nil {
		return cfg, fmt.Errorf("save config: %w", err)
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return cfg, fmt.Errorf("save config: marshal: %w", err)
	}
	if err := atomicWrite(path, raw); err != nil {
		return cfg, err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", path)
	return cfg, nil
}

// EnsureFile writes the defaults if path does not exist and returns the
// loaded config.
func EnsureFile(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if _, err := Save(path, cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", name, err)
	}
	return level, nil
}

// MUTATES cfg.
func applyDefaultsAndValidate(cfg *Config) error {
	defaults := DefaultConfig()

	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaults.OutputFormat
	}
	if !slices.Contains([]string{FormatJSON, FormatYAML}, cfg.OutputFormat) {
		return fmt.Errorf("output_format %q: want json or yaml", cfg.OutputFormat)
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return err
	}

	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format %q: want text or json", cfg.Log.Format)
	}

	cfg.Serve.Addr = strings.TrimSpace(cfg.Serve.Addr)
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = defaults.Serve.Addr
	}
	cfg.Serve.PipeName = strings.TrimSpace(cfg.Serve.PipeName)
	cfg.Display = strings.TrimSpace(cfg.Display)
	return nil
}

// atomicWrite replaces path with data through a synced temp file in the
// same directory.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+configFileName+".*")
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	err = errors.Join(err, tmp.Close())
	if err == nil {
		err = renameFileWithRetry(tmp.Name(), path)
	}
	if err != nil {
		if removeErr := os.Remove(tmp.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			slog.Warn("[WARN-CONFIG] temp file left behind", "path", tmp.Name(), "error", removeErr)
		}
		return fmt.Errorf("save config %s: %w", path, err)
	}
	return nil
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func renameFileWithRetry(sourcePath, targetPath string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
