package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load("  "); err == nil {
		t.Fatal("Load(\"\") expected error")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    func(Config) bool
		wantErr string
	}{
		{
			name: "empty file",
			body: "",
			want: func(c Config) bool { return c == DefaultConfig() },
		},
		{
			name: "fields parsed and normalized",
			body: "display: \":1\"\nextended_levels: true\noutput_format: YAML\nlog:\n  level: Debug\n  format: json\nserve:\n  addr: 127.0.0.1:9000\n",
			want: func(c Config) bool {
				return c.Display == ":1" && c.ExtendedLevels && c.OutputFormat == FormatYAML &&
					c.Log.Level == "debug" && c.Log.Format == "json" && c.Serve.Addr == "127.0.0.1:9000"
			},
		},
		{
			name: "partial file keeps defaults",
			body: "extended_levels: true\n",
			want: func(c Config) bool {
				return c.ExtendedLevels && c.OutputFormat == FormatJSON &&
					c.Log.Level == "info" && c.Serve.Addr == DefaultServeAddr
			},
		},
		{
			name:    "bad output format",
			body:    "output_format: xml\n",
			wantErr: "output_format",
		},
		{
			name:    "bad log level",
			body:    "log:\n  level: loud\n",
			wantErr: "log level",
		},
		{
			name:    "bad log format",
			body:    "log:\n  format: xml\n",
			wantErr: "log.format",
		},
		{
			name:    "invalid yaml",
			body:    "display: [\n",
			wantErr: "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfigFile(t, tt.body))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !tt.want(cfg) {
				t.Fatalf("Load() = %+v", cfg)
			}
		})
	}
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	path := writeConfigFile(t, "display: \""+strings.Repeat("x", int(maxConfigFileBytes))+"\"\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("Load() error = %v, want size error", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", configFileName)
	in := DefaultConfig()
	in.Display = ":2"
	in.ExtendedLevels = true
	in.Serve.PipeName = "custom"

	written, err := Save(path, in)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != written {
		t.Fatalf("Load() = %+v, want %+v", got, written)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	cfg := DefaultConfig()
	cfg.OutputFormat = "toml"
	if _, err := Save(path, cfg); err == nil {
		t.Fatal("Save() expected error")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("invalid config was written: %v", err)
	}
}

func TestEnsureFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	cfg, err := EnsureFile(path)
	if err != nil {
		t.Fatalf("EnsureFile() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("EnsureFile() = %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	orig := userConfigDirFn
	t.Cleanup(func() { userConfigDirFn = orig })

	dir := t.TempDir()
	userConfigDirFn = func() (string, error) { return dir, nil }
	if got, want := DefaultPath(), filepath.Join(dir, appDirName, configFileName); got != want {
		t.Fatalf("DefaultPath() = %q, want %q", got, want)
	}

	userConfigDirFn = func() (string, error) { return "", errors.New("no home") }
	if got := DefaultPath(); !strings.HasPrefix(got, os.TempDir()) {
		t.Fatalf("DefaultPath() = %q, want temp dir fallback", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
