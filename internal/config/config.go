// Package config loads pacer settings: defaults, then a YAML or TOML file,
// then PACER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/metcalfc/pacer/internal/reader"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Reveal  RevealConfig  `yaml:"reveal" toml:"reveal"`
	Extract ExtractConfig `yaml:"extract" toml:"extract"`
	Log     LogConfig     `yaml:"log" toml:"log"`
	State   StateConfig   `yaml:"state" toml:"state"`
	Server  ServerConfig  `yaml:"server" toml:"server"`
}

// RevealConfig holds the initial reveal settings.
type RevealConfig struct {
	WPM       int    `yaml:"wpm" toml:"wpm"`
	ChunkSize int    `yaml:"chunk_size" toml:"chunk_size"`
	Loop      bool   `yaml:"loop" toml:"loop"`
	Mode      string `yaml:"mode" toml:"mode"`
}

// ExtractConfig holds extraction settings.
type ExtractConfig struct {
	EPUBAllSections bool `yaml:"epub_all_sections" toml:"epub_all_sections"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Debug bool   `yaml:"debug" toml:"debug"`
	File  string `yaml:"file" toml:"file"`
}

// StateConfig holds the position store location.
type StateConfig struct {
	Path     string `yaml:"path" toml:"path"`
	Disabled bool   `yaml:"disabled" toml:"disabled"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host" toml:"host"`
	Port        int    `yaml:"port" toml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb" toml:"max_upload_mb"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxUploadBytes returns the upload limit in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Reveal: RevealConfig{
			WPM:       reader.DefaultWPM,
			ChunkSize: reader.DefaultChunkSize,
			Mode:      reader.ModeRSVP.String(),
		},
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080, MaxUploadMB: 32},
	}
}

// DefaultPath returns XDG_CONFIG_HOME/pacer/config.yaml or
// ~/.config/pacer/config.yaml.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pacer", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pacer", "config.yaml")
}

// Load reads config: defaults -> file -> env vars (env wins). A missing file
// is not an error. Files ending in .toml are parsed as TOML, anything else
// as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := unmarshal(path, data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.clamp()
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"PACER_WPM", &cfg.Reveal.WPM},
		{"PACER_CHUNK_SIZE", &cfg.Reveal.ChunkSize},
		{"PACER_PORT", &cfg.Server.Port},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	if v := os.Getenv("PACER_MODE"); v != "" {
		cfg.Reveal.Mode = v
	}
	if v := os.Getenv("PACER_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("PACER_STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
	if v := os.Getenv("PACER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if os.Getenv("PACER_DEBUG") == "true" || os.Getenv("PACER_DEBUG") == "1" {
		cfg.Log.Debug = true
	}
	return nil
}

func (c *Config) clamp() {
	rc := reader.Config{WPM: c.Reveal.WPM, ChunkSize: c.Reveal.ChunkSize}.Clamp()
	c.Reveal.WPM = rc.WPM
	c.Reveal.ChunkSize = rc.ChunkSize
	if _, err := reader.ParseMode(c.Reveal.Mode); err != nil {
		c.Reveal.Mode = reader.ModeRSVP.String()
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = Default().Server.MaxUploadMB
	}
}

// RevealDefaults returns the reveal settings as an engine config and mode.
func (c Config) RevealDefaults() (reader.Config, reader.Mode) {
	mode, _ := reader.ParseMode(c.Reveal.Mode)
	return reader.Config{WPM: c.Reveal.WPM, ChunkSize: c.Reveal.ChunkSize}.Clamp(), mode
}
