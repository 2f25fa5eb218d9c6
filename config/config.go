package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Options   OptionsConfig   `toml:"options"`
	Auth      AuthConfig      `toml:"auth"`
	Generator GeneratorConfig `toml:"generator"`
	Ingest    IngestConfig    `toml:"ingest"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

type OptionsConfig struct {
	SaveLocation string `toml:"save_location"`
}

type AuthConfig struct {
	SessionTTLHours int `toml:"session_ttl_hours"`
	BcryptCost      int `toml:"bcrypt_cost"`
}

type GeneratorConfig struct {
	Endpoint       string `toml:"endpoint"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	SystemPrompt   string `toml:"system_prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// IngestConfig throttles the unauthenticated reply/publication ingest path.
type IngestConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

type SchedulerConfig struct {
	Enabled                  bool `toml:"enabled"`
	RefreshIntervalMins      int  `toml:"refresh_interval_mins"`
	SessionPruneIntervalMins int  `toml:"session_prune_interval_mins"`
}

func (a AuthConfig) SessionTTL() time.Duration {
	hours := a.SessionTTLHours
	if hours <= 0 {
		hours = 24 * 7
	}
	return time.Duration(hours) * time.Hour
}

func (g GeneratorConfig) Timeout() time.Duration {
	secs := g.TimeoutSeconds
	if secs <= 0 {
		secs = 20
	}
	return time.Duration(secs) * time.Second
}

func GetConfigPath() string {
	currentDirConfig := "config.toml"
	if _, err := os.Stat(currentDirConfig); err == nil {
		return currentDirConfig
	}
	return filepath.Join(GetConfigDir(), "config.toml")
}

func GetConfigDir() string {
	var configDir string

	if runtime.GOOS == "darwin" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		configDir = filepath.Join(homeDir, ".config")
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "."
		}
		configDir = dir
	}

	return filepath.Join(configDir, "postpilot")
}

// LoadConfig reads the TOML file at path, fills defaults for anything unset,
// and applies environment overrides last.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{ListenAddr: ":8080"},
		Options: OptionsConfig{
			SaveLocation: filepath.Join(GetConfigDir(), "data"),
		},
		Auth: AuthConfig{SessionTTLHours: 24 * 7},
		Generator: GeneratorConfig{
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			SystemPrompt:   "You are a social media content assistant.",
			TimeoutSeconds: 20,
		},
		Ingest: IngestConfig{RequestsPerSecond: 5, Burst: 10},
		Scheduler: SchedulerConfig{
			Enabled:                  true,
			RefreshIntervalMins:      5,
			SessionPruneIntervalMins: 60,
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = def.Server.ListenAddr
	}
	if c.Options.SaveLocation == "" {
		c.Options.SaveLocation = def.Options.SaveLocation
	}
	if c.Generator.Endpoint == "" {
		c.Generator.Endpoint = def.Generator.Endpoint
	}
	if c.Generator.Model == "" {
		c.Generator.Model = def.Generator.Model
	}
	if c.Generator.SystemPrompt == "" {
		c.Generator.SystemPrompt = def.Generator.SystemPrompt
	}
	if c.Ingest.RequestsPerSecond <= 0 {
		c.Ingest.RequestsPerSecond = def.Ingest.RequestsPerSecond
	}
	if c.Ingest.Burst <= 0 {
		c.Ingest.Burst = def.Ingest.Burst
	}
	if c.Scheduler.RefreshIntervalMins <= 0 {
		c.Scheduler.RefreshIntervalMins = def.Scheduler.RefreshIntervalMins
	}
	if c.Scheduler.SessionPruneIntervalMins <= 0 {
		c.Scheduler.SessionPruneIntervalMins = def.Scheduler.SessionPruneIntervalMins
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("POSTPILOT_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("POSTPILOT_SAVE_LOCATION"); v != "" {
		c.Options.SaveLocation = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Generator.APIKey = v
	}
	if v := os.Getenv("POSTPILOT_GENERATOR_ENDPOINT"); v != "" {
		c.Generator.Endpoint = v
	}
	if v := os.Getenv("POSTPILOT_GENERATOR_MODEL"); v != "" {
		c.Generator.Model = v
	}
}

func (c *Config) validate() error {
	if c.Auth.SessionTTLHours < 0 {
		return fmt.Errorf("auth.session_ttl_hours must not be negative")
	}
	if c.Generator.TimeoutSeconds < 0 {
		return fmt.Errorf("generator.timeout_seconds must not be negative")
	}
	return nil
}

func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(cfg)
}

// EnsureConfigExists writes a default config file on first run.
func EnsureConfigExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return SaveConfig(DefaultConfig(), path)
}
