package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// DataDirEnv overrides output.data_dir when set.
const DataDirEnv = "CLICKLABEL_DATA_DIR"

type Config struct {
	Labeling Labeling `yaml:"labeling"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Labeling struct {
	// LeaseTTL is how long an assignment stays exclusive before it can be
	// handed to another labeler.
	LeaseTTL        time.Duration `yaml:"lease_ttl"`
	LeaderboardSize int           `yaml:"leaderboard_size"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
	Mode  string `yaml:"mode"`
}

// ConfigDir returns the XDG config directory for clicklabel.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "clicklabel")
}

// DataDir returns the XDG data directory for clicklabel.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "clicklabel")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/clicklabel/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'clicklabel init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Labeling: Labeling{
			LeaseTTL:        15 * time.Minute,
			LeaderboardSize: 5,
		},
		Server:  Server{Host: "127.0.0.1", Port: 8000},
		Logging: Logging{Level: "info", Mode: "development"},
	}
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Labeling.LeaseTTL <= 0 {
		return fmt.Errorf("labeling.lease_ttl must be positive, got %s", c.Labeling.LeaseTTL)
	}
	if c.Labeling.LeaderboardSize <= 0 {
		return fmt.Errorf("labeling.leaderboard_size must be positive, got %d", c.Labeling.LeaderboardSize)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// GetDataDir returns the effective data directory: environment override,
// then config, then the XDG default.
func (c *Config) GetDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath is where the SQLite file lives inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "clicklabel.db")
}

// ListenAddr is the host:port the API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
