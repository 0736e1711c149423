package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultEndpoint   = "http://127.0.0.1:5000/search"
	DefaultListenAddr = "127.0.0.1:5000"
	DefaultDataFile   = "all-data.csv"
)

type Config struct {
	Endpoint          string  `json:"endpoint"`
	DebounceMS        int     `json:"debounce_ms"`
	RequestTimeoutSec int     `json:"request_timeout_sec"`
	ListenAddr        string  `json:"listen_addr"`
	DataFile          string  `json:"data_file"`
	MaxResults        int     `json:"max_results"`
	RateLimit         float64 `json:"rate_limit"`
	LogLevel          string  `json:"log_level"`
	LogFile           string  `json:"log_file"`
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "newsfind"), nil
}

func configPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DBPath is where the backend keeps its sqlite copy of the dataset.
func DBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "newsfind.db"), nil
}

func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.DebounceMS <= 0 {
		c.DebounceMS = 500
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = 60
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 15
	}
	if c.RateLimit < 0 {
		c.RateLimit = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')
	return os.WriteFile(path, data, 0600)
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}
