package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type ServerConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	PublicDir   string `json:"publicDir"` // empty serves the embedded page
	HistorySize int    `json:"historySize"`
}

type HookConfig struct {
	ServerURL string `json:"serverURL"`
	TimeoutMs int    `json:"timeoutMs"`
}

type Config struct {
	Server   ServerConfig `json:"server"`
	Hook     HookConfig   `json:"hook"`
	DataDir  string       `json:"dataDir"`
	LogDir   string       `json:"logDir"`
	LogLevel string       `json:"logLevel"`
}

const (
	DefaultPort    = 4242
	defaultHistory = 100
)

func baseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude-viz")
}

func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        DefaultPort,
			HistorySize: defaultHistory,
		},
		Hook: HookConfig{
			ServerURL: fmt.Sprintf("http://localhost:%d/event", DefaultPort),
			TimeoutMs: 2000,
		},
		DataDir:  baseDir(),
		LogDir:   filepath.Join(baseDir(), "logs"),
		LogLevel: "info",
	}
}

func DefaultPath() string {
	return filepath.Join(baseDir(), "config.json")
}

// JournalPath is where the hook keeps its local event journal.
func (c Config) JournalPath() string {
	return filepath.Join(c.DataDir, "events.db")
}

// HookTimeout is the bound on a single hook delivery attempt.
func (c Config) HookTimeout() time.Duration {
	if c.Hook.TimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Hook.TimeoutMs) * time.Millisecond
}

// Addr is the server's listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from the environment: PORT sets the listen port
// and CLAUDE_VIZ_URL the hook's target URL.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Server.Port = port
	}
	if v := getenv("CLAUDE_VIZ_URL"); v != "" {
		cfg.Hook.ServerURL = v
	}
	return nil
}
