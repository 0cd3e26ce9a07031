package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "TEXPAD_CONFIG"

// Config holds all UI host configuration. Values come from an optional YAML
// settings file with environment overrides on top.
type Config struct {
	Addr            string `yaml:"addr"`
	BackendURL      string `yaml:"backendUrl"`
	DevOrigin       string `yaml:"devOrigin"`
	AutosaveEnabled bool   `yaml:"autosaveEnabled"`
	AutosaveDelayMS int    `yaml:"autosaveDelayMs"`
	LogLevel        string `yaml:"logLevel"`
	LockFile        string `yaml:"lockFile"`
}

// AutosaveDelay resolves the configured debounce window.
func (c Config) AutosaveDelay() time.Duration {
	return time.Duration(c.AutosaveDelayMS) * time.Millisecond
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TEXPAD_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("TEXPAD_BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv("TEXPAD_DEV_ORIGIN"); v != "" {
		c.DevOrigin = v
	}
	if v := os.Getenv("TEXPAD_AUTOSAVE"); v != "" {
		c.AutosaveEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TEXPAD_AUTOSAVE_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.AutosaveDelayMS = n
		} else {
			log.Printf("config: invalid TEXPAD_AUTOSAVE_DELAY_MS %q, keeping %d", v, c.AutosaveDelayMS)
		}
	}
	if v := os.Getenv("TEXPAD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TEXPAD_LOCK_FILE"); v != "" {
		c.LockFile = v
	}
}

func defaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:7117",
		BackendURL:      "http://127.0.0.1:7118",
		DevOrigin:       "http://localhost:5173",
		AutosaveEnabled: true,
		AutosaveDelayMS: 1000,
		LogLevel:        "info",
		LockFile:        filepath.Join(os.TempDir(), "texpad.lock"),
	}
}
