package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the operational configuration of the bridge. Every field
// can be set from the TOML config file or overridden by environment
// variables, so the bridge can run config-file-free on a plain VPS.
type Config struct {
	// DataDir is the directory scanned for dataset .db files.
	DataDir string `toml:"data_dir"`
	// Port is the HTTP listen port.
	Port int `toml:"port"`
	// Secret is the shared secret expected in the X-Bridge-Secret header.
	Secret string `toml:"secret"`
	// SyncOnStart downloads datasets from object storage before serving.
	SyncOnStart bool `toml:"sync_on_start"`
	// S3 configures the optional dataset sync source.
	S3 S3Config `toml:"s3"`
}

// S3Config points at an S3-compatible bucket holding dataset files.
type S3Config struct {
	Endpoint        string `toml:"endpoint"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	Prefix          string `toml:"prefix"`
}

// Configured reports whether enough is set to attempt a sync.
func (s S3Config) Configured() bool {
	return s.Bucket != "" && s.AccessKeyID != "" && s.SecretAccessKey != ""
}

func defaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Port:    4800,
	}
}

// LoadConfig reads the TOML config at configPath, falling back to
// defaults if the file does not exist, then applies environment
// variable overrides.
func LoadConfig(configPath string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.Port == 0 {
		cfg.Port = 4800
	}

	return cfg, nil
}

// applyEnvOverrides maps the original deployment's environment
// variables onto the config. Environment always wins over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("BRIDGE_SECRET"); v != "" {
		cfg.Secret = v
	}
	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		cfg.S3.Region = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if v := os.Getenv("S3_ACCESS_KEY_ID"); v != "" {
		cfg.S3.AccessKeyID = v
	}
	if v := os.Getenv("S3_SECRET_ACCESS_KEY"); v != "" {
		cfg.S3.SecretAccessKey = v
	}
	if v := os.Getenv("S3_PREFIX"); v != "" {
		cfg.S3.Prefix = v
	}
}

// SaveConfig writes the config back to disk as TOML.
func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0600)
}

// GetConfigDir returns the configuration directory for dredge.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "dredge")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
