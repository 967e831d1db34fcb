package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GitHub holds the settings for the remote registry backend.
type GitHub struct {
	Repo   string `yaml:"repo"` // "owner/name"
	Path   string `yaml:"path"`
	Branch string `yaml:"branch"`
	Token  string `yaml:"token"`
}

// Config holds all configuration values
type Config struct {
	Addr          string        `yaml:"addr"`
	Store         string        `yaml:"store"`         // "file", "sqlite" or "github"
	RegistryPath  string        `yaml:"registry_path"` // file backend
	DBPath        string        `yaml:"db_path"`       // sqlite backend
	SigningSecret string        `yaml:"signing_secret"`
	AdminToken    string        `yaml:"admin_token"`
	StoreTimeout  time.Duration `yaml:"store_timeout"` // bound on a single store call
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`

	GitHub GitHub `yaml:"github"`
}

// Load loads configuration from YAML file and overrides with env vars if present
func Load(path string) (*Config, error) {
	// Defaults
	cfg := &Config{
		Addr:         ":10000",
		Store:        "file",
		RegistryPath: "./allowed_hwids.json",
		DBPath:       "./registry.db",
		StoreTimeout: 10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Load from YAML if file exists
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(cfg); err != nil {
			return nil, err
		}
	}

	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("REGISTRY_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("REGISTRY_PATH"); v != "" {
		cfg.RegistryPath = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SIGNING_SECRET"); v != "" {
		cfg.SigningSecret = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.AdminToken = v
	}
	if v := os.Getenv("GITHUB_REPO"); v != "" {
		cfg.GitHub.Repo = v
	}
	if v := os.Getenv("GITHUB_PATH"); v != "" {
		cfg.GitHub.Path = v
	}
	if v := os.Getenv("GITHUB_BRANCH"); v != "" {
		cfg.GitHub.Branch = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}

	return cfg, nil
}
