package config

import (
	"os"
	"path/filepath"
	"strconv"

	"workspace-cluster-manager/pkg/extensions"
	"workspace-cluster-manager/pkg/models"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	Server           ServerConfig       `yaml:"server"`
	Auth             AuthConfig         `yaml:"auth"`
	Store            StoreConfig        `yaml:"store"`
	DataDir          string             `yaml:"data_dir"`
	LogLevel         string             `yaml:"log_level"`
	LogFile          string             `yaml:"log_file"`
	Workspaces       []models.Workspace `yaml:"workspaces"`
	CurrentWorkspace string             `yaml:"current_workspace"`
	Extensions       []ExtensionConfig  `yaml:"extensions"`
	ManagedClusters  []ManagedCluster   `yaml:"managed_clusters"`
	KubeconfigPaths  []string           `yaml:"kubeconfig_paths"` // scanned for contexts not added yet
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	JWTSecret string `yaml:"jwt_secret"`
}

// StoreConfig selects where cluster records are persisted
type StoreConfig struct {
	Backend string `yaml:"backend"` // "json" or "sqlite"
	Path    string `yaml:"path"`    // sqlite database file, defaults to <data_dir>/clusters.db
}

// ExtensionConfig declares the pages and menu icons of an extension
type ExtensionConfig struct {
	ID    string                `yaml:"id"`
	Pages []string              `yaml:"pages"`
	Menu  []extensions.MenuItem `yaml:"menu"`
}

// ManagedCluster is a cluster provisioned by the operator of this instance.
// Users cannot remove it from the menu.
type ManagedCluster struct {
	ID         string `yaml:"id"`
	Workspace  string `yaml:"workspace"`
	Kubeconfig string `yaml:"kubeconfig"` // path to a kubeconfig file
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Auth: AuthConfig{
			Username:  "admin",
			Password:  "admin123",
			JWTSecret: "cluster-manager-secret-key-change-me",
		},
		Store: StoreConfig{
			Backend: BackendJSON,
		},
		DataDir:  "./data",
		LogLevel: "info",
		Workspaces: []models.Workspace{
			{ID: "default", Name: "default"},
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}

	// Override with environment variables
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides overrides configuration with environment variables
func applyEnvOverrides(cfg *Config) {
	if username := os.Getenv("AUTH_USERNAME"); username != "" {
		cfg.Auth.Username = username
	}
	if password := os.Getenv("AUTH_PASSWORD"); password != "" {
		cfg.Auth.Password = password
	}
	if jwtSecret := os.Getenv("AUTH_JWT_SECRET"); jwtSecret != "" {
		cfg.Auth.JWTSecret = jwtSecret
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		cfg.Store.Backend = backend
	}
	if kubeconfig := os.Getenv("KUBECONFIG"); kubeconfig != "" {
		cfg.KubeconfigPaths = filepath.SplitList(kubeconfig)
	}
	if port, err := strconv.Atoi(os.Getenv("SERVER_PORT")); err == nil {
		cfg.Server.Port = port
	}
}

// Validate checks the configuration for values the server cannot start with
func (c *Config) Validate() error {
	if c.Store.Backend != BackendJSON && c.Store.Backend != BackendSQLite {
		return errors.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("invalid server port %d", c.Server.Port)
	}
	seen := make(map[string]bool)
	for _, ws := range c.Workspaces {
		if ws.ID == "" {
			return errors.New("workspace without id")
		}
		if seen[ws.ID] {
			return errors.Errorf("duplicate workspace %q", ws.ID)
		}
		seen[ws.ID] = true
	}
	for _, mc := range c.ManagedClusters {
		if mc.ID == "" || mc.Kubeconfig == "" {
			return errors.New("managed cluster needs an id and a kubeconfig")
		}
		if !seen[mc.Workspace] {
			return errors.Errorf("managed cluster %q references unknown workspace %q", mc.ID, mc.Workspace)
		}
	}
	for _, ext := range c.Extensions {
		if ext.ID == "" {
			return errors.New("extension without id")
		}
	}
	return nil
}
