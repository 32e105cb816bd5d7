// Package config loads clidiff settings from a user config file and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendHTTP = "http"
	BackendGCS  = "gcs"
	BackendDir  = "dir"
)

// Config is the complete tool configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Workers int           `mapstructure:"workers" yaml:"workers" validate:"min=1,max=64"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
}

// StorageConfig locates published snapshots.
type StorageConfig struct {
	Backend         string `mapstructure:"backend" yaml:"backend" validate:"oneof=http gcs dir"`
	BaseURL         string `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"required_if=Backend http,omitempty,url"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket,omitempty" validate:"required_if=Backend gcs"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
	Dir             string `mapstructure:"dir" yaml:"dir,omitempty" validate:"required_if=Backend dir"`
	PathPrefix      string `mapstructure:"path_prefix" yaml:"path_prefix" validate:"required"`
	IndexFile       string `mapstructure:"index_file" yaml:"index_file" validate:"required"`
}

// CacheConfig controls the local copy of fetched snapshots.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir,omitempty"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text tree dict json csv table"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendHTTP,
			BaseURL:    "https://azcmdchangemgmt.blob.core.windows.net/cmd-metadata-per-version",
			PathPrefix: "azure-cli-",
			IndexFile:  "version_list.txt",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     filepath.Join(xdg.CacheHome, "clidiff"),
		},
		Workers: 4,
		Output:  OutputConfig{Format: "text"},
		HTTP:    HTTPConfig{Timeout: 30 * time.Second},
	}
}

// Loader reads configuration.
// Priority: ENV > config file > defaults.
type Loader struct {
	cliName   string
	envPrefix string
	path      string
}

// NewLoader creates a loader for cliName. path, when set, must exist;
// otherwise $<PREFIX>_CONFIG or the xdg config file is read if present.
func NewLoader(cliName, path string) *Loader {
	return &Loader{
		cliName:   cliName,
		envPrefix: strings.ToUpper(strings.ReplaceAll(cliName, "-", "_")),
		path:      path,
	}
}

// ConfigPath returns the file the loader reads.
func (l *Loader) ConfigPath() string {
	if l.path != "" {
		return l.path
	}
	if custom := os.Getenv(l.envPrefix + "_CONFIG"); custom != "" {
		return custom
	}
	return filepath.Join(xdg.ConfigHome, l.cliName, "config.yaml")
}

// Load reads, overrides and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigType("yaml")

	path := l.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if l.path != "" {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides apply to it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.base_url", d.Storage.BaseURL)
	v.SetDefault("storage.bucket", d.Storage.Bucket)
	v.SetDefault("storage.credentials_file", d.Storage.CredentialsFile)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.path_prefix", d.Storage.PathPrefix)
	v.SetDefault("storage.index_file", d.Storage.IndexFile)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
}

// Save writes cfg to the loader's config path.
func (l *Loader) Save(cfg *Config) error {
	path := l.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
