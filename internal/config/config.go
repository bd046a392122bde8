package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Analyzer providers.
const (
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"
	ProviderNone   = "none"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	Key    string `yaml:"key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type ScheduleConfig struct {
	Timezone    string `yaml:"timezone"`
	RestSeconds int    `yaml:"rest_seconds"`
	CatalogFile string `yaml:"catalog_file"`
}

type AnalyzerConfig struct {
	Provider      string `yaml:"provider"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	BaseURL       string `yaml:"base_url"`
	URL           string `yaml:"url"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location returns the time zone days are counted in.
func (s ScheduleConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Rest returns the rest period between sets.
func (s ScheduleConfig) Rest() time.Duration {
	return time.Duration(s.RestSeconds) * time.Second
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8080},
		Storage:   StorageConfig{Driver: DriverSQLite, Dir: "data", Key: "default"},
		Database:  DatabaseConfig{Host: "localhost", Port: 5432, Name: "fitvision", User: "fitvision"},
		Schedule:  ScheduleConfig{RestSeconds: 60},
		Analyzer:  AnalyzerConfig{Provider: ProviderNone, RatePerMinute: 10},
		Tailscale: TailscaleConfig{Hostname: "fitvision", StateDir: "tsnet"},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix FITVISION_ and underscore-separated paths:
//
//	FITVISION_SERVER_HOST, FITVISION_SERVER_PORT,
//	FITVISION_STORAGE_DRIVER, FITVISION_STORAGE_DIR, FITVISION_STORAGE_KEY,
//	FITVISION_DB_HOST, FITVISION_DB_PORT, FITVISION_DB_NAME,
//	FITVISION_DB_USER, FITVISION_DB_PASSWORD, FITVISION_DB_SSLMODE,
//	FITVISION_TIMEZONE, FITVISION_REST_SECONDS, FITVISION_CATALOG_FILE,
//	FITVISION_ANALYZER_PROVIDER, FITVISION_ANALYZER_URL, FITVISION_ANALYZER_MODEL,
//	FITVISION_ANALYZER_BASE_URL, FITVISION_OPENAI_API_KEY,
//	FITVISION_TAILSCALE_ENABLED, FITVISION_TAILSCALE_HOSTNAME
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "FITVISION_SERVER_HOST")
	setInt(&cfg.Server.Port, "FITVISION_SERVER_PORT")

	setString(&cfg.Storage.Driver, "FITVISION_STORAGE_DRIVER")
	setString(&cfg.Storage.Dir, "FITVISION_STORAGE_DIR")
	setString(&cfg.Storage.Key, "FITVISION_STORAGE_KEY")

	setString(&cfg.Database.Host, "FITVISION_DB_HOST")
	setInt(&cfg.Database.Port, "FITVISION_DB_PORT")
	setString(&cfg.Database.Name, "FITVISION_DB_NAME")
	setString(&cfg.Database.User, "FITVISION_DB_USER")
	setString(&cfg.Database.Password, "FITVISION_DB_PASSWORD")
	setString(&cfg.Database.SSLMode, "FITVISION_DB_SSLMODE")

	setString(&cfg.Schedule.Timezone, "FITVISION_TIMEZONE")
	setInt(&cfg.Schedule.RestSeconds, "FITVISION_REST_SECONDS")
	setString(&cfg.Schedule.CatalogFile, "FITVISION_CATALOG_FILE")

	setString(&cfg.Analyzer.Provider, "FITVISION_ANALYZER_PROVIDER")
	setString(&cfg.Analyzer.URL, "FITVISION_ANALYZER_URL")
	setString(&cfg.Analyzer.Model, "FITVISION_ANALYZER_MODEL")
	setString(&cfg.Analyzer.BaseURL, "FITVISION_ANALYZER_BASE_URL")
	setString(&cfg.Analyzer.APIKey, "FITVISION_OPENAI_API_KEY")

	setBool(&cfg.Tailscale.Enabled, "FITVISION_TAILSCALE_ENABLED")
	setString(&cfg.Tailscale.Hostname, "FITVISION_TAILSCALE_HOSTNAME")
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver %q must be sqlite, postgres or memory", c.Storage.Driver)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}

	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Schedule.RestSeconds <= 0 {
		return fmt.Errorf("schedule.rest_seconds must be positive")
	}

	switch c.Analyzer.Provider {
	case ProviderOpenAI:
		if c.Analyzer.APIKey == "" {
			return fmt.Errorf("analyzer.api_key is required for the openai provider")
		}
	case ProviderHTTP:
		if c.Analyzer.URL == "" {
			return fmt.Errorf("analyzer.url is required for the http provider")
		}
	case ProviderNone, "":
	default:
		return fmt.Errorf("analyzer.provider %q must be openai, http or none", c.Analyzer.Provider)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
