// Package config loads the unfilled service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/unfilled/internal/constants"
	"github.com/julianstephens/unfilled/internal/export"
	"github.com/julianstephens/unfilled/internal/utils"
)

// Environment overrides.
const (
	EnvDB         = "UNFILLED_DB"
	EnvAddr       = "UNFILLED_ADDR"
	EnvNATSURL    = "UNFILLED_NATS_URL"
	EnvBlobSecret = "UNFILLED_BLOB_SECRET"
)

// Config represents the complete unfilled configuration
type Config struct {
	// Timezone decides which calendar day "today" is.
	Timezone string        `yaml:"timezone"`
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
	Gallery  GalleryConfig `yaml:"gallery"`
	Blob     BlobConfig    `yaml:"blob"`
	Export   ExportConfig  `yaml:"export"`
	Events   EventsConfig  `yaml:"events"`
	Log      LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// BaseURL is the public origin used in share links.
	BaseURL         string        `yaml:"baseUrl"`
	MaxUploadMB     int           `yaml:"maxUploadMB"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// EphemeralDays keeps day entries in memory instead of the database.
	EphemeralDays bool `yaml:"ephemeralDays"`
}

type StorageConfig struct {
	// DB is a SQLite path or a PostgreSQL connection string without
	// credentials.
	DB            string        `yaml:"db"`
	QuotaKB       int           `yaml:"quotaKB"`
	EvictionRatio float64       `yaml:"evictionRatio"`
	SaveDebounce  time.Duration `yaml:"saveDebounce"`
}

type GalleryConfig struct {
	Backend string `yaml:"backend"` // local or hosted
}

type BlobConfig struct {
	Driver    string `yaml:"driver"` // fs or minio
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"urlPrefix"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"accessKey"`
	// SecretKey is normally supplied through the keyring or environment.
	SecretKey string `yaml:"secretKey,omitempty"`
	UseSSL    bool   `yaml:"useSSL"`
	PublicURL string `yaml:"publicUrl"`
}

type ExportConfig struct {
	JPEGQuality int    `yaml:"jpegQuality"`
	Background  string `yaml:"background"`
}

type EventsConfig struct {
	// NATSURL enables event publishing when set.
	NATSURL       string `yaml:"natsUrl"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
	// JSON writes one JSON object per log line.
	JSON bool `yaml:"json"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Timezone: "Local",
		Server: ServerConfig{
			Addr:            constants.DefaultServerAddr,
			BaseURL:         "http://localhost:3000",
			MaxUploadMB:     constants.DefaultMaxUploadMB,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			DB:            constants.DefaultDBPath,
			QuotaKB:       constants.DefaultQuotaKB,
			EvictionRatio: constants.DefaultEvictionRatio,
			SaveDebounce:  constants.DefaultSaveDebounce,
		},
		Gallery: GalleryConfig{Backend: "local"},
		Blob: BlobConfig{
			Driver:    "fs",
			Dir:       constants.DefaultUploadsDir,
			URLPrefix: "/uploads/",
			Bucket:    constants.DefaultBlobBucket,
		},
		Export: ExportConfig{
			JPEGQuality: constants.DefaultJPEGQuality,
			Background:  constants.DefaultBackground,
		},
		Events: EventsConfig{SubjectPrefix: constants.DefaultEventsPrefix},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("timezone %q is not a valid IANA zone", c.Timezone)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.maxUploadMB must be positive")
	}
	if c.Storage.DB == "" {
		return fmt.Errorf("storage.db is required")
	}
	if c.Storage.QuotaKB < 0 {
		return fmt.Errorf("storage.quotaKB must not be negative")
	}
	if c.Storage.EvictionRatio <= 0 || c.Storage.EvictionRatio > 1 {
		return fmt.Errorf("storage.evictionRatio must be in (0, 1]")
	}
	if c.Storage.SaveDebounce < 0 {
		return fmt.Errorf("storage.saveDebounce must not be negative")
	}
	switch c.Gallery.Backend {
	case "local", "hosted":
	default:
		return fmt.Errorf("gallery.backend must be local or hosted, got %q", c.Gallery.Backend)
	}
	switch c.Blob.Driver {
	case "fs":
		if c.Blob.Dir == "" {
			return fmt.Errorf("blob.dir is required for the fs driver")
		}
	case "minio":
		if c.Blob.Endpoint == "" || c.Blob.Bucket == "" {
			return fmt.Errorf("blob.endpoint and blob.bucket are required for the minio driver")
		}
	default:
		return fmt.Errorf("blob.driver must be fs or minio, got %q", c.Blob.Driver)
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("export.jpegQuality must be between 1 and 100")
	}
	if _, err := export.ParseColor(c.Export.Background); err != nil {
		return fmt.Errorf("export.background: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDB); v != "" {
		c.Storage.DB = v
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := getenv(EnvNATSURL); v != "" {
		c.Events.NATSURL = v
	}
	if v := getenv(EnvBlobSecret); v != "" {
		c.Blob.SecretKey = v
	}
}

// QuotaBytes is the day-entry quota in bytes, 0 for unlimited.
func (c *Config) QuotaBytes() int64 {
	return int64(c.Storage.QuotaKB) * 1024
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads path when it exists, falls back to defaults when it does not,
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		expanded, err := utils.ExpandPath(path)
		if err != nil {
			return nil, err
		}
		loaded, err := LoadFromFile(expanded)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a YAML file. Secrets are never written.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.Blob.SecretKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
