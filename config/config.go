package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment override, e.g. CERTGEN_SERVER_PORT
const EnvPrefix = "CERTGEN"

// Config is the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Store   StoreConfig   `yaml:"store" envconfig:"STORE"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Convert ConvertConfig `yaml:"convert" envconfig:"CONVERT"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port          int    `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	Mode          string `yaml:"mode" envconfig:"MODE" validate:"oneof=debug release test"`
	MaxUploadSize int64  `yaml:"max_upload_size" envconfig:"MAX_UPLOAD_SIZE" validate:"min=1"`
}

// StoreConfig selects where batches and jobs are kept between requests
type StoreConfig struct {
	Driver        string        `yaml:"driver" envconfig:"DRIVER" validate:"oneof=redis memory"`
	RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR" validate:"required_if=Driver redis"`
	RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB" validate:"min=0"`
	TTL           time.Duration `yaml:"ttl" envconfig:"TTL" validate:"min=0"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// OutputConfig controls where generated files go
type OutputConfig struct {
	Dir         string `yaml:"dir" envconfig:"DIR" validate:"required"`
	ArchiveName string `yaml:"archive_name" envconfig:"ARCHIVE_NAME" validate:"required"`
	MergedName  string `yaml:"merged_name" envconfig:"MERGED_NAME" validate:"required"`
}

// ConvertConfig controls the external document-to-PDF converter
type ConvertConfig struct {
	Command          string        `yaml:"command" envconfig:"COMMAND" validate:"required"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"min=0"`
	ExpectedDuration time.Duration `yaml:"expected_duration" envconfig:"EXPECTED_DURATION" validate:"gt=0"`
	Concurrency      int           `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:          8080,
			Mode:          "release",
			MaxUploadSize: 32 << 20,
		},
		Store: StoreConfig{
			Driver:    "redis",
			RedisAddr: "127.0.0.1:6379",
			RedisDB:   8,
			TTL:       24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Output: OutputConfig{
			Dir:         "Output",
			ArchiveName: "certificates.zip",
			MergedName:  "certificates.pdf",
		},
		Convert: ConvertConfig{
			Command:          "soffice",
			Timeout:          5 * time.Minute,
			ExpectedDuration: 8 * time.Second,
			Concurrency:      1,
		},
	}
}

// Load builds the configuration. It starts from Defaults, then applies the
// YAML file at path, then environment variables, so each layer can set any
// value including zero (redis_db 0, ttl 0, timeout 0). An empty path skips
// the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile decodes the YAML file onto cfg. Keys missing from the file
// keep their current value.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Override copies every non-zero field of o onto c, e.g. command line flags
// that were given explicitly
func (c *Config) Override(o Config) error {
	if err := mergo.Merge(c, o, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to apply config overrides: %w", err)
	}
	return c.Validate()
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
