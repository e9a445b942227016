// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"finflow-ledger/pkg/db" // Import db package for its Config struct

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// DefaultConnectionName is the identifier of the connection synthesized from the DB_* fields.
const DefaultConnectionName = "default"

// connectionsEnvPrefix declares one tenant connection per variable, e.g. DB_CONNECTIONS_ACME.
const connectionsEnvPrefix = "DB_CONNECTIONS_"

// envSections are the variable prefixes read from the environment.
var envSections = []string{"SERVER_", "DB_", "LOG_"}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
	DB     db.Config    `koanf:"db"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required,numeric"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig configures logging. File enables a rotated log file next to the console output.
type LogConfig struct {
	Level      string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON       bool   `koanf:"json"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:            "8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		DB: db.Config{
			Driver:          db.DriverPostgres,
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
			MaxPools:        32,
			Host:            "localhost",
			Port:            5432,
			User:            "user",
			Password:        "password",
			DBName:          "walletdb",
			SSLMode:         "disable",
		},
	}
}

// Loader reads configuration from defaults, an optional YAML file and the environment,
// in increasing order of precedence.
type Loader struct {
	path      string
	environ   func() []string
	validator *validator.Validate
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFile adds a YAML file source. A missing file is not an error.
func WithFile(path string) LoaderOption {
	return func(l *Loader) { l.path = path }
}

// WithEnviron replaces os.Environ as the environment source.
func WithEnviron(environ func() []string) LoaderOption {
	return func(l *Loader) { l.environ = environ }
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{environ: os.Environ, validator: validator.New()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the YAML file the loader reads, if any.
func (l *Loader) Path() string { return l.path }

// Load builds and validates a fresh configuration.
func (l *Loader) Load() (*AppConfig, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if l.path != "" {
		data, err := readYAML(l.path)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := k.Load(rawMap(data), nil); err != nil {
				return nil, fmt.Errorf("failed to apply %s: %w", l.path, err)
			}
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: transformEnvKey,
		EnvironFunc:   l.environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg AppConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	synthesizeDefault(&cfg.DB)
	if err := l.validator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if _, ok := cfg.DB.Connections[cfg.DB.DefaultConnection]; !ok {
		return nil, fmt.Errorf("configuration validation failed: default connection %q is not configured", cfg.DB.DefaultConnection)
	}
	return &cfg, nil
}

// synthesizeDefault builds the "default" connection from the discrete DB fields when no
// connections are configured, and picks it as the default when none is named.
func synthesizeDefault(c *db.Config) {
	if len(c.Connections) == 0 {
		c.Connections = map[string]string{DefaultConnectionName: c.PostgresDSN()}
	}
	if c.DefaultConnection == "" {
		c.DefaultConnection = DefaultConnectionName
	}
}

// transformEnvKey maps environment variables to koanf paths:
// SERVER_PORT -> server.port, DB_MAX_OPEN_CONNS -> db.max_open_conns,
// DB_CONNECTIONS_ACME -> db.connections.acme. Other variables are ignored.
func transformEnvKey(key, value string) (string, any) {
	if strings.HasPrefix(key, connectionsEnvPrefix) && len(key) > len(connectionsEnvPrefix) {
		return "db.connections." + strings.ToLower(strings.TrimPrefix(key, connectionsEnvPrefix)), value
	}
	for _, section := range envSections {
		if strings.HasPrefix(key, section) && len(key) > len(section) {
			name := strings.ToLower(strings.TrimPrefix(key, section))
			return strings.ToLower(strings.TrimSuffix(section, "_")) + "." + name, value
		}
	}
	return "", nil
}

func readYAML(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return data, nil
}

// rawMap is a koanf.Provider adapter for map[string]any data.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
