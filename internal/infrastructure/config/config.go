package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for tommy-core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	TOMMY     TOMMYConfig     `yaml:"tommy"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServiceConfig contains instance-level identification.
type ServiceConfig struct {
	// InstanceID is the stable identifier for this hub session. It is the
	// prefix of every entity unique-id and device identifier this instance
	// creates, so changing it orphans previously registered rows.
	InstanceID string `yaml:"instance_id"`
	Name       string `yaml:"name"`
}

// TOMMYConfig contains the connection details for the TOMMY occupancy hub.
// Host and MQTTPort are both required; startup fails without them.
type TOMMYConfig struct {
	Host     string `yaml:"host"`
	MQTTPort int    `yaml:"mqtt_port"`
}

// MQTTConfig contains MQTT client behaviour settings.
type MQTTConfig struct {
	ClientID  string              `yaml:"client_id"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTReconnectConfig contains MQTT reconnection backoff settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TOMMY_SECTION_KEY
// For example: TOMMY_HUB_HOST, TOMMY_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Reconnect backoff bounds (seconds). The hub connection backs off
// exponentially between these two delays.
const (
	defaultReconnectInitialDelay = 1
	defaultReconnectMaxDelay     = 120
)

// defaultMQTTPort is the TOMMY hub's broker port.
const defaultMQTTPort = 1886

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			InstanceID: "tommy-hub",
			Name:       "TOMMY",
		},
		TOMMY: TOMMYConfig{
			MQTTPort: defaultMQTTPort,
		},
		MQTT: MQTTConfig{
			ClientID: "tommy-core",
			QoS:      1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: defaultReconnectInitialDelay,
				MaxDelay:     defaultReconnectMaxDelay,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/tommy.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8091,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TOMMY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hub connection
	if v := os.Getenv("TOMMY_HUB_HOST"); v != "" {
		cfg.TOMMY.Host = v
	}
	if v := os.Getenv("TOMMY_HUB_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.TOMMY.MQTTPort = port
		}
	}

	// Service identity
	if v := os.Getenv("TOMMY_INSTANCE_ID"); v != "" {
		cfg.Service.InstanceID = v
	}

	// Database
	if v := os.Getenv("TOMMY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("TOMMY_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// Logging
	if v := os.Getenv("TOMMY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// A missing hub host or broker port is a startup failure, reported with the
// offending key named, never a crash later in the pipeline.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Service.InstanceID == "" {
		errs = append(errs, "service.instance_id is required")
	}

	if c.TOMMY.Host == "" {
		errs = append(errs, "tommy.host is required (set TOMMY_HUB_HOST or tommy.host)")
	}
	if c.TOMMY.MQTTPort < 1 || c.TOMMY.MQTTPort > 65535 {
		errs = append(errs, "tommy.mqtt_port is required and must be between 1 and 65535")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.InitialDelay < 1 {
		errs = append(errs, "mqtt.reconnect.initial_delay must be at least 1 second")
	}
	if c.MQTT.Reconnect.MaxDelay < c.MQTT.Reconnect.InitialDelay {
		errs = append(errs, "mqtt.reconnect.max_delay must be >= initial_delay")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
