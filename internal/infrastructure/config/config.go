package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the gateway.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
	Protocols ProtocolsConfig `yaml:"protocols"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Security  SecurityConfig  `yaml:"security"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings: RetrySleep is the
// interval between connection retries, RetryTimeout bounds each connection
// attempt, and FailureSleep caps the delay between automatic reconnects.
type MQTTReconnectConfig struct {
	RetrySleep   time.Duration `yaml:"retry_sleep"`
	RetryTimeout time.Duration `yaml:"retry_timeout"`
	FailureSleep time.Duration `yaml:"failure_sleep"`
}

// APIConfig contains the voice-cloud-facing HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ProtocolsConfig contains per-device-protocol connection settings.
type ProtocolsConfig struct {
	Roborock RoborockConfig `yaml:"roborock"`
	Sonoff   SonoffConfig   `yaml:"sonoff"`
	Inspinia InspiniaConfig `yaml:"inspinia"`
}

// RoborockConfig contains the local L01 protocol connection settings for the
// vacuum adapter.
type RoborockConfig struct {
	IP    string `yaml:"ip"`
	DUID  string `yaml:"duid"`
	Token string `yaml:"token"` // local_key, hex-encoded

	// RoomIDs maps a transport room to the vacuum's own segment id, used to
	// translate a room-targeted Start action into the device's native
	// room id list.
	RoomIDs map[string]uint8 `yaml:"room_ids"`
}

// SonoffConfig contains the mDNS-discovered switch keys for the switch
// adapter.
type SonoffConfig struct {
	// Keys maps a device id (as broadcast in the mDNS TXT "id" field) to its
	// 16-byte AES key, hex-encoded.
	Keys map[string]string `yaml:"keys"`

	// RoomDeviceIDs maps a transport room to the Sonoff device id that
	// switches its light. A room absent from this map has no
	// Elisheba-controllable light.
	RoomDeviceIDs map[string]string `yaml:"room_device_ids"`
}

// InspiniaConfig contains the Astrum/Inspinia WebSocket client settings for
// the HVAC adapter.
type InspiniaConfig struct {
	ClientID string `yaml:"client_id"`
	Token    string `yaml:"token"`

	// BasicAuthUser/BasicAuthPassword authenticate the HVAC adapter against
	// the Inspinia hub's own HTTP endpoints (template version lookup and
	// download) and are distinct from the MQTT broker credentials above. The
	// WebSocket connection does not use them.
	BasicAuthUser     string `yaml:"basic_auth_user"`
	BasicAuthPassword string `yaml:"basic_auth_password"`

	// TemplateCacheDir is where downloaded template SQLite files are cached,
	// one per template version.
	TemplateCacheDir string `yaml:"template_cache_dir"`

	// RoomIDs maps a transport room (e.g. "bedroom") to the template's own
	// room UUID. A room absent from this map has no Inspinia-controllable
	// thermostat/recuperator and any action targeting it fails as
	// unsupported_device.
	RoomIDs map[string]string `yaml:"room_ids"`
}

// CloudConfig contains voice-cloud state-reporting callback settings (C10).
type CloudConfig struct {
	// CallbackURLTemplate is the notification endpoint, with one %s
	// placeholder for SkillID.
	CallbackURLTemplate string `yaml:"callback_url_template"`
	SkillID             string `yaml:"skill_id"`
	Token               string `yaml:"token"`
	// UserID identifies the household to the voice cloud in every
	// notification body; the cloud only ever manages one.
	UserID string `yaml:"user_id"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT SecurityJWTConfig `yaml:"jwt"`
}

// SecurityJWTConfig contains bearer-token validation settings for the
// voice-cloud HTTP surface. Token issuance is an external collaborator
// the gateway only validates incoming bearer tokens.
type SecurityJWTConfig struct {
	Secret string `yaml:"secret"`
}

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Recognized environment variables:
// MQTT_ADDRESS, MQTT_USER, MQTT_PASS, ALICE_SKILL_ID, ALICE_TOKEN,
// JWT_SECRET, VACUUM_IP, VACUUM_TOKEN, INSPINIA_CLIENT_ID, INSPINIA_TOKEN,
// LISA_USER, LISA_PASSWORD, KEYS. A value missing from both file and
// environment is fatal at startup if Validate requires it.
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

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "site-001",
			Name: "voice gateway",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "gateway",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				RetrySleep:   1 * time.Second,
				RetryTimeout: 10 * time.Second,
				FailureSleep: 5 * time.Second,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Cloud: CloudConfig{
			CallbackURLTemplate: "https://dialogs.yandex.net/api/v1/skills/%s/callback/state",
			UserID:              "chipp",
		},
	}
}

// applyEnvOverrides applies the recognized environment variable overrides
// to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MQTT_ADDRESS"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MQTT_USER"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MQTT_PASS"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("ALICE_SKILL_ID"); v != "" {
		cfg.Cloud.SkillID = v
	}
	if v := os.Getenv("ALICE_TOKEN"); v != "" {
		cfg.Cloud.Token = v
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}

	if v := os.Getenv("VACUUM_IP"); v != "" {
		cfg.Protocols.Roborock.IP = v
	}
	if v := os.Getenv("VACUUM_TOKEN"); v != "" {
		cfg.Protocols.Roborock.Token = v
	}

	if v := os.Getenv("INSPINIA_CLIENT_ID"); v != "" {
		cfg.Protocols.Inspinia.ClientID = v
	}
	if v := os.Getenv("INSPINIA_TOKEN"); v != "" {
		cfg.Protocols.Inspinia.Token = v
	}
	if v := os.Getenv("LISA_USER"); v != "" {
		cfg.Protocols.Inspinia.BasicAuthUser = v
	}
	if v := os.Getenv("LISA_PASSWORD"); v != "" {
		cfg.Protocols.Inspinia.BasicAuthPassword = v
	}

	if v := os.Getenv("KEYS"); v != "" {
		cfg.Protocols.Sonoff.Keys = parseKeys(v)
	}
}

// parseKeys parses the KEYS environment variable: a comma-separated list of
// device_id=hex_key pairs, e.g. "1000abcd=0123456789abcdef0123456789abcdef".
func parseKeys(v string) map[string]string {
	keys := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		id, key, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		id = strings.TrimSpace(id)
		key = strings.TrimSpace(key)
		if id == "" || key == "" {
			continue
		}
		keys[id] = key
	}
	return keys
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
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
