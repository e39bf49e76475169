// Package config handles configuration loading from a YAML file, environment
// variables and mounted secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the Que bridge.
type Config struct {
	// Authentication credentials
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// ClientName is the device name registered with the account. Each name
	// gets its own identity in the persistence directory.
	ClientName   string `yaml:"client_name"`
	DeviceSerial string `yaml:"device_serial"`
	PersistDir   string `yaml:"persist_dir"`
	BaseURL      string `yaml:"base_url"`

	// Zone behavior
	ZonesFollowMaster bool `yaml:"zones_follow_master"`
	ZonesPushMaster   bool `yaml:"zones_push_master"`

	// Polling
	RefreshInterval     time.Duration `yaml:"refresh_interval"`
	SoftRefreshInterval time.Duration `yaml:"soft_refresh_interval"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`

	// Server configuration
	ListenAddr string `yaml:"listen_addr"`

	Log  LogConfig  `yaml:"log"`
	MQTT MQTTConfig `yaml:"mqtt"`
	Blob BlobConfig `yaml:"blob"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// MQTTConfig enables the MQTT bridge when Broker is set.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	TopicPrefix string `yaml:"topic_prefix"`
	ClientID    string `yaml:"client_id"`
}

// BlobConfig enables the S3 mirror of the token files when Endpoint and
// Bucket are set.
type BlobConfig struct {
	Endpoint      string `yaml:"endpoint"`
	Bucket        string `yaml:"bucket"`
	Prefix        string `yaml:"prefix"`
	AccessKeyFile string `yaml:"access_key_file"`
	SecretKeyFile string `yaml:"secret_key_file"`
	Region        string `yaml:"region"`
}

func defaults() *Config {
	return &Config{
		ClientName:          "que-bridge",
		PersistDir:          "/var/lib/que_bridge",
		BaseURL:             "https://que.actronair.com.au",
		ZonesFollowMaster:   true,
		RefreshInterval:     time.Minute,
		SoftRefreshInterval: 5 * time.Second,
		RequestTimeout:      2 * time.Minute,
		ListenAddr:          ":9818",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		MQTT: MQTTConfig{
			TopicPrefix: "que",
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// (optional, environment references expanded), QUE_* environment variables
// and finally mounted secret files.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	// Mounted secrets win over everything else
	username, password, err := tryLoadFromSecrets()
	if err != nil {
		return nil, fmt.Errorf("read secrets: %w", err)
	}
	if username != "" {
		cfg.Username = username
	}
	if password != "" {
		cfg.Password = password
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"QUE_USERNAME":          &c.Username,
		"QUE_PASSWORD":          &c.Password,
		"QUE_CLIENT_NAME":       &c.ClientName,
		"QUE_DEVICE_SERIAL":     &c.DeviceSerial,
		"QUE_PERSIST_DIR":       &c.PersistDir,
		"QUE_BASE_URL":          &c.BaseURL,
		"QUE_ADDR":              &c.ListenAddr,
		"QUE_LOG_LEVEL":         &c.Log.Level,
		"QUE_LOG_FORMAT":        &c.Log.Format,
		"QUE_MQTT_BROKER":       &c.MQTT.Broker,
		"QUE_MQTT_TOPIC_PREFIX": &c.MQTT.TopicPrefix,
		"QUE_MQTT_CLIENT_ID":    &c.MQTT.ClientID,
		"QUE_BLOB_ENDPOINT":     &c.Blob.Endpoint,
		"QUE_BLOB_BUCKET":       &c.Blob.Bucket,
		"QUE_BLOB_PREFIX":       &c.Blob.Prefix,
		"QUE_BLOB_REGION":       &c.Blob.Region,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"QUE_ZONES_FOLLOW_MASTER": &c.ZonesFollowMaster,
		"QUE_ZONES_PUSH_MASTER":   &c.ZonesPushMaster,
	}
	for key, dst := range bools {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	// Intervals are given in seconds
	durations := map[string]*time.Duration{
		"QUE_REFRESH_INTERVAL":      &c.RefreshInterval,
		"QUE_SOFT_REFRESH_INTERVAL": &c.SoftRefreshInterval,
		"QUE_REQUEST_TIMEOUT":       &c.RequestTimeout,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
				*dst = time.Duration(seconds) * time.Second
			}
		}
	}

	return nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Username == "" {
		return errors.New("username is required (set QUE_USERNAME or mount K8s secret)")
	}
	if c.Password == "" {
		return errors.New("password is required (set QUE_PASSWORD or mount K8s secret)")
	}
	if c.ClientName == "" {
		return errors.New("client name is required (set QUE_CLIENT_NAME)")
	}
	if c.PersistDir == "" {
		return errors.New("persist dir is required (set QUE_PERSIST_DIR)")
	}
	if c.RequestTimeout < 10*time.Second {
		return errors.New("request timeout must be at least 10 seconds")
	}
	if c.RefreshInterval < 10*time.Second {
		return errors.New("refresh interval must be at least 10 seconds")
	}
	if c.SoftRefreshInterval < 0 {
		return errors.New("soft refresh interval must not be negative")
	}
	if (c.Blob.Endpoint == "") != (c.Blob.Bucket == "") {
		return errors.New("blob endpoint and bucket must be set together")
	}
	return nil
}
