// Package config loads the monitor service configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	InstanceID     string         `yaml:"instance_id"`
	Template       string         `yaml:"template"`   // reference panel image
	IntervalS      float64        `yaml:"interval_s"` // seconds between frames (default: 1)
	FeatureBackend string         `yaml:"feature_backend"`
	DebugDir       string         `yaml:"debug_dir,omitempty"`
	Source         SourceConfig   `yaml:"source"`
	Settings       SettingsConfig `yaml:"settings"`
	Bus            BusConfig      `yaml:"bus"`
}

// SourceConfig selects where frames come from. Exactly one of Camera and
// Directory is set.
type SourceConfig struct {
	Camera    string `yaml:"camera,omitempty"`    // device index or stream URL
	Directory string `yaml:"directory,omitempty"` // still images, read in name order
	Loop      bool   `yaml:"loop"`                // restart the directory at the end
}

// SettingsConfig selects the parameter store backend.
type SettingsConfig struct {
	Backend   string      `yaml:"backend"` // memory, file, redis
	Path      string      `yaml:"path,omitempty"`
	Namespace string      `yaml:"namespace,omitempty"`
	PollS     float64     `yaml:"poll_s"` // file change polling interval (default: 2)
	Redis     RedisConfig `yaml:"redis"`
}

// RedisConfig contains redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
}

// BusConfig selects where readings are published.
type BusConfig struct {
	Backend     string     `yaml:"backend"` // local, mqtt
	TopicPrefix string     `yaml:"topic_prefix"`
	MQTT        MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig contains MQTT broker settings
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// Load reads and parses a YAML configuration file. Relative paths inside the
// file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.resolvePaths(filepath.Dir(path))

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) resolvePaths(base string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	resolve(&c.Template)
	resolve(&c.DebugDir)
	resolve(&c.Source.Directory)
	resolve(&c.Settings.Path)
}
