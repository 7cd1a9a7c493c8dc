package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks the configuration and fills in defaults.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.Template == "" {
		return fmt.Errorf("template is required")
	}

	if cfg.IntervalS < 0 {
		return fmt.Errorf("interval_s must be >= 0")
	}
	if cfg.IntervalS == 0 {
		cfg.IntervalS = 1
	}

	switch cfg.FeatureBackend {
	case "":
		cfg.FeatureBackend = "orb"
	case "orb", "sift":
	default:
		return fmt.Errorf("feature_backend must be orb or sift, got %q", cfg.FeatureBackend)
	}

	if err := validateSource(&cfg.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := validateSettings(&cfg.Settings); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if err := validateBus(&cfg.Bus, cfg.InstanceID); err != nil {
		return fmt.Errorf("bus: %w", err)
	}
	return nil
}

func validateSource(s *SourceConfig) error {
	switch {
	case s.Camera == "" && s.Directory == "":
		return fmt.Errorf("one of camera or directory is required")
	case s.Camera != "" && s.Directory != "":
		return fmt.Errorf("camera and directory are mutually exclusive")
	}
	return nil
}

func validateSettings(s *SettingsConfig) error {
	if s.Backend == "" {
		s.Backend = "memory"
	}
	switch s.Backend {
	case "memory":
	case "file":
		if s.Path == "" {
			return fmt.Errorf("path is required for the file backend")
		}
		if s.PollS < 0 {
			return fmt.Errorf("poll_s must be >= 0")
		}
		if s.PollS == 0 {
			s.PollS = 2
		}
	case "redis":
		if s.Redis.Addr == "" {
			s.Redis.Addr = "localhost:6379"
		}
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	return nil
}

func validateBus(b *BusConfig, instanceID string) error {
	if b.Backend == "" {
		b.Backend = "local"
	}
	if b.TopicPrefix == "" {
		b.TopicPrefix = fmt.Sprintf("potwatch/%s", instanceID)
	}
	switch b.Backend {
	case "local":
	case "mqtt":
		if b.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required")
		}
		if b.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
		if b.MQTT.ClientID == "" {
			b.MQTT.ClientID = fmt.Sprintf("potwatch-%s", instanceID)
		}
	default:
		return fmt.Errorf("unknown backend %q", b.Backend)
	}
	return nil
}
