package config

import (
	"errors"
	"fmt"

	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/validation"
)

// Validate checks field ranges and the settings that depend on each other.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not a known level", c.Log.Level)
	}
	if err := c.validateTable("data.constants", c.Data.Constants); err != nil {
		return err
	}
	if c.Data.Constants.Kind == KindInflux {
		return errors.New("data.constants: influx holds planting records only")
	}
	if err := c.validateTable("data.records", c.Data.Records); err != nil {
		return err
	}
	if c.MQTT.Enabled && c.MQTT.Host == "" {
		return errors.New("mqtt.host is required when mqtt is enabled")
	}
	return nil
}

func (c *Config) validateTable(name string, t Table) error {
	switch t.Kind {
	case KindFile, KindHTTP:
		if t.Location == "" {
			return fmt.Errorf("%s.location is required for %s sources", name, t.Kind)
		}
	case KindInflux:
		if c.Influx.URL == "" || c.Influx.Org == "" || c.Influx.Bucket == "" {
			return fmt.Errorf("%s: influx.url, influx.org and influx.bucket are required", name)
		}
	}
	return nil
}

// UsesInflux reports whether any table is read from InfluxDB.
func (c *Config) UsesInflux() bool {
	return c.Data.Constants.Kind == KindInflux || c.Data.Records.Kind == KindInflux
}
