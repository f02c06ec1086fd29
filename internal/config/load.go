package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable holding the config file path.
const PathEnvVar = "CONFIG_PATH"

// DefaultPath is tried when PathEnvVar is unset.
const DefaultPath = "config.yaml"

// Load layers defaults, the YAML file at path (skipped when empty or
// missing) and the environment, then validates the result. An empty path
// falls back to $CONFIG_PATH and then DefaultPath.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		if p := os.Getenv(PathEnvVar); p != "" {
			path, explicit = p, true
		} else {
			path = DefaultPath
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider("", ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envKeys maps the deployment's environment variables onto config paths.
// Anything not listed here is ignored.
var envKeys = map[string]string{
	"http_port":        "server.http_port",
	"grpc_port":        "server.grpc_port",
	"request_timeout":  "server.request_timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"rate_limit":       "server.rate_limit",

	"constants_source":   "data.constants.kind",
	"constants_location": "data.constants.location",
	"records_source":     "data.records.kind",
	"records_location":   "data.records.location",
	"cache_ttl":          "data.cache_ttl",

	"upstream_timeout":          "upstream.timeout",
	"upstream_retries":          "upstream.retries",
	"upstream_breaker_failures": "upstream.breaker_failures",
	"upstream_breaker_open_for": "upstream.breaker_open_for",

	"influx_url":         "influx.url",
	"influx_token":       "influx.token",
	"influx_org":         "influx.org",
	"influx_bucket":      "influx.bucket",
	"measurement":        "influx.measurement",
	"influx_measurement": "influx.measurement",
	"influx_lookback":    "influx.lookback",

	"mqtt_enabled":      "mqtt.enabled",
	"rabbitmq_host":     "mqtt.host",
	"mqtt_host":         "mqtt.host",
	"rabbitmq_port":     "mqtt.port",
	"mqtt_port":         "mqtt.port",
	"rabbitmq_user":     "mqtt.user",
	"mqtt_user":         "mqtt.user",
	"rabbitmq_password": "mqtt.password",
	"mqtt_pass":         "mqtt.password",
	"mqtt_client_id":    "mqtt.client_id",
	"mqtt_topic":        "mqtt.request_topic",
	"mqtt_result_topic": "mqtt.result_topic",
	"mqtt_qos":          "mqtt.qos",

	"log_level":  "log.level",
	"log_format": "log.format",
	"log_caller": "log.caller",
}

func envToKey(key string) string {
	return envKeys[strings.ToLower(key)]
}
