// Package config loads advisor settings from built-in defaults, an optional
// YAML file and the environment, in increasing order of precedence.
package config

import (
	"time"
)

// Source kinds for Data.Constants and Data.Records.
const (
	KindFile   = "file"
	KindHTTP   = "http"
	KindInflux = "influx"
)

// Config is the complete advisor configuration.
type Config struct {
	Server   Server   `koanf:"server"`
	Data     Data     `koanf:"data"`
	Upstream Upstream `koanf:"upstream"`
	Influx   Influx   `koanf:"influx"`
	MQTT     MQTT     `koanf:"mqtt"`
	Log      Log      `koanf:"log"`
}

type Server struct {
	HTTPPort        int           `koanf:"http_port" validate:"min=1,max=65535"`
	GRPCPort        int           `koanf:"grpc_port" validate:"min=0,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// RateLimit is the number of calculate requests allowed per IP per minute; 0 disables limiting.
	RateLimit int `koanf:"rate_limit" validate:"min=0"`
}

// Table names one table's origin. Location is a directory for file sources
// and a base URL for http sources; influx sources use the Influx section.
type Table struct {
	Kind     string `koanf:"kind" validate:"oneof=file http influx"`
	Location string `koanf:"location"`
}

type Data struct {
	Constants Table `koanf:"constants"`
	Records   Table `koanf:"records"`
	// CacheTTL keeps fetched tables for this long; 0 refetches on every calculation.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"min=0"`
}

type Upstream struct {
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	Retries         uint64        `koanf:"retries"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerOpenFor  time.Duration `koanf:"breaker_open_for" validate:"gt=0"`
}

type Influx struct {
	URL         string        `koanf:"url"`
	Token       string        `koanf:"token"`
	Org         string        `koanf:"org"`
	Bucket      string        `koanf:"bucket"`
	Measurement string        `koanf:"measurement" validate:"required"`
	Lookback    time.Duration `koanf:"lookback" validate:"gt=0"`
}

type MQTT struct {
	Enabled      bool   `koanf:"enabled"`
	Host         string `koanf:"host"`
	Port         int    `koanf:"port" validate:"min=1,max=65535"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	ClientID     string `koanf:"client_id"`
	RequestTopic string `koanf:"request_topic" validate:"required"`
	// ResultTopic may contain {request_id}.
	ResultTopic string `koanf:"result_topic" validate:"required"`
	QoS         byte   `koanf:"qos" validate:"max=2"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Default returns the built-in settings: both tables read from ./data.
func Default() *Config {
	return &Config{
		Server: Server{
			HTTPPort:        8080,
			GRPCPort:        9090,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
		},
		Data: Data{
			Constants: Table{Kind: KindFile, Location: "data"},
			Records:   Table{Kind: KindFile, Location: "data"},
		},
		Upstream: Upstream{
			Timeout:         5 * time.Second,
			Retries:         2,
			BreakerFailures: 5,
			BreakerOpenFor:  30 * time.Second,
		},
		Influx: Influx{
			Measurement: "planting_record",
			Lookback:    5 * 365 * 24 * time.Hour,
		},
		MQTT: MQTT{
			Host:         "localhost",
			Port:         1883,
			ClientID:     "plantcare-advisor",
			RequestTopic: "advisor/request/+",
			ResultTopic:  "advisor/result/{request_id}",
			QoS:          1,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}
