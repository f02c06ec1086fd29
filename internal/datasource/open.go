package datasource

import (
	"fmt"

	"github.com/LeonardoBeccarini/plantcare/internal/config"
)

// Open builds the source described by cfg. The returned func releases any
// client connections and must be called once the source is no longer used.
func Open(cfg *config.Config) (Source, func(), error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	build := func(t config.Table) (Source, error) {
		switch t.Kind {
		case config.KindFile:
			return NewFileSource(t.Location), nil
		case config.KindHTTP:
			return NewHTTPSource(t.Location, HTTPOptions{
				Timeout:         cfg.Upstream.Timeout,
				Retries:         cfg.Upstream.Retries,
				BreakerFailures: cfg.Upstream.BreakerFailures,
				BreakerOpenFor:  cfg.Upstream.BreakerOpenFor,
			}), nil
		case config.KindInflux:
			s := NewInfluxSource(InfluxConfig{
				URL:         cfg.Influx.URL,
				Token:       cfg.Influx.Token,
				Org:         cfg.Influx.Org,
				Bucket:      cfg.Influx.Bucket,
				Measurement: cfg.Influx.Measurement,
				Lookback:    cfg.Influx.Lookback,
			})
			closers = append(closers, s.Close)
			return s, nil
		default:
			return nil, fmt.Errorf("unknown source kind %q", t.Kind)
		}
	}

	consts, err := build(cfg.Data.Constants)
	if err != nil {
		return nil, func() {}, fmt.Errorf("constants source: %w", err)
	}
	var src Source = Instrumented{Source: consts}
	if cfg.Data.Records != cfg.Data.Constants {
		records, err := build(cfg.Data.Records)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("records source: %w", err)
		}
		src = Split{ConstantsFrom: src, RecordsFrom: Instrumented{Source: records}}
	}

	if cfg.Data.CacheTTL > 0 {
		src = NewCached(src, cfg.Data.CacheTTL)
	}
	return src, closeAll, nil
}
