package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/metrics"
	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// maxTableBytes bounds a downloaded table.
const maxTableBytes = 32 << 20

// HTTPOptions tunes an HTTPSource.
type HTTPOptions struct {
	Timeout         time.Duration
	Retries         uint64
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
	// RetryInterval is the first backoff delay; defaults to 200ms.
	RetryInterval time.Duration
	Client        *http.Client
}

// HTTPSource GETs {base}/constants.json and {base}/data.json. Each table has
// its own circuit breaker; transient failures are retried with exponential
// backoff, 4xx responses and an open breaker are not.
type HTTPSource struct {
	base     string
	client   *http.Client
	opts     HTTPOptions
	breakers map[Table]*gobreaker.CircuitBreaker
	log      zerolog.Logger
}

func NewHTTPSource(base string, opts HTTPOptions) *HTTPSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerOpenFor <= 0 {
		opts.BreakerOpenFor = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 200 * time.Millisecond
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	s := &HTTPSource{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		client: client,
		opts:   opts,
		log:    logging.With("datasource"),
	}
	s.breakers = map[Table]*gobreaker.CircuitBreaker{
		TableConstants: s.newBreaker(TableConstants),
		TableRecords:   s.newBreaker(TableRecords),
	}
	return s
}

func (s *HTTPSource) newBreaker(table Table) *gobreaker.CircuitBreaker {
	fails := s.opts.BreakerFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "upstream-" + string(table),
		Timeout: s.opts.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= fails
		},
		// a 4xx is the caller's problem, not the upstream's
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || (errors.As(err, &se) && se.code < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(string(table)).Set(float64(to))
			s.log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("breaker state changed")
		},
	})
}

func (s *HTTPSource) Name() string { return "http" }

// BreakerState reports the breaker of table.
func (s *HTTPSource) BreakerState(table Table) gobreaker.State {
	return s.breakers[table].State()
}

func (s *HTTPSource) Constants(ctx context.Context) ([]entities.ConstantRecord, error) {
	raw, err := s.fetch(ctx, TableConstants, ConstantsFile)
	if err != nil {
		return nil, fetchErr(s.Name(), TableConstants, err)
	}
	out, err := decodeConstants(raw)
	if err != nil {
		return nil, fetchErr(s.Name(), TableConstants, err)
	}
	return out, nil
}

func (s *HTTPSource) Records(ctx context.Context) ([]entities.HistoricalRecord, error) {
	raw, err := s.fetch(ctx, TableRecords, RecordsFile)
	if err != nil {
		return nil, fetchErr(s.Name(), TableRecords, err)
	}
	out, err := decodeRecords(raw)
	if err != nil {
		return nil, fetchErr(s.Name(), TableRecords, err)
	}
	return out, nil
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: upstream status %d", e.url, e.code)
}

func (s *HTTPSource) fetch(ctx context.Context, table Table, file string) ([]byte, error) {
	url := s.base + "/" + file
	cb := s.breakers[table]

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.RetryInterval
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, s.opts.Retries), ctx)

	attempt := 0
	return backoff.RetryWithData(func() ([]byte, error) {
		attempt++
		res, err := cb.Execute(func() (any, error) {
			return s.get(ctx, url)
		})
		if err == nil {
			return res.([]byte), nil
		}
		var se *statusError
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
			(errors.As(err, &se) && se.code < 500) || ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		s.log.Debug().Err(err).Str("table", string(table)).Int("attempt", attempt).Msg("upstream fetch failed")
		return nil, err
	}, policy)
}

func (s *HTTPSource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &statusError{url: url, code: resp.StatusCode}
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTableBytes))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", url, err)
	}
	return raw, nil
}
