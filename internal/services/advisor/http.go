package advisor

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/LeonardoBeccarini/plantcare/internal/logging"
	"github.com/LeonardoBeccarini/plantcare/internal/metrics"
)

const (
	transportHTTP = "http"

	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 64 << 10
	readyTimeout    = 5 * time.Second
)

type HTTPOptions struct {
	RequestTimeout time.Duration
	// RateLimit is calculate requests per IP per minute; 0 disables it.
	RateLimit int
}

type httpHandler struct {
	svc *Service
	log zerolog.Logger
}

// NewHTTPHandler routes:
//
//	GET  /healthz
//	GET  /readyz
//	GET  /metrics
//	GET  /api/v1/options
//	POST /api/v1/calculate
func NewHTTPHandler(svc *Service, opts HTTPOptions) http.Handler {
	h := &httpHandler{svc: svc, log: logging.With("http")}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(h.recoverer)
	r.Use(instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/readyz", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(opts.RequestTimeout))
		r.Get("/options", h.options)

		calc := r.With()
		if opts.RateLimit > 0 {
			calc = r.With(httprate.Limit(opts.RateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				}),
			))
		}
		calc.Post("/calculate", h.calculate)
	})
	return r
}

func (h *httpHandler) calculate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var in Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		metrics.RecordCalculation(transportHTTP, metrics.OutcomeInvalid, time.Since(start))
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "malformed request body: "+err.Error(), nil)
		return
	}

	rep, err := h.svc.Calculate(ctx, in)
	h.svc.observe(ctx, transportHTTP, in, start, rep, err)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *httpHandler) options(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.Options(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (h *httpHandler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := h.svc.Ready(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, CodeDataUnavailable, err.Error(), nil)
		return
	}
	_, _ = w.Write([]byte("ready"))
}

func (h *httpHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := ErrorCode(err)
	status := httpStatus(code)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		l := logging.Ctx(r.Context(), h.log)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		if code == CodeInternal {
			msg = "internal error"
		}
	}
	writeError(w, status, code, msg, ErrorDetails(err))
}

func httpStatus(code string) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnknownSelection:
		return http.StatusUnprocessableEntity
	case CodeDataUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, errorBody{Error: apiError{Code: code, Message: message, Details: details}})
}

var encodeFailedBody = []byte(`{"error":{"code":"` + CodeInternal + `","message":"internal error"}}`)

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l := logging.With("http")
		l.Error().Err(err).Msg("encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailedBody)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// requestID takes X-Request-ID from the client or generates one, stores it in
// the context and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = logging.NewRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

func (h *httpHandler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				l := logging.Ctx(r.Context(), h.log)
				l.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("handler panic")
				writeError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// instrument counts requests by their route pattern, not the raw path.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}
