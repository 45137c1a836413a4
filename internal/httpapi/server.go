// Package httpapi exposes an event manager over HTTP.
//
// Routes:
//
//	POST /events   queue an event: {"code": 5 or "timer0", "param": 42, "priority": "high"}
//	GET  /status   table and queue occupancy plus counters
//	GET  /metrics  Prometheus exposition, when a gatherer is configured
//	GET  /healthz  liveness
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dshills/evmgr/internal/event"
)

// maxBodyBytes bounds POST /events bodies.
const maxBodyBytes = 4 << 10

// Manager is the event manager surface the API needs.
type Manager interface {
	QueueEvent(code, param int, pri event.Priority) bool
	NumListeners() int
	Capacity() int
	NumEventsInQueue(pri event.Priority) int
	EventQueueCapacity() int
	Stats() event.Stats
}

// Option configures the router.
type Option func(*options)

type options struct {
	logger         zerolog.Logger
	instance       string
	gatherer       prometheus.Gatherer
	registerer     prometheus.Registerer
	allowedOrigins []string
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInstance sets the instance id reported by /status.
func WithInstance(id string) Option {
	return func(o *options) { o.instance = id }
}

// WithMetrics serves g on /metrics and registers request metrics on r.
// Either may be nil.
func WithMetrics(g prometheus.Gatherer, r prometheus.Registerer) Option {
	return func(o *options) {
		o.gatherer = g
		o.registerer = r
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(o *options) { o.allowedOrigins = origins }
}

// EventRequest is the body of POST /events.
type EventRequest struct {
	Code     Code   `json:"code"`
	Param    int    `json:"param"`
	Priority string `json:"priority,omitempty"`
}

// EventResponse is the body of a successful POST /events.
type EventResponse struct {
	Queued   bool   `json:"queued"`
	Code     int    `json:"code"`
	Priority string `json:"priority"`
}

// Code is an event code that decodes from a number or a conventional name
// such as "timer0".
type Code int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Code) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		v, err := event.ParseCode(name)
		if err != nil {
			return err
		}
		*c = Code(v)
		return nil
	}

	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return errors.New("code must be an integer or event name")
	}
	*c = Code(v)
	return nil
}

// MarshalJSON implements json.Marshaler. Codes are always sent as numbers.
func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(c))
}

// QueueStatus describes one priority queue.
type QueueStatus struct {
	Depth    int `json:"depth"`
	Capacity int `json:"capacity"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Instance  string      `json:"instance,omitempty"`
	Listeners int         `json:"listeners"`
	Capacity  int         `json:"capacity"`
	High      QueueStatus `json:"high"`
	Low       QueueStatus `json:"low"`
	Stats     event.Stats `json:"stats"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// NewMux returns the API router for mgr.
func NewMux(mgr Manager, opts ...Option) (http.Handler, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if len(o.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: o.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	if o.registerer != nil {
		m, err := newHTTPMetrics(o.registerer)
		if err != nil {
			return nil, err
		}
		r.Use(m.middleware)
	}

	h := &handlers{mgr: mgr, opts: o}
	r.Post("/events", h.postEvent)
	r.Get("/status", h.status)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if o.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}

	return r, nil
}

type handlers struct {
	mgr  Manager
	opts options
}

func (h *handlers) postEvent(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	pri, err := event.ParsePriority(req.Priority)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	code := int(req.Code)
	if !h.mgr.QueueEvent(code, req.Param, pri) {
		h.opts.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("code", event.CodeName(code)).
			Str("priority", pri.String()).
			Msg("event rejected, queue full")
		writeJSONError(w, http.StatusServiceUnavailable, "event queue full")
		return
	}

	writeJSON(w, http.StatusAccepted, EventResponse{Queued: true, Code: code, Priority: pri.String()})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Instance:  h.opts.instance,
		Listeners: h.mgr.NumListeners(),
		Capacity:  h.mgr.Capacity(),
		High: QueueStatus{
			Depth:    h.mgr.NumEventsInQueue(event.PriorityHigh),
			Capacity: h.mgr.EventQueueCapacity(),
		},
		Low: QueueStatus{
			Depth:    h.mgr.NumEventsInQueue(event.PriorityLow),
			Capacity: h.mgr.EventQueueCapacity(),
		},
		Stats: h.mgr.Stats(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}

// Serve runs an HTTP server for handler on addr until ctx is done, then
// shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("http server stopped")
	return nil
}
