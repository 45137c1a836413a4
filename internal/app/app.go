// Package app wires an event manager to its producers, telemetry and HTTP
// surface, and runs the loop that drains the manager's queues.
package app

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/dshills/evmgr/internal/config"
	"github.com/dshills/evmgr/internal/event"
	"github.com/dshills/evmgr/internal/httpapi"
	"github.com/dshills/evmgr/internal/logging"
	"github.com/dshills/evmgr/internal/producer"
	"github.com/dshills/evmgr/internal/telemetry"
)

// Application owns one event manager and everything that feeds or observes
// it.
type Application struct {
	mu sync.Mutex

	id     string
	cfg    config.Config
	logger zerolog.Logger

	manager  *event.Manager
	registry *prometheus.Registry
	handler  http.Handler

	producers []namedProducer
	watcher   *producer.Watcher

	running atomic.Bool
}

type namedProducer struct {
	name string
	p    producer.Producer
}

// Options configures the application.
type Options struct {
	// Config is the resolved, validated configuration.
	Config config.Config

	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer
}

// New builds an application from opts. Nothing runs until Run is called.
func New(opts Options) (*Application, error) {
	cfg := opts.Config
	id := uuid.NewString()

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: logging.ParseFormat(cfg.Logging.Format),
		Output: opts.LogOutput,
	}).With().Str("instance", id).Logger()

	app := &Application{
		id:     id,
		cfg:    cfg,
		logger: logger,
	}

	var err error
	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		app.registry = prometheus.NewRegistry()
		app.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if metrics, err = telemetry.New(app.registry); err != nil {
			return nil, &InitError{Component: "telemetry", Err: err}
		}
	}

	managerOpts := []event.Option{
		event.WithDispatchTableSize(cfg.DispatchTableSize),
		event.WithEventQueueSize(cfg.EventQueueSize),
		event.WithLogger(logging.WithComponent(logger, "event")),
		event.WithPanicHandler(app.listenerPanicked),
	}
	if metrics != nil {
		managerOpts = append(managerOpts, event.WithObserver(metrics))
	}
	if app.manager, err = event.NewManager(managerOpts...); err != nil {
		return nil, &InitError{Component: "event manager", Err: err}
	}
	app.manager.SetDefaultListener(&unhandledLogger{logger: logging.WithComponent(logger, "unhandled")})

	if app.registry != nil {
		if err := telemetry.RegisterGauges(app.registry, app.manager); err != nil {
			return nil, &InitError{Component: "telemetry", Err: err}
		}
	}

	if err := app.initProducers(); err != nil {
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		return nil, err
	}
	return app, nil
}

// initProducers creates the producers enabled in the configuration.
func (app *Application) initProducers() error {
	pc := app.cfg.Producers

	if pc.Ticker.Enabled {
		code, pri, err := parseTarget(pc.Ticker.Code, pc.Ticker.Priority)
		if err != nil {
			return &InitError{Component: "ticker", Err: err}
		}
		t := producer.NewTicker(app.manager, pc.Ticker.Interval.Std(), code, pri,
			producer.WithLogger(logging.WithComponent(app.logger, "ticker")))
		app.producers = append(app.producers, namedProducer{name: "ticker", p: t})
	}

	if len(pc.Watch.Paths) > 0 {
		code, pri, err := parseTarget(pc.Watch.Code, pc.Watch.Priority)
		if err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
		w, err := producer.NewWatcher(app.manager, code, pri,
			producer.WithLogger(logging.WithComponent(app.logger, "watcher")))
		if err != nil {
			return &InitError{Component: "watcher", Err: err}
		}
		for _, path := range pc.Watch.Paths {
			if err := w.Watch(path); err != nil {
				_ = w.Close()
				return &InitError{Component: "watcher", Err: err}
			}
		}
		app.watcher = w
		app.producers = append(app.producers, namedProducer{name: "watcher", p: w})
	}
	return nil
}

// initHTTP builds the HTTP handler when an address is configured.
func (app *Application) initHTTP() error {
	if app.cfg.HTTP.Addr == "" {
		return nil
	}

	opts := []httpapi.Option{
		httpapi.WithLogger(logging.WithComponent(app.logger, "http")),
		httpapi.WithInstance(app.id),
		httpapi.WithAllowedOrigins(app.cfg.HTTP.AllowedOrigins),
	}
	if app.registry != nil {
		opts = append(opts, httpapi.WithMetrics(app.registry, app.registry))
	}

	h, err := httpapi.NewMux(app.manager, opts...)
	if err != nil {
		return &InitError{Component: "http", Err: err}
	}
	app.handler = h
	return nil
}

func parseTarget(codeName, priName string) (int, event.Priority, error) {
	code, err := event.ParseCode(codeName)
	if err != nil {
		return 0, event.PriorityLow, err
	}
	pri, err := event.ParsePriority(priName)
	if err != nil {
		return 0, event.PriorityLow, err
	}
	return code, pri, nil
}

// AddProducer registers a producer to be started by Run.
// Must be called before Run.
func (app *Application) AddProducer(name string, p producer.Producer) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.running.Load() {
		return ErrAlreadyRunning
	}
	app.producers = append(app.producers, namedProducer{name: name, p: p})
	return nil
}

// Run starts the producers and the HTTP server and drains the event queues
// until ctx is done or a producer stops on its own. Each wakeup retires at
// most loop.batch_size events before waiting again.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.mu.Lock()
	producers := append([]namedProducer(nil), app.producers...)
	app.mu.Unlock()

	var wg sync.WaitGroup
	exited := make(chan string, len(producers))
	for _, np := range producers {
		wg.Add(1)
		go func(np namedProducer) {
			defer wg.Done()
			if err := np.p.Run(ctx); err != nil {
				app.logger.Error().Err(err).Str("producer", np.name).Msg("producer failed")
			}
			exited <- np.name
		}(np)
	}

	httpErr := make(chan error, 1)
	if app.handler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := httpapi.Serve(ctx, app.cfg.HTTP.Addr, app.handler, logging.WithComponent(app.logger, "http")); err != nil {
				httpErr <- NewComponentError("http", "serve", err)
			}
		}()
	}

	app.logger.Info().
		Int("dispatch_table_size", app.manager.Capacity()).
		Int("event_queue_size", app.manager.EventQueueCapacity()).
		Int("producers", len(producers)).
		Msg("event loop started")

	err := app.loop(ctx, exited, httpErr)

	cancel()
	if app.watcher != nil {
		_ = app.watcher.Close()
	}
	wg.Wait()
	app.logProducerStats(producers)

	// Retire what the producers left behind; nothing is queued any more.
	events, invocations := app.manager.ProcessEvents(2 * app.manager.EventQueueCapacity())
	stats := app.manager.Stats()
	app.logger.Info().
		Int("final_events", events).
		Int("final_invocations", invocations).
		Uint64("retired", stats.Retired).
		Uint64("dropped", stats.DroppedHigh+stats.DroppedLow).
		Uint64("panics", stats.Panics).
		Msg("event loop stopped")

	return err
}

// logProducerStats logs each producer's counters once it has stopped.
func (app *Application) logProducerStats(producers []namedProducer) {
	for _, np := range producers {
		st := np.p.Stats()
		ev := app.logger.Info().
			Str("producer", np.name).
			Uint64("posted", st.Posted).
			Uint64("dropped", st.Dropped)
		if w, ok := np.p.(*producer.Watcher); ok {
			ev = ev.Uint64("watch_errors", w.Errors())
		}
		ev.Msg("producer stats")
	}
}

// loop waits for a wakeup and drains one batch per wakeup.
func (app *Application) loop(ctx context.Context, exited <-chan string, httpErr <-chan error) error {
	batch := app.cfg.Loop.BatchSize
	if batch <= 0 {
		batch = 1
	}
	interval := app.cfg.Loop.IdleInterval.Std()
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	idle := time.NewTicker(interval)
	defer idle.Stop()

	// ready is always receivable; it replaces the wake channel while a full
	// batch suggests more events are waiting.
	ready := make(chan struct{})
	close(ready)

	more := false
	for {
		wake := app.manager.Pending()
		if more {
			wake = ready
		}

		select {
		case <-ctx.Done():
			return nil

		case name := <-exited:
			app.logger.Info().Str("producer", name).Msg("producer stopped, shutting down")
			return nil

		case err := <-httpErr:
			return err

		case <-wake:
		case <-idle.C:
		}

		events, invocations := app.manager.ProcessEvents(batch)
		more = events == batch
		if events > 0 {
			app.logger.Trace().Int("events", events).Int("invocations", invocations).Msg("batch processed")
		}
	}
}

// listenerPanicked logs the stack of a recovered listener panic.
func (app *Application) listenerPanicked(code, param int, value any, stack []byte) {
	app.logger.Error().
		Str("code", event.CodeName(code)).
		Int("param", param).
		Interface("panic", value).
		Bytes("stack", stack).
		Msg("listener panic recovered")
}

// ID returns the application's instance id.
func (app *Application) ID() string {
	return app.id
}

// Manager returns the event manager.
func (app *Application) Manager() *event.Manager {
	return app.manager
}

// Logger returns the application logger.
func (app *Application) Logger() zerolog.Logger {
	return app.logger
}

// Handler returns the HTTP handler, or nil if HTTP is disabled.
func (app *Application) Handler() http.Handler {
	return app.handler
}

// Registry returns the metrics registry, or nil if metrics are disabled.
func (app *Application) Registry() *prometheus.Registry {
	return app.registry
}

// IsRunning returns true if Run is executing.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// unhandledLogger is the default listener: it logs events nobody handled.
type unhandledLogger struct {
	logger zerolog.Logger
}

func (u *unhandledLogger) HandleEvent(code, param int) {
	u.logger.Debug().Str("code", event.CodeName(code)).Int("param", param).Msg("unhandled event")
}
