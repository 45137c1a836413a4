package config

import (
	"errors"
	"time"

	"github.com/dshills/evmgr/internal/event"
	"github.com/dshills/evmgr/internal/logging"
)

// Config is the complete evmgr configuration.
type Config struct {
	// DispatchTableSize is the number of listener slots (1..255).
	DispatchTableSize int `toml:"dispatch_table_size" yaml:"dispatch_table_size" json:"dispatch_table_size" env:"DISPATCH_TABLE_SIZE"`

	// EventQueueSize is the number of slots in each priority queue (1..255).
	EventQueueSize int `toml:"event_queue_size" yaml:"event_queue_size" json:"event_queue_size" env:"EVENT_QUEUE_SIZE"`

	Logging   LoggingConfig   `toml:"logging" yaml:"logging" json:"logging" envPrefix:"LOG_"`
	HTTP      HTTPConfig      `toml:"http" yaml:"http" json:"http" envPrefix:"HTTP_"`
	Metrics   MetricsConfig   `toml:"metrics" yaml:"metrics" json:"metrics" envPrefix:"METRICS_"`
	Loop      LoopConfig      `toml:"loop" yaml:"loop" json:"loop" envPrefix:"LOOP_"`
	Producers ProducersConfig `toml:"producers" yaml:"producers" json:"producers" envPrefix:"PRODUCERS_"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level" env:"LEVEL"`
	Format string `toml:"format" yaml:"format" json:"format" env:"FORMAT"`
}

// HTTPConfig configures the HTTP producer and status surface.
// An empty Addr disables the server.
type HTTPConfig struct {
	Addr string `toml:"addr" yaml:"addr" json:"addr" env:"ADDR"`

	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// MetricsConfig configures Prometheus metrics, served on the HTTP server.
type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled" json:"enabled" env:"ENABLED"`
}

// LoopConfig configures the driving loop.
type LoopConfig struct {
	// BatchSize bounds the number of events retired per wakeup.
	BatchSize int `toml:"batch_size" yaml:"batch_size" json:"batch_size" env:"BATCH_SIZE"`

	// IdleInterval is how often the loop polls when no wakeup arrives.
	IdleInterval Duration `toml:"idle_interval" yaml:"idle_interval" json:"idle_interval" env:"IDLE_INTERVAL"`
}

// ProducersConfig configures the built-in event producers.
type ProducersConfig struct {
	Ticker TickerConfig `toml:"ticker" yaml:"ticker" json:"ticker" envPrefix:"TICKER_"`
	Watch  WatchConfig  `toml:"watch" yaml:"watch" json:"watch" envPrefix:"WATCH_"`
}

// TickerConfig configures the periodic timer producer.
type TickerConfig struct {
	Enabled  bool     `toml:"enabled" yaml:"enabled" json:"enabled" env:"ENABLED"`
	Interval Duration `toml:"interval" yaml:"interval" json:"interval" env:"INTERVAL"`
	Code     string   `toml:"code" yaml:"code" json:"code" env:"CODE"`
	Priority string   `toml:"priority" yaml:"priority" json:"priority" env:"PRIORITY"`
}

// WatchConfig configures the file system watcher producer.
// The watcher is enabled when Paths is non-empty.
type WatchConfig struct {
	Paths    []string `toml:"paths" yaml:"paths" json:"paths" env:"PATHS" envSeparator:","`
	Code     string   `toml:"code" yaml:"code" json:"code" env:"CODE"`
	Priority string   `toml:"priority" yaml:"priority" json:"priority" env:"PRIORITY"`
}

// Duration is a time.Duration that decodes from strings like "250ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DispatchTableSize: event.DefaultDispatchTableSize,
		EventQueueSize:    event.DefaultEventQueueSize,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Loop: LoopConfig{
			BatchSize:    event.DefaultEventQueueSize * 2,
			IdleInterval: Duration(100 * time.Millisecond),
		},
		Producers: ProducersConfig{
			Ticker: TickerConfig{
				Interval: Duration(time.Second),
				Code:     event.CodeName(event.EventTimer0),
				Priority: "low",
			},
			Watch: WatchConfig{
				Code:     event.CodeName(event.EventUser0),
				Priority: "low",
			},
		},
	}
}

// Validate checks the configuration. It returns every problem found, joined;
// each is a *ValidationError.
func (c Config) Validate() error {
	var errs []error
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	if c.DispatchTableSize < 1 || c.DispatchTableSize > event.MaxCapacity {
		add("dispatch_table_size", "must be between 1 and 255", c.DispatchTableSize, ErrCodeOutOfRange)
	}
	if c.EventQueueSize < 1 || c.EventQueueSize > event.MaxCapacity {
		add("event_queue_size", "must be between 1 and 255", c.EventQueueSize, ErrCodeOutOfRange)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		add("logging.level", "must be trace, debug, info, warn, error or off", c.Logging.Level, ErrCodeInvalidEnum)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		add("logging.format", "must be json or console", c.Logging.Format, ErrCodeInvalidEnum)
	}

	if c.Metrics.Enabled && c.HTTP.Addr == "" {
		add("http.addr", "required when metrics are enabled", c.HTTP.Addr, ErrCodeRequiredMissing)
	}

	if c.Loop.BatchSize < 1 {
		add("loop.batch_size", "must be positive", c.Loop.BatchSize, ErrCodeOutOfRange)
	}
	if c.Loop.IdleInterval <= 0 {
		add("loop.idle_interval", "must be positive", c.Loop.IdleInterval.Std(), ErrCodeOutOfRange)
	}

	if c.Producers.Ticker.Enabled {
		if c.Producers.Ticker.Interval <= 0 {
			add("producers.ticker.interval", "must be positive", c.Producers.Ticker.Interval.Std(), ErrCodeOutOfRange)
		}
		if _, err := event.ParseCode(c.Producers.Ticker.Code); err != nil {
			add("producers.ticker.code", "unknown event code", c.Producers.Ticker.Code, ErrCodeInvalidEnum)
		}
		if _, err := event.ParsePriority(c.Producers.Ticker.Priority); err != nil {
			add("producers.ticker.priority", "must be high or low", c.Producers.Ticker.Priority, ErrCodeInvalidEnum)
		}
	}

	if len(c.Producers.Watch.Paths) > 0 {
		if _, err := event.ParseCode(c.Producers.Watch.Code); err != nil {
			add("producers.watch.code", "unknown event code", c.Producers.Watch.Code, ErrCodeInvalidEnum)
		}
		if _, err := event.ParsePriority(c.Producers.Watch.Priority); err != nil {
			add("producers.watch.priority", "must be high or low", c.Producers.Watch.Priority, ErrCodeInvalidEnum)
		}
	}

	return errors.Join(errs...)
}
