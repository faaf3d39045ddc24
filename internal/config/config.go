package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	EnvTickSize  = "ORDERBOOK_TICK_SIZE"
	EnvDepth     = "ORDERBOOK_DEPTH"
	EnvQueueSize = "ORDERBOOK_QUEUE_SIZE"
	EnvLogLevel  = "ORDERBOOK_LOG_LEVEL"
	EnvLogFormat = "ORDERBOOK_LOG_FORMAT"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Book struct {
	// TickSize is the minimum price increment. Prices entering the book
	// are converted to whole ticks of this size.
	TickSize decimal.Decimal
	// Depth is the number of levels per side shown by default.
	Depth int
}

type Engine struct {
	// QueueSize bounds the number of requests waiting for the engine.
	QueueSize int
}

type Log struct {
	Level  zerolog.Level
	Format string // console | json
}

type Config struct {
	Book   Book
	Engine Engine
	Log    Log
}

func Default() Config {
	return Config{
		Book: Book{
			TickSize: decimal.New(1, -2),
			Depth:    10,
		},
		Engine: Engine{
			QueueSize: 1024,
		},
		Log: Log{
			Level:  zerolog.InfoLevel,
			Format: FormatConsole,
		},
	}
}

// Load reads configuration from a .env file and environment variables. With an
// empty envPath the .env in the working directory is read if it exists;
// otherwise envPath must name a readable file.
// Priority: ENV > .env file > defaults
func Load(envPath string) (Config, error) {
	cfg := Default()

	// A missing default .env file is not an error, an explicit one is.
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return cfg, fmt.Errorf("load %s: %w", envPath, err)
		}
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv(EnvTickSize); v != "" {
		tick, err := decimal.NewFromString(v)
		if err != nil || !tick.IsPositive() {
			return cfg, fmt.Errorf("%s: invalid tick size %q", EnvTickSize, v)
		}
		cfg.Book.TickSize = tick
	}

	if v := os.Getenv(EnvDepth); v != "" {
		n, err := positiveInt(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvDepth, err)
		}
		cfg.Book.Depth = n
	}

	if v := os.Getenv(EnvQueueSize); v != "" {
		n, err := positiveInt(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvQueueSize, err)
		}
		cfg.Engine.QueueSize = n
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(v))
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
		cfg.Log.Level = level
	}

	if v := os.Getenv(EnvLogFormat); v != "" {
		switch f := strings.ToLower(v); f {
		case FormatConsole, FormatJSON:
			cfg.Log.Format = f
		default:
			return cfg, fmt.Errorf("%s: unknown format %q", EnvLogFormat, v)
		}
	}

	return cfg, nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
