package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	// Common
	Env      string `env:"ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// API
	Port            string        `env:"PORT"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	// FX service
	FXAPIBaseURL string        `env:"FX_API_BASE_URL" envDefault:"http://localhost:8081/api"`
	FXAPITimeout time.Duration `env:"FX_API_TIMEOUT"`
	FXProvider   string        `env:"FX_PROVIDER" envDefault:"http"`
	FakeRate     string        `env:"FX_FAKE_RATE" envDefault:"1.0851"`
	// Sessions
	SlotBackend  string        `env:"SLOT_BACKEND" envDefault:"memory"`
	SessionTTL   time.Duration `env:"SESSION_TTL"`
	TickInterval time.Duration `env:"TICK_INTERVAL"`
	SweepEvery   time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
	// Redis (pending quote slots)
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	// Trade history cache
	HistoryCacheTTL     time.Duration `env:"HISTORY_CACHE_TTL"`
	HistoryCacheMaxCost int64         `env:"HISTORY_CACHE_MAX_COST"`
	// Booking events
	EventsBackend string   `env:"EVENTS_BACKEND" envDefault:"none"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic    string   `env:"KAFKA_TOPIC" envDefault:"fx.bookings"`
	KafkaGroupID  string   `env:"KAFKA_GROUP_ID" envDefault:"fx-booking-audit"`
	RelayBuffer   int      `env:"EVENT_RELAY_BUFFER" envDefault:"256"`
}

// Defaults returns the configuration used when no variables are set.
func Defaults() Config {
	return Config{
		Port:                DefaultHTTPPort,
		ShutdownTimeout:     DefaultShutdownTimeout,
		FXAPITimeout:        DefaultFXAPITimeout,
		SessionTTL:          DefaultSessionTTL,
		TickInterval:        DefaultTickInterval,
		RedisAddr:           DefaultRedisAddr,
		HistoryCacheTTL:     DefaultHistoryCacheTTL,
		HistoryCacheMaxCost: DefaultHistoryCacheCost,
	}
}

// Load reads environment variables over Defaults. A variable that is set,
// even to a zero value, wins over the default.
func Load() (Config, error) {
	cfg := Defaults()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.SlotBackend = strings.ToLower(strings.TrimSpace(cfg.SlotBackend))
	cfg.EventsBackend = strings.ToLower(strings.TrimSpace(cfg.EventsBackend))
	cfg.FXProvider = strings.ToLower(strings.TrimSpace(cfg.FXProvider))
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.SlotBackend {
	case SlotBackendRedis, SlotBackendMemory:
	default:
		return fmt.Errorf("SLOT_BACKEND: unknown backend %q", c.SlotBackend)
	}
	switch c.EventsBackend {
	case EventsBackendKafka, EventsBackendNone:
	default:
		return fmt.Errorf("EVENTS_BACKEND: unknown backend %q", c.EventsBackend)
	}
	switch c.FXProvider {
	case FXProviderHTTP, FXProviderFake:
	default:
		return fmt.Errorf("FX_PROVIDER: unknown provider %q", c.FXProvider)
	}
	if c.EventsBackend == EventsBackendKafka && (len(c.KafkaBrokers) == 0 || c.KafkaTopic == "") {
		return fmt.Errorf("EVENTS_BACKEND=kafka requires KAFKA_BROKERS and KAFKA_TOPIC")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive")
	}
	return nil
}

// Addr is the listen address of the portal API.
func (c Config) Addr() string {
	if c.Port == "" {
		return ":" + DefaultHTTPPort
	}
	return ":" + c.Port
}
