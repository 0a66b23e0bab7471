package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"fxportal/internal/application"
	"fxportal/internal/config"
	"fxportal/internal/domain"
	"fxportal/internal/infrastructure/cache"
	"fxportal/internal/infrastructure/events"
	"fxportal/internal/infrastructure/fxapi"
	httpserver "fxportal/internal/infrastructure/http"
	"fxportal/internal/infrastructure/httpx"
	"fxportal/internal/infrastructure/logx"
	"fxportal/internal/infrastructure/memkv"
	redisstore "fxportal/internal/infrastructure/redis"
	"fxportal/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FXService is everything the portal needs from the FX quote and trade
// service.
type FXService interface {
	application.QuoteRequester
	application.TradeBooker
	application.TradeHistoryFetcher
}

// Slots is the pending-quote backend together with its readiness check.
type Slots struct {
	Provider application.SlotProvider
	Ping     func(ctx context.Context) error
}

// App is the assembled portal process.
type App struct {
	Config   config.Config
	Log      *zap.Logger
	Handler  http.Handler
	Sessions *application.SessionManager
	Sweeper  *worker.Sweeper
	// Relay is nil unless an event backend is configured.
	Relay *worker.EventRelay
}

func ProvideConfig() (config.Config, error) { return config.Load() }

func ProvideLogger(cfg config.Config) (*zap.Logger, error) {
	return logx.Init(cfg.LogLevel)
}

func ProvideRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func ProvideSlots(ctx context.Context, cfg config.Config, log *zap.Logger) (Slots, func(), error) {
	switch cfg.SlotBackend {
	case config.SlotBackendRedis:
		store := redisstore.New(ProvideRedisClient(cfg), cfg.SessionTTL)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return Slots{}, func() {}, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		cleanup := func() {
			log.Info("closing redis")
			_ = store.Close()
		}
		return Slots{Provider: store, Ping: store.Ping}, cleanup, nil
	default:
		store := memkv.New()
		return Slots{Provider: store, Ping: store.Ping}, func() {}, nil
	}
}

func ProvideFXService(cfg config.Config, log *zap.Logger) (FXService, error) {
	switch cfg.FXProvider {
	case config.FXProviderFake:
		rate, err := decimal.NewFromString(cfg.FakeRate)
		if err != nil || !rate.IsPositive() {
			return nil, fmt.Errorf("FX_FAKE_RATE: invalid rate %q", cfg.FakeRate)
		}
		log.Warn("using in-process fake fx service", zap.String("rate", rate.String()))
		return fxapi.NewFake(rate), nil
	default:
		return fxapi.New(cfg.FXAPIBaseURL, &httpx.Client{
			HTTP: &http.Client{Timeout: cfg.FXAPITimeout},
			Log:  log,
		})
	}
}

func ProvidePageCache(cfg config.Config) (application.PageCache, func(), error) {
	if cfg.HistoryCacheTTL <= 0 {
		return nil, func() {}, nil
	}
	pages, err := cache.New(cfg.HistoryCacheMaxCost, cfg.HistoryCacheTTL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("history cache: %w", err)
	}
	return pages, pages.Close, nil
}

func ProvideTradeHistory(fx FXService, pages application.PageCache, log *zap.Logger) *application.TradeHistory {
	return application.NewTradeHistory(fx, pages, log)
}

func ProvideEventRelay(cfg config.Config, log *zap.Logger) (*worker.EventRelay, func(), error) {
	if cfg.EventsBackend != config.EventsBackendKafka {
		return nil, func() {}, nil
	}
	pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	relay := worker.NewEventRelay(pub, cfg.RelayBuffer, log)
	cleanup := func() {
		relay.Close()
		if err := pub.Close(); err != nil {
			log.Warn("closing kafka writer", zap.Error(err))
		}
	}
	return relay, cleanup, nil
}

// ProvidePublisher fans booking events out to the history cache and, when
// configured, the event relay.
func ProvidePublisher(history *application.TradeHistory, relay *worker.EventRelay) application.EventPublisher {
	pubs := application.Publishers{history}
	if relay != nil {
		pubs = append(pubs, relay)
	}
	return pubs
}

func ProvideSessionManager(cfg config.Config, fx FXService, slots Slots, pub application.EventPublisher, log *zap.Logger) (*application.SessionManager, func()) {
	m := application.NewSessionManager(fx, fx, slots.Provider,
		application.WithSessionTTL(cfg.SessionTTL),
		application.WithSessionPublisher(pub),
		application.WithSessionLogger(log),
		application.WithSessionClockOptions(application.WithTickInterval(cfg.TickInterval)),
	)
	return m, m.Close
}

func ProvideServer(sessions *application.SessionManager, history *application.TradeHistory, slots Slots) *httpserver.Server {
	s := httpserver.NewServer(sessions, history)
	s.SetReadyCheck(slots.Ping)
	return s
}

func ProvideHandler(s *httpserver.Server) http.Handler { return httpserver.NewRouter(s) }

func ProvideSweeper(cfg config.Config, sessions *application.SessionManager, log *zap.Logger) *worker.Sweeper {
	return &worker.Sweeper{Sessions: sessions, Every: cfg.SweepEvery, Log: log}
}

func ProvideApp(cfg config.Config, log *zap.Logger, h http.Handler, sessions *application.SessionManager, sw *worker.Sweeper, relay *worker.EventRelay) *App {
	return &App{Config: cfg, Log: log, Handler: h, Sessions: sessions, Sweeper: sw, Relay: relay}
}

// ProvideAuditConsumer logs every booking event read from the topic.
func ProvideAuditConsumer(cfg config.Config, log *zap.Logger) (*events.Consumer, error) {
	if cfg.EventsBackend != config.EventsBackendKafka {
		return nil, fmt.Errorf("EVENTS_BACKEND=%s: the audit consumer needs kafka", cfg.EventsBackend)
	}
	audit := log.With(zap.String("worker", "booking_audit"))
	handle := func(_ context.Context, ev domain.BookingEvent) error {
		audit.Info("booking_event",
			zap.String("type", string(ev.Type)),
			zap.String("quote_id", ev.QuoteID),
			zap.String("trade_id", ev.TradeID),
			zap.String("pair", string(ev.CurrencyPair)),
			zap.String("message", ev.Message),
			zap.Bool("expired_locally", ev.ExpiredLocally),
			zap.Time("occurred_at", ev.OccurredAt),
		)
		return nil
	}
	return events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, handle, log), nil
}
