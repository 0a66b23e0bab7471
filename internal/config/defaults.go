package config

import "time"

const (
	DefaultHTTPPort         = "8080"
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultFXAPITimeout     = 5 * time.Second
	DefaultSessionTTL       = 30 * time.Minute
	DefaultHistoryCacheTTL  = 30 * time.Second
	DefaultHistoryCacheCost = 1 << 20
	DefaultTickInterval     = time.Second
	DefaultRedisAddr        = "localhost:6379"
)

const (
	SlotBackendRedis  = "redis"
	SlotBackendMemory = "memory"

	EventsBackendKafka = "kafka"
	EventsBackendNone  = "none"

	FXProviderHTTP = "http"
	FXProviderFake = "fake"
)
