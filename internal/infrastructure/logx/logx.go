package logx

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	sessionIDKey
)

var logger = zap.Must(build("info"))

func build(level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Sampling = nil
	zapCfg.DisableStacktrace = true
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, err
		}
	}
	return zapCfg.Build(zap.AddCaller())
}

// Init rebuilds the package-level logger at the given level.
func Init(level string) (*zap.Logger, error) {
	l, err := build(level)
	if err != nil {
		return nil, err
	}
	logger = l
	return l, nil
}

// L returns the package-level logger instance.
func L() *zap.Logger {
	return logger
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// WithFields enriches logs with the request and session ids carried by ctx.
func WithFields(ctx context.Context) *zap.Logger {
	l := logger
	if id := RequestID(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if id := SessionID(ctx); id != "" {
		l = l.With(zap.String("session_id", id))
	}
	return l
}
