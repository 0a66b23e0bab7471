package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fxportal/internal/bootstrap"
	"fxportal/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

// The worker consumes booking events and writes them to the audit log.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer, err := bootstrap.InitAuditConsumer()
	if err != nil {
		logx.L().Fatal("init audit consumer", zap.Error(err))
	}
	log := logx.L()
	log.Info("booking audit started")
	if err := consumer.Run(ctx); err != nil {
		log.Fatal("booking audit stopped", zap.Error(err))
	}
	log.Info("booking audit stopped")
}
