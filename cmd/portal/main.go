package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"fxportal/internal/bootstrap"
	"fxportal/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.InitPortal(ctx)
	if err != nil {
		logx.L().Fatal("init portal", zap.Error(err))
	}
	defer cleanup()
	log := app.Log

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Sweeper.Start(ctx)
	}()
	if app.Relay != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Relay.Start(ctx)
		}()
	}

	server := &http.Server{
		Addr:    app.Config.Addr(),
		Handler: app.Handler,
	}
	go func() {
		log.Info("server started",
			zap.String("addr", server.Addr),
			zap.String("env", app.Config.Env),
			zap.String("fx_provider", app.Config.FXProvider),
			zap.String("slot_backend", app.Config.SlotBackend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	app.Sessions.Close()
	if app.Relay != nil {
		app.Relay.Close()
	}
	wg.Wait()
	log.Info("server stopped")
}
