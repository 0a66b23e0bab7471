package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionSweeper is the part of the session manager the sweeper drives.
type SessionSweeper interface {
	Sweep() int
}

// Sweeper drops idle sessions on a fixed interval until ctx is done.
type Sweeper struct {
	Sessions SessionSweeper
	Every    time.Duration
	Log      *zap.Logger
}

func (w *Sweeper) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.Every <= 0 {
		w.Every = time.Minute
	}

	t := time.NewTicker(w.Every)
	defer t.Stop()

	log.Info("session_sweeper.started", zap.Duration("every", w.Every))
	for {
		select {
		case <-ctx.Done():
			log.Info("session_sweeper.stopped")
			return
		case <-t.C:
			if n := w.Sessions.Sweep(); n > 0 {
				log.Debug("session_sweeper.swept", zap.Int("sessions", n))
			}
		}
	}
}
