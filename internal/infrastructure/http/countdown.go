package httpserver

import (
	"net/http"
	"time"

	"fxportal/internal/application"
	"fxportal/internal/infrastructure/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StreamCountdown pushes {remainingSeconds, expired} over a websocket on
// every tick of the session's expiry clock, and closes the stream once the
// quote has expired.
func (s *Server) StreamCountdown(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Lookup(logx.SessionID(r.Context()))
	if !ok || sess.Acquisition().Snapshot().Quote == nil {
		writeError(w, http.StatusNotFound, "No current quote")
		return
	}
	log := logx.WithFields(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("countdown.upgrade_failed", zap.Error(err))
		return
	}
	defer conn.Close()

	clock := sess.Acquisition().Clock()
	changed := make(chan struct{}, 1)
	remove := clock.AddListener(func(application.Tick) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer remove()

	// the read loop only detects the peer going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("countdown.read_failed", zap.Error(err))
				}
				return
			}
		}
	}()

	ping := time.NewTicker(s.pingEvery)
	defer ping.Stop()

	send := func() (bool, error) {
		tick := application.Tick{Remaining: clock.Remaining(), Expired: clock.Expired()}
		_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteJSON(tick); err != nil {
			return false, err
		}
		return tick.Expired, nil
	}

	done, err := send()
	for err == nil && !done {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case <-changed:
			done, err = send()
		case <-ping.C:
			if sess.Acquisition().Snapshot().Quote == nil {
				done = true
				break
			}
			err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout))
		}
	}
	if err != nil {
		log.Debug("countdown.write_failed", zap.Error(err))
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "countdown finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
	log.Debug("countdown.closed")
}
