package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fxportal/internal/application"
	"fxportal/internal/domain"
	"fxportal/internal/infrastructure/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const quoteFormPath = "/quotes"

// Server exposes the quote and booking flows of each session over HTTP.
type Server struct {
	sessions *application.SessionManager
	history  *application.TradeHistory
	ping     func(ctx context.Context) error

	upgrader     websocket.Upgrader
	pingEvery    time.Duration
	writeTimeout time.Duration
}

func NewServer(sessions *application.SessionManager, history *application.TradeHistory) *Server {
	return &Server{
		sessions: sessions,
		history:  history,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingEvery:    30 * time.Second,
		writeTimeout: 10 * time.Second,
	}
}

// SetReadyCheck installs the check behind /readyz.
func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }

func (s *Server) ListPairs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.CommonPairs)
}

func (s *Server) RequestQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Malformed request body")
		return
	}
	req.CurrencyPair = domain.Pair(strings.ToUpper(strings.TrimSpace(string(req.CurrencyPair))))
	req.Side = domain.Side(strings.ToUpper(strings.TrimSpace(string(req.Side))))

	sess := s.sessions.Get(logx.SessionID(r.Context()))
	if _, err := sess.Acquisition().Request(r.Context(), req); err != nil {
		var af *application.AcquisitionFailedError
		if errors.As(err, &af) {
			writeError(w, upstreamStatus(af.Err), af.Message)
			return
		}
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Acquisition().Snapshot())
}

func (s *Server) GetCurrentQuote(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Lookup(logx.SessionID(r.Context()))
	if !ok {
		writeError(w, http.StatusNotFound, "No current quote")
		return
	}
	snap := sess.Acquisition().Snapshot()
	if snap.Quote == nil {
		writeError(w, http.StatusNotFound, "No current quote")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) ResetQuote(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(logx.SessionID(r.Context()))
	if err := sess.Acquisition().Reset(r.Context()); err != nil {
		s.internal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bookingError struct {
	Status   int                   `json:"status"`
	Message  string                `json:"message"`
	Redirect string                `json:"redirect,omitempty"`
	Booking  *application.Snapshot `json:"booking,omitempty"`
}

func (s *Server) BookQuote(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(logx.SessionID(r.Context()))
	snap, err := sess.Book(r.Context())
	s.writeBooking(w, r, snap, err, http.StatusCreated)
}

func (s *Server) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(logx.SessionID(r.Context()))
	snap, err := sess.Confirm(r.Context())
	s.writeBooking(w, r, snap, err, http.StatusOK)
}

func (s *Server) GetBooking(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Lookup(logx.SessionID(r.Context()))
	if !ok {
		writeJSON(w, http.StatusOK, application.Snapshot{State: application.StateIdle})
		return
	}
	writeJSON(w, http.StatusOK, sess.Coordinator().Snapshot())
}

func (s *Server) writeBooking(w http.ResponseWriter, r *http.Request, snap application.Snapshot, err error, booked int) {
	var bf *application.BookingFailedError
	switch {
	case errors.Is(err, application.ErrNoQuoteAvailable) || (err == nil && snap.State == application.StateIdle):
		writeJSON(w, http.StatusConflict, bookingError{
			Status:   http.StatusConflict,
			Message:  "No quote available",
			Redirect: quoteFormPath,
		})
	case errors.Is(err, application.ErrBookingInFlight) || (err == nil && snap.State == application.StateBooking):
		writeJSON(w, http.StatusAccepted, snap)
	case errors.As(err, &bf):
		status := upstreamStatus(bf.Err)
		writeJSON(w, status, bookingError{Status: status, Message: bf.Message, Booking: &snap})
	case err != nil:
		s.internal(w, r, err)
	default:
		writeJSON(w, booked, snap)
	}
}

func (s *Server) GetTradeHistory(w http.ResponseWriter, r *http.Request) {
	f, msg := parseTradeFilter(r)
	if msg != "" {
		badRequest(w, msg)
		return
	}
	page, err := s.history.Page(r.Context(), f)
	if err != nil {
		var hf *application.HistoryFailedError
		if errors.As(err, &hf) {
			writeError(w, upstreamStatus(hf.Err), hf.Message)
			return
		}
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func parseTradeFilter(r *http.Request) (domain.TradeFilter, string) {
	q := r.URL.Query()
	f := domain.TradeFilter{
		CurrencyPair: strings.TrimSpace(q.Get("currencyPair")),
		SortBy:       strings.TrimSpace(q.Get("sortBy")),
	}
	if v := strings.TrimSpace(q.Get("side")); v != "" {
		f.Side = domain.Side(strings.ToUpper(v))
		if !f.Side.Valid() {
			return f, invalidParam("side", v)
		}
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		f.Status = domain.TradeStatus(strings.ToUpper(v))
		if !f.Status.Valid() {
			return f, invalidParam("status", v)
		}
	}
	if v := strings.TrimSpace(q.Get("direction")); v != "" {
		f.Direction = domain.SortDirection(strings.ToUpper(v))
		if f.Direction != domain.SortAsc && f.Direction != domain.SortDesc {
			return f, invalidParam("direction", v)
		}
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"fromDate", &f.FromDate}, {"toDate", &f.ToDate}} {
		v := strings.TrimSpace(q.Get(p.name))
		if v == "" {
			continue
		}
		ts, err := domain.ParseTimestamp(v)
		if err != nil {
			return f, invalidParam(p.name, v)
		}
		t := ts.Time
		*p.dst = &t
	}
	var err error
	if f.Page, err = intParam(q.Get("page"), 0); err != nil || f.Page < 0 {
		return f, invalidParam("page", q.Get("page"))
	}
	if f.Size, err = intParam(q.Get("size"), domain.DefaultPageSize); err != nil || f.Size < 1 || f.Size > domain.MaxPageSize {
		return f, invalidParam("size", q.Get("size"))
	}
	return f, ""
}

func intParam(v string, def int) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func invalidParam(name, value string) string {
	return fmt.Sprintf("Invalid value '%s' for parameter '%s'", value, name)
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	logx.WithFields(r.Context()).Error("request_failed", zap.String("path", r.URL.Path), zap.Error(err))
	internalError(w)
}
