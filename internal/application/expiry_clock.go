package application

import (
	"sync"
	"time"

	"fxportal/internal/domain"

	"go.uber.org/zap"
)

const DefaultTickInterval = time.Second

// Clock is the source of "now". time.Now carries a monotonic reading, so
// durations between two of its values ignore wall-clock adjustments.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func newStdTicker(d time.Duration) Ticker { return stdTicker{t: time.NewTicker(d)} }

// Tick is what listeners observe on every countdown step.
type Tick struct {
	Remaining int  `json:"remainingSeconds"`
	Expired   bool `json:"expired"`
}

// TickListener must not call Start or Stop on the clock that invokes it.
type TickListener func(Tick)

// ExpiryClock counts down a quote's lifespan against a local monotonic
// anchor taken when the quote is accepted. Server timestamps are only used
// to derive the lifespan; they are never compared with the local clock.
type ExpiryClock struct {
	clock     Clock
	newTicker TickerFactory
	every     time.Duration
	log       *zap.Logger

	// fire is held while listeners run so that Stop waits for an in-flight
	// tick and nothing is emitted once Stop returns.
	fire sync.Mutex

	mu        sync.Mutex
	gen       uint64
	running   bool
	ticker    Ticker
	done      chan struct{}
	anchor    time.Time
	lifespan  int
	remaining int
	expired   bool
	listeners map[uint64]TickListener
	nextID    uint64
}

type ClockOption func(*ExpiryClock)

func WithTimeSource(c Clock) ClockOption          { return func(e *ExpiryClock) { e.clock = c } }
func WithTickerFactory(f TickerFactory) ClockOption { return func(e *ExpiryClock) { e.newTicker = f } }
func WithTickInterval(d time.Duration) ClockOption  { return func(e *ExpiryClock) { e.every = d } }
func WithClockLogger(l *zap.Logger) ClockOption     { return func(e *ExpiryClock) { e.log = l } }

func NewExpiryClock(opts ...ClockOption) *ExpiryClock {
	e := &ExpiryClock{listeners: map[uint64]TickListener{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = realClock{}
	}
	if e.newTicker == nil {
		e.newTicker = newStdTicker
	}
	if e.every <= 0 {
		e.every = DefaultTickInterval
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// AddListener registers l for every tick of every run. The returned func
// removes it.
func (e *ExpiryClock) AddListener(l TickListener) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners[id] = l
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Start cancels any previous countdown and begins a new one for q.
func (e *ExpiryClock) Start(q domain.Quote) {
	e.fire.Lock()
	defer e.fire.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()
	e.gen++
	gen := e.gen
	e.anchor = e.clock.Now()
	e.lifespan = int(q.Lifespan() / time.Second)
	e.remaining = e.lifespan
	e.expired = false
	e.running = true
	e.ticker = e.newTicker(e.every)
	e.done = make(chan struct{})

	e.log.Debug("expiry_clock.started",
		zap.String("quote_id", q.QuoteID),
		zap.Int("lifespan_seconds", e.lifespan),
	)
	go e.loop(gen, e.ticker, e.done)
}

// Stop cancels ticking. It is safe before Start and when already stopped.
func (e *ExpiryClock) Stop() {
	e.fire.Lock()
	defer e.fire.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *ExpiryClock) stopLocked() {
	if !e.running {
		return
	}
	e.running = false
	e.gen++
	e.ticker.Stop()
	close(e.done)
	e.ticker, e.done = nil, nil
}

func (e *ExpiryClock) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

func (e *ExpiryClock) Expired() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expired
}

func (e *ExpiryClock) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *ExpiryClock) loop(gen uint64, t Ticker, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-t.C():
			if !e.tick(gen) {
				return
			}
		}
	}
}

// tick advances the countdown of run gen and reports whether the run is
// still live afterwards.
func (e *ExpiryClock) tick(gen uint64) bool {
	e.fire.Lock()
	defer e.fire.Unlock()

	e.mu.Lock()
	if gen != e.gen || !e.running {
		e.mu.Unlock()
		return false
	}
	elapsed := int(e.clock.Now().Sub(e.anchor) / time.Second)
	rem := e.lifespan - elapsed
	if rem < 0 {
		rem = 0
	}
	if rem > e.remaining {
		rem = e.remaining
	}
	e.remaining = rem
	justExpired := rem == 0
	if justExpired {
		e.stopLocked()
		e.expired = true
	}
	listeners := make([]TickListener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()

	t := Tick{Remaining: rem, Expired: justExpired}
	for _, l := range listeners {
		l(t)
	}
	if justExpired {
		e.log.Info("expiry_clock.expired")
	}
	return !justExpired
}
