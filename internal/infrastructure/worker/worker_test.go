package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fxportal/internal/domain"

	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ n int32 }

func (c *countingSweeper) Sweep() int {
	atomic.AddInt32(&c.n, 1)
	return 1
}

func TestSweeper_RunsUntilCancelled(t *testing.T) {
	s := &countingSweeper{}
	w := &Sweeper{Sessions: s, Every: 5 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&s.n) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

type recPublisher struct {
	mu     sync.Mutex
	events []domain.BookingEvent
	panics bool
	err    error
}

func (p *recPublisher) Publish(_ context.Context, ev domain.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.panics && ev.QuoteID == "boom" {
		panic("broker exploded")
	}
	p.events = append(p.events, ev)
	return p.err
}

func (p *recPublisher) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.QuoteID)
	}
	return out
}

func TestEventRelay_ForwardsInOrderAndDrainsOnClose(t *testing.T) {
	next := &recPublisher{panics: true, err: errors.New("ignored")}
	r := NewEventRelay(next, 8, nil)
	go r.Start(context.Background())

	for _, id := range []string{"q1", "boom", "q2", "q3"} {
		require.NoError(t, r.Publish(context.Background(), domain.BookingEvent{Type: domain.BookingEventBooked, QuoteID: id}))
	}
	r.Close()
	r.Close()

	require.Equal(t, []string{"q1", "q2", "q3"}, next.ids())
	require.ErrorIs(t, r.Publish(context.Background(), domain.BookingEvent{}), ErrRelayClosed)
}

func TestEventRelay_DropsWhenFull(t *testing.T) {
	r := NewEventRelay(&recPublisher{}, 1, nil)
	require.NoError(t, r.Publish(context.Background(), domain.BookingEvent{QuoteID: "q1"}))
	require.ErrorIs(t, r.Publish(context.Background(), domain.BookingEvent{QuoteID: "q2"}), ErrRelayFull)

	go r.Start(context.Background())
	r.Close()
}

func TestEventRelay_CloseWithoutStartForwardsQueued(t *testing.T) {
	next := &recPublisher{}
	r := NewEventRelay(next, 4, nil)
	require.NoError(t, r.Publish(context.Background(), domain.BookingEvent{QuoteID: "q1"}))
	r.Close()
	require.Equal(t, []string{"q1"}, next.ids())

	r.Start(context.Background())
}
