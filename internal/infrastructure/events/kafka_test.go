package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"fxportal/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, nil)
	at := time.Date(2026, 2, 20, 8, 0, 10, 0, time.UTC)

	err := p.Publish(context.Background(), domain.BookingEvent{
		Type:         domain.BookingEventBooked,
		QuoteID:      "q1",
		TradeID:      "t1",
		CurrencyPair: "EUR/USD",
		OccurredAt:   at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, "q1", string(msg.Key))
	require.Equal(t, at, msg.Time)
	require.Equal(t, "type", msg.Headers[0].Key)
	require.Equal(t, "trade.booked", string(msg.Headers[0].Value))

	var ev domain.BookingEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	require.Equal(t, "t1", ev.TradeID)

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{err: errors.New("leader not available")}, nil)
	require.Error(t, p.Publish(context.Background(), domain.BookingEvent{QuoteID: "q1"}))
}

type fakeReader struct {
	msgs   []kafka.Message
	closed bool
}

func (r *fakeReader) ReadMessage(context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumer_Run(t *testing.T) {
	good, err := json.Marshal(domain.BookingEvent{Type: domain.BookingEventFailed, QuoteID: "q2", Message: "Quote has expired"})
	require.NoError(t, err)
	r := &fakeReader{msgs: []kafka.Message{{Value: []byte("{broken")}, {Value: good}}}

	var got []domain.BookingEvent
	c := &Consumer{Reader: r, Handle: func(_ context.Context, ev domain.BookingEvent) error {
		got = append(got, ev)
		return nil
	}}
	err = c.Run(context.Background())
	require.ErrorIs(t, err, io.EOF)
	require.True(t, r.closed)
	require.Len(t, got, 1)
	require.Equal(t, "Quote has expired", got[0].Message)
}
