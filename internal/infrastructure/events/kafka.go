package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fxportal/internal/application"
	"fxportal/internal/domain"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes booking events to a topic keyed by quote id, so
// every event of one quote lands on the same partition.
type KafkaPublisher struct {
	w   messageWriter
	log *zap.Logger
}

var _ application.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return newKafkaPublisher(w, log)
}

func newKafkaPublisher(w messageWriter, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaPublisher{w: w, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev domain.BookingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode booking event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.QuoteID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
		Time: ev.OccurredAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write booking event: %w", err)
	}
	p.log.Debug("booking_event.published", zap.String("type", string(ev.Type)), zap.String("quote_id", ev.QuoteID))
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads booking events and hands each decoded event to Handle.
type Consumer struct {
	Reader messageReader
	Handle func(context.Context, domain.BookingEvent) error
	Log    *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, handle func(context.Context, domain.BookingEvent) error, log *zap.Logger) *Consumer {
	return &Consumer{
		Reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
			MaxWait:  500 * time.Millisecond,
		}),
		Handle: handle,
		Log:    log,
	}
}

// Run consumes until ctx is done or the reader fails.
func (c *Consumer) Run(ctx context.Context) error {
	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}
	defer c.Reader.Close()
	for {
		m, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var ev domain.BookingEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			log.Warn("booking_event.bad_message", zap.Int64("offset", m.Offset), zap.Error(err))
			continue
		}
		if err := c.Handle(ctx, ev); err != nil {
			log.Error("booking_event.handle_failed", zap.String("quote_id", ev.QuoteID), zap.Error(err))
		}
	}
}
