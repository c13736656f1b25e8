// Package notify is the outbound edge of the service: near-miss events and
// approved address changes leave the process here as typed messages.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"bubble/internal/address"
	"bubble/internal/nearmiss"
	id "bubble/pkg/domain"
)

const (
	TypeNearMiss       = "near_miss.detected"
	TypeAddressChanged = "address.changed"
)

// Message is one outbound notification.
type Message struct {
	Type    string
	Key     string
	Payload []byte
}

// Sink transports messages.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// Emitter encodes domain notifications and hands them to a Sink.
type Emitter struct {
	sink Sink
}

func New(sink Sink) *Emitter {
	return &Emitter{sink: sink}
}

type nearMissPayload struct {
	EventID          id.EventID  `json:"event_id"`
	RunDate          string      `json:"run_date"`
	Users            []id.UserID `json:"users"`
	ApproxTime       time.Time   `json:"approx_time"`
	DistanceMeters   int         `json:"distance_meters"`
	TimeDeltaMinutes int         `json:"time_delta_minutes"`
}

// PublishNearMiss sends one event keyed by its id so redeliveries collapse
// downstream.
func (e *Emitter) PublishNearMiss(ctx context.Context, ev nearmiss.Event) error {
	payload, err := json.Marshal(nearMissPayload{
		EventID:          ev.ID,
		RunDate:          ev.RunDate,
		Users:            []id.UserID{ev.UserA, ev.UserB},
		ApproxTime:       ev.ApproxTime,
		DistanceMeters:   ev.DistanceMeters,
		TimeDeltaMinutes: ev.TimeDeltaMinutes,
	})
	if err != nil {
		return fmt.Errorf("encode near-miss notification: %w", err)
	}
	return e.sink.Send(ctx, Message{Type: TypeNearMiss, Key: ev.ID.String(), Payload: payload})
}

type addressChangedPayload struct {
	AddressID id.AddressID `json:"address_id"`
	OwnerID   id.UserID    `json:"owner_id"`
	Kind      string       `json:"kind"`
	Friends   []id.UserID  `json:"friends"`
	ChangedAt time.Time    `json:"changed_at"`
}

// NotifyAddressChanged tells close friends an address moved, without
// saying where.
func (e *Emitter) NotifyAddressChanged(ctx context.Context, change address.AddressChange) error {
	payload, err := json.Marshal(addressChangedPayload{
		AddressID: change.AddressID,
		OwnerID:   change.OwnerID,
		Kind:      string(change.Kind),
		Friends:   change.Friends,
		ChangedAt: change.ChangedAt,
	})
	if err != nil {
		return fmt.Errorf("encode address change notification: %w", err)
	}
	return e.sink.Send(ctx, Message{Type: TypeAddressChanged, Key: change.OwnerID.String(), Payload: payload})
}

// Producer is the part of *kgo.Client the Kafka sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaSink produces each message to the client's default topic with the
// message type in a header.
type KafkaSink struct {
	producer Producer
}

func NewKafkaSink(producer Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Send(ctx context.Context, msg Message) error {
	record := &kgo.Record{
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(msg.Type)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", msg.Type, err)
	}
	return nil
}

// LogSink writes messages to the log instead of a broker. Payloads never
// contain coordinates.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "notification emitted",
		"type", msg.Type,
		"key", msg.Key,
		"payload", string(msg.Payload),
	)
	return nil
}
