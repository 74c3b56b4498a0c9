// Package events publishes domain events for consumers outside the bot, such as
// moderation tooling and analytics.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/oggyb/matchbot/internal/config"
	"github.com/oggyb/matchbot/internal/logger"
)

const (
	TypeMatchCreated    = "match.created"
	TypeReportSubmitted = "report.submitted"
)

// Event is one domain fact. Key controls partition affinity.
type Event struct {
	Type       string
	Key        string
	Payload    any
	OccurredAt time.Time
}

type MatchCreated struct {
	MatchID      uint64 `json:"match_id"`
	ParticipantA uint64 `json:"participant_a"`
	ParticipantB uint64 `json:"participant_b"`
	ThreadID     string `json:"thread_id"`
}

type ReportSubmitted struct {
	ReportID   uint64  `json:"report_id"`
	ReporterID *uint64 `json:"reporter_id,omitempty"`
	ReportedID uint64  `json:"reported_id"`
	Reason     string  `json:"reason"`
}

// envelope is the JSON value written to the topic.
type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to a single topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // Hash by key for partition affinity
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := buildMessage(e)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(e Event) (kafka.Message, error) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(envelope{Type: e.Type, OccurredAt: e.OccurredAt, Payload: e.Payload})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to serialize %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.Key),
		Value: data,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
		},
	}, nil
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, e Event) error {
	logger.Debug("event dropped", "type", e.Type, "key", e.Key)
	return nil
}

func (Noop) Close() error { return nil }

// New returns a Kafka publisher when brokers are configured, Noop otherwise.
func New(cfg *config.Config) (Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return Noop{}, nil
	}
	return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}
