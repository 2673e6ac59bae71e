// Package events publishes committed audit log entries to the event stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/config"
	"github.com/openbook/hub/pkg/logging"
)

// TypeAuditLogEntry is the event type of a committed audit log entry
const TypeAuditLogEntry = "community.audit_log_entry"

// Event is the payload written to the stream
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Action        string    `json:"action"`
	ActionCode    string    `json:"action_code"`
	LogEntryID    int64     `json:"log_entry_id"`
	CommunityID   int64     `json:"community_id"`
	CommunityName string    `json:"community_name"`
	SourceUserID  int64     `json:"source_user_id"`
	TargetUserID  int64     `json:"target_user_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewAuditEvent describes a committed audit log entry
func NewAuditEvent(community *models.Community, entry *models.AuditLogEntry) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          TypeAuditLogEntry,
		Action:        entry.ActionType.Name(),
		ActionCode:    string(entry.ActionType),
		LogEntryID:    entry.ID,
		CommunityID:   community.ID,
		CommunityName: community.Name,
		SourceUserID:  entry.SourceUserID,
		TargetUserID:  entry.TargetUserID,
		OccurredAt:    entry.CreatedAt,
	}
}

// Publisher delivers events after the transaction that produced them committed
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// New returns a Kafka publisher, or a no-op publisher when events are disabled
func New(cfg *config.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Event stream disabled")
		return NopPublisher{}, nil
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("events enabled but no kafka brokers configured")
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic), nil
}

// KafkaPublisher writes events to a Kafka topic keyed by community name,
// so every community's log stays ordered within one partition
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a synchronous writer that waits for all replicas
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}

	logger := logging.WithComponent("events")
	logger.Info("Kafka publisher configured",
		zap.Strings("brokers", brokers),
		zap.String("topic", topic),
	)

	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish writes events in order
func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs, err := toMessages(events)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d events: %w", len(msgs), err)
	}

	p.logger.Debug("Published events", zap.Int("count", len(msgs)))
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func toMessages(events []Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event %s: %w", e.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.CommunityName),
			Value: value,
			Time:  e.OccurredAt,
		})
	}
	return msgs, nil
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

func (NopPublisher) Close() error { return nil }
