// Package events publishes change notifications for the launch cache to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/tfkr-ae/deltav/domain"
)

const (
	// EventLaunchesRefreshed is the type of the event sent after every successful refresh.
	EventLaunchesRefreshed = "launches.refreshed"

	source = "deltav"
)

// Event is the JSON body of a published message.
type Event struct {
	ID        string    `json:"id"`         // Refresh id, also used as the message key
	Type      string    `json:"type"`       // Always EventLaunchesRefreshed
	Count     int       `json:"count"`      // Number of launches in the new snapshot
	LaunchIDs []string  `json:"launch_ids"` // Ordered ids of the new snapshot
	Timestamp time.Time `json:"timestamp"`  // When the refresh finished
}

// messageWriter is the subset of *kafka.Writer used by the publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one message per successful refresh.
type Publisher struct {
	writer messageWriter
	topic  string
	log    *logrus.Logger
}

// NewPublisher creates a publisher writing synchronously to topic on the given brokers.
func NewPublisher(brokers []string, topic string, log *logrus.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	if topic == "" {
		return nil, errors.New("no kafka topic configured")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newPublisher(writer, topic, log), nil
}

func newPublisher(writer messageWriter, topic string, log *logrus.Logger) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{writer: writer, topic: topic, log: log}
}

// PublishRefresh sends a launches.refreshed event for a committed refresh.
func (p *Publisher) PublishRefresh(ctx context.Context, refresh *domain.Refresh, launches []*domain.Launch) error {
	event := Event{
		ID:        refresh.ID.String(),
		Type:      EventLaunchesRefreshed,
		Count:     len(launches),
		LaunchIDs: make([]string, len(launches)),
		Timestamp: refresh.FinishedAt.UTC(),
	}
	for i, launch := range launches {
		event.LaunchIDs[i] = launch.ID
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.ID),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte(source)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("publishing event %s: %w", event.ID, err)
	}

	p.log.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      p.topic,
	}).Debug("event published")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
