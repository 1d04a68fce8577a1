package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"rsvp-service/internal/logger"
	"rsvp-service/internal/models"
)

const (
	EventRSVPSubmitted = "rsvp.submitted"
	EventRSVPDeleted   = "rsvp.deleted"
)

// RSVPEvent is the wire payload streamed for every submission mutation.
type RSVPEvent struct {
	Type          string    `json:"type"`
	RSVPID        string    `json:"rsvp_id"`
	PrimaryGuest  string    `json:"primary_guest,omitempty"`
	AttendeeCount int       `json:"attendee_count"`
	Timestamp     time.Time `json:"timestamp"`
}

type Producer struct {
	Writer *kafka.Writer
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer, Logger: log}
}

// PublishRSVPSubmitted streams a submission event. Best-effort: the caller
// logs and drops the error.
func (p *Producer) PublishRSVPSubmitted(rsvp models.RSVP, attendeeCount int) error {
	return p.publish(RSVPEvent{
		Type:          EventRSVPSubmitted,
		RSVPID:        rsvp.ID,
		PrimaryGuest:  rsvp.PrimaryGuestName,
		AttendeeCount: attendeeCount,
		Timestamp:     time.Now().UTC(),
	})
}

func (p *Producer) PublishRSVPDeleted(rsvpID string) error {
	return p.publish(RSVPEvent{
		Type:      EventRSVPDeleted,
		RSVPID:    rsvpID,
		Timestamp: time.Now().UTC(),
	})
}

func (p *Producer) publish(event RSVPEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.Logger.Info("KAFKA", "Publishing ["+event.Type+"] for rsvp "+event.RSVPID)

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(event.RSVPID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// MockProducer satisfies the same surface but only logs. Used when
// KAFKA_MOCK_MODE is set, so the service runs without a broker.
type MockProducer struct {
	Logger *logger.Logger
}

func (m *MockProducer) PublishRSVPSubmitted(rsvp models.RSVP, attendeeCount int) error {
	m.Logger.Info("KAFKA", "[mock] rsvp.submitted for "+rsvp.ID)
	return nil
}

func (m *MockProducer) PublishRSVPDeleted(rsvpID string) error {
	m.Logger.Info("KAFKA", "[mock] rsvp.deleted for "+rsvpID)
	return nil
}
