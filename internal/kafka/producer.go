package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"sensor-alert-service/internal/models"
)

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertMessage is the JSON body published for every alert.
type AlertMessage struct {
	EventID string       `json:"eventId"`
	Source  string       `json:"source"`
	SentAt  time.Time    `json:"sentAt"`
	Alert   models.Alert `json:"alert"`
}

// Producer publishes alerts to a Kafka topic, keyed by alert id.
type Producer struct {
	writer messageWriter
	topic  string
	newID  func() string
}

func NewProducer(broker, topic string) (*Producer, error) {
	if broker == "" {
		return nil, errors.New("kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
	return newProducer(w, topic), nil
}

func newProducer(w messageWriter, topic string) *Producer {
	return &Producer{writer: w, topic: topic, newID: newEventID}
}

func (p *Producer) Name() string { return "kafka" }

func (p *Producer) Send(ctx context.Context, alert models.Alert) error {
	value, err := json.Marshal(AlertMessage{
		EventID: p.newID(),
		Source:  "sensor-feed",
		SentAt:  time.Now().UTC(),
		Alert:   alert,
	})
	if err != nil {
		return fmt.Errorf("failed to encode alert %d: %w", alert.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(alert.ID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(alert.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish alert %d to %s: %w", alert.ID, p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
