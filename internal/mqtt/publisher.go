package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
)

const publishTimeout = 3 * time.Second

type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// ReadingMessage is the payload mirrored for every synthesized reading.
type ReadingMessage struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	CapturedAt  time.Time `json:"capturedAt"`
}

// Publisher mirrors sensor readings to an MQTT topic.
type Publisher struct {
	client client
	topic  string
	logger *logging.Logger
}

// NewPublisher connects to broker and returns a publisher for topic.
func NewPublisher(broker, clientID, topic string, logger *logging.Logger) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8])).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(5 * time.Second).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warnf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(_ paho.Client) {
			logger.Infof("MQTT connected to %s", broker)
		})

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		c.Disconnect(0)
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, err)
	}
	return newPublisher(c, topic, logger), nil
}

func newPublisher(c client, topic string, logger *logging.Logger) *Publisher {
	return &Publisher{client: c, topic: topic, logger: logger}
}

// PublishReading sends the reading with QoS 0. Failures are logged and returned.
func (p *Publisher) PublishReading(reading models.SensorReading) error {
	payload, err := json.Marshal(ReadingMessage{
		Temperature: reading.Temperature(),
		Humidity:    reading.Humidity(),
		CapturedAt:  reading.CapturedAt(),
	})
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warnf("MQTT publish to %s timed out", p.topic)
		return fmt.Errorf("publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Warnf("Failed to publish reading: %v", err)
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
