package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	err          error
	messages     []published
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.messages = append(c.messages, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestPublishReading(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "sensors/readings", logging.NewNop())

	reading, err := models.NewSensorReading(21.5, 55.25)
	require.NoError(t, err)
	require.NoError(t, p.PublishReading(reading))

	require.Len(t, c.messages, 1)
	msg := c.messages[0]
	assert.Equal(t, "sensors/readings", msg.topic)
	assert.Equal(t, byte(0), msg.qos)
	assert.False(t, msg.retained)

	var body ReadingMessage
	require.NoError(t, json.Unmarshal(msg.payload, &body))
	assert.Equal(t, 21.5, body.Temperature)
	assert.Equal(t, 55.25, body.Humidity)
	assert.WithinDuration(t, reading.CapturedAt(), body.CapturedAt, time.Millisecond)
}

func TestPublishReading_BrokerError(t *testing.T) {
	c := &fakeClient{err: errors.New("not connected")}
	p := newPublisher(c, "sensors/readings", logging.NewNop())

	reading, err := models.NewSensorReading(21.5, 55.25)
	require.NoError(t, err)
	assert.Error(t, p.PublishReading(reading))
}

func TestClose(t *testing.T) {
	c := &fakeClient{}
	newPublisher(c, "t", logging.NewNop()).Close()
	assert.True(t, c.disconnected)
}
