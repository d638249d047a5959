package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-alert-service/internal/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_PublishesKeyedAlert(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "sensor-alerts")
	p.newID = func() string { return "evt-1" }

	alert := models.Alert{ID: 12, Type: models.SensorTemperature, Value: 35, Threshold: 30, Status: models.AlertOpen}
	require.NoError(t, p.Send(context.Background(), alert))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "12", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "Temperature", string(msg.Headers[0].Value))

	var body AlertMessage
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "evt-1", body.EventID)
	assert.Equal(t, int64(12), body.Alert.ID)
	assert.Equal(t, 35.0, body.Alert.Value)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_WrapsWriteErrors(t *testing.T) {
	boom := errors.New("leader not available")
	p := newProducer(&fakeWriter{err: boom}, "sensor-alerts")

	err := p.Send(context.Background(), models.Alert{ID: 1})
	assert.ErrorIs(t, err, boom)
}

func TestNewProducer_RequiresBrokerAndTopic(t *testing.T) {
	_, err := NewProducer("", "topic")
	assert.Error(t, err)
	_, err = NewProducer("localhost:9092", "")
	assert.Error(t, err)

	p, err := NewProducer("localhost:9092", "sensor-alerts")
	require.NoError(t, err)
	assert.Equal(t, "kafka", p.Name())
}
