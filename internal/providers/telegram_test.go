package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
)

type fakeSender struct {
	failures map[int64]int
	sent     []*bot.SendMessageParams
	calls    int
}

func (f *fakeSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	f.calls++
	id := params.ChatID.(int64)
	if f.failures[id] > 0 {
		f.failures[id]--
		return nil, errors.New("Too Many Requests")
	}
	f.sent = append(f.sent, params)
	return &tgmodels.Message{}, nil
}

func testSink(sender messageSender, chatIDs ...int64) *TelegramSink {
	s := newTelegramSink(sender, chatIDs, 1000, logging.NewNop())
	s.delay = time.Millisecond
	return s
}

func TestTelegramSink_SendsToEveryChat(t *testing.T) {
	sender := &fakeSender{failures: map[int64]int{}}
	sink := testSink(sender, 100, 200)

	alert := models.Alert{ID: 3, Type: models.SensorHumidity, Value: 91.5, Threshold: 80, Status: models.AlertOpen, CreatedAt: time.Now()}
	require.NoError(t, sink.Send(context.Background(), alert))

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(100), sender.sent[0].ChatID)
	assert.Equal(t, int64(200), sender.sent[1].ChatID)
	assert.Contains(t, sender.sent[0].Text, "91.50%")
}

func TestTelegramSink_RetriesTransientFailures(t *testing.T) {
	sender := &fakeSender{failures: map[int64]int{100: 2}}
	sink := testSink(sender, 100)

	require.NoError(t, sink.Send(context.Background(), models.Alert{ID: 1, Type: models.SensorTemperature}))
	assert.Equal(t, 3, sender.calls)
	assert.Len(t, sender.sent, 1)
}

func TestTelegramSink_ReportsPersistentFailureButTriesAllChats(t *testing.T) {
	sender := &fakeSender{failures: map[int64]int{100: 10}}
	sink := testSink(sender, 100, 200)

	err := sink.Send(context.Background(), models.Alert{ID: 1, Type: models.SensorTemperature})
	require.Error(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(200), sender.sent[0].ChatID)
}

func TestFormatAlert(t *testing.T) {
	text := FormatAlert(models.Alert{ID: 8, Type: models.SensorTemperature, Value: 35, Threshold: 30, Status: models.AlertOpen})
	assert.Contains(t, text, "*Temperature alert #8*")
	assert.Contains(t, text, "35.00°C")
	assert.Contains(t, text, "30.00°C")
}

func TestNewTelegramSink_RequiresTokenAndChats(t *testing.T) {
	_, err := NewTelegramSink("", []int64{1}, 1, logging.NewNop())
	assert.Error(t, err)
	_, err = NewTelegramSink("token", nil, 1, logging.NewNop())
	assert.Error(t, err)
}
