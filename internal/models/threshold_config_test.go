package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewThresholdConfig(t *testing.T) {
	cfg, err := NewThresholdConfig(30, 80)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.TempMax)
	assert.Equal(t, 80.0, cfg.HumidityMax)
	assert.True(t, cfg.IsActive)
	assert.Equal(t, cfg.CreatedAt, cfg.UpdatedAt)

	_, err = NewThresholdConfig(0, 80)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewThresholdConfig(30, 101)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewThresholdConfig(30, 0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = NewThresholdConfig(30, 100)
	assert.NoError(t, err)
}

func TestThresholdConfig_UpdateThresholdsValidatesFirst(t *testing.T) {
	cfg, err := NewThresholdConfig(30, 80)
	require.NoError(t, err)
	prev := *cfg

	err = cfg.UpdateThresholds(35, 120)
	require.Error(t, err)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "humidityMax", fe.Field)
	assert.Equal(t, prev, *cfg, "failed update must not mutate")

	time.Sleep(time.Millisecond)
	require.NoError(t, cfg.UpdateThresholds(35, 70))
	assert.Equal(t, 35.0, cfg.TempMax)
	assert.Equal(t, 70.0, cfg.HumidityMax)
	assert.True(t, cfg.UpdatedAt.After(prev.UpdatedAt))
	assert.Equal(t, prev.CreatedAt, cfg.CreatedAt)
}

func TestThresholdConfig_Deactivate(t *testing.T) {
	cfg, err := NewThresholdConfig(30, 80)
	require.NoError(t, err)

	cfg.Deactivate()
	assert.False(t, cfg.IsActive)
	assert.False(t, cfg.UpdatedAt.Before(cfg.CreatedAt))
}
