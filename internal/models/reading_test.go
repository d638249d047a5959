package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSensorReading_Boundaries(t *testing.T) {
	cases := []struct{ temp, hum float64 }{
		{-50, 0},
		{100, 100},
		{-50, 100},
		{100, 0},
		{21.5, 55.25},
	}
	for _, tc := range cases {
		before := time.Now().UTC()
		r, err := NewSensorReading(tc.temp, tc.hum)
		require.NoError(t, err)
		assert.Equal(t, tc.temp, r.Temperature())
		assert.Equal(t, tc.hum, r.Humidity())
		assert.False(t, r.CapturedAt().Before(before))
	}
}

func TestNewSensorReading_OutOfRangeNamesField(t *testing.T) {
	cases := []struct {
		name      string
		temp, hum float64
		field     string
	}{
		{"cold", -50.01, 50, "temperature"},
		{"hot", 100.01, 50, "temperature"},
		{"nan temperature", math.NaN(), 50, "temperature"},
		{"dry", 20, -0.01, "humidity"},
		{"wet", 20, 100.5, "humidity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSensorReading(tc.temp, tc.hum)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOutOfRange))

			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.field, fe.Field)
		})
	}
}
