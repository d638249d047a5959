package models

import "time"

const (
	MinTemperature = -50.0
	MaxTemperature = 100.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// SensorReading is one validated temperature/humidity sample.
type SensorReading struct {
	temperature float64
	humidity    float64
	capturedAt  time.Time
}

func NewSensorReading(temperature, humidity float64) (SensorReading, error) {
	if !(temperature >= MinTemperature && temperature <= MaxTemperature) {
		return SensorReading{}, outOfRange("temperature", "temperature must be between -50 and 100")
	}
	if !(humidity >= MinHumidity && humidity <= MaxHumidity) {
		return SensorReading{}, outOfRange("humidity", "humidity must be between 0 and 100")
	}
	return SensorReading{
		temperature: temperature,
		humidity:    humidity,
		capturedAt:  time.Now().UTC(),
	}, nil
}

func (r SensorReading) Temperature() float64 { return r.temperature }

func (r SensorReading) Humidity() float64 { return r.humidity }

func (r SensorReading) CapturedAt() time.Time { return r.capturedAt }
