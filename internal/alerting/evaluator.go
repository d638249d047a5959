// Package alerting turns sensor readings into threshold breaches.
package alerting

import (
	"fmt"

	"sensor-alert-service/internal/models"
)

// Evaluate checks a reading against the config and returns one open alert per
// breached threshold, temperature first. It performs no I/O.
func Evaluate(reading models.SensorReading, cfg *models.ThresholdConfig) ([]*models.Alert, error) {
	if cfg == nil {
		return nil, fmt.Errorf("evaluate reading: %w: no threshold config", models.ErrNotFound)
	}

	checks := []struct {
		kind  models.SensorType
		limit float64
		value float64
	}{
		{models.SensorTemperature, cfg.TempMax, reading.Temperature()},
		{models.SensorHumidity, cfg.HumidityMax, reading.Humidity()},
	}

	var alerts []*models.Alert
	for _, c := range checks {
		th, err := models.NewThreshold(c.kind, c.limit)
		if err != nil {
			return nil, fmt.Errorf("evaluate reading: %s threshold: %w", c.kind, err)
		}
		if th.IsExceeded(c.value) {
			alerts = append(alerts, models.NewAlert(th.Kind(), c.value, th.Limit()))
		}
	}
	return alerts, nil
}
