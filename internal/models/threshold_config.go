package models

import "time"

// ThresholdConfig is one version of the active alerting limits.
// Versions are append-only; the current one is the newest active row.
type ThresholdConfig struct {
	ID          int64     `json:"id"`
	TempMax     float64   `json:"tempMax"`
	HumidityMax float64   `json:"humidityMax"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewThresholdConfig(tempMax, humidityMax float64) (*ThresholdConfig, error) {
	if err := validateThresholds(tempMax, humidityMax); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &ThresholdConfig{
		TempMax:     tempMax,
		HumidityMax: humidityMax,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateThresholds leaves the config untouched when validation fails.
func (c *ThresholdConfig) UpdateThresholds(tempMax, humidityMax float64) error {
	if err := validateThresholds(tempMax, humidityMax); err != nil {
		return err
	}
	c.TempMax = tempMax
	c.HumidityMax = humidityMax
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (c *ThresholdConfig) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
}

func validateThresholds(tempMax, humidityMax float64) error {
	if !(tempMax > 0) {
		return invalidArgument("tempMax", "temperature threshold must be greater than 0")
	}
	if !(humidityMax > 0 && humidityMax <= MaxHumidity) {
		return invalidArgument("humidityMax", "humidity threshold must be between 0 and 100")
	}
	return nil
}
