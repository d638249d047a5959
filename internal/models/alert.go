package models

import (
	"fmt"
	"time"
)

// Alert records one threshold breach.
type Alert struct {
	ID        int64       `json:"id"`
	Type      SensorType  `json:"type"`
	Value     float64     `json:"value"`
	Threshold float64     `json:"threshold"`
	CreatedAt time.Time   `json:"createdAt"`
	Status    AlertStatus `json:"status"`
}

func NewAlert(kind SensorType, value, threshold float64) *Alert {
	return &Alert{
		Type:      kind,
		Value:     value,
		Threshold: threshold,
		CreatedAt: time.Now().UTC(),
		Status:    AlertOpen,
	}
}

// Acknowledge moves an open alert to Acknowledged. It is one-way.
func (a *Alert) Acknowledge() error {
	if !a.IsOpen() {
		return fmt.Errorf("%w: alert %d is not open", ErrConflict, a.ID)
	}
	a.Status = AlertAcknowledged
	return nil
}

func (a *Alert) IsOpen() bool {
	return a.Status == AlertOpen
}
