package models

import "strings"

// SensorType identifies which physical quantity a threshold or alert refers to.
type SensorType string

const (
	SensorTemperature SensorType = "Temperature"
	SensorHumidity    SensorType = "Humidity"
)

// AlertStatus is the lifecycle state of an Alert.
type AlertStatus string

const (
	AlertOpen         AlertStatus = "Open"
	AlertAcknowledged AlertStatus = "Acknowledged"
)

// ParseAlertStatus accepts the query-string spellings of a status filter.
// Unknown values report ok=false, which callers treat as "no filter".
func ParseAlertStatus(raw string) (AlertStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open":
		return AlertOpen, true
	case "acknowledged", "ack":
		return AlertAcknowledged, true
	default:
		return "", false
	}
}
