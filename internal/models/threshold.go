package models

// Threshold pairs a sensor type with the limit a reading must stay at or below.
type Threshold struct {
	kind  SensorType
	limit float64
}

func NewThreshold(kind SensorType, limit float64) (Threshold, error) {
	if !(limit > 0) {
		return Threshold{}, invalidArgument("limit", "threshold value must be greater than 0")
	}
	return Threshold{kind: kind, limit: limit}, nil
}

func (t Threshold) Kind() SensorType { return t.kind }

func (t Threshold) Limit() float64 { return t.limit }

// IsExceeded is strict: a value equal to the limit does not trigger.
func (t Threshold) IsExceeded(value float64) bool {
	return value > t.limit
}
