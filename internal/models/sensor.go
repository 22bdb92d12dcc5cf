package models

import "time"

// SensorReading is the latest state reported by a device. Every measurement is optional.
type SensorReading struct {
	DeviceID    string    `json:"deviceId"`
	Temperature *float64  `json:"temperature,omitempty"`
	Humidity    *float64  `json:"humidity,omitempty"`
	WaterLeak   *bool     `json:"waterLeak,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// SensorStatus is the health derived from a reading.
type SensorStatus string

const (
	SensorStatusOK      SensorStatus = "ok"
	SensorStatusWarning SensorStatus = "warning"
	SensorStatusDanger  SensorStatus = "danger"
	SensorStatusOffline SensorStatus = "offline"
)

// HistoryQuery selects an aggregated window of readings for one device.
type HistoryQuery struct {
	DeviceID string
	Start    string
	Stop     string
	Window   string
}

// HistoryPoint is one aggregated value.
type HistoryPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// HistoryResponse groups aggregated points by field name.
type HistoryResponse struct {
	DeviceID string                    `json:"deviceId"`
	Readings map[string][]HistoryPoint `json:"readings"`
}
