package models

import "time"

// Command is an on/off instruction for a device.
type Command string

const (
	CommandOn  Command = "ON"
	CommandOff Command = "OFF"
)

// DeviceCommand is the latest instruction queued for a device.
type DeviceCommand struct {
	Command    Command        `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	AckedAt    *time.Time     `json:"ackedAt,omitempty"`
}
