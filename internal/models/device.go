package models

import "time"

// DeviceStatus is the connectivity state shown in the admin panel.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
	DeviceStatusWarning DeviceStatus = "warning"
)

// Device is a registered sensor unit.
type Device struct {
	ID       string       `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	OwnerID  string       `json:"ownerId,omitempty" yaml:"ownerId,omitempty"`
	Status   DeviceStatus `json:"status" yaml:"status,omitempty"`
	LastSeen time.Time    `json:"lastSeen" yaml:"-"`
	Type     string       `json:"type" yaml:"type"`
}
