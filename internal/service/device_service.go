package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
	"iotguardian/internal/plans"
	"iotguardian/internal/repository"
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,64}$`)

// DeviceRequest is the admin create/update payload.
type DeviceRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
	Type    string `json:"type"`
}

// DeviceService is the registry of known devices and their owners.
type DeviceService struct {
	devices      *repository.Table[models.Device]
	offlineAfter time.Duration
	now          func() time.Time
}

func NewDeviceService(offlineAfter time.Duration) *DeviceService {
	return &DeviceService{
		devices:      repository.NewTable[models.Device](),
		offlineAfter: offlineAfter,
		now:          time.Now,
	}
}

// withLiveStatus marks devices silent for longer than offlineAfter as offline.
func (s *DeviceService) withLiveStatus(d models.Device) models.Device {
	if d.LastSeen.IsZero() || s.now().Sub(d.LastSeen) > s.offlineAfter {
		d.Status = models.DeviceStatusOffline
	}
	return d
}

// Touch records that a device reported, registering it without an owner if unknown.
func (s *DeviceService) Touch(deviceID string, seen time.Time, warning bool) models.Device {
	d, _ := s.devices.Upsert(deviceID, func(d *models.Device, exists bool) error {
		if !exists {
			*d = models.Device{ID: deviceID, Name: deviceID}
			logx.Info().Str("deviceId", deviceID).Msg("Registered new device from sensor data")
		}
		d.LastSeen = seen
		d.Status = models.DeviceStatusOnline
		if warning {
			d.Status = models.DeviceStatusWarning
		}
		return nil
	})
	return d
}

func (s *DeviceService) List() []models.Device {
	all := s.devices.List()
	for i := range all {
		all[i] = s.withLiveStatus(all[i])
	}
	return all
}

func (s *DeviceService) ListOwned(userID string) []models.Device {
	var out []models.Device
	for _, d := range s.List() {
		if d.OwnerID == userID {
			out = append(out, d)
		}
	}
	return out
}

func (s *DeviceService) CountOwned(userID string) int {
	return len(s.ListOwned(userID))
}

func (s *DeviceService) Get(deviceID string) (models.Device, error) {
	d, ok := s.devices.Get(deviceID)
	if !ok {
		return models.Device{}, newError(ErrNotFound, "Device %s not found.", deviceID)
	}
	return s.withLiveStatus(d), nil
}

func validateDevice(req DeviceRequest, requireID bool) error {
	v := &ValidationError{}
	if requireID && req.ID != "" && !deviceIDPattern.MatchString(req.ID) {
		v.add("id", "Device ID may only contain letters, digits, '_', '.', ':' and '-'.")
	}
	if strings.TrimSpace(req.Name) == "" {
		v.add("name", "Name is required.")
	}
	return v.err()
}

func (s *DeviceService) Create(req DeviceRequest) (models.Device, error) {
	if err := validateDevice(req, true); err != nil {
		return models.Device{}, err
	}
	id := req.ID
	if id == "" {
		id = "dev_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	d := models.Device{
		ID:      id,
		Name:    strings.TrimSpace(req.Name),
		OwnerID: req.OwnerID,
		Type:    req.Type,
		Status:  models.DeviceStatusOffline,
	}
	if !s.devices.Insert(id, d) {
		return models.Device{}, newError(ErrConflict, "Device %s already exists.", id)
	}
	return d, nil
}

func (s *DeviceService) Update(deviceID string, req DeviceRequest) (models.Device, error) {
	if err := validateDevice(req, false); err != nil {
		return models.Device{}, err
	}
	d, ok, _ := s.devices.Update(deviceID, func(d *models.Device) error {
		d.Name = strings.TrimSpace(req.Name)
		d.OwnerID = req.OwnerID
		d.Type = req.Type
		return nil
	})
	if !ok {
		return models.Device{}, newError(ErrNotFound, "Device %s not found.", deviceID)
	}
	return s.withLiveStatus(d), nil
}

func (s *DeviceService) Delete(deviceID string) error {
	if !s.devices.Delete(deviceID) {
		return newError(ErrNotFound, "Device %s not found.", deviceID)
	}
	return nil
}

// Claim assigns an unowned device to userID within the plan's device limit.
// Re-claiming a device the user already owns always succeeds.
func (s *DeviceService) Claim(userID, deviceID string, features plans.Features) (models.Device, error) {
	owned := s.CountOwned(userID)
	d, ok, err := s.devices.Update(deviceID, func(d *models.Device) error {
		switch d.OwnerID {
		case "":
			if !plans.WithinLimit(owned, features.MaxDevices) {
				return newError(ErrPlanRequired, "Your plan allows %d monitored device(s). Upgrade to add more.", features.MaxDevices)
			}
			d.OwnerID = userID
			return nil
		case userID:
			return nil
		default:
			return newError(ErrConflict, "Device %s is already registered to another account.", deviceID)
		}
	})
	if !ok {
		return models.Device{}, newError(ErrNotFound, "Device %s not found.", deviceID)
	}
	if err != nil {
		return models.Device{}, err
	}
	return s.withLiveStatus(d), nil
}

// ReleaseOwner detaches every device owned by userID.
func (s *DeviceService) ReleaseOwner(userID string) {
	for _, d := range s.devices.List() {
		if d.OwnerID != userID {
			continue
		}
		_, _, _ = s.devices.Update(d.ID, func(d *models.Device) error {
			if d.OwnerID == userID {
				d.OwnerID = ""
			}
			return nil
		})
	}
}

// Seed inserts devices that are not registered yet.
func (s *DeviceService) Seed(devices []models.Device) {
	for _, d := range devices {
		s.devices.Insert(d.ID, d)
	}
}
