package service

import (
	"context"
	"fmt"
	"time"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
	"iotguardian/internal/plans"
	"iotguardian/internal/repository"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   string
	Admin    bool
	Features plans.Features
}

// CommandRequest is the body of a device command.
type CommandRequest struct {
	Command    models.Command `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// CommandService queues on/off commands that devices poll for.
type CommandService struct {
	store   repository.CommandStore
	devices *DeviceService
	now     func() time.Time
}

func NewCommandService(store repository.CommandStore, devices *DeviceService) *CommandService {
	return &CommandService{store: store, devices: devices, now: time.Now}
}

// Queue replaces the pending command for a device. Users need device control and ownership.
func (s *CommandService) Queue(ctx context.Context, actor Actor, deviceID string, req CommandRequest) (models.DeviceCommand, error) {
	if req.Command != models.CommandOn && req.Command != models.CommandOff {
		return models.DeviceCommand{}, newError(ErrValidation, "Invalid command format. Expected { command: 'ON' | 'OFF' }.")
	}
	if !actor.Admin {
		if !actor.Features.CanControlDevice {
			return models.DeviceCommand{}, newError(ErrPlanRequired, "Remote device control requires a Premium or Enterprise plan.")
		}
		d, err := s.devices.Get(deviceID)
		if err != nil {
			return models.DeviceCommand{}, err
		}
		if d.OwnerID != actor.UserID {
			return models.DeviceCommand{}, newError(ErrForbidden, "Device %s is not registered to your account.", deviceID)
		}
	}

	cmd := models.DeviceCommand{
		Command:    req.Command,
		Parameters: req.Parameters,
		Timestamp:  s.now().UTC(),
	}
	if err := s.store.SetCommand(ctx, deviceID, cmd); err != nil {
		return models.DeviceCommand{}, fmt.Errorf("queue command: %w", err)
	}
	logx.Info().Str("deviceId", deviceID).Str("command", string(cmd.Command)).Str("actor", actor.UserID).Msg("Command queued")
	return cmd, nil
}

// Pending returns the unacknowledged command, or nil when there is none.
func (s *CommandService) Pending(ctx context.Context, deviceID string) (*models.DeviceCommand, error) {
	cmd, err := s.store.GetCommand(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("load command: %w", err)
	}
	if cmd == nil || cmd.AckedAt != nil {
		return nil, nil
	}
	return cmd, nil
}

// Ack marks the pending command as applied. The command stays stored as the device state.
func (s *CommandService) Ack(ctx context.Context, deviceID string) (models.DeviceCommand, error) {
	cmd, err := s.Pending(ctx, deviceID)
	if err != nil {
		return models.DeviceCommand{}, err
	}
	if cmd == nil {
		return models.DeviceCommand{}, newError(ErrNotFound, "No pending commands for device %s.", deviceID)
	}
	now := s.now().UTC()
	cmd.AckedAt = &now
	if err := s.store.SetCommand(ctx, deviceID, *cmd); err != nil {
		return models.DeviceCommand{}, fmt.Errorf("ack command: %w", err)
	}
	logx.Debug().Str("deviceId", deviceID).Msg("Command acknowledged")
	return *cmd, nil
}

// Forget drops any stored command for a removed device.
func (s *CommandService) Forget(ctx context.Context, deviceID string) error {
	if err := s.store.DeleteCommand(ctx, deviceID); err != nil {
		return fmt.Errorf("forget command: %w", err)
	}
	return nil
}
