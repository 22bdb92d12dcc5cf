package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
	"iotguardian/internal/plans"
	"iotguardian/internal/repository"
)

// Status thresholds for DeriveStatus and auto-shutdown.
const (
	TempHigh         = 35.0
	TempLow          = 5.0
	HumidityHigh     = 80.0
	HumidityLow      = 20.0
	ShutdownTemp     = 40.0
	dashboardMaxRows = 10
)

// SensorInput is the body a device posts.
type SensorInput struct {
	DeviceID    string   `json:"deviceId"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	WaterLeak   *bool    `json:"waterLeak"`
	Timestamp   string   `json:"timestamp"`
}

// DeviceSnapshot is one dashboard row.
type DeviceSnapshot struct {
	models.Device
	Reading     *models.SensorReading `json:"reading,omitempty"`
	Health      models.SensorStatus   `json:"health"`
	DeviceState models.Command        `json:"deviceState"`
}

// Dashboard is what a user sees after login.
type Dashboard struct {
	Plan          plans.Tier       `json:"plan"`
	Features      plans.Features   `json:"features"`
	DaysRemaining string           `json:"daysRemaining"`
	Devices       []DeviceSnapshot `json:"devices"`
}

// UserLookup resolves an account by id.
type UserLookup interface {
	Get(userID string) (models.User, error)
}

// SensorService ingests readings and builds the views derived from them.
type SensorService struct {
	readings      *repository.Table[models.SensorReading]
	devices       *DeviceService
	users         UserLookup
	commands      repository.CommandStore
	history       repository.HistoryRepository
	notifications *NotificationService
	offlineAfter  time.Duration
	observe       func(models.SensorStatus)
	now           func() time.Time
}

func NewSensorService(
	devices *DeviceService,
	users UserLookup,
	commands repository.CommandStore,
	history repository.HistoryRepository,
	notifications *NotificationService,
	offlineAfter time.Duration,
) *SensorService {
	if history == nil {
		history = repository.NoopHistory{}
	}
	return &SensorService{
		readings:      repository.NewTable[models.SensorReading](),
		devices:       devices,
		users:         users,
		commands:      commands,
		history:       history,
		notifications: notifications,
		offlineAfter:  offlineAfter,
		now:           time.Now,
	}
}

// Observe registers a callback invoked with the status of every ingested reading.
func (s *SensorService) Observe(fn func(models.SensorStatus)) {
	s.observe = fn
}

// DeriveStatus classifies a reading. Readings older than offlineAfter are offline.
func DeriveStatus(r models.SensorReading, now time.Time, offlineAfter time.Duration) models.SensorStatus {
	if offlineAfter > 0 && now.Sub(r.Timestamp) > offlineAfter {
		return models.SensorStatusOffline
	}
	if r.WaterLeak != nil && *r.WaterLeak {
		return models.SensorStatusDanger
	}
	if t := r.Temperature; t != nil && (*t > TempHigh || *t < TempLow) {
		return models.SensorStatusWarning
	}
	if h := r.Humidity; h != nil && (*h > HumidityHigh || *h < HumidityLow) {
		return models.SensorStatusWarning
	}
	return models.SensorStatusOK
}

func (in SensorInput) validate() (time.Time, error) {
	v := &ValidationError{}
	if strings.TrimSpace(in.DeviceID) == "" {
		v.add("deviceId", "deviceId is required.")
	} else if !deviceIDPattern.MatchString(in.DeviceID) {
		v.add("deviceId", "deviceId may only contain letters, digits, '_', '.', ':' and '-'.")
	}
	if t := in.Temperature; t != nil && (*t < -50 || *t > 100) {
		v.add("temperature", "Temperature must be between -50 and 100.")
	}
	if h := in.Humidity; h != nil && (*h < 0 || *h > 100) {
		v.add("humidity", "Humidity must be between 0 and 100.")
	}
	var ts time.Time
	if in.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, in.Timestamp)
		if err != nil {
			v.add("timestamp", "Timestamp must be RFC3339.")
		}
		ts = parsed
	}
	return ts, v.err()
}

// Ingest stores the latest reading for a device and runs its side effects.
func (s *SensorService) Ingest(ctx context.Context, in SensorInput) (models.SensorReading, error) {
	ts, err := in.validate()
	if err != nil {
		return models.SensorReading{}, err
	}
	if ts.IsZero() {
		ts = s.now()
	}
	reading := models.SensorReading{
		DeviceID:    in.DeviceID,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		WaterLeak:   in.WaterLeak,
		Timestamp:   ts.UTC(),
	}
	s.readings.Put(reading.DeviceID, reading)

	status := DeriveStatus(reading, s.now(), 0)
	device := s.devices.Touch(reading.DeviceID, s.now(), status != models.SensorStatusOK)
	if s.observe != nil {
		s.observe(status)
	}

	if err := s.history.WriteReading(ctx, reading); err != nil {
		logx.Error().Err(err).Str("deviceId", reading.DeviceID).Msg("failed to write reading history")
	}
	s.autoShutdown(device, reading)

	logx.Debug().Str("deviceId", reading.DeviceID).Str("status", string(status)).Msg("Sensor data received")
	return reading, nil
}

// autoShutdown alerts an owner whose plan includes automatic shutdown.
func (s *SensorService) autoShutdown(device models.Device, r models.SensorReading) {
	if device.OwnerID == "" || s.users == nil || s.notifications == nil {
		return
	}
	leak := r.WaterLeak != nil && *r.WaterLeak
	hot := r.Temperature != nil && *r.Temperature > ShutdownTemp
	if !leak && !hot {
		return
	}
	owner, err := s.users.Get(device.OwnerID)
	if err != nil || !plans.FeaturesAt(owner.Subscription, s.now()).HasAutoShutdown {
		return
	}
	name := device.Name
	if name == "" {
		name = device.ID
	}
	var msg string
	if leak {
		msg = fmt.Sprintf("CRITICAL: Water leak detected on %s! Auto-shutdown sequence initiated (simulated).", name)
	} else {
		msg = fmt.Sprintf("CRITICAL: Temperature %.1f°C on %s exceeds %.0f°C! Auto-shutdown sequence initiated (simulated).", *r.Temperature, name, ShutdownTemp)
	}
	s.notifications.Notify(owner.ID, msg, models.NotificationWarning)
	logx.Warn().Str("deviceId", device.ID).Str("userId", owner.ID).Msg("Auto-shutdown triggered")
}

// Latest returns every device's most recent reading, ordered by device id.
func (s *SensorService) Latest() []models.SensorReading {
	return s.readings.List()
}

func (s *SensorService) snapshot(ctx context.Context, d models.Device) DeviceSnapshot {
	snap := DeviceSnapshot{Device: d, Health: models.SensorStatusOffline, DeviceState: models.CommandOn}
	if r, ok := s.readings.Get(d.ID); ok {
		snap.Reading = &r
		snap.Health = DeriveStatus(r, s.now(), s.offlineAfter)
	}
	cmd, err := s.commands.GetCommand(ctx, d.ID)
	if err != nil {
		logx.Warn().Err(err).Str("deviceId", d.ID).Msg("could not load device state")
	} else if cmd != nil {
		snap.DeviceState = cmd.Command
	}
	return snap
}

// Dashboard returns the user's devices, capped by plan, with plan details.
func (s *SensorService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	u, err := s.users.Get(userID)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.now()
	tier := plans.Effective(u.Subscription, now)
	features := plans.FeaturesFor(tier)
	dash := Dashboard{
		Plan:          tier,
		Features:      features,
		DaysRemaining: plans.DaysRemaining(u.Subscription, now),
		Devices:       []DeviceSnapshot{},
	}

	limit := dashboardMaxRows
	if features.MaxDevices != plans.Unlimited && features.MaxDevices < limit {
		limit = features.MaxDevices
	}
	for _, d := range s.devices.ListOwned(userID) {
		if len(dash.Devices) >= limit {
			break
		}
		dash.Devices = append(dash.Devices, s.snapshot(ctx, d))
	}
	return dash, nil
}

// ExportCSV renders the user's dashboard readings as CSV.
func (s *SensorService) ExportCSV(ctx context.Context, userID string) ([]byte, error) {
	dash, err := s.Dashboard(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !dash.Features.CanExportCSV {
		return nil, newError(ErrPlanRequired, "CSV export requires a Premium or Enterprise plan.")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Device ID", "Name", "Temperature (C)", "Humidity (%)", "Water Leak", "Status", "Last Updated"})
	rows := 0
	for _, snap := range dash.Devices {
		r := snap.Reading
		if r == nil {
			continue
		}
		_ = w.Write([]string{
			snap.ID,
			snap.Name,
			formatOptionalFloat(r.Temperature),
			formatOptionalFloat(r.Humidity),
			formatOptionalBool(r.WaterLeak),
			string(snap.Health),
			r.Timestamp.Format(csvTimeLayout),
		})
		rows++
	}
	if rows == 0 {
		return nil, newError(ErrNotFound, "No sensor data to export.")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

const csvTimeLayout = "2006-01-02 15:04:05"

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatOptionalBool(v *bool) string {
	if v == nil {
		return ""
	}
	if *v {
		return "Yes"
	}
	return "No"
}

// History returns aggregated readings for a device the user owns.
func (s *SensorService) History(ctx context.Context, userID string, q models.HistoryQuery) (models.HistoryResponse, error) {
	u, err := s.users.Get(userID)
	if err != nil {
		return models.HistoryResponse{}, err
	}
	if !plans.FeaturesAt(u.Subscription, s.now()).HasHistory {
		return models.HistoryResponse{}, newError(ErrPlanRequired, "Reading history requires a Premium or Enterprise plan.")
	}
	d, err := s.devices.Get(q.DeviceID)
	if err != nil {
		return models.HistoryResponse{}, err
	}
	if d.OwnerID != userID {
		return models.HistoryResponse{}, newError(ErrForbidden, "Device %s is not registered to your account.", q.DeviceID)
	}

	resp, err := s.history.QueryHistory(ctx, q)
	switch {
	case errors.Is(err, repository.ErrHistoryDisabled):
		return models.HistoryResponse{}, newError(ErrUnavailable, "Reading history is not available.")
	case errors.Is(err, repository.ErrInvalidQuery):
		v := &ValidationError{}
		v.add("query", err.Error())
		return models.HistoryResponse{}, v
	case err != nil:
		return models.HistoryResponse{}, fmt.Errorf("query history for %s: %w", q.DeviceID, err)
	}
	return resp, nil
}
