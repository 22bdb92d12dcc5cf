// Package simulator posts mock sensor readings to a running server.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"iotguardian/internal/logx"
)

const (
	baseTemperature = 22.0
	baseHumidity    = 45.0
	leakChance      = 0.02
)

// Config controls a simulation run.
type Config struct {
	URL      string
	Devices  int
	Interval time.Duration
	// Count is the number of rounds per device; 0 runs until the context ends.
	Count int
	Seed  int64
}

// Reading is the payload posted to /api/sensor-data.
type Reading struct {
	DeviceID    string  `json:"deviceId"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WaterLeak   bool    `json:"waterLeak"`
	Timestamp   string  `json:"timestamp"`
}

// Simulator drives one goroutine per mock device.
type Simulator struct {
	client *resty.Client
	cfg    Config
}

func New(cfg Config) (*Simulator, error) {
	if cfg.Devices < 1 {
		return nil, fmt.Errorf("devices must be at least 1, got %d", cfg.Devices)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", cfg.Count)
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &Simulator{client: client, cfg: cfg}, nil
}

// Close releases idle HTTP connections.
func (s *Simulator) Close() {
	s.client.GetClient().CloseIdleConnections()
}

// DeviceID names the i-th simulated device.
func DeviceID(i int) string {
	return fmt.Sprintf("sim_%03d", i+1)
}

// Run posts readings until every device finished its rounds, ctx ends, or a post fails.
func (s *Simulator) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Devices; i++ {
		dev := newDevice(DeviceID(i), s.cfg.Seed+int64(i))
		g.Go(func() error {
			return s.runDevice(gctx, dev)
		})
	}
	err := g.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		logx.Info().Msg("Simulation stopped")
		return nil
	}
	return err
}

func (s *Simulator) runDevice(ctx context.Context, dev *device) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for round := 1; ; round++ {
		if err := s.post(ctx, dev.next()); err != nil {
			return err
		}
		if s.cfg.Count > 0 && round >= s.cfg.Count {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Simulator) post(ctx context.Context, r Reading) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(r).
		Post("/api/sensor-data")
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("post reading for %s: %w", r.DeviceID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("post reading for %s: server returned %s: %s", r.DeviceID, resp.Status(), resp.String())
	}
	event := logx.Debug()
	if r.WaterLeak {
		event = logx.Warn()
	}
	event.Str("deviceId", r.DeviceID).
		Float64("temperature", r.Temperature).
		Float64("humidity", r.Humidity).
		Bool("waterLeak", r.WaterLeak).
		Msg("Reading sent")
	return nil
}

// device is a random walk around comfortable indoor conditions.
type device struct {
	id          string
	rng         *rand.Rand
	temperature float64
	humidity    float64
}

func newDevice(id string, seed int64) *device {
	rng := rand.New(rand.NewSource(seed))
	return &device{
		id:          id,
		rng:         rng,
		temperature: baseTemperature + rng.NormFloat64(),
		humidity:    baseHumidity + rng.NormFloat64()*3,
	}
}

func (d *device) next() Reading {
	d.temperature += (baseTemperature-d.temperature)*0.1 + d.rng.NormFloat64()*0.5
	d.humidity += (baseHumidity-d.humidity)*0.1 + d.rng.NormFloat64()*1.5
	d.temperature = clamp(d.temperature, -50, 100)
	d.humidity = clamp(d.humidity, 0, 100)
	return Reading{
		DeviceID:    d.id,
		Temperature: math.Round(d.temperature*10) / 10,
		Humidity:    math.Round(d.humidity*10) / 10,
		WaterLeak:   d.rng.Float64() < leakChance,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
