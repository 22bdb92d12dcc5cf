package repository

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"iotguardian/internal/logx"
	"iotguardian/internal/models"
)

const measurement = "sensor_data"

var (
	deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,64}$`)
	relativePattern = regexp.MustCompile(`^-?(\d+(ns|us|ms|s|m|h|d|w|mo|y))+$`)
	windowPattern   = regexp.MustCompile(`^(\d+(s|m|h|d|w))+$`)
)

// InfluxDBRepository writes readings to and aggregates them from one InfluxDB bucket.
type InfluxDBRepository struct {
	client influxdb2.Client
	org    string
	bucket string
}

// NewInfluxDBRepository connects to InfluxDB, checks its health, and makes sure the bucket exists.
func NewInfluxDBRepository(ctx context.Context, url, token, org, bucket string) (*InfluxDBRepository, error) {
	client := influxdb2.NewClient(url, token)

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != "pass" {
		client.Close()
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return nil, fmt.Errorf("InfluxDB health check failed: %s", msg)
	}
	logx.Info().Str("url", url).Msg("Successfully connected to InfluxDB")

	r := &InfluxDBRepository{client: client, org: org, bucket: bucket}
	if err := r.ensureBucket(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

func (r *InfluxDBRepository) ensureBucket(ctx context.Context) error {
	if _, err := r.client.BucketsAPI().FindBucketByName(ctx, r.bucket); err == nil {
		return nil
	}

	org, err := r.client.OrganizationsAPI().FindOrganizationByName(ctx, r.org)
	if err != nil {
		return fmt.Errorf("find organization %q: %w", r.org, err)
	}
	if _, err := r.client.BucketsAPI().CreateBucketWithName(ctx, org, r.bucket); err != nil {
		return fmt.Errorf("create bucket %q: %w", r.bucket, err)
	}
	logx.Info().Str("bucket", r.bucket).Msg("Bucket created")
	return nil
}

// Close releases the underlying HTTP resources.
func (r *InfluxDBRepository) Close() {
	r.client.Close()
}

// WriteReading appends one reading as a point tagged by device.
func (r *InfluxDBRepository) WriteReading(ctx context.Context, reading models.SensorReading) error {
	fields := readingFields(reading)
	if len(fields) == 0 {
		return nil
	}
	p := influxdb2.NewPoint(measurement, map[string]string{"device_id": reading.DeviceID}, fields, reading.Timestamp)

	if err := r.client.WriteAPIBlocking(r.org, r.bucket).WritePoint(ctx, p); err != nil {
		return fmt.Errorf("error writing to InfluxDB: %w", err)
	}
	logx.Debug().Str("bucket", r.bucket).Str("deviceId", reading.DeviceID).Msg("Data point written to InfluxDB")
	return nil
}

func readingFields(reading models.SensorReading) map[string]interface{} {
	fields := make(map[string]interface{})
	if reading.Temperature != nil {
		fields["temperature"] = *reading.Temperature
	}
	if reading.Humidity != nil {
		fields["humidity"] = *reading.Humidity
	}
	if reading.WaterLeak != nil {
		var leak int64
		if *reading.WaterLeak {
			leak = 1
		}
		fields["water_leak"] = leak
	}
	return fields
}

// QueryHistory returns the per-window mean of every field for one device.
func (r *InfluxDBRepository) QueryHistory(ctx context.Context, q models.HistoryQuery) (models.HistoryResponse, error) {
	fluxQuery, err := BuildHistoryQuery(r.bucket, q)
	if err != nil {
		return models.HistoryResponse{}, err
	}
	logx.Debug().Str("query", fluxQuery).Msg("Executing InfluxDB query")

	result, err := r.client.QueryAPI(r.org).Query(ctx, fluxQuery)
	if err != nil {
		return models.HistoryResponse{}, fmt.Errorf("error querying InfluxDB: %w", err)
	}
	defer result.Close()

	resp := models.HistoryResponse{DeviceID: q.DeviceID, Readings: make(map[string][]models.HistoryPoint)}
	for result.Next() {
		record := result.Record()
		var value float64
		switch v := record.Value().(type) {
		case float64:
			value = v
		case int64:
			value = float64(v)
		default:
			continue
		}
		field := record.Field()
		resp.Readings[field] = append(resp.Readings[field], models.HistoryPoint{Time: record.Time(), Value: value})
	}
	if result.Err() != nil {
		return models.HistoryResponse{}, fmt.Errorf("query error: %w", result.Err())
	}
	for field := range resp.Readings {
		points := resp.Readings[field]
		sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	}
	return resp, nil
}

// BuildHistoryQuery renders the Flux query for q after validating every interpolated value.
func BuildHistoryQuery(bucket string, q models.HistoryQuery) (string, error) {
	if !deviceIDPattern.MatchString(q.DeviceID) {
		return "", fmt.Errorf("%w: device id %q", ErrInvalidQuery, q.DeviceID)
	}
	start, err := fluxTime(q.Start, "-24h")
	if err != nil {
		return "", fmt.Errorf("%w: start: %v", ErrInvalidQuery, err)
	}
	stop, err := fluxTime(q.Stop, "now()")
	if err != nil {
		return "", fmt.Errorf("%w: stop: %v", ErrInvalidQuery, err)
	}
	window := q.Window
	if window == "" {
		window = "5m"
	}
	if !windowPattern.MatchString(window) {
		return "", fmt.Errorf("%w: window %q", ErrInvalidQuery, window)
	}

	return fmt.Sprintf(`from(bucket: %q)
	|> range(start: %s, stop: %s)
	|> filter(fn: (r) => r["_measurement"] == %q)
	|> filter(fn: (r) => r["device_id"] == %q)
	|> aggregateWindow(every: %s, fn: mean, createEmpty: false)
	|> yield(name: "mean")`, bucket, start, stop, measurement, q.DeviceID, window), nil
}

func fluxTime(v, fallback string) (string, error) {
	if v == "" {
		v = fallback
	}
	if v == "now()" || relativePattern.MatchString(v) {
		return v, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC().Format(time.RFC3339), nil
	}
	return "", fmt.Errorf("%q is neither a duration, RFC3339 time, nor now()", v)
}

var _ HistoryRepository = (*InfluxDBRepository)(nil)
