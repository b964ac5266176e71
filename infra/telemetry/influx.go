package telemetry

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/packsim/packsim/core/pack"
	coretelemetry "github.com/packsim/packsim/core/telemetry"
	"github.com/packsim/packsim/infra/logger"
)

// InfluxSink writes step records to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coretelemetry.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coretelemetry.NopSink{}
	}
	return sink
}

// RecordStep writes one telemetry row as a pack_step point. Point time is
// the run start plus the simulated offset so a run replays as a series.
func (s *InfluxSink) RecordStep(meta coretelemetry.RunMeta, rec pack.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("pack_step").
		AddTag("run_id", meta.RunID).
		AddTag("scenario", meta.Scenario)
	if rec.Phase != "" {
		p = p.AddTag("phase", rec.Phase)
	}
	p = p.AddField("time_s", round3(rec.TimeS)).
		AddField("pack_voltage_v", round3(rec.PackVoltageV)).
		AddField("pack_current_a", round3(rec.PackCurrentA)).
		AddField("soc", round3(rec.SOC)).
		AddField("temp_k", round3(rec.TempK)).
		AddField("temp_max_k", round3(rec.TempMaxK)).
		AddField("power_w", round3(rec.PowerW)).
		AddField("heat_w", round3(rec.HeatW)).
		SetTime(meta.StartedAt.Add(time.Duration(rec.TimeS * float64(time.Second))))
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRunSummary persists the aggregate of a completed run.
func (s *InfluxSink) RecordRunSummary(sum coretelemetry.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m := sum.Metrics
	p := write.NewPointWithMeasurement("run_summary").
		AddTag("run_id", sum.Meta.RunID).
		AddTag("scenario", sum.Meta.Scenario).
		AddField("duration_s", round3(sum.DurationS)).
		AddField("energy_throughput_wh", round3(m.EnergyThroughputWh)).
		AddField("rte_percent", round3(m.RTEPercent)).
		AddField("peak_power_w", round3(m.PeakPowerW)).
		AddField("peak_temp_k", round3(m.PeakTempK)).
		AddField("min_voltage_v", round3(m.MinVoltageV)).
		AddField("soc_used", round3(m.SOCUsed)).
		AddField("throughput_ah", round3(m.ThroughputAh)).
		SetTime(sum.Meta.StartedAt)
	return s.writeAPI.WritePoint(ctx, p)
}

// Flush is a no-op: the blocking write API has no buffer to drain.
func (s *InfluxSink) Flush() error { return nil }

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
