package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/packsim/packsim/core/pack"
	coretelemetry "github.com/packsim/packsim/core/telemetry"
)

// PromSink exposes the live simulation state as Prometheus metrics.
type PromSink struct {
	steps   *prometheus.CounterVec
	voltage prometheus.Gauge
	soc     prometheus.Gauge
	temp    prometheus.Gauge
	power   prometheus.Gauge
	stepDt  prometheus.Histogram

	lastTimeS float64
}

// NewPromSink registers simulation metrics on the default Prometheus
// registerer. The HTTP listener is started separately by the app service.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "packsim_steps_total",
		Help: "Total number of simulated steps",
	}, []string{"scenario", "phase"})
	voltage := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "packsim_pack_voltage_volts",
		Help: "Pack terminal voltage of the last simulated step",
	})
	soc := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "packsim_pack_soc",
		Help: "Pack state of charge of the last simulated step",
	})
	temp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "packsim_pack_temperature_kelvin",
		Help: "Peak pack temperature of the last simulated step",
	})
	power := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "packsim_pack_power_watts",
		Help: "Pack power of the last simulated step",
	})
	stepDt := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "packsim_step_interval_seconds",
		Help:    "Simulated time advanced per step",
		Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
	})

	s := &PromSink{steps: steps, voltage: voltage, soc: soc, temp: temp, power: power, stepDt: stepDt}
	for _, c := range []prometheus.Collector{steps, voltage, soc, temp, power, stepDt} {
		if err := register(reg, c, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// register tolerates re-registration so tests and repeated runs can share
// the default registerer.
func register(reg prometheus.Registerer, c prometheus.Collector, s *PromSink) error {
	err := reg.Register(c)
	if err == nil {
		return nil
	}
	are, ok := err.(prometheus.AlreadyRegisteredError)
	if !ok {
		return err
	}
	switch existing := are.ExistingCollector.(type) {
	case *prometheus.CounterVec:
		s.steps = existing
	case prometheus.Gauge:
		switch c {
		case s.voltage:
			s.voltage = existing
		case s.soc:
			s.soc = existing
		case s.temp:
			s.temp = existing
		case s.power:
			s.power = existing
		}
	case prometheus.Histogram:
		s.stepDt = existing
	}
	return nil
}

// RecordStep updates the gauges and counters for one step.
func (s *PromSink) RecordStep(meta coretelemetry.RunMeta, rec pack.Record) error {
	phase := rec.Phase
	if phase == "" {
		phase = "run"
	}
	s.steps.WithLabelValues(meta.Scenario, phase).Inc()
	s.voltage.Set(rec.PackVoltageV)
	s.soc.Set(rec.SOC)
	s.temp.Set(rec.TempMaxK)
	s.power.Set(rec.PowerW)
	if dt := rec.TimeS - s.lastTimeS; dt > 0 {
		s.stepDt.Observe(dt)
	}
	s.lastTimeS = rec.TimeS
	return nil
}

// RecordRunSummary is a no-op: per-run aggregates belong in the durable
// stores, not in live gauges.
func (s *PromSink) RecordRunSummary(coretelemetry.RunSummary) error { return nil }

func (s *PromSink) Flush() error { return nil }
func (s *PromSink) Close() error { return nil }

// StartPromServer starts an HTTP server exposing Prometheus metrics on the
// given address until the context is cancelled.
func StartPromServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
