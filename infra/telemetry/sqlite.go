package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/packsim/packsim/core/pack"
	"github.com/packsim/packsim/core/report"
	coretelemetry "github.com/packsim/packsim/core/telemetry"
)

// SQLiteStore persists run summaries in a SQLite database. Step records are
// not stored row by row; the JSONL and CSV sinks cover raw series.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS runs (
        run_id TEXT PRIMARY KEY,
        scenario TEXT,
        started_at INTEGER,
        duration_s REAL,
        energy_throughput_wh REAL,
        rte_percent REAL,
        peak_power_w REAL,
        peak_temp_k REAL,
        min_voltage_v REAL,
        soc_used REAL,
        throughput_ah REAL,
        metrics TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// RecordStep is a no-op for the summary store.
func (s *SQLiteStore) RecordStep(coretelemetry.RunMeta, pack.Record) error { return nil }

// RecordRunSummary upserts the summary row keyed by run id.
func (s *SQLiteStore) RecordRunSummary(sum coretelemetry.RunSummary) error {
	b, err := json.Marshal(sum.Metrics)
	if err != nil {
		return err
	}
	m := sum.Metrics
	_, err = s.db.Exec(`INSERT INTO runs (run_id, scenario, started_at, duration_s,
        energy_throughput_wh, rte_percent, peak_power_w, peak_temp_k,
        min_voltage_v, soc_used, throughput_ah, metrics)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(run_id) DO UPDATE SET
            scenario = excluded.scenario,
            started_at = excluded.started_at,
            duration_s = excluded.duration_s,
            energy_throughput_wh = excluded.energy_throughput_wh,
            rte_percent = excluded.rte_percent,
            peak_power_w = excluded.peak_power_w,
            peak_temp_k = excluded.peak_temp_k,
            min_voltage_v = excluded.min_voltage_v,
            soc_used = excluded.soc_used,
            throughput_ah = excluded.throughput_ah,
            metrics = excluded.metrics`,
		sum.Meta.RunID, sum.Meta.Scenario, sum.Meta.StartedAt.Unix(), sum.DurationS,
		m.EnergyThroughputWh, m.RTEPercent, m.PeakPowerW, m.PeakTempK,
		m.MinVoltageV, m.SOCUsed, m.ThroughputAh, string(b))
	return err
}

// QuerySummaries returns stored summaries, newest first. An empty scenario
// matches every run.
func (s *SQLiteStore) QuerySummaries(scenario string) ([]coretelemetry.RunSummary, error) {
	query := `SELECT run_id, scenario, started_at, duration_s, metrics FROM runs`
	var args []any
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY started_at DESC`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coretelemetry.RunSummary
	for rows.Next() {
		var sum coretelemetry.RunSummary
		var ts int64
		var metrics string
		if err := rows.Scan(&sum.Meta.RunID, &sum.Meta.Scenario, &ts, &sum.DurationS, &metrics); err != nil {
			return nil, err
		}
		var m report.Metrics
		if err := json.Unmarshal([]byte(metrics), &m); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		sum.Metrics = m
		sum.Meta.StartedAt = time.Unix(ts, 0).UTC()
		res = append(res, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SQLiteStore) Flush() error { return nil }

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
