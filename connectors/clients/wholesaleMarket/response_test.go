package wholesalemarket

import (
	"encoding/json"
	"strings"
	"testing"
)

const sampleBody = `{"france_power_exchanges":[{"start_date":"2026-01-01T00:00:00+01:00","end_date":"2026-01-02T00:00:00+01:00","values":[
{"start_date":"2026-01-01T03:00:00+01:00","end_date":"2026-01-01T04:00:00+01:00","value":100,"price":40},
{"start_date":"2026-01-01T12:00:00+01:00","end_date":"2026-01-01T13:00:00+01:00","value":100,"price":120},
{"start_date":"2026-01-01T19:00:00+01:00","end_date":"2026-01-01T20:00:00+01:00","value":100,"price":80}
]}]}`

func TestResponseSummary(t *testing.T) {
	var r Response
	if err := json.Unmarshal([]byte(sampleBody), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, err := r.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Samples != 3 {
		t.Fatalf("samples = %d, want 3", s.Samples)
	}
	if got, want := s.AvgEURPerMWh, 80.0; got != want {
		t.Fatalf("avg = %v, want %v", got, want)
	}
	if got, want := s.PeakEURPerMWh, 100.0; got != want {
		t.Fatalf("peak = %v, want %v", got, want)
	}
	if got, want := s.OffPeakEURPerMWh, 40.0; got != want {
		t.Fatalf("off-peak = %v, want %v", got, want)
	}
}

func TestResponseSummaryEmpty(t *testing.T) {
	var r Response
	if _, err := r.Summary(); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestPriceChartHTML(t *testing.T) {
	var r Response
	if err := json.Unmarshal([]byte(sampleBody), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	html, err := r.PriceChartHTML()
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if !strings.Contains(html, "Price Chart") {
		t.Fatal("missing chart title")
	}
}
