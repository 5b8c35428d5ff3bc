package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "scheduler", "warn")

	log.Info().Msg("hidden")
	log.Warn().Str("round_id", "r1").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "scheduler" || entry["round_id"] != "r1" || entry["message"] != "visible" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("") != zerolog.InfoLevel || ParseLevel("debug") != zerolog.DebugLevel || ParseLevel("bogus") != zerolog.InfoLevel {
		t.Error("unexpected level mapping")
	}
}

func TestNewMetricsIsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.WagersPlaced.WithLabelValues("single").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) == 0 {
		t.Fatal("no metric families gathered")
	}
}
