package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("fetching NEOs", "start", "2025-05-30")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "fetching NEOs", entry["msg"])
	assert.Equal(t, "2025-05-30", entry["start"])
}

func TestNewLogger_TextAndLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("no data")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `msg="no data"`)
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := newLogger(io.Discard, tt.level, "json")
			assert.Equal(t, tt.want, minLevel(logger))
		})
	}
}

func TestNewLogger_KeepsDefault(t *testing.T) {
	prev, prevOut := slog.Default(), log.Writer()
	newLogger(io.Discard, "debug", "text")
	assert.Same(t, prev, slog.Default())
	assert.Equal(t, prevOut, log.Writer())
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordsFlattened.Add(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(a.RecordsFlattened))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RecordsFlattened))

	families, err := a.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_ObserveStep(t *testing.T) {
	m := NewMetrics()
	start := time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)

	m.ObserveStep("fetch", start, end, nil)
	assert.Equal(t, 1.5, testutil.ToFloat64(m.StepDuration.WithLabelValues("fetch")))
	assert.Equal(t, float64(end.Unix()), testutil.ToFloat64(m.LastSuccess.WithLabelValues("fetch")))

	m.ObserveStep("risk", start, end, errors.New("boom"))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.StepDuration.WithLabelValues("risk")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.LastSuccess), "failed step leaves no success mark")
}

func TestMetrics_Push(t *testing.T) {
	var method, path string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetrics()
	m.RecordsEnriched.Add(2)

	require.NoError(t, m.Push(context.Background(), srv.URL, "neo_risk"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/neo_risk", path)
	assert.NotEmpty(t, body)
}

func TestMetrics_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewMetrics().Push(context.Background(), srv.URL, "neo_fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}
