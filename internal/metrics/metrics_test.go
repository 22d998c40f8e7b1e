package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveOutcome("Intervention", "media", "PASS")
		r.MetricDropped("Intervention")
		r.ColumnResolved("exact")
		r.ObserveRun(time.Second)
	})
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
	assert.Nil(t, r.Registry())
}

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.ObserveOutcome("Intervention", "media", "PASS")
	r.ObserveOutcome("Intervention", "media", "PASS")
	r.ObserveOutcome("Intervention", "unit", "FAIL")
	r.MetricDropped("Skew")
	r.ColumnResolved("fuzzy")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.PivotRows.WithLabelValues("Intervention", "media", "PASS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PivotRows.WithLabelValues("Intervention", "unit", "FAIL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DroppedMetrics.WithLabelValues("Skew")))

	expected := `
# HELP lifetest_column_resolutions_total metric source columns resolved, by strategy
# TYPE lifetest_column_resolutions_total counter
lifetest_column_resolutions_total{strategy="fuzzy"} 1
`
	require.NoError(t, testutil.CollectAndCompare(r.ColumnResolutions, strings.NewReader(expected)))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(250 * time.Millisecond)
	r.MetricDropped("PQ")

	path := filepath.Join(t.TempDir(), "out", "lifetest.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lifetest_run_duration_seconds_count 1")
	assert.Contains(t, string(data), `lifetest_dropped_metrics_total{category="PQ"} 1`)
}
