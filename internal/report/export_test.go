package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"contendq/internal/stats"
)

func sampleReport() Report {
	agg := stats.NewAggregator()
	agg.Add("total_operations", 4)
	agg.Add("successful_operations", 3)
	agg.Observe("system_healthy", true)
	agg.Observe("system_healthy", false)
	agg.Record("http_req_duration", 20*time.Millisecond)
	return Report{
		RunID:          "abc",
		Suite:          "team",
		BaseURL:        "http://localhost:8000/siamMPL",
		Users:          2,
		StartedAt:      time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		ElapsedSeconds: 1.5,
		Metrics:        agg.Snapshot(),
	}
}

func TestExportAllFormats(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	files, err := Export(sampleReport(), prefix, "all")
	require.NoError(t, err)
	assert.Equal(t, []string{prefix + ".json", prefix + ".yaml", prefix + ".csv"}, files)

	data, err := os.ReadFile(prefix + ".json")
	require.NoError(t, err)
	var fromJSON Report
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, int64(4), fromJSON.Metrics.Counter("total_operations"))
	assert.Equal(t, 0.5, fromJSON.Metrics.Rate("system_healthy"))

	data, err = os.ReadFile(prefix + ".yaml")
	require.NoError(t, err)
	var fromYAML Report
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, "team", fromYAML.Suite)
	assert.Equal(t, int64(2), fromYAML.Metrics.RateCounts["system_healthy"].Total)
}

func TestExportCSVRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.csv")
	require.NoError(t, ExportCSV(sampleReport().Metrics, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 5)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"counter", "successful_operations", "3"}, rows[1][:3])
	assert.Equal(t, []string{"counter", "total_operations", "4"}, rows[2][:3])
	assert.Equal(t, []string{"rate", "system_healthy", "0.5000", "1", "2"}, rows[3][:5])
	assert.Equal(t, "trend", rows[4][0])
	assert.Equal(t, "1", rows[4][5])
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export(sampleReport(), filepath.Join(t.TempDir(), "x"), "xml")
	assert.ErrorContains(t, err, "unknown format")
}
