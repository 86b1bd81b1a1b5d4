package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"contendq/internal/stats"
)

// Report is the machine-readable result of one run.
type Report struct {
	RunID          string         `json:"run_id" yaml:"run_id"`
	Suite          string         `json:"suite" yaml:"suite"`
	BaseURL        string         `json:"base_url" yaml:"base_url"`
	Users          int            `json:"users" yaml:"users"`
	StartedAt      time.Time      `json:"started_at" yaml:"started_at"`
	ElapsedSeconds float64        `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Metrics        stats.Snapshot `json:"metrics" yaml:"metrics"`
}

var Formats = []string{"json", "yaml", "csv"}

// Export writes r to prefix.<ext> for every requested format and returns the
// files written. "all" selects every format.
func Export(r Report, prefix, format string) ([]string, error) {
	formats := []string{strings.ToLower(format)}
	if formats[0] == "all" || formats[0] == "" {
		formats = Formats
	}

	var written []string
	for _, f := range formats {
		var (
			path string
			err  error
		)
		switch f {
		case "json":
			path = prefix + ".json"
			err = ExportJSON(r, path)
		case "yaml", "yml":
			path = prefix + ".yaml"
			err = ExportYAML(r, path)
		case "csv":
			path = prefix + ".csv"
			err = ExportCSV(r.Metrics, path)
		default:
			return written, fmt.Errorf("unknown format %q (want one of %s or all)", f, strings.Join(Formats, ", "))
		}
		if err != nil {
			return written, fmt.Errorf("export %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// ExportJSON exports the report to a JSON file.
func ExportJSON(r Report, filename string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

func ExportYAML(r Report, filename string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

var csvHeader = []string{
	"kind", "name", "value", "passes", "total",
	"count", "avg_ms", "p50_ms", "p90_ms", "p95_ms", "p99_ms", "max_ms",
}

// ExportCSV writes one row per metric, sorted by kind then name.
func ExportCSV(snap stats.Snapshot, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, name := range stats.SortedKeys(snap.Counters) {
		row := []string{"counter", name, strconv.FormatInt(snap.Counters[name], 10), "", ""}
		if err := w.Write(pad(row)); err != nil {
			return err
		}
	}
	for _, name := range stats.SortedKeys(snap.Rates) {
		rc := snap.RateCounts[name]
		row := []string{
			"rate", name, decimal(snap.Rates[name]),
			strconv.FormatInt(rc.Passes, 10), strconv.FormatInt(rc.Total, 10),
		}
		if err := w.Write(pad(row)); err != nil {
			return err
		}
	}
	for _, name := range stats.SortedKeys(snap.Trends) {
		t := snap.Trends[name]
		row := []string{
			"trend", name, "", "", "",
			strconv.FormatInt(t.Count, 10),
			decimal(t.AvgMs), decimal(t.P50Ms), decimal(t.P90Ms), decimal(t.P95Ms), decimal(t.P99Ms), decimal(t.MaxMs),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func pad(row []string) []string {
	for len(row) < len(csvHeader) {
		row = append(row, "")
	}
	return row
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
