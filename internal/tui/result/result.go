package result

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contendq/internal/check"
	"contendq/internal/scenario"
	"contendq/internal/stats"
	"contendq/internal/tui/styles"
)

// Model shows a finished run's snapshot.
type Model struct {
	Snapshot stats.Snapshot
	Elapsed  time.Duration
	Err      error

	Width  int
	Height int
}

func NewModel(snap stats.Snapshot, elapsed time.Duration, err error) Model {
	return Model{Snapshot: snap, Elapsed: elapsed, Err: err}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}

	if m.Err != nil {
		s.WriteString(styles.Title.Render("❌ Run Failed"))
		s.WriteString("\n\n")
		s.WriteString(styles.Error.Render(m.Err.Error()))
		return s.String()
	}

	snap := m.Snapshot
	s.WriteString(styles.Title.Render("📊 Test Complete"))
	s.WriteString("\n\n")

	overview := fmt.Sprintf(
		"Duration:    %s\nOperations:  %d\nSuccessful:  %d\nConflicts:   %d\nNot Found:   %d\nUnexpected:  %d\nSkipped:     %d",
		m.Elapsed.Round(time.Millisecond),
		snap.Counter(scenario.MetricTotalOperations),
		snap.Counter(scenario.MetricSuccessfulOperations),
		snap.Counter(scenario.MetricConflictOperations),
		snap.Counter(scenario.MetricNotFoundOperations),
		snap.Counter(scenario.MetricUnexpectedOperations),
		snap.Counter(scenario.MetricStepsSkipped),
	)

	health := snap.Rate(scenario.RateSystemHealthy)
	checks := snap.Rate(check.RateAll)
	rates := fmt.Sprintf(
		"Health:   %s\nChecks:   %s\nFast:     %.2f%%\n5xx:      %d\nNetwork:  %d",
		styles.Rate(health, 0.99, 0.95).Render(fmt.Sprintf("%.2f%%", health*100)),
		styles.Rate(checks, 0.95, 0.80).Render(fmt.Sprintf("%.2f%%", checks*100)),
		snap.Rate(scenario.RateFastOperations)*100,
		snap.Counter(scenario.MetricServerErrors),
		snap.Counter(scenario.MetricTransportErrors),
	)

	d := snap.Trends[scenario.TrendHTTPReqDuration]
	latency := fmt.Sprintf(
		"Avg: %.2f ms\nP50: %.2f ms\nP90: %.2f ms\nP99: %.2f ms\nMax: %.2f ms",
		d.AvgMs, d.P50Ms, d.P90Ms, d.P99Ms, d.MaxMs,
	)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		section("Overview", overview),
		section("Rates", rates),
		section("Latency", latency),
	))
	s.WriteString("\n\n")

	var lines []string
	for _, name := range stats.SortedKeys(snap.Rates) {
		if !strings.HasPrefix(name, check.LabelRate("")) {
			continue
		}
		v := snap.Rates[name]
		label := strings.TrimPrefix(name, check.LabelRate(""))
		lines = append(lines, styles.Rate(v, 1, 0.95).Render(fmt.Sprintf("%-36s %6.2f%%", label, v*100)))
	}
	if len(lines) > 0 {
		s.WriteString(section("Checks", strings.Join(lines, "\n")))
	}

	return s.String()
}

func section(title, body string) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Active.Render(" "+title),
		styles.Box.Render(body),
	)
}
