package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contendq/internal/runner"
	"contendq/internal/tui/components"
	"contendq/internal/tui/styles"
)

// Model renders the runner's periodic StatsSnapshot updates.
type Model struct {
	Stats    runner.StatsSnapshot
	Progress progress.Model

	OpsLine     components.Sparkline
	LatencyLine components.Sparkline

	LastUpdate time.Time
	LastOps    int64

	Width  int
	Height int
}

func NewModel() Model {
	return Model{
		Progress:    progress.New(progress.WithDefaultGradient()),
		OpsLine:     components.NewSparkline(40, "Scenarios", "/s", styles.Active),
		LatencyLine: components.NewSparkline(40, "Latency P90", "ms", styles.Warn),
		LastUpdate:  time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case runner.StatsSnapshot:
		now := time.Now()
		dt := now.Sub(m.LastUpdate).Seconds()
		if dt < 0.01 {
			dt = 0.01
		}

		m.OpsLine.Add(float64(msg.Operations-m.LastOps) / dt)
		m.LatencyLine.Add(msg.P90Ms)

		m.Stats = msg
		m.LastOps = msg.Operations
		m.LastUpdate = now

		return m, m.Progress.SetPercent(msg.Progress)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 8

		half := (msg.Width / 2) - 8
		if half < 10 {
			half = 10
		}
		m.OpsLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}
	st := m.Stats

	col1 := fmt.Sprintf("OPS:  %d\nVUS:  %d\nREQS: %d", st.Operations, st.ActiveUsers, st.HTTPReqs)
	col2 := fmt.Sprintf("%s\n%s\n%s",
		styles.Success.Render(fmt.Sprintf("OK:       %d", st.Successful)),
		styles.Conflict.Render(fmt.Sprintf("CONFLICT: %d", st.Conflicts)),
		styles.Conflict.Render(fmt.Sprintf("404:      %d", st.NotFound)),
	)

	unexpected := styles.Subtle
	if st.Unexpected > 0 {
		unexpected = styles.Error
	}
	col3 := fmt.Sprintf("%s\n5XX:   %d\nNET:   %d",
		unexpected.Render(fmt.Sprintf("UNEXP: %d", st.Unexpected)),
		st.ServerErrors, st.TransportErrors,
	)
	col4 := fmt.Sprintf("HEALTH: %s\nCHECKS: %s\nSKIP:   %d",
		styles.Rate(st.HealthyRate, 0.99, 0.95).Render(fmt.Sprintf("%.2f%%", st.HealthyRate*100)),
		styles.Rate(st.ChecksRate, 0.95, 0.80).Render(fmt.Sprintf("%.2f%%", st.ChecksRate*100)),
		st.Skipped,
	)

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(col2),
		styles.Box.Render(col3),
		styles.Box.Render(col4),
	))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.OpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	latencies := fmt.Sprintf(
		"P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		st.P50Ms, st.P90Ms, st.P99Ms, st.MaxMs,
	)
	width := m.Width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(styles.Box.Width(width).Render(latencies))
	s.WriteString("\n\n")

	s.WriteString(m.Progress.View())
	s.WriteString(styles.Subtle.Render(fmt.Sprintf("  %s", st.Elapsed.Round(time.Second))))

	return s.String()
}
