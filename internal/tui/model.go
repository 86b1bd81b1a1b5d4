package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contendq/internal/runner"
	"contendq/internal/stats"
	"contendq/internal/storage"
	"contendq/internal/tui/history"
	"contendq/internal/tui/live"
	"contendq/internal/tui/result"
	"contendq/internal/tui/styles"
)

type ViewID int

const (
	ViewLive ViewID = iota
	ViewResult
	ViewHistory
)

type statsMsg runner.StatsSnapshot

type runDoneMsg struct {
	snap    stats.Snapshot
	elapsed time.Duration
	err     error
	status  string
}

// FinishFunc is called once the run has stopped, before the result is shown.
// The returned text is shown in the status line.
type FinishFunc func(snap stats.Snapshot, elapsed time.Duration) (string, error)

// Model drives one run and shows it live, then its result. The history tab
// is available when a store is given.
type Model struct {
	Runner   *runner.Runner
	Store    *storage.Store
	OnFinish FinishFunc

	ctx    context.Context
	cancel context.CancelFunc

	Running  bool
	Stopping bool
	Snapshot stats.Snapshot
	Elapsed  time.Duration
	Err      error

	CurrentView ViewID
	LiveView    live.Model
	ResultView  result.Model
	HistoryView history.Model

	StatusMsg string
	Width     int
	Height    int
}

func NewModel(ctx context.Context, r *runner.Runner, store *storage.Store, onFinish FinishFunc) Model {
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		Runner:      r,
		Store:       store,
		OnFinish:    onFinish,
		ctx:         ctx,
		cancel:      cancel,
		Running:     true,
		CurrentView: ViewLive,
		LiveView:    live.NewModel(),
		HistoryView: history.NewModel(store),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.startRun(),
		waitForUpdate(m.Runner.Updates),
	)
}

func (m Model) startRun() tea.Cmd {
	r, ctx, onFinish := m.Runner, m.ctx, m.OnFinish
	return func() tea.Msg {
		start := time.Now()
		snap, err := r.Run(ctx)
		msg := runDoneMsg{snap: snap, elapsed: time.Since(start), err: err}
		if err == nil && onFinish != nil {
			status, ferr := onFinish(snap, msg.elapsed)
			msg.status = status
			if ferr != nil {
				msg.status = ferr.Error()
			}
		}
		return msg
	}
}

func waitForUpdate(sub runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		return statsMsg(<-sub)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "q":
			if m.Running {
				// users stop at their next scenario boundary
				m.cancel()
				m.Stopping = true
				return m, nil
			}
			return m, tea.Quit
		case "tab":
			m.CurrentView = m.nextView()
			if m.CurrentView == ViewHistory {
				m.HistoryView.Refresh()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		inner := tea.WindowSizeMsg{Width: msg.Width - 4, Height: msg.Height - 6}
		m.LiveView, _ = m.LiveView.Update(inner)
		m.ResultView, _ = m.ResultView.Update(inner)
		m.HistoryView, _ = m.HistoryView.Update(inner)
		return m, nil

	case statsMsg:
		snap := runner.StatsSnapshot(msg)
		var c tea.Cmd
		m.LiveView, c = m.LiveView.Update(snap)
		cmds = append(cmds, c)
		if !snap.Done {
			cmds = append(cmds, waitForUpdate(m.Runner.Updates))
		}
		return m, tea.Batch(cmds...)

	case runDoneMsg:
		m.Running = false
		m.Stopping = false
		m.Snapshot, m.Elapsed, m.Err = msg.snap, msg.elapsed, msg.err
		m.StatusMsg = msg.status
		m.ResultView = result.NewModel(msg.snap, msg.elapsed, msg.err)
		m.ResultView.Width, m.ResultView.Height = m.Width-4, m.Height-6
		m.HistoryView.Refresh()
		m.CurrentView = ViewResult
		return m, nil
	}

	// Forward everything else (progress frames, table keys) to its view.
	var c tea.Cmd
	switch m.CurrentView {
	case ViewHistory:
		m.HistoryView, c = m.HistoryView.Update(msg)
	default:
		m.LiveView, c = m.LiveView.Update(msg)
	}
	cmds = append(cmds, c)
	return m, tea.Batch(cmds...)
}

func (m Model) nextView() ViewID {
	next := m.CurrentView + 1
	if next == ViewResult && m.Running {
		next++
	}
	if next == ViewHistory && m.Store == nil {
		next++
	}
	if next > ViewHistory {
		next = ViewLive
	}
	return next
}

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	tabs := []string{"Live", "Result", "History"}
	nav := strings.Builder{}
	for i, name := range tabs {
		if ViewID(i) == m.CurrentView {
			nav.WriteString(styles.TabActive.Render(name))
		} else {
			nav.WriteString(styles.TabBase.Render(name))
		}
	}
	cfg := m.Runner.Cfg
	header := styles.Subtle.Render(fmt.Sprintf("%s  |  suite %s  |  %d users  |  run %s",
		cfg.BaseURL, m.Runner.Suite.Name, cfg.NumUsers, m.Runner.Seed.Tag()))
	navBar := lipgloss.JoinVertical(lipgloss.Left,
		styles.FooterBase.Width(m.Width).Render(nav.String()),
		styles.FooterBase.Width(m.Width).Render(header),
	)

	var content string
	switch m.CurrentView {
	case ViewResult:
		content = m.ResultView.View()
	case ViewHistory:
		content = m.HistoryView.View()
	default:
		content = m.LiveView.View()
	}
	panel := styles.Panel.Width(m.Width - 2).Render(content)

	keys := []string{styles.RenderKey("Tab", "View")}
	switch {
	case m.Stopping:
		keys = append(keys, styles.Warn.Render("stopping after in-flight scenarios..."))
	case m.Running:
		keys = append(keys, styles.RenderKey("q", "Stop"), styles.RenderKey("Ctrl+C", "Abort"))
	default:
		keys = append(keys, styles.RenderKey("q", "Quit"))
	}
	if m.CurrentView == ViewHistory {
		keys = append(keys, styles.RenderKey("Enter", "Open"), styles.RenderKey("Esc", "Back"))
	}
	footer := styles.FooterBase.Width(m.Width).Render(strings.Join(keys, "   "))

	if m.StatusMsg != "" {
		status := styles.Box.Render(m.StatusMsg)
		return lipgloss.JoinVertical(lipgloss.Left, navBar, panel, status, footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, navBar, panel, footer)
}

// HistoryBrowser is a standalone program over the stored runs.
type HistoryBrowser struct {
	List history.Model
}

func NewHistoryBrowser(store *storage.Store) HistoryBrowser {
	return HistoryBrowser{List: history.NewModel(store)}
}

func (b HistoryBrowser) Init() tea.Cmd { return nil }

func (b HistoryBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c", "q":
			return b, tea.Quit
		}
	}
	var cmd tea.Cmd
	b.List, cmd = b.List.Update(msg)
	return b, cmd
}

func (b HistoryBrowser) View() string {
	keys := strings.Join([]string{
		styles.RenderKey("↑/↓", "Move"),
		styles.RenderKey("Enter", "Open"),
		styles.RenderKey("Esc", "Back"),
		styles.RenderKey("q", "Quit"),
	}, "   ")
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("📜 Run History"),
		b.List.View(),
		styles.FooterBase.Render(keys),
	)
}
