package history

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"contendq/internal/storage"
	"contendq/internal/tui/result"
	"contendq/internal/tui/styles"
)

// Model lists stored runs; enter opens the selected run, esc goes back.
type Model struct {
	Store *storage.Store
	Table table.Model
	Items []storage.HistoryItem
	Err   error

	Detail *result.Model

	Width  int
	Height int
}

func NewModel(store *storage.Store) Model {
	columns := []table.Column{
		{Title: "Time", Width: 20},
		{Title: "Suite", Width: 12},
		{Title: "Users", Width: 6},
		{Title: "Ops", Width: 8},
		{Title: "OK %", Width: 8},
		{Title: "Health", Width: 8},
		{Title: "P99 (ms)", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.ColorPrimary)
	s.Selected = s.Selected.
		Foreground(styles.ColorBg).
		Background(styles.ColorPrimary).
		Bold(true)
	t.SetStyles(s)

	m := Model{
		Store: store,
		Table: t,
	}
	m.Refresh()
	return m
}

func (m *Model) Refresh() {
	if m.Store == nil {
		return
	}
	items, err := m.Store.List()
	m.Items, m.Err = items, err

	rows := make([]table.Row, len(items))
	for i, item := range items {
		okPct := 0.0
		if item.Summary.Operations > 0 {
			okPct = float64(item.Summary.Successful) / float64(item.Summary.Operations) * 100
		}
		rows[i] = table.Row{
			item.Timestamp.Format("2006-01-02 15:04:05"),
			item.Config.Suite,
			fmt.Sprintf("%d", item.Config.NumUsers),
			fmt.Sprintf("%d", item.Summary.Operations),
			fmt.Sprintf("%.1f", okPct),
			fmt.Sprintf("%.1f%%", item.Summary.HealthyRate*100),
			fmt.Sprintf("%.1f", item.Summary.P99Ms),
		}
	}
	m.Table.SetRows(rows)
}

// Selected returns the highlighted run, or nil when the list is empty.
func (m Model) Selected() *storage.HistoryItem {
	i := m.Table.Cursor()
	if i < 0 || i >= len(m.Items) {
		return nil
	}
	return &m.Items[i]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)
		if msg.Height > 12 {
			m.Table.SetHeight(msg.Height - 10)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item := m.Selected(); item != nil {
				d := result.NewModel(item.Snapshot, item.Elapsed, nil)
				m.Detail = &d
			}
			return m, nil
		case "esc", "backspace":
			m.Detail = nil
			return m, nil
		}
	}

	if m.Detail != nil {
		return m, nil
	}
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Err != nil {
		return styles.Error.Render(fmt.Sprintf("failed to load history: %v", m.Err))
	}
	if m.Detail != nil {
		return m.Detail.View()
	}
	if len(m.Items) == 0 {
		return styles.Subtle.Render("No runs recorded yet.")
	}
	return styles.Box.Render(m.Table.View())
}
