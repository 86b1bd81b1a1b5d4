package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"contendq/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse previous runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		p := tea.NewProgram(tui.NewHistoryBrowser(store), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running history browser: %w", err)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print one stored run as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		item, err := store.Get(args[0])
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(item)
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
}
