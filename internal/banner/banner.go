package banner

import (
	"github.com/charmbracelet/lipgloss"

	"contendq/internal/tui/styles"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
                 __              ______ 
  _______  ___  / /____ ___  ___/ / __ \
 / __/ _ \/ _ \/ __/ -_) _ \/ _  / /_/ /
 \__/\___/_//_/\__/\__/_//_/\_,_/\___\_\
`

	return "\n" + style.Render(ascii) + "\n"
}
