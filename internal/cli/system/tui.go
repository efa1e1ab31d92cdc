package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/tui"
)

type TuiCmd struct {
	Mode string `help:"Calendar mode new days are created in." default:"poster" enum:"poster,grid,film,dark,minimal"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	ctx.PerformAutomaticBackup(bg)

	p := tea.NewProgram(tui.NewModel(ctx.Days(), ctx.Now(), c.Mode), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return ctx.Days().Flush(bg)
}
