package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"habitline/internal/engine"
)

// Renderer forwards RenderAll to a running board.
type Renderer struct {
	p *tea.Program
}

func (r Renderer) RenderAll() {
	r.p.Send(refreshMsg{})
}

// RunBoard runs the dashboard until the user quits. sync may be nil when
// cloud sync is not configured. onStart receives the renderer so callers
// can attach it to whatever else changes the state.
func RunBoard(ctx context.Context, svc *engine.Service, sync Syncer, out io.Writer, onStart func(Renderer)) error {
	m := newBoardModel(ctx, svc, sync)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithAltScreen(), tea.WithContext(ctx))
	r := Renderer{p: p}
	svc.SetRenderer(r)
	if onStart != nil {
		onStart(r)
	}
	_, err := p.Run()
	return err
}
