package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"habitline/internal/cloudsync"
	"habitline/internal/engine"
	"habitline/internal/storage"
	"habitline/internal/ui"
)

// Syncer is the part of the reconciler the board drives.
type Syncer interface {
	Reconnect(ctx context.Context) (cloudsync.Outcome, error)
	Status() cloudsync.Status
}

type boardModel struct {
	ctx  context.Context
	svc  *engine.Service
	sync Syncer

	width  int
	height int

	state *storage.State

	selected int
	slot     int

	adding bool
	input  textinput.Model

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	state *storage.State
	err   error
}

// refreshMsg is sent by the renderer whenever the state changed elsewhere.
type refreshMsg struct{}

type actionMsg struct {
	log string
	err error
}

func newBoardModel(ctx context.Context, svc *engine.Service, sync Syncer) boardModel {
	in := textinput.New()
	in.Placeholder = "New daily habit..."
	in.Width = 50
	in.CharLimit = 200
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		sync:    sync,
		input:   in,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.RolloverPlans(m.ctx); err != nil {
			return loadedMsg{err: err}
		}
		st, err := m.svc.State()
		return loadedMsg{state: st, err: err}
	}
}

func (m boardModel) toggleCmd(line taskLine, slot int) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.ToggleProgressSlot(m.ctx, line.cat, line.id, slot)
		if err != nil {
			return actionMsg{err: err}
		}
		switch {
		case res.Archived:
			return actionMsg{log: fmt.Sprintf("%s %s: cycle %d archived, +%d bonus XP", ui.BadgeArchived, line.text, res.Cycles, res.Bonus)}
		case res.Checked:
			return actionMsg{log: fmt.Sprintf("%s: +%d XP", line.text, res.XPDelta)}
		default:
			return actionMsg{log: fmt.Sprintf("%s: %d XP", line.text, res.XPDelta)}
		}
	}
}

func (m boardModel) flagCmd(kind engine.PlanKind, flag string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.svc.TogglePlanFlag(m.ctx, kind, flag)
		if err != nil {
			return actionMsg{err: err}
		}
		switch {
		case res.WeekCompleted:
			return actionMsg{log: fmt.Sprintf("%s week completed! savings %d", kind, res.Savings)}
		case res.DayCompleted:
			return actionMsg{log: fmt.Sprintf("%s day completed, streak %d/%d", kind, res.Streak, engine.PlanWeekLength)}
		default:
			return actionMsg{log: fmt.Sprintf("%s %s: %v", kind, flag, res.Checked)}
		}
	}
}

func (m boardModel) addCmd(cat storage.Category, text string) tea.Cmd {
	return func() tea.Msg {
		t, err := m.svc.CreateTask(m.ctx, engine.CreateTaskInput{Category: cat, Text: text})
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{log: fmt.Sprintf("Added %q to %s", t.Text, engine.CategoryLabel(cat))}
	}
}

func (m boardModel) syncCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.sync.Reconnect(m.ctx)
		if err != nil {
			return actionMsg{err: fmt.Errorf("sync: %w", err)}
		}
		return actionMsg{log: "Sync: " + string(out)}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.state = msg.state
		m.clampCursor()
		return m, nil
	case refreshMsg:
		return m, m.loadCmd()
	case actionMsg:
		if msg.err != nil {
			m.lastLog = "Failed: " + msg.err.Error()
		} else {
			m.lastLog = msg.log
		}
		// Mutations re-render through refreshMsg; sync errors and no-ops still need a reload.
		return m, m.loadCmd()
	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			m.clampCursor()
			return m, nil
		case "down", "j":
			m.selected++
			m.clampCursor()
			return m, nil
		case "left", "h":
			if m.slot > 0 {
				m.slot--
			}
			return m, nil
		case "right", "l":
			m.slot++
			m.clampCursor()
			return m, nil
		case " ", "enter":
			lines := m.taskLines()
			if m.selected < 0 || m.selected >= len(lines) {
				return m, nil
			}
			return m, m.toggleCmd(lines[m.selected], m.slot)
		case "a":
			m.adding = true
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		case "s":
			if m.sync == nil {
				m.lastLog = "Cloud sync is not configured."
				return m, nil
			}
			m.lastLog = "Syncing…"
			if m.sync.Status() == cloudsync.StatusOffline {
				m.lastLog = "Reconnecting…"
			}
			return m, m.syncCmd()
		case "1", "2", "3":
			flag := engine.PlanLanguage.Flags()[int(msg.String()[0]-'1')]
			return m, m.flagCmd(engine.PlanLanguage, flag)
		case "4", "5", "6":
			flag := engine.PlanSpiritual.Flags()[int(msg.String()[0]-'4')]
			return m, m.flagCmd(engine.PlanSpiritual, flag)
		}
	}
	return m, nil
}

func (m boardModel) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.adding = false
		m.input.Blur()
		m.lastLog = "Cancelled."
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.adding = false
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		return m, m.addCmd(m.selectedCategory(), text)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

type taskLine struct {
	cat      storage.Category
	id       string
	text     string
	xp       int
	progress []bool
	cycles   int
	subsDone int
	subs     int
}

func (m boardModel) taskLines() []taskLine {
	if m.state == nil {
		return nil
	}
	var out []taskLine
	for _, cat := range storage.Categories {
		for _, t := range m.state.Tasks[cat] {
			l := taskLine{cat: cat, id: t.ID, text: t.Text, xp: t.XP, progress: t.Progress, cycles: t.CyclesCompleted, subs: len(t.Subtasks)}
			for _, s := range t.Subtasks {
				if s.Done {
					l.subsDone++
				}
			}
			out = append(out, l)
		}
	}
	return out
}

func (m *boardModel) clampCursor() {
	lines := m.taskLines()
	if m.selected >= len(lines) {
		m.selected = len(lines) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected < len(lines) {
		if n := len(lines[m.selected].progress); m.slot >= n {
			m.slot = n - 1
		}
	}
	if m.slot < 0 {
		m.slot = 0
	}
}

func (m boardModel) selectedCategory() storage.Category {
	lines := m.taskLines()
	if m.selected >= 0 && m.selected < len(lines) {
		return lines[m.selected].cat
	}
	return storage.CategoryMental
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := m.renderFooter()

	leftW := 30
	if m.width > 0 {
		maxLeft := m.width / 2
		if maxLeft < leftW {
			leftW = maxLeft
		}
		if leftW < 20 {
			leftW = 20
		}
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	rows := max(len(linesLeft), len(linesRight))

	var body strings.Builder
	for i := 0; i < rows; i++ {
		l := ""
		r := ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	if m.state == nil {
		return "habitline — loading…"
	}
	total := engine.TotalXP(m.state)
	inLevel, _ := engine.LevelProgress(total)
	bar := progressBar(inLevel, engine.LevelSize, 30)
	status := "local"
	if m.sync != nil {
		status = string(m.sync.Status())
	}
	return fmt.Sprintf("habitline | Level %d | XP %d %s | %s | sync: %s",
		engine.Level(total), total, bar, ui.Coins(m.state.Coins), ui.SyncStatusText(status))
}

func (m boardModel) renderSidebar() string {
	if m.state == nil {
		return "Stats\n\nLoading…"
	}
	lines := []string{"Categories"}
	for _, cat := range storage.Categories {
		lines = append(lines, fmt.Sprintf("- %s %-6s %5d XP %3.0f%%", ui.CategoryIcon(string(cat)), engine.CategoryLabel(cat), m.state.XP[cat], engine.GoalProgress(m.state, cat)))
	}
	lines = append(lines, "")
	lines = append(lines, renderPlan("Language", m.state.English, engine.PlanLanguage.Flags(), 1)...)
	lines = append(lines, "")
	lines = append(lines, renderPlan("Spiritual", m.state.Spiritual, engine.PlanSpiritual.Flags(), 4)...)
	lines = append(lines, "")
	lines = append(lines, "Keys")
	lines = append(lines, "- ↑/↓ j/k: task  ←/→ h/l: slot")
	lines = append(lines, "- space: toggle slot")
	lines = append(lines, "- 1-6: plan checklist")
	lines = append(lines, "- a: add  s: sync  r: refresh")
	lines = append(lines, "- q: quit")
	return strings.Join(lines, "\n")
}

func renderPlan(title string, p storage.PlanState, flags []string, firstKey int) []string {
	out := []string{fmt.Sprintf("%s streak %d/%d  savings %d", title, p.WeeklyStreak, engine.PlanWeekLength, p.Savings)}
	if p.CurrentMonth >= 0 && p.CurrentMonth < len(p.Plan) {
		out = append(out, "  "+p.Plan[p.CurrentMonth].Title)
	}
	for i, f := range flags {
		out = append(out, fmt.Sprintf("  %d %s %s", firstKey+i, ui.Flag(p.Daily[f]), f))
	}
	return out
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	lines := m.taskLines()
	var out []string
	var cat storage.Category
	for i, tl := range lines {
		if tl.cat != cat {
			if cat != "" {
				out = append(out, "")
			}
			cat = tl.cat
			out = append(out, ui.CategoryIcon(string(cat))+" "+engine.CategoryLabel(cat))
		}
		cursor := "  "
		grid := ui.Grid(tl.progress)
		if i == m.selected {
			cursor = "> "
			grid = renderGridCursor(tl.progress, m.slot)
		}
		extra := ""
		if tl.cycles > 0 {
			extra += fmt.Sprintf(" %s%d", ui.IconLoop, tl.cycles)
		}
		if tl.subs > 0 {
			extra += fmt.Sprintf(" (%d/%d)", tl.subsDone, tl.subs)
		}
		out = append(out, fmt.Sprintf("%s%s %s +%d%s", cursor, grid, tl.text, tl.xp, extra))
	}
	if len(out) == 0 {
		out = append(out, "(no habits yet, press a)")
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	if m.adding {
		return "\n" + fmt.Sprintf("Add to %s: ", engine.CategoryLabel(m.selectedCategory())) + m.input.View()
	}
	return "\n" + m.lastLog
}

func renderGridCursor(progress []bool, slot int) string {
	var b strings.Builder
	for i, p := range progress {
		cell := "□"
		if p {
			cell = "■"
		}
		if i == slot {
			b.WriteString(ui.SelectedRow.Render(cell))
		} else if p {
			b.WriteString(ui.Good.Render(cell))
		} else {
			b.WriteString(ui.Dim.Render(cell))
		}
	}
	return b.String()
}

func progressBar(value int, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	ratio := float64(value) / float64(total)
	filled := int(ratio * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
