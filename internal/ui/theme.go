package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// habitline theme (CLI + TUI).

const (
	IconMind     = "🧠"
	IconBody     = "🏋️"
	IconSpirit   = "✨"
	IconCoin     = "🪙"
	IconPlus     = "➕"
	IconDone     = "✅"
	IconTrophy   = "🏆"
	IconBolt     = "⚡"
	IconInfo     = "ℹ️"
	IconWarn     = "⚠️"
	IconError    = "🧨"
	IconLoop     = "🔁"
	IconScroll   = "📜"
	IconGift     = "🎁"
	IconTarget   = "🎯"
	IconCalendar = "📅"
	IconCloud    = "☁️"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	Dim   = lipgloss.NewStyle().Foreground(cMuted)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeArchived = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("CYCLE ARCHIVED")
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// CategoryIcon maps a category wire name to its icon.
func CategoryIcon(category string) string {
	switch category {
	case "mental":
		return IconMind
	case "fisico":
		return IconBody
	case "espiritual":
		return IconSpirit
	default:
		return IconScroll
	}
}

// Grid renders a progress grid as filled and empty squares.
func Grid(progress []bool) string {
	var b strings.Builder
	for _, p := range progress {
		if p {
			b.WriteString(Good.Render("■"))
		} else {
			b.WriteString(Dim.Render("□"))
		}
	}
	return b.String()
}

// Flag renders a checklist box.
func Flag(on bool) string {
	if on {
		return Good.Render("[x]")
	}
	return Dim.Render("[ ]")
}

// SyncStatusText colours a reconciler status.
func SyncStatusText(status string) string {
	switch status {
	case "synced", "synced-downloaded":
		return Good.Render(status)
	case "syncing", "uploading":
		return H2.Render(status)
	case "offline", "local-only":
		return Warn.Render(status)
	case "error":
		return Bad.Render(status)
	default:
		return Muted.Render(status)
	}
}

func Coins(n int) string {
	return Gold.Render(fmt.Sprintf("%s %d", IconCoin, n))
}
