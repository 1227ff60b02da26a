package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Menu displays keyboard shortcut hints in columns of at most rows entries.
type Menu struct {
	*tview.TextView
	theme *Theme
	rows  int
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme, rows int) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)
	if rows <= 0 {
		rows = 6
	}

	return &Menu{
		TextView: tv,
		theme:    theme,
		rows:     rows,
	}
}

// Update renders menu hints column by column.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()

	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	lines := make([]string, min(len(hints), m.rows))
	for i, h := range hints {
		kc := keyColor
		if h.Numeric {
			kc = numColor
		}
		cell := fmt.Sprintf("[%s::b]%-9s[-:-:-] %-14s", kc, "<"+h.Key+">", h.Description)
		lines[i%m.rows] += cell
	}
	for _, l := range lines {
		_, _ = fmt.Fprintln(m, l)
	}
}
