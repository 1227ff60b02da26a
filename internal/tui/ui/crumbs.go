package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Crumbs is a breadcrumb bar showing the page stack and the active filters.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

// NewCrumbs creates a new breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &Crumbs{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the breadcrumb trail. badges are appended after the last
// crumb, e.g. "unread" or "q:hello".
func (c *Crumbs) Update(stack []string, badges ...string) {
	c.Clear()
	if len(stack) == 0 {
		return
	}

	parts := make([]string, 0, len(stack))
	for i, name := range stack {
		fg, bg, attr := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg, ""
		if i == len(stack)-1 {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		parts = append(parts, fmt.Sprintf("[%s:%s:%s] %s [-:-:-]",
			colorName(fg), colorName(bg), attr, tview.Escape(name)))
	}
	line := strings.Join(parts, " > ")
	for _, b := range badges {
		if b == "" {
			continue
		}
		line += fmt.Sprintf(" [%s](%s)[-]", colorName(c.theme.CounterColor), tview.Escape(b))
	}
	_, _ = fmt.Fprint(c, line)
}

// colorName returns a tview-compatible color name string.
func colorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
