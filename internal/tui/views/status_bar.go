package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/status"
)

// StatusBar displays the profile, the load state and the active selection.
type StatusBar struct {
	*tview.TextView
	profile string
	state   status.State
	sel     convstore.Selection
	matches string
}

// NewStatusBar creates a new status bar.
func NewStatusBar(profile string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, profile: profile, state: status.Idle}
	sb.render()
	return sb
}

// SetLoadState updates the load state indicator.
func (sb *StatusBar) SetLoadState(s status.State) {
	sb.state = s
	sb.render()
}

// SetSelection updates the filter summary.
func (sb *StatusBar) SetSelection(sel convstore.Selection) {
	sb.sel = sel
	sb.render()
}

// SetMatches shows the search result counter, e.g. "20/45".
func (sb *StatusBar) SetMatches(shown, total int) {
	if total == 0 && shown == 0 {
		sb.matches = ""
	} else {
		sb.matches = fmt.Sprintf("%d/%d", shown, total)
	}
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	_, _ = fmt.Fprint(sb, StatusLine(sb.profile, sb.state, sb.sel, sb.matches))
}

// StatusLine renders the status bar text.
func StatusLine(profile string, state status.State, sel convstore.Selection, matches string) string {
	icon := ""
	switch state {
	case status.Loading:
		icon = " [yellow]…[-]"
	case status.Error:
		icon = " [red]![-]"
	}
	parts := []string{
		fmt.Sprintf(" [::b]%s[-:-:-]", tview.Escape(profile)),
		string(state) + icon,
		"mode:" + string(sel.Mode),
	}
	if sel.Sender != convstore.SenderAll {
		parts = append(parts, "from:"+string(sel.Sender))
	}
	if !sel.DateRange.IsZero() {
		parts = append(parts, "dates:"+formatRange(sel.DateRange))
	}
	if q := strings.TrimSpace(sel.Query); q != "" {
		parts = append(parts, "q:"+tview.Escape(Truncate(q, 20)))
	}
	if matches != "" {
		parts = append(parts, matches)
	}
	return strings.Join(parts, " | ")
}

func formatRange(dr convstore.DateRange) string {
	const layout = "2006-01-02"
	start, end := "…", "…"
	if !dr.Start.IsZero() {
		start = dr.Start.Format(layout)
	}
	if !dr.End.IsZero() {
		end = dr.End.Format(layout)
	}
	return start + ".." + end
}

func itoa(n int) string {
	return fmt.Sprint(n)
}
