package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/dmchat/internal/tui/ui"
)

// HelpView displays the key binding and command reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	_, _ = fmt.Fprint(hv, HelpText(ui.ColorTag(theme.MenuKeyColor)))
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Global Keys", [][2]string{
		{":", "Command mode"},
		{"?", "Help"},
		{"Esc", "Cancel / Go back"},
		{"Ctrl-C", "Quit"},
	}},
	{"Conversation List", [][2]string{
		{"Enter", "Open conversation"},
		{"1-9", "Open Nth conversation"},
		{"/", "Filter by name"},
		{"u", "Toggle unread only"},
		{"S", "Search the whole archive"},
	}},
	{"Message Thread", [][2]string{
		{"i", "Focus composer (Enter sends)"},
		{"j/k", "Select next / previous message"},
		{"r", "Reply to the selected message"},
		{"x", "Recall your selected message"},
		{"s / U", "Save / unsave the selected message"},
		{"f", "Forward the selected message"},
		{"/", "Search this conversation"},
		{"m", "Load older messages or more results"},
		{"d", "Conversation details"},
	}},
	{"Commands", [][2]string{
		{":mode all|unread|saved", "Switch the conversation view"},
		{":from all|me|them", "Filter by sender"},
		{":dates [start] [end]", "Limit to a date range (YYYY-MM-DD)"},
		{":list all|unread", "Filter the conversation list"},
		{":more", "Load older messages or more results"},
		{":clear", "Clear a deactivated conversation"},
		{":search <query>", "Search the whole archive"},
		{":quit / :q", "Quit"},
	}},
}

// HelpText renders the help reference with keys colored kc.
func HelpText(kc string) string {
	var sb strings.Builder
	for _, s := range helpSections {
		_, _ = fmt.Fprintf(&sb, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			_, _ = fmt.Fprintf(&sb, "  [%s]%-24s[-:-:-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	return sb.String()
}
