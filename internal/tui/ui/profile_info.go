package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// ProfileData holds profile information for the header panel.
type ProfileData struct {
	Profile       string
	UserID        string
	LoadState     string
	Conversations int
	Unread        int
	Archived      int64
}

// ProfileInfo displays profile metadata in the header.
type ProfileInfo struct {
	*tview.TextView
	theme *Theme
}

// NewProfileInfo creates a new profile info panel.
func NewProfileInfo(theme *Theme) *ProfileInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &ProfileInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the profile info.
func (pi *ProfileInfo) Update(data *ProfileData) {
	pi.Clear()
	if data == nil {
		return
	}

	fg := colorName(pi.theme.FgColor)
	ct := colorName(pi.theme.CounterColor)
	row := func(label, value string) string {
		return fmt.Sprintf("[%s::b]%-8s[-:-:-] [%s]%s[-]\n", fg, label, ct, tview.Escape(value))
	}

	_, _ = fmt.Fprint(pi,
		row("Profile:", data.Profile)+
			row("User:", data.UserID)+
			row("State:", data.LoadState)+
			row("Chats:", fmt.Sprint(data.Conversations))+
			row("Unread:", fmt.Sprint(data.Unread))+
			row("Archive:", fmt.Sprintf("%d msgs", data.Archived)),
	)
}
