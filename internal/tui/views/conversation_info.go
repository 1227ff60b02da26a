package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/selector"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders conversation details with the header flags of the
// selector.
func (ci *ConversationInfo) Update(c *chat.Conversation, h selector.Header) {
	ci.Clear()
	if c == nil {
		return
	}

	fg := ui.ColorTag(ci.theme.FgColor)
	ct := ui.ColorTag(ci.theme.CounterColor)

	lastActive := "-"
	if !c.LastActive.IsZero() {
		lastActive = c.LastActive.Local().Format(time.DateTime)
	}
	avatar := "-"
	if h.Avatar != nil {
		avatar = h.Avatar.URL
		if avatar == "" {
			avatar = "badge " + h.Avatar.Initial
		}
	}

	rows := [][2]string{
		{"Name:", DisplayName(c)},
		{"User ID:", c.PartnerID},
		{"Avatar:", avatar},
		{"Online:", yesNo(c.Online)},
		{"Blocked:", yesNo(h.Blocked)},
		{"Deactivated:", yesNo(c.Deleted)},
		{"Unread:", fmt.Sprint(c.Unread)},
		{"Loaded:", fmt.Sprintf("%d messages", len(c.Messages))},
		{"Last Active:", lastActive},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(ci, " [%s::b]%-13s[-:-:-] [%s]%s[-]\n", fg, r[0], ct, esc(r[1]))
	}
	ci.SetTitle(fmt.Sprintf(" %s Details ", tview.Escape(DisplayName(c))))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
