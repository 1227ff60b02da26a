package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

// ConversationList is the conversation list table.
type ConversationList struct {
	*tview.Table
	theme   *ui.Theme
	now     func() time.Time
	convs   []*chat.Conversation
	visible []*chat.Conversation
	filter  string
	mode    convstore.ListFilter
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
		now:   time.Now,
		mode:  convstore.ListAll,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "u", Description: "Unread only"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update replaces the listed conversations, in list order.
func (cl *ConversationList) Update(convs []*chat.Conversation, mode convstore.ListFilter) {
	selected := cl.SelectedID()
	cl.convs = convs
	cl.mode = mode
	cl.render()
	cl.Highlight(selected)
}

// SetFilter sets the name filter and re-renders.
func (cl *ConversationList) SetFilter(filter string) {
	cl.filter = strings.TrimSpace(filter)
	cl.render()
}

// Filter returns the active name filter.
func (cl *ConversationList) Filter() string { return cl.filter }

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" UNREAD", 0},
		{" LAST ACTIVE", 0},
		{" ", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	cl.visible = cl.visible[:0]
	for _, c := range cl.convs {
		if !MatchesFilter(c, cl.filter) {
			continue
		}
		cl.visible = append(cl.visible, c)
		row := len(cl.visible)

		nameColor := cl.theme.FgColor
		if c.Deleted {
			nameColor = cl.theme.RecalledColor
		}
		unread := ""
		if c.Unread > 0 {
			unread = fmt.Sprintf("%d", c.Unread)
		}
		presence := ""
		if c.Online {
			presence = "●"
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(DisplayName(c)))).SetExpansion(1).SetTextColor(nameColor))
		cl.SetCell(row, 1, tview.NewTableCell(unread).SetAlign(tview.AlignRight).SetTextColor(cl.theme.UnreadColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+FormatListTime(c.LastActive, cl.now())).SetAlign(tview.AlignRight).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 3, tview.NewTableCell(presence).SetTextColor(cl.theme.OnlineColor))
	}

	title := " Conversations "
	if cl.mode == convstore.ListUnread {
		title = " Unread "
	}
	if cl.filter != "" {
		cl.SetTitle(fmt.Sprintf("%s(%d/%d) filter: %s ", title, len(cl.visible), len(cl.convs), tview.Escape(cl.filter)))
	} else {
		cl.SetTitle(fmt.Sprintf("%s(%d) ", title, len(cl.convs)))
	}
}

// SelectedID returns the partner id of the highlighted row.
func (cl *ConversationList) SelectedID() string {
	row, _ := cl.GetSelection()
	return cl.ByIndex(row)
}

// ByIndex returns the partner id of the Nth visible conversation (1-based).
func (cl *ConversationList) ByIndex(n int) string {
	if n < 1 || n > len(cl.visible) {
		return ""
	}
	return cl.visible[n-1].PartnerID
}

// Highlight highlights the row of partner id, if it is visible.
func (cl *ConversationList) Highlight(id string) {
	if id == "" {
		return
	}
	for i, c := range cl.visible {
		if c.PartnerID == id {
			cl.Select(i+1, 0)
			return
		}
	}
}

// DisplayName returns the conversation name, falling back to the partner id.
func DisplayName(c *chat.Conversation) string {
	if c == nil {
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	return c.PartnerID
}

// MatchesFilter reports whether c's name or id contains filter,
// case-insensitively. An empty filter matches everything.
func MatchesFilter(c *chat.Conversation, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ToLower(filter)
	return strings.Contains(strings.ToLower(c.Name), f) || strings.Contains(c.PartnerID, f)
}

// FormatListTime renders a conversation's last activity: HH:MM today, MM/DD
// this year, YYYY-MM-DD otherwise.
func FormatListTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(now.Location())
	switch {
	case t.Year() == now.Year() && t.YearDay() == now.YearDay():
		return t.Format("15:04")
	case t.Year() == now.Year():
		return t.Format("01/02")
	default:
		return t.Format("2006-01-02")
	}
}
