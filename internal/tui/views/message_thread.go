package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/msgview"
	"github.com/matheus3301/dmchat/internal/selector"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

// MessageThread displays the open conversation: header, messages, the reply
// banner and a composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	header   *tview.TextView
	messages *tview.TextView
	reply    *tview.TextView
	composer *tview.InputField

	views   []msgview.View
	convID  string
	partner string
	cursor  int
	blocked bool
	onSend  func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	header := tview.NewTextView().SetDynamicColors(true)
	header.SetBackgroundColor(theme.BgColor)

	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitleColor(theme.TitleColor)

	reply := tview.NewTextView().SetDynamicColors(true)
	reply.SetBackgroundColor(theme.BgColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(messages, 0, 1, true).
		AddItem(reply, 0, 0, false).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		header:   header,
		messages: messages,
		reply:    reply,
		composer: composer,
		cursor:   -1,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || mt.onSend == nil || mt.blocked {
			return
		}
		if text := strings.TrimSpace(composer.GetText()); text != "" {
			mt.onSend(text)
		}
	})

	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.partner != "" {
		return mt.partner
	}
	return "Messages"
}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "j/k", Description: "Select"},
		{Key: "r", Description: "Reply"},
		{Key: "x", Description: "Recall"},
		{Key: "s", Description: "Save"},
		{Key: "f", Description: "Forward"},
		{Key: "/", Description: "Search"},
		{Key: "m", Description: "More"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnSend sets the callback when the composer is submitted.
func (mt *MessageThread) SetOnSend(fn func(text string)) {
	mt.onSend = fn
}

// ClearComposer empties the composer after a successful send.
func (mt *MessageThread) ClearComposer() {
	mt.composer.SetText("")
}

// Update renders the views of the open conversation. The selection follows
// the same message id when it is still shown, otherwise the newest message.
func (mt *MessageThread) Update(h selector.Header, views []msgview.View, p selector.Pagination) {
	var selectedID int64
	if v := mt.Selected(); v != nil {
		selectedID = v.MessageID()
	}
	sameConversation := mt.convID == h.ConversationID

	mt.convID = h.ConversationID
	mt.partner = h.Name
	if mt.partner == "" {
		mt.partner = h.ConversationID
	}
	mt.views = views
	mt.blocked = h.Blocked
	mt.header.SetText(HeaderLine(h, mt.theme))
	mt.messages.SetTitle(fmt.Sprintf(" %s (%d) ", tview.Escape(mt.partner), len(views)))

	mt.cursor = len(views) - 1
	if sameConversation && selectedID != 0 {
		for i, v := range views {
			if v.MessageID() == selectedID {
				mt.cursor = i
				break
			}
		}
	}

	if h.Blocked {
		mt.composer.SetLabel(" ✕ ")
		mt.composer.SetPlaceholder(BlockedInputText)
	} else {
		mt.composer.SetLabel(" > ")
		mt.composer.SetPlaceholder("")
	}

	var sb strings.Builder
	if line := PaginationLine(p); line != "" {
		_, _ = fmt.Fprintf(&sb, "[%s]%s[-]\n\n", ui.ColorTag(mt.theme.SystemColor), line)
	}
	for i, v := range views {
		_, _ = fmt.Fprintf(&sb, `["%s"]%s[""]`+"\n", regionID(i), RenderView(v, mt.partner, mt.theme))
	}
	mt.messages.SetText(sb.String())
	mt.highlight()
}

// SetReplyDraft shows or hides the reply banner above the composer.
func (mt *MessageThread) SetReplyDraft(d *convstore.ReplyDraft) {
	if d == nil {
		mt.reply.Clear()
		mt.ResizeItem(mt.reply, 0, 0)
		return
	}
	text := d.PreviewText
	if d.HasImage && text == "" {
		text = msgview.ImageReplyText
	}
	mt.reply.SetText(fmt.Sprintf(" [%s]↩ replying to:[-] %s  [::d](Esc cancels)[-:-:-]",
		ui.ColorTag(mt.theme.ReplyColor), esc(Truncate(strings.TrimSpace(text), 60))))
	mt.ResizeItem(mt.reply, 1, 0)
}

// Move shifts the selection by delta and reports whether it hit the top.
func (mt *MessageThread) Move(delta int) (atTop bool) {
	if len(mt.views) == 0 {
		return true
	}
	next := mt.cursor + delta
	if next < 0 {
		mt.cursor = 0
		mt.highlight()
		return true
	}
	mt.cursor = min(next, len(mt.views)-1)
	mt.highlight()
	return false
}

// Selected returns the highlighted view, or nil.
func (mt *MessageThread) Selected() msgview.View {
	if mt.cursor < 0 || mt.cursor >= len(mt.views) {
		return nil
	}
	return mt.views[mt.cursor]
}

func (mt *MessageThread) highlight() {
	if mt.cursor < 0 {
		mt.messages.Highlight()
		return
	}
	mt.messages.Highlight(regionID(mt.cursor))
	mt.messages.ScrollToHighlight()
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}

func regionID(i int) string {
	return fmt.Sprintf("v%d", i)
}
