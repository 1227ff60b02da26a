package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/matheus3301/dmchat/internal/msgview"
	"github.com/matheus3301/dmchat/internal/selector"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

// Labels used by the renderer.
const (
	YouLabel          = "You"
	LoadOlderHint     = "── k at the top or :more loads older messages ──"
	BeginningHint     = "── beginning of conversation ──"
	BlockedInputText  = "You cannot message this user"
	DeactivatedHeader = "deactivated"
)

// RenderView renders one message view as tview markup. partner names the
// sender of incoming messages.
func RenderView(v msgview.View, partner string, theme *ui.Theme) string {
	switch v := v.(type) {
	case msgview.SystemView:
		return fmt.Sprintf("[%s::i]  %s[-:-:-]\n", ui.ColorTag(theme.SystemColor), esc(v.Text))
	case msgview.ImageView:
		body := renderImages(v.Images)
		if v.Recalled {
			body = recalled(theme)
		}
		return renderBase(v.Base, partner, body, theme)
	case msgview.TextView:
		body := esc(v.Text)
		if v.Recalled {
			body = recalled(theme)
		}
		return renderBase(v.Base, partner, body, theme)
	}
	return ""
}

func renderBase(b msgview.Base, partner, body string, theme *ui.Theme) string {
	var sb strings.Builder
	sender, color := partner, theme.IncomingColor
	if b.Outgoing {
		sender, color = YouLabel, theme.OutgoingColor
	}
	badge := ""
	if b.Avatar != nil && b.Avatar.Initial != "" && !b.Outgoing {
		badge = "(" + esc(b.Avatar.Initial) + ") "
	}
	_, _ = fmt.Fprintf(&sb, "%s[%s::b]%s[-:-:-] [::d]%s[-:-:-]", badge, ui.ColorTag(color), esc(sender), b.TimeLabel)
	if b.Outgoing && b.Read {
		sb.WriteString(" [::d]✓✓[-:-:-]")
	}
	sb.WriteString("\n")
	if b.Reply != nil {
		_, _ = fmt.Fprintf(&sb, "[%s]  ┃ %s[-]\n", ui.ColorTag(theme.ReplyColor), esc(ReplySnippet(b.Reply)))
	}
	sb.WriteString("  ")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\n  "))
	sb.WriteString("\n")
	return sb.String()
}

func renderImages(images []msgview.Image) string {
	parts := make([]string, 0, len(images))
	for _, img := range images {
		if img.Unavailable {
			parts = append(parts, "["+msgview.ImageUnavailableText+"]")
			continue
		}
		name := img.Name
		if name == "" {
			name = img.Full
		}
		parts = append(parts, "🖼 "+esc(name))
	}
	return strings.Join(parts, "\n")
}

func recalled(theme *ui.Theme) string {
	return fmt.Sprintf("[%s::i]%s[-:-:-]", ui.ColorTag(theme.RecalledColor), msgview.RecalledText)
}

// ReplySnippet is the one-line quote of a reply preview.
func ReplySnippet(r *msgview.ReplyPreview) string {
	if r.IsImage {
		return msgview.ImageReplyText
	}
	text := strings.Join(strings.Fields(r.Text), " ")
	return Truncate(text, 60)
}

// HeaderLine renders the conversation header.
func HeaderLine(h selector.Header, theme *ui.Theme) string {
	if h.ConversationID == "" {
		return ""
	}
	name := h.Name
	if name == "" {
		name = h.ConversationID
	}
	line := fmt.Sprintf("[%s::b]%s[-:-:-]", ui.ColorTag(theme.TitleColor), esc(name))
	switch {
	case h.Deleted:
		line += fmt.Sprintf(" [%s](%s)[-]", ui.ColorTag(theme.RecalledColor), DeactivatedHeader)
	case h.Online:
		line += fmt.Sprintf(" [%s]● online[-]", ui.ColorTag(theme.OnlineColor))
	}
	if h.Blocked && !h.Deleted {
		line += fmt.Sprintf(" [%s]%s[-]", ui.ColorTag(theme.FlashWarnColor), BlockedInputText)
	}
	return line
}

// PaginationLine renders the "load older" control, or "" when hidden.
func PaginationLine(p selector.Pagination) string {
	if !p.Visible {
		return ""
	}
	if p.HasMore {
		return LoadOlderHint
	}
	return BeginningHint
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func esc(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}
