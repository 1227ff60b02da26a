package views

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/msgview"
	"github.com/matheus3301/dmchat/internal/selector"
	"github.com/matheus3301/dmchat/internal/status"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

func TestRenderView(t *testing.T) {
	theme := ui.DefaultTheme()
	base := msgview.Base{ID: 7, SenderID: "2", TimeLabel: "09:15"}

	tests := []struct {
		name     string
		view     msgview.View
		want     []string
		dontWant []string
	}{
		{
			name: "incoming text",
			view: msgview.TextView{Base: base, Text: "hello [there]"},
			want: []string{"Bob", "09:15", "hello [there[]"},
		},
		{
			name:     "outgoing read",
			view:     msgview.TextView{Base: msgview.Base{ID: 8, Outgoing: true, Read: true, TimeLabel: "09:16"}, Text: "hi"},
			want:     []string{YouLabel, "✓✓"},
			dontWant: []string{"Bob"},
		},
		{
			name:     "recalled",
			view:     msgview.TextView{Base: msgview.Base{ID: 9, Recalled: true}, Text: "secret"},
			want:     []string{msgview.RecalledText},
			dontWant: []string{"secret"},
		},
		{
			name: "reply",
			view: msgview.TextView{Base: msgview.Base{ID: 10, Reply: &msgview.ReplyPreview{MessageID: 7, Text: "hello\nthere"}}, Text: "yes"},
			want: []string{"┃ hello there"},
		},
		{
			name: "images",
			view: msgview.ImageView{Base: base, Images: []msgview.Image{{Full: "/u/a.png", Name: "a.png"}, {Unavailable: true}}},
			want: []string{"a.png", msgview.ImageUnavailableText},
		},
		{
			name: "system",
			view: msgview.SystemView{ID: -1, Text: "Today"},
			want: []string{"Today"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderView(tt.view, "Bob", theme)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("RenderView() = %q, missing %q", got, w)
				}
			}
			for _, w := range tt.dontWant {
				if strings.Contains(got, w) {
					t.Errorf("RenderView() = %q, should not contain %q", got, w)
				}
			}
		})
	}
}

func TestReplySnippetImage(t *testing.T) {
	if got := ReplySnippet(&msgview.ReplyPreview{IsImage: true, Text: "ignored"}); got != msgview.ImageReplyText {
		t.Errorf("ReplySnippet() = %q, want %q", got, msgview.ImageReplyText)
	}
}

func TestHeaderLine(t *testing.T) {
	theme := ui.DefaultTheme()
	if got := HeaderLine(selector.Header{}, theme); got != "" {
		t.Errorf("empty header = %q", got)
	}
	got := HeaderLine(selector.Header{ConversationID: "2", Name: "Bob", Online: true}, theme)
	if !strings.Contains(got, "Bob") || !strings.Contains(got, "online") {
		t.Errorf("online header = %q", got)
	}
	got = HeaderLine(selector.Header{ConversationID: "4", Deleted: true, Blocked: true}, theme)
	if !strings.Contains(got, "4") || !strings.Contains(got, DeactivatedHeader) || strings.Contains(got, BlockedInputText) {
		t.Errorf("deleted header = %q", got)
	}
	got = HeaderLine(selector.Header{ConversationID: "5", Blocked: true}, theme)
	if !strings.Contains(got, BlockedInputText) {
		t.Errorf("blocked header = %q", got)
	}
}

func TestPaginationLine(t *testing.T) {
	tests := []struct {
		p    selector.Pagination
		want string
	}{
		{selector.Pagination{}, ""},
		{selector.Pagination{Visible: true, HasMore: true}, LoadOlderHint},
		{selector.Pagination{Visible: true}, BeginningHint},
	}
	for _, tt := range tests {
		if got := PaginationLine(tt.p); got != tt.want {
			t.Errorf("PaginationLine(%+v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"héllo", 2, "h…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestFormatListTime(t *testing.T) {
	now := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, ""},
		{"today", time.Date(2026, 7, 1, 9, 5, 0, 0, time.UTC), "09:05"},
		{"this year", time.Date(2026, 2, 14, 9, 5, 0, 0, time.UTC), "02/14"},
		{"last year", time.Date(2025, 12, 31, 9, 5, 0, 0, time.UTC), "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatListTime(tt.t, now); got != tt.want {
				t.Errorf("FormatListTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchesFilter(t *testing.T) {
	c := &chat.Conversation{PartnerID: "42", Name: "Alice Smith"}
	for filter, want := range map[string]bool{
		"":      true,
		"alice": true,
		"SMITH": true,
		"42":    true,
		"bob":   false,
	} {
		if got := MatchesFilter(c, filter); got != want {
			t.Errorf("MatchesFilter(%q) = %v, want %v", filter, got, want)
		}
	}
	if got := DisplayName(&chat.Conversation{PartnerID: "9"}); got != "9" {
		t.Errorf("DisplayName() = %q, want partner id", got)
	}
}

func TestStatusLine(t *testing.T) {
	sel := convstore.Selection{
		Mode:      convstore.ModeUnread,
		Sender:    convstore.SenderMe,
		DateRange: convstore.DateRange{Start: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		Query:     "lunch",
	}
	got := StatusLine("work", status.Loading, sel, "3/10")
	for _, w := range []string{"work", "LOADING", "mode:unread", "from:me", "dates:2026-01-02..…", "q:lunch", "3/10"} {
		if !strings.Contains(got, w) {
			t.Errorf("StatusLine() = %q, missing %q", got, w)
		}
	}

	got = StatusLine("default", status.Loaded, convstore.Selection{Mode: convstore.ModeAll}, "")
	if strings.Contains(got, "from:") || strings.Contains(got, "q:") {
		t.Errorf("StatusLine() = %q, should omit unset filters", got)
	}
}
