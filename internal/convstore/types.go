package convstore

import (
	"time"

	"github.com/matheus3301/dmchat/internal/chat"
)

// FilterMode selects which fixed view of a conversation is shown.
type FilterMode string

const (
	ModeAll    FilterMode = "all"
	ModeUnread FilterMode = "unread"
	ModeSaved  FilterMode = "saved"
)

// SenderFilter restricts the "all" view to one side of the conversation.
type SenderFilter string

const (
	SenderAll     SenderFilter = ""
	SenderMe      SenderFilter = "me"
	SenderPartner SenderFilter = "partner"
)

// ListFilter selects which conversations the conversation list shows.
type ListFilter string

const (
	ListAll    ListFilter = "all"
	ListUnread ListFilter = "unread"
)

// DateRange bounds message timestamps inclusively. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether both bounds are open.
func (d DateRange) IsZero() bool {
	return d.Start.IsZero() && d.End.IsZero()
}

// Contains reports whether t falls inside the range.
func (d DateRange) Contains(t time.Time) bool {
	if !d.Start.IsZero() && t.Before(d.Start) {
		return false
	}
	if !d.End.IsZero() && t.After(d.End) {
		return false
	}
	return true
}

// Selection is a snapshot of the filter state.
type Selection struct {
	Mode      FilterMode
	Sender    SenderFilter
	DateRange DateRange
	Query     string
}

// SearchKey identifies one cached filtered result.
type SearchKey struct {
	ConversationID string
	Sender         SenderFilter
	Query          string
	Start          int64
	End            int64
}

// SearchEntry is a cached filtered and sorted subset plus the number of
// entries currently materialized in the view.
type SearchEntry struct {
	Messages []*chat.Message
	Cursor   int
}

// Visible returns the first Cursor messages.
func (e *SearchEntry) Visible() []*chat.Message {
	if e == nil {
		return nil
	}
	n := e.Cursor
	if n > len(e.Messages) {
		n = len(e.Messages)
	}
	return e.Messages[:n]
}

// HasMore reports whether the cursor has not reached the end.
func (e *SearchEntry) HasMore() bool {
	return e != nil && e.Cursor < len(e.Messages)
}

// ReplyDraft is the pending "replying to message X" state of the composer.
type ReplyDraft struct {
	ConversationID  string
	TargetMessageID int64
	PreviewText     string
	SenderID        string
	HasImage        bool
	Attachments     []chat.Attachment
}
