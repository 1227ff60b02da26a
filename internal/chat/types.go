// Package chat holds the direct-messaging data model shared by every
// component: conversations, messages, attachments and the derived image
// classification.
package chat

import "time"

// RecallState describes whether a message was withdrawn by its sender.
type RecallState int

const (
	RecallNone RecallState = iota
	// RecallSoft hides the content from the sender but leaves it visible
	// to the receiver.
	RecallSoft
	// RecallHard is a destructive delete. Such messages never reach the
	// client; FromRecord drops them.
	RecallHard
)

func (r RecallState) String() string {
	switch r {
	case RecallSoft:
		return "soft"
	case RecallHard:
		return "hard"
	default:
		return "none"
	}
}

// ParseRecallState maps a recall_type wire value to a RecallState.
func ParseRecallState(s string) RecallState {
	switch s {
	case "soft", "SOFT", "recall", "recalled":
		return RecallSoft
	case "hard", "HARD", "delete", "deleted":
		return RecallHard
	default:
		return RecallNone
	}
}

// AttachmentImage is the type assumed for attachments without one.
const AttachmentImage = "image"

// Attachment is a file carried by a message.
type Attachment struct {
	Type             string
	FilePath         string
	ThumbnailPath    string
	OriginalFilename string
}

// ReplyRef points at the message being replied to, with a denormalized
// preview so it renders even when the original is not loaded.
type ReplyRef struct {
	MessageID   int64
	Text        string
	SenderID    string
	Attachments []Attachment
}

// Message is a single direct message inside a conversation.
type Message struct {
	ID             int64
	ConversationID string
	SenderID       string
	ReceiverID     string
	Content        string
	Attachments    []Attachment
	Recall         RecallState
	Read           bool
	Timestamp      time.Time
	Reply          *ReplyRef
	// System marks synthetic informational messages produced by the client
	// (summaries, placeholders, errors).
	System bool
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	if len(m.Attachments) > 0 {
		c.Attachments = append([]Attachment(nil), m.Attachments...)
	}
	if m.Reply != nil {
		r := *m.Reply
		if len(m.Reply.Attachments) > 0 {
			r.Attachments = append([]Attachment(nil), m.Reply.Attachments...)
		}
		c.Reply = &r
	}
	return &c
}

// Conversation is a direct-message thread with one partner.
type Conversation struct {
	PartnerID  string
	Name       string
	Avatar     string
	Deleted    bool
	Online     bool
	Unread     int
	LastActive time.Time
	// Messages is the loaded sliding window, ordered by timestamp ascending.
	Messages []*Message
}

// Clone returns a copy of c whose message slice can be modified freely.
// Message values are shared; the store never mutates them in place.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	if len(c.Messages) > 0 {
		out.Messages = append([]*Message(nil), c.Messages...)
	}
	return &out
}

// FindMessage returns the loaded message with the given id, or nil.
func (c *Conversation) FindMessage(id int64) *Message {
	if c == nil {
		return nil
	}
	for _, m := range c.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// SystemMessage builds a synthetic informational message for a conversation.
// Synthetic ids are negative so they never collide with server ids.
func SystemMessage(conversationID string, id int64, text string, ts time.Time) *Message {
	if id > 0 {
		id = -id
	}
	return &Message{
		ID:             id,
		ConversationID: conversationID,
		Content:        text,
		Timestamp:      ts,
		Read:           true,
		System:         true,
	}
}
