// Package transport declares the external capabilities the messaging core
// consumes. A missing capability is replaced by a typed no-op collaborator,
// so callers never check for presence at runtime.
package transport

import (
	"context"

	"github.com/matheus3301/dmchat/internal/chat"
)

// FetchResult is the outcome of a message page fetch.
type FetchResult struct {
	Success  bool
	Messages []chat.MessageRecord
}

// SendRequest is an outgoing message.
type SendRequest struct {
	ReceiverID  string
	Content     string
	ReplyTo     *int64
	ClientMsgID string
}

// SendResult is the outcome of a send.
type SendResult struct {
	Success bool
	Message *chat.MessageRecord
	Error   string
}

// ConversationRecord is the wire shape of a conversation list entry.
type ConversationRecord struct {
	PartnerID  string `json:"partner_id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	IsDeleted  bool   `json:"is_deleted"`
	Online     bool   `json:"online"`
	Unread     int    `json:"unread_count"`
	LastActive string `json:"last_active_at"`
}

// MessageFetcher loads a page of a conversation, newest first.
type MessageFetcher interface {
	FetchConversationMessages(ctx context.Context, userID, partnerID string, limit, offset int) (FetchResult, error)
}

// MessageSender delivers an outgoing message.
type MessageSender interface {
	SendMessage(ctx context.Context, req SendRequest) (SendResult, error)
}

// ReadMarker marks a conversation read on the server.
type ReadMarker interface {
	MarkConversationRead(ctx context.Context, partnerID string) error
}

// BlockChecker reports whether input to a partner is blocked.
type BlockChecker interface {
	CheckIfBlocked(ctx context.Context, userID, partnerID string) (bool, error)
}

// SavedMessages tracks the saved-message list. SaveMessage reports false when
// the message was already saved.
type SavedMessages interface {
	SavedIDs(ctx context.Context, partnerID string) ([]int64, error)
	SaveMessage(ctx context.Context, m *chat.Message) (bool, error)
	UnsaveMessage(ctx context.Context, messageID int64) error
}

// Recaller withdraws a message sent by the local user.
type Recaller interface {
	RecallMessage(ctx context.Context, messageID int64) (bool, error)
}

// ConversationLister loads the conversation list.
type ConversationLister interface {
	ListConversations(ctx context.Context, userID string) ([]ConversationRecord, error)
}

// ConversationClearer clears a conversation.
type ConversationClearer interface {
	ClearConversation(ctx context.Context, partnerID string) error
}

// PreviewReleaser frees a locally held image preview handle.
type PreviewReleaser interface {
	Release(handle string)
}

// Capabilities is the full collaborator set. Zero fields are filled by
// WithDefaults.
type Capabilities struct {
	Fetcher  MessageFetcher
	Sender   MessageSender
	Reader   ReadMarker
	Blocks   BlockChecker
	Saved    SavedMessages
	Recaller Recaller
	Lister   ConversationLister
	Clearer  ConversationClearer
	Previews PreviewReleaser
}

// WithDefaults returns c with every missing capability replaced by Nop.
func (c Capabilities) WithDefaults() Capabilities {
	var nop Nop
	if c.Fetcher == nil {
		c.Fetcher = nop
	}
	if c.Sender == nil {
		c.Sender = nop
	}
	if c.Reader == nil {
		c.Reader = nop
	}
	if c.Blocks == nil {
		c.Blocks = nop
	}
	if c.Saved == nil {
		c.Saved = nop
	}
	if c.Recaller == nil {
		c.Recaller = nop
	}
	if c.Lister == nil {
		c.Lister = nop
	}
	if c.Clearer == nil {
		c.Clearer = nop
	}
	if c.Previews == nil {
		c.Previews = nop
	}
	return c
}

// All builds a Capabilities set in which every capability is served by impl.
func All(impl interface {
	MessageFetcher
	MessageSender
	ReadMarker
	BlockChecker
	SavedMessages
	Recaller
	ConversationLister
	ConversationClearer
	PreviewReleaser
}) Capabilities {
	return Capabilities{
		Fetcher:  impl,
		Sender:   impl,
		Reader:   impl,
		Blocks:   impl,
		Saved:    impl,
		Recaller: impl,
		Lister:   impl,
		Clearer:  impl,
		Previews: impl,
	}
}

// Nop is the collaborator used for absent capabilities. Reads return empty
// results; writes report failure without error so callers surface them as
// network failures.
type Nop struct{}

func (Nop) FetchConversationMessages(context.Context, string, string, int, int) (FetchResult, error) {
	return FetchResult{Success: true}, nil
}

func (Nop) SendMessage(context.Context, SendRequest) (SendResult, error) {
	return SendResult{Error: "sending is not available"}, nil
}

func (Nop) MarkConversationRead(context.Context, string) error { return nil }

func (Nop) CheckIfBlocked(context.Context, string, string) (bool, error) { return false, nil }

func (Nop) SavedIDs(context.Context, string) ([]int64, error) { return nil, nil }

func (Nop) SaveMessage(context.Context, *chat.Message) (bool, error) {
	return false, chat.NetworkError("save message", nil)
}

func (Nop) UnsaveMessage(context.Context, int64) error {
	return chat.NetworkError("unsave message", nil)
}

func (Nop) RecallMessage(context.Context, int64) (bool, error) { return false, nil }

func (Nop) ListConversations(context.Context, string) ([]ConversationRecord, error) {
	return nil, nil
}

func (Nop) ClearConversation(context.Context, string) error { return nil }

func (Nop) Release(string) {}
