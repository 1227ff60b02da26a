package transport

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/store"
)

// Local serves every capability from the profile's SQLite archive, acting as
// user userID.
type Local struct {
	db     *store.DB
	userID string
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	released map[string]bool
}

// NewLocal creates a local transport over db.
func NewLocal(db *store.DB, userID string, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{
		db:       db,
		userID:   userID,
		logger:   logger,
		now:      time.Now,
		released: make(map[string]bool),
	}
}

// FetchConversationMessages implements MessageFetcher.
func (l *Local) FetchConversationMessages(ctx context.Context, userID, partnerID string, limit, offset int) (FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}
	msgs, err := l.db.ListConversationMessages(userID, partnerID, limit, offset)
	if err != nil {
		return FetchResult{}, chat.NetworkError("fetch messages", err)
	}
	out := make([]chat.MessageRecord, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, RecordFromStore(m))
	}
	return FetchResult{Success: true, Messages: out}, nil
}

// SendMessage implements MessageSender.
func (l *Local) SendMessage(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}
	blocked, err := l.db.IsBlocked(l.userID, req.ReceiverID)
	if err != nil {
		return SendResult{}, chat.NetworkError("check block", err)
	}
	if blocked {
		return SendResult{Error: "you cannot message this user"}, nil
	}
	m := &store.Message{
		ClientMsgID: req.ClientMsgID,
		SenderID:    l.userID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		Timestamp:   l.now().UnixMilli(),
	}
	if req.ReplyTo != nil {
		m.ReplyToID = *req.ReplyTo
	}
	id, err := l.db.InsertMessage(m)
	if err != nil {
		return SendResult{}, chat.NetworkError("send message", err)
	}
	stored, err := l.db.GetMessage(id)
	if err != nil || stored == nil {
		return SendResult{}, chat.NetworkError("reload sent message", err)
	}
	rec := RecordFromStore(*stored)
	l.logger.Debug("message stored", zap.Int64("id", id), zap.String("receiver", req.ReceiverID))
	return SendResult{Success: true, Message: &rec}, nil
}

// MarkConversationRead implements ReadMarker.
func (l *Local) MarkConversationRead(_ context.Context, partnerID string) error {
	if _, err := l.db.MarkConversationRead(l.userID, partnerID); err != nil {
		return chat.NetworkError("mark read", err)
	}
	return nil
}

// CheckIfBlocked implements BlockChecker.
func (l *Local) CheckIfBlocked(_ context.Context, userID, partnerID string) (bool, error) {
	blocked, err := l.db.IsBlocked(userID, partnerID)
	if err != nil {
		return false, chat.NetworkError("check block", err)
	}
	return blocked, nil
}

// SavedIDs implements SavedMessages.
func (l *Local) SavedIDs(_ context.Context, partnerID string) ([]int64, error) {
	ids, err := l.db.SavedIDs(l.userID, partnerID)
	if err != nil {
		return nil, chat.NetworkError("saved ids", err)
	}
	return ids, nil
}

// SaveMessage implements SavedMessages.
func (l *Local) SaveMessage(_ context.Context, m *chat.Message) (bool, error) {
	if m == nil {
		return false, chat.Invalid("no message to save")
	}
	added, err := l.db.SaveMessage(l.userID, m.ID)
	if err != nil {
		return false, chat.NetworkError("save message", err)
	}
	return added, nil
}

// UnsaveMessage implements SavedMessages.
func (l *Local) UnsaveMessage(_ context.Context, messageID int64) error {
	if _, err := l.db.UnsaveMessage(l.userID, messageID); err != nil {
		return chat.NetworkError("unsave message", err)
	}
	return nil
}

// RecallMessage implements Recaller with a soft recall.
func (l *Local) RecallMessage(_ context.Context, messageID int64) (bool, error) {
	ok, err := l.db.RecallMessage(messageID, l.userID, false)
	if err != nil {
		return false, chat.NetworkError("recall message", err)
	}
	return ok, nil
}

// ListConversations implements ConversationLister.
func (l *Local) ListConversations(_ context.Context, userID string) ([]ConversationRecord, error) {
	convs, err := l.db.ListConversations(userID, 0, 0)
	if err != nil {
		return nil, chat.NetworkError("list conversations", err)
	}
	out := make([]ConversationRecord, 0, len(convs))
	for _, c := range convs {
		out = append(out, ConversationRecord{
			PartnerID:  c.UserID,
			Name:       c.Name,
			Avatar:     c.Avatar,
			IsDeleted:  c.IsDeleted,
			Online:     c.Online,
			Unread:     c.UnreadCount,
			LastActive: formatMillis(c.LastMessageAt),
		})
	}
	return out, nil
}

// ClearConversation implements ConversationClearer.
func (l *Local) ClearConversation(_ context.Context, partnerID string) error {
	n, err := l.db.ClearConversation(l.userID, partnerID)
	if err != nil {
		return chat.NetworkError("clear conversation", err)
	}
	l.logger.Info("conversation cleared", zap.String("partner", partnerID), zap.Int64("messages", n))
	return nil
}

// Release implements PreviewReleaser.
func (l *Local) Release(handle string) {
	l.mu.Lock()
	l.released[handle] = true
	l.mu.Unlock()
	l.logger.Debug("preview released", zap.String("handle", handle))
}

// Released reports whether a preview handle was released.
func (l *Local) Released(handle string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released[handle]
}

// RecordFromStore converts an archived message to the wire record.
func RecordFromStore(m store.Message) chat.MessageRecord {
	r := chat.MessageRecord{
		ID:              m.ID,
		SenderID:        chat.FlexID(m.SenderID),
		ReceiverID:      chat.FlexID(m.ReceiverID),
		Content:         m.Content,
		Timestamp:       formatMillis(m.Timestamp),
		RecallType:      m.RecallType,
		AttachmentCount: len(m.Attachments),
	}
	if m.ReadAt > 0 {
		readAt := formatMillis(m.ReadAt)
		r.ReadAt = &readAt
	}
	for _, a := range m.Attachments {
		r.Attachments = append(r.Attachments, chat.AttachmentRecord{
			AttachmentType:   a.Type,
			FilePath:         a.FilePath,
			ThumbnailPath:    a.ThumbnailPath,
			OriginalFilename: a.OriginalFilename,
		})
	}
	if m.ReplyToID > 0 {
		id := m.ReplyToID
		r.ReplyToID = &id
		r.ReplyToText = m.ReplyToText
		r.ReplyToSender = chat.FlexID(m.ReplyToSender)
	}
	return r
}

// ConversationFromRecord converts a conversation list entry.
func ConversationFromRecord(r ConversationRecord) chat.Conversation {
	c := chat.Conversation{
		PartnerID: r.PartnerID,
		Name:      r.Name,
		Avatar:    r.Avatar,
		Deleted:   r.IsDeleted,
		Online:    r.Online,
		Unread:    max(r.Unread, 0),
	}
	if ts, err := chat.ParseTimestamp(r.LastActive); err == nil {
		c.LastActive = ts
	}
	return c
}

func formatMillis(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}
