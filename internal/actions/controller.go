// Package actions implements the per-message commands: reply, send, recall,
// save, unsave and forward. Every command validates before touching the
// transport, writes its result back to the Store and reports the outcome
// through a Notifier.
package actions

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/msgview"
	"github.com/matheus3301/dmchat/internal/selector"
	"github.com/matheus3301/dmchat/internal/transport"
)

// User-visible notification texts.
const (
	SavedText          = "Message saved"
	AlreadySavedText   = "Message already saved"
	UnsavedText        = "Message removed from saved"
	RecallFailedText   = "Could not recall message"
	SendFailedText     = "Could not send message"
	SaveFailedText     = "Could not save message"
	ForwardPendingText = "Choose a conversation to forward to"
)

// View is the part of the selector the controller needs: the header flags
// and a re-render after the Store changed.
type View interface {
	Header() selector.Header
	Render()
	Unsaved(conversationID string, messageID int64)
}

// Refresher re-materializes the displayed set of the open conversation.
type Refresher interface {
	Refresh()
}

// ForwardRequest is the payload of forward.requested events.
type ForwardRequest struct {
	ConversationID string
	MessageID      int64
}

// Options configures a Controller.
type Options struct {
	SelfID string
	Logger *zap.Logger
	Bus    *bus.Bus
	// NewClientID generates client message ids. Defaults to uuid v4.
	NewClientID func() string
}

// Controller runs message actions against the open conversation.
type Controller struct {
	store    *convstore.Store
	caps     transport.Capabilities
	view     View
	refresh  Refresher
	notifier Notifier
	opts     Options
	logger   *zap.Logger
}

// New creates a controller. view, refresh and notifier may be nil.
func New(store *convstore.Store, caps transport.Capabilities, view View, refresh Refresher, notifier Notifier, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewClientID == nil {
		opts.NewClientID = func() string { return uuid.NewString() }
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Controller{
		store:    store,
		caps:     caps.WithDefaults(),
		view:     view,
		refresh:  refresh,
		notifier: notifier,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Reply makes m the target of the Reply Draft. The stored copy of the message
// is preferred over m because it carries the fullest attachment data.
func (c *Controller) Reply(m *chat.Message) error {
	if m == nil || m.ID <= 0 {
		return c.invalid("cannot reply to this message")
	}
	conv := m.ConversationID
	if conv == "" {
		conv = c.store.CurrentConversation()
	}
	if stored := c.store.Message(conv, m.ID); stored != nil {
		m = stored
	}
	if m.Recall == chat.RecallSoft && m.SenderID == c.opts.SelfID {
		return c.invalid("cannot reply to a recalled message")
	}

	d := convstore.ReplyDraft{
		ConversationID:  conv,
		TargetMessageID: m.ID,
		PreviewText:     strings.TrimSpace(m.Content),
		SenderID:        m.SenderID,
		HasImage:        chat.IsImageMessage(m),
	}
	if d.HasImage {
		d.Attachments = chat.ImageAttachments(m.Attachments)
		if d.PreviewText == "" || chat.IsUploadPlaceholder(d.PreviewText) {
			d.PreviewText = msgview.ImageReplyText
		}
	}
	c.store.SetReplyDraft(d)
	return nil
}

// CancelReply clears the Reply Draft.
func (c *Controller) CancelReply() {
	c.store.ClearReplyDraft()
}

// Send delivers content to the open conversation, replying to the Reply
// Draft's target when there is one. The stored result is appended to the
// conversation and the draft is cleared.
func (c *Controller) Send(ctx context.Context, content string) (*chat.Message, error) {
	id := c.store.CurrentConversation()
	conv := c.store.Conversation(id)
	if conv == nil {
		return nil, c.invalid("no conversation is open")
	}
	if conv.Deleted {
		return nil, c.invalid("this account has been deactivated")
	}
	if c.view != nil && c.view.Header().ConversationID == id && c.view.Header().Blocked {
		return nil, c.invalid("you cannot message this user")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, c.invalid("message is empty")
	}

	req := transport.SendRequest{ReceiverID: id, Content: content, ClientMsgID: c.opts.NewClientID()}
	if d := c.store.ReplyDraft(); d != nil && d.ConversationID == id {
		target := d.TargetMessageID
		req.ReplyTo = &target
	}
	res, err := c.caps.Sender.SendMessage(ctx, req)
	if err != nil || !res.Success || res.Message == nil {
		reason := res.Error
		if err != nil {
			reason = err.Error()
		}
		c.logger.Warn("send message failed", zap.String("conversation", id), zap.String("reason", reason))
		c.notifier.Err(SendFailedText)
		return nil, chat.NetworkError("send message", err)
	}

	m, ok := chat.FromRecord(*res.Message, id)
	if !ok {
		return nil, chat.NetworkError("send message", errors.New("server returned a recalled message"))
	}
	if _, err := c.store.AppendMessage(id, m); err != nil {
		return nil, err
	}
	c.store.ClearReplyDraft()
	c.rerender(id)
	c.logger.Debug("message sent", zap.String("conversation", id), zap.Int64("id", m.ID))
	return m, nil
}

// Recall withdraws a message sent by the local user. It acts immediately
// without confirmation.
func (c *Controller) Recall(ctx context.Context, conversationID string, messageID int64) error {
	if messageID <= 0 {
		return c.invalid("cannot recall this message")
	}
	m := c.store.Message(conversationID, messageID)
	if m == nil {
		return c.invalid("message not found")
	}
	if m.SenderID != c.opts.SelfID {
		return c.invalid("only the sender can recall a message")
	}
	if m.Recall != chat.RecallNone {
		return nil
	}

	ok, err := c.caps.Recaller.RecallMessage(ctx, messageID)
	if err != nil || !ok {
		c.logger.Warn("recall failed", zap.Int64("id", messageID), zap.Error(err))
		c.notifier.Err(RecallFailedText)
		return chat.NetworkError("recall message", err)
	}
	if err := c.store.SetRecall(conversationID, messageID, chat.RecallSoft); err != nil {
		return err
	}
	c.rerender(conversationID)
	return nil
}

// Save adds a received message to the saved list. Saving it again is a no-op
// that still tells the user.
func (c *Controller) Save(ctx context.Context, conversationID string, messageID int64) error {
	m, err := c.saveTarget(conversationID, messageID)
	if err != nil {
		return err
	}
	added, err := c.caps.Saved.SaveMessage(ctx, m)
	if err != nil {
		c.logger.Warn("save message failed", zap.Int64("id", messageID), zap.Error(err))
		c.notifier.Err(SaveFailedText)
		return err
	}
	if !added {
		c.notifier.Info(AlreadySavedText)
		return nil
	}
	c.store.NotifySaved(conversationID)
	c.notifier.Info(SavedText)
	return nil
}

// Unsave removes a received message from the saved list.
func (c *Controller) Unsave(ctx context.Context, conversationID string, messageID int64) error {
	if _, err := c.saveTarget(conversationID, messageID); err != nil {
		return err
	}
	if err := c.caps.Saved.UnsaveMessage(ctx, messageID); err != nil {
		c.logger.Warn("unsave message failed", zap.Int64("id", messageID), zap.Error(err))
		c.notifier.Err(SaveFailedText)
		return err
	}
	c.store.NotifySaved(conversationID)
	if c.view != nil {
		c.view.Unsaved(conversationID, messageID)
	}
	c.notifier.Info(UnsavedText)
	return nil
}

// Forward announces a forward request. Choosing the target conversation is
// left to the presentation layer.
func (c *Controller) Forward(conversationID string, messageID int64) error {
	if c.store.Message(conversationID, messageID) == nil {
		return c.invalid("message not found")
	}
	c.opts.Bus.Emit(bus.KindForwardRequested, ForwardRequest{ConversationID: conversationID, MessageID: messageID})
	c.notifier.Info(ForwardPendingText)
	return chat.ErrForwardUnsupported
}

// saveTarget checks that a message may be saved by the local user: it must
// be loaded, received and not hard-recalled. Hard recalls are dropped when
// records are decoded, so the last check never fires for decoded messages.
func (c *Controller) saveTarget(conversationID string, messageID int64) (*chat.Message, error) {
	if messageID <= 0 {
		return nil, c.invalid("cannot save this message")
	}
	m := c.store.Message(conversationID, messageID)
	if m == nil {
		return nil, c.invalid("message not found")
	}
	if m.ReceiverID != c.opts.SelfID {
		return nil, c.invalid("only received messages can be saved")
	}
	if m.Recall == chat.RecallHard {
		return nil, c.invalid("message was deleted")
	}
	return m, nil
}

func (c *Controller) rerender(conversationID string) {
	if c.store.CurrentConversation() != conversationID {
		return
	}
	if c.refresh != nil {
		c.refresh.Refresh()
	}
	if c.view != nil {
		c.view.Render()
	}
}

func (c *Controller) invalid(reason string) error {
	c.logger.Info("action rejected", zap.String("reason", reason))
	c.notifier.Warn(reason)
	return chat.Invalid("%s", reason)
}
