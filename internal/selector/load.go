package selector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/msgview"
	"github.com/matheus3301/dmchat/internal/status"
)

// Rendered is the payload of selector.rendered events.
type Rendered struct {
	ConversationID string
	Views          int
}

// fetch loads limit records at offset. Non-success results become network
// errors; a result arriving after the conversation was left becomes ErrStale.
func (s *Selector) fetch(ctx context.Context, id string, gen uint64, limit, offset int) ([]*chat.Message, int, error) {
	res, err := s.caps.Fetcher.FetchConversationMessages(ctx, s.opts.SelfID, id, limit, offset)
	if !s.store.IsActive(id, gen) {
		return nil, 0, chat.ErrStale
	}
	if err != nil {
		return nil, 0, chat.NetworkError("fetch messages", err)
	}
	if !res.Success {
		return nil, 0, chat.NetworkError("fetch messages", nil)
	}
	return chat.FromRecords(res.Messages, id), len(res.Messages), nil
}

// loadPage fetches one normal-mode page and merges it into the Store. Page 1
// replaces the loaded window; later pages are prepended.
func (s *Selector) loadPage(ctx context.Context, id string, gen uint64, page int) error {
	size := s.opts.PageSize
	msgs, raw, err := s.fetch(ctx, id, gen, size, (page-1)*size)
	if err != nil {
		return err
	}
	if page == 1 {
		err = s.store.SetMessages(id, msgs)
	} else {
		_, err = s.store.PrependMessages(id, msgs)
	}
	if err != nil {
		return err
	}
	s.store.SetPage(id, page)
	s.store.SetHasMore(id, raw >= size)

	if s.engine != nil {
		s.engine.Refresh()
	} else {
		s.store.SetDisplayed(s.store.Messages(id))
	}
	s.mu.Lock()
	s.pagination = Pagination{Visible: true, HasMore: raw >= size, Page: page}
	s.mu.Unlock()
	return nil
}

func (s *Selector) loadUnread(ctx context.Context, id string, gen uint64) error {
	msgs, _, err := s.fetch(ctx, id, gen, s.opts.BulkLimit, 0)
	if err != nil {
		return err
	}
	if err := s.store.SetMessages(id, msgs); err != nil {
		return err
	}
	var unread []*chat.Message
	for _, m := range msgs {
		if m.ReceiverID == s.opts.SelfID && !m.Read {
			unread = append(unread, m)
		}
	}
	text := NoUnreadText
	if len(unread) > 0 {
		text = fmt.Sprintf(unreadSummaryText, len(unread))
	}
	s.showFixed(id, text, unread)
	return nil
}

func (s *Selector) loadSaved(ctx context.Context, id string, gen uint64) error {
	ids, err := s.caps.Saved.SavedIDs(ctx, id)
	if !s.store.IsActive(id, gen) {
		return chat.ErrStale
	}
	if err != nil {
		return chat.NetworkError("saved ids", err)
	}
	if len(ids) == 0 {
		s.showFixed(id, NoSavedText, nil)
		return nil
	}

	msgs, _, err := s.fetch(ctx, id, gen, s.opts.BulkLimit, 0)
	if err != nil {
		return err
	}
	if err := s.store.SetMessages(id, msgs); err != nil {
		return err
	}
	wanted := make(map[int64]bool, len(ids))
	for _, v := range ids {
		wanted[v] = true
	}
	var saved []*chat.Message
	for _, m := range msgs {
		if wanted[m.ID] {
			saved = append(saved, m)
		}
	}
	s.showFixed(id, fmt.Sprintf(savedSummaryText, len(saved)), saved)
	return nil
}

// showFixed displays a summary line followed by msgs, with pagination hidden.
func (s *Selector) showFixed(id, summary string, msgs []*chat.Message) {
	ts := s.opts.Now()
	if len(msgs) > 0 {
		ts = msgs[0].Timestamp
	}
	out := make([]*chat.Message, 0, len(msgs)+1)
	out = append(out, chat.SystemMessage(id, idSummary, summary, ts))
	out = append(out, msgs...)
	s.store.SetDisplayed(out)
	s.mu.Lock()
	s.pagination = Pagination{}
	s.mu.Unlock()
}

func (s *Selector) showError(id string) {
	s.store.SetDisplayed([]*chat.Message{chat.SystemMessage(id, idError, LoadFailedText, s.opts.Now())})
	s.mu.Lock()
	s.pagination = Pagination{}
	s.mu.Unlock()
}

func (s *Selector) showDeleted(id string, conv *chat.Conversation) Outcome {
	s.store.SetDisplayed([]*chat.Message{chat.SystemMessage(id, idPlaceholder, DeactivatedText, s.opts.Now())})
	s.mu.Lock()
	s.pagination = Pagination{}
	s.actions = []Action{ActionClearConversation}
	s.header = Header{
		ConversationID: id,
		Name:           conv.Name,
		Avatar:         msgview.PartnerAvatar(conv, id),
		Deleted:        true,
		Blocked:        true,
	}
	s.mu.Unlock()
	s.transition(id, status.DeletedPeer)
	s.Render()
	return Outcome{State: status.DeletedPeer}
}

// markRead zeroes the unread counter of a conversation that had unread
// messages and reports it to the server. Under the unread list filter the
// conversation leaves the list.
func (s *Selector) markRead(ctx context.Context, id string) {
	conv := s.store.Conversation(id)
	if conv == nil || conv.Unread == 0 {
		return
	}
	if err := s.caps.Reader.MarkConversationRead(ctx, id); err != nil {
		s.logger.Warn("mark conversation read failed", zap.String("conversation", id), zap.Error(err))
	}
	if _, err := s.store.MarkRead(id); err != nil {
		return
	}
	if s.store.ListFilter() == convstore.ListUnread {
		s.store.RemoveFromList(id)
	}
}

func (s *Selector) refreshHeader(ctx context.Context, id string, gen uint64) {
	blocked, err := s.caps.Blocks.CheckIfBlocked(ctx, s.opts.SelfID, id)
	if err != nil {
		s.logger.Warn("block check failed", zap.String("conversation", id), zap.Error(err))
		blocked = false
	}
	if !s.store.IsActive(id, gen) {
		return
	}
	conv := s.store.Conversation(id)
	if conv == nil {
		return
	}
	s.mu.Lock()
	s.header = Header{
		ConversationID: id,
		Name:           conv.Name,
		Avatar:         msgview.PartnerAvatar(conv, id),
		Online:         conv.Online,
		Blocked:        blocked,
	}
	s.mu.Unlock()
}

// Render rebuilds the views of the open conversation from the Store's
// displayed messages.
func (s *Selector) Render() {
	id := s.store.CurrentConversation()
	conv := s.store.Conversation(id)
	var views []msgview.View
	if conv != nil {
		views = s.builder.BuildAll(s.store.Displayed(), conv)
	}
	s.mu.Lock()
	s.views = views
	if conv != nil && s.pagination.Visible {
		s.pagination.HasMore = s.store.HasMore(id)
	}
	s.mu.Unlock()
	s.bus.Emit(bus.KindSelectorRendered, Rendered{ConversationID: id, Views: len(views)})
}

// Unsaved drops messageID from the fixed saved set of the open conversation
// and re-renders its summary. Outside saved mode it does nothing.
func (s *Selector) Unsaved(conversationID string, messageID int64) {
	if s.store.CurrentConversation() != conversationID || s.store.FilterMode() != convstore.ModeSaved {
		return
	}
	var saved []*chat.Message
	for _, m := range s.store.Displayed() {
		if m.ID > 0 && m.ID != messageID {
			saved = append(saved, m)
		}
	}
	if len(saved) == 0 {
		s.showFixed(conversationID, NoSavedText, nil)
	} else {
		s.showFixed(conversationID, fmt.Sprintf(savedSummaryText, len(saved)), saved)
	}
	s.Render()
}

// RefreshConversation updates the header flags of the open conversation
// after a realtime change, without fetching.
func (s *Selector) RefreshConversation(id string) {
	if s.store.CurrentConversation() != id {
		return
	}
	conv := s.store.Conversation(id)
	if conv == nil {
		return
	}
	s.mu.Lock()
	s.header.Online = conv.Online
	s.mu.Unlock()
}
