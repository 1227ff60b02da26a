package convstore

import (
	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
)

// Messages returns the loaded messages of a conversation in timestamp order.
func (s *Store) Messages(id string) []*chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.conversations[id]
	if c == nil {
		return nil
	}
	return append([]*chat.Message(nil), c.Messages...)
}

// Message returns one loaded message, or nil.
func (s *Store) Message(conversationID string, id int64) *chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations[conversationID].FindMessage(id)
}

// SetMessages replaces the loaded window of a conversation.
func (s *Store) SetMessages(id string, msgs []*chat.Message) error {
	s.mu.Lock()
	c := s.conversations[id]
	if c == nil {
		s.mu.Unlock()
		return chat.ErrNotFound
	}
	window := dedupe(nil, msgs)
	chat.SortByTime(window)
	c.Messages = window
	s.invalidateLocked(id)
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessagesChanged, id)
	return nil
}

// PrependMessages adds older messages in front of the loaded window. Messages
// already loaded are skipped. It returns how many were added.
func (s *Store) PrependMessages(id string, older []*chat.Message) (int, error) {
	s.mu.Lock()
	c := s.conversations[id]
	if c == nil {
		s.mu.Unlock()
		return 0, chat.ErrNotFound
	}
	before := len(c.Messages)
	window := dedupe(c.Messages, older)
	chat.SortByTime(window)
	c.Messages = window
	added := len(window) - before
	s.invalidateLocked(id)
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessagesChanged, id)
	return added, nil
}

// AppendMessage adds a new message to the end of the loaded window and bumps
// the conversation's last activity. It returns false if the id is already
// loaded.
func (s *Store) AppendMessage(id string, m *chat.Message) (bool, error) {
	if m == nil {
		return false, chat.Invalid("nil message")
	}
	s.mu.Lock()
	c := s.conversations[id]
	if c == nil {
		s.mu.Unlock()
		return false, chat.ErrNotFound
	}
	if c.FindMessage(m.ID) != nil {
		s.mu.Unlock()
		return false, nil
	}
	window := make([]*chat.Message, 0, len(c.Messages)+1)
	window = append(window, c.Messages...)
	window = append(window, m)
	chat.SortByTime(window)
	c.Messages = window
	if m.Timestamp.After(c.LastActive) {
		c.LastActive = m.Timestamp
	}
	s.invalidateLocked(id)
	s.rebuildListLocked()
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessagesChanged, id)
	return true, nil
}

// SetRecall records a recall state on a loaded message. The message is
// replaced, not mutated, so earlier snapshots keep the old state.
func (s *Store) SetRecall(conversationID string, id int64, state chat.RecallState) error {
	s.mu.Lock()
	c := s.conversations[conversationID]
	if c == nil {
		s.mu.Unlock()
		return chat.ErrNotFound
	}
	updated := false
	window := make([]*chat.Message, len(c.Messages))
	for i, m := range c.Messages {
		if m.ID == id {
			cp := m.Clone()
			cp.Recall = state
			m = cp
			updated = true
		}
		window[i] = m
	}
	if !updated {
		s.mu.Unlock()
		return chat.ErrNotFound
	}
	c.Messages = window
	s.replaceDisplayedLocked(window)
	s.invalidateLocked(conversationID)
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessagesChanged, conversationID)
	return nil
}

// MarkRead zeroes the unread count and marks every loaded message received
// from the partner as read. It returns the previous unread count.
func (s *Store) MarkRead(conversationID string) (int, error) {
	s.mu.Lock()
	c := s.conversations[conversationID]
	if c == nil {
		s.mu.Unlock()
		return 0, chat.ErrNotFound
	}
	prev := c.Unread
	c.Unread = 0
	window := make([]*chat.Message, len(c.Messages))
	for i, m := range c.Messages {
		if !m.Read && m.SenderID == conversationID {
			cp := m.Clone()
			cp.Read = true
			m = cp
		}
		window[i] = m
	}
	c.Messages = window
	s.replaceDisplayedLocked(window)
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationsChanged, conversationID)
	return prev, nil
}

// IncrementUnread adds n to a conversation's unread count.
func (s *Store) IncrementUnread(conversationID string, n int) {
	s.mu.Lock()
	c := s.conversations[conversationID]
	if c == nil {
		s.mu.Unlock()
		return
	}
	c.Unread += n
	if c.Unread < 0 {
		c.Unread = 0
	}
	s.rebuildListLocked()
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationsChanged, conversationID)
}

// SetOnline records partner presence.
func (s *Store) SetOnline(conversationID string, online bool) {
	s.mu.Lock()
	c := s.conversations[conversationID]
	if c == nil || c.Online == online {
		s.mu.Unlock()
		return
	}
	c.Online = online
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationsChanged, conversationID)
}

// ReleaseMessages drops the loaded window of a conversation and returns every
// local preview handle its messages referenced, so the caller can free them.
func (s *Store) ReleaseMessages(conversationID string) []string {
	s.mu.Lock()
	c := s.conversations[conversationID]
	if c == nil {
		s.mu.Unlock()
		return nil
	}
	var handles []string
	seen := make(map[string]bool)
	add := func(p string) {
		if chat.IsBlobPath(p) && !seen[p] {
			seen[p] = true
			handles = append(handles, p)
		}
	}
	for _, m := range c.Messages {
		for _, a := range m.Attachments {
			add(a.FilePath)
			add(a.ThumbnailPath)
		}
	}
	c.Messages = nil
	s.invalidateLocked(conversationID)
	s.mu.Unlock()
	return handles
}

// NotifySaved tells listeners that the saved set of a conversation changed.
func (s *Store) NotifySaved(conversationID string) {
	s.mu.Lock()
	s.invalidateLocked(conversationID)
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessagesChanged, conversationID)
}

// replaceDisplayedLocked swaps displayed entries for their updated copies.
func (s *Store) replaceDisplayedLocked(window []*chat.Message) {
	if len(s.displayed) == 0 {
		return
	}
	byID := make(map[int64]*chat.Message, len(window))
	for _, m := range window {
		byID[m.ID] = m
	}
	out := make([]*chat.Message, len(s.displayed))
	for i, m := range s.displayed {
		if up, ok := byID[m.ID]; ok && m.ConversationID == up.ConversationID {
			m = up
		}
		out[i] = m
	}
	s.displayed = out
}

func dedupe(base, extra []*chat.Message) []*chat.Message {
	out := make([]*chat.Message, 0, len(base)+len(extra))
	seen := make(map[int64]bool, len(base)+len(extra))
	for _, list := range [][]*chat.Message{base, extra} {
		for _, m := range list {
			if m == nil || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	return out
}
