// Package convstore is the single source of truth for conversation metadata,
// loaded messages and the scalar UI state of the messaging client.
//
// Getters return snapshots: conversations are cloned and message slices are
// copied. Messages themselves are shared but never mutated in place; updates
// replace the pointer (copy-on-write), so a snapshot stays consistent after
// the store changes. Every mutation publishes an event on the bus.
package convstore

import (
	"sort"
	"sync"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
)

// Store holds the client state for one session.
type Store struct {
	mu  sync.RWMutex
	bus *bus.Bus

	conversations map[string]*chat.Conversation
	list          []string
	listFilter    ListFilter

	current    string
	generation uint64

	mode      FilterMode
	sender    SenderFilter
	dateRange DateRange
	query     string

	pages   map[string]int
	hasMore map[string]bool

	displayed []*chat.Message
	cache     map[SearchKey]*SearchEntry

	draft          *ReplyDraft
	pendingUploads []string
}

// New creates an empty store that publishes change events on b (may be nil).
func New(b *bus.Bus) *Store {
	s := &Store{bus: b}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.conversations = make(map[string]*chat.Conversation)
	s.list = nil
	s.listFilter = ListAll
	s.current = ""
	s.generation++
	s.mode = ModeAll
	s.sender = SenderAll
	s.dateRange = DateRange{}
	s.query = ""
	s.pages = make(map[string]int)
	s.hasMore = make(map[string]bool)
	s.displayed = nil
	s.cache = make(map[SearchKey]*SearchEntry)
	s.draft = nil
	s.pendingUploads = nil
}

// Reset clears all state, e.g. on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationsChanged, nil)
}

// PutConversation inserts or updates conversation metadata. Loaded messages
// are kept when c carries none.
func (s *Store) PutConversation(c chat.Conversation) {
	if c.PartnerID == "" {
		return
	}
	s.mu.Lock()
	if existing, ok := s.conversations[c.PartnerID]; ok && len(c.Messages) == 0 {
		c.Messages = existing.Messages
	} else {
		c.Messages = append([]*chat.Message(nil), c.Messages...)
		chat.SortByTime(c.Messages)
	}
	if c.Unread < 0 {
		c.Unread = 0
	}
	s.conversations[c.PartnerID] = &c
	s.rebuildListLocked()
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationsChanged, c.PartnerID)
}

// RemoveConversation drops a conversation and everything cached for it.
func (s *Store) RemoveConversation(id string) {
	s.mu.Lock()
	delete(s.conversations, id)
	delete(s.pages, id)
	delete(s.hasMore, id)
	s.invalidateLocked(id)
	s.rebuildListLocked()
	if s.current == id {
		s.current = ""
		s.generation++
		s.displayed = nil
	}
	s.mu.Unlock()
	s.bus.Emit(bus.KindConversationsChanged, id)
}

// Conversations returns a snapshot of every conversation keyed by partner id.
func (s *Store) Conversations() map[string]*chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*chat.Conversation, len(s.conversations))
	for id, c := range s.conversations {
		out[id] = c.Clone()
	}
	return out
}

// Conversation returns a snapshot of one conversation, or nil if unknown.
func (s *Store) Conversation(id string) *chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations[id].Clone()
}

// CurrentConversation returns the open conversation id, or "" if none.
func (s *Store) CurrentConversation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrentConversation opens id ("" closes) and returns the new selection
// generation. Each call starts a new generation, even for the same id.
func (s *Store) SetCurrentConversation(id string) uint64 {
	s.mu.Lock()
	s.current = id
	s.generation++
	gen := s.generation
	if id == "" {
		s.displayed = nil
	}
	s.mu.Unlock()
	s.bus.Emit(bus.KindCurrentChanged, id)
	return gen
}

// Generation returns the current selection generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// IsActive reports whether id is still the open conversation of selection gen.
func (s *Store) IsActive(id string, gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current == id && s.generation == gen
}

// List returns the partner ids the conversation list shows, most recently
// active first.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.list...)
}

// ListFilter returns the conversation list filter.
func (s *Store) ListFilter() ListFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listFilter
}

// SetListFilter changes the conversation list filter and rebuilds the list.
func (s *Store) SetListFilter(f ListFilter) {
	if f != ListUnread {
		f = ListAll
	}
	s.mu.Lock()
	s.listFilter = f
	s.rebuildListLocked()
	s.mu.Unlock()
	s.bus.Emit(bus.KindListChanged, f)
}

// RemoveFromList removes id from the filtered list without rebuilding it.
func (s *Store) RemoveFromList(id string) bool {
	s.mu.Lock()
	removed := false
	for i, v := range s.list {
		if v == id {
			s.list = append(s.list[:i:i], s.list[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.bus.Emit(bus.KindListChanged, id)
	}
	return removed
}

func (s *Store) rebuildListLocked() {
	list := make([]string, 0, len(s.conversations))
	for id, c := range s.conversations {
		if s.listFilter == ListUnread && c.Unread == 0 {
			continue
		}
		list = append(list, id)
	}
	sort.SliceStable(list, func(i, j int) bool {
		a, b := s.conversations[list[i]], s.conversations[list[j]]
		if !a.LastActive.Equal(b.LastActive) {
			return a.LastActive.After(b.LastActive)
		}
		return list[i] < list[j]
	})
	s.list = list
}

// FilterMode returns the active filter mode.
func (s *Store) FilterMode() FilterMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetFilterMode switches between all, unread and saved.
func (s *Store) SetFilterMode(m FilterMode) {
	switch m {
	case ModeUnread, ModeSaved:
	default:
		m = ModeAll
	}
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	s.bus.Emit(bus.KindFiltersChanged, s.Selection())
}

// SenderFilter returns the sender refinement.
func (s *Store) SenderFilter() SenderFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sender
}

// SetSenderFilter changes the sender refinement. It always invalidates the
// open conversation's cached search results so the next search recomputes.
func (s *Store) SetSenderFilter(f SenderFilter) {
	switch f {
	case SenderMe, SenderPartner:
	default:
		f = SenderAll
	}
	s.mu.Lock()
	s.sender = f
	if s.current != "" {
		s.invalidateLocked(s.current)
	}
	current := s.current
	s.mu.Unlock()
	if current != "" {
		s.bus.Emit(bus.KindSearchInvalidated, current)
	}
	s.bus.Emit(bus.KindFiltersChanged, s.Selection())
}

// DateRange returns the date refinement.
func (s *Store) DateRange() DateRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dateRange
}

// SetDateRange changes the date refinement.
func (s *Store) SetDateRange(d DateRange) {
	s.mu.Lock()
	s.dateRange = d
	s.mu.Unlock()
	s.bus.Emit(bus.KindFiltersChanged, s.Selection())
}

// Query returns the raw free-text query.
func (s *Store) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// SetQuery stores the raw free-text query.
func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	s.bus.Emit(bus.KindFiltersChanged, s.Selection())
}

// Selection returns a snapshot of every filter field.
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Selection{Mode: s.mode, Sender: s.sender, DateRange: s.dateRange, Query: s.query}
}

// Page returns the normal-mode pagination page of a conversation (1-based).
func (s *Store) Page(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.pages[id]; p > 0 {
		return p
	}
	return 1
}

// SetPage sets the pagination page for a conversation.
func (s *Store) SetPage(id string, page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	s.pages[id] = page
	s.mu.Unlock()
}

// HasMore reports whether older pages may exist for a conversation.
func (s *Store) HasMore(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore[id]
}

// SetHasMore records whether older pages may exist.
func (s *Store) SetHasMore(id string, more bool) {
	s.mu.Lock()
	s.hasMore[id] = more
	s.mu.Unlock()
}

// Displayed returns the raw message set currently materialized in the view.
func (s *Store) Displayed() []*chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*chat.Message(nil), s.displayed...)
}

// SetDisplayed replaces the materialized message set.
func (s *Store) SetDisplayed(msgs []*chat.Message) {
	s.mu.Lock()
	s.displayed = append([]*chat.Message(nil), msgs...)
	s.mu.Unlock()
	s.bus.Emit(bus.KindMessagesChanged, nil)
}

// PendingUploads returns the attachment paths selected for upload.
func (s *Store) PendingUploads() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.pendingUploads...)
}

// SetPendingUploads replaces the pending attachment selection.
func (s *Store) SetPendingUploads(paths []string) {
	s.mu.Lock()
	s.pendingUploads = append([]string(nil), paths...)
	s.mu.Unlock()
}

// ClearPendingUploads drops the pending attachment selection.
func (s *Store) ClearPendingUploads() {
	s.mu.Lock()
	s.pendingUploads = nil
	s.mu.Unlock()
}

// ReplyDraft returns a copy of the reply draft, or nil.
func (s *Store) ReplyDraft() *ReplyDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.draft == nil {
		return nil
	}
	d := *s.draft
	d.Attachments = append([]chat.Attachment(nil), s.draft.Attachments...)
	return &d
}

// SetReplyDraft replaces the single reply draft.
func (s *Store) SetReplyDraft(d ReplyDraft) {
	d.Attachments = append([]chat.Attachment(nil), d.Attachments...)
	s.mu.Lock()
	s.draft = &d
	s.mu.Unlock()
	s.bus.Emit(bus.KindReplyDraftChanged, d.TargetMessageID)
}

// ClearReplyDraft removes the reply draft.
func (s *Store) ClearReplyDraft() {
	s.mu.Lock()
	had := s.draft != nil
	s.draft = nil
	s.mu.Unlock()
	if had {
		s.bus.Emit(bus.KindReplyDraftChanged, int64(0))
	}
}
