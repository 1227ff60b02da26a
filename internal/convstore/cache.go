package convstore

import "github.com/matheus3301/dmchat/internal/bus"

// SearchEntry returns the cached entry for key, or nil. The pointer is shared
// so a cache hit hands back the same entry that was stored.
func (s *Store) SearchEntry(key SearchKey) *SearchEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[key]
}

// PutSearchEntry stores a computed result.
func (s *Store) PutSearchEntry(key SearchKey, e *SearchEntry) {
	s.mu.Lock()
	s.cache[key] = e
	s.mu.Unlock()
}

// AdvanceCursor moves the entry's cursor forward by step, clamped to its
// length. Entries are never mutated after they are stored: the advanced entry
// replaces the old one and shares its message slice. It returns the current
// entry and whether the cursor moved.
func (s *Store) AdvanceCursor(key SearchKey, step int) (*SearchEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.cache[key]
	if e == nil || !e.HasMore() || step <= 0 {
		return e, false
	}
	next := &SearchEntry{Messages: e.Messages, Cursor: e.Cursor + step}
	if next.Cursor > len(next.Messages) {
		next.Cursor = len(next.Messages)
	}
	s.cache[key] = next
	return next, true
}

// InvalidateSearch drops every cached entry of a conversation and returns how
// many were removed.
func (s *Store) InvalidateSearch(conversationID string) int {
	s.mu.Lock()
	n := s.invalidateLocked(conversationID)
	s.mu.Unlock()
	if n > 0 {
		s.bus.Emit(bus.KindSearchInvalidated, conversationID)
	}
	return n
}

// SearchCacheLen returns the number of cached entries.
func (s *Store) SearchCacheLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func (s *Store) invalidateLocked(conversationID string) int {
	n := 0
	for k := range s.cache {
		if k.ConversationID == conversationID {
			delete(s.cache, k)
			n++
		}
	}
	return n
}
