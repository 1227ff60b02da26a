package bus

import "time"

// Event kinds published by the messaging core. Subscribers filter by the
// namespace prefix (e.g. "store.").
const (
	KindConversationsChanged = "store.conversations_changed"
	KindCurrentChanged       = "store.current_changed"
	KindMessagesChanged      = "store.messages_changed"
	KindFiltersChanged       = "store.filters_changed"
	KindSearchInvalidated    = "store.search_invalidated"
	KindReplyDraftChanged    = "store.reply_draft_changed"
	KindListChanged          = "store.list_changed"

	KindSearchUpdated = "search.updated"

	KindSelectorRendered = "selector.rendered"
	KindLoadState        = "selector.load_state"

	KindForwardRequested = "action.forward_requested"

	KindRealtimeMessage  = "realtime.message"
	KindRealtimePresence = "realtime.presence"
)

// Event represents a domain event published on the bus.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
