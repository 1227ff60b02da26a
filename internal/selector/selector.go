// Package selector orchestrates conversation switches: it picks the loading
// strategy for the active filter mode, fetches through the transport, writes
// results to the Store and materializes the visible message views.
package selector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/msgview"
	"github.com/matheus3301/dmchat/internal/search"
	"github.com/matheus3301/dmchat/internal/status"
	"github.com/matheus3301/dmchat/internal/transport"
)

// Defaults for Options.
const (
	DefaultPageSize  = 10
	DefaultBulkLimit = 500
)

// Texts of the synthetic system messages.
const (
	DeactivatedText   = "This account has been deactivated."
	LoadFailedText    = "Could not load messages. Try again later."
	NoSavedText       = "No saved messages in this conversation."
	NoUnreadText      = "No unread messages."
	unreadSummaryText = "%d unread message(s)"
	savedSummaryText  = "%d saved message(s)"
)

// Synthetic message ids. They are negated by chat.SystemMessage.
const (
	idPlaceholder int64 = iota + 1
	idSummary
	idError
)

// Action is an action offered for the open conversation.
type Action string

// ActionClearConversation is the only action of a deleted peer.
const ActionClearConversation Action = "clear_conversation"

// Header is the conversation header shown above the message list.
type Header struct {
	ConversationID string
	Name           string
	Avatar         *msgview.Avatar
	Online         bool
	Blocked        bool
	Deleted        bool
}

// Pagination is the state of the "load older" control.
type Pagination struct {
	Visible bool
	HasMore bool
	Page    int
}

// Outcome reports how a selection settled.
type Outcome struct {
	State status.State
	// Stale is set when the user moved on before the load finished; the
	// result was discarded.
	Stale bool
	// NotFound is set when the conversation is not in the Store.
	NotFound bool
}

// Options configures a Selector.
type Options struct {
	SelfID          string
	PageSize        int
	BulkLimit       int
	StackedMaxWidth int
	Logger          *zap.Logger
	Bus             *bus.Bus
	Now             func() time.Time
}

// Selector is the conversation selection state machine.
type Selector struct {
	store   *convstore.Store
	engine  *search.Engine
	caps    transport.Capabilities
	builder *msgview.Builder
	machine *status.Machine
	opts    Options
	logger  *zap.Logger
	bus     *bus.Bus

	loadingMore atomic.Bool

	mu         sync.Mutex
	viewport   Viewport
	stacked    bool
	viewState  ViewState
	backTarget string
	loaded     string
	views      []msgview.View
	header     Header
	pagination Pagination
	actions    []Action
}

// New creates a selector.
func New(store *convstore.Store, engine *search.Engine, caps transport.Capabilities, builder *msgview.Builder, machine *status.Machine, opts Options) *Selector {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.BulkLimit <= 0 {
		opts.BulkLimit = DefaultBulkLimit
	}
	if opts.StackedMaxWidth <= 0 {
		opts.StackedMaxWidth = DefaultStackedMaxWidth
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if builder == nil {
		builder = msgview.NewBuilder(opts.SelfID, msgview.WithClock(opts.Now))
	}
	if machine == nil {
		machine = status.NewMachine(opts.Bus)
	}
	return &Selector{
		store:   store,
		engine:  engine,
		caps:    caps.WithDefaults(),
		builder: builder,
		machine: machine,
		opts:    opts,
		logger:  opts.Logger,
		bus:     opts.Bus,
	}
}

// Select opens conversation id.
func (s *Selector) Select(ctx context.Context, id string) Outcome {
	conv := s.store.Conversation(id)
	if conv == nil {
		s.logger.Debug("select unknown conversation", zap.String("conversation", id))
		s.mu.Lock()
		s.views = nil
		s.header = Header{}
		s.actions = nil
		s.pagination = Pagination{}
		s.mu.Unlock()
		return Outcome{State: s.machine.Current(), NotFound: true}
	}

	s.mu.Lock()
	prev := s.loaded
	s.loaded = id
	if s.stacked {
		s.viewState = ViewChat
		s.backTarget = id
	}
	s.actions = nil
	s.mu.Unlock()
	if prev != "" && prev != id {
		s.release(prev)
	}

	gen := s.store.SetCurrentConversation(id)
	s.logger.Debug("conversation selected",
		zap.String("conversation", id),
		zap.Uint64("generation", gen),
		zap.String("mode", string(s.store.FilterMode())),
	)

	if conv.Deleted {
		return s.showDeleted(id, conv)
	}

	s.transition(id, status.Loading)
	var err error
	switch s.store.FilterMode() {
	case convstore.ModeUnread:
		err = s.loadUnread(ctx, id, gen)
	case convstore.ModeSaved:
		err = s.loadSaved(ctx, id, gen)
	default:
		s.store.SetPage(id, 1)
		err = s.loadPage(ctx, id, gen, 1)
	}
	if errors.Is(err, chat.ErrStale) || !s.store.IsActive(id, gen) {
		s.logger.Debug("stale load discarded", zap.String("conversation", id))
		return Outcome{State: s.machine.Current(), Stale: true}
	}

	state := status.Loaded
	if err != nil {
		s.logger.Warn("load conversation failed", zap.String("conversation", id), zap.Error(err))
		s.showError(id)
		state = status.Error
	} else {
		s.markRead(ctx, id)
	}
	s.transition(id, state)

	s.refreshHeader(ctx, id, gen)
	if !s.store.IsActive(id, gen) {
		return Outcome{State: s.machine.Current(), Stale: true}
	}
	s.Render()
	return Outcome{State: state}
}

// LoadMore fetches the next older page of the open conversation in "all"
// mode. Only one page load runs at a time; it returns false when nothing was
// loaded.
func (s *Selector) LoadMore(ctx context.Context) bool {
	if !s.loadingMore.CompareAndSwap(false, true) {
		return false
	}
	defer s.loadingMore.Store(false)

	id := s.store.CurrentConversation()
	if id == "" || s.store.FilterMode() != convstore.ModeAll || !s.store.HasMore(id) {
		return false
	}
	gen := s.store.Generation()
	page := s.store.Page(id) + 1
	err := s.loadPage(ctx, id, gen, page)
	if !s.store.IsActive(id, gen) {
		return false
	}
	if err != nil {
		s.logger.Warn("load older messages failed", zap.String("conversation", id), zap.Int("page", page), zap.Error(err))
		errMsg := chat.SystemMessage(id, idError, LoadFailedText, s.opts.Now())
		s.store.SetDisplayed(append([]*chat.Message{errMsg}, s.store.Displayed()...))
		s.store.SetHasMore(id, false)
		s.Render()
		return false
	}
	s.Render()
	return true
}

// GoBack returns from the chat to the conversation list under a stacked
// layout. It clears the open conversation and the reply draft without
// fetching anything, and reports which list entry to highlight.
func (s *Selector) GoBack() (ListFocus, bool) {
	s.mu.Lock()
	if !s.stacked || s.viewState != ViewChat {
		s.mu.Unlock()
		return ListFocus{Index: -1}, false
	}
	s.viewState = ViewList
	target := s.backTarget
	s.views = nil
	s.actions = nil
	s.pagination = Pagination{}
	s.mu.Unlock()

	s.store.SetCurrentConversation("")
	s.store.ClearReplyDraft()
	s.machine.Reset()

	focus := ListFocus{HighlightID: target, Index: -1}
	for i, id := range s.store.List() {
		if id == target {
			focus.Index = i
			break
		}
	}
	return focus, true
}

// ClearConversation performs the clear action of a conversation: the
// transport clears it, the Store forgets it and the UI returns to the list.
func (s *Selector) ClearConversation(ctx context.Context, id string) error {
	if s.store.Conversation(id) == nil {
		return chat.ErrNotFound
	}
	if err := s.caps.Clearer.ClearConversation(ctx, id); err != nil {
		s.logger.Warn("clear conversation failed", zap.String("conversation", id), zap.Error(err))
		return fmt.Errorf("clear conversation %s: %w", id, err)
	}
	for _, h := range s.store.ReleaseMessages(id) {
		s.caps.Previews.Release(h)
	}
	current := s.store.CurrentConversation() == id
	s.store.RemoveConversation(id)

	s.mu.Lock()
	if s.loaded == id {
		s.loaded = ""
	}
	if current {
		s.viewState = ViewList
		s.views = nil
		s.actions = nil
		s.pagination = Pagination{}
		s.header = Header{}
	}
	s.mu.Unlock()
	if current {
		s.store.ClearReplyDraft()
		s.machine.Reset()
	}
	s.logger.Info("conversation cleared", zap.String("conversation", id))
	return nil
}

// SetViewport records the presentation size and recomputes the layout.
func (s *Selector) SetViewport(v Viewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
	stacked := v.IsStacked(s.opts.StackedMaxWidth)
	if stacked && !s.stacked {
		s.viewState = ViewList
		if s.store.CurrentConversation() != "" {
			s.viewState = ViewChat
			s.backTarget = s.store.CurrentConversation()
		}
	}
	s.stacked = stacked
}

// Stacked reports whether the layout is stacked.
func (s *Selector) Stacked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stacked
}

// ViewState returns the visible pane under a stacked layout.
func (s *Selector) ViewState() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewState
}

// LoadState returns the load state of the last selection.
func (s *Selector) LoadState() status.State {
	return s.machine.Current()
}

// Views returns the materialized message views.
func (s *Selector) Views() []msgview.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]msgview.View(nil), s.views...)
}

// Header returns the conversation header.
func (s *Selector) Header() Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header
}

// Pagination returns the pagination control state.
func (s *Selector) Pagination() Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Actions returns the conversation-level actions on offer.
func (s *Selector) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.actions...)
}

func (s *Selector) transition(id string, to status.State) {
	if err := s.machine.Transition(id, to); err != nil {
		s.logger.Debug("load state transition rejected", zap.Error(err))
	}
}

// release frees the transient resources held for a conversation that is no
// longer open.
func (s *Selector) release(id string) {
	handles := s.store.ReleaseMessages(id)
	for _, h := range handles {
		s.caps.Previews.Release(h)
	}
	s.store.ClearReplyDraft()
	s.store.ClearPendingUploads()
	s.store.SetPage(id, 1)
	s.logger.Debug("conversation released", zap.String("conversation", id), zap.Int("previews", len(handles)))
}
