package search

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
)

// DefaultDebounce is the quiet period applied to query input.
const DefaultDebounce = 300 * time.Millisecond

// Result describes the outcome of one search pass over the open conversation.
type Result struct {
	ConversationID string
	Key            convstore.SearchKey
	Entry          *convstore.SearchEntry
	Visible        []*chat.Message
	Total          int
	HasMore        bool
	CacheHit       bool
	// Bypassed is set when unread or saved mode is active; those modes show
	// their own fixed result set.
	Bypassed bool
}

// State is the search UI state published on the bus after every pass.
type State struct {
	ConversationID string
	Selection      convstore.Selection
	Total          int
	Shown          int
	HasMore        bool
}

// Options configures an Engine.
type Options struct {
	SelfID   string
	PerLoad  int
	Debounce time.Duration
	Logger   *zap.Logger
	Bus      *bus.Bus
}

// Engine computes filtered views of the open conversation and keeps them in
// the Store's search cache.
type Engine struct {
	store    *convstore.Store
	selfID   string
	perLoad  int
	logger   *zap.Logger
	bus      *bus.Bus
	debounce *Debouncer

	computations atomic.Int64
}

// NewEngine creates an engine over store.
func NewEngine(store *convstore.Store, opts Options) *Engine {
	if opts.PerLoad <= 0 {
		opts.PerLoad = MessagesPerLoad
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		store:    store,
		selfID:   opts.SelfID,
		perLoad:  opts.PerLoad,
		logger:   opts.Logger,
		bus:      opts.Bus,
		debounce: NewDebouncer(opts.Debounce),
	}
}

// Computations returns how many times a result was computed rather than
// served from the cache.
func (e *Engine) Computations() int64 {
	return e.computations.Load()
}

// Search applies the current selection to the open conversation. A cached
// entry for the same key is reused as is, cursor included.
func (e *Engine) Search() (Result, error) {
	conv := e.store.CurrentConversation()
	if conv == "" || e.store.Conversation(conv) == nil {
		return Result{}, chat.ErrNotFound
	}
	sel := e.store.Selection()
	key := KeyFor(conv, sel)
	if sel.Mode != convstore.ModeAll {
		return Result{ConversationID: conv, Key: key, Bypassed: true}, nil
	}

	res := Result{ConversationID: conv, Key: key}
	entry := e.store.SearchEntry(key)
	if entry != nil {
		res.CacheHit = true
	} else {
		entry = e.compute(conv, sel)
		e.store.PutSearchEntry(key, entry)
	}
	res.fill(entry)

	if key.Query != "" {
		e.store.SetDisplayed(res.Visible)
	} else {
		e.store.SetDisplayed(e.baseView(conv, sel))
	}
	e.publish(res, sel)
	return res, nil
}

// Refresh re-materializes the open conversation's view after its loaded
// window changed. Unread and saved modes are left alone.
func (e *Engine) Refresh() {
	if _, err := e.Search(); err != nil {
		e.logger.Debug("search refresh skipped", zap.Error(err))
	}
}

// ViewMore grows the display cursor of the current result by one page. At the
// end of the result it does nothing and reports false.
func (e *Engine) ViewMore() (Result, bool) {
	conv := e.store.CurrentConversation()
	sel := e.store.Selection()
	if conv == "" || sel.Mode != convstore.ModeAll {
		return Result{ConversationID: conv}, false
	}
	key := KeyFor(conv, sel)
	entry, moved := e.store.AdvanceCursor(key, e.perLoad)
	res := Result{ConversationID: conv, Key: key, CacheHit: entry != nil}
	res.fill(entry)
	if !moved {
		return res, false
	}
	if key.Query != "" {
		e.store.SetDisplayed(res.Visible)
	}
	e.publish(res, sel)
	return res, true
}

// SetSenderFilter changes the sender refinement and recomputes immediately.
func (e *Engine) SetSenderFilter(f convstore.SenderFilter) (Result, error) {
	e.debounce.Cancel()
	e.store.SetSenderFilter(f)
	return e.Search()
}

// SetDateRange changes the date refinement, drops the open conversation's
// cached results and recomputes immediately. With no query active the
// displayed list is narrowed to the range as well.
func (e *Engine) SetDateRange(dr convstore.DateRange) (Result, error) {
	e.debounce.Cancel()
	e.store.SetDateRange(dr)
	if conv := e.store.CurrentConversation(); conv != "" {
		e.store.InvalidateSearch(conv)
	}
	return e.Search()
}

// SetQuery records query input and schedules a recomputation after the
// debounce period. Rapid calls collapse into one recomputation.
func (e *Engine) SetQuery(q string) {
	e.store.SetQuery(q)
	e.debounce.Trigger(func() {
		if _, err := e.Search(); err != nil {
			e.logger.Debug("debounced search skipped", zap.Error(err))
		}
	})
}

// SubmitQuery records the query and recomputes immediately, discarding any
// pending debounced pass.
func (e *Engine) SubmitQuery(q string) (Result, error) {
	e.debounce.Cancel()
	e.store.SetQuery(q)
	return e.Search()
}

// Close ends a search session: the query is cleared and the displayed list
// returns to the refined conversation window.
func (e *Engine) Close() {
	e.debounce.Cancel()
	e.store.SetQuery("")
	e.Refresh()
}

func (e *Engine) compute(conv string, sel convstore.Selection) *convstore.SearchEntry {
	e.computations.Add(1)
	msgs := Filter(e.store.Messages(conv), Criteria{
		SelfID: e.selfID,
		Sender: sel.Sender,
		Range:  sel.DateRange,
		Query:  sel.Query,
	})
	e.logger.Debug("search computed",
		zap.String("conversation", conv),
		zap.String("query", NormalizeQuery(sel.Query)),
		zap.Int("matches", len(msgs)),
	)
	return &convstore.SearchEntry{Messages: msgs, Cursor: e.perLoad}
}

func (e *Engine) baseView(conv string, sel convstore.Selection) []*chat.Message {
	return Filter(e.store.Messages(conv), Criteria{
		SelfID: e.selfID,
		Sender: sel.Sender,
		Range:  sel.DateRange,
	})
}

func (e *Engine) publish(res Result, sel convstore.Selection) {
	e.bus.Emit(bus.KindSearchUpdated, State{
		ConversationID: res.ConversationID,
		Selection:      sel,
		Total:          res.Total,
		Shown:          len(res.Visible),
		HasMore:        res.HasMore,
	})
}

func (r *Result) fill(entry *convstore.SearchEntry) {
	r.Entry = entry
	if entry == nil {
		return
	}
	r.Visible = entry.Visible()
	r.Total = len(entry.Messages)
	r.HasMore = entry.HasMore()
}
