package sync

import (
	"context"
	"errors"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/transport"
)

// Reconciler keeps the Store's conversation list in line with the server's.
// A new reconciliation cancels the one still in flight.
type Reconciler struct {
	store  *convstore.Store
	lister transport.ConversationLister
	selfID string
	logger *zap.Logger

	mu     gosync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewReconciler creates a new reconciler.
func NewReconciler(store *convstore.Store, lister transport.ConversationLister, selfID string, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lister == nil {
		lister = transport.Nop{}
	}
	return &Reconciler{store: store, lister: lister, selfID: selfID, logger: logger}
}

// Reconcile loads the conversation list and writes it to the Store.
// Conversations the server no longer lists are removed, except the open one.
// It returns the number of listed conversations, or context.Canceled when a
// newer call superseded it.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.seq++
	seq := r.seq
	r.mu.Unlock()
	defer r.finish(seq, cancel)

	recs, err := r.lister.ListConversations(ctx, r.selfID)
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err != nil {
		r.logger.Warn("list conversations failed", zap.Error(err))
		return 0, chat.NetworkError("list conversations", err)
	}
	if !r.current(seq) {
		return 0, context.Canceled
	}

	listed := make(map[string]bool, len(recs))
	for _, rec := range recs {
		c := transport.ConversationFromRecord(rec)
		if c.PartnerID == "" {
			continue
		}
		listed[c.PartnerID] = true
		r.store.PutConversation(c)
	}
	open := r.store.CurrentConversation()
	removed := 0
	for id := range r.store.Conversations() {
		if !listed[id] && id != open {
			r.store.RemoveConversation(id)
			removed++
		}
	}
	r.logger.Info("conversations reconciled", zap.Int("listed", len(listed)), zap.Int("removed", removed))
	return len(listed), nil
}

func (r *Reconciler) current(seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq == seq
}

func (r *Reconciler) finish(seq uint64, cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	if r.seq == seq {
		r.cancel = nil
	}
	r.mu.Unlock()
}

// IsSuperseded reports whether err means the call was replaced by a newer one.
func IsSuperseded(err error) bool {
	return errors.Is(err, context.Canceled)
}
