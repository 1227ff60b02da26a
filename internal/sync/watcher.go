package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/store"
	"github.com/matheus3301/dmchat/internal/transport"
)

// DefaultPollInterval is how often the Watcher checks the archive.
const DefaultPollInterval = 500 * time.Millisecond

// Watcher polls the archive for rows written by other processes and
// republishes them as realtime events, so the Engine sees them as pushes.
type Watcher struct {
	db       *store.DB
	bus      *bus.Bus
	selfID   string
	interval time.Duration
	logger   *zap.Logger

	cursor   int64
	presence map[string]bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWatcher creates a watcher. Messages already archived when Start runs
// are not republished.
func NewWatcher(db *store.DB, b *bus.Bus, selfID string, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{db: db, bus: b, selfID: selfID, interval: interval, logger: logger}
}

// Start records the current archive position and begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	cursor, err := w.db.MaxMessageID()
	if err != nil {
		return err
	}
	presence, err := w.db.Presence()
	if err != nil {
		return err
	}
	w.cursor, w.presence = cursor, presence

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx)
	return nil
}

// Stop stops polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Poll()
		case <-ctx.Done():
			return
		}
	}
}

// Poll publishes new incoming messages and presence changes since the last
// poll. It returns the number of events published.
func (w *Watcher) Poll() int {
	n := 0
	msgs, err := w.db.ListIncomingSince(w.selfID, w.cursor, 100)
	if err != nil {
		w.logger.Error("failed to poll messages", zap.Error(err))
	}
	for _, m := range msgs {
		w.cursor = max(w.cursor, m.ID)
		w.bus.Emit(bus.KindRealtimeMessage, transport.RecordFromStore(m))
		n++
	}

	presence, err := w.db.Presence()
	if err != nil {
		w.logger.Error("failed to poll presence", zap.Error(err))
		return n
	}
	for id, online := range presence {
		if prev, ok := w.presence[id]; ok && prev == online {
			continue
		}
		w.bus.Emit(bus.KindRealtimePresence, Presence{PartnerID: id, Online: online})
		n++
	}
	w.presence = presence
	return n
}
