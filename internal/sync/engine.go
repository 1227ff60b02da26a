// Package sync accepts realtime pushes into the conversation store.
package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
)

// Presence is the payload of realtime.presence events.
type Presence struct {
	PartnerID string
	Online    bool
}

// Renderer re-renders the open conversation and refreshes header flags.
type Renderer interface {
	Render()
	RefreshConversation(id string)
}

// Refresher re-materializes the displayed set of the open conversation.
type Refresher interface {
	Refresh()
}

// Options configures an Engine. Renderer and Refresher may be nil.
type Options struct {
	SelfID    string
	Logger    *zap.Logger
	Renderer  Renderer
	Refresher Refresher
}

// Engine handles ingestion of pushed messages and presence changes. It
// subscribes to "realtime." events on the bus.
type Engine struct {
	store  *convstore.Store
	bus    *bus.Bus
	opts   Options
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new sync engine.
func NewEngine(store *convstore.Store, b *bus.Bus, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{
		store:  store,
		bus:    b,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Start subscribes to realtime events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	ch, unsub := e.bus.Subscribe("realtime.", 256)

	go func() {
		defer close(e.done)
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine and waits for the event loop to exit.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
}

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindRealtimeMessage:
		var rec chat.MessageRecord
		switch p := evt.Payload.(type) {
		case chat.MessageRecord:
			rec = p
		case *chat.MessageRecord:
			if p == nil {
				return
			}
			rec = *p
		default:
			return
		}
		if err := e.IngestMessage(rec); err != nil {
			e.logger.Error("failed to ingest message", zap.Error(err), zap.Int64("msg_id", rec.ID))
		}
	case bus.KindRealtimePresence:
		p, ok := evt.Payload.(Presence)
		if !ok {
			return
		}
		e.IngestPresence(p)
	}
}

// IngestMessage accepts one pushed message. A message of the open
// conversation is appended and rendered; any other conversation gets its
// unread counter bumped. Unknown partners get a new conversation entry.
func (e *Engine) IngestMessage(rec chat.MessageRecord) error {
	partner := string(rec.SenderID)
	incoming := partner != e.opts.SelfID
	if !incoming {
		partner = string(rec.ReceiverID)
	}
	if partner == "" {
		return chat.Invalid("message %d has no partner", rec.ID)
	}
	m, ok := chat.FromRecord(rec, partner)
	if !ok {
		e.logger.Debug("hard recall ignored", zap.Int64("msg_id", rec.ID))
		return nil
	}

	if e.store.Conversation(partner) == nil {
		c := chat.Conversation{PartnerID: partner, Name: partner, LastActive: m.Timestamp}
		e.store.PutConversation(c)
	}
	added, err := e.store.AppendMessage(partner, m)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if !added {
		return nil
	}

	if e.store.CurrentConversation() == partner {
		if e.opts.Refresher != nil {
			e.opts.Refresher.Refresh()
		}
		if e.opts.Renderer != nil {
			e.opts.Renderer.Render()
		}
		return nil
	}
	if incoming && !m.Read {
		e.store.IncrementUnread(partner, 1)
	}
	return nil
}

// IngestPresence records a partner's online flag.
func (e *Engine) IngestPresence(p Presence) {
	if e.store.Conversation(p.PartnerID) == nil {
		return
	}
	e.store.SetOnline(p.PartnerID, p.Online)
	if e.opts.Renderer != nil {
		e.opts.Renderer.RefreshConversation(p.PartnerID)
	}
}
