package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/transport"
)

const self = "1"

type countingRenderer struct {
	renders   int
	refreshed []string
}

func (r *countingRenderer) Render()                       { r.renders++ }
func (r *countingRenderer) RefreshConversation(id string) { r.refreshed = append(r.refreshed, id) }

func record(id int64, sender, receiver string, ts time.Time) chat.MessageRecord {
	return chat.MessageRecord{
		ID:         id,
		SenderID:   chat.FlexID(sender),
		ReceiverID: chat.FlexID(receiver),
		Content:    "push",
		Timestamp:  ts.Format(time.RFC3339),
	}
}

func TestIngestMessageOpenConversation(t *testing.T) {
	st := convstore.New(bus.New())
	st.PutConversation(chat.Conversation{PartnerID: "2"})
	st.SetCurrentConversation("2")
	r := &countingRenderer{}
	e := NewEngine(st, nil, Options{SelfID: self, Renderer: r})

	if err := e.IngestMessage(record(10, "2", self, time.Now())); err != nil {
		t.Fatal(err)
	}
	if got := len(st.Messages("2")); got != 1 {
		t.Fatalf("got %d messages, want 1", got)
	}
	if r.renders != 1 {
		t.Errorf("renders = %d, want 1", r.renders)
	}
	if u := st.Conversation("2").Unread; u != 0 {
		t.Errorf("unread = %d, want 0 for the open conversation", u)
	}

	// Duplicate pushes are ignored.
	if err := e.IngestMessage(record(10, "2", self, time.Now())); err != nil {
		t.Fatal(err)
	}
	if r.renders != 1 {
		t.Errorf("renders = %d after duplicate, want 1", r.renders)
	}
}

func TestIngestMessageBackgroundConversation(t *testing.T) {
	st := convstore.New(bus.New())
	st.PutConversation(chat.Conversation{PartnerID: "2"})
	st.PutConversation(chat.Conversation{PartnerID: "3"})
	st.SetCurrentConversation("2")
	e := NewEngine(st, nil, Options{SelfID: self})

	now := time.Now()
	if err := e.IngestMessage(record(20, "3", self, now)); err != nil {
		t.Fatal(err)
	}
	if err := e.IngestMessage(record(21, self, "3", now.Add(time.Second))); err != nil {
		t.Fatal(err)
	}
	c := st.Conversation("3")
	if c.Unread != 1 {
		t.Errorf("unread = %d, want 1 (own messages do not count)", c.Unread)
	}
	if list := st.List(); len(list) == 0 || list[0] != "3" {
		t.Errorf("list = %v, want 3 first", list)
	}
}

func TestIngestMessageUnknownPartner(t *testing.T) {
	st := convstore.New(bus.New())
	e := NewEngine(st, nil, Options{SelfID: self})

	if err := e.IngestMessage(record(30, "9", self, time.Now())); err != nil {
		t.Fatal(err)
	}
	c := st.Conversation("9")
	if c == nil {
		t.Fatal("conversation not created")
	}
	if c.Unread != 1 {
		t.Errorf("unread = %d, want 1", c.Unread)
	}
}

func TestIngestMessageHardRecallIgnored(t *testing.T) {
	st := convstore.New(bus.New())
	e := NewEngine(st, nil, Options{SelfID: self})
	rec := record(40, "2", self, time.Now())
	rec.RecallType = "hard"
	if err := e.IngestMessage(rec); err != nil {
		t.Fatal(err)
	}
	if st.Conversation("2") != nil {
		t.Error("hard recall must not create a conversation")
	}
}

func TestIngestMessageWithoutPartner(t *testing.T) {
	e := NewEngine(convstore.New(nil), nil, Options{SelfID: self})
	err := e.IngestMessage(chat.MessageRecord{ID: 1, SenderID: self})
	if !errors.Is(err, chat.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

// TestEngineBusSubscription verifies the engine processes realtime events
// from the bus.
func TestEngineBusSubscription(t *testing.T) {
	b := bus.New()
	st := convstore.New(b)
	st.PutConversation(chat.Conversation{PartnerID: "2"})
	r := &countingRenderer{}
	e := NewEngine(st, b, Options{SelfID: self, Renderer: r})

	e.Start(context.Background())
	b.Emit(bus.KindRealtimeMessage, record(50, "2", self, time.Now()))
	b.Emit(bus.KindRealtimePresence, Presence{PartnerID: "2", Online: true})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		c := st.Conversation("2")
		if c.Online && len(c.Messages) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	e.Stop()

	c := st.Conversation("2")
	if len(c.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 (bus subscription)", len(c.Messages))
	}
	if !c.Online {
		t.Error("presence not applied")
	}
	if len(r.refreshed) != 1 || r.refreshed[0] != "2" {
		t.Errorf("refreshed = %v, want [2]", r.refreshed)
	}
}

type stubLister struct {
	transport.Nop

	mu      gosync.Mutex
	recs    []transport.ConversationRecord
	block   int // number of leading calls that wait for ctx cancellation
	calls   int
	started chan struct{}
}

func (l *stubLister) ListConversations(ctx context.Context, _ string) ([]transport.ConversationRecord, error) {
	l.mu.Lock()
	l.calls++
	wait := l.calls <= l.block
	recs := l.recs
	l.mu.Unlock()
	if wait {
		if l.started != nil {
			close(l.started)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return recs, nil
}

func TestReconcile(t *testing.T) {
	st := convstore.New(bus.New())
	st.PutConversation(chat.Conversation{PartnerID: "old"})
	st.PutConversation(chat.Conversation{PartnerID: "open"})
	st.SetCurrentConversation("open")

	l := &stubLister{recs: []transport.ConversationRecord{
		{PartnerID: "2", Name: "Bob", Unread: 3, LastActive: "2026-07-01T10:00:00Z"},
		{PartnerID: "3", Name: "Eve", IsDeleted: true},
	}}
	r := NewReconciler(st, l, self, nil)

	n, err := r.Reconcile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("listed = %d, want 2", n)
	}
	if st.Conversation("old") != nil {
		t.Error("unlisted conversation kept")
	}
	if st.Conversation("open") == nil {
		t.Error("open conversation removed")
	}
	if c := st.Conversation("2"); c == nil || c.Unread != 3 || c.Name != "Bob" {
		t.Errorf("conversation 2 = %+v", c)
	}
	if c := st.Conversation("3"); c == nil || !c.Deleted {
		t.Errorf("conversation 3 = %+v, want deleted", c)
	}
}

func TestReconcileSupersedesInFlight(t *testing.T) {
	st := convstore.New(bus.New())
	l := &stubLister{
		block:   1,
		started: make(chan struct{}),
		recs:    []transport.ConversationRecord{{PartnerID: "2"}},
	}
	r := NewReconciler(st, l, self, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := r.Reconcile(context.Background())
		errc <- err
	}()
	<-l.started

	if _, err := r.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := <-errc; !IsSuperseded(err) {
		t.Errorf("first call err = %v, want superseded", err)
	}
	if st.Conversation("2") == nil {
		t.Error("second call not applied")
	}
}
