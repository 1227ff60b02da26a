package convstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
)

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func msg(id int64, sender, receiver string, offset time.Duration) *chat.Message {
	return &chat.Message{
		ID: id, ConversationID: sender, SenderID: sender, ReceiverID: receiver,
		Content: "m", Timestamp: base.Add(offset),
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New(bus.New())
	s.PutConversation(chat.Conversation{PartnerID: "2", Name: "Bob", LastActive: base})
	s.PutConversation(chat.Conversation{PartnerID: "3", Name: "Cy", Unread: 2, LastActive: base.Add(time.Hour)})
	return s
}

func TestListOrderAndFilter(t *testing.T) {
	s := newStore(t)
	assert.Equal(t, []string{"3", "2"}, s.List())

	s.SetListFilter(ListUnread)
	assert.Equal(t, []string{"3"}, s.List())

	assert.True(t, s.RemoveFromList("3"))
	assert.Empty(t, s.List())
	assert.False(t, s.RemoveFromList("3"))
}

func TestSetCurrentConversationBumpsGeneration(t *testing.T) {
	s := newStore(t)
	g1 := s.SetCurrentConversation("2")
	g2 := s.SetCurrentConversation("2")
	assert.Greater(t, g2, g1)
	assert.False(t, s.IsActive("2", g1))
	assert.True(t, s.IsActive("2", g2))
	assert.False(t, s.IsActive("3", g2))
}

func TestMessagesDedupeAndOrder(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetMessages("2", []*chat.Message{msg(3, "2", "1", 3*time.Minute), msg(2, "1", "2", 2*time.Minute)}))

	added, err := s.PrependMessages("2", []*chat.Message{msg(1, "2", "1", time.Minute), msg(2, "1", "2", 2*time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	ok, err := s.AppendMessage("2", msg(4, "2", "1", 2*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.AppendMessage("2", msg(4, "2", "1", 2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	var ids []int64
	for _, m := range s.Messages("2") {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)
	assert.Equal(t, base.Add(2*time.Hour), s.Conversation("2").LastActive)
	assert.Equal(t, []string{"2", "3"}, s.List())

	_, err = s.AppendMessage("nope", msg(9, "x", "1", 0))
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestSetRecallIsCopyOnWrite(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetMessages("2", []*chat.Message{msg(5, "1", "2", 0)}))
	s.SetDisplayed(s.Messages("2"))
	snapshot := s.Messages("2")

	require.NoError(t, s.SetRecall("2", 5, chat.RecallSoft))
	assert.Equal(t, chat.RecallNone, snapshot[0].Recall)
	assert.Equal(t, chat.RecallSoft, s.Message("2", 5).Recall)
	assert.Equal(t, chat.RecallSoft, s.Displayed()[0].Recall)

	assert.ErrorIs(t, s.SetRecall("2", 99, chat.RecallSoft), chat.ErrNotFound)
}

func TestMarkRead(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetMessages("3", []*chat.Message{msg(1, "3", "1", 0), msg(2, "1", "3", time.Second)}))
	prev, err := s.MarkRead("3")
	require.NoError(t, err)
	assert.Equal(t, 2, prev)
	assert.Equal(t, 0, s.Conversation("3").Unread)
	assert.True(t, s.Message("3", 1).Read)
	assert.False(t, s.Message("3", 2).Read, "own messages are not touched")
}

func TestSenderFilterInvalidatesCurrentCache(t *testing.T) {
	s := newStore(t)
	s.SetCurrentConversation("2")
	key := SearchKey{ConversationID: "2", Query: "hi"}
	other := SearchKey{ConversationID: "3", Query: "hi"}
	s.PutSearchEntry(key, &SearchEntry{})
	s.PutSearchEntry(other, &SearchEntry{})

	s.SetSenderFilter(SenderFilter("bogus"))
	assert.Equal(t, SenderAll, s.SenderFilter())
	assert.Nil(t, s.SearchEntry(key))
	assert.NotNil(t, s.SearchEntry(other))
}

func TestAppendInvalidatesCache(t *testing.T) {
	s := newStore(t)
	key := SearchKey{ConversationID: "2"}
	s.PutSearchEntry(key, &SearchEntry{})
	_, err := s.AppendMessage("2", msg(1, "2", "1", 0))
	require.NoError(t, err)
	assert.Equal(t, 0, s.SearchCacheLen())
}

func TestRecallAndSaveInvalidateCache(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetMessages("2", []*chat.Message{msg(5, "1", "2", 0)}))
	key := SearchKey{ConversationID: "2", Query: "m"}
	other := SearchKey{ConversationID: "3", Query: "m"}

	s.PutSearchEntry(key, &SearchEntry{})
	s.PutSearchEntry(other, &SearchEntry{})
	require.NoError(t, s.SetRecall("2", 5, chat.RecallSoft))
	assert.Nil(t, s.SearchEntry(key))
	assert.NotNil(t, s.SearchEntry(other))

	s.PutSearchEntry(key, &SearchEntry{})
	s.NotifySaved("2")
	assert.Nil(t, s.SearchEntry(key))
	assert.Equal(t, 1, s.SearchCacheLen())
}

func TestAdvanceCursorClamps(t *testing.T) {
	s := newStore(t)
	key := SearchKey{ConversationID: "2"}
	entry := &SearchEntry{Messages: []*chat.Message{msg(1, "2", "1", 0), msg(2, "2", "1", 1), msg(3, "2", "1", 2)}, Cursor: 2}
	s.PutSearchEntry(key, entry)

	e, moved := s.AdvanceCursor(key, 20)
	assert.True(t, moved)
	assert.Equal(t, 3, e.Cursor)
	assert.Equal(t, 2, entry.Cursor, "stored entries are immutable")
	assert.False(t, e.HasMore())
	assert.Same(t, e, s.SearchEntry(key))

	_, moved = s.AdvanceCursor(key, 20)
	assert.False(t, moved)
}

func TestReleaseMessagesReturnsBlobHandles(t *testing.T) {
	s := newStore(t)
	m := msg(1, "1", "2", 0)
	m.Attachments = []chat.Attachment{
		{FilePath: "blob:a", ThumbnailPath: "blob:a"},
		{FilePath: "/uploads/b.png"},
	}
	require.NoError(t, s.SetMessages("2", []*chat.Message{m}))
	assert.Equal(t, []string{"blob:a"}, s.ReleaseMessages("2"))
	assert.Empty(t, s.Messages("2"))
}

func TestPutConversationKeepsMessages(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetMessages("2", []*chat.Message{msg(1, "2", "1", 0)}))
	s.PutConversation(chat.Conversation{PartnerID: "2", Name: "Bobby", LastActive: base})
	assert.Len(t, s.Messages("2"), 1)
	assert.Equal(t, "Bobby", s.Conversation("2").Name)
}

func TestReplyDraftEvents(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("store.reply", 4)
	defer unsub()
	s := New(b)

	s.SetReplyDraft(ReplyDraft{ConversationID: "2", TargetMessageID: 7})
	require.NotNil(t, s.ReplyDraft())
	assert.Equal(t, int64(7), s.ReplyDraft().TargetMessageID)
	s.ClearReplyDraft()
	s.ClearReplyDraft()
	assert.Nil(t, s.ReplyDraft())

	assert.Len(t, ch, 2)
}

func TestResetClearsState(t *testing.T) {
	s := newStore(t)
	s.SetCurrentConversation("2")
	s.SetFilterMode(ModeSaved)
	s.SetQuery("x")
	s.Reset()
	assert.Empty(t, s.List())
	assert.Equal(t, "", s.CurrentConversation())
	assert.Equal(t, ModeAll, s.FilterMode())
	assert.Equal(t, "", s.Query())
}
