package transport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/store"
)

func newLocal(t *testing.T) (*Local, *store.DB) {
	t.Helper()
	db, err := store.OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.UpsertContact(&store.Contact{UserID: "2", Name: "Bob", Avatar: "/uploads/bob.png"}))
	return NewLocal(db, "1", nil), db
}

func TestLocalFetchReturnsRecords(t *testing.T) {
	l, db := newLocal(t)
	ctx := context.Background()

	orig, err := db.InsertMessage(&store.Message{SenderID: "2", ReceiverID: "1", Content: "ping", Timestamp: 1000})
	require.NoError(t, err)
	_, err = db.InsertMessage(&store.Message{
		SenderID: "1", ReceiverID: "2", Timestamp: 2000, ReplyToID: orig,
		Attachments: []store.Attachment{{FilePath: "/uploads/p.png"}},
	})
	require.NoError(t, err)

	res, err := l.FetchConversationMessages(ctx, "1", "2", 10, 0)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Messages, 2)

	msgs := chat.FromRecords(res.Messages, "2")
	require.Len(t, msgs, 2)
	assert.Equal(t, "ping", msgs[0].Content)
	assert.True(t, chat.IsImageMessage(msgs[1]))
	require.NotNil(t, msgs[1].Reply)
	assert.Equal(t, "ping", msgs[1].Reply.Text)
}

func TestLocalSendAndBlock(t *testing.T) {
	l, db := newLocal(t)
	ctx := context.Background()

	res, err := l.SendMessage(ctx, SendRequest{ReceiverID: "2", Content: "hi", ClientMsgID: "c-1"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Message)
	assert.Equal(t, chat.FlexID("1"), res.Message.SenderID)

	require.NoError(t, db.Block("2", "1"))
	blocked, err := l.CheckIfBlocked(ctx, "1", "2")
	require.NoError(t, err)
	assert.True(t, blocked)

	res, err = l.SendMessage(ctx, SendRequest{ReceiverID: "2", Content: "again"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestLocalSavedAndRecall(t *testing.T) {
	l, db := newLocal(t)
	ctx := context.Background()

	in, err := db.InsertMessage(&store.Message{SenderID: "2", ReceiverID: "1", Content: "keep", Timestamp: 1})
	require.NoError(t, err)
	out, err := db.InsertMessage(&store.Message{SenderID: "1", ReceiverID: "2", Content: "oops", Timestamp: 2})
	require.NoError(t, err)

	added, err := l.SaveMessage(ctx, &chat.Message{ID: in})
	require.NoError(t, err)
	assert.True(t, added)
	added, err = l.SaveMessage(ctx, &chat.Message{ID: in})
	require.NoError(t, err)
	assert.False(t, added)

	ids, err := l.SavedIDs(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, []int64{in}, ids)

	ok, err := l.RecallMessage(ctx, in)
	require.NoError(t, err)
	assert.False(t, ok, "only own messages can be recalled")
	ok, err = l.RecallMessage(ctx, out)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalConversationsAndClear(t *testing.T) {
	l, db := newLocal(t)
	ctx := context.Background()

	_, err := db.InsertMessage(&store.Message{SenderID: "2", ReceiverID: "1", Content: "a", Timestamp: 5000})
	require.NoError(t, err)

	recs, err := l.ListConversations(ctx, "1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	c := ConversationFromRecord(recs[0])
	assert.Equal(t, "Bob", c.Name)
	assert.Equal(t, 1, c.Unread)
	assert.Equal(t, int64(5000), c.LastActive.UnixMilli())

	require.NoError(t, l.MarkConversationRead(ctx, "2"))
	recs, err = l.ListConversations(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 0, recs[0].Unread)

	require.NoError(t, l.ClearConversation(ctx, "2"))
	recs, err = l.ListConversations(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestWithDefaultsFillsNop(t *testing.T) {
	caps := Capabilities{}.WithDefaults()
	ctx := context.Background()

	res, err := caps.Fetcher.FetchConversationMessages(ctx, "1", "2", 10, 0)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Messages)

	sent, err := caps.Sender.SendMessage(ctx, SendRequest{ReceiverID: "2"})
	require.NoError(t, err)
	assert.False(t, sent.Success)

	_, err = caps.Saved.SaveMessage(ctx, &chat.Message{ID: 1})
	assert.ErrorIs(t, err, chat.ErrNetwork)
	assert.NotPanics(t, func() { caps.Previews.Release("blob:x") })
}

func TestLocalRelease(t *testing.T) {
	l, _ := newLocal(t)
	l.Release("blob:1")
	assert.True(t, l.Released("blob:1"))
	assert.False(t, l.Released("blob:2"))
}
