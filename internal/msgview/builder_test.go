package msgview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheus3301/dmchat/internal/chat"
)

const self = "1"

var now = time.Date(2026, 6, 15, 18, 30, 0, 0, time.UTC)

func newBuilder(opts ...Option) *Builder {
	return NewBuilder(self, append([]Option{WithClock(func() time.Time { return now })}, opts...)...)
}

func conv() *chat.Conversation {
	return &chat.Conversation{PartnerID: "2", Name: "bob", Avatar: "x"}
}

func TestClassifyMatchesBuild(t *testing.T) {
	b := newBuilder()
	msgs := []*chat.Message{
		{ID: 1, SenderID: "2", Content: "hi"},
		{ID: 2, SenderID: "2", Attachments: []chat.Attachment{{FilePath: "/uploads/a.png"}}},
		{ID: 3, SenderID: "2", Content: "caption", Attachments: []chat.Attachment{{FilePath: "/uploads/a.png"}}},
		chat.SystemMessage("2", 4, "note", now),
	}
	want := []Kind{KindText, KindImage, KindText, KindSystem}
	for i, m := range msgs {
		v := b.Build(m, conv())
		assert.Equal(t, want[i], Classify(m))
		assert.Equal(t, Classify(m), v.Kind())
	}
}

func TestRecallVisibility(t *testing.T) {
	b := newBuilder()
	img := []chat.Attachment{{FilePath: "/uploads/p.png"}}
	tests := []struct {
		name     string
		msg      *chat.Message
		recalled bool
	}{
		{"sender text", &chat.Message{ID: 1, SenderID: self, Content: "secret", Recall: chat.RecallSoft}, true},
		{"receiver text", &chat.Message{ID: 2, SenderID: "2", Content: "secret", Recall: chat.RecallSoft}, false},
		{"sender image", &chat.Message{ID: 3, SenderID: self, Attachments: img, Recall: chat.RecallSoft}, true},
		{"receiver image", &chat.Message{ID: 4, SenderID: "2", Attachments: img, Recall: chat.RecallSoft}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			switch v := b.Build(tt.msg, conv()).(type) {
			case TextView:
				assert.Equal(t, tt.recalled, v.Recalled)
				if tt.recalled {
					assert.Equal(t, RecalledText, v.Text)
				} else {
					assert.Equal(t, "secret", v.Text)
				}
			case ImageView:
				assert.Equal(t, tt.recalled, v.Recalled)
				if tt.recalled {
					assert.Empty(t, v.Images)
				} else {
					require.Len(t, v.Images, 1)
					assert.Equal(t, "/uploads/p.png", v.Images[0].Full)
				}
			default:
				t.Fatalf("unexpected view %T", v)
			}
		})
	}
}

func TestAvatarOnlyForReceived(t *testing.T) {
	b := newBuilder()
	out := b.Build(&chat.Message{ID: 1, SenderID: self, Content: "a"}, conv()).(TextView)
	assert.Nil(t, out.Avatar)

	in := b.Build(&chat.Message{ID: 2, SenderID: "2", Content: "a"}, conv()).(TextView)
	require.NotNil(t, in.Avatar)
	assert.Equal(t, "B", in.Avatar.Initial)
	assert.Empty(t, in.Avatar.URL)

	c := conv()
	c.Avatar = "/uploads/avatars/2.png"
	in = b.Build(&chat.Message{ID: 3, SenderID: "2", Content: "a"}, c).(TextView)
	assert.Equal(t, "/uploads/avatars/2.png", in.Avatar.URL)
}

func TestImagesDedupeAndDegrade(t *testing.T) {
	b := newBuilder(WithResolver(ResolverFunc(func(p string) bool { return p != "/uploads/broken.png" })))
	m := &chat.Message{ID: 1, SenderID: "2", Attachments: []chat.Attachment{
		{FilePath: "/uploads/full.png", ThumbnailPath: "/uploads/thumb.png"},
		{FilePath: "/uploads/full.png"},
		{FilePath: "/uploads/broken.png"},
		{Type: "file", FilePath: "/uploads/doc.pdf"},
	}}
	v := b.Build(m, conv()).(ImageView)
	require.Len(t, v.Images, 2)
	assert.Equal(t, "/uploads/thumb.png", v.Images[0].Thumb)
	assert.Equal(t, "/uploads/full.png", v.Images[0].Full)
	assert.False(t, v.Images[0].Unavailable)
	assert.True(t, v.Images[1].Unavailable)
}

func TestReplyPreviewFallsBackToLoadedMessage(t *testing.T) {
	b := newBuilder()
	c := conv()
	c.Messages = []*chat.Message{
		{ID: 10, SenderID: self, Attachments: []chat.Attachment{{FilePath: "/uploads/orig.png"}}},
	}
	m := &chat.Message{ID: 11, SenderID: "2", Content: "nice", Reply: &chat.ReplyRef{MessageID: 10, SenderID: self}}
	v := b.Build(m, c).(TextView)
	require.NotNil(t, v.Reply)
	assert.True(t, v.Reply.IsImage)
	assert.Equal(t, ImageReplyText, v.Reply.Text)
	require.Len(t, v.Reply.Images, 1)
	assert.Equal(t, "/uploads/orig.png", v.Reply.Images[0].Full)

	m.Reply = &chat.ReplyRef{MessageID: 99, Text: "plain"}
	v = b.Build(m, c).(TextView)
	assert.False(t, v.Reply.IsImage)
	assert.Equal(t, "plain", v.Reply.Text)
}

func TestTimeLabel(t *testing.T) {
	b := newBuilder()
	assert.Equal(t, "09:05", b.TimeLabel(time.Date(2026, 6, 15, 9, 5, 0, 0, time.UTC)))
	assert.Equal(t, "06/14", b.TimeLabel(time.Date(2026, 6, 14, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", b.TimeLabel(time.Time{}))
}
