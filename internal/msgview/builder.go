package msgview

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/matheus3301/dmchat/internal/chat"
)

// ImageResolver reports whether an image path can be shown.
type ImageResolver interface {
	Resolve(path string) bool
}

// ResolverFunc adapts a function to ImageResolver.
type ResolverFunc func(path string) bool

// Resolve implements ImageResolver.
func (f ResolverFunc) Resolve(path string) bool { return f(path) }

// UploadedPathResolver accepts any path that looks like an uploaded file.
var UploadedPathResolver = ResolverFunc(chat.IsUploadedPath)

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the clock used for timestamp labels.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithResolver sets the image resolver.
func WithResolver(r ImageResolver) Option {
	return func(b *Builder) { b.resolver = r }
}

// Builder builds views for messages of the local user selfID.
type Builder struct {
	selfID   string
	now      func() time.Time
	resolver ImageResolver
}

// NewBuilder creates a builder.
func NewBuilder(selfID string, opts ...Option) *Builder {
	b := &Builder{selfID: selfID, now: time.Now, resolver: UploadedPathResolver}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Classify picks the variant of m. It is the only place the decision is made.
func Classify(m *chat.Message) Kind {
	switch {
	case m == nil || m.System:
		return KindSystem
	case chat.IsImageMessage(m):
		return KindImage
	default:
		return KindText
	}
}

// Build returns the view of m inside conv. conv may be nil.
func (b *Builder) Build(m *chat.Message, conv *chat.Conversation) View {
	switch Classify(m) {
	case KindSystem:
		if m == nil {
			return SystemView{}
		}
		return SystemView{ID: m.ID, Text: m.Content, Time: m.Timestamp}
	case KindImage:
		base := b.base(m, conv)
		v := ImageView{Base: base}
		if !base.Recalled {
			v.Images = b.images(m.Attachments)
		}
		return v
	default:
		base := b.base(m, conv)
		text := m.Content
		if base.Recalled {
			text = RecalledText
		}
		return TextView{Base: base, Text: text}
	}
}

// BuildAll builds views for msgs in order.
func (b *Builder) BuildAll(msgs []*chat.Message, conv *chat.Conversation) []View {
	out := make([]View, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, b.Build(m, conv))
	}
	return out
}

// TimeLabel formats t as HH:MM when it falls on today, MM/DD otherwise.
func (b *Builder) TimeLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := b.now()
	t = t.In(now.Location())
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

func (b *Builder) base(m *chat.Message, conv *chat.Conversation) Base {
	outgoing := m.SenderID == b.selfID
	base := Base{
		ID:        m.ID,
		Outgoing:  outgoing,
		SenderID:  m.SenderID,
		Recalled:  outgoing && m.Recall == chat.RecallSoft,
		Read:      m.Read,
		Time:      m.Timestamp,
		TimeLabel: b.TimeLabel(m.Timestamp),
	}
	if !outgoing {
		base.Avatar = PartnerAvatar(conv, m.SenderID)
	}
	if m.Reply != nil {
		base.Reply = b.reply(m.Reply, conv)
	}
	return base
}

// PartnerAvatar resolves the avatar of a conversation partner, falling back to
// a first-letter badge when no uploaded image is set.
func PartnerAvatar(conv *chat.Conversation, fallbackID string) *Avatar {
	name := fallbackID
	if conv != nil {
		if chat.IsUploadedPath(conv.Avatar) {
			return &Avatar{URL: strings.TrimSpace(conv.Avatar)}
		}
		if conv.Name != "" {
			name = conv.Name
		}
	}
	return &Avatar{Initial: initial(name)}
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

func (b *Builder) reply(ref *chat.ReplyRef, conv *chat.Conversation) *ReplyPreview {
	text := ref.Text
	atts := ref.Attachments
	if len(chat.ImageAttachments(atts)) == 0 {
		if orig := conv.FindMessage(ref.MessageID); orig != nil {
			atts = orig.Attachments
			if strings.TrimSpace(text) == "" {
				text = orig.Content
			}
		}
	}
	p := &ReplyPreview{
		MessageID: ref.MessageID,
		SenderID:  ref.SenderID,
		Text:      text,
		IsImage:   chat.IsImageReply(text, atts),
	}
	if p.IsImage {
		p.Images = b.images(atts)
		if strings.TrimSpace(p.Text) == "" {
			p.Text = ImageReplyText
		}
	}
	return p
}

// images resolves the image attachments of a message. An attachment carrying
// both a thumbnail and a full path yields one image; repeated paths are
// skipped.
func (b *Builder) images(atts []chat.Attachment) []Image {
	var out []Image
	seen := make(map[string]bool)
	for _, a := range chat.ImageAttachments(atts) {
		full := strings.TrimSpace(a.FilePath)
		thumb := strings.TrimSpace(a.ThumbnailPath)
		if thumb == "" {
			thumb = full
		}
		if full == "" {
			full = thumb
		}
		if seen[thumb] || seen[full] {
			continue
		}
		seen[thumb] = true
		seen[full] = true

		img := Image{Thumb: thumb, Full: full, Name: a.OriginalFilename}
		switch {
		case b.resolver.Resolve(thumb):
		case b.resolver.Resolve(full):
			img.Thumb = full
		default:
			img.Unavailable = true
		}
		out = append(out, img)
	}
	return out
}
