package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FlexID decodes identifiers sent either as JSON numbers or strings.
type FlexID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id %s: %w", b, err)
	}
	*id = FlexID(n.String())
	return nil
}

// AttachmentRecord is the wire shape of an attachment.
type AttachmentRecord struct {
	AttachmentType   string `json:"attachment_type"`
	FilePath         string `json:"file_path"`
	ThumbnailPath    string `json:"thumbnail_path"`
	OriginalFilename string `json:"original_filename"`
}

// MessageRecord is the externally defined message schema returned by the
// transport.
type MessageRecord struct {
	ID              int64              `json:"id"`
	SenderID        FlexID             `json:"sender_id"`
	ReceiverID      FlexID             `json:"receiver_id"`
	Content         string             `json:"content"`
	Timestamp       string             `json:"timestamp"`
	IsRead          *bool              `json:"is_read,omitempty"`
	ReadAt          *string            `json:"read_at,omitempty"`
	RecallType      string             `json:"recall_type,omitempty"`
	AttachmentCount int                `json:"attachment_count,omitempty"`
	Attachments     []AttachmentRecord `json:"attachments,omitempty"`
	ReplyToID       *int64             `json:"reply_to_id,omitempty"`
	ReplyToText     string             `json:"reply_to_text,omitempty"`
	ReplyToSender   FlexID             `json:"reply_to_sender,omitempty"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000000",
}

// ParseTimestamp accepts RFC3339, SQL datetime, or unix milliseconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FromRecord converts a wire record into a Message of the conversation with
// partnerID. It returns false for records that must not reach the client
// (hard recalls).
func FromRecord(r MessageRecord, partnerID string) (*Message, bool) {
	recall := ParseRecallState(r.RecallType)
	if recall == RecallHard {
		return nil, false
	}
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		ts = time.Time{}
	}
	read := r.ReadAt != nil && strings.TrimSpace(*r.ReadAt) != ""
	if r.IsRead != nil {
		read = read || *r.IsRead
	}

	m := &Message{
		ID:             r.ID,
		ConversationID: partnerID,
		SenderID:       string(r.SenderID),
		ReceiverID:     string(r.ReceiverID),
		Content:        r.Content,
		Recall:         recall,
		Read:           read,
		Timestamp:      ts,
	}
	for _, a := range r.Attachments {
		m.Attachments = append(m.Attachments, Attachment{
			Type:             AttachmentType(Attachment{Type: a.AttachmentType}),
			FilePath:         a.FilePath,
			ThumbnailPath:    a.ThumbnailPath,
			OriginalFilename: a.OriginalFilename,
		})
	}
	if r.ReplyToID != nil && *r.ReplyToID > 0 {
		m.Reply = &ReplyRef{
			MessageID: *r.ReplyToID,
			Text:      r.ReplyToText,
			SenderID:  string(r.ReplyToSender),
		}
	}
	return m, true
}

// FromRecords converts records and sorts the result by timestamp ascending.
// Equal timestamps keep id order.
func FromRecords(records []MessageRecord, partnerID string) []*Message {
	out := make([]*Message, 0, len(records))
	for _, r := range records {
		if m, ok := FromRecord(r, partnerID); ok {
			out = append(out, m)
		}
	}
	SortByTime(out)
	return out
}

// SortByTime sorts messages by timestamp ascending, breaking ties by id.
func SortByTime(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].ID < msgs[j].ID
	})
}

// ToRecord converts a message back into its wire shape.
func ToRecord(m *Message) MessageRecord {
	r := MessageRecord{
		ID:              m.ID,
		SenderID:        FlexID(m.SenderID),
		ReceiverID:      FlexID(m.ReceiverID),
		Content:         m.Content,
		Timestamp:       m.Timestamp.UTC().Format(time.RFC3339Nano),
		AttachmentCount: len(m.Attachments),
	}
	if m.Recall != RecallNone {
		r.RecallType = m.Recall.String()
	}
	read := m.Read
	r.IsRead = &read
	for _, a := range m.Attachments {
		r.Attachments = append(r.Attachments, AttachmentRecord{
			AttachmentType:   a.Type,
			FilePath:         a.FilePath,
			ThumbnailPath:    a.ThumbnailPath,
			OriginalFilename: a.OriginalFilename,
		})
	}
	if m.Reply != nil {
		id := m.Reply.MessageID
		r.ReplyToID = &id
		r.ReplyToText = m.Reply.Text
		r.ReplyToSender = FlexID(m.Reply.SenderID)
	}
	return r
}
