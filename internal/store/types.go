package store

// Contact is a peer known to the archive.
type Contact struct {
	UserID    string
	Name      string
	Avatar    string
	IsDeleted bool
	Online    bool
}

// Attachment is a file attached to an archived message.
type Attachment struct {
	Type             string
	FilePath         string
	ThumbnailPath    string
	OriginalFilename string
}

// Message is an archived direct message. Timestamps are unix milliseconds; a
// zero ReadAt means unread.
type Message struct {
	ID          int64
	ClientMsgID string
	SenderID    string
	ReceiverID  string
	Content     string
	Timestamp   int64
	ReadAt      int64
	RecallType  string
	ReplyToID   int64
	Attachments []Attachment

	// Denormalized from the replied-to row.
	ReplyToText   string
	ReplyToSender string
}

// Conversation summarizes the thread between a user and one partner.
type Conversation struct {
	Contact
	UnreadCount   int
	LastMessageAt int64
	MessageCount  int
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}
