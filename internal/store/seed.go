package store

import (
	"fmt"
	"time"
)

// SeedDemo fills the archive with a small demo data set for selfID: an active
// partner with enough history to paginate, a quiet partner and a deactivated
// one. Seeding twice is a no-op because every row carries a fixed client id.
// It returns the number of messages in the demo set.
func (db *DB) SeedDemo(selfID string, now time.Time) (int, error) {
	contacts := []Contact{
		{UserID: "2", Name: "Alice", Avatar: "/uploads/avatars/alice.png", Online: true},
		{UserID: "3", Name: "Bob"},
		{UserID: "4", Name: "Carol", IsDeleted: true},
	}
	if err := db.BulkUpsertContacts(contacts); err != nil {
		return 0, fmt.Errorf("seed contacts: %w", err)
	}

	base := now.Add(-36 * time.Hour)
	at := func(minutes int) int64 { return base.Add(time.Duration(minutes) * time.Minute).UnixMilli() }
	var msgs []Message

	for i := 0; i < 24; i++ {
		sender, receiver := "2", selfID
		if i%3 == 2 {
			sender, receiver = selfID, "2"
		}
		m := Message{
			ClientMsgID: fmt.Sprintf("seed-alice-%02d", i),
			SenderID:    sender,
			ReceiverID:  receiver,
			Content:     fmt.Sprintf("Message %d about the trip", i+1),
			Timestamp:   at(i * 45),
		}
		if i < 20 {
			m.ReadAt = m.Timestamp
		}
		msgs = append(msgs, m)
	}
	msgs = append(msgs,
		Message{
			ClientMsgID: "seed-alice-photo",
			SenderID:    "2", ReceiverID: selfID,
			Timestamp: at(24*45 + 5),
			Attachments: []Attachment{{
				Type:             "image",
				FilePath:         "/uploads/photos/beach.jpg",
				ThumbnailPath:    "/uploads/photos/beach_thumb.jpg",
				OriginalFilename: "beach.jpg",
			}},
		},
		Message{
			ClientMsgID: "seed-alice-oops",
			SenderID:    selfID, ReceiverID: "2",
			Content:   "wrong chat, sorry",
			Timestamp: at(24*45 + 8), ReadAt: at(24*45 + 9),
			RecallType: "soft",
		},
		Message{
			ClientMsgID: "seed-bob-1",
			SenderID:    "3", ReceiverID: selfID,
			Content:   "hello there", Timestamp: at(60), ReadAt: at(61),
		},
		Message{
			ClientMsgID: "seed-bob-2",
			SenderID:    selfID, ReceiverID: "3",
			Content: "Hello Bob!", Timestamp: at(62), ReadAt: at(63),
		},
		Message{
			ClientMsgID: "seed-carol-1",
			SenderID:    "4", ReceiverID: selfID,
			Content: "see you around", Timestamp: at(10), ReadAt: at(11),
		},
	)

	ids := make(map[string]int64, len(msgs))
	for i := range msgs {
		id, err := db.InsertMessage(&msgs[i])
		if err != nil {
			return 0, fmt.Errorf("seed message %s: %w", msgs[i].ClientMsgID, err)
		}
		ids[msgs[i].ClientMsgID] = id
	}

	reply := Message{
		ClientMsgID: "seed-alice-reply",
		SenderID:    selfID, ReceiverID: "2",
		Content:   "Looks amazing",
		Timestamp: at(24*45 + 10),
		ReplyToID: ids["seed-alice-photo"],
	}
	if _, err := db.InsertMessage(&reply); err != nil {
		return 0, fmt.Errorf("seed reply: %w", err)
	}
	if _, err := db.SaveMessage(selfID, ids["seed-alice-03"]); err != nil {
		return 0, fmt.Errorf("seed saved: %w", err)
	}
	return len(msgs) + 1, nil
}
