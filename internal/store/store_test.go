package store

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insert(t *testing.T, db *DB, m Message) int64 {
	t.Helper()
	id, err := db.InsertMessage(&m)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	// testDB already ran Migrate, so run it again to check idempotency.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 || result.From != 2 {
		t.Errorf("version = %d -> %d, want 2 -> 2 (init + saved_blocks)", result.From, result.Version)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Errorf("SchemaVersion() = %d, want 2", v)
	}
}

func TestMigrateFreshArchive(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.From != 0 || result.Version != 2 || !result.Changed {
		t.Errorf("Migrate() = %+v, want 0 -> 2 changed", result)
	}
}

// TestMigrateSchemaHasRequiredColumns verifies the migrations create every
// column the local transport depends on.
func TestMigrateSchemaHasRequiredColumns(t *testing.T) {
	db := testDB(t)

	requiredOps := []struct {
		desc  string
		query string
		args  []any
	}{
		{"insert contact", "INSERT INTO contacts (user_id, name, avatar, is_deleted, online) VALUES (?, ?, ?, ?, ?)", []any{"2", "Bob", "", false, true}},
		{"insert message", "INSERT INTO messages (id, sender_id, receiver_id, content, timestamp, read_at, recall_type, reply_to_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", []any{1, "2", "1", "hi", 1000, nil, "", nil}},
		{"insert attachment", "INSERT INTO attachments (message_id, position, attachment_type, file_path, thumbnail_path, original_filename) VALUES (?, ?, ?, ?, ?, ?)", []any{1, 0, "image", "/uploads/a.png", "", "a.png"}},
		{"save message", "INSERT INTO saved_messages (user_id, message_id) VALUES (?, ?)", []any{"1", 1}},
		{"block", "INSERT INTO blocks (blocker_id, blocked_id) VALUES (?, ?)", []any{"1", "3"}},
	}

	for _, op := range requiredOps {
		t.Run(op.desc, func(t *testing.T) {
			if _, err := db.Exec(op.query, op.args...); err != nil {
				t.Fatalf("%s failed: %v", op.desc, err)
			}
		})
	}
}

func TestContactUpsertKeepsName(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertContact(&Contact{UserID: "2", Name: "Bob"}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertContact(&Contact{UserID: "2", Online: true}); err != nil {
		t.Fatal(err)
	}
	c, err := db.GetContact("2")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Name != "Bob" || !c.Online {
		t.Errorf("got %+v, want Bob online", c)
	}

	c, err = db.GetContact("missing")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("expected nil for missing contact")
	}
}

func TestListConversationMessagesPaginates(t *testing.T) {
	db := testDB(t)

	for i := int64(1); i <= 5; i++ {
		sender, receiver := "1", "2"
		if i%2 == 0 {
			sender, receiver = "2", "1"
		}
		insert(t, db, Message{SenderID: sender, ReceiverID: receiver, Content: "m", Timestamp: i * 1000})
	}
	insert(t, db, Message{SenderID: "3", ReceiverID: "1", Content: "other", Timestamp: 9000})

	page, err := db.ListConversationMessages("1", "2", 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Timestamp != 5000 || page[1].Timestamp != 4000 {
		t.Fatalf("first page = %+v", page)
	}
	page, err = db.ListConversationMessages("1", "2", 10, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Timestamp != 1000 {
		t.Fatalf("last page = %+v", page)
	}
}

func TestInsertMessageAttachmentsAndReply(t *testing.T) {
	db := testDB(t)

	orig := insert(t, db, Message{SenderID: "2", ReceiverID: "1", Content: "question", Timestamp: 1000})
	reply := insert(t, db, Message{
		SenderID: "1", ReceiverID: "2", Timestamp: 2000, ReplyToID: orig,
		Attachments: []Attachment{{FilePath: "/uploads/a.png"}, {Type: "file", FilePath: "/uploads/b.pdf"}},
	})

	m, err := db.GetMessage(reply)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("message not found")
	}
	if m.ReplyToID != orig || m.ReplyToText != "question" || m.ReplyToSender != "2" {
		t.Errorf("reply = %d %q %q", m.ReplyToID, m.ReplyToText, m.ReplyToSender)
	}
	if len(m.Attachments) != 2 || m.Attachments[0].Type != "image" || m.Attachments[1].Type != "file" {
		t.Errorf("attachments = %+v", m.Attachments)
	}
}

func TestInsertMessageIdempotentOnClientID(t *testing.T) {
	db := testDB(t)

	a := insert(t, db, Message{ClientMsgID: "c1", SenderID: "1", ReceiverID: "2", Content: "x", Timestamp: 1})
	b := insert(t, db, Message{ClientMsgID: "c1", SenderID: "1", ReceiverID: "2", Content: "x", Timestamp: 1})
	if a != b {
		t.Errorf("ids = %d, %d; want equal", a, b)
	}
	n, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestListConversationsAndMarkRead(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertContact(&Contact{UserID: "2", Name: "Bob"}); err != nil {
		t.Fatal(err)
	}
	insert(t, db, Message{SenderID: "2", ReceiverID: "1", Content: "a", Timestamp: 1000})
	insert(t, db, Message{SenderID: "2", ReceiverID: "1", Content: "b", Timestamp: 2000})
	insert(t, db, Message{SenderID: "1", ReceiverID: "3", Content: "c", Timestamp: 3000})

	convs, err := db.ListConversations("1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].UserID != "3" || convs[0].Name != "3" {
		t.Errorf("first = %+v, want partner 3 named by id", convs[0])
	}
	if convs[1].Name != "Bob" || convs[1].UnreadCount != 2 {
		t.Errorf("second = %+v, want Bob with 2 unread", convs[1])
	}

	n, err := db.MarkConversationRead("1", "2")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("marked %d, want 2", n)
	}
	convs, _ = db.ListConversations("1", 0, 0)
	if convs[1].UnreadCount != 0 {
		t.Errorf("unread after mark = %d", convs[1].UnreadCount)
	}
}

func TestRecallMessage(t *testing.T) {
	db := testDB(t)

	id := insert(t, db, Message{SenderID: "1", ReceiverID: "2", Content: "oops", Timestamp: 1})
	ok, err := db.RecallMessage(id, "2", false)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("recall by non-sender should not match")
	}
	if ok, err = db.RecallMessage(id, "1", false); err != nil || !ok {
		t.Fatalf("soft recall = %v, %v", ok, err)
	}
	m, _ := db.GetMessage(id)
	if m.RecallType != "soft" {
		t.Errorf("recall_type = %q, want soft", m.RecallType)
	}
	if ok, err = db.RecallMessage(id, "1", true); err != nil || !ok {
		t.Fatalf("hard recall = %v, %v", ok, err)
	}
	if m, _ = db.GetMessage(id); m != nil {
		t.Error("hard recall should delete the row")
	}
}

func TestSavedMessages(t *testing.T) {
	db := testDB(t)

	a := insert(t, db, Message{SenderID: "2", ReceiverID: "1", Content: "keep", Timestamp: 1})
	insert(t, db, Message{SenderID: "2", ReceiverID: "1", Content: "skip", Timestamp: 2})
	other := insert(t, db, Message{SenderID: "3", ReceiverID: "1", Content: "elsewhere", Timestamp: 3})

	if ok, err := db.SaveMessage("1", a); err != nil || !ok {
		t.Fatalf("save = %v, %v", ok, err)
	}
	if ok, _ := db.SaveMessage("1", a); ok {
		t.Error("second save should report already saved")
	}
	if _, err := db.SaveMessage("1", other); err != nil {
		t.Fatal(err)
	}

	ids, err := db.SavedIDs("1", "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != a {
		t.Errorf("saved ids = %v, want [%d]", ids, a)
	}

	if ok, _ := db.UnsaveMessage("1", a); !ok {
		t.Error("unsave should report removal")
	}
	if ids, _ = db.SavedIDs("1", "2"); len(ids) != 0 {
		t.Errorf("saved ids after unsave = %v", ids)
	}
}

func TestBlocks(t *testing.T) {
	db := testDB(t)

	if err := db.Block("2", "1"); err != nil {
		t.Fatal(err)
	}
	blocked, err := db.IsBlocked("1", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !blocked {
		t.Error("block should apply in both directions")
	}
	if err := db.Unblock("2", "1"); err != nil {
		t.Fatal(err)
	}
	if blocked, _ = db.IsBlocked("1", "2"); blocked {
		t.Error("unblock did not apply")
	}
}

func TestClearConversation(t *testing.T) {
	db := testDB(t)

	id := insert(t, db, Message{SenderID: "2", ReceiverID: "1", Content: "a", Timestamp: 1,
		Attachments: []Attachment{{FilePath: "/uploads/x.png"}}})
	insert(t, db, Message{SenderID: "1", ReceiverID: "2", Content: "b", Timestamp: 2})
	insert(t, db, Message{SenderID: "3", ReceiverID: "1", Content: "c", Timestamp: 3})
	if _, err := db.SaveMessage("1", id); err != nil {
		t.Fatal(err)
	}

	n, err := db.ClearConversation("1", "2")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}
	var left int
	if err := db.QueryRow(`SELECT COUNT(*) FROM attachments`).Scan(&left); err != nil {
		t.Fatal(err)
	}
	if left != 0 {
		t.Errorf("attachments left = %d", left)
	}
	if ids, _ := db.SavedIDs("1", "2"); len(ids) != 0 {
		t.Errorf("saved ids left = %v", ids)
	}
}

func TestSearchMessages(t *testing.T) {
	db := testDB(t)

	insert(t, db, Message{SenderID: "2", ReceiverID: "1", Content: "Hello world", Timestamp: 1000})
	insert(t, db, Message{SenderID: "2", ReceiverID: "1", Content: "goodbye world", Timestamp: 2000})
	insert(t, db, Message{SenderID: "3", ReceiverID: "1", Content: "hello again", Timestamp: 3000})

	results, err := db.SearchMessages("1", "hello", "2", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Snippet != "<<Hello>> world" {
		t.Errorf("snippet = %q", results[0].Snippet)
	}

	results, err = db.SearchMessages("1", "hello", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results across conversations, want 2", len(results))
	}
}
