package store

import (
	"testing"
	"time"
)

func TestSeedDemoIsIdempotent(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 7, 2, 12, 0, 0, 0, time.UTC)

	n, err := db.SeedDemo("1", now)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.SeedDemo("1", now); err != nil {
		t.Fatal(err)
	}

	count, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != int64(n) {
		t.Errorf("MessageCount() = %d, want %d", count, n)
	}

	convs, err := db.ListConversations("1", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 3 {
		t.Fatalf("got %d conversations, want 3", len(convs))
	}
	if convs[0].UserID != "2" || convs[0].UnreadCount != 3 {
		t.Errorf("first conversation = %+v, want Alice with 3 unread", convs[0])
	}
	if !convs[2].IsDeleted {
		t.Errorf("last conversation = %+v, want deactivated Carol", convs[2])
	}

	saved, err := db.SavedIDs("1", "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 {
		t.Errorf("saved = %v, want one id", saved)
	}
}
