package ui

import (
	"testing"
	"time"

	"github.com/matheus3301/dmchat/internal/actions"
)

var _ actions.Notifier = (*FlashModel)(nil)

func TestFlashExpiry(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("Current() should be nil before any message")
	}

	f.Warn("careful")
	msg := f.Current()
	if msg == nil || msg.Text != "careful" || msg.Level != FlashWarn {
		t.Fatalf("Current() = %+v", msg)
	}
	if !msg.Expires.Equal(now.Add(WarnDuration)) {
		t.Errorf("Expires = %v, want %v", msg.Expires, now.Add(WarnDuration))
	}

	now = now.Add(WarnDuration + time.Second)
	if f.Current() != nil {
		t.Error("Current() should be nil after expiry")
	}
}

func TestFlashWatch(t *testing.T) {
	f := NewFlashModel()
	f.Info("one")
	f.Err("two")

	for _, want := range []FlashLevel{FlashInfo, FlashErr} {
		select {
		case msg := <-f.Watch():
			if msg.Level != want {
				t.Errorf("level = %v, want %v", msg.Level, want)
			}
		default:
			t.Fatal("watch channel is empty")
		}
	}
	if got := f.Current(); got == nil || got.Text != "two" {
		t.Errorf("Current() = %+v, want the latest message", got)
	}
}

func TestFlashRepeatsAreCounted(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	f := NewFlashModel()
	f.now = func() time.Time { return now }

	f.Warn("select a message first")
	f.Warn("select a message first")
	if got := f.Current().Count; got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}

	f.Info("select a message first")
	if got := f.Current().Count; got != 1 {
		t.Errorf("Count after level change = %d, want 1", got)
	}

	now = now.Add(InfoDuration + time.Second)
	f.Info("select a message first")
	if got := f.Current().Count; got != 1 {
		t.Errorf("Count after expiry = %d, want 1", got)
	}
}

func TestFlashWatchDoesNotBlock(t *testing.T) {
	f := NewFlashModel()
	for i := 0; i < 100; i++ {
		f.Info("spam")
	}
	if f.Current() == nil {
		t.Error("Current() should hold the last message")
	}
}
