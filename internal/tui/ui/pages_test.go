package ui

import (
	"slices"
	"testing"

	"github.com/rivo/tview"
)

func newTestPages() *Pages {
	p := NewPages()
	for _, name := range []string{"list", "chat", "details"} {
		p.AddPage(name, tview.NewBox(), true, false)
	}
	p.Reset("list")
	return p
}

func TestPagesPushPop(t *testing.T) {
	p := newTestPages()
	var changes [][]string
	p.SetOnChange(func(stack []string) { changes = append(changes, stack) })

	p.Push("chat")
	p.Push("chat")
	p.Push("details")
	if got := p.Stack(); !slices.Equal(got, []string{"list", "chat", "details"}) {
		t.Fatalf("Stack() = %v", got)
	}
	if len(changes) != 2 {
		t.Errorf("onChange fired %d times, want 2", len(changes))
	}

	if got := p.Pop(); got != "details" {
		t.Errorf("Pop() = %q, want details", got)
	}
	if got := p.Current(); got != "chat" {
		t.Errorf("Current() = %q, want chat", got)
	}
	if name, _ := p.GetFrontPage(); name != "chat" {
		t.Errorf("front page = %q, want chat", name)
	}
}

func TestPagesRootIsNeverPopped(t *testing.T) {
	p := newTestPages()
	if got := p.Pop(); got != "" {
		t.Errorf("Pop() on root = %q, want empty", got)
	}
	if p.Current() != "list" {
		t.Errorf("Current() = %q, want list", p.Current())
	}
}

func TestPagesPushUnwinds(t *testing.T) {
	p := newTestPages()
	p.Push("chat")
	p.Push("details")
	p.Push("list")
	if got := p.Stack(); !slices.Equal(got, []string{"list"}) {
		t.Errorf("Stack() = %v, want [list]", got)
	}
}
