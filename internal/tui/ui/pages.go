package ui

import (
	"slices"

	"github.com/rivo/tview"
)

// Pages is a stack-based page manager wrapping tview.Pages.
// It provides push/pop semantics and notifies on stack changes.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(stack []string)
}

// NewPages creates a new stack-based page manager.
func NewPages() *Pages {
	return &Pages{
		Pages: tview.NewPages(),
	}
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. Pushing the current page again is a
// no-op; pushing a page already lower in the stack unwinds to it.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	if i := slices.Index(p.stack, name); i >= 0 {
		p.unwind(i + 1)
		return
	}
	if len(p.stack) > 0 {
		p.HidePage(p.stack[len(p.stack)-1])
	}
	p.stack = append(p.stack, name)
	p.show(name)
}

// Pop removes the top page and shows the previous one. The root page is
// never popped. Returns the name of the popped page, or empty.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.unwind(len(p.stack) - 1)
	return top
}

// Current returns the name of the current (top) page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the current page stack.
func (p *Pages) Stack() []string {
	return slices.Clone(p.stack)
}

// Reset clears the stack and shows only the given page.
func (p *Pages) Reset(name string) {
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{name}
	p.show(name)
}

// unwind keeps the first n pages.
func (p *Pages) unwind(n int) {
	for _, name := range p.stack[n:] {
		p.HidePage(name)
	}
	p.stack = p.stack[:n]
	p.show(p.stack[n-1])
}

func (p *Pages) show(name string) {
	p.ShowPage(name)
	p.SendToFront(name)
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
