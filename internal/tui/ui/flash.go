package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// How long each level stays on screen.
const (
	InfoDuration = 4 * time.Second
	WarnDuration = 6 * time.Second
	ErrDuration  = 8 * time.Second
)

// FlashMessage is a flash notification with a level and expiry. Count is
// how many times the same text was raised while it was still shown.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
	Count   int
}

// FlashModel holds the current transient notification. It satisfies
// actions.Notifier, so message actions report straight to the flash bar.
type FlashModel struct {
	mu      sync.RWMutex
	now     func() time.Time
	current FlashMessage
	watchCh chan FlashMessage
}

// NewFlashModel creates a new flash model.
func NewFlashModel() *FlashModel {
	return &FlashModel{
		now:     time.Now,
		watchCh: make(chan FlashMessage, 8),
	}
}

// Info sets an info-level flash message.
func (f *FlashModel) Info(msg string) { f.set(msg, FlashInfo, InfoDuration) }

// Warn sets a warn-level flash message.
func (f *FlashModel) Warn(msg string) { f.set(msg, FlashWarn, WarnDuration) }

// Err sets an error-level flash message.
func (f *FlashModel) Err(msg string) { f.set(msg, FlashErr, ErrDuration) }

func (f *FlashModel) set(msg string, level FlashLevel, d time.Duration) {
	f.mu.Lock()
	now := f.now()
	fm := FlashMessage{Text: msg, Level: level, Expires: now.Add(d), Count: 1}
	if c := f.current; c.Text == msg && c.Level == level && !now.After(c.Expires) {
		fm.Count = c.Count + 1
	}
	f.current = fm
	f.mu.Unlock()
	select {
	case f.watchCh <- fm:
	default:
	}
}

// Current returns the current flash message, or nil if expired.
func (f *FlashModel) Current() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || f.now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch returns a channel that receives every flash message as it is set.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders a flash message on the bar; nil clears it.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}

	color := colorName(fb.theme.FlashInfoColor)
	switch msg.Level {
	case FlashWarn:
		color = colorName(fb.theme.FlashWarnColor)
	case FlashErr:
		color = colorName(fb.theme.FlashErrColor)
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", color, tview.Escape(msg.Text))
	if msg.Count > 1 {
		_, _ = fmt.Fprintf(fb, " [::d](x%d)[-:-:-]", msg.Count)
	}
}
