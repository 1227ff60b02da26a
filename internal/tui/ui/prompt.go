package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates the type of prompt.
type PromptMode int

const (
	// PromptCommand reads a ":" command.
	PromptCommand PromptMode = iota
	// PromptSearch reads a free-text query for the open conversation. Every
	// keystroke is reported through the change callback.
	PromptSearch
	// PromptFilter narrows the conversation list.
	PromptFilter
)

// Prompt is a command/search input bar.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	onSubmit func(mode PromptMode, text string)
	onChange func(mode PromptMode, text string)
	onCancel func(mode PromptMode)
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
	}

	input.SetChangedFunc(func(text string) {
		if p.onChange != nil {
			p.onChange(p.mode, text)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			if p.onSubmit != nil {
				p.onSubmit(p.mode, p.GetText())
			}
		case tcell.KeyEscape:
			if p.onCancel != nil {
				p.onCancel(p.mode)
			}
		}
	})

	return p
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnChange sets the callback fired on every edit.
func (p *Prompt) SetOnChange(fn func(mode PromptMode, text string)) {
	p.onChange = fn
}

// SetOnCancel sets the callback when the prompt is cancelled.
func (p *Prompt) SetOnCancel(fn func(mode PromptMode)) {
	p.onCancel = fn
}

// Activate shows the prompt in the specified mode, prefilled with text.
func (p *Prompt) Activate(mode PromptMode, text string) {
	p.mode = mode
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptSearch:
		p.SetLabel("/")
		p.SetTitle(" Search conversation ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter conversations ")
	}
	// Set the text after the mode so the change callback sees the new mode.
	p.SetText(text)
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
