package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

func (a *App) openPrompt(mode ui.PromptMode, text string) {
	a.prompt.Activate(mode, text)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.restoreFocus()
}

func (a *App) onPromptChange(mode ui.PromptMode, text string) {
	switch mode {
	case ui.PromptSearch:
		a.core.Search.SetQuery(text)
	case ui.PromptFilter:
		a.list.SetFilter(text)
	}
}

func (a *App) onPromptSubmit(mode ui.PromptMode, text string) {
	a.closePrompt()
	switch mode {
	case ui.PromptSearch:
		go func() {
			if _, err := a.core.Search.SubmitQuery(text); err != nil && !errors.Is(err, chat.ErrNotFound) {
				a.flash.Err(err.Error())
			}
		}()
	case ui.PromptCommand:
		a.runCommand(ParseCommand(text))
	}
}

func (a *App) onPromptCancel(mode ui.PromptMode) {
	a.closePrompt()
	switch mode {
	case ui.PromptSearch:
		a.core.Search.Close()
	case ui.PromptFilter:
		a.list.SetFilter("")
	}
}

// runCommand executes a ":" command.
func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "":
	case "q", "quit":
		a.Stop()
	case "h", "help":
		a.showPage(pageHelp, a.help)
	case "mode":
		mode, err := ParseMode(cmd.Args)
		if a.warn(err) {
			return
		}
		a.core.Store.SetFilterMode(mode)
		if id := a.core.Store.CurrentConversation(); id != "" {
			go a.core.Selector.Select(a.ctx, id)
		}
	case "from":
		sender, err := ParseSender(cmd.Args)
		if a.warn(err) {
			return
		}
		go func() { _, _ = a.core.Search.SetSenderFilter(sender) }()
	case "dates":
		dr, err := ParseDates(cmd.Fields(), time.Local)
		if a.warn(err) {
			return
		}
		go func() { _, _ = a.core.Search.SetDateRange(dr) }()
	case "list":
		f, err := ParseListFilter(cmd.Args)
		if a.warn(err) {
			return
		}
		a.core.Store.SetListFilter(f)
	case "more":
		a.loadMore()
	case "clear":
		a.clearConversation()
	case "search":
		a.showPage(pageSearch, a.search.Input())
		if cmd.Args != "" {
			a.search.Input().SetText(cmd.Args)
			go a.runArchiveSearch(cmd.Args)
		}
	default:
		a.flash.Warn(fmt.Sprintf("unknown command %q", cmd.Name))
	}
}

func (a *App) clearConversation() {
	id := a.core.Store.CurrentConversation()
	conv := a.core.Store.Conversation(id)
	if conv == nil || !conv.Deleted {
		a.flash.Warn("only deactivated conversations can be cleared")
		return
	}
	a.inBackground("clear", func(ctx context.Context) error {
		if err := a.core.Selector.ClearConversation(ctx, id); err != nil {
			a.flash.Err("Could not clear conversation")
			return err
		}
		a.app.QueueUpdateDraw(func() {
			a.pages.Reset(pageList)
			a.app.SetFocus(a.list)
			a.refreshThread()
		})
		a.flash.Info("Conversation cleared")
		return nil
	})
}

// warn shows a validation error and reports whether there was one.
func (a *App) warn(err error) bool {
	if err == nil {
		return false
	}
	var ve *chat.ValidationError
	if errors.As(err, &ve) {
		a.flash.Warn(ve.Reason)
	} else {
		a.flash.Warn(err.Error())
	}
	return true
}
