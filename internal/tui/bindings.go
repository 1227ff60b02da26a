package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/matheus3301/dmchat/internal/convstore"
	"github.com/matheus3301/dmchat/internal/tui/keys"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

func runeKey(r rune, desc string, fn func()) *keys.Action {
	return &keys.Action{Key: tcell.KeyRune, Rune: r, Description: desc, Handler: fn, Visible: true}
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("command", runeKey(':', "Command", func() { a.openPrompt(ui.PromptCommand, "") }))
	a.registry.AddGlobal("help", runeKey('?', "Help", func() { a.showPage(pageHelp, a.help) }))
	a.registry.AddGlobal("quit", &keys.Action{Key: tcell.KeyCtrlC, Hint: "Ctrl-C", Description: "Quit", Handler: a.Stop, Visible: true})

	a.registry.AddView(scopeList, "filter", runeKey('/', "Filter", func() { a.openPrompt(ui.PromptFilter, a.list.Filter()) }))
	a.registry.AddView(scopeList, "unread", runeKey('u', "Unread only", a.toggleListFilter))
	a.registry.AddView(scopeList, "search", runeKey('S', "Search all", func() { a.showPage(pageSearch, a.search.Input()) }))
	a.registry.AddView(scopeList, "down", &keys.Action{Key: tcell.KeyRune, Rune: 'j', Handler: func() { a.moveList(1) }})
	a.registry.AddView(scopeList, "up", &keys.Action{Key: tcell.KeyRune, Rune: 'k', Handler: func() { a.moveList(-1) }})
	for n := 1; n <= 9; n++ {
		n := n
		a.registry.AddView(scopeList, "jump"+string(rune('0'+n)), &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n),
			Handler: func() {
				if id := a.list.ByIndex(n); id != "" {
					a.openConversation(id)
				}
			},
		})
	}

	a.registry.AddView(scopeThread, "compose", runeKey('i', "Compose", func() { a.app.SetFocus(a.thread.Composer()) }))
	a.registry.AddView(scopeThread, "down", &keys.Action{Key: tcell.KeyRune, Rune: 'j', Handler: func() { a.thread.Move(1) }})
	a.registry.AddView(scopeThread, "up", &keys.Action{Key: tcell.KeyRune, Rune: 'k', Handler: func() {
		if a.thread.Move(-1) && a.core.Selector.Pagination().HasMore {
			a.loadMore()
		}
	}})
	a.registry.AddView(scopeThread, "reply", runeKey('r', "Reply", a.replyToSelected))
	a.registry.AddView(scopeThread, "recall", runeKey('x', "Recall", func() {
		conv, id := a.selectedMessage()
		if id != 0 {
			a.inBackground("recall", func(ctx context.Context) error { return a.core.Actions.Recall(ctx, conv, id) })
		}
	}))
	a.registry.AddView(scopeThread, "save", runeKey('s', "Save", func() {
		conv, id := a.selectedMessage()
		if id != 0 {
			a.inBackground("save", func(ctx context.Context) error { return a.core.Actions.Save(ctx, conv, id) })
		}
	}))
	a.registry.AddView(scopeThread, "unsave", runeKey('U', "Unsave", func() {
		conv, id := a.selectedMessage()
		if id != 0 {
			a.inBackground("unsave", func(ctx context.Context) error { return a.core.Actions.Unsave(ctx, conv, id) })
		}
	}))
	a.registry.AddView(scopeThread, "forward", runeKey('f', "Forward", func() {
		conv, id := a.selectedMessage()
		if id != 0 {
			_ = a.core.Actions.Forward(conv, id)
		}
	}))
	a.registry.AddView(scopeThread, "search", runeKey('/', "Search", func() { a.openPrompt(ui.PromptSearch, a.core.Store.Query()) }))
	a.registry.AddView(scopeThread, "more", runeKey('m', "More", a.loadMore))
	a.registry.AddView(scopeThread, "details", runeKey('d', "Details", a.showDetails))
}

func (a *App) moveList(delta int) {
	row, _ := a.list.GetSelection()
	row += delta
	if row >= 1 && row < a.list.GetRowCount() {
		a.list.Select(row, 0)
	}
}

func (a *App) toggleListFilter() {
	next := convstore.ListUnread
	if a.core.Store.ListFilter() == convstore.ListUnread {
		next = convstore.ListAll
	}
	a.core.Store.SetListFilter(next)
}

// hints builds the menu entries of the focused scope.
// hints lists the menu entries of the focused scope. Pages without key
// bindings of their own show their component hints.
func (a *App) hints() []ui.MenuHint {
	scope := a.scope()
	var out []ui.MenuHint
	if scope != scopeList && scope != scopeThread {
		if c := a.component(scope); c != nil {
			out = append(out, c.Hints()...)
		}
	}
	for _, act := range a.registry.Visible(scope) {
		out = append(out, ui.MenuHint{Key: act.Label(), Description: act.Description})
	}
	if scope == scopeList {
		out = append(out, ui.MenuHint{Key: "1-9", Description: "Open Nth", Numeric: true})
	}
	return out
}
