package tui

import (
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/dmchat/internal/bus"
	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/search"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

// watchBus turns core events into redraws. Handlers run on the UI goroutine
// through QueueUpdateDraw.
func (a *App) watchBus() {
	storeCh, unsubStore := a.core.Bus.Subscribe("store.", 256)
	defer unsubStore()
	searchCh, unsubSearch := a.core.Bus.Subscribe("search.", 64)
	defer unsubSearch()
	selCh, unsubSel := a.core.Bus.Subscribe("selector.", 64)
	defer unsubSel()

	for {
		select {
		case <-a.ctx.Done():
			return
		case evt := <-storeCh:
			a.onStoreEvent(evt)
		case evt := <-searchCh:
			// A search pass changed the displayed set; rebuild the views.
			a.core.Selector.Render()
			if st, ok := evt.Payload.(search.State); ok {
				a.app.QueueUpdateDraw(func() { a.statusBar.SetMatches(st.Shown, st.Total) })
			}
		case evt := <-selCh:
			switch evt.Kind {
			case bus.KindSelectorRendered:
				a.app.QueueUpdateDraw(a.refreshThread)
			case bus.KindLoadState:
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetLoadState(a.core.Selector.LoadState())
					a.refreshInfo()
				})
			}
		}
	}
}

func (a *App) onStoreEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindListChanged, bus.KindConversationsChanged:
		a.app.QueueUpdateDraw(func() {
			a.refreshList()
			a.refreshInfo()
		})
	case bus.KindReplyDraftChanged:
		a.app.QueueUpdateDraw(func() { a.thread.SetReplyDraft(a.core.Store.ReplyDraft()) })
	case bus.KindFiltersChanged:
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetSelection(a.core.Store.Selection())
			a.updateChrome()
		})
	case bus.KindCurrentChanged:
		if a.core.Store.CurrentConversation() == "" {
			a.app.QueueUpdateDraw(a.refreshThread)
		}
	}
}

// watchFlash redraws the flash bar when a message is set and again when it
// expires.
func (a *App) watchFlash() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case msg := <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
			time.AfterFunc(time.Until(msg.Expires)+50*time.Millisecond, func() {
				a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
			})
		}
	}
}

func (a *App) refreshList() {
	ids := a.core.Store.List()
	convs := make([]*chat.Conversation, 0, len(ids))
	for _, id := range ids {
		if c := a.core.Store.Conversation(id); c != nil {
			convs = append(convs, c)
		}
	}
	a.list.Update(convs, a.core.Store.ListFilter())
}

func (a *App) refreshThread() {
	a.thread.Update(a.core.Selector.Header(), a.core.Selector.Views(), a.core.Selector.Pagination())
	a.thread.SetReplyDraft(a.core.Store.ReplyDraft())
	a.updateChrome()
}

func (a *App) refreshInfo() {
	unread := 0
	for _, c := range a.core.Store.Conversations() {
		unread += c.Unread
	}
	archived, err := a.core.DB.MessageCount()
	if err != nil {
		a.logger.Debug("message count failed", zap.Error(err))
	}
	a.info.Update(&ui.ProfileData{
		Profile:       a.profile,
		UserID:        a.core.Config.UserID,
		LoadState:     string(a.core.Selector.LoadState()),
		Conversations: len(a.core.Store.Conversations()),
		Unread:        unread,
		Archived:      archived,
	})
}

func (a *App) component(page string) ui.Component {
	switch page {
	case pageList:
		return a.list
	case pageChat:
		return a.thread
	case pageSearch:
		return a.search
	case pageDetails:
		return a.details
	case pageHelp:
		return a.help
	}
	return nil
}

// updateChrome refreshes the crumbs and the menu for the current page.
func (a *App) updateChrome() {
	stack := a.pages.Stack()
	trail := make([]string, 0, len(stack)+1)
	for _, p := range stack {
		if c := a.component(p); c != nil {
			trail = append(trail, c.Name())
		}
	}
	if !a.stacked && a.core.Store.CurrentConversation() != "" && a.pages.Current() == pageList {
		trail = append(trail, a.thread.Name())
	}

	sel := a.core.Store.Selection()
	var badges []string
	if sel.Mode != "" && sel.Mode != "all" {
		badges = append(badges, string(sel.Mode))
	}
	if sel.Query != "" {
		badges = append(badges, "q:"+sel.Query)
	}
	a.crumbs.Update(trail, badges...)
	a.menu.Update(a.hints())
}
