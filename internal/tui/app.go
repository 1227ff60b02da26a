// Package tui is the terminal client: a conversation list, the open
// conversation and its actions, driven by the client core's bus events.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	appcore "github.com/matheus3301/dmchat/internal/app"
	"github.com/matheus3301/dmchat/internal/chat"
	"github.com/matheus3301/dmchat/internal/selector"
	"github.com/matheus3301/dmchat/internal/status"
	"github.com/matheus3301/dmchat/internal/tui/keys"
	"github.com/matheus3301/dmchat/internal/tui/ui"
	"github.com/matheus3301/dmchat/internal/tui/views"
)

// Page names.
const (
	pageList    = "conversations"
	pageChat    = "chat"
	pageSearch  = "search"
	pageDetails = "details"
	pageHelp    = "help"
)

// Key scopes of the registry.
const (
	scopeList   = "list"
	scopeThread = "thread"
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	core     *appcore.Core
	profile  string
	logger   *zap.Logger
	theme    *ui.Theme
	flash    *ui.FlashModel
	registry *keys.Registry

	pages     *ui.Pages
	crumbs    *ui.Crumbs
	menu      *ui.Menu
	info      *ui.ProfileInfo
	flashBar  *ui.FlashBar
	prompt    *ui.Prompt
	statusBar *views.StatusBar
	root      *tview.Flex
	split     *tview.Flex

	list    *views.ConversationList
	thread  *views.MessageThread
	search  *views.SearchView
	details *views.ConversationInfo
	help    *views.HelpView

	stacked bool
	width   int
	height  int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI over a started core. flash must be the notifier the
// core's action controller reports to.
func NewApp(core *appcore.Core, profile string, flash *ui.FlashModel) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	if flash == nil {
		flash = ui.NewFlashModel()
	}

	a := &App{
		app:       tview.NewApplication(),
		core:      core,
		profile:   profile,
		logger:    core.Logger.Named("tui"),
		theme:     theme,
		flash:     flash,
		registry:  keys.NewRegistry(),
		pages:     ui.NewPages(),
		crumbs:    ui.NewCrumbs(theme),
		menu:      ui.NewMenu(theme, 5),
		info:      ui.NewProfileInfo(theme),
		flashBar:  ui.NewFlashBar(theme),
		prompt:    ui.NewPrompt(theme),
		statusBar: views.NewStatusBar(profile),
		list:      views.NewConversationList(theme),
		thread:    views.NewMessageThread(theme),
		details:   views.NewConversationInfo(theme),
		help:      views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.search = views.NewSearchView(theme, core.Config.UserID, a.partnerName)

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		AddItem(ui.NewLogo(a.theme), 18, 0, false).
		AddItem(a.info, 28, 0, false).
		AddItem(a.menu, 0, 1, false)

	a.split = tview.NewFlex()
	a.layoutSplit()

	a.pages.AddPage(pageList, a.split, true, false)
	a.pages.AddPage(pageChat, a.thread, true, false)
	a.pages.AddPage(pageSearch, a.search, true, false)
	a.pages.AddPage(pageDetails, a.details, true, false)
	a.pages.AddPage(pageHelp, a.help, true, false)
	a.pages.SetOnChange(func([]string) { a.updateChrome() })

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 7, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.pages.Reset(pageList)
	a.app.SetRoot(a.root, true).SetFocus(a.list)

	a.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		w, h := screen.Size()
		if w != a.width || h != a.height {
			a.resize(w, h)
		}
		return false
	})
	a.app.SetInputCapture(a.handleKey)
}

// layoutSplit shows the list beside the thread, or the list alone when the
// layout is stacked.
func (a *App) layoutSplit() {
	a.split.Clear()
	a.split.AddItem(a.list, 0, 1, true)
	if !a.stacked {
		a.split.AddItem(a.thread, 0, 2, false)
	}
}

// resize feeds the terminal size to the selector and relayouts when the
// stacked state flips.
func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	a.core.Selector.SetViewport(selector.Viewport{Width: w, Height: h})
	stacked := a.core.Selector.Stacked()
	if stacked == a.stacked {
		return
	}
	a.stacked = stacked
	a.layoutSplit()

	current := a.core.Store.CurrentConversation()
	switch {
	case stacked && current != "" && a.pages.Current() == pageList:
		a.pages.Push(pageChat)
		a.app.SetFocus(a.thread.Messages())
	case !stacked && a.pages.Current() == pageChat:
		a.pages.Pop()
		a.app.SetFocus(a.thread.Messages())
	}
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, _ int) {
		if id := a.list.ByIndex(row); id != "" {
			a.openConversation(id)
		}
	})

	a.thread.SetOnSend(func(text string) {
		go func() {
			if _, err := a.core.Actions.Send(a.ctx, text); err != nil {
				a.logger.Debug("send rejected", zap.Error(err))
				return
			}
			a.app.QueueUpdateDraw(a.thread.ClearComposer)
		}()
	})

	a.search.SetOnQuery(func(query string) {
		go a.runArchiveSearch(query)
	})
	a.search.Results().SetSelectedFunc(func(int, int) {
		id, _ := a.search.SelectedResult()
		if id != "" {
			a.pages.Pop()
			a.openConversation(id)
		}
	})

	a.prompt.SetOnChange(a.onPromptChange)
	a.prompt.SetOnSubmit(a.onPromptSubmit)
	a.prompt.SetOnCancel(a.onPromptCancel)
}

// openConversation selects id. The selector loads in the background; the
// result arrives as bus events.
func (a *App) openConversation(id string) {
	a.list.Highlight(id)
	if a.stacked {
		a.pages.Push(pageChat)
	}
	a.app.SetFocus(a.thread.Messages())
	go func() {
		out := a.core.Selector.Select(a.ctx, id)
		switch {
		case out.NotFound:
			a.flash.Warn("conversation not found")
		case out.State == status.DeletedPeer:
			a.flash.Info("Use :clear to remove this conversation")
		}
	}()
}

// goBack leaves the thread: under a stacked layout the selector closes the
// conversation and the list regains its highlight.
func (a *App) goBack() {
	switch a.pages.Current() {
	case pageChat:
		focus, ok := a.core.Selector.GoBack()
		a.pages.Pop()
		a.app.SetFocus(a.list)
		if ok && focus.Index >= 0 {
			a.list.Select(focus.Index+1, 0)
		}
	case pageList:
		a.app.SetFocus(a.list)
	default:
		a.pages.Pop()
		a.restoreFocus()
	}
}

func (a *App) restoreFocus() {
	switch a.pages.Current() {
	case pageChat:
		a.app.SetFocus(a.thread.Messages())
	case pageSearch:
		a.app.SetFocus(a.search.Input())
	default:
		a.app.SetFocus(a.list)
	}
}

// scope returns the key registry scope of the focused widget.
func (a *App) scope() string {
	switch a.app.GetFocus() {
	case a.list:
		return scopeList
	case a.thread.Messages():
		return scopeThread
	}
	return a.pages.Current()
}

func (a *App) handleKey(event *tcell.EventKey) *tcell.EventKey {
	focused := a.app.GetFocus()

	if focused == a.thread.Composer() && event.Key() == tcell.KeyEscape {
		if a.core.Store.ReplyDraft() != nil {
			a.core.Actions.CancelReply()
		}
		a.app.SetFocus(a.thread.Messages())
		return nil
	}
	// Let text input widgets handle all other keys.
	if _, ok := focused.(*tview.InputField); ok {
		return event
	}
	if event.Key() == tcell.KeyEscape {
		a.goBack()
		return nil
	}
	if a.registry.HandleEvent(a.scope(), event) {
		return nil
	}
	return event
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	go a.watchBus()
	go a.watchFlash()
	a.refreshList()
	a.refreshInfo()
	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

func (a *App) partnerName(id string) string {
	return views.DisplayName(a.core.Store.Conversation(id))
}

func (a *App) runArchiveSearch(query string) {
	results, err := a.core.DB.SearchMessages(a.core.Config.UserID, query, "", 100)
	if err != nil {
		a.logger.Warn("archive search failed", zap.Error(err))
		a.flash.Err("Search failed")
		return
	}
	a.app.QueueUpdateDraw(func() {
		a.search.Update(results)
		if len(results) > 0 {
			a.app.SetFocus(a.search.Results())
		}
	})
	if len(results) == 0 {
		a.flash.Info(fmt.Sprintf("No messages match %q", query))
	}
}

// selectedMessage returns the open conversation and the highlighted real
// message id, or 0 for synthetic or missing selections.
func (a *App) selectedMessage() (string, int64) {
	conv := a.core.Store.CurrentConversation()
	v := a.thread.Selected()
	if conv == "" || v == nil || v.MessageID() <= 0 {
		a.flash.Warn("select a message first")
		return conv, 0
	}
	return conv, v.MessageID()
}

func (a *App) replyToSelected() {
	conv, id := a.selectedMessage()
	if id == 0 {
		return
	}
	if err := a.core.Actions.Reply(&chat.Message{ID: id, ConversationID: conv}); err == nil {
		a.app.SetFocus(a.thread.Composer())
	}
}

// inBackground runs a blocking core call off the UI goroutine.
func (a *App) inBackground(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			a.logger.Debug("action failed", zap.String("action", name), zap.Error(err))
		}
	}()
}

func (a *App) loadMore() {
	if a.core.Store.Query() != "" {
		if _, ok := a.core.Search.ViewMore(); !ok {
			a.flash.Info("No more results")
		}
		return
	}
	go func() {
		if !a.core.Selector.LoadMore(a.ctx) && !a.core.Selector.Pagination().HasMore {
			a.flash.Info("Beginning of conversation")
		}
	}()
}

func (a *App) showDetails() {
	conv := a.core.Store.Conversation(a.core.Store.CurrentConversation())
	if conv == nil {
		return
	}
	a.details.Update(conv, a.core.Selector.Header())
	a.pages.Push(pageDetails)
	a.app.SetFocus(a.details)
}

func (a *App) showPage(name string, focus tview.Primitive) {
	a.pages.Push(name)
	a.app.SetFocus(focus)
}
