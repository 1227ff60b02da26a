package views

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/matheus3301/dmchat/internal/store"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

// SearchView lists archive-wide search hits; opening one opens its
// conversation.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	selfID  string
	names   func(partnerID string) string
	input   *tview.InputField
	results *tview.Table
	onQuery func(query string)
	data    []store.SearchResult
}

// NewSearchView creates a new search view. names maps a partner id to a
// display name.
func NewSearchView(theme *ui.Theme, selfID string, names func(string) string) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Search all: ").
		SetFieldWidth(0)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Results ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	if names == nil {
		names = func(id string) string { return id }
	}
	sv := &SearchView{
		Flex:    flex,
		theme:   theme,
		selfID:  selfID,
		names:   names,
		input:   input,
		results: results,
	}
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			sv.onQuery(sv.input.GetText())
		}
	})
	return sv
}

// Name implements Component.
func (sv *SearchView) Name() string { return "Search" }

// Hints implements Component.
func (sv *SearchView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Search/Open"},
		{Key: "Tab", Description: "Results"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnQuery sets the callback when a search query is submitted.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// Update refreshes search results.
func (sv *SearchView) Update(results []store.SearchResult) {
	sv.data = results
	sv.results.Clear()

	headers := []string{" CHAT", " SNIPPET", " TIME"}
	for col, h := range headers {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	now := time.Now()
	for i, r := range results {
		row := i + 1
		ts := FormatListTime(time.UnixMilli(r.Message.Timestamp), now)
		sv.results.SetCell(row, 0, tview.NewTableCell(" "+esc(sv.names(sv.partnerOf(r.Message)))).SetMaxWidth(25).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 1, tview.NewTableCell(" "+esc(r.Snippet)).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 2, tview.NewTableCell(" "+ts).SetMaxWidth(12).SetTextColor(sv.theme.FgColor))
	}
	sv.results.SetTitle(" Results (" + itoa(len(results)) + ") ")
}

// SelectedResult returns the partner id and message id of the selected hit.
func (sv *SearchView) SelectedResult() (string, int64) {
	row, _ := sv.results.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(sv.data) {
		return "", 0
	}
	m := sv.data[idx].Message
	return sv.partnerOf(m), m.ID
}

func (sv *SearchView) partnerOf(m store.Message) string {
	if m.SenderID == sv.selfID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
