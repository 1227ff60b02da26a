package selector

// DefaultStackedMaxWidth is the viewport width, in terminal columns, below
// which the list and the chat cannot both be shown.
const DefaultStackedMaxWidth = 100

// Orientation of the viewport.
type Orientation int

const (
	Landscape Orientation = iota
	Portrait
)

// Viewport is the size of the presentation surface in terminal cells.
type Viewport struct {
	Width  int
	Height int
}

// Orientation derives the orientation. Terminal cells are about twice as tall
// as they are wide, so a viewport is portrait when 2*Height exceeds Width.
func (v Viewport) Orientation() Orientation {
	if v.Height*2 > v.Width {
		return Portrait
	}
	return Landscape
}

// IsStacked reports whether the layout must stack list and chat.
func (v Viewport) IsStacked(maxWidth int) bool {
	if v.Width <= 0 || v.Height <= 0 {
		return false
	}
	if maxWidth <= 0 {
		maxWidth = DefaultStackedMaxWidth
	}
	return v.Width < maxWidth || v.Orientation() == Portrait
}

// ViewState is the visible pane under a stacked layout.
type ViewState int

const (
	ViewList ViewState = iota
	ViewChat
)

func (s ViewState) String() string {
	if s == ViewChat {
		return "chat"
	}
	return "list"
}

// ListFocus tells the conversation list what to highlight after going back.
type ListFocus struct {
	HighlightID string
	// Index is the row of HighlightID in the list, or -1 when it is not
	// listed.
	Index int
}
