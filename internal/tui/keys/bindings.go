// Package keys maps key events to named actions, per view and globally.
package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Key         tcell.Key
	Rune        rune
	Hint        string // key label shown in the menu, e.g. "r"
	Description string
	Handler     func()
	Visible     bool
}

// Matches returns true if the event matches this action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Label returns the key label of the action.
func (a *Action) Label() string {
	if a.Hint != "" {
		return a.Hint
	}
	if a.Key == tcell.KeyRune {
		return string(a.Rune)
	}
	return tcell.KeyNames[a.Key]
}

type scope struct {
	names   []string
	actions map[string]*Action
}

func (s *scope) add(name string, a *Action) {
	if s.actions == nil {
		s.actions = make(map[string]*Action)
	}
	if _, ok := s.actions[name]; !ok {
		s.names = append(s.names, name)
	}
	s.actions[name] = a
}

// each visits actions in registration order.
func (s *scope) each(fn func(*Action) bool) bool {
	for _, n := range s.names {
		if fn(s.actions[n]) {
			return true
		}
	}
	return false
}

// Registry holds keybindings organized by scope. Registering a name twice
// replaces the action in place.
type Registry struct {
	global scope
	views  map[string]*scope
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string]*scope)}
}

// AddGlobal registers a global keybinding.
func (r *Registry) AddGlobal(name string, action *Action) {
	r.global.add(name, action)
}

// AddView registers a view-specific keybinding.
func (r *Registry) AddView(view, name string, action *Action) {
	s, ok := r.views[view]
	if !ok {
		s = &scope{}
		r.views[view] = s
	}
	s.add(name, action)
}

// Visible returns the visible actions of a view followed by the global ones.
func (r *Registry) Visible(view string) []*Action {
	var out []*Action
	collect := func(a *Action) bool {
		if a.Visible {
			out = append(out, a)
		}
		return false
	}
	if s, ok := r.views[view]; ok {
		s.each(collect)
	}
	r.global.each(collect)
	return out
}

// HandleEvent dispatches a key event to the first matching action, checking
// the view's bindings before the global ones. Returns true if a handler ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	run := func(a *Action) bool {
		if !a.Matches(ev) {
			return false
		}
		a.Handler()
		return true
	}
	if s, ok := r.views[view]; ok && s.each(run) {
		return true
	}
	return r.global.each(run)
}
