package keys

import "github.com/gdamore/tcell/v2"

// Action represents a keybinding action.
type Action struct {
	Key  tcell.Key
	Rune rune
	// Label is the key as shown in hints, e.g. "Enter" or "r".
	Label       string
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

// Hint is a visible binding rendered in the menu bar.
type Hint struct {
	Key         string
	Description string
}

// Registry holds keybindings organized by scope. Bindings keep their
// registration order, so hints render the same way on every redraw.
type Registry struct {
	global []*Action
	views  map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string][]*Action)}
}

// AddGlobal registers a binding active on every page.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// AddView registers a binding active only on the named page. View bindings
// take precedence over global ones.
func (r *Registry) AddView(view string, a *Action) {
	r.views[view] = append(r.views[view], a)
}

// Hints returns the visible bindings for a page, page bindings first.
func (r *Registry) Hints(view string) []Hint {
	var hints []Hint
	for _, a := range append(append([]*Action(nil), r.views[view]...), r.global...) {
		if a.Visible {
			hints = append(hints, Hint{Key: a.Label, Description: a.Description})
		}
	}
	return hints
}

// HandleEvent dispatches a key event to the first matching action for the
// given page. Returns true if a handler ran.
func (r *Registry) HandleEvent(view string, ev *tcell.EventKey) bool {
	for _, scope := range [][]*Action{r.views[view], r.global} {
		for _, a := range scope {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}
