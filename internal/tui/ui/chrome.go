package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rivo/uniseg"
)

// MenuHint is one key shortcut shown in the menu bar.
type MenuHint struct {
	Key         string
	Description string
}

// Component is implemented by every page in the main page stack.
type Component interface {
	// Name is the page's breadcrumb label.
	Name() string
	Hints() []MenuHint
}

// Crumbs shows the page stack, bottom page first.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Crumbs{TextView: tv, theme: theme}
}

// Update renders labels; the last one is highlighted as the active page.
func (c *Crumbs) Update(labels []string) {
	c.Clear()
	parts := make([]string, len(labels))
	for i, label := range labels {
		fg, bg, attr := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg, ""
		if i == len(labels)-1 {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		parts[i] = fmt.Sprintf("[%s:%s:%s] %s [-:-:-]", ColorTag(fg), ColorTag(bg), attr, tview.Escape(label))
	}
	_, _ = fmt.Fprint(c, strings.Join(parts, " > "))
}

// Menu is the single-line key hint bar. Hints that do not fit the width
// are dropped from the end.
type Menu struct {
	*tview.TextView
	theme *Theme
	hints []MenuHint
	width int
}

func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Menu{TextView: tv, theme: theme}
}

// Update replaces the hints.
func (m *Menu) Update(hints []MenuHint) {
	m.hints = hints
	m.render()
}

// Draw re-fits the hints when the bar was resized.
func (m *Menu) Draw(screen tcell.Screen) {
	if _, _, w, _ := m.GetInnerRect(); w != m.width {
		m.width = w
		m.render()
	}
	m.TextView.Draw(screen)
}

func (m *Menu) render() {
	m.Clear()
	hints := m.hints
	if m.width > 0 {
		hints = FitHints(hints, m.width)
	}
	_, _ = fmt.Fprint(m, FormatHints(hints, ColorTag(m.theme.MenuKeyColor)))
}

// FormatHints renders hints as "<key> description" pairs in keyColor.
func FormatHints(hints []MenuHint, keyColor string) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = fmt.Sprintf("[%s::b]<%s>[-:-:-] %s", keyColor, tview.Escape(h.Key), h.Description)
	}
	return " " + strings.Join(parts, "  ")
}

// FitHints returns the longest prefix of hints whose rendering fits width
// terminal cells.
func FitHints(hints []MenuHint, width int) []MenuHint {
	used := 1
	for i, h := range hints {
		w := uniseg.StringWidth("<"+h.Key+"> "+h.Description) + 2
		if i == 0 {
			w -= 2
		}
		if used+w > width {
			return hints[:i]
		}
		used += w
	}
	return hints
}
