package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/ui"
)

// CorrespondentList is the friends table shown on the first page.
type CorrespondentList struct {
	*tview.Table
	theme   *ui.Theme
	all     []chat.Correspondent
	visible []chat.Correspondent
	parked  map[int64]int
	filter  string
	loading bool
	err     error
}

// NewCorrespondentList creates a new correspondent table.
func NewCorrespondentList(theme *ui.Theme) *CorrespondentList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitleColor(theme.TitleColor)

	cl := &CorrespondentList{
		Table: table,
		theme: theme,
	}
	cl.render()
	return cl
}

// Name implements ui.Component.
func (cl *CorrespondentList) Name() string { return "Friends" }

// Hints implements ui.Component.
func (cl *CorrespondentList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "d", Description: "Details"},
		{Key: "r", Description: "Reload"},
		{Key: "1-9", Description: "Jump"},
	}
}

// Update replaces the list contents. Parked counts mark friends with drafts
// left over from failed sends.
func (cl *CorrespondentList) Update(list []chat.Correspondent, parked map[int64]int, loading bool, err error) {
	cl.all = list
	cl.parked = parked
	cl.loading = loading
	cl.err = err
	cl.render()
}

// SetFilter sets the active filter text and re-renders.
func (cl *CorrespondentList) SetFilter(filter string) {
	cl.filter = strings.TrimSpace(filter)
	cl.render()
	cl.Select(1, 0)
}

// Filter returns the active filter.
func (cl *CorrespondentList) Filter() string {
	return cl.filter
}

func (cl *CorrespondentList) render() {
	row, _ := cl.GetSelection()
	cl.Clear()
	cl.visible = filterCorrespondents(cl.all, cl.filter)

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" CONTACT", 1},
		{" SKILLS", 2},
		{" DRAFTS", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	for i, c := range cl.visible {
		r := i + 1
		drafts := ""
		if n := cl.parked[c.ID]; n > 0 {
			drafts = fmt.Sprintf("%d ", n)
		}
		cl.SetCell(r, 0, tview.NewTableCell(" "+display(c.DisplayName)).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(r, 1, tview.NewTableCell(" "+display(c.ContactInfo)).SetExpansion(1).SetTextColor(cl.theme.FgColor))
		cl.SetCell(r, 2, tview.NewTableCell(" "+display(strings.Join(c.Skills, ", "))).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(r, 3, tview.NewTableCell(drafts).SetTextColor(cl.theme.CounterColor).SetAlign(tview.AlignRight))
	}

	cl.SetTitle(listTitle(len(cl.visible), len(cl.all), cl.filter, cl.loading, cl.err))
	if row < 1 {
		row = 1
	}
	if row > len(cl.visible) {
		row = len(cl.visible)
	}
	if row >= 1 {
		cl.Select(row, 0)
	}
}

// Selected returns the correspondent under the cursor.
func (cl *CorrespondentList) Selected() (chat.Correspondent, bool) {
	row, _ := cl.GetSelection()
	return cl.ByIndex(row)
}

// ByIndex returns the Nth visible correspondent (1-based).
func (cl *CorrespondentList) ByIndex(n int) (chat.Correspondent, bool) {
	if n < 1 || n > len(cl.visible) {
		return chat.Correspondent{}, false
	}
	return cl.visible[n-1], true
}

func listTitle(shown, total int, filter string, loading bool, err error) string {
	switch {
	case loading && total == 0:
		return " Friends (loading...) "
	case err != nil && total == 0:
		return " Friends (failed to load, :reload to retry) "
	case filter != "":
		return fmt.Sprintf(" Friends (%d/%d) filter: %s ", shown, total, tview.Escape(filter))
	}
	return fmt.Sprintf(" Friends (%d) ", total)
}

// filterCorrespondents keeps the entries whose name, contact or skills
// contain filter, case-insensitively.
func filterCorrespondents(list []chat.Correspondent, filter string) []chat.Correspondent {
	if filter == "" {
		return list
	}
	needle := strings.ToLower(filter)
	var out []chat.Correspondent
	for _, c := range list {
		hay := strings.ToLower(c.DisplayName + "\x00" + c.ContactInfo + "\x00" + strings.Join(c.Skills, "\x00"))
		if strings.Contains(hay, needle) {
			out = append(out, c)
		}
	}
	return out
}
