package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/ui"
)

// CorrespondentInfo displays the profile of a friend.
type CorrespondentInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewCorrespondentInfo creates a new details view.
func NewCorrespondentInfo(theme *ui.Theme) *CorrespondentInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &CorrespondentInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements ui.Component.
func (ci *CorrespondentInfo) Name() string { return "Details" }

// Hints implements ui.Component.
func (ci *CorrespondentInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders c together with the number of drafts parked for it.
func (ci *CorrespondentInfo) Update(c chat.Correspondent, parked int) {
	ci.Clear()

	fg := ui.ColorTag(ci.theme.FgColor)
	val := ui.ColorTag(ci.theme.CounterColor)
	or := func(s string) string {
		if s == "" {
			return "-"
		}
		return display(s)
	}

	rows := []struct{ label, value string }{
		{"Name", or(c.DisplayName)},
		{"Contact", or(c.ContactInfo)},
		{"Skills", or(strings.Join(c.Skills, ", "))},
		{"Avatar", or(c.AvatarURL)},
		{"Drafts", fmt.Sprintf("%d", parked)},
	}
	_, _ = fmt.Fprintln(ci)
	for _, r := range rows {
		_, _ = fmt.Fprintf(ci, " [%s::b]%-8s[-:-:-] [%s]%s[-]\n", fg, r.label+":", val, r.value)
	}
	ci.SetTitle(fmt.Sprintf(" %s ", display(c.DisplayName)))
}
