package views

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/ui"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	_, _ = fmt.Fprint(hv, helpText(ui.ColorTag(theme.MenuKeyColor)))
	return hv
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements ui.Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{{Key: "Esc", Description: "Back"}}
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Global", [][2]string{
		{":", "Command mode"},
		{"?", "Help"},
		{"Esc", "Cancel / go back"},
		{"Ctrl-C", "Quit"},
	}},
	{"Friends", [][2]string{
		{"Enter", "Open conversation"},
		{"/", "Filter by name, contact or skill"},
		{"1-9", "Open the Nth friend"},
		{"d", "Show friend details"},
		{"r", "Reload the friends list"},
		{"q", "Quit"},
	}},
	{"Conversation", [][2]string{
		{"i", "Focus the compose box"},
		{"Enter", "Send (in the compose box)"},
		{"Alt-Enter / Ctrl-J", "New line"},
		{"r", "Refresh history"},
		{"Esc", "Leave the compose box / go back"},
	}},
	{"Commands", [][2]string{
		{":attach <path>", "Attach png, jpg, jpeg, pdf, doc or docx"},
		{":detach", "Remove the attachment"},
		{":restore", "Bring back a draft from a failed send"},
		{":refresh", "Refresh the open conversation"},
		{":reload", "Reload the friends list"},
		{":logout", "Log out and quit"},
		{":help, :quit", ""},
	}},
}

func helpText(keyColor string) string {
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, r := range s.rows {
			pad := max(0, 20-len(r[0]))
			fmt.Fprintf(&b, "  [%s]%s[-:-:-]%s %s\n", keyColor, tview.Escape(r[0]), strings.Repeat(" ", pad), r[1])
		}
	}
	return b.String()
}
