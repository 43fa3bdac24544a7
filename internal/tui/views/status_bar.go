package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/status"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/ui"
)

// StatusInfo is the persistent state shown in the status bar.
type StatusInfo struct {
	Session  string
	Viewer   string
	Phase    status.Phase
	InFlight int
	Parked   int
}

// StatusBar displays persistent session status.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme}
}

// Update renders info.
func (sb *StatusBar) Update(info StatusInfo) {
	sb.Clear()
	_, _ = fmt.Fprint(sb, statusLine(info, ui.ColorTag(sb.theme.CounterColor), time.Now()))
}

func statusLine(info StatusInfo, accent string, now time.Time) string {
	viewer := info.Viewer
	if viewer == "" {
		viewer = "not logged in"
	}
	parts := []string{
		fmt.Sprintf(" [::b]%s[-:-:-]", tview.Escape(info.Session)),
		display(viewer),
		phaseLabel(info.Phase),
	}
	if info.InFlight > 0 {
		parts = append(parts, fmt.Sprintf("[%s]sending %d[-]", accent, info.InFlight))
	}
	if info.Parked > 0 {
		parts = append(parts, fmt.Sprintf("[%s]%d parked[-]", accent, info.Parked))
	}
	parts = append(parts, now.Format("15:04"))
	return strings.Join(parts, " | ")
}

func phaseLabel(p status.Phase) string {
	switch p {
	case status.LoadingHistory:
		return "loading history"
	case status.ConversationReady:
		return "ready"
	default:
		return "no conversation"
	}
}
