package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/ui"
)

// ConversationState is what the conversation page renders.
type ConversationState struct {
	Correspondent *chat.Correspondent
	Transcript    []chat.Message
	Loading       bool
	Err           error
	Attachment    *chat.Attachment
	Sending       bool
}

// Conversation shows the transcript of the active correspondent above a
// compose box that grows with its content.
type Conversation struct {
	*tview.Flex
	theme      *ui.Theme
	transcript *tview.TextView
	attachment *tview.TextView
	composer   *tview.TextArea
	maxLines   int

	lastID  int64
	lastLen int

	muteChange bool
	onChange   func(text string)
	onSubmit   func()
}

// NewConversation creates the conversation page. maxLines caps the compose
// box height.
func NewConversation(theme *ui.Theme, maxLines int) *Conversation {
	transcript := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	transcript.SetBorder(true)
	transcript.SetBorderColor(theme.BorderColor)
	transcript.SetBackgroundColor(theme.BgColor)
	transcript.SetTextColor(theme.FgColor)
	transcript.SetTitleColor(theme.TitleColor)

	attachment := tview.NewTextView().SetDynamicColors(true)
	attachment.SetBackgroundColor(theme.BgColor)

	composer := tview.NewTextArea().
		SetPlaceholder("Type a message (Enter to send, Alt-Enter for a new line)")
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(transcript, 0, 1, false).
		AddItem(attachment, 0, 0, false).
		AddItem(composer, composeHeight("", maxLines), 0, true)

	cv := &Conversation{
		Flex:       flex,
		theme:      theme,
		transcript: transcript,
		attachment: attachment,
		composer:   composer,
		maxLines:   maxLines,
	}

	composer.SetChangedFunc(func() {
		cv.resize()
		if cv.muteChange || cv.onChange == nil {
			return
		}
		cv.onChange(composer.GetText())
	})
	composer.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch {
		case ev.Key() == tcell.KeyEnter && ev.Modifiers()&tcell.ModAlt != 0,
			ev.Key() == tcell.KeyCtrlJ:
			_, start, end := composer.GetSelection()
			composer.Replace(start, end, "\n")
			return nil
		case ev.Key() == tcell.KeyEnter:
			if cv.onSubmit != nil {
				cv.onSubmit()
			}
			return nil
		}
		return ev
	})

	return cv
}

// Name implements ui.Component.
func (cv *Conversation) Name() string { return "Conversation" }

// Hints implements ui.Component.
func (cv *Conversation) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "Enter", Description: "Send"},
		{Key: "Alt-Enter", Description: "Newline"},
		{Key: "r", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnChange sets the callback run when the user edits the compose box.
func (cv *Conversation) SetOnChange(fn func(text string)) {
	cv.onChange = fn
}

// SetOnSubmit sets the callback run when Enter is pressed in the compose box.
func (cv *Conversation) SetOnSubmit(fn func()) {
	cv.onSubmit = fn
}

// Composer returns the compose box (for focus management).
func (cv *Conversation) Composer() *tview.TextArea {
	return cv.composer
}

// Transcript returns the transcript view (for focus management).
func (cv *Conversation) Transcript() *tview.TextView {
	return cv.transcript
}

// SetComposerText replaces the compose box contents without reporting the
// change back through the change callback.
func (cv *Conversation) SetComposerText(text string) {
	if cv.composer.GetText() == text {
		return
	}
	cv.muteChange = true
	cv.composer.SetText(text, true)
	cv.muteChange = false
	cv.resize()
}

// Update renders s. The transcript scrolls to the newest entry when the
// correspondent changes or the transcript grows.
func (cv *Conversation) Update(s ConversationState) {
	var id int64
	name := "Conversation"
	if s.Correspondent != nil {
		id = s.Correspondent.ID
		name = s.Correspondent.DisplayName
	}

	title := " " + display(name) + " "
	switch {
	case s.Loading:
		title += "[::d](loading)[-:-:-] "
	case s.Err != nil:
		title += "[::d](history unavailable)[-:-:-] "
	}
	cv.transcript.SetTitle(title)

	cv.transcript.Clear()
	_, _ = fmt.Fprint(cv.transcript, renderTranscript(s.Transcript, name, cv.theme, time.Now()))

	if id != cv.lastID || len(s.Transcript) > cv.lastLen {
		cv.transcript.ScrollToEnd()
	}
	cv.lastID, cv.lastLen = id, len(s.Transcript)

	cv.attachment.Clear()
	if s.Attachment != nil {
		_, _ = fmt.Fprintf(cv.attachment, " [%s]attached:[-] %s  [::d](:detach to remove)[-:-:-]",
			ui.ColorTag(cv.theme.AttachmentColor), display(s.Attachment.Name))
		cv.ResizeItem(cv.attachment, 1, 0)
	} else {
		cv.ResizeItem(cv.attachment, 0, 0)
	}

	if s.Sending {
		cv.composer.SetTitle(" Compose (sending...) ")
	} else {
		cv.composer.SetTitle(" Compose (i to focus) ")
	}
}

func (cv *Conversation) resize() {
	cv.ResizeItem(cv.composer, composeHeight(cv.composer.GetText(), cv.maxLines), 0)
}

// composeHeight returns the compose box height for text: one row per line,
// at least one and at most maxLines, plus the border.
func composeHeight(text string, maxLines int) int {
	if maxLines < 1 {
		maxLines = 1
	}
	lines := strings.Count(text, "\n") + 1
	return min(lines, maxLines) + 2
}

func renderTranscript(msgs []chat.Message, peer string, theme *ui.Theme, now time.Time) string {
	if len(msgs) == 0 {
		return "\n [::d]No messages yet.[-:-:-]\n"
	}

	var b strings.Builder
	for _, m := range msgs {
		sender, color := display(peer), theme.PeerColor
		if m.FromMe {
			sender, color = "You", theme.OwnColor
		}
		ts := formatTime(m.SentAt, now)
		if m.State == chat.Pending {
			color = theme.PendingColor
			ts = "sending..."
		}

		fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [::d]%s[-:-:-]\n", ui.ColorTag(color), sender, ts)
		if m.Text != "" {
			b.WriteString(display(m.Text))
			b.WriteString("\n")
		}
		if m.HasAttachment() {
			kind := "file"
			if m.IsImage() {
				kind = "image"
			}
			name := m.AttachmentName
			if name == "" {
				name = m.AttachmentURL
			}
			fmt.Fprintf(&b, "[%s]%s %s[-]", ui.ColorTag(theme.AttachmentColor), tview.Escape("["+kind+"]"), display(name))
			if m.AttachmentURL != "" && m.AttachmentURL != name {
				fmt.Fprintf(&b, " [::d]%s[-:-:-]", display(m.AttachmentURL))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatTime renders t in local time: clock only for today, date and clock
// otherwise.
func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t, now = t.Local(), now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan 02 15:04")
}
