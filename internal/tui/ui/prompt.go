package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates the type of prompt (command or filter).
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

const maxPromptHistory = 50

// Prompt is a command/filter input bar. Submitted commands are kept in a
// history that Up and Down walk through, and Tab completes command names.
type Prompt struct {
	*tview.InputField
	theme    *Theme
	mode     PromptMode
	history  []string
	cursor   int
	words    []string
	onSubmit func(mode PromptMode, text string)
	onCancel func()
	onChange func(mode PromptMode, text string)
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := p.GetText()
			p.SetText("")
			if p.mode == PromptCommand {
				p.remember(text)
			}
			if p.onSubmit != nil {
				p.onSubmit(p.mode, text)
			}
		case tcell.KeyEscape:
			p.SetText("")
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})
	input.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if p.mode != PromptCommand {
			return ev
		}
		switch ev.Key() {
		case tcell.KeyUp:
			p.SetText(p.Recall(-1))
			return nil
		case tcell.KeyDown:
			p.SetText(p.Recall(1))
			return nil
		case tcell.KeyTab:
			p.SetText(Complete(p.GetText(), p.words))
			return nil
		}
		return ev
	})
	input.SetChangedFunc(func(text string) {
		if p.onChange != nil {
			p.onChange(p.mode, text)
		}
	})

	return p
}

// SetOnSubmit sets the callback when the prompt is submitted. Filter mode
// submits empty text too, which clears the filter.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnChange sets a callback run on every edit, for live filtering.
func (p *Prompt) SetOnChange(fn func(mode PromptMode, text string)) {
	p.onChange = fn
}

// SetCompletions sets the command names Tab completes.
func (p *Prompt) SetCompletions(words []string) {
	p.words = words
}

// SetOnCancel sets the callback when the prompt is cancelled.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate prepares the prompt for the specified mode.
func (p *Prompt) Activate(mode PromptMode) {
	p.mode = mode
	p.cursor = len(p.history)
	p.SetText("")
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter ")
	}
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}

// Recall moves through the command history by delta and returns the entry
// under the cursor. Moving past the newest entry yields an empty line.
func (p *Prompt) Recall(delta int) string {
	p.cursor += delta
	if p.cursor < 0 {
		p.cursor = 0
	}
	if p.cursor >= len(p.history) {
		p.cursor = len(p.history)
		return ""
	}
	return p.history[p.cursor]
}

func (p *Prompt) remember(text string) {
	if text == "" {
		return
	}
	if n := len(p.history); n > 0 && p.history[n-1] == text {
		p.cursor = n
		return
	}
	p.history = append(p.history, text)
	if len(p.history) > maxPromptHistory {
		p.history = p.history[len(p.history)-maxPromptHistory:]
	}
	p.cursor = len(p.history)
}

// Complete extends the first word of text to the longest prefix shared by
// the words it matches. A unique match gets a trailing space. Text that
// already has arguments is left alone.
func Complete(text string, words []string) string {
	if strings.Contains(text, " ") {
		return text
	}
	var matches []string
	for _, w := range words {
		if strings.HasPrefix(w, text) {
			matches = append(matches, w)
		}
	}
	switch len(matches) {
	case 0:
		return text
	case 1:
		return matches[0] + " "
	}
	common := matches[0]
	for _, m := range matches[1:] {
		for !strings.HasPrefix(m, common) {
			common = common[:len(common)-1]
		}
	}
	return common
}
