package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// Display durations per level.
const (
	flashInfoTTL = 4 * time.Second
	flashWarnTTL = 8 * time.Second
	flashErrTTL  = 12 * time.Second
)

// FlashMessage is a flash notification with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// Flash holds the current transient notification. Setters may be called
// from any goroutine; every new message is also offered on Watch.
type Flash struct {
	mu      sync.RWMutex
	current FlashMessage
	now     func() time.Time
	watchCh chan FlashMessage
}

// NewFlash creates an empty flash model.
func NewFlash() *Flash {
	return &Flash{
		now:     time.Now,
		watchCh: make(chan FlashMessage, 8),
	}
}

// Info sets an info-level message.
func (f *Flash) Info(format string, args ...any) {
	f.set(fmt.Sprintf(format, args...), FlashInfo, flashInfoTTL)
}

// Warn sets a warn-level message.
func (f *Flash) Warn(format string, args ...any) {
	f.set(fmt.Sprintf(format, args...), FlashWarn, flashWarnTTL)
}

// Err sets an error-level message from err.
func (f *Flash) Err(err error) {
	if err == nil {
		return
	}
	f.set(err.Error(), FlashErr, flashErrTTL)
}

func (f *Flash) set(text string, level FlashLevel, ttl time.Duration) {
	f.mu.Lock()
	fm := FlashMessage{Text: text, Level: level, Expires: f.now().Add(ttl)}
	f.current = fm
	f.mu.Unlock()

	select {
	case f.watchCh <- fm:
	default:
	}
}

// Current returns the active message, or nil once it has expired.
func (f *Flash) Current() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || !f.now().Before(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Watch returns a channel that receives new messages. Messages are dropped
// when nobody drains it.
func (f *Flash) Watch() <-chan FlashMessage {
	return f.watchCh
}

// FlashBar is the UI component that displays flash notifications.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)

	return &FlashBar{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders msg on the bar; nil clears it.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}

	color := fb.theme.FlashInfoColor
	switch msg.Level {
	case FlashWarn:
		color = fb.theme.FlashWarnColor
	case FlashErr:
		color = fb.theme.FlashErrColor
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", ColorTag(color), tview.Escape(msg.Text))
}
