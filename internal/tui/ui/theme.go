package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TableHeaderFg    tcell.Color
	TableCursorFg    tcell.Color
	TableCursorBg    tcell.Color
	CrumbActiveFg    tcell.Color
	CrumbActiveBg    tcell.Color
	CrumbInactiveFg  tcell.Color
	CrumbInactiveBg  tcell.Color
	MenuKeyColor     tcell.Color
	TitleColor       tcell.Color
	CounterColor     tcell.Color

	// Transcript.
	OwnColor        tcell.Color
	PeerColor       tcell.Color
	PendingColor    tcell.Color
	AttachmentColor tcell.Color

	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// DefaultTheme returns the dark theme used by acadchat.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		BorderColor:       tcell.ColorDodgerBlue,
		BorderFocusColor:  tcell.ColorLightSkyBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorOrange,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		OwnColor:          tcell.ColorMediumSpringGreen,
		PeerColor:         tcell.ColorLightSkyBlue,
		PendingColor:      tcell.ColorGray,
		AttachmentColor:   tcell.ColorGold,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,
	}
}

// ColorTag returns c as a tview color tag value, e.g. "orange" or "#1e90ff".
func ColorTag(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
