package views

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/ui"
)

const (
	labelEmail    = "Email"
	labelPassword = "Password"
)

// LoginView is the email/password form shown when the session has no
// logged-in user.
type LoginView struct {
	*tview.Flex
	theme   *ui.Theme
	form    *tview.Form
	message *tview.TextView
	busy    bool
	onLogin func(email, password string)
}

// NewLoginView creates a new login form.
func NewLoginView(theme *ui.Theme) *LoginView {
	form := tview.NewForm().
		AddInputField(labelEmail, "", 40, nil, nil).
		AddPasswordField(labelPassword, "", 40, '*', nil)
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetTitle(" Log in to Acadlinker ")
	form.SetTitleColor(theme.TitleColor)

	message := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	message.SetBackgroundColor(theme.BgColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 9, 0, true).
		AddItem(message, 2, 0, false).
		AddItem(nil, 0, 1, false)

	lv := &LoginView{
		Flex:    flex,
		theme:   theme,
		form:    form,
		message: message,
	}
	form.AddButton("Log in", lv.submit)
	return lv
}

// Name implements ui.Component.
func (lv *LoginView) Name() string { return "Login" }

// Hints implements ui.Component.
func (lv *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Log in"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// SetOnLogin sets the callback run with the entered credentials.
func (lv *LoginView) SetOnLogin(fn func(email, password string)) {
	lv.onLogin = fn
}

// Form returns the form (for focus management).
func (lv *LoginView) Form() *tview.Form {
	return lv.form
}

// SetBusy blocks resubmission while a login request is outstanding.
func (lv *LoginView) SetBusy(busy bool) {
	lv.busy = busy
	if busy {
		lv.ShowMessage("Logging in...", false)
	}
}

// ShowMessage displays a status line under the form.
func (lv *LoginView) ShowMessage(msg string, isErr bool) {
	lv.message.Clear()
	color := lv.theme.FlashInfoColor
	if isErr {
		color = lv.theme.FlashErrColor
	}
	_, _ = lv.message.Write([]byte("[" + ui.ColorTag(color) + "]" + tview.Escape(msg) + "[-]"))
}

// Reset clears the password and the status line.
func (lv *LoginView) Reset() {
	lv.busy = false
	lv.field(labelPassword).SetText("")
	lv.message.Clear()
	lv.form.SetFocus(0)
}

func (lv *LoginView) submit() {
	if lv.busy || lv.onLogin == nil {
		return
	}
	email := strings.TrimSpace(lv.field(labelEmail).GetText())
	password := lv.field(labelPassword).GetText()
	if email == "" || password == "" {
		lv.ShowMessage("Email and password are required.", true)
		return
	}
	lv.onLogin(email, password)
}

func (lv *LoginView) field(label string) *tview.InputField {
	return lv.form.GetFormItemByLabel(label).(*tview.InputField)
}
