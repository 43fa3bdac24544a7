package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/bus"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/logging"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/status"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/keys"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/ui"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui/views"
)

const (
	pageFriends      = "friends"
	pageConversation = "conversation"
	pageDetails      = "details"
	pageLogin        = "login"
	pageHelp         = "help"
)

// Authenticator is the part of the backend client the UI logs in with.
type Authenticator interface {
	Status(ctx context.Context) (session.User, error)
	Login(ctx context.Context, email, password string) (session.User, error)
	Logout(ctx context.Context) error
}

// Options configures the terminal client.
type Options struct {
	Controller      *chat.Controller
	Auth            Authenticator
	Bus             *bus.Bus
	Logger          *zap.Logger
	SessionName     string
	ComposeMaxLines int
	// OnLogin runs on the UI goroutine after a successful login.
	OnLogin func(session.User)
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	root     *tview.Flex
	pages    *ui.Pages
	registry *keys.Registry
	theme    *ui.Theme
	flash    *ui.Flash

	crumbs    *ui.Crumbs
	prompt    *ui.Prompt
	flashBar  *ui.FlashBar
	menu      *ui.Menu
	statusBar *views.StatusBar

	friends      *views.CorrespondentList
	conversation *views.Conversation
	details      *views.CorrespondentInfo
	login        *views.LoginView
	help         *views.HelpView
	components   map[string]ui.Component

	ctrl    *chat.Controller
	auth    Authenticator
	bus     *bus.Bus
	logger  *zap.Logger
	session string
	onLogin func(session.User)

	detailsOf   chat.Correspondent
	lastFailure *chat.SendFailed
	loggedOut   atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:          tview.NewApplication(),
		pages:        ui.NewPages(),
		registry:     keys.NewRegistry(),
		theme:        theme,
		flash:        ui.NewFlash(),
		crumbs:       ui.NewCrumbs(theme),
		prompt:       ui.NewPrompt(theme),
		flashBar:     ui.NewFlashBar(theme),
		menu:         ui.NewMenu(theme),
		statusBar:    views.NewStatusBar(theme),
		friends:      views.NewCorrespondentList(theme),
		conversation: views.NewConversation(theme, opts.ComposeMaxLines),
		details:      views.NewCorrespondentInfo(theme),
		login:        views.NewLoginView(theme),
		help:         views.NewHelpView(theme),
		ctrl:         opts.Controller,
		auth:         opts.Auth,
		bus:          opts.Bus,
		logger:       logging.OrNop(opts.Logger).Named("tui"),
		session:      opts.SessionName,
		onLogin:      opts.OnLogin,
		ctx:          ctx,
		cancel:       cancel,
	}
	a.components = map[string]ui.Component{
		pageFriends:      a.friends,
		pageConversation: a.conversation,
		pageDetails:      a.details,
		pageLogin:        a.login,
		pageHelp:         a.help,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Label: ":", Description: "Command", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Label: "?", Description: "Help", Visible: true,
		Handler: func() { a.pushPage(pageHelp) },
	})

	a.registry.AddView(pageFriends, &keys.Action{
		Key: tcell.KeyRune, Rune: '/',
		Handler: func() {
			a.showPrompt(ui.PromptFilter)
			a.prompt.SetText(a.friends.Filter())
		},
	})
	a.registry.AddView(pageFriends, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Handler: func() {
			if c, ok := a.friends.Selected(); ok {
				a.showDetails(c)
			}
		},
	})
	a.registry.AddView(pageFriends, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Handler: func() { a.runCommand("reload") },
	})
	a.registry.AddView(pageFriends, &keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Handler: a.Stop,
	})
	for n := 1; n <= 9; n++ {
		a.registry.AddView(pageFriends, &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n),
			Handler: func() {
				if c, ok := a.friends.ByIndex(n); ok {
					a.open(c)
				}
			},
		})
	}

	a.registry.AddView(pageConversation, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Handler: func() { a.app.SetFocus(a.conversation.Composer()) },
	})
	a.registry.AddView(pageConversation, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Handler: func() { a.runCommand("refresh") },
	})

	a.registry.AddView(pageDetails, &keys.Action{
		Key: tcell.KeyEnter,
		Handler: func() { a.open(a.detailsOf) },
	})
}

func (a *App) setupCallbacks() {
	a.friends.SetSelectedFunc(func(row, _ int) {
		if c, ok := a.friends.ByIndex(row); ok {
			a.open(c)
		}
	})

	a.conversation.SetOnChange(a.ctrl.SetDraftText)
	a.conversation.SetOnSubmit(a.send)

	a.login.SetOnLogin(a.submitLogin)

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptFilter:
			a.friends.SetFilter(text)
		case ui.PromptCommand:
			a.runCommand(text)
		}
		a.render()
	})
	a.prompt.SetOnCancel(a.hidePrompt)
	a.prompt.SetCompletions(commandNames)
	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.friends.SetFilter(text)
		}
	})

	a.pages.SetOnChange(func([]string) { a.updateChrome() })
}

func (a *App) setupLayout() {
	for name, c := range a.components {
		a.pages.AddPage(name, c.(tview.Primitive), true, false)
	}

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.menu, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.handleKey)

	a.pages.Reset(pageLogin)
	a.login.SetBusy(true)
	a.login.ShowMessage("Checking session...", false)
}

func (a *App) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	focus := a.app.GetFocus()
	page := a.pages.Current()

	// The prompt and the login form handle their own keys, Esc included.
	if focus == a.prompt.InputField || page == pageLogin {
		return ev
	}

	if focus == a.conversation.Composer() {
		if ev.Key() == tcell.KeyEscape {
			a.app.SetFocus(a.conversation.Transcript())
			return nil
		}
		return ev
	}

	if ev.Key() == tcell.KeyEscape {
		a.back()
		return nil
	}
	if a.registry.HandleEvent(page, ev) {
		return nil
	}
	return ev
}

// Run starts the TUI application and blocks until it stops.
func (a *App) Run() error {
	events, unsubscribe := a.bus.Subscribe("", 64)
	defer unsubscribe()

	go a.watch(events)
	go a.bootstrap()

	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// LoggedOut reports whether the session ended through :logout.
func (a *App) LoggedOut() bool {
	return a.loggedOut.Load()
}

func (a *App) bootstrap() {
	u, err := a.auth.Status(a.ctx)
	a.app.QueueUpdateDraw(func() {
		switch {
		case err != nil:
			a.logger.Warn("session status check failed", zap.Error(err))
			a.showLogin(fmt.Sprintf("Could not reach Acadlinker: %v", err))
		case u.Anonymous():
			a.showLogin("")
		default:
			a.startSession(u)
		}
	})
}

// watch redraws on every bus event, every new flash message and once a
// second for the clock and flash expiry.
func (a *App) watch(events <-chan bus.Event) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.app.QueueUpdateDraw(func() {
				a.onEvent(ev)
				a.render()
			})
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(a.render)
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.renderChrome)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) onEvent(ev bus.Event) {
	switch p := ev.Payload.(type) {
	case chat.CorrespondentsLoaded:
		if p.Err != nil {
			a.flash.Warn("Could not load friends: %v (:reload to retry)", p.Err)
		}
	case chat.SendFailed:
		a.lastFailure = &p
	case chat.DraftRestored:
		a.onDraftRestored(p)
	case status.PhaseChange:
		if p.To != status.ConversationReady {
			return
		}
		if s := a.ctrl.Snapshot(); s.HistoryErr != nil && s.ActiveID() == p.CorrespondentID {
			a.flash.Warn("Could not load history: %v", s.HistoryErr)
		}
	}
}

func (a *App) onDraftRestored(p chat.DraftRestored) {
	failure := a.lastFailure
	a.lastFailure = nil
	if failure == nil || failure.CorrespondentID != p.CorrespondentID {
		a.flash.Info("Restored an unsent draft")
		return
	}
	where := "back in the compose box"
	if p.Parked {
		where = fmt.Sprintf("saved for %s (:restore there)", a.nameOf(p.CorrespondentID))
	}
	a.flash.Warn("Message not sent (%s): %v. Draft %s", failure.Kind, failure.Err, where)
}

func (a *App) nameOf(id int64) string {
	for _, c := range a.ctrl.Snapshot().Correspondents {
		if c.ID == id {
			return c.DisplayName
		}
	}
	return fmt.Sprintf("friend %d", id)
}

func (a *App) showLogin(msg string) {
	a.login.Reset()
	if msg != "" {
		a.login.ShowMessage(msg, true)
	}
	a.pages.Reset(pageLogin)
	a.focusPage()
}

func (a *App) submitLogin(email, password string) {
	a.login.SetBusy(true)
	go func() {
		u, err := a.auth.Login(a.ctx, email, password)
		a.app.QueueUpdateDraw(func() {
			a.login.SetBusy(false)
			if err != nil {
				a.logger.Info("login failed", zap.Error(err))
				a.login.ShowMessage(loginMessage(err), true)
				return
			}
			if a.onLogin != nil {
				a.onLogin(u)
			}
			a.startSession(u)
		})
	}()
}

func (a *App) startSession(u session.User) {
	a.logger.Info("session started", zap.Int64("user_id", u.ID))
	a.ctrl.Start(a.ctx, u)
	a.pages.Reset(pageFriends)
	a.focusPage()
	a.render()
}

func (a *App) open(c chat.Correspondent) {
	a.ctrl.Select(a.ctx, c)
	a.pushPage(pageConversation)
	a.render()
}

func (a *App) showDetails(c chat.Correspondent) {
	a.detailsOf = c
	a.details.Update(c, a.ctrl.Snapshot().Parked[c.ID])
	a.pushPage(pageDetails)
}

func (a *App) send() {
	s := a.ctrl.Snapshot()
	if s.InFlight > 0 {
		a.flash.Warn("Still sending the previous message")
		return
	}
	if _, ok := a.ctrl.Send(a.ctx); ok {
		a.render()
	}
}

func (a *App) runCommand(line string) {
	cmd := ParseCommand(line)
	if err := cmd.Validate(); err != nil {
		a.flash.Err(err)
		return
	}

	switch cmd.Canonical() {
	case "attach":
		path, err := expandHome(cmd.Args)
		if err == nil {
			err = a.ctrl.Attach(path)
		}
		if err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Info("Attached %s", filepath.Base(path))
	case "detach":
		a.ctrl.Detach()
	case "refresh":
		if !a.ctrl.Refresh(a.ctx) {
			a.flash.Info("Nothing to refresh")
		}
	case "reload":
		a.ctrl.LoadCorrespondents(a.ctx)
	case "restore":
		if !a.ctrl.RestoreParked() {
			a.flash.Info("No saved draft to restore here (the compose box must be empty)")
		}
	case "logout":
		a.logout()
	case "help":
		a.pushPage(pageHelp)
	case "quit":
		a.Stop()
	}
}

func (a *App) logout() {
	a.flash.Info("Logging out...")
	go func() {
		if err := a.auth.Logout(a.ctx); err != nil {
			a.logger.Warn("logout failed", zap.Error(err))
			a.flash.Err(fmt.Errorf("logout: %w", err))
			return
		}
		a.loggedOut.Store(true)
		a.Stop()
	}()
}

func (a *App) pushPage(name string) {
	a.pages.Push(name)
	a.focusPage()
}

func (a *App) back() {
	if a.pages.Pop() != "" {
		a.focusPage()
	}
}

func (a *App) focusPage() {
	switch a.pages.Current() {
	case pageFriends:
		a.app.SetFocus(a.friends)
	case pageConversation:
		a.app.SetFocus(a.conversation.Composer())
	case pageDetails:
		a.app.SetFocus(a.details)
	case pageLogin:
		a.app.SetFocus(a.login.Form())
	case pageHelp:
		a.app.SetFocus(a.help)
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusPage()
}

// render refreshes every view from a controller snapshot. It must run on
// the UI goroutine.
func (a *App) render() {
	s := a.ctrl.Snapshot()

	a.friends.Update(s.Correspondents, s.Parked, s.LoadingCorrespondents, s.CorrespondentsErr)
	a.conversation.Update(views.ConversationState{
		Correspondent: s.Active,
		Transcript:    s.Transcript,
		Loading:       s.LoadingHistory && len(s.Transcript) == 0,
		Err:           s.HistoryErr,
		Attachment:    s.Draft.Attachment,
		Sending:       s.InFlight > 0,
	})
	a.conversation.SetComposerText(s.Draft.Text)

	a.updateChrome()
	a.renderStatus(s)
}

// renderChrome redraws the parts that change with time alone.
func (a *App) renderChrome() {
	a.flashBar.Update(a.flash.Current())
	a.renderStatus(a.ctrl.Snapshot())
}

func (a *App) renderStatus(s chat.Snapshot) {
	parked := 0
	for _, n := range s.Parked {
		parked += n
	}
	a.statusBar.Update(views.StatusInfo{
		Session:  a.session,
		Viewer:   s.Viewer.FullName,
		Phase:    s.Phase,
		InFlight: s.InFlight,
		Parked:   parked,
	})
	a.flashBar.Update(a.flash.Current())
}

// updateChrome redraws the breadcrumbs and key hints for the current page.
func (a *App) updateChrome() {
	stack := a.pages.Stack()
	labels := make([]string, 0, len(stack))
	for _, name := range stack {
		label := a.components[name].Name()
		if name == pageConversation {
			if s := a.ctrl.Snapshot(); s.Active != nil {
				label = s.Active.DisplayName
			}
		}
		labels = append(labels, label)
	}
	a.crumbs.Update(labels)

	var hints []ui.MenuHint
	if c, ok := a.components[a.pages.Current()]; ok {
		hints = append(hints, c.Hints()...)
	}
	if a.pages.Current() != pageLogin {
		for _, h := range a.registry.Hints("") {
			hints = append(hints, ui.MenuHint{Key: h.Key, Description: h.Description})
		}
	}
	a.menu.Update(hints)
}

func loginMessage(err error) string {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) && sc.StatusCode() == 401 {
		return "Invalid credentials."
	}
	if chat.Classify(err) == chat.NetworkFailure {
		return "Could not reach Acadlinker. Check your connection and try again."
	}
	return err.Error()
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
