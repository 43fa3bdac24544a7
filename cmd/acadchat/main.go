package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/app"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/config"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui"
)

const lifecycleTimeout = 15 * time.Second

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fail(err)
	}
	sessionName, err := session.Resolve(*sessionFlag, cfg)
	if err != nil {
		fail(err)
	}

	var ui *tui.App
	fxApp := fx.New(
		app.Module(app.Params{SessionName: sessionName, Config: cfg}),
		app.TUI(),
		fx.Populate(&ui),
	)
	if err := fxApp.Err(); err != nil {
		fail(err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fail(err)
	}

	runErr := ui.Run()
	ui.Stop()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancelStop()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: shutdown: %v\n", err)
	}

	if runErr != nil {
		fail(runErr)
	}
	if ui.LoggedOut() {
		fmt.Printf("logged out of session %q\n", sessionName)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
