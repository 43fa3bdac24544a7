package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/api"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/app"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/config"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/outbox"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/store"
)

const lifecycleTimeout = 15 * time.Second

type globalFlags struct {
	session string
	json    bool
}

// deps are the components a command works with.
type deps struct {
	client  *api.Client
	db      *store.DB
	journal *outbox.Journal
	session string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "acadctl",
		Short:         "Scriptable access to Acadlinker chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.session, "session", "", "session name (overrides config default)")
	root.PersistentFlags().BoolVar(&g.json, "json", false, "output in JSON format")

	root.AddCommand(
		newLoginCmd(&g),
		newLogoutCmd(&g),
		newWhoamiCmd(&g),
		newFriendsCmd(&g),
		newHistoryCmd(&g),
		newSendCmd(&g),
		newOutboxCmd(&g),
		newSessionsCmd(&g),
	)
	return root
}

// withSession starts the session components, runs fn and shuts them down.
// Mutating commands take the session lock; readOnly ones skip it.
func withSession(cmd *cobra.Command, g *globalFlags, readOnly bool, fn func(ctx context.Context, d deps) error) error {
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return err
	}
	name, err := session.Resolve(g.session, cfg)
	if err != nil {
		return err
	}

	d := deps{session: name, cfg: cfg}
	fxApp := fx.New(
		app.Module(app.Params{SessionName: name, Config: cfg, Console: true, ReadOnly: readOnly}),
		fx.Populate(&d.client, &d.db, &d.journal),
	)
	if err := fxApp.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(cmd.Context(), lifecycleTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		return err
	}
	runErr := fn(cmd.Context(), d)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), lifecycleTimeout)
	defer cancelStop()
	if err := fxApp.Stop(stopCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
