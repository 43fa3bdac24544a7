package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/api"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/bus"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/config"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/lock"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/logging"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/outbox"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/store"
	intsync "github.com/sumit-bhole/Acadlinker-NPAI/internal/sync"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/tui"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	Config      *config.Config
	// Console mirrors warnings to stderr. The terminal UI leaves it off.
	Console bool
	// ReadOnly skips the session lock, for commands that only inspect state.
	ReadOnly bool
}

// Module returns the fx module composing the session's components and
// their lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("acadchat",
		fx.Supply(p, p.Config, session.For(p.SessionName)),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideClient,
			provideJournal,
			provideController,
			providePoller,
		),
		fx.Invoke(registerLifecycle),
	)
}

// TUI adds the interactive terminal client on top of Module.
func TUI() fx.Option {
	return fx.Provide(provideTUI)
}

func provideLogger(p Params, files session.Files) (*zap.Logger, error) {
	if err := files.Create(); err != nil {
		return nil, err
	}
	return logging.New(files.Log, p.SessionName, logging.Options{
		Level:        p.Config.LogLevel,
		Console:      p.Console,
		ConsoleLevel: "warn",
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, files session.Files, logger *zap.Logger) (*lock.Lock, error) {
	if p.ReadOnly {
		return nil, nil
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(files.Lock)
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideStore(files session.Files, logger *zap.Logger) (*store.DB, error) {
	db, err := store.Open(files.DB)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("journal schema migrated", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Debug("journal schema up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", db.Path()))
	return db, nil
}

func provideClient(files session.Files, cfg *config.Config, logger *zap.Logger) (*api.Client, error) {
	c, err := api.New(cfg.BaseURL,
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	if err := c.LoadCookies(files.Cookies); err != nil {
		logger.Warn("ignoring unreadable cookie file", zap.Error(err))
	}
	return c, nil
}

func provideJournal(db *store.DB, b *bus.Bus, logger *zap.Logger) *outbox.Journal {
	return outbox.NewJournal(db, b, logger)
}

func provideController(cfg *config.Config, c *api.Client, j *outbox.Journal, b *bus.Bus, logger *zap.Logger) *chat.Controller {
	return chat.NewController(chat.Options{
		Directory:      c,
		History:        c,
		Delivery:       c,
		Journal:        j,
		Bus:            b,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout(),
	})
}

func providePoller(cfg *config.Config, ctrl *chat.Controller, b *bus.Bus, logger *zap.Logger) *intsync.Poller {
	return intsync.NewPoller(ctrl, cfg.PollInterval(), b, logger)
}

func provideTUI(p Params, files session.Files, cfg *config.Config, ctrl *chat.Controller, c *api.Client, b *bus.Bus, logger *zap.Logger) *tui.App {
	return tui.NewApp(tui.Options{
		Controller:      ctrl,
		Auth:            c,
		Bus:             b,
		Logger:          logger,
		SessionName:     p.SessionName,
		ComposeMaxLines: cfg.ComposeMaxLines,
		OnLogin: func(session.User) {
			if err := c.SaveCookies(files.Cookies); err != nil {
				logger.Warn("failed to save cookies", zap.Error(err))
			}
		},
	})
}

func registerLifecycle(lc fx.Lifecycle, p Params, files session.Files, b *bus.Bus, lk *lock.Lock, db *store.DB, c *api.Client, j *outbox.Journal, ctrl *chat.Controller, poller *intsync.Poller, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if !p.ReadOnly {
				n, err := j.Recover()
				if err != nil {
					return err
				}
				if n > 0 {
					logger.Warn("interrupted sends parked as drafts", zap.Int("count", n))
				}
			}
			poller.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			poller.Stop()

			// Let outstanding sends reach the journal before the store closes.
			done := make(chan struct{})
			go func() {
				ctrl.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				logger.Warn("stopping with sends still in flight")
			}

			if !p.ReadOnly {
				if ctrl.Shelve() {
					logger.Info("unsent draft saved")
				}
				if err := c.SaveCookies(files.Cookies); err != nil {
					logger.Warn("failed to save cookies", zap.Error(err))
				}
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("session closed", zap.Uint64("bus_dropped", b.Dropped()))
			_ = logger.Sync()
			return nil
		},
	})
}
