package sync

import (
	"context"
	"time"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/bus"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/logging"
	"go.uber.org/zap"
)

// Refresher re-fetches the active conversation in place. It reports false
// when there was nothing to refresh or a fetch was already outstanding.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

// Poller keeps the open conversation current by refreshing it on a fixed
// interval. Selecting a conversation restarts the interval, since the
// selection itself just fetched fresh history.
type Poller struct {
	target   Refresher
	interval time.Duration
	bus      *bus.Bus
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPoller creates a poller. An interval of zero or less disables it.
func NewPoller(target Refresher, interval time.Duration, b *bus.Bus, logger *zap.Logger) *Poller {
	return &Poller{
		target:   target,
		interval: interval,
		bus:      b,
		logger:   logging.OrNop(logger).Named("poller"),
	}
}

// Enabled reports whether Start will run a loop.
func (p *Poller) Enabled() bool {
	return p.interval > 0
}

// Start begins polling in the background.
func (p *Poller) Start(ctx context.Context) {
	if !p.Enabled() || p.cancel != nil {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})

	var selected <-chan bus.Event
	unsub := func() {}
	if p.bus != nil {
		selected, unsub = p.bus.Subscribe(bus.KindPhaseChanged, 16)
	}

	go func() {
		defer close(p.done)
		defer unsub()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if p.target.Refresh(ctx) {
					p.logger.Debug("refreshing conversation")
				}
			case <-selected:
				ticker.Reset(p.interval)
			case <-ctx.Done():
				return
			}
		}
	}()
	p.logger.Info("poller started", zap.Duration("interval", p.interval))
}

// Stop stops the loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.cancel = nil
}
