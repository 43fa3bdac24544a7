package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/bus"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/logging"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/status"
	"go.uber.org/zap"
)

// Options configures a Controller. Directory, History and Delivery are
// required; the rest have usable zero values.
type Options struct {
	Directory Directory
	History   History
	Delivery  Delivery
	Journal   Journal
	Bus       *bus.Bus
	Logger    *zap.Logger

	// RequestTimeout bounds every network call. Zero means no bound.
	RequestTimeout time.Duration
}

// Controller owns the correspondent list, the active conversation and the
// compose draft. All mutation of the transcript happens here; network calls
// run on their own goroutines and apply their results under the lock.
type Controller struct {
	dir      Directory
	history  History
	delivery Delivery
	journal  Journal
	bus      *bus.Bus
	logger   *zap.Logger
	timeout  time.Duration
	phase    *status.Machine

	wg sync.WaitGroup

	mu             sync.Mutex
	viewer         session.User
	correspondents []Correspondent
	listLoading    bool
	listErr        error
	listGen        uint64

	active     *Correspondent
	transcript []Message
	historyErr error
	fetchGen   uint64
	fetching   bool
	// acked holds confirmations that landed while a history fetch for the
	// active correspondent was outstanding. Emptied on every switch.
	acked map[int64][]Message

	draft    Draft
	inflight []outbound
	parked   map[int64]int
}

type outbound struct {
	token           Token
	correspondentID int64
	placeholder     Message
}

// NewController creates a controller. It does no I/O until Start.
func NewController(opts Options) *Controller {
	j := opts.Journal
	if j == nil {
		j = newMemJournal()
	}
	return &Controller{
		dir:      opts.Directory,
		history:  opts.History,
		delivery: opts.Delivery,
		journal:  j,
		bus:      opts.Bus,
		logger:   logging.OrNop(opts.Logger).Named("chat"),
		timeout:  opts.RequestTimeout,
		phase:    status.NewMachine(opts.Bus),
		acked:    make(map[int64][]Message),
		parked:   make(map[int64]int),
		viewer:   session.User{},
	}
}

// Start records the session user and loads the correspondent list.
func (c *Controller) Start(ctx context.Context, viewer session.User) {
	counts, err := c.journal.Parked()
	if err != nil {
		c.logger.Warn("failed to read parked drafts", zap.Error(err))
	}

	c.mu.Lock()
	c.viewer = viewer
	for id, n := range counts {
		c.parked[id] = n
	}
	c.mu.Unlock()

	c.logger.Info("session started", zap.Int64("user_id", viewer.ID))
	c.LoadCorrespondents(ctx)
}

// LoadCorrespondents issues one Directory request in the background. On
// failure the list becomes empty and the error is held for Snapshot.
func (c *Controller) LoadCorrespondents(ctx context.Context) {
	c.mu.Lock()
	c.listGen++
	gen := c.listGen
	c.listLoading = true
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		rctx, cancel := c.requestContext(ctx)
		defer cancel()

		list, err := c.dir.ListCorrespondents(rctx)

		c.mu.Lock()
		if gen != c.listGen {
			c.mu.Unlock()
			return
		}
		c.listLoading = false
		c.listErr = err
		if err != nil {
			c.correspondents = nil
		} else {
			c.correspondents = list
		}
		n := len(c.correspondents)
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn("failed to load correspondents", zap.Error(err), zap.Stringer("kind", Classify(err)))
		} else {
			c.logger.Debug("correspondents loaded", zap.Int("count", n))
		}
		c.bus.Emit(bus.KindCorrespondentsLoaded, CorrespondentsLoaded{Count: n, Err: err})
	}()
}

// SelectID selects a correspondent from the loaded list by id.
func (c *Controller) SelectID(ctx context.Context, id int64) error {
	c.mu.Lock()
	var found *Correspondent
	for i := range c.correspondents {
		if c.correspondents[i].ID == id {
			cp := c.correspondents[i]
			found = &cp
			break
		}
	}
	c.mu.Unlock()

	if found == nil {
		return fmt.Errorf("select %d: %w", id, ErrUnknownCorrespondent)
	}
	c.Select(ctx, *found)
	return nil
}

// Select makes cor the active conversation and fetches its history.
// Selecting the active correspondent again refreshes in place: the current
// transcript stays visible until the new one arrives.
func (c *Controller) Select(ctx context.Context, cor Correspondent) {
	c.mu.Lock()
	same := c.active != nil && c.active.ID == cor.ID
	restored := false
	if !same {
		cp := cor
		c.active = &cp
		c.transcript = nil
		c.historyErr = nil
		clear(c.acked)
		restored = c.restoreParkedLocked()
	}
	gen := c.beginFetchLocked(!same || c.phase.Current() != status.ConversationReady)
	d := c.draft.Clone()
	c.mu.Unlock()

	if !same {
		c.emitTranscript(cor.ID, 0)
	}
	if restored {
		c.bus.Emit(bus.KindDraftRestored, DraftRestored{CorrespondentID: cor.ID, Draft: d})
	}
	c.logger.Debug("conversation selected", zap.Int64("correspondent_id", cor.ID), zap.Bool("refresh", same))
	go c.fetchHistory(ctx, gen, cor.ID, true)
}

// Refresh re-fetches the active conversation in place. It returns false
// when nothing is selected or a fetch is already outstanding. A failed
// refresh keeps the current transcript and holds the error.
func (c *Controller) Refresh(ctx context.Context) bool {
	c.mu.Lock()
	if c.active == nil || c.fetching {
		c.mu.Unlock()
		return false
	}
	id := c.active.ID
	gen := c.beginFetchLocked(false)
	c.mu.Unlock()

	go c.fetchHistory(ctx, gen, id, false)
	return true
}

// beginFetchLocked bumps the fetch generation so that only the request
// started here may apply its result. c.mu must be held.
func (c *Controller) beginFetchLocked(loading bool) uint64 {
	c.fetchGen++
	c.fetching = true
	if loading {
		if err := c.phase.Transition(status.LoadingHistory, c.active.ID); err != nil {
			c.logger.Error("phase transition", zap.Error(err))
		}
	}
	c.wg.Add(1)
	return c.fetchGen
}

func (c *Controller) fetchHistory(ctx context.Context, gen uint64, id int64, clearOnError bool) {
	defer c.wg.Done()
	rctx, cancel := c.requestContext(ctx)
	defer cancel()

	msgs, err := c.history.History(rctx, id)

	c.mu.Lock()
	if gen != c.fetchGen {
		c.mu.Unlock()
		c.logger.Debug("discarding stale history", zap.Int64("correspondent_id", id))
		return
	}
	c.fetching = false
	c.historyErr = err
	switch {
	case err == nil:
		c.transcript = c.mergeLocked(id, msgs)
	case clearOnError:
		c.transcript = c.mergeLocked(id, nil)
	}
	delete(c.acked, id)
	if terr := c.phase.Transition(status.ConversationReady, id); terr != nil {
		c.logger.Error("phase transition", zap.Error(terr))
	}
	n := len(c.transcript)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("failed to load history", zap.Error(err), zap.Int64("correspondent_id", id), zap.Stringer("kind", Classify(err)))
	}
	c.emitTranscript(id, n)
}

// mergeLocked builds the transcript for id from server history: the history
// in server order, then confirmations the fetch may have missed, then
// placeholders for sends still in flight.
func (c *Controller) mergeLocked(id int64, history []Message) []Message {
	out := make([]Message, 0, len(history)+len(c.inflight))
	seen := make(map[int64]bool, len(history))
	for _, m := range history {
		m.State = Confirmed
		seen[m.ID] = true
		out = append(out, m)
	}
	for _, m := range c.acked[id] {
		if !seen[m.ID] {
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	for _, ob := range c.inflight {
		if ob.correspondentID == id {
			out = append(out, ob.placeholder)
		}
	}
	return out
}

// SetDraft replaces the compose box contents.
func (c *Controller) SetDraft(d Draft) {
	c.mu.Lock()
	c.draft = d.Clone()
	c.mu.Unlock()
}

// SetDraftText replaces the draft text and keeps its attachment.
func (c *Controller) SetDraftText(text string) {
	c.mu.Lock()
	c.draft.Text = text
	c.mu.Unlock()
}

// Draft returns the compose box contents.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Clone()
}

// Attach sets the draft attachment to the file at path. The file must exist
// and have an extension the backend accepts.
func (c *Controller) Attach(path string) error {
	a, err := NewAttachment(path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.draft.Attachment = a
	c.mu.Unlock()
	return nil
}

// Detach removes the draft attachment.
func (c *Controller) Detach() {
	c.mu.Lock()
	c.draft.Attachment = nil
	c.mu.Unlock()
}

// Wait blocks until every network operation started so far has applied
// its result.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Controller) emitTranscript(id int64, n int) {
	c.bus.Emit(bus.KindTranscriptUpdated, TranscriptUpdated{CorrespondentID: id, Len: n})
}
