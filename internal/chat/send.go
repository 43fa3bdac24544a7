package chat

import (
	"context"
	"slices"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/bus"
	"go.uber.org/zap"
)

// Send submits the current draft to the active correspondent. It returns
// false without touching anything when no conversation is selected or the
// draft is empty. Otherwise the compose box is cleared, a pending entry is
// appended, and the Delivery call runs in the background; its outcome either
// replaces the pending entry with the confirmed record or removes it and
// gives the draft back.
func (c *Controller) Send(ctx context.Context) (Token, bool) {
	c.mu.Lock()
	if c.active == nil || c.draft.IsEmpty() {
		c.mu.Unlock()
		return "", false
	}
	d := c.draft.Clone()
	id := c.active.ID
	tok := NewToken()

	placeholder := Message{Token: tok, State: Pending, FromMe: true, Text: d.Text}
	if d.Attachment != nil {
		placeholder.AttachmentName = d.Attachment.Name
	}
	c.draft = Draft{}
	c.transcript = append(c.transcript, placeholder)
	c.inflight = append(c.inflight, outbound{token: tok, correspondentID: id, placeholder: placeholder})
	n := len(c.transcript)
	c.wg.Add(1)
	c.mu.Unlock()

	if err := c.journal.Queued(tok, id, d); err != nil {
		c.logger.Warn("failed to journal send", zap.Error(err), zap.String("token", string(tok)))
	}
	c.emitTranscript(id, n)

	// A submitted draft outlives the caller's context: quitting the UI must
	// not abort the request. RequestTimeout still bounds it.
	go c.deliver(context.WithoutCancel(ctx), tok, id, d)
	return tok, true
}

func (c *Controller) deliver(ctx context.Context, tok Token, id int64, d Draft) {
	defer c.wg.Done()
	rctx, cancel := c.requestContext(ctx)
	defer cancel()

	rec, err := c.delivery.Send(rctx, id, d)
	if err != nil {
		c.rollback(tok, id, d, err)
		return
	}
	c.confirm(tok, id, rec)
}

func (c *Controller) confirm(tok Token, id int64, rec Message) {
	if err := c.journal.Sent(tok, rec.ID); err != nil {
		c.logger.Warn("failed to journal ack", zap.Error(err), zap.String("token", string(tok)))
	}
	rec.Token = tok
	rec.State = Confirmed

	c.mu.Lock()
	c.removeInflightLocked(tok)
	changed := false
	n := len(c.transcript)
	if c.active != nil && c.active.ID == id {
		idx := c.indexLocked(func(m Message) bool { return m.State == Pending && m.Token == tok })
		dup := c.indexLocked(func(m Message) bool { return m.State == Confirmed && m.ID == rec.ID })
		switch {
		case idx >= 0 && dup >= 0:
			c.transcript = slices.Delete(c.transcript, idx, idx+1)
		case idx >= 0:
			c.transcript[idx] = rec
		case dup < 0:
			c.transcript = append(c.transcript, rec)
		}
		changed = true
		n = len(c.transcript)
		if c.fetching {
			c.acked[id] = append(c.acked[id], rec)
		}
	}
	c.mu.Unlock()

	c.logger.Info("message sent", zap.String("token", string(tok)), zap.Int64("server_msg_id", rec.ID), zap.Int64("correspondent_id", id))
	c.bus.Emit(bus.KindSendAck, SendAck{Token: tok, CorrespondentID: id, Message: rec})
	if changed {
		c.emitTranscript(id, n)
	}
}

func (c *Controller) rollback(tok Token, id int64, d Draft, cause error) {
	kind := Classify(cause)
	if err := c.journal.Failed(tok, cause); err != nil {
		c.logger.Warn("failed to journal failure", zap.Error(err), zap.String("token", string(tok)))
	}

	c.mu.Lock()
	c.removeInflightLocked(tok)
	active := c.active != nil && c.active.ID == id
	n := len(c.transcript)
	if active {
		if idx := c.indexLocked(func(m Message) bool { return m.State == Pending && m.Token == tok }); idx >= 0 {
			c.transcript = slices.Delete(c.transcript, idx, idx+1)
			n = len(c.transcript)
		}
	}
	restored := active && c.draft.IsEmpty()
	if restored {
		c.draft = d.Clone()
	} else {
		c.parkLocked(id, d)
	}
	c.mu.Unlock()

	c.logger.Warn("message send failed", zap.Error(cause), zap.String("token", string(tok)), zap.Stringer("kind", kind))
	c.bus.Emit(bus.KindSendFailed, SendFailed{Token: tok, CorrespondentID: id, Kind: kind, Err: cause})
	c.bus.Emit(bus.KindDraftRestored, DraftRestored{CorrespondentID: id, Draft: d.Clone(), Parked: !restored})
	if active {
		c.emitTranscript(id, n)
	}
}

// Shelve parks a non-empty draft for the active conversation and clears
// the compose box. Called at shutdown, after Wait.
func (c *Controller) Shelve() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.draft.IsEmpty() {
		return false
	}
	id := c.active.ID
	before := c.parked[id]
	c.parkLocked(id, c.draft)
	if c.parked[id] == before {
		return false
	}
	c.draft = Draft{}
	return true
}

// RestoreParked moves the oldest parked draft of the active conversation
// into the compose box. It does nothing unless the box is empty.
func (c *Controller) RestoreParked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return false
	}
	return c.restoreParkedLocked()
}

func (c *Controller) restoreParkedLocked() bool {
	id := c.active.ID
	if c.parked[id] == 0 || !c.draft.IsEmpty() {
		return false
	}
	d, ok, err := c.journal.Unpark(id)
	if err != nil {
		c.logger.Warn("failed to restore parked draft", zap.Error(err), zap.Int64("correspondent_id", id))
		return false
	}
	if !ok {
		delete(c.parked, id)
		return false
	}
	c.draft = d
	if c.parked[id]--; c.parked[id] <= 0 {
		delete(c.parked, id)
	}
	return true
}

func (c *Controller) parkLocked(id int64, d Draft) {
	if err := c.journal.Park(id, d); err != nil {
		c.logger.Error("failed to park draft", zap.Error(err), zap.Int64("correspondent_id", id))
		return
	}
	c.parked[id]++
}

func (c *Controller) removeInflightLocked(tok Token) {
	c.inflight = slices.DeleteFunc(c.inflight, func(ob outbound) bool { return ob.token == tok })
}

func (c *Controller) indexLocked(match func(Message) bool) int {
	return slices.IndexFunc(c.transcript, match)
}
