package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type statusErr struct{ code int }

func (e statusErr) Error() string   { return fmt.Sprintf("server returned %d", e.code) }
func (e statusErr) StatusCode() int { return e.code }

// staticDirectory answers every ListCorrespondents call immediately.
type staticDirectory struct {
	mu    sync.Mutex
	list  []Correspondent
	err   error
	calls int
}

func (d *staticDirectory) ListCorrespondents(context.Context) ([]Correspondent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return append([]Correspondent(nil), d.list...), nil
}

func (d *staticDirectory) set(list []Correspondent, err error) {
	d.mu.Lock()
	d.list, d.err = list, err
	d.mu.Unlock()
}

// staticHistory answers immediately from a map.
type staticHistory struct {
	mu    sync.Mutex
	byID  map[int64][]Message
	err   error
	calls []int64
}

func (h *staticHistory) History(_ context.Context, id int64) ([]Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, id)
	if h.err != nil {
		return nil, h.err
	}
	return append([]Message(nil), h.byID[id]...), nil
}

func (h *staticHistory) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

// staticDelivery confirms every send with increasing ids, or fails with err.
type staticDelivery struct {
	mu     sync.Mutex
	nextID int64
	err    error
	sent   []Draft
}

func (d *staticDelivery) Send(_ context.Context, _ int64, draft Draft) (Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, draft)
	if d.err != nil {
		return Message{}, d.err
	}
	d.nextID++
	m := Message{ID: d.nextID, FromMe: true, Text: draft.Text, SentAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	if draft.Attachment != nil {
		m.AttachmentName = draft.Attachment.Name
	}
	return m, nil
}

func (d *staticDelivery) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type historyReply struct {
	msgs []Message
	err  error
}

type historyCall struct {
	ID    int64
	reply chan historyReply
}

// gatedHistory blocks each call until the test answers it.
type gatedHistory struct {
	started chan historyCall
}

func newGatedHistory() *gatedHistory {
	return &gatedHistory{started: make(chan historyCall, 16)}
}

func (h *gatedHistory) History(ctx context.Context, id int64) ([]Message, error) {
	call := historyCall{ID: id, reply: make(chan historyReply, 1)}
	h.started <- call
	select {
	case r := <-call.reply:
		return r.msgs, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *gatedHistory) next(t *testing.T) historyCall {
	t.Helper()
	select {
	case c := <-h.started:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for history call")
		return historyCall{}
	}
}

type sendReply struct {
	msg Message
	err error
}

type sendCall struct {
	ID    int64
	Draft Draft
	reply chan sendReply
}

// gatedDelivery blocks each send until the test answers it.
type gatedDelivery struct {
	started chan sendCall
}

func newGatedDelivery() *gatedDelivery {
	return &gatedDelivery{started: make(chan sendCall, 16)}
}

func (d *gatedDelivery) Send(ctx context.Context, id int64, draft Draft) (Message, error) {
	call := sendCall{ID: id, Draft: draft, reply: make(chan sendReply, 1)}
	d.started <- call
	select {
	case r := <-call.reply:
		return r.msg, r.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (d *gatedDelivery) next(t *testing.T) sendCall {
	t.Helper()
	select {
	case c := <-d.started:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for send call")
		return sendCall{}
	}
}

var (
	ann = Correspondent{ID: 1, DisplayName: "Ann", ContactInfo: "ann@uni.edu"}
	bob = Correspondent{ID: 2, DisplayName: "Bob", ContactInfo: "bob@uni.edu"}
)

func msg(id int64, fromMe bool, text string) Message {
	return Message{ID: id, FromMe: fromMe, Text: text, State: Confirmed, SentAt: time.Date(2026, 10, 18, 8, 0, int(id), 0, time.UTC)}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func transcriptIDs(s Snapshot) []int64 {
	ids := make([]int64, 0, len(s.Transcript))
	for _, m := range s.Transcript {
		ids = append(ids, m.ID)
	}
	return ids
}
