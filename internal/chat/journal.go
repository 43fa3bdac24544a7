package chat

import (
	"context"
	"sync"
)

// Directory lists the session user's correspondents.
type Directory interface {
	ListCorrespondents(ctx context.Context) ([]Correspondent, error)
}

// History returns the ordered transcript with one correspondent.
type History interface {
	History(ctx context.Context, correspondentID int64) ([]Message, error)
}

// Delivery submits one outbound message and returns the persisted record.
type Delivery interface {
	Send(ctx context.Context, correspondentID int64, d Draft) (Message, error)
}

// Journal records the lifecycle of outbound sends and keeps drafts that
// could not be put back into the compose box.
type Journal interface {
	Queued(token Token, correspondentID int64, d Draft) error
	Sent(token Token, serverID int64) error
	Failed(token Token, cause error) error

	// Park stores a draft for later. Unpark returns and forgets the oldest
	// parked draft for a correspondent.
	Park(correspondentID int64, d Draft) error
	Unpark(correspondentID int64) (Draft, bool, error)
	// Parked returns the number of parked drafts per correspondent.
	Parked() (map[int64]int, error)
}

// memJournal keeps parked drafts in memory and ignores send lifecycle.
type memJournal struct {
	mu     sync.Mutex
	drafts map[int64][]Draft
}

func newMemJournal() *memJournal {
	return &memJournal{drafts: make(map[int64][]Draft)}
}

func (j *memJournal) Queued(Token, int64, Draft) error { return nil }
func (j *memJournal) Sent(Token, int64) error          { return nil }
func (j *memJournal) Failed(Token, error) error        { return nil }

func (j *memJournal) Park(correspondentID int64, d Draft) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.drafts[correspondentID] = append(j.drafts[correspondentID], d.Clone())
	return nil
}

func (j *memJournal) Unpark(correspondentID int64) (Draft, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	q := j.drafts[correspondentID]
	if len(q) == 0 {
		return Draft{}, false, nil
	}
	d := q[0]
	if len(q) == 1 {
		delete(j.drafts, correspondentID)
	} else {
		j.drafts[correspondentID] = q[1:]
	}
	return d, true, nil
}

func (j *memJournal) Parked() (map[int64]int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[int64]int, len(j.drafts))
	for id, q := range j.drafts {
		out[id] = len(q)
	}
	return out, nil
}
