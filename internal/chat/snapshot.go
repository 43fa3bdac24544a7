package chat

import (
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/status"
)

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	Viewer session.User

	Correspondents        []Correspondent
	LoadingCorrespondents bool
	CorrespondentsErr     error

	Phase          status.Phase
	Active         *Correspondent
	Transcript     []Message
	LoadingHistory bool
	HistoryErr     error

	Draft    Draft
	InFlight int
	// Parked counts drafts set aside after failed sends, per correspondent.
	Parked map[int64]int
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Viewer:                c.viewer,
		Correspondents:        append([]Correspondent(nil), c.correspondents...),
		LoadingCorrespondents: c.listLoading,
		CorrespondentsErr:     c.listErr,
		Phase:                 c.phase.Current(),
		Transcript:            append([]Message(nil), c.transcript...),
		LoadingHistory:        c.fetching,
		HistoryErr:            c.historyErr,
		Draft:                 c.draft.Clone(),
		InFlight:              len(c.inflight),
		Parked:                make(map[int64]int, len(c.parked)),
	}
	if c.active != nil {
		a := *c.active
		s.Active = &a
	}
	for id, n := range c.parked {
		s.Parked[id] = n
	}
	return s
}

// ActiveID returns the id of the active correspondent, 0 when none.
func (s Snapshot) ActiveID() int64 {
	if s.Active == nil {
		return 0
	}
	return s.Active.ID
}

// Event payloads published on the bus.
type (
	CorrespondentsLoaded struct {
		Count int
		Err   error
	}

	TranscriptUpdated struct {
		CorrespondentID int64
		Len             int
	}

	SendAck struct {
		Token           Token
		CorrespondentID int64
		Message         Message
	}

	SendFailed struct {
		Token           Token
		CorrespondentID int64
		Kind            FailureKind
		Err             error
	}

	// DraftRestored reports a draft given back to the user. Parked is true
	// when it could not go straight into the compose box.
	DraftRestored struct {
		CorrespondentID int64
		Draft           Draft
		Parked          bool
	}
)
