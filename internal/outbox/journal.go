package outbox

import (
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/bus"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/logging"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/store"
	"go.uber.org/zap"
)

// InterruptedReason is recorded on sends found still in flight at startup.
const InterruptedReason = "interrupted: client exited before the server answered"

var _ chat.Journal = (*Journal)(nil)

// Journal persists the lifecycle of every outbound send and the drafts that
// could not be handed back to the compose box. Sends are never retried from
// here; the journal only makes outcomes survive a restart.
type Journal struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger
}

// Recorded is the payload of outbox.recorded events.
type Recorded struct {
	Token  chat.Token
	Status string
}

// Recovered is the payload of outbox.recovered events.
type Recovered struct {
	Count int
}

// NewJournal creates a journal backed by db.
func NewJournal(db *store.DB, b *bus.Bus, logger *zap.Logger) *Journal {
	return &Journal{
		db:     db,
		bus:    b,
		logger: logging.OrNop(logger).Named("outbox"),
	}
}

func (j *Journal) Queued(token chat.Token, correspondentID int64, d chat.Draft) error {
	e := store.OutboxEntry{
		Token:           string(token),
		CorrespondentID: correspondentID,
		Body:            d.Text,
	}
	if d.Attachment != nil {
		e.AttachmentPath = d.Attachment.Path
		e.AttachmentName = d.Attachment.Name
	}
	if err := j.db.QueueOutbox(e); err != nil {
		return err
	}
	j.bus.Emit(bus.KindOutboxRecorded, Recorded{Token: token, Status: store.OutboxSending})
	return nil
}

func (j *Journal) Sent(token chat.Token, serverID int64) error {
	if err := j.db.MarkOutboxSent(string(token), serverID); err != nil {
		return err
	}
	j.bus.Emit(bus.KindOutboxRecorded, Recorded{Token: token, Status: store.OutboxSent})
	return nil
}

func (j *Journal) Failed(token chat.Token, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	if err := j.db.MarkOutboxFailed(string(token), msg); err != nil {
		return err
	}
	j.bus.Emit(bus.KindOutboxRecorded, Recorded{Token: token, Status: store.OutboxFailed})
	return nil
}

func (j *Journal) Park(correspondentID int64, d chat.Draft) error {
	_, err := j.db.SaveDraft(draftRecord(correspondentID, d))
	return err
}

func (j *Journal) Unpark(correspondentID int64) (chat.Draft, bool, error) {
	rec, err := j.db.TakeDraft(correspondentID)
	if err != nil || rec == nil {
		return chat.Draft{}, false, err
	}
	d := chat.Draft{Text: rec.Body}
	if rec.AttachmentPath != "" {
		d.Attachment = &chat.Attachment{Path: rec.AttachmentPath, Name: rec.AttachmentName}
	}
	return d, true, nil
}

func (j *Journal) Parked() (map[int64]int, error) {
	return j.db.DraftCounts()
}

// Recover marks sends left in flight by a previous run as failed and parks
// their drafts so the user gets them back when opening that conversation.
func (j *Journal) Recover() (int, error) {
	entries, err := j.db.InterruptedOutbox()
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if _, err := j.db.SaveDraft(store.DraftRecord{
			CorrespondentID: e.CorrespondentID,
			Body:            e.Body,
			AttachmentPath:  e.AttachmentPath,
			AttachmentName:  e.AttachmentName,
		}); err != nil {
			return 0, err
		}
		if err := j.db.MarkOutboxFailed(e.Token, InterruptedReason); err != nil {
			return 0, err
		}
		j.logger.Warn("recovered interrupted send",
			zap.String("token", e.Token),
			zap.Int64("correspondent_id", e.CorrespondentID))
	}
	if len(entries) > 0 {
		j.bus.Emit(bus.KindOutboxRecovered, Recovered{Count: len(entries)})
	}
	return len(entries), nil
}

func draftRecord(correspondentID int64, d chat.Draft) store.DraftRecord {
	rec := store.DraftRecord{CorrespondentID: correspondentID, Body: d.Text}
	if d.Attachment != nil {
		rec.AttachmentPath = d.Attachment.Path
		rec.AttachmentName = d.Attachment.Name
	}
	return rec
}
