package bus

import "time"

// Event kinds published by the chat client. Subscribers filter by prefix,
// so "chat." receives every controller event.
const (
	KindCorrespondentsLoaded = "chat.correspondents_loaded"
	KindTranscriptUpdated    = "chat.transcript_updated"
	KindSendAck              = "chat.send_ack"
	KindSendFailed           = "chat.send_failed"
	KindDraftRestored        = "chat.draft_restored"
	KindPhaseChanged         = "conversation.phase_changed"
	KindOutboxRecovered      = "outbox.recovered"
	KindOutboxRecorded       = "outbox.recorded"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
