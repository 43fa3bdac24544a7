package store

// Outbox statuses.
const (
	OutboxSending = "sending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxEntry is one journaled send attempt.
type OutboxEntry struct {
	ID              int64
	Token           string
	CorrespondentID int64
	Body            string
	AttachmentPath  string
	AttachmentName  string
	Status          string // sending, sent, failed
	ErrorMessage    string
	ServerMsgID     int64
	CreatedAt       int64
	UpdatedAt       int64
}

// DraftRecord is a compose draft set aside after a failed send.
type DraftRecord struct {
	ID              int64
	CorrespondentID int64
	Body            string
	AttachmentPath  string
	AttachmentName  string
	CreatedAt       int64
}
