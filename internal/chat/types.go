package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Correspondent is a user the session holder can exchange messages with.
// Identity is ID; the record does not change for the life of a session.
type Correspondent struct {
	ID          int64
	DisplayName string
	AvatarURL   string
	ContactInfo string
	Skills      []string
}

// Token is the client-assigned identity of a message not yet confirmed by
// the server.
type Token string

// NewToken returns a fresh random token.
func NewToken() Token {
	return Token(uuid.NewString())
}

// MessageState tags a transcript entry as pending or confirmed.
type MessageState int

const (
	Pending MessageState = iota
	Confirmed
)

func (s MessageState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// Message is one transcript entry. Pending entries carry a Token and no
// server ID or SentAt; confirmed entries carry the server's ID and SentAt,
// and keep the Token of the placeholder they replaced, if any.
type Message struct {
	ID             int64
	Token          Token
	State          MessageState
	FromMe         bool
	Text           string
	AttachmentURL  string
	AttachmentName string
	SentAt         time.Time
}

// HasAttachment reports whether the message carries a file.
func (m Message) HasAttachment() bool {
	return m.AttachmentURL != "" || m.AttachmentName != ""
}

// IsImage reports whether the attachment looks like an image by extension.
func (m Message) IsImage() bool {
	name := m.AttachmentName
	if name == "" {
		name = m.AttachmentURL
	}
	return isImageName(name)
}

// Attachment is a local file chosen for upload.
type Attachment struct {
	Path string
	Name string
}

// NewAttachment checks that path names a regular file with an extension
// the backend accepts.
func NewAttachment(path string) (*Attachment, error) {
	name := filepath.Base(path)
	if !AllowedAttachment(name) {
		return nil, fmt.Errorf("attach %s: file type not allowed", name)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attach %s: is a directory", name)
	}
	return &Attachment{Path: path, Name: name}, nil
}

// Draft is the content of the compose box.
type Draft struct {
	Text       string
	Attachment *Attachment
}

// IsEmpty reports whether sending d would be a no-op.
func (d Draft) IsEmpty() bool {
	return strings.TrimSpace(d.Text) == "" && d.Attachment == nil
}

// Clone returns a copy of d that shares no pointers with it.
func (d Draft) Clone() Draft {
	if d.Attachment != nil {
		a := *d.Attachment
		d.Attachment = &a
	}
	return d
}

var allowedExtensions = []string{"png", "jpg", "jpeg", "pdf", "doc", "docx"}

var imageExtensions = []string{"png", "jpg", "jpeg"}

// AllowedAttachment reports whether the backend accepts a file with this name.
func AllowedAttachment(name string) bool {
	return slices.Contains(allowedExtensions, extension(name))
}

func isImageName(name string) bool {
	return slices.Contains(imageExtensions, extension(name))
}

func extension(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
