package api

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
)

type friendJSON struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	ProfileImage *string    `json:"profile_image"`
	Skills       skillsJSON `json:"skills"`
}

type messageJSON struct {
	ID         int64   `json:"id"`
	SenderID   int64   `json:"sender_id"`
	ReceiverID int64   `json:"receiver_id"`
	IsSender   bool    `json:"is_sender"`
	Content    *string `json:"content"`
	FileURL    *string `json:"file_url"`
	Timestamp  string  `json:"timestamp"`
}

type historyJSON struct {
	Messages []messageJSON `json:"messages"`
}

type userJSON struct {
	ID         int64   `json:"id"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	ProfilePic *string `json:"profile_pic"`
	Location   *string `json:"location"`
}

// skillsJSON accepts either a JSON list or a comma separated string.
type skillsJSON []string

func (s *skillsJSON) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return fmt.Errorf("skills: %w", err)
	}
	var out []string
	for _, part := range strings.Split(joined, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*s = out
	return nil
}

// Server timestamps come from Python's isoformat(): no zone, optional
// microseconds. They are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func correspondentFromWire(f friendJSON) chat.Correspondent {
	return chat.Correspondent{
		ID:          f.ID,
		DisplayName: f.Name,
		AvatarURL:   deref(f.ProfileImage),
		ContactInfo: f.Email,
		Skills:      []string(f.Skills),
	}
}

func (c *Client) messageFromWire(m messageJSON) (chat.Message, error) {
	ts, err := parseTimestamp(m.Timestamp)
	if err != nil {
		return chat.Message{}, fmt.Errorf("message %d: %w", m.ID, err)
	}
	out := chat.Message{
		ID:            m.ID,
		State:         chat.Confirmed,
		FromMe:        m.IsSender,
		Text:          deref(m.Content),
		AttachmentURL: c.resolve(deref(m.FileURL)),
		SentAt:        ts,
	}
	if out.AttachmentURL != "" {
		out.AttachmentName = path.Base(strings.SplitN(out.AttachmentURL, "?", 2)[0])
	}
	return out, nil
}

func userFromWire(u userJSON) session.User {
	return session.User{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		ProfilePic: deref(u.ProfilePic),
		Location:   deref(u.Location),
	}
}
