package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
	"go.uber.org/zap"
)

var (
	_ chat.Directory = (*Client)(nil)
	_ chat.History   = (*Client)(nil)
	_ chat.Delivery  = (*Client)(nil)
)

// ListCorrespondents returns the session user's friends.
func (c *Client) ListCorrespondents(ctx context.Context) ([]chat.Correspondent, error) {
	var friends []friendJSON
	if err := c.getJSON(ctx, "/friends/list", &friends); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	out := make([]chat.Correspondent, 0, len(friends))
	for _, f := range friends {
		out = append(out, correspondentFromWire(f))
	}
	return out, nil
}

// History returns the conversation with a correspondent in server order.
func (c *Client) History(ctx context.Context, correspondentID int64) ([]chat.Message, error) {
	var resp historyJSON
	if err := c.getJSON(ctx, fmt.Sprintf("/messages/chat/%d", correspondentID), &resp); err != nil {
		return nil, fmt.Errorf("chat history %d: %w", correspondentID, err)
	}
	out := make([]chat.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg, err := c.messageFromWire(m)
		if err != nil {
			return nil, fmt.Errorf("chat history %d: %w", correspondentID, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// Send posts a message as multipart form data: a "content" field when the
// text is not blank and a "file" part when an attachment is set.
func (c *Client) Send(ctx context.Context, correspondentID int64, d chat.Draft) (chat.Message, error) {
	body, contentType, err := encodeDraft(d)
	if err != nil {
		return chat.Message{}, fmt.Errorf("send to %d: %w", correspondentID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint(fmt.Sprintf("/messages/send/%d", correspondentID)), body)
	if err != nil {
		return chat.Message{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	var m messageJSON
	if err := c.do(req, &m); err != nil {
		return chat.Message{}, fmt.Errorf("send to %d: %w", correspondentID, err)
	}
	msg, err := c.messageFromWire(m)
	if err != nil {
		return chat.Message{}, fmt.Errorf("send to %d: %w", correspondentID, err)
	}
	c.logger.Debug("message delivered", zap.Int64("correspondent_id", correspondentID), zap.Int64("msg_id", msg.ID))
	return msg, nil
}

func encodeDraft(d chat.Draft) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if strings.TrimSpace(d.Text) != "" {
		if err := mw.WriteField("content", d.Text); err != nil {
			return nil, "", err
		}
	}
	if d.Attachment != nil {
		f, err := os.Open(d.Attachment.Path)
		if err != nil {
			return nil, "", fmt.Errorf("open attachment: %w", err)
		}
		defer f.Close()

		part, err := mw.CreateFormFile("file", d.Attachment.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("read attachment: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
