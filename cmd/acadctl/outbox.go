package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/store"
)

type outboxOut struct {
	Token          string    `json:"token"`
	FriendID       int64     `json:"friend_id"`
	Status         string    `json:"status"`
	Text           string    `json:"text,omitempty"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	ServerID       int64     `json:"server_id,omitempty"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func newOutboxCmd(g *globalFlags) *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Show the local send journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch status {
			case "", store.OutboxSending, store.OutboxSent, store.OutboxFailed:
			default:
				return fmt.Errorf("--status must be one of %s, %s, %s", store.OutboxSending, store.OutboxSent, store.OutboxFailed)
			}
			return withSession(cmd, g, true, func(_ context.Context, d deps) error {
				entries, err := d.db.ListOutbox(status, limit)
				if err != nil {
					return err
				}
				out := make([]outboxOut, 0, len(entries))
				for _, e := range entries {
					out = append(out, outboxOut{
						Token:          e.Token,
						FriendID:       e.CorrespondentID,
						Status:         e.Status,
						Text:           e.Body,
						AttachmentName: e.AttachmentName,
						ServerID:       e.ServerMsgID,
						Error:          e.ErrorMessage,
						CreatedAt:      time.UnixMilli(e.CreatedAt).UTC(),
					})
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), out)
				}
				return printOutbox(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only entries with this status (sending, sent, failed)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries, 0 for all")
	return cmd
}

func printOutbox(w io.Writer, entries []outboxOut) error {
	tw := newTable(w, "CREATED", "FRIEND", "STATUS", "TEXT", "DETAIL")
	for _, e := range entries {
		detail := e.Error
		if e.Status == store.OutboxSent {
			detail = fmt.Sprintf("id %d", e.ServerID)
		}
		text := e.Text
		if e.AttachmentName != "" {
			text += " [" + e.AttachmentName + "]"
		}
		tw.row(e.CreatedAt.Local().Format("2006-01-02 15:04"), e.FriendID, e.Status, truncate(text, 40), detail)
	}
	return tw.flush()
}
