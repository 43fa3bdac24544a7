package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
)

type friendOut struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Contact string   `json:"contact,omitempty"`
	Avatar  string   `json:"avatar_url,omitempty"`
	Skills  []string `json:"skills,omitempty"`
}

type messageOut struct {
	ID         int64     `json:"id"`
	FromMe     bool      `json:"from_me"`
	Text       string    `json:"text,omitempty"`
	Attachment string    `json:"attachment_url,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

func toMessageOut(m chat.Message) messageOut {
	return messageOut{ID: m.ID, FromMe: m.FromMe, Text: m.Text, Attachment: m.AttachmentURL, SentAt: m.SentAt}
}

func newFriendsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "friends",
		Short: "List the people you can message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, g, true, func(ctx context.Context, d deps) error {
				list, err := d.client.ListCorrespondents(ctx)
				if err != nil {
					return err
				}
				out := make([]friendOut, 0, len(list))
				for _, c := range list {
					out = append(out, friendOut{ID: c.ID, Name: c.DisplayName, Contact: c.ContactInfo, Avatar: c.AvatarURL, Skills: c.Skills})
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), out)
				}
				return printFriends(cmd.OutOrStdout(), out)
			})
		},
	}
}

func newHistoryCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history <friend-id>",
		Short: "Print the conversation with a friend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, g, true, func(ctx context.Context, d deps) error {
				msgs, err := d.client.History(ctx, id)
				if err != nil {
					return err
				}
				out := make([]messageOut, 0, len(msgs))
				for _, m := range msgs {
					out = append(out, toMessageOut(m))
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), out)
				}
				return printHistory(cmd.OutOrStdout(), out)
			})
		},
	}
}

func newSendCmd(g *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "send <friend-id> [text...]",
		Short: "Send a message, optionally with an attachment",
		Long: "Send a message. A failed send is journaled and its text is kept as a\n" +
			"draft that the interactive client offers back in that conversation.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			draft := chat.Draft{Text: strings.Join(args[1:], " ")}
			if file != "" {
				if draft.Attachment, err = chat.NewAttachment(file); err != nil {
					return err
				}
			}
			if draft.IsEmpty() {
				return errors.New("nothing to send: give message text or --file")
			}
			return withSession(cmd, g, false, func(ctx context.Context, d deps) error {
				m, err := deliver(ctx, d, id, draft)
				if err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), toMessageOut(m))
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "sent message %d\n", m.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "attach a png, jpg, jpeg, pdf, doc or docx file")
	return cmd
}

// deliver sends draft through the journal the same way the interactive
// client does.
func deliver(ctx context.Context, d deps, id int64, draft chat.Draft) (chat.Message, error) {
	tok := chat.NewToken()
	if err := d.journal.Queued(tok, id, draft); err != nil {
		return chat.Message{}, err
	}

	rctx := ctx
	if t := d.cfg.RequestTimeout(); t > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	m, err := d.client.Send(rctx, id, draft)
	if err != nil {
		if jerr := d.journal.Failed(tok, err); jerr != nil {
			return chat.Message{}, errors.Join(err, jerr)
		}
		if perr := d.journal.Park(id, draft); perr != nil {
			return chat.Message{}, errors.Join(err, perr)
		}
		return chat.Message{}, fmt.Errorf("%w (%s; draft kept for the interactive client)", err, chat.Classify(err))
	}
	if err := d.journal.Sent(tok, m.ID); err != nil {
		return m, err
	}
	return m, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid friend id %q", s)
	}
	return id, nil
}

func printFriends(w io.Writer, friends []friendOut) error {
	tw := newTable(w, "ID", "NAME", "CONTACT", "SKILLS")
	for _, f := range friends {
		tw.row(f.ID, f.Name, f.Contact, strings.Join(f.Skills, ", "))
	}
	return tw.flush()
}

func printHistory(w io.Writer, msgs []messageOut) error {
	for _, m := range msgs {
		who := "them"
		if m.FromMe {
			who = "me"
		}
		line := m.Text
		if m.Attachment != "" {
			if line != "" {
				line += " "
			}
			line += "[" + m.Attachment + "]"
		}
		if _, err := fmt.Fprintf(w, "%s  %-4s  %s\n", m.SentAt.Local().Format("2006-01-02 15:04"), who, line); err != nil {
			return err
		}
	}
	return nil
}
