package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/lock"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
)

type sessionOut struct {
	Name     string     `json:"name"`
	InUse    bool       `json:"in_use"`
	PID      int        `json:"pid,omitempty"`
	Command  string     `json:"command,omitempty"`
	Since    *time.Time `json:"since,omitempty"`
	Location string     `json:"dir"`
}

func newSessionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List local sessions and which process is using each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := session.List()
			if err != nil {
				return err
			}
			out := make([]sessionOut, 0, len(names))
			for _, name := range names {
				files := session.For(name)
				s := sessionOut{Name: name, Location: files.Dir}
				if o, err := lock.ReadOwner(files.Lock); err == nil && o.PID != 0 {
					s.InUse, s.PID, s.Command = true, o.PID, o.Command
					since := o.Since
					s.Since = &since
				}
				out = append(out, s)
			}
			if g.json {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			tw := newTable(cmd.OutOrStdout(), "NAME", "IN USE", "DIR")
			for _, s := range out {
				use := "-"
				if s.InUse {
					use = s.Command + " " + s.Since.Local().Format(time.DateTime)
				}
				tw.row(s.Name, use, s.Location)
			}
			return tw.flush()
		},
	}
}
