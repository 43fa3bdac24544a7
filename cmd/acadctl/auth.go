package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
)

func newLoginCmd(g *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password and keep the session cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			return withSession(cmd, g, false, func(ctx context.Context, d deps) error {
				u, err := d.client.Login(ctx, email, password)
				if err != nil {
					return err
				}
				return printUser(cmd.OutOrStdout(), g.json, u, "logged in as ")
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and forget its cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, g, false, func(ctx context.Context, d deps) error {
				if err := d.client.Logout(ctx); err != nil {
					return err
				}
				if g.json {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"logged_out": true, "session": d.session})
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "logged out of session %q\n", d.session)
				return err
			})
		},
	}
}

func newWhoamiCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, g, true, func(ctx context.Context, d deps) error {
				u, err := d.client.Status(ctx)
				if err != nil {
					return err
				}
				if u.Anonymous() {
					return errors.New("not logged in (run acadctl login)")
				}
				return printUser(cmd.OutOrStdout(), g.json, u, "")
			})
		},
	}
}

func printUser(w io.Writer, asJSON bool, u session.User, prefix string) error {
	if asJSON {
		return writeJSON(w, u)
	}
	_, err := fmt.Fprintf(w, "%s%s\n", prefix, u)
	return err
}

// readPassword prompts without echo on a terminal and reads one line
// otherwise, so the password can be piped in.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
