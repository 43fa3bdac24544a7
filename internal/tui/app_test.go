package tui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type codeErr int

func (e codeErr) Error() string   { return "status" }
func (e codeErr) StatusCode() int { return int(e) }

func TestLoginMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{codeErr(401), "Invalid credentials."},
		{errors.New("dial tcp: connection refused"), "Could not reach Acadlinker. Check your connection and try again."},
		{codeErr(500), "status"},
	}
	for _, tt := range tests {
		if got := loginMessage(tt.err); got != tt.want {
			t.Errorf("loginMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~/notes/a.pdf", filepath.Join(home, "notes/a.pdf")},
		{"~", home},
		{"/tmp/a.pdf", "/tmp/a.pdf"},
		{"~other/a.pdf", "~other/a.pdf"},
	}
	for _, tt := range tests {
		got, err := expandHome(tt.in)
		if err != nil {
			t.Fatalf("expandHome(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
