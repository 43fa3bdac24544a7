package tui

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"quit", Command{Name: "quit"}},
		{"  ATTACH  ~/notes/lab 1.pdf ", Command{Name: "attach", Args: "~/notes/lab 1.pdf"}},
		{"", Command{}},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.in); got != tt.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		in      string
		canon   string
		wantErr bool
	}{
		{"q", "quit", false},
		{"a report.pdf", "attach", false},
		{"attach", "attach", true},
		{"refresh now", "refresh", true},
		{"restore", "restore", false},
		{"search foo", "search", true},
		{"", "", false},
	}
	for _, tt := range tests {
		c := ParseCommand(tt.in)
		if got := c.Canonical(); got != tt.canon {
			t.Errorf("%q: Canonical() = %q, want %q", tt.in, got, tt.canon)
		}
		if err := c.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%q: Validate() = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestEveryCommandNameIsAccepted(t *testing.T) {
	for _, name := range commandNames {
		input := name
		if name == "attach" {
			input += " notes.pdf"
		}
		if err := ParseCommand(input).Validate(); err != nil {
			t.Errorf("%q rejected: %v", input, err)
		}
	}
}
