package tui

import (
	"fmt"
	"strings"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	name, args, _ := strings.Cut(input, " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

// commandNames are the prompt commands, in the order help lists them.
var commandNames = []string{"attach", "detach", "restore", "refresh", "reload", "logout", "help", "quit"}

// command aliases accepted at the prompt.
var aliases = map[string]string{
	"a":  "attach",
	"h":  "help",
	"q":  "quit",
	"q!": "quit",
	"r":  "refresh",
}

// Canonical resolves aliases to the full command name.
func (c Command) Canonical() string {
	if full, ok := aliases[c.Name]; ok {
		return full
	}
	return c.Name
}

// Validate reports a missing or unexpected argument.
func (c Command) Validate() error {
	switch c.Canonical() {
	case "attach":
		if c.Args == "" {
			return fmt.Errorf("usage: :attach <path>")
		}
	case "detach", "refresh", "reload", "restore", "logout", "help", "quit":
		if c.Args != "" {
			return fmt.Errorf(":%s takes no arguments", c.Canonical())
		}
	case "":
		return nil
	default:
		return fmt.Errorf("unknown command %q", c.Name)
	}
	return nil
}
