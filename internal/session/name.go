package session

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/config"
)

// DefaultName is used when neither the flag nor the config names a session.
const DefaultName = "main"

// ErrInvalidName is wrapped by ValidateName failures.
var ErrInvalidName = errors.New("invalid session name")

var namePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName reports whether name can be used as a directory under sessions/.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w %q: use 1-64 of a-z, 0-9, '_' or '-'", ErrInvalidName, name)
	}
	return nil
}

// Resolve picks the session name from the --session flag, then the config
// default, then DefaultName, and validates the result.
func Resolve(flag string, cfg *config.Config) (string, error) {
	name := DefaultName
	switch {
	case flag != "":
		name = flag
	case cfg != nil && cfg.DefaultSession != "":
		name = cfg.DefaultSession
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// List returns the names of the sessions that have a directory, sorted.
func List() ([]string, error) {
	entries, err := os.ReadDir(sessionsDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && ValidateName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
