// Package lock keeps two processes from driving the same session at once.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Owner is written into the lock file by the process holding it.
type Owner struct {
	PID     int       `json:"pid"`
	Command string    `json:"command"`
	Since   time.Time `json:"since"`
}

// LockHeldError is returned by Acquire when another process holds the lock.
// Owner is zero when the lock file could not be read.
type LockHeldError struct {
	Path  string
	Owner Owner
}

func (e *LockHeldError) Error() string {
	o := e.Owner
	switch {
	case o.PID == 0:
		return fmt.Sprintf("session is in use by another process (%s)", e.Path)
	case o.Command == "":
		return fmt.Sprintf("session is in use by pid %d since %s", o.PID, o.Since.Local().Format(time.DateTime))
	default:
		return fmt.Sprintf("session is in use by %s (pid %d) since %s", o.Command, o.PID, o.Since.Local().Format(time.DateTime))
	}
}

// Lock is an exclusive flock on a session's LOCK file. Holding it makes this
// process the only writer of the session's cookie jar and send journal.
type Lock struct {
	f    *os.File
	path string
}

// Acquire takes the lock at path, creating the file and its directory.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("lock dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		held := &LockHeldError{Path: path}
		held.Owner, _ = ReadOwner(path)
		return nil, held
	}

	l := &Lock{f: f, path: path}
	if err := l.writeOwner(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock owner: %w", err)
	}
	return l, nil
}

func (l *Lock) writeOwner() error {
	data, err := json.Marshal(Owner{
		PID:     os.Getpid(),
		Command: filepath.Base(os.Args[0]),
		Since:   time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return err
	}
	if err := l.f.Truncate(0); err != nil {
		return err
	}
	_, err = l.f.WriteAt(append(data, '\n'), 0)
	return err
}

// ReadOwner returns the owner recorded in the lock file at path.
func ReadOwner(path string) (Owner, error) {
	var o Owner
	data, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	err = json.Unmarshal(data, &o)
	return o, err
}

// Path is the lock file location.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks and removes the lock file. Nil-safe and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.f.Close()
	l.f = nil
	return err
}
