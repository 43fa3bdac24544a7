package session

import (
	"os"
	"path/filepath"
)

// BaseDir is ~/.acadchat, or $ACADCHAT_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("ACADCHAT_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".acadchat")
}

// ConfigPath is the config file shared by every session.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

func sessionsDir() string {
	return filepath.Join(BaseDir(), "sessions")
}

// Files is the on-disk layout of one session.
type Files struct {
	Dir     string // sessions/<name>
	Lock    string // LOCK, held by the process using the session
	Cookies string // persisted cookie jar
	DB      string // outbox journal and parked drafts
	LogDir  string
	Log     string
}

// For returns the layout of the named session. Nothing is created.
func For(name string) Files {
	dir := filepath.Join(sessionsDir(), name)
	logs := filepath.Join(dir, "logs")
	return Files{
		Dir:     dir,
		Lock:    filepath.Join(dir, "LOCK"),
		Cookies: filepath.Join(dir, "cookies.json"),
		DB:      filepath.Join(dir, "acadchat.db"),
		LogDir:  logs,
		Log:     filepath.Join(logs, "acadchat.log"),
	}
}

// Create makes the session and log directories, owner-only.
func (f Files) Create() error {
	if err := os.MkdirAll(f.LogDir, 0o700); err != nil {
		return err
	}
	return os.Chmod(f.Dir, 0o700)
}
