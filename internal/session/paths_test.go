package session

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/config"
)

func TestBaseDir(t *testing.T) {
	t.Setenv("ACADCHAT_HOME", "")
	home, _ := os.UserHomeDir()
	if got, want := BaseDir(), filepath.Join(home, ".acadchat"); got != want {
		t.Errorf("BaseDir() = %q, want %q", got, want)
	}

	tmp := t.TempDir()
	t.Setenv("ACADCHAT_HOME", tmp)
	if got := BaseDir(); got != tmp {
		t.Errorf("BaseDir() with ACADCHAT_HOME = %q, want %q", got, tmp)
	}
	if got := ConfigPath(); got != filepath.Join(tmp, "config.toml") {
		t.Errorf("ConfigPath() = %q", got)
	}
}

func TestFor(t *testing.T) {
	base := t.TempDir()
	t.Setenv("ACADCHAT_HOME", base)

	f := For("lab")
	dir := filepath.Join(base, "sessions", "lab")
	want := Files{
		Dir:     dir,
		Lock:    filepath.Join(dir, "LOCK"),
		Cookies: filepath.Join(dir, "cookies.json"),
		DB:      filepath.Join(dir, "acadchat.db"),
		LogDir:  filepath.Join(dir, "logs"),
		Log:     filepath.Join(dir, "logs", "acadchat.log"),
	}
	if f != want {
		t.Errorf("For(lab) = %+v\nwant %+v", f, want)
	}
}

func TestCreate(t *testing.T) {
	t.Setenv("ACADCHAT_HOME", t.TempDir())

	f := For("test")
	if err := f.Create(); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, d := range []string{f.Dir, f.LogDir} {
		info, err := os.Stat(d)
		if err != nil {
			t.Fatalf("%s not created: %v", d, err)
		}
		if perm := info.Mode().Perm(); !info.IsDir() || perm != 0o700 {
			t.Errorf("%s mode = %v, want dir 0700", d, info.Mode())
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"main", false},
		{"cs101", false},
		{"study-group", false},
		{"lab_2", false},
		{strings.Repeat("a", 64), false},
		{"", true},
		{"Main", true},
		{"my session", true},
		{"..", true},
		{strings.Repeat("a", 65), true},
		{"a/b", true},
	}
	for _, tt := range tests {
		err := ValidateName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) error %v does not wrap ErrInvalidName", tt.input, err)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		cfg     *config.Config
		want    string
		wantErr bool
	}{
		{"flag wins", "work", &config.Config{DefaultSession: "home"}, "work", false},
		{"config default", "", &config.Config{DefaultSession: "home"}, "home", false},
		{"nil config", "", nil, DefaultName, false},
		{"empty config", "", &config.Config{}, DefaultName, false},
		{"invalid flag", "Bad Name", nil, "", true},
		{"invalid config", "", &config.Config{DefaultSession: "../x"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.flag, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestList(t *testing.T) {
	t.Setenv("ACADCHAT_HOME", t.TempDir())

	names, err := List()
	if err != nil || names != nil {
		t.Fatalf("List() before any session = %v, %v", names, err)
	}

	for _, n := range []string{"work", "main"} {
		if err := For(n).Create(); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(BaseDir(), "sessions", "Not Valid"), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(BaseDir(), "sessions", "stray"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	names, err = List()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"main", "work"}; !reflect.DeepEqual(names, want) {
		t.Errorf("List() = %v, want %v", names, want)
	}
}

func TestUserString(t *testing.T) {
	if got := (User{}).String(); got != "(not logged in)" {
		t.Errorf("anonymous String() = %q", got)
	}
	u := User{ID: 3, FullName: "Ann Lee", Email: "ann@uni.edu"}
	if got := u.String(); got != "Ann Lee <ann@uni.edu>" {
		t.Errorf("String() = %q", got)
	}
	if (User{ID: 4, Email: "x@uni.edu"}).String() != "x@uni.edu" {
		t.Error("String() without name should fall back to email")
	}
}
