package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/session"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/store"
)

// newBackend serves the friends list and accepts sends to friend 1 only.
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/friends/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id": 1, "name": "Ann", "email": "ann@uni.edu", "skills": ["go"]},
			{"id": 2, "name": "Bob", "email": "bob@uni.edu", "skills": "ml, python"}
		]`)
	})
	mux.HandleFunc("POST /api/messages/send/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error": "boom"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 11, "sender_id": 99, "receiver_id": 1, "content": "hello there",
			"timestamp": "2026-10-18T09:30:00", "file_url": null, "is_sender": true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupEnv(t *testing.T) {
	t.Helper()
	srv := newBackend(t)
	t.Setenv("ACADCHAT_HOME", t.TempDir())
	t.Setenv("ACADCHAT_BASE_URL", srv.URL+"/api")
	t.Setenv("ACADCHAT_SESSION", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFriendsJSON(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "friends", "--json")
	require.NoError(t, err)

	var friends []friendOut
	require.NoError(t, json.Unmarshal([]byte(out), &friends))
	require.Len(t, friends, 2)
	assert.Equal(t, "Ann", friends[0].Name)
	assert.Equal(t, []string{"ml", "python"}, friends[1].Skills)
}

func TestSendJournalsOutcome(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "send", "1", "hello", "there")
	require.NoError(t, err)
	assert.Equal(t, "sent message 11\n", out)

	_, err = run(t, "send", "2", "are you around?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error (500): boom")
	assert.Contains(t, err.Error(), "draft kept")

	out, err = run(t, "outbox", "--json")
	require.NoError(t, err)
	var entries []outboxOut
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	byFriend := map[int64]outboxOut{}
	for _, e := range entries {
		byFriend[e.FriendID] = e
	}
	assert.Equal(t, store.OutboxSent, byFriend[1].Status)
	assert.Equal(t, int64(11), byFriend[1].ServerID)
	assert.Equal(t, store.OutboxFailed, byFriend[2].Status)

	db, err := store.Open(session.For(session.DefaultName).DB)
	require.NoError(t, err)
	defer db.Close()
	counts, err := db.DraftCounts()
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{2: 1}, counts)
}

func TestSendRejectsEmptyAndBadInput(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "send", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to send")

	_, err = run(t, "send", "abc", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid friend id")

	_, err = run(t, "send", "1", "--file", filepath.Join(t.TempDir(), "run.exe"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")

	_, err = run(t, "outbox", "--status", "queued")
	require.Error(t, err)
}

func TestSessionsListsUsedSessions(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "--session", "lab", "friends")
	require.NoError(t, err)

	out, err := run(t, "sessions")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "lab "), lines[1])
	assert.Contains(t, lines[1], "-")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
