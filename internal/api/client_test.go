package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sumit-bhole/Acadlinker-NPAI/internal/chat"
)

const sessionCookie = "session"

// fakeBackend mimics the Acadlinker API for a single logged-in user.
type fakeBackend struct {
	mux *http.ServeMux

	mu       sync.Mutex
	lastForm map[string]string
	lastFile uploadedFile
}

type uploadedFile struct {
	name string
	data []byte
}

func (fb *fakeBackend) form() map[string]string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.lastForm
}

func (fb *fakeBackend) file() uploadedFile {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.lastFile
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{mux: http.NewServeMux()}

	fb.mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Missing email or password."})
			return
		}
		if req.Email != "sam@uni.edu" || req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials."})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "tok-1", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful.",
			"user":    map[string]any{"id": 99, "full_name": "Sam Student", "email": "sam@uni.edu", "profile_pic": nil, "location": "Pune"},
		})
	})
	fb.mux.HandleFunc("GET /api/auth/status", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]bool{"is_logged_in": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"is_logged_in": true,
			"user":         map[string]any{"id": 99, "full_name": "Sam Student", "email": "sam@uni.edu"},
		})
	})
	fb.mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out."})
	})
	fb.mux.HandleFunc("GET /api/friends/list", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
			return
		}
		_, _ = io.WriteString(w, `[
			{"id": 1, "name": "Ann", "email": "ann@uni.edu", "profile_image": "https://cdn.example/ann.png", "skills": ["go", "sql"]},
			{"id": 2, "name": "Bob", "email": "bob@uni.edu", "profile_image": null, "skills": "python, ml"}
		]`)
	})
	fb.mux.HandleFunc("GET /api/messages/chat/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "You can only chat with your friends."})
			return
		}
		_, _ = io.WriteString(w, `{
			"friend": {"id": 1, "username": "Ann"},
			"messages": [
				{"id": 10, "sender_id": 1, "receiver_id": 99, "content": "hi", "timestamp": "2026-10-18T08:00:00.123456", "file_url": null, "is_sender": false},
				{"id": 12, "sender_id": 99, "receiver_id": 1, "content": null, "timestamp": "2026-10-18T08:05:00", "file_url": "/static/uploads/ab12.pdf", "is_sender": true}
			]
		}`)
	})
	fb.mux.HandleFunc("POST /api/messages/send/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		form := map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		var upload uploadedFile
		var fileURL any
		if fh, ok := r.MultipartForm.File["file"]; ok {
			f, _ := fh[0].Open()
			upload.name = fh[0].Filename
			upload.data, _ = io.ReadAll(f)
			_ = f.Close()
			fileURL = "https://cdn.example/messages/" + fh[0].Filename
		}
		fb.mu.Lock()
		fb.lastForm, fb.lastFile = form, upload
		fb.mu.Unlock()

		content, hasContent := form["content"]
		if !hasContent && fileURL == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Message content or file is required."})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 11, "sender_id": 99, "receiver_id": 1, "content": content,
			"timestamp": "2026-10-18T09:30:00", "file_url": fileURL, "is_sender": true,
		})
	})

	srv := httptest.NewServer(fb.mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func authed(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == "tok-1"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func loggedInClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL + "/api")
	require.NoError(t, err)
	_, err = c.Login(context.Background(), "sam@uni.edu", "secret")
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New("ftp://example.com/api")
	assert.Error(t, err)
	_, err = New("localhost:5000")
	assert.Error(t, err)
}

func TestLoginAndStatus(t *testing.T) {
	_, srv := newFakeBackend(t)
	c, err := New(srv.URL + "/api/")
	require.NoError(t, err)

	u, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, u.Anonymous(), "status before login")

	_, err = c.Login(context.Background(), "sam@uni.edu", "wrong")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.Code)
	assert.Equal(t, "Invalid credentials.", serr.Message)
	assert.True(t, serr.Unauthorized())

	u, err = c.Login(context.Background(), "sam@uni.edu", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(99), u.ID)
	assert.Equal(t, "Sam Student", u.FullName)
	assert.Equal(t, "Pune", u.Location)
	assert.True(t, c.HasCookies())

	u, err = c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(99), u.ID)
}

func TestLogoutClearsCookies(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := loggedInClient(t, srv)

	require.NoError(t, c.Logout(context.Background()))
	assert.False(t, c.HasCookies())

	_, err := c.ListCorrespondents(context.Background())
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnauthorized, serr.StatusCode())

	// Logging out twice is fine.
	assert.NoError(t, c.Logout(context.Background()))
}

func TestClearCookiesDuringRequests(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := loggedInClient(t, srv)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = c.History(context.Background(), 1)
		}()
		go func() {
			defer wg.Done()
			c.ClearCookies()
		}()
	}
	wg.Wait()

	assert.False(t, c.HasCookies())
	_, err := c.ListCorrespondents(context.Background())
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Unauthorized())
}

func TestListCorrespondents(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := loggedInClient(t, srv)

	list, err := c.ListCorrespondents(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, chat.Correspondent{
		ID: 1, DisplayName: "Ann", AvatarURL: "https://cdn.example/ann.png",
		ContactInfo: "ann@uni.edu", Skills: []string{"go", "sql"},
	}, list[0])
	assert.Equal(t, "", list[1].AvatarURL)
	assert.Equal(t, []string{"python", "ml"}, list[1].Skills)
}

func TestUnauthenticatedFetchIsServerError(t *testing.T) {
	_, srv := newFakeBackend(t)
	c, err := New(srv.URL + "/api")
	require.NoError(t, err)

	_, err = c.ListCorrespondents(context.Background())
	require.Error(t, err)
	assert.Equal(t, chat.ServerError, chat.Classify(err))
	assert.Contains(t, err.Error(), "login required")
}

func TestHistory(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := loggedInClient(t, srv)

	msgs, err := c.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, int64(10), msgs[0].ID)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.False(t, msgs[0].FromMe)
	assert.Equal(t, chat.Confirmed, msgs[0].State)
	assert.Equal(t, time.Date(2026, 10, 18, 8, 0, 0, 123456000, time.UTC), msgs[0].SentAt)

	assert.True(t, msgs[1].FromMe)
	assert.Equal(t, "", msgs[1].Text)
	assert.Equal(t, srv.URL+"/static/uploads/ab12.pdf", msgs[1].AttachmentURL)
	assert.Equal(t, "ab12.pdf", msgs[1].AttachmentName)
}

func TestHistoryForbidden(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := loggedInClient(t, srv)

	_, err := c.History(context.Background(), 7)
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusForbidden, serr.Code)
	assert.Equal(t, "You can only chat with your friends.", serr.Message)
}

func TestSendText(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := loggedInClient(t, srv)

	msg, err := c.Send(context.Background(), 1, chat.Draft{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), msg.ID)
	assert.Equal(t, "hello", msg.Text)
	assert.True(t, msg.FromMe)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC), msg.SentAt)
	assert.Equal(t, map[string]string{"content": "hello"}, fb.form())
}

func TestSendAttachmentWithoutText(t *testing.T) {
	fb, srv := newFakeBackend(t)
	c := loggedInClient(t, srv)

	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 body"), 0600))

	msg, err := c.Send(context.Background(), 1, chat.Draft{
		Text:       "   ",
		Attachment: &chat.Attachment{Path: path, Name: "notes.pdf"},
	})
	require.NoError(t, err)

	_, hasContent := fb.form()["content"]
	assert.False(t, hasContent, "blank text must not be sent as content")
	assert.Equal(t, "notes.pdf", fb.file().name)
	assert.Equal(t, []byte("%PDF-1.4 body"), fb.file().data)
	assert.Equal(t, "https://cdn.example/messages/notes.pdf", msg.AttachmentURL)
	assert.Equal(t, "notes.pdf", msg.AttachmentName)
}

func TestSendMissingAttachmentFile(t *testing.T) {
	_, srv := newFakeBackend(t)
	c := loggedInClient(t, srv)

	_, err := c.Send(context.Background(), 1, chat.Draft{
		Attachment: &chat.Attachment{Path: filepath.Join(t.TempDir(), "gone.png"), Name: "gone.png"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/api"
	srv.Close()

	c, err := New(base)
	require.NoError(t, err)

	_, err = c.ListCorrespondents(context.Background())
	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, chat.NetworkFailure, chat.Classify(err))
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.History(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, chat.NetworkFailure, chat.Classify(err))
}

func TestErrorBodyFallbacks(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{"error field", 400, `{"error": "Invalid file type."}`, "Invalid file type."},
		{"message field", 409, `{"message": "Email already registered."}`, "Email already registered."},
		{"plain text", 502, "bad gateway", "bad gateway"},
		{"empty", 500, "", "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			c, err := New(srv.URL + "/api")
			require.NoError(t, err)
			_, err = c.ListCorrespondents(context.Background())

			var serr *StatusError
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.Equal(t, tt.code, serr.Code)
			assert.Equal(t, tt.want, serr.Message)
		})
	}
}
