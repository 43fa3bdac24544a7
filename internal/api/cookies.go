package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// sessionJar is the jar the HTTP client holds for its whole life. Clearing
// swaps the inner jar under the lock.
type sessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &sessionJar{jar: jar}, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

func (j *sessionJar) reset() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
	return nil
}

type cookieFile struct {
	URL     string        `json:"url"`
	Cookies []savedCookie `json:"cookies"`
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SaveCookies writes the cookies the jar holds for the API host to path.
func (c *Client) SaveCookies(path string) error {
	f := cookieFile{URL: c.baseURL.String()}
	for _, ck := range c.jar.Cookies(c.baseURL) {
		f.Cookies = append(f.Cookies, savedCookie{Name: ck.Name, Value: ck.Value})
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// LoadCookies restores cookies saved by SaveCookies. A missing file is not
// an error. Cookies saved for a different API root are ignored.
func (c *Client) LoadCookies(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cookies: %w", err)
	}
	var f cookieFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse cookies: %w", err)
	}
	if f.URL != c.baseURL.String() {
		return nil
	}
	cookies := make([]*http.Cookie, 0, len(f.Cookies))
	for _, sc := range f.Cookies {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	c.jar.SetCookies(c.baseURL, cookies)
	return nil
}

// ClearCookies forgets every cookie. Safe to call while requests are in
// flight.
func (c *Client) ClearCookies() {
	if err := c.jar.reset(); err != nil {
		c.logger.Warn("failed to clear cookies", zap.Error(err))
	}
}

// HasCookies reports whether the jar holds any cookie for the API host.
func (c *Client) HasCookies() bool {
	return len(c.jar.Cookies(c.baseURL)) > 0
}
