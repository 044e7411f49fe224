package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"twin-dashboard/pkg/authapi"
)

var (
	// ErrNotAuthenticated means no session is held; log in first.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired means the server rejected the held token; the local
	// session has already been cleared when this is returned.
	ErrSessionExpired = errors.New("session expired, log in again")
	// ErrInvalidCredentials is the uniform login failure. The server does not
	// say whether the email or the password was wrong, and neither do we.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session is the state persisted between CLI invocations.
type Session struct {
	AccessToken string       `json:"access_token"`
	User        authapi.User `json:"user"`
	SavedAt     time.Time    `json:"saved_at"`
}

// SessionStore persists a session across process restarts.
type SessionStore interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// FileStore keeps the session as a JSON file. Concurrent writers are
// last-writer-wins, which is acceptable for a single-user CLI.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSessionPath is ~/.twin-dashboard/session.json.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".twin-dashboard", "session.json"), nil
}

func (s *FileStore) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt session file behaves like no session at all.
		return Session{}, nil
	}

	return sess, nil
}

func (s *FileStore) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryStore holds the session in memory only, for tests and one-shot use.
type MemoryStore struct {
	mu   sync.Mutex
	sess Session
}

func (s *MemoryStore) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess, nil
}

func (s *MemoryStore) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = sess
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = Session{}
	return nil
}

// Client talks to the dashboard API and manages the bearer session.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore

	mu   sync.RWMutex
	sess Session
}

// New restores any persisted session optimistically: the token is not
// verified against the server until the first request uses it.
func New(baseURL string, store SessionStore) (*Client, error) {
	if store == nil {
		store = &MemoryStore{}
	}

	sess, err := store.Load()
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
		sess:    sess,
	}, nil
}

func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess.AccessToken != ""
}

// CurrentUser returns the locally cached identity from login time. Use Me
// for a server-verified view.
func (c *Client) CurrentUser() (authapi.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess.User, c.sess.AccessToken != ""
}

// Login exchanges credentials for a token and persists the session. Any
// 401 surfaces as ErrInvalidCredentials with no further detail.
func (c *Client) Login(ctx context.Context, email string, password string) (authapi.User, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+authapi.PathToken, strings.NewReader(form.Encode()))
	if err != nil {
		return authapi.User{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return authapi.User{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return authapi.User{}, ErrInvalidCredentials
	default:
		return authapi.User{}, unexpectedStatus(resp)
	}

	var tokenResp authapi.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return authapi.User{}, fmt.Errorf("decode token response: %w", err)
	}

	sess := Session{
		AccessToken: tokenResp.AccessToken,
		User:        tokenResp.User,
		SavedAt:     time.Now(),
	}

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	if err := c.store.Save(sess); err != nil {
		return authapi.User{}, err
	}

	return tokenResp.User, nil
}

// Logout clears the session locally and synchronously. Tokens are not
// revocable server-side; dropping the token is the whole operation.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.sess = Session{}
	c.mu.Unlock()

	return c.store.Clear()
}

// Do sends an authenticated request. A 401 response clears the session and
// returns ErrSessionExpired; the caller must log in again, there is no
// automatic retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.mu.RLock()
	tok := c.sess.AccessToken
	c.mu.RUnlock()

	if tok == "" {
		return nil, ErrNotAuthenticated
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.mu.Lock()
		c.sess = Session{}
		c.mu.Unlock()
		if err := c.store.Clear(); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	return resp, nil
}

// GetJSON performs an authenticated GET of an API path and decodes the body.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any, wantStatus int) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return unexpectedStatus(resp)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Me fetches the server's view of the authenticated user and refreshes the
// cached identity.
func (c *Client) Me(ctx context.Context) (authapi.User, error) {
	var user authapi.User
	if err := c.GetJSON(ctx, authapi.PathMe, &user); err != nil {
		return authapi.User{}, err
	}

	c.mu.Lock()
	c.sess.User = user
	sess := c.sess
	c.mu.Unlock()

	if err := c.store.Save(sess); err != nil {
		return authapi.User{}, err
	}

	return user, nil
}

// Register creates an account. It does not log in; call Login afterwards.
func (c *Client) Register(ctx context.Context, reg authapi.RegisterRequest) (authapi.User, error) {
	payload, err := json.Marshal(reg)
	if err != nil {
		return authapi.User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+authapi.PathRegister, bytes.NewReader(payload))
	if err != nil {
		return authapi.User{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return authapi.User{}, fmt.Errorf("register request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return authapi.User{}, unexpectedStatus(resp)
	}

	var user authapi.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return authapi.User{}, fmt.Errorf("decode register response: %w", err)
	}

	return user, nil
}

// ChangePassword rotates the credential. The current token stays valid until
// expiry, so the session is kept.
func (c *Client) ChangePassword(ctx context.Context, current string, updated string) error {
	body := authapi.ChangePasswordRequest{CurrentPassword: current, NewPassword: updated}
	return c.postJSON(ctx, authapi.PathChangePassword, body, nil, http.StatusOK)
}

// Twins lists the twins visible to the authenticated user.
func (c *Client) Twins(ctx context.Context) ([]authapi.Twin, error) {
	var twins []authapi.Twin
	if err := c.GetJSON(ctx, authapi.PathTwins, &twins); err != nil {
		return nil, err
	}
	return twins, nil
}

func unexpectedStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errBody authapi.ErrorBody
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Detail != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, errBody.Detail)
	}

	return fmt.Errorf("server returned unexpected status %d", resp.StatusCode)
}
