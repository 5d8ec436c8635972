package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ErrNotSignedIn gates every remote operation.
var ErrNotSignedIn = errors.New("not signed in")

// ErrConflict surfaces a remote uniqueness violation (e.g. duplicate label
// name) instead of silently merging.
var ErrConflict = errors.New("remote constraint conflict")

// Credentials is the sync account config persisted at
// ~/.focusgarden/sync.json, separate from the main yaml config.
type Credentials struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
}

// Client talks to the sync server's row-store API and implements
// RemoteStore.
type Client struct {
	creds      *Credentials
	credsPath  string
	httpClient *http.Client
}

// NewClient loads credentials from the default path.
func NewClient() (*Client, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	c := &Client{
		credsPath:  filepath.Join(home, ".focusgarden", "sync.json"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	c.loadCreds()
	return c, nil
}

func (c *Client) loadCreds() {
	data, err := os.ReadFile(c.credsPath)
	if err != nil {
		c.creds = &Credentials{ServerURL: "http://localhost:8080"}
		return
	}
	c.creds = &Credentials{}
	if err := json.Unmarshal(data, c.creds); err != nil {
		c.creds = &Credentials{ServerURL: "http://localhost:8080"}
	}
	if c.creds.ServerURL == "" {
		c.creds.ServerURL = "http://localhost:8080"
	}
}

func (c *Client) saveCreds() error {
	if err := os.MkdirAll(filepath.Dir(c.credsPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.credsPath, data, 0600)
}

// SetServer sets the sync server URL.
func (c *Client) SetServer(url string) error {
	c.creds.ServerURL = url
	return c.saveCreds()
}

// SignedIn reports whether a remote identity exists.
func (c *Client) SignedIn() bool {
	return c.creds.Token != ""
}

// Status returns server URL and user id.
func (c *Client) Status() (string, string) {
	return c.creds.ServerURL, c.creds.UserID
}

// Register creates an account and stores the session token.
func (c *Client) Register(username, email, password string) error {
	return c.authenticate("/api/v1/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
}

// Login authenticates and stores the session token.
func (c *Client) Login(username, password string) error {
	return c.authenticate("/api/v1/login", map[string]string{
		"username": username,
		"password": password,
	})
}

func (c *Client) authenticate(path string, payload map[string]string) error {
	body, _ := json.Marshal(payload)
	resp, err := c.httpClient.Post(c.creds.ServerURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth failed: %s", string(respBody))
	}

	var result struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}
	c.creds.Token = result.Token
	c.creds.UserID = result.UserID
	return c.saveCreds()
}

// Logout clears the stored session.
func (c *Client) Logout() error {
	req, _ := http.NewRequest(http.MethodPost, c.creds.ServerURL+"/api/v1/logout", nil)
	req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	if resp, err := c.httpClient.Do(req); err == nil {
		resp.Body.Close()
	}
	c.creds.Token = ""
	c.creds.UserID = ""
	return c.saveCreds()
}

// do issues an authenticated JSON request and decodes into out (when
// non-nil). Conflict responses map to ErrConflict.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	if !c.SignedIn() {
		return ErrNotSignedIn
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.ServerURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", ErrConflict, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// FetchProfile returns the remote profile row, or nil when none exists.
func (c *Client) FetchProfile(ctx context.Context) (*ProfileRow, error) {
	var out struct {
		Profile *ProfileRow `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, &out); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

// FetchLabels returns all remote label rows for the current user.
func (c *Client) FetchLabels(ctx context.Context) ([]LabelRow, error) {
	var out struct {
		Labels []LabelRow `json:"labels"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/labels", nil, &out); err != nil {
		return nil, err
	}
	return out.Labels, nil
}

// FetchSessions returns all remote session rows for the current user.
func (c *Client) FetchSessions(ctx context.Context) ([]SessionRow, error) {
	var out struct {
		Sessions []SessionRow `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions", nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// UpsertProfile writes the profile row (conflict key: user).
func (c *Client) UpsertProfile(ctx context.Context, row ProfileRow) error {
	return c.do(ctx, http.MethodPut, "/api/v1/profile", row, nil)
}

// UpsertLabels writes label rows (conflict key: user + local id).
func (c *Client) UpsertLabels(ctx context.Context, rows []LabelRow) error {
	payload := map[string]interface{}{"labels": rows}
	return c.do(ctx, http.MethodPost, "/api/v1/labels", payload, nil)
}

// UpsertSessions writes session rows (conflict key: user + client id).
func (c *Client) UpsertSessions(ctx context.Context, rows []SessionRow) error {
	payload := map[string]interface{}{"sessions": rows}
	return c.do(ctx, http.MethodPost, "/api/v1/sessions", payload, nil)
}

// DeleteLabels bulk-deletes remote label rows by local id.
func (c *Client) DeleteLabels(ctx context.Context, localIDs []string) error {
	payload := map[string]interface{}{"ids": localIDs}
	return c.do(ctx, http.MethodPost, "/api/v1/labels/delete", payload, nil)
}

// DeleteSessions bulk-deletes remote session rows by client id.
func (c *Client) DeleteSessions(ctx context.Context, clientIDs []string) error {
	payload := map[string]interface{}{"ids": clientIDs}
	return c.do(ctx, http.MethodPost, "/api/v1/sessions/delete", payload, nil)
}
