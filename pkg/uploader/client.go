package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"bitwise74/bucket-panel/pkg/explorer"
	"bitwise74/bucket-panel/pkg/security"
)

// APIError is a non 2xx answer from the panel. Message is the server's error
// text, or the raw body when it wasn't JSON.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type PresignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Prefix      string `json:"prefix,omitempty"`
	Size        int64  `json:"size"`
}

type PresignResponse struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Key       string            `json:"key"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Headers   map[string]string `json:"headers"`
	PublicURL string            `json:"publicUrl"`
	CDNURL    string            `json:"cdnUrl"`
}

type ListResponse struct {
	Files         []explorer.File         `json:"files"`
	Stats         explorer.Stats          `json:"stats"`
	RecentUploads []explorer.RecentUpload `json:"recentUploads"`
	Explorer      *explorer.View          `json:"explorer"`
}

// Client talks to the panel API with the session cookie
type Client struct {
	base *url.URL
	HTTP *http.Client
}

// NewClient creates a client for the panel at baseURL. A non empty session
// is sent as the session cookie.
func NewClient(baseURL, session string) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url, %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	if session != "" {
		jar.SetCookies(u, []*http.Cookie{{Name: security.SessionCookie, Value: session, Path: "/"}})
	}

	return &Client{
		base: u,
		HTTP: &http.Client{Jar: jar, Timeout: time.Minute},
	}, nil
}

// Session returns the current session token, if any
func (c *Client) Session() string {
	for _, ck := range c.HTTP.Jar.Cookies(c.base) {
		if ck.Name == security.SessionCookie {
			return ck.Value
		}
	}

	return ""
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}

		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, r)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response, %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return responseError(res.StatusCode, data)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response, %w", err)
	}

	return nil
}

func responseError(status int, body []byte) *APIError {
	var e struct {
		Error string `json:"error"`
	}

	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	if msg == "" {
		msg = http.StatusText(status)
	}

	return &APIError{Status: status, Message: msg}
}

// Login authenticates and keeps the session cookie in the client
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
}

func (c *Client) Presign(ctx context.Context, req PresignRequest) (*PresignResponse, error) {
	var res PresignResponse
	if err := c.do(ctx, http.MethodPost, "/api/files/presign", req, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// List returns the bucket listing. When prefix or search is set the folder
// view is included.
func (c *Client) List(ctx context.Context, prefix, search string) (*ListResponse, error) {
	q := url.Values{}
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	if search != "" {
		q.Set("search", search)
	}

	path := "/api/files"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res ListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}

	return &res, nil
}
