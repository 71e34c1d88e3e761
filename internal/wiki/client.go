// Package wiki publishes pages and images to a MediaWiki installation
// through its action API.
package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrLoginFailed is returned when the wiki rejects the credentials.
	ErrLoginFailed = errors.New("wiki: login failed")
	// ErrAPI is returned when an action does not report success.
	ErrAPI = errors.New("wiki: api error")
)

const defaultTimeout = 30 * time.Second

// Config holds the wiki endpoint and bot credentials.
type Config struct {
	APIURL   string
	Username string
	// Password is a bot password, see Special:BotPasswords.
	Password  string
	UserAgent string
	Timeout   time.Duration
}

// Client keeps one authenticated session. It is not safe for concurrent use.
type Client struct {
	http   *http.Client
	logger *slog.Logger
	cfg    Config
}

// File is an upload attached to a page.
type File struct {
	Name string
	Data []byte
}

// Page is the content of one wiki page and its uploads.
type Page struct {
	Title   string
	Text    string
	Summary string
	Files   []File
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type tokensResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
			CSRFToken  string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type actionResult struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
}

type actionResponse struct {
	Error  *apiError     `json:"error"`
	Login  *actionResult `json:"login"`
	Edit   *actionResult `json:"edit"`
	Upload *actionResult `json:"upload"`
}

// New creates a client with its own cookie jar.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("wiki: api url is required")
	}
	if _, err := url.Parse(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("wiki: invalid api url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "webworld/1.0"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		http:   &http.Client{Jar: jar, Timeout: cfg.Timeout},
	}, nil
}

// Login fetches a login token and signs in with the configured bot credentials.
func (c *Client) Login(ctx context.Context) error {
	tokens, err := c.tokens(ctx, "login")
	if err != nil {
		return err
	}

	var resp actionResponse
	err = c.postForm(ctx, url.Values{
		"format":     {"json"},
		"action":     {"login"},
		"lgname":     {c.cfg.Username},
		"lgpassword": {c.cfg.Password},
		"lgtoken":    {tokens.Query.Tokens.LoginToken},
	}, &resp)
	if err != nil {
		return err
	}
	if resp.Login == nil || resp.Login.Result != "Success" {
		reason := "no login result"
		if resp.Login != nil {
			reason = resp.Login.Reason
		}
		return fmt.Errorf("%w: %s", ErrLoginFailed, reason)
	}

	c.log().Info("Logged in to wiki", "user", c.cfg.Username)
	return nil
}

// Edit replaces the text of a page. The session must be logged in.
func (c *Client) Edit(ctx context.Context, title, text, summary string) error {
	tokens, err := c.tokens(ctx, "")
	if err != nil {
		return err
	}

	var resp actionResponse
	err = c.postForm(ctx, url.Values{
		"format":  {"json"},
		"action":  {"edit"},
		"assert":  {"user"},
		"title":   {title},
		"text":    {text},
		"summary": {summary},
		"token":   {tokens.Query.Tokens.CSRFToken},
	}, &resp)
	if err != nil {
		return err
	}
	if err := checkResult("edit", resp.Edit); err != nil {
		return err
	}

	c.log().Info("Wrote wiki page", "title", title)
	return nil
}

// Upload stores data as File:filename, overwriting an existing file.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) error {
	tokens, err := c.tokens(ctx, "")
	if err != nil {
		return err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := [][2]string{
		{"format", "json"},
		{"action", "upload"},
		{"assert", "user"},
		{"filename", filename},
		{"ignorewarnings", "1"},
		{"token", tokens.Query.Tokens.CSRFToken},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", f[0], err)
		}
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var resp actionResponse
	if err := c.post(ctx, mw.FormDataContentType(), &body, &resp); err != nil {
		return err
	}
	if err := checkResult("upload", resp.Upload); err != nil {
		return err
	}

	c.log().Info("Uploaded file to wiki", "filename", filename, "bytes", len(data))
	return nil
}

// Publish logs in, writes the page and uploads its files in order.
func (c *Client) Publish(ctx context.Context, page Page) error {
	if err := c.Login(ctx); err != nil {
		return err
	}
	if err := c.Edit(ctx, page.Title, page.Text, page.Summary); err != nil {
		return fmt.Errorf("failed to edit %q: %w", page.Title, err)
	}
	for _, f := range page.Files {
		if err := c.Upload(ctx, f.Name, f.Data); err != nil {
			return fmt.Errorf("failed to upload %q: %w", f.Name, err)
		}
	}
	return nil
}

// tokens queries meta=tokens. An empty kind requests the csrf token.
func (c *Client) tokens(ctx context.Context, kind string) (*tokensResponse, error) {
	q := url.Values{
		"format": {"json"},
		"action": {"query"},
		"meta":   {"tokens"},
	}
	if kind != "" {
		q.Set("type", kind)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	var resp tokensResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrAPI, resp.Error.Code, resp.Error.Info)
	}
	return &resp, nil
}

func (c *Client) postForm(ctx context.Context, form url.Values, out *actionResponse) error {
	return c.post(ctx, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

func (c *Client) post(ctx context.Context, contentType string, body io.Reader, out *actionResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	if err := c.do(req, out); err != nil {
		return err
	}
	if out.Error != nil {
		return fmt.Errorf("%w: %s: %s", ErrAPI, out.Error.Code, out.Error.Info)
	}
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wiki request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("wiki returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode wiki response: %w", err)
	}
	return nil
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

func checkResult(action string, r *actionResult) error {
	if r == nil {
		return fmt.Errorf("%w: %s returned no result", ErrAPI, action)
	}
	if r.Result != "Success" {
		return fmt.Errorf("%w: %s result %q", ErrAPI, action, r.Result)
	}
	return nil
}
