// Package contentapi talks to a hosting provider's repository contents API
// (GitHub's /repos/{owner}/{repo}/contents/{path}). It reads a file together
// with its content SHA and writes a new revision conditioned on that SHA.
package contentapi

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/teeck111/bmc/internal/domain"
)

// ErrFileNotFound is returned by Get when the path does not exist yet.
var ErrFileNotFound = errors.New("content file not found")

const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultRawBaseURL = "https://raw.githubusercontent.com"
	DefaultBranch     = "master"
)

// Config describes one repository.
type Config struct {
	BaseURL    string
	RawBaseURL string
	Owner      string
	Repo       string
	Branch     string
	Token      string
	Timeout    time.Duration
}

// File is a decoded file plus the SHA that must accompany the next write.
type File struct {
	Content []byte
	SHA     string
}

// Client is safe for concurrent use.
type Client struct {
	http   *resty.Client
	cfg    Config
	prefix string
}

// New builds a Client. When cfg.Token is set every request carries it as a
// bearer token through an oauth2 transport.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RawBaseURL == "" {
		cfg.RawBaseURL = DefaultRawBaseURL
	}
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	var cli *resty.Client
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		cli = resty.NewWithClient(oauth2.NewClient(context.Background(), src))
	} else {
		cli = resty.New()
	}
	cli.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/vnd.github+json")

	return &Client{
		http:   cli,
		cfg:    cfg,
		prefix: fmt.Sprintf("/repos/%s/%s/contents/", cfg.Owner, cfg.Repo),
	}
}

type getResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA  string `json:"sha"`
		Path string `json:"path"`
	} `json:"content"`
}

// Get reads path at the configured branch.
func (c *Client) Get(ctx context.Context, path string) (File, error) {
	var out getResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ref", c.cfg.Branch).
		SetResult(&out).
		Get(c.prefix + strings.TrimLeft(path, "/"))
	if err != nil {
		return File{}, fmt.Errorf("contentapi.Client.Get: %w: %v", domain.ErrUnavailable, err)
	}
	if err := mapHTTPError(resp); err != nil {
		return File{}, fmt.Errorf("contentapi.Client.Get: %w", err)
	}

	// The API wraps base64 at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(out.Content, "\n", ""))
	if err != nil {
		return File{}, fmt.Errorf("contentapi.Client.Get: decode content: %w", err)
	}
	return File{Content: raw, SHA: out.SHA}, nil
}

// Put writes content to path as a new commit. sha must be the token from the
// last Get, or empty when creating the file. A stale sha yields
// domain.ErrConflict. It returns the new SHA.
func (c *Client) Put(ctx context.Context, path string, content []byte, sha, message string) (string, error) {
	var out putResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(putRequest{
			Message: message,
			Content: base64.StdEncoding.EncodeToString(content),
			SHA:     sha,
			Branch:  c.cfg.Branch,
		}).
		SetResult(&out).
		Put(c.prefix + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("contentapi.Client.Put: %w: %v", domain.ErrUnavailable, err)
	}
	if err := mapHTTPError(resp); err != nil {
		return "", fmt.Errorf("contentapi.Client.Put: %w", err)
	}
	return out.Content.SHA, nil
}

// RawURL is the public download URL of path on the configured branch.
func (c *Client) RawURL(path string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		strings.TrimRight(c.cfg.RawBaseURL, "/"), c.cfg.Owner, c.cfg.Repo, c.cfg.Branch, strings.TrimLeft(path, "/"))
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return ErrFileNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, body)
	// 409 on a stale sha, 422 when a sha is missing for an existing file.
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrConflict, body)
	default:
		if body == "" {
			body = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("%w: http %d: %s", domain.ErrUnavailable, resp.StatusCode(), body)
	}
}
