package media

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// contentRepo is the part of *contentapi.Client the GitHub backend uses.
type contentRepo interface {
	Put(ctx context.Context, path string, content []byte, sha, message string) (string, error)
	RawURL(path string) string
}

// GitHubBlobs commits each photo into the content repository and serves it
// from the raw download host.
type GitHubBlobs struct {
	repo contentRepo
}

func NewGitHubBlobs(repo contentRepo) *GitHubBlobs {
	return &GitHubBlobs{repo: repo}
}

func (g *GitHubBlobs) Put(ctx context.Context, obj Object) (string, error) {
	if _, err := g.repo.Put(ctx, obj.Path, obj.File.Data, "", "Add photo: "+displayName(obj.File.Name)); err != nil {
		return "", fmt.Errorf("media.GitHubBlobs.Put: %w", err)
	}
	return g.repo.RawURL(obj.Path), nil
}

// DefaultImgurURL is the image hosting API base.
const DefaultImgurURL = "https://api.imgur.com"

// ImgurBlobs posts photos to an anonymous image host.
type ImgurBlobs struct {
	client *resty.Client
}

type imgurResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Link  string `json:"link"`
		Error any    `json:"error"`
	} `json:"data"`
}

func NewImgurBlobs(baseURL, clientID string, timeout time.Duration) *ImgurBlobs {
	if baseURL == "" {
		baseURL = DefaultImgurURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Authorization", "Client-ID "+clientID)
	return &ImgurBlobs{client: cli}
}

func (m *ImgurBlobs) Put(ctx context.Context, obj Object) (string, error) {
	desc := "Uploaded for Big Mountain Club trip"
	if obj.OwnerID != "" {
		desc += " (" + obj.OwnerID + ")"
	}

	var out imgurResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetFileReader("image", displayName(obj.File.Name), bytes.NewReader(obj.File.Data)).
		SetFormData(map[string]string{
			"type":        "file",
			"title":       "BMC Trip Photo - " + displayName(obj.File.Name),
			"description": desc,
		}).
		SetResult(&out).
		Post("/3/image")
	if err != nil {
		return "", fmt.Errorf("media.ImgurBlobs.Put: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("media.ImgurBlobs.Put: http %d", resp.StatusCode())
	}
	if !out.Success || out.Data.Link == "" {
		return "", fmt.Errorf("media.ImgurBlobs.Put: upload rejected: %v", out.Data.Error)
	}
	return out.Data.Link, nil
}

// LocalBlobs writes photos under a directory served by this API.
type LocalBlobs struct {
	dir     string
	baseURL string
}

// NewLocalBlobs stores files under dir; returned URLs are baseURL + "/" + path.
func NewLocalBlobs(dir, baseURL string) *LocalBlobs {
	return &LocalBlobs{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *LocalBlobs) Put(_ context.Context, obj Object) (string, error) {
	full := filepath.Join(l.dir, filepath.FromSlash(obj.Path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("media.LocalBlobs.Put: %w", err)
	}
	if err := os.WriteFile(full, obj.File.Data, 0o644); err != nil {
		return "", fmt.Errorf("media.LocalBlobs.Put: %w", err)
	}
	return l.baseURL + "/" + obj.Path, nil
}
