// Package imagegen wraps the OpenAI image generation API
// (POST /v1/images/generations) and turns the result into a locally
// stored temporary file with a deterministic short filename.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pressbridge/internal/sanitize"
)

// ErrUnavailable is returned by GenerateAndDownload when the generator was
// constructed without an API key. No network I/O is attempted in that case.
var ErrUnavailable = errors.New("imagegen: image generation not available (no OpenAI API key)")

// Config holds the credentials and settings for the image generator.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	// DownloadTimeout bounds both the provider call and the image download.
	DownloadTimeout time.Duration

	// TempDir is the root for per-invocation artifact directories.
	// Defaults to the OS temp dir.
	TempDir string
}

// Artifact describes one generated image stored on local disk. The local
// file is exclusively owned by the orchestration that requested it and
// must be released with Cleanup when the orchestration ends.
type Artifact struct {
	SourceURL  string // remote URL returned by the provider
	LocalPath  string // downloaded file on local disk
	Filename   string // derived short filename
	Title      string // original article title
	ShortTitle string // cleaned title for upload metadata
}

// Generator is the image generation client. Constructed once at startup;
// safe for concurrent use.
type Generator struct {
	cfg    Config
	client *http.Client
}

// New creates an image generator. An empty API key yields a generator
// that reports itself unavailable instead of failing.
func New(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "dall-e-3"
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Generator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.DownloadTimeout},
	}
}

// Available reports whether image generation can be attempted at all.
func (g *Generator) Available() bool {
	return g.cfg.APIKey != ""
}

// buildPrompt creates the fixed-style generation prompt from the article
// title. The content is tag-stripped alongside but the prompt deliberately
// centres on the title.
func buildPrompt(title, content string) string {
	cleanTitle := sanitize.Clean(title)
	_ = sanitize.Clean(content)

	return fmt.Sprintf(`Create a professional, high-quality image for an article titled %q.

The image should be:
- Clean and modern
- Relevant to the topic
- Suitable for a blog article
- Professional looking
- Without any text overlays

Style: Modern, clean, professional illustration or photography`, cleanTitle)
}

// GenerateAndDownload requests one square image for the article and
// downloads it into a fresh per-invocation temp directory. Provider and
// download failures are returned as errors, never panics; the caller is
// expected to treat any error as "publish without an image".
func (g *Generator) GenerateAndDownload(ctx context.Context, title, content string) (*Artifact, error) {
	if !g.Available() {
		return nil, ErrUnavailable
	}

	imageURL, err := g.requestImage(ctx, buildPrompt(title, content))
	if err != nil {
		return nil, err
	}
	slog.Info("image generated", "url", imageURL)

	filename := DeriveFilename(title)

	// Each invocation gets its own directory so simultaneous requests for
	// identically titled articles can never collide on the filename.
	dir := filepath.Join(g.cfg.TempDir, "pressbridge-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("imagegen: create temp dir: %w", err)
	}
	localPath := filepath.Join(dir, filename)

	if err := g.download(ctx, imageURL, localPath); err != nil {
		os.Remove(dir)
		return nil, err
	}
	slog.Info("image downloaded", "path", localPath)

	return &Artifact{
		SourceURL:  imageURL,
		LocalPath:  localPath,
		Filename:   filename,
		Title:      title,
		ShortTitle: ShortTitle(title),
	}, nil
}

// requestImage calls the images endpoint and returns the remote URL of the
// single generated image.
func (g *Generator) requestImage(ctx context.Context, prompt string) (string, error) {
	body := imageRequest{
		Model:   g.cfg.Model,
		Prompt:  prompt,
		Size:    "1024x1024",
		Quality: "standard",
		N:       1,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("imagegen marshal: %w", err)
	}

	url := g.cfg.BaseURL + "/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("imagegen request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagegen http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("imagegen read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result imageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("imagegen unmarshal: %w", err)
	}

	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", fmt.Errorf("imagegen: no image returned")
	}
	return result.Data[0].URL, nil
}

// download fetches the image bytes over plain HTTP and writes them to path.
func (g *Generator) download(ctx context.Context, imageURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("imagegen download request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("imagegen download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("imagegen download: unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imagegen write: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return fmt.Errorf("imagegen write: %w", err)
	}
	return nil
}

// Cleanup deletes a previously downloaded artifact file and its invocation
// directory. A missing file is not an error; it reports false.
func (g *Generator) Cleanup(path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		slog.Error("temp file cleanup failed", "path", path, "error", err)
		return false
	}
	// Remove the per-invocation directory too; fails silently if non-empty.
	os.Remove(filepath.Dir(path))
	slog.Info("temp file cleaned up", "path", path)
	return true
}

// --- OpenAI images API types ---

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

type imageResponse struct {
	Data []imageDatum `json:"data"`
}

type imageDatum struct {
	URL string `json:"url"`
}
