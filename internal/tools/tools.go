// Package tools is the tool-invocation boundary: it decodes named
// operations with JSON argument payloads into typed requests, runs them
// against the publisher and WordPress client, and renders the outcome as
// text blocks. Untyped maps stop here; everything below this package works
// with concrete types.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"pressbridge/internal/history"
	"pressbridge/internal/markdown"
	"pressbridge/internal/publisher"
	"pressbridge/internal/sites"
	"pressbridge/internal/wp"
)

// ErrUnknownOperation is returned for operation names no tool answers to.
var ErrUnknownOperation = errors.New("tools: unknown operation")

// ErrInvalidRequest wraps argument validation failures so the transport
// can map them to a client error.
var ErrInvalidRequest = errors.New("tools: invalid request")

// TextBlock is one unit of user-facing output.
type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func text(s string) TextBlock {
	return TextBlock{Type: "text", Text: s}
}

// ArticleRequest is the argument payload for the article-creation tools.
// Content is HTML by default; markdown=true converts it before publishing.
type ArticleRequest struct {
	SiteID        string   `json:"site_id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Markdown      bool     `json:"markdown"`
	Excerpt       string   `json:"excerpt"`
	Status        string   `json:"status"`
	Categories    []string `json:"categories"`
	Tags          []string `json:"tags"`
	GenerateImage bool     `json:"generate_image"`
}

func (r ArticleRequest) validate() error {
	if r.SiteID == "" {
		return fmt.Errorf("%w: site_id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidRequest)
	}
	return nil
}

// draft converts the request into a publisher draft, rendering Markdown
// content to HTML when requested.
func (r ArticleRequest) draft() (publisher.Draft, error) {
	content := r.Content
	if r.Markdown {
		html, err := markdown.ToHTML(content)
		if err != nil {
			return publisher.Draft{}, fmt.Errorf("%w: markdown: %v", ErrInvalidRequest, err)
		}
		content = html
	}
	return publisher.Draft{
		Title:      r.Title,
		Content:    content,
		Status:     r.Status,
		Excerpt:    r.Excerpt,
		Categories: r.Categories,
		Tags:       r.Tags,
	}, nil
}

// SiteRequest is the argument payload for the per-site lookup tools.
type SiteRequest struct {
	SiteID string `json:"site_id"`
}

func (r SiteRequest) validate() error {
	if r.SiteID == "" {
		return fmt.Errorf("%w: site_id is required", ErrInvalidRequest)
	}
	return nil
}

// BulkRequest is the argument payload for create_bulk_articles.
type BulkRequest struct {
	Articles []ArticleRequest `json:"articles"`
}

// Dispatcher routes named operations to their implementations.
type Dispatcher struct {
	registry *sites.Registry
	wp       *wp.Client
	pub      *publisher.Publisher
	log      *history.Log
}

// NewDispatcher wires the dispatcher. log may be nil (history disabled).
func NewDispatcher(registry *sites.Registry, wpClient *wp.Client, pub *publisher.Publisher, log *history.Log) *Dispatcher {
	return &Dispatcher{registry: registry, wp: wpClient, pub: pub, log: log}
}

// Dispatch runs one named operation. Argument decoding and validation
// failures come back as errors wrapping ErrInvalidRequest; domain failures
// are rendered into the text blocks themselves.
func (d *Dispatcher) Dispatch(ctx context.Context, op string, args json.RawMessage) ([]TextBlock, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch op {
	case "list_sites":
		return d.listSites(), nil
	case "create_article":
		var req ArticleRequest
		if err := decode(args, &req); err != nil {
			return nil, err
		}
		return d.createArticle(ctx, req, req.GenerateImage, false)
	case "create_article_with_image":
		var req ArticleRequest
		if err := decode(args, &req); err != nil {
			return nil, err
		}
		return d.createArticle(ctx, req, true, true)
	case "create_bulk_articles":
		var req BulkRequest
		if err := decode(args, &req); err != nil {
			return nil, err
		}
		return d.createBulk(ctx, req)
	case "test_connection":
		var req SiteRequest
		if err := decode(args, &req); err != nil {
			return nil, err
		}
		return d.testConnection(ctx, req)
	case "get_categories":
		var req SiteRequest
		if err := decode(args, &req); err != nil {
			return nil, err
		}
		return d.listTerms(ctx, req, wp.Categories)
	case "get_tags":
		var req SiteRequest
		if err := decode(args, &req); err != nil {
			return nil, err
		}
		return d.listTerms(ctx, req, wp.Tags)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
}

func decode(args json.RawMessage, into interface{ validate() error }) error {
	if err := json.Unmarshal(args, into); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return into.validate()
}

func (r BulkRequest) validate() error {
	if len(r.Articles) == 0 {
		return fmt.Errorf("%w: articles must not be empty", ErrInvalidRequest)
	}
	for i, a := range r.Articles {
		if err := a.validate(); err != nil {
			return fmt.Errorf("article %d: %w", i+1, err)
		}
	}
	return nil
}

func (d *Dispatcher) listSites() []TextBlock {
	var b strings.Builder
	b.WriteString("Configured WordPress sites:\n")
	for _, s := range d.registry.List() {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", s.ID, s.Name, s.URL)
	}
	return []TextBlock{text(b.String())}
}

// createArticle implements both article tools. imageRequired marks the
// image-dedicated tool path, which tells the caller explicitly when
// generation was requested but cannot run.
func (d *Dispatcher) createArticle(ctx context.Context, req ArticleRequest, generateImage, imageRequired bool) ([]TextBlock, error) {
	draft, err := req.draft()
	if err != nil {
		return nil, err
	}

	result := d.pub.CreateArticleWithImage(ctx, req.SiteID, draft, generateImage)
	d.record(ctx, req, result)

	blocks := []TextBlock{text(renderResult(req.Title, result))}
	if imageRequired && !d.pub.ImageGenerationAvailable() {
		blocks = append(blocks, text("Note: image generation is not available. Set OPENAI_API_KEY to enable featured images."))
	}
	return blocks, nil
}

func (d *Dispatcher) createBulk(ctx context.Context, req BulkRequest) ([]TextBlock, error) {
	items := make([]publisher.BulkItem, 0, len(req.Articles))
	for i, a := range req.Articles {
		draft, err := a.draft()
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", i+1, err)
		}
		items = append(items, publisher.BulkItem{SiteID: a.SiteID, Draft: draft})
	}
	results := d.pub.CreateBulk(ctx, items)

	var b strings.Builder
	created := 0
	for i, r := range results {
		d.record(ctx, req.Articles[i], r)
		if r.Success {
			created++
			fmt.Fprintf(&b, "[ok] %s: %s (%s)\n", req.Articles[i].Title, r.Message, r.URL)
		} else {
			fmt.Fprintf(&b, "[failed] %s: %s\n", req.Articles[i].Title, r.Message)
		}
	}
	fmt.Fprintf(&b, "Created %d of %d articles.", created, len(results))
	return []TextBlock{text(b.String())}, nil
}

func (d *Dispatcher) testConnection(ctx context.Context, req SiteRequest) ([]TextBlock, error) {
	site, ok := d.registry.Lookup(req.SiteID)
	if !ok {
		return []TextBlock{text(fmt.Sprintf("Site with ID %s not found", req.SiteID))}, nil
	}

	user, err := d.wp.TestConnection(ctx, site)
	if err != nil {
		result := publisher.Result{Message: err.Error()}
		if apiErr, isAPI := wp.AsAPIError(err); isAPI {
			result.StatusCode = apiErr.StatusCode
		}
		diag := publisher.Diagnose(result)
		return []TextBlock{text(fmt.Sprintf(
			"Connection to %s failed: %v\nLikely cause: %s\nSuggested fix: %s",
			site.Name, err, diag.Problem, diag.Solution))}, nil
	}
	return []TextBlock{text(fmt.Sprintf(
		"Connection to %s successful. Authenticated as %s (user ID %d).",
		site.Name, user.Name, user.ID))}, nil
}

func (d *Dispatcher) listTerms(ctx context.Context, req SiteRequest, kind wp.TermKind) ([]TextBlock, error) {
	site, ok := d.registry.Lookup(req.SiteID)
	if !ok {
		return []TextBlock{text(fmt.Sprintf("Site with ID %s not found", req.SiteID))}, nil
	}

	terms, err := d.wp.ListTerms(ctx, site, kind)
	if err != nil {
		return []TextBlock{text(fmt.Sprintf("Error fetching %s from %s: %v", kind, site.Name, err))}, nil
	}
	if len(terms) == 0 {
		return []TextBlock{text(fmt.Sprintf("No %s found on %s.", kind, site.Name))}, nil
	}

	label := string(kind)
	label = strings.ToUpper(label[:1]) + label[1:]

	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s:\n", label, site.Name)
	for _, t := range terms {
		fmt.Fprintf(&b, "- %s (ID %d, slug %s, %d posts)\n", t.Name, t.ID, t.Slug, t.Count)
	}
	return []TextBlock{text(b.String())}, nil
}

// renderResult turns a publish outcome into user-facing text, attaching
// the failure diagnosis when the attempt failed.
func renderResult(title string, r publisher.Result) string {
	if r.Success {
		s := fmt.Sprintf("%s\nTitle: %s\nPost ID: %d", r.Message, title, r.PostID)
		if r.URL != "" {
			s += "\nURL: " + r.URL
		}
		return s
	}

	diag := publisher.Diagnose(r)
	return fmt.Sprintf("%s\nLikely cause: %s\nSuggested fix: %s", r.Message, diag.Problem, diag.Solution)
}

func (d *Dispatcher) record(ctx context.Context, req ArticleRequest, r publisher.Result) {
	err := d.log.Record(ctx, history.Entry{
		SiteID:   req.SiteID,
		SiteName: r.SiteName,
		Title:    req.Title,
		PostID:   r.PostID,
		URL:      r.URL,
		Success:  r.Success,
		Message:  r.Message,
	})
	if err != nil {
		slog.Error("history record failed", "error", err)
	}
}
