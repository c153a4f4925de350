// Package publisher creates WordPress articles, resolving taxonomy terms
// and optionally running the article-with-image orchestration: generate an
// image, upload it, verify it, attach it as the featured image, and clean
// up the local artifact no matter how the attempt ends.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"pressbridge/internal/imagegen"
	"pressbridge/internal/sites"
	"pressbridge/internal/wp"
)

// Draft is the caller-supplied article content. Constructed per request
// and consumed once.
type Draft struct {
	Title      string
	Content    string
	Status     string // "draft", "publish", "private"; empty uses the default
	Excerpt    string
	Categories []string
	Tags       []string
}

// Result is the terminal outcome of one article creation. StatusCode
// carries the remote status for failed API calls (0 otherwise) so callers
// can classify failures without parsing the message.
type Result struct {
	Success    bool
	Message    string
	SiteName   string
	PostID     int
	URL        string
	StatusCode int
}

// BulkItem is one entry of a bulk creation request.
type BulkItem struct {
	SiteID string
	Draft  Draft
}

// Publisher holds the dependencies for article creation. All dependencies
// are injected at construction; there is no ambient global state.
type Publisher struct {
	registry      *sites.Registry
	wp            *wp.Client
	gen           *imagegen.Generator
	defaultStatus string
	defaultFormat string
}

// New creates a Publisher.
func New(registry *sites.Registry, wpClient *wp.Client, gen *imagegen.Generator, defaultStatus, defaultFormat string) *Publisher {
	if defaultStatus == "" {
		defaultStatus = "draft"
	}
	if defaultFormat == "" {
		defaultFormat = "standard"
	}
	return &Publisher{
		registry:      registry,
		wp:            wpClient,
		gen:           gen,
		defaultStatus: defaultStatus,
		defaultFormat: defaultFormat,
	}
}

// ImageGenerationAvailable reports whether the image side-channel can be
// used at all (an API key was configured).
func (p *Publisher) ImageGenerationAvailable() bool {
	return p.gen != nil && p.gen.Available()
}

// CreateArticle creates a post without any image pipeline involvement.
// featuredID, when positive, is attached as the featured image; zero means
// none and negative values are dropped with a warning. Failures come back
// as a Result, never as an error.
func (p *Publisher) CreateArticle(ctx context.Context, siteID string, draft Draft, featuredID int) Result {
	site, ok := p.registry.Lookup(siteID)
	if !ok {
		return Result{
			Success:  false,
			Message:  fmt.Sprintf("Site with ID %s not found", siteID),
			SiteName: "Unknown",
		}
	}

	payload := wp.PostPayload{
		Title:   draft.Title,
		Content: draft.Content,
		Status:  draft.Status,
		Excerpt: draft.Excerpt,
		Format:  p.defaultFormat,
	}
	if payload.Status == "" {
		payload.Status = p.defaultStatus
	}

	if featuredID > 0 {
		payload.FeaturedMedia = featuredID
		slog.Info("setting featured image on article", "media_id", featuredID)
	} else if featuredID < 0 {
		slog.Warn("invalid featured image id dropped", "media_id", featuredID)
	}

	// An empty resolution list means "omit the field": sending an empty
	// taxonomy array would clear terms rather than leave them unset.
	if len(draft.Categories) > 0 {
		if ids := p.wp.ResolveTerms(ctx, site, wp.Categories, draft.Categories); len(ids) > 0 {
			payload.Categories = ids
		}
	}
	if len(draft.Tags) > 0 {
		if ids := p.wp.ResolveTerms(ctx, site, wp.Tags, draft.Tags); len(ids) > 0 {
			payload.Tags = ids
		}
	}

	post, err := p.wp.CreatePost(ctx, site, payload)
	if err != nil {
		slog.Error("article creation failed", "site", site.Name, "error", err)
		result := Result{
			Success:  false,
			Message:  "Error creating article: " + err.Error(),
			SiteName: site.Name,
		}
		if apiErr, ok := wp.AsAPIError(err); ok {
			result.StatusCode = apiErr.StatusCode
		}
		return result
	}

	slog.Info("article created", "site", site.Name, "post_id", post.ID)
	return Result{
		Success:  true,
		Message:  fmt.Sprintf("Article created successfully on %s", site.Name),
		SiteName: site.Name,
		PostID:   post.ID,
		URL:      post.Link,
	}
}

// CreateArticleWithImage runs the full orchestration. The image pipeline
// is best-effort: any failure in generation, upload, or verification
// degrades to creating the article without a featured image. A failure of
// the article creation itself is the only overall failure. The temporary
// image file, if one was created, is deleted on every exit path.
func (p *Publisher) CreateArticleWithImage(ctx context.Context, siteID string, draft Draft, generateImage bool) Result {
	featuredID := 0
	var artifact *imagegen.Artifact
	defer func() {
		if artifact != nil {
			p.gen.Cleanup(artifact.LocalPath)
		}
	}()

	site, siteKnown := p.registry.Lookup(siteID)

	switch {
	case !generateImage:
		slog.Info("no image generation requested")
	case !p.ImageGenerationAvailable():
		slog.Warn("image generation requested but generator unavailable")
	case !siteKnown:
		// CreateArticle below reports the unknown site; no point generating.
	default:
		artifact, featuredID = p.prepareFeaturedImage(ctx, site, draft)
	}

	result := p.CreateArticle(ctx, siteID, draft, featuredID)

	if featuredID > 0 && result.Success && result.PostID > 0 {
		p.verifyFeaturedImage(ctx, site, result.PostID, featuredID)
		result.Message += fmt.Sprintf(" with featured image (ID: %d)", featuredID)
	}
	return result
}

// prepareFeaturedImage runs generation, upload, and the media existence
// check. It returns the artifact (for cleanup by the caller) and the
// verified media id, or 0 when any step failed.
func (p *Publisher) prepareFeaturedImage(ctx context.Context, site sites.Site, draft Draft) (*imagegen.Artifact, int) {
	slog.Info("starting image generation", "title", draft.Title, "site", site.Name)

	artifact, err := p.gen.GenerateAndDownload(ctx, draft.Title, draft.Content)
	if err != nil {
		slog.Error("image generation failed", "error", err)
		return nil, 0
	}

	media, err := p.wp.UploadMedia(ctx, site, artifact.LocalPath, artifact.ShortTitle, artifact.ShortTitle)
	if err != nil {
		slog.Error("image upload failed", "site", site.Name, "error", err)
		return artifact, 0
	}
	slog.Info("image uploaded", "media_id", media.ID, "url", media.SourceURL)

	// Guard against propagation delay between upload and use: only a
	// confirmed media item becomes the featured-image candidate.
	if _, err := p.wp.GetMedia(ctx, site, media.ID); err != nil {
		slog.Warn("uploaded image not found in media library, dropping featured image", "media_id", media.ID, "error", err)
		return artifact, 0
	}
	slog.Info("image verified in media library", "media_id", media.ID)
	return artifact, media.ID
}

// verifyFeaturedImage re-fetches the created post and, when the featured
// image did not take effect, issues exactly one corrective update. The
// outcome is logged either way; a post without its featured image is still
// a success — article existence matters more than decorative media.
func (p *Publisher) verifyFeaturedImage(ctx context.Context, site sites.Site, postID, mediaID int) {
	post, err := p.wp.GetPost(ctx, site, postID)
	if err != nil {
		slog.Error("featured image check failed", "post_id", postID, "error", err)
		return
	}
	if post.FeaturedMedia == mediaID {
		slog.Info("featured image set correctly", "post_id", postID, "media_id", mediaID)
		return
	}

	slog.Warn("featured image not set, retrying once", "post_id", postID, "media_id", mediaID, "got", post.FeaturedMedia)
	updated, err := p.wp.SetFeaturedMedia(ctx, site, postID, mediaID)
	switch {
	case err != nil:
		slog.Error("featured image retry failed", "post_id", postID, "error", err)
	case updated.FeaturedMedia == mediaID:
		slog.Info("featured image set on second attempt", "post_id", postID, "media_id", mediaID)
	default:
		slog.Error("featured image still not set after retry", "post_id", postID, "got", updated.FeaturedMedia)
	}
}

// CreateBulk creates the articles strictly sequentially, in input order.
// Items are independent: a failure on one never affects the others.
func (p *Publisher) CreateBulk(ctx context.Context, items []BulkItem) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, p.CreateArticle(ctx, item.SiteID, item.Draft, 0))
	}
	return results
}
