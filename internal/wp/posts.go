package wp

import (
	"context"
	"fmt"
	"net/http"

	"pressbridge/internal/sites"
)

// PostPayload is the body of a post creation request. Optional fields are
// omitted entirely rather than sent empty: WordPress treats an empty
// taxonomy list as "clear all terms".
type PostPayload struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	Excerpt       string `json:"excerpt"`
	Format        string `json:"format"`
	FeaturedMedia int    `json:"featured_media,omitempty"`
	Categories    []int  `json:"categories,omitempty"`
	Tags          []int  `json:"tags,omitempty"`
}

// Post is the subset of a WordPress post the bridge cares about.
type Post struct {
	ID            int    `json:"id"`
	Link          string `json:"link"`
	FeaturedMedia int    `json:"featured_media"`
}

// CreatePost creates a post on the site. Only a 201 response is success;
// anything else surfaces as an *APIError with the raw body.
func (c *Client) CreatePost(ctx context.Context, site sites.Site, payload PostPayload) (*Post, error) {
	var post Post
	url := site.APIURL + "/posts"
	if err := c.doJSON(ctx, site, http.MethodPost, url, payload, http.StatusCreated, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPost fetches a post by id, used to verify the featured image landed.
func (c *Client) GetPost(ctx context.Context, site sites.Site, id int) (*Post, error) {
	var post Post
	url := fmt.Sprintf("%s/posts/%d", site.APIURL, id)
	if err := c.doJSON(ctx, site, http.MethodGet, url, nil, http.StatusOK, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// SetFeaturedMedia issues a partial post update that sets featured_media
// explicitly. This is the single corrective retry in the orchestration.
func (c *Client) SetFeaturedMedia(ctx context.Context, site sites.Site, postID, mediaID int) (*Post, error) {
	var post Post
	url := fmt.Sprintf("%s/posts/%d", site.APIURL, postID)
	body := map[string]int{"featured_media": mediaID}
	if err := c.doJSON(ctx, site, http.MethodPost, url, body, http.StatusOK, &post); err != nil {
		return nil, err
	}
	return &post, nil
}
