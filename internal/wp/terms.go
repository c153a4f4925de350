package wp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"pressbridge/internal/sites"
)

// TermKind selects a taxonomy endpoint.
type TermKind string

const (
	Categories TermKind = "categories"
	Tags       TermKind = "tags"
)

// searchPerPage bounds the candidate list when resolving a single term name.
const searchPerPage = 10

// Term is a category or tag.
type Term struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// ListTerms fetches all terms of a kind, ordered by name ascending.
func (c *Client) ListTerms(ctx context.Context, site sites.Site, kind TermKind) ([]Term, error) {
	var terms []Term
	u := fmt.Sprintf("%s/%s?per_page=%d&orderby=name&order=asc", site.APIURL, kind, c.termsPerPage)
	if err := c.doJSON(ctx, site, http.MethodGet, u, nil, http.StatusOK, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

// ResolveTerms maps term names to ids with get-or-create semantics: an
// exact case-insensitive name match reuses the existing id, otherwise the
// term is created. Names are resolved independently — a failure logs and
// skips that name, never aborting the batch — so the returned slice may be
// shorter than names. Resolving the same names twice yields the same ids.
func (c *Client) ResolveTerms(ctx context.Context, site sites.Site, kind TermKind, names []string) []int {
	var ids []int
	for _, name := range names {
		id, err := c.resolveTerm(ctx, site, kind, name)
		if err != nil {
			slog.Error("term resolution failed", "kind", kind, "name", name, "site", site.Name, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (c *Client) resolveTerm(ctx context.Context, site sites.Site, kind TermKind, name string) (int, error) {
	u := fmt.Sprintf("%s/%s?search=%s&per_page=%d", site.APIURL, kind, url.QueryEscape(name), searchPerPage)

	var candidates []Term
	if err := c.doJSON(ctx, site, http.MethodGet, u, nil, http.StatusOK, &candidates); err != nil {
		return 0, err
	}

	for _, t := range candidates {
		if strings.EqualFold(t.Name, name) {
			slog.Info("found existing term", "kind", kind, "name", name, "id", t.ID)
			return t.ID, nil
		}
	}

	var created Term
	createURL := fmt.Sprintf("%s/%s", site.APIURL, kind)
	body := map[string]string{"name": name}
	if err := c.doJSON(ctx, site, http.MethodPost, createURL, body, http.StatusCreated, &created); err != nil {
		return 0, err
	}
	slog.Info("created term", "kind", kind, "name", name, "id", created.ID)
	return created.ID, nil
}
