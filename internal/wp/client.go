// Package wp is the WordPress REST API client. It covers the endpoints the
// bridge needs — posts, categories, tags, media, and the authenticated user
// probe — authenticating every call with HTTP Basic auth.
package wp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pressbridge/internal/sites"
)

// APIError is a non-success response from the WordPress REST API. The
// status code and raw body are retained so callers can classify failures
// (ModSecurity 406 blocks, 401/403 credential problems) downstream.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordpress API error (status %d): %s", e.StatusCode, e.Body)
}

// AsAPIError unwraps err into an *APIError if one is in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// Client talks to any configured WordPress site; the target site is passed
// per call. Safe for concurrent use.
type Client struct {
	http         *http.Client // most calls
	upload       *http.Client // media uploads, longer timeout
	termsPerPage int          // page size for taxonomy listings
}

// NewClient creates a WordPress client. Zero durations fall back to the
// conservative defaults (30 s requests, 60 s uploads).
func NewClient(requestTimeout, uploadTimeout time.Duration, termsPerPage int) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	if uploadTimeout <= 0 {
		uploadTimeout = 60 * time.Second
	}
	if termsPerPage <= 0 {
		termsPerPage = 100
	}
	return &Client{
		http:         &http.Client{Timeout: requestTimeout},
		upload:       &http.Client{Timeout: uploadTimeout},
		termsPerPage: termsPerPage,
	}
}

// BasicAuth builds the Authorization header value for a site. Recomputed
// on every call; there is no session or token caching.
func BasicAuth(site sites.Site) string {
	credentials := site.Username + ":" + site.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

// doJSON performs a JSON request against a site endpoint and decodes the
// response into out when the status matches wantStatus. Any other status
// becomes an *APIError carrying the response body.
func (c *Client) doJSON(ctx context.Context, site sites.Site, method, url string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("wp marshal: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("wp request: %w", err)
	}
	req.Header.Set("Authorization", BasicAuth(site))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wp http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("wp read body: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("wp unmarshal: %w", err)
		}
	}
	return nil
}

// User is the authenticated WordPress user returned by the /users/me probe.
type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TestConnection verifies a site's credentials by fetching the
// authenticated user.
func (c *Client) TestConnection(ctx context.Context, site sites.Site) (*User, error) {
	var user User
	url := site.APIURL + "/users/me"
	if err := c.doJSON(ctx, site, http.MethodGet, url, nil, http.StatusOK, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
