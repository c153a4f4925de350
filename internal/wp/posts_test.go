package wp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreatePost_Success(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/posts" {
			t.Errorf("got %s %s, want POST /posts", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 42, "link": "https://x/hello", "featured_media": 0}`))
	}))
	defer srv.Close()

	c := NewClient(0, 0, 0)
	post, err := c.CreatePost(context.Background(), testSite(srv.URL), PostPayload{
		Title:   "Hello World",
		Content: "<p>Hi</p>",
		Status:  "draft",
		Format:  "standard",
	})
	if err != nil {
		t.Fatalf("CreatePost: unexpected error: %v", err)
	}

	if post.ID != 42 || post.Link != "https://x/hello" {
		t.Errorf("post: got %+v", post)
	}

	// Optional fields must be absent, not empty, in the wire payload.
	for _, key := range []string{"featured_media", "categories", "tags"} {
		if _, present := gotPayload[key]; present {
			t.Errorf("payload contains %q although it was not set", key)
		}
	}
	// Excerpt is always sent, even when empty.
	if _, present := gotPayload["excerpt"]; !present {
		t.Error("payload is missing the excerpt field")
	}
}

func TestCreatePost_IncludesOptionalFields(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 7, "link": "https://x/p", "featured_media": 12}`))
	}))
	defer srv.Close()

	c := NewClient(0, 0, 0)
	_, err := c.CreatePost(context.Background(), testSite(srv.URL), PostPayload{
		Title:         "T",
		Content:       "C",
		Status:        "publish",
		Format:        "standard",
		FeaturedMedia: 12,
		Categories:    []int{1, 2},
		Tags:          []int{9},
	})
	if err != nil {
		t.Fatalf("CreatePost: unexpected error: %v", err)
	}

	if gotPayload["featured_media"] != float64(12) {
		t.Errorf("featured_media: got %v", gotPayload["featured_media"])
	}
	if cats, _ := gotPayload["categories"].([]any); len(cats) != 2 {
		t.Errorf("categories: got %v", gotPayload["categories"])
	}
	if tags, _ := gotPayload["tags"].([]any); len(tags) != 1 {
		t.Errorf("tags: got %v", gotPayload["tags"])
	}
}

func TestCreatePost_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"rest_cannot_create","message":"Sorry"}`))
	}))
	defer srv.Close()

	c := NewClient(0, 0, 0)
	_, err := c.CreatePost(context.Background(), testSite(srv.URL), PostPayload{Title: "T", Content: "C"})
	if err == nil {
		t.Fatal("CreatePost: expected error on 403")
	}

	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode: got %d, want 403", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error text %q does not mention the status code", err)
	}
}

func TestGetPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/posts/42" {
			t.Errorf("path: got %q, want /posts/42", r.URL.Path)
		}
		w.Write([]byte(`{"id": 42, "link": "https://x/hello", "featured_media": 7}`))
	}))
	defer srv.Close()

	c := NewClient(0, 0, 0)
	post, err := c.GetPost(context.Background(), testSite(srv.URL), 42)
	if err != nil {
		t.Fatalf("GetPost: unexpected error: %v", err)
	}
	if post.FeaturedMedia != 7 {
		t.Errorf("FeaturedMedia: got %d, want 7", post.FeaturedMedia)
	}
}

func TestSetFeaturedMedia(t *testing.T) {
	var gotBody map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/posts/42" {
			t.Errorf("got %s %s, want POST /posts/42", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"id": 42, "link": "https://x/hello", "featured_media": 7}`))
	}))
	defer srv.Close()

	c := NewClient(0, 0, 0)
	post, err := c.SetFeaturedMedia(context.Background(), testSite(srv.URL), 42, 7)
	if err != nil {
		t.Fatalf("SetFeaturedMedia: unexpected error: %v", err)
	}

	if gotBody["featured_media"] != 7 {
		t.Errorf("request body: got %v", gotBody)
	}
	if post.FeaturedMedia != 7 {
		t.Errorf("FeaturedMedia: got %d, want 7", post.FeaturedMedia)
	}
}
