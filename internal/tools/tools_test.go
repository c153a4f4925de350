package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pressbridge/internal/history"
	"pressbridge/internal/imagegen"
	"pressbridge/internal/publisher"
	"pressbridge/internal/sites"
	"pressbridge/internal/wp"
)

// wpFixture is a minimal WordPress stand-in for the dispatcher tests. The
// orchestration internals are covered in the publisher package; here the
// fake only needs plausible endpoint behavior.
type wpFixture struct {
	authFail     bool
	postFail     int
	noTags       bool
	postCount    int
	lastPostBody map[string]any
}

func (f *wpFixture) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /wp-json/wp/v2/users/me", func(w http.ResponseWriter, r *http.Request) {
		if f.authFail {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"code":"rest_not_logged_in"}`)
			return
		}
		fmt.Fprint(w, `{"id":1,"name":"Editor"}`)
	})

	mux.HandleFunc("POST /wp-json/wp/v2/posts", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&f.lastPostBody)
		if f.postFail != 0 {
			w.WriteHeader(f.postFail)
			fmt.Fprintf(w, `{"code":"rest_cannot_create","data":{"status":%d}}`, f.postFail)
			return
		}
		f.postCount++
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id":%d,"link":"https://example.com/?p=%d"}`, 200+f.postCount, 200+f.postCount)
	})

	mux.HandleFunc("GET /wp-json/wp/v2/categories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1,"name":"News","slug":"news","count":12},{"id":2,"name":"Tech","slug":"tech","count":4}]`)
	})

	mux.HandleFunc("GET /wp-json/wp/v2/tags", func(w http.ResponseWriter, r *http.Request) {
		if f.noTags {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprint(w, `[{"id":5,"name":"golang","slug":"golang","count":7}]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDispatcher(t *testing.T, f *wpFixture, log *history.Log) *Dispatcher {
	t.Helper()
	srv := f.server(t)

	path := filepath.Join(t.TempDir(), "sites.yaml")
	data := fmt.Sprintf(`sites:
  - id: blog
    name: Test Blog
    url: %s
    username: editor
    password: secret
  - id: shop
    name: Test Shop
    url: %s
    username: editor
    password: secret
`, srv.URL, srv.URL)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	reg, err := sites.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	client := wp.NewClient(5*time.Second, 5*time.Second, 100)
	gen := imagegen.New(imagegen.Config{TempDir: t.TempDir()}) // unavailable
	pub := publisher.New(reg, client, gen, "draft", "standard")
	return NewDispatcher(reg, client, pub, log)
}

func dispatch(t *testing.T, d *Dispatcher, op, args string) []TextBlock {
	t.Helper()
	blocks, err := d.Dispatch(context.Background(), op, json.RawMessage(args))
	if err != nil {
		t.Fatalf("Dispatch(%s): %v", op, err)
	}
	if len(blocks) == 0 {
		t.Fatalf("Dispatch(%s): no blocks", op)
	}
	return blocks
}

func TestDispatch_UnknownOperation(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{}, nil)
	_, err := d.Dispatch(context.Background(), "explode", nil)
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("err = %v, want ErrUnknownOperation", err)
	}
}

func TestDispatch_Validation(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{}, nil)

	tests := []struct {
		op   string
		args string
	}{
		{"create_article", `{"site_id":"blog","content":"x"}`},
		{"create_article", `{"site_id":"blog","title":"  ","content":"x"}`},
		{"create_article", `{"title":"x","content":"x"}`},
		{"create_article_with_image", `{"site_id":"blog","title":"x"}`},
		{"test_connection", `{}`},
		{"get_categories", `{}`},
		{"create_bulk_articles", `{"articles":[]}`},
		{"create_bulk_articles", `{"articles":[{"site_id":"blog","title":"ok","content":"x"},{"site_id":"blog"}]}`},
		{"create_article", `not json`},
	}
	for _, tt := range tests {
		if _, err := d.Dispatch(context.Background(), tt.op, json.RawMessage(tt.args)); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s %s: err = %v, want ErrInvalidRequest", tt.op, tt.args, err)
		}
	}
}

func TestListSites(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{}, nil)
	blocks := dispatch(t, d, "list_sites", "")

	out := blocks[0].Text
	if !strings.Contains(out, "blog: Test Blog") || !strings.Contains(out, "shop: Test Shop") {
		t.Errorf("output missing sites:\n%s", out)
	}
	if strings.Index(out, "blog") > strings.Index(out, "shop") {
		t.Error("sites not in configuration order")
	}
}

func TestCreateArticle_Success(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{}, nil)
	blocks := dispatch(t, d, "create_article", `{"site_id":"blog","title":"Go Tips","content":"<p>body</p>"}`)

	out := blocks[0].Text
	for _, want := range []string{"Article created successfully on Test Blog", "Title: Go Tips", "Post ID: 201", "URL: https://example.com/?p=201"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCreateArticle_FailureCarriesDiagnosis(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{postFail: http.StatusNotAcceptable}, nil)
	blocks := dispatch(t, d, "create_article", `{"site_id":"blog","title":"Blocked","content":"x"}`)

	out := blocks[0].Text
	if !strings.Contains(out, "406") {
		t.Errorf("output should carry the status:\n%s", out)
	}
	if !strings.Contains(out, "ModSecurity") {
		t.Errorf("output missing diagnosis:\n%s", out)
	}
	if !strings.Contains(out, "Suggested fix:") {
		t.Errorf("output missing suggested fix:\n%s", out)
	}
}

func TestCreateArticleWithImage_UnavailableNote(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{}, nil) // generator has no API key
	blocks := dispatch(t, d, "create_article_with_image", `{"site_id":"blog","title":"No Pics","content":"x"}`)

	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want article result plus availability note", len(blocks))
	}
	if !strings.Contains(blocks[0].Text, "Article created successfully") {
		t.Errorf("article was not created:\n%s", blocks[0].Text)
	}
	if !strings.Contains(blocks[1].Text, "image generation is not available") {
		t.Errorf("note = %q", blocks[1].Text)
	}
}

func TestCreateArticle_MarkdownContent(t *testing.T) {
	f := &wpFixture{}
	d := newTestDispatcher(t, f, nil)
	dispatch(t, d, "create_article", `{"site_id":"blog","title":"MD","content":"# Heading\n\nBody text.","markdown":true}`)

	content, _ := f.lastPostBody["content"].(string)
	if !strings.Contains(content, "<h1") || !strings.Contains(content, "<p>Body text.</p>") {
		t.Errorf("content not converted to HTML: %q", content)
	}
}

func TestCreateArticle_HTMLContentUntouched(t *testing.T) {
	f := &wpFixture{}
	d := newTestDispatcher(t, f, nil)
	dispatch(t, d, "create_article", `{"site_id":"blog","title":"HTML","content":"# not a heading"}`)

	content, _ := f.lastPostBody["content"].(string)
	if content != "# not a heading" {
		t.Errorf("content = %q, want it passed through verbatim", content)
	}
}

func TestCreateArticle_UnknownSite(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{}, nil)
	blocks := dispatch(t, d, "create_article", `{"site_id":"ghost","title":"x","content":"x"}`)

	if !strings.Contains(blocks[0].Text, "Site with ID ghost not found") {
		t.Errorf("output = %q", blocks[0].Text)
	}
}

func TestTestConnection(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		d := newTestDispatcher(t, &wpFixture{}, nil)
		blocks := dispatch(t, d, "test_connection", `{"site_id":"blog"}`)
		out := blocks[0].Text
		if !strings.Contains(out, "successful") || !strings.Contains(out, "Editor") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("auth failure", func(t *testing.T) {
		d := newTestDispatcher(t, &wpFixture{authFail: true}, nil)
		blocks := dispatch(t, d, "test_connection", `{"site_id":"blog"}`)
		out := blocks[0].Text
		if !strings.Contains(out, "failed") || !strings.Contains(out, "credentials") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		d := newTestDispatcher(t, &wpFixture{}, nil)
		blocks := dispatch(t, d, "test_connection", `{"site_id":"nope"}`)
		if !strings.Contains(blocks[0].Text, "not found") {
			t.Errorf("output = %q", blocks[0].Text)
		}
	})
}

func TestGetTerms(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{}, nil)

	cats := dispatch(t, d, "get_categories", `{"site_id":"blog"}`)[0].Text
	if !strings.Contains(cats, "Categories on Test Blog") {
		t.Errorf("header missing:\n%s", cats)
	}
	if !strings.Contains(cats, "News (ID 1, slug news, 12 posts)") {
		t.Errorf("category line missing:\n%s", cats)
	}

	tags := dispatch(t, d, "get_tags", `{"site_id":"blog"}`)[0].Text
	if !strings.Contains(tags, "golang (ID 5, slug golang, 7 posts)") {
		t.Errorf("tag line missing:\n%s", tags)
	}

	empty := newTestDispatcher(t, &wpFixture{noTags: true}, nil)
	none := dispatch(t, empty, "get_tags", `{"site_id":"blog"}`)[0].Text
	if !strings.Contains(none, "No tags found") {
		t.Errorf("output = %q", none)
	}
}

func TestCreateBulkArticles(t *testing.T) {
	d := newTestDispatcher(t, &wpFixture{}, nil)
	blocks := dispatch(t, d, "create_bulk_articles", `{"articles":[
		{"site_id":"blog","title":"One","content":"x"},
		{"site_id":"ghost","title":"Two","content":"x"},
		{"site_id":"shop","title":"Three","content":"x"}
	]}`)

	out := blocks[0].Text
	if !strings.Contains(out, "[ok] One") || !strings.Contains(out, "[ok] Three") {
		t.Errorf("successes missing:\n%s", out)
	}
	if !strings.Contains(out, "[failed] Two: Site with ID ghost not found") {
		t.Errorf("failure line missing:\n%s", out)
	}
	if !strings.Contains(out, "Created 2 of 3 articles.") {
		t.Errorf("summary missing:\n%s", out)
	}
}

func TestCreateArticle_RecordsHistory(t *testing.T) {
	log, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer log.Close()

	d := newTestDispatcher(t, &wpFixture{}, log)
	dispatch(t, d, "create_article", `{"site_id":"blog","title":"Logged","content":"x"}`)

	entries, err := log.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Title != "Logged" || e.SiteID != "blog" || !e.Success || e.PostID == 0 {
		t.Errorf("entry = %+v", e)
	}
}
