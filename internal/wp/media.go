package wp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"pressbridge/internal/sanitize"
	"pressbridge/internal/sites"
)

// maxMetaLen caps media titles and alt text. Legibility beats uniqueness
// here, so overlong values are shortened with an ellipsis instead of a
// hash fallback.
const maxMetaLen = 50

// Media is an item in a site's media library.
type Media struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
	Title     string `json:"-"`
	AltText   string `json:"alt_text"`
}

// mediaResponse matches the wire shape, where the title is a rendered object.
type mediaResponse struct {
	ID        int    `json:"id"`
	SourceURL string `json:"source_url"`
	AltText   string `json:"alt_text"`
	Title     struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
}

func (m mediaResponse) toMedia() *Media {
	return &Media{
		ID:        m.ID,
		SourceURL: m.SourceURL,
		Title:     m.Title.Rendered,
		AltText:   m.AltText,
	}
}

// UploadMedia pushes a local image file into the site's media library via
// authenticated multipart upload. The file must exist and carry an image
// media type, checked before any network call. Only a 201 response is
// success; other statuses surface as an *APIError with the body preserved.
func (c *Client) UploadMedia(ctx context.Context, site sites.Site, localPath, title, altText string) (*Media, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("wp media: file not found: %s", localPath)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("wp media: %s is a directory", localPath)
	}

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("wp media: %s is not recognized as an image", localPath)
	}

	fileData, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("wp media: read %s: %w", localPath, err)
	}

	filename := filepath.Base(localPath)
	uploadTitle := cleanMediaTitle(title, filename)
	uploadAlt := altText
	if uploadAlt == "" {
		uploadAlt = uploadTitle
	}
	uploadAlt = sanitize.Ellipsis(uploadAlt, maxMetaLen)

	body, formContentType, err := buildMediaForm(filename, contentType, fileData, map[string]string{
		"title":    uploadTitle,
		"alt_text": uploadAlt,
		"caption":  uploadTitle,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, site.APIURL+"/media", body)
	if err != nil {
		return nil, fmt.Errorf("wp media request: %w", err)
	}
	req.Header.Set("Authorization", BasicAuth(site))
	req.Header.Set("Content-Type", formContentType)

	resp, err := c.upload.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wp media http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wp media read body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var mr mediaResponse
	if err := json.Unmarshal(respBody, &mr); err != nil {
		return nil, fmt.Errorf("wp media unmarshal: %w", err)
	}
	return mr.toMedia(), nil
}

// GetMedia fetches a media item by id. Used to confirm an upload actually
// landed before referencing it as a featured image.
func (c *Client) GetMedia(ctx context.Context, site sites.Site, id int) (*Media, error) {
	var mr mediaResponse
	url := fmt.Sprintf("%s/media/%d", site.APIURL, id)
	if err := c.doJSON(ctx, site, http.MethodGet, url, nil, http.StatusOK, &mr); err != nil {
		return nil, err
	}
	return mr.toMedia(), nil
}

// cleanMediaTitle sanitizes a supplied title for media metadata, falling
// back to the filename stem when nothing usable remains.
func cleanMediaTitle(title, filename string) string {
	clean := sanitize.Clean(title)
	if clean == "" {
		clean = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return sanitize.Ellipsis(clean, maxMetaLen)
}

// buildMediaForm assembles the multipart body: one file part plus plain
// text metadata fields.
func buildMediaForm(filename, contentType string, fileData []byte, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("wp media form: %w", err)
	}
	if _, err := part.Write(fileData); err != nil {
		return nil, "", fmt.Errorf("wp media form: %w", err)
	}

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("wp media form: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("wp media form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
