// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package twelvelabs implements the client for the TwelveLabs video
// understanding API: the semantic search calls the enrichment pipeline
// consumes, and the entity collection / asset endpoints the tagging
// workflow consumes. The search API takes multipart form posts and returns
// ranked video segments with pagination tokens.
package twelvelabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"github.com/jaycherian/mam-search-gateway/internal/core/model"
)

// DefaultBaseURL is the public TwelveLabs API root.
const DefaultBaseURL = "https://api.twelvelabs.io/v1.3"

// DefaultPageLimit is the number of segments requested per page when the
// caller does not specify one.
const DefaultPageLimit = 20

// Default modality scopes per search mode.
var (
	DefaultSearchScopes      = []string{"visual", "audio"}
	DefaultImageSearchScopes = []string{"visual"}
)

// Client is the TwelveLabs API client. The zero value is not usable; create
// one with NewClient.
type Client struct {
	BaseURL    string       // API root, overridable for tests.
	APIKey     string       // Key sent as the x-api-key header.
	HTTPClient *http.Client // Underlying HTTP client.
	PageLimit  int          // Default page size for search calls.
}

// NewClient creates a TwelveLabs client.
//
// Inputs:
//   - baseURL: API root; "" selects the public endpoint.
//   - apiKey: The account API key.
//   - timeout: HTTP timeout; <= 0 selects 30 seconds.
//
// Outputs:
//   - *Client: A ready client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
		PageLimit:  DefaultPageLimit,
	}
}

// SearchByText runs a text query against an index and returns one page of
// ranked segments. A non-success response surfaces as an error carrying the
// upstream HTTP status and body. A non-empty apiKey overrides the client's
// configured key for this call, which lets callers search under their own
// account.
func (c *Client) SearchByText(ctx context.Context, apiKey, indexID, query string, opts model.SearchOptions) (*model.ProviderSearchResult, error) {
	form := newSearchForm()
	form.field("index_id", indexID)
	form.field("query_text", query)

	scopes := opts.SearchScopes
	if len(scopes) == 0 {
		scopes = DefaultSearchScopes
	}
	for _, scope := range scopes {
		form.field("search_options", scope)
	}

	c.addPagingFields(form, opts)
	if err := form.close(); err != nil {
		return nil, err
	}
	return c.postSearch(ctx, apiKey, form, "search")
}

// SearchByImage runs an image query against an index. imageRef is either a
// public URL or a data: URL; data URLs are decoded and posted as a binary
// file because the provider cannot fetch them. When opts.QueryText is
// non-empty the call becomes a combined text+image search.
func (c *Client) SearchByImage(ctx context.Context, apiKey, indexID, imageRef string, opts model.SearchOptions) (*model.ProviderSearchResult, error) {
	form := newSearchForm()
	form.field("index_id", indexID)
	form.field("query_media_type", "image")

	if opts.QueryText != "" {
		form.field("query_text", opts.QueryText)
	}

	if strings.HasPrefix(imageRef, "data:") {
		payload, ext, err := decodeDataURL(imageRef)
		if err != nil {
			return nil, err
		}
		if err := form.file("query_media_file", "image."+ext, payload); err != nil {
			return nil, err
		}
	} else {
		form.field("query_media_url", imageRef)
	}

	scopes := opts.SearchScopes
	if len(scopes) == 0 {
		scopes = DefaultImageSearchScopes
	}
	for _, scope := range scopes {
		form.field("search_options", scope)
	}

	c.addPagingFields(form, opts)
	if err := form.close(); err != nil {
		return nil, err
	}
	return c.postSearch(ctx, apiKey, form, "image search")
}

// addPagingFields appends the page limit, metadata flag and continuation
// token shared by both search modes.
func (c *Client) addPagingFields(form *searchForm, opts model.SearchOptions) {
	limit := opts.PageLimit
	if limit <= 0 {
		limit = c.PageLimit
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	form.field("page_limit", strconv.Itoa(limit))
	form.field("include_user_metadata", "true")
	if opts.PageToken != "" {
		form.field("page_token", opts.PageToken)
	}
}

// postSearch posts the assembled form to the search endpoint and decodes
// one result page.
func (c *Client) postSearch(ctx context.Context, apiKey string, form *searchForm, label string) (*model.ProviderSearchResult, error) {
	if apiKey == "" {
		apiKey = c.APIKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", form.reader())
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", label, err)
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Content-Type", form.contentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twelvelabs %s request failed: %w", label, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		detail := strings.TrimSpace(string(excerpt))
		if detail == "" {
			detail = resp.Status
		}
		return nil, fmt.Errorf("twelvelabs %s failed: %d %s", label, resp.StatusCode, detail)
	}

	var out model.ProviderSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", label, err)
	}
	return &out, nil
}

// decodeDataURL splits a data: URL into its decoded payload and a file
// extension. The extension is sniffed from the payload bytes and falls back
// to the declared media type, then to "png".
func decodeDataURL(dataURL string) ([]byte, string, error) {
	header, encoded, found := strings.Cut(dataURL, ",")
	if !found {
		return nil, "", fmt.Errorf("malformed data url: missing payload separator")
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("malformed data url payload: %w", err)
	}

	ext := ""
	if kind, err := filetype.Match(payload); err == nil && kind != filetype.Unknown {
		ext = kind.Extension
	}
	if ext == "" {
		// Fall back to the declared media type: "data:image/png;base64".
		declared := strings.TrimPrefix(header, "data:")
		declared, _, _ = strings.Cut(declared, ";")
		if _, sub, ok := strings.Cut(declared, "/"); ok && sub != "" {
			ext = sub
		}
	}
	if ext == "" {
		ext = "png"
	}
	return payload, ext, nil
}

// searchForm is a small helper around a multipart writer that defers field
// errors until close, keeping call sites linear.
type searchForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newSearchForm() *searchForm {
	f := &searchForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *searchForm) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.writer.WriteField(name, value)
}

func (f *searchForm) file(name, filename string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	part, err := f.writer.CreateFormFile(name, filename)
	if err != nil {
		f.err = err
		return err
	}
	_, f.err = part.Write(payload)
	return f.err
}

func (f *searchForm) close() error {
	if f.err != nil {
		return fmt.Errorf("failed to assemble search form: %w", f.err)
	}
	if err := f.writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize search form: %w", err)
	}
	return nil
}

func (f *searchForm) reader() io.Reader {
	return &f.buf
}

func (f *searchForm) contentType() string {
	return f.writer.FormDataContentType()
}
