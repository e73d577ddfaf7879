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

// This file implements the entity tagging surface of the TwelveLabs API:
// entity collections, the entities (faces, logos, people) inside them, and
// the reference image assets entities are built from. Asset uploads are
// asynchronous upstream, so creation is followed by a status poll until the
// asset reaches "ready".
package twelvelabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Poll cadence for asset readiness. Uploads are small reference images, so
// thirty one-second probes covers the normal processing window.
const (
	assetPollInterval    = 1 * time.Second
	assetPollMaxAttempts = 30
)

// ErrDuplicateEntity is returned when creating an entity whose name already
// exists in the target collection. Callers surface it verbatim as a user
// facing message.
var ErrDuplicateEntity = errors.New("an entity with this name already exists in this collection")

// EntityCollection is a named group of entities.
type EntityCollection struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	EntityCount int    `json:"entity_count"`
}

// Entity is one tagged face/logo/person built from reference image assets.
type Entity struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	AssetIDs []string `json:"asset_ids"`
}

// Asset is one uploaded reference image.
type Asset struct {
	ID       string `json:"_id"`
	Status   string `json:"status"`
	Filename string `json:"filename"`
	FileType string `json:"file_type"`
}

// ListEntityCollections returns all entity collections on the account.
func (c *Client) ListEntityCollections(ctx context.Context) ([]EntityCollection, error) {
	var out struct {
		Data []EntityCollection `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/entity-collections", nil, &out, "failed to list entity collections"); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateEntityCollection creates a named collection.
func (c *Client) CreateEntityCollection(ctx context.Context, name string) (*EntityCollection, error) {
	body := map[string]string{"name": name}
	var out EntityCollection
	if err := c.doJSON(ctx, http.MethodPost, "/entity-collections", body, &out, "failed to create entity collection"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListEntities returns the entities in a collection, optionally filtered by
// name.
func (c *Client) ListEntities(ctx context.Context, collectionID, nameFilter string) ([]Entity, error) {
	path := fmt.Sprintf("/entity-collections/%s/entities", collectionID)
	if nameFilter != "" {
		path += "?name=" + url.QueryEscape(nameFilter)
	}
	var out struct {
		Data []Entity `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, "failed to list entities"); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateEntity creates an entity from previously uploaded asset IDs. A name
// collision inside the collection maps to ErrDuplicateEntity.
func (c *Client) CreateEntity(ctx context.Context, collectionID, name string, assetIDs []string) (*Entity, error) {
	body := map[string]interface{}{"name": name, "asset_ids": assetIDs}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/entity-collections/%s/entities", c.BaseURL, collectionID), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build create entity request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create entity request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrDuplicateEntity
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		detail := strings.TrimSpace(string(excerpt))
		if strings.Contains(detail, "already exists") {
			return nil, ErrDuplicateEntity
		}
		if detail == "" {
			detail = resp.Status
		}
		return nil, fmt.Errorf("failed to create entity: %d %s", resp.StatusCode, detail)
	}

	var out Entity
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}
	return &out, nil
}

// DeleteEntity removes an entity from a collection.
func (c *Client) DeleteEntity(ctx context.Context, collectionID, entityID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/entity-collections/%s/entities/%s", c.BaseURL, collectionID, entityID), nil)
	if err != nil {
		return fmt.Errorf("failed to build delete entity request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete entity request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		detail := strings.TrimSpace(string(excerpt))
		if detail == "" {
			detail = resp.Status
		}
		return fmt.Errorf("failed to delete entity: %d %s", resp.StatusCode, detail)
	}
	return nil
}

// UploadAssetFile uploads a reference image directly and waits for it to
// reach "ready".
func (c *Client) UploadAssetFile(ctx context.Context, filename string, payload []byte) (*Asset, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("method", "direct"); err != nil {
		return nil, fmt.Errorf("failed to assemble asset form: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble asset form: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to assemble asset form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize asset form: %w", err)
	}
	return c.createAssetAndPoll(ctx, &buf, writer.FormDataContentType())
}

// UploadAssetFromURL uploads a reference image by URL and waits for it to
// reach "ready".
func (c *Client) UploadAssetFromURL(ctx context.Context, imageURL string) (*Asset, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("method", "url"); err != nil {
		return nil, fmt.Errorf("failed to assemble asset form: %w", err)
	}
	if err := writer.WriteField("url", imageURL); err != nil {
		return nil, fmt.Errorf("failed to assemble asset form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize asset form: %w", err)
	}
	return c.createAssetAndPoll(ctx, &buf, writer.FormDataContentType())
}

// createAssetAndPoll posts the asset form, then polls the created asset
// until it is ready or the poll limit is reached.
func (c *Client) createAssetAndPoll(ctx context.Context, form io.Reader, contentType string) (*Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/assets", form)
	if err != nil {
		return nil, fmt.Errorf("failed to build asset upload request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asset upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		detail := strings.TrimSpace(string(excerpt))
		if detail == "" {
			detail = resp.Status
		}
		return nil, fmt.Errorf("failed to upload asset: %d %s", resp.StatusCode, detail)
	}

	var created struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode asset upload response: %w", err)
	}
	return c.pollAssetReady(ctx, created.ID)
}

// pollAssetReady probes the asset status endpoint until the asset reports
// "ready". Context cancellation aborts the wait between probes.
func (c *Client) pollAssetReady(ctx context.Context, assetID string) (*Asset, error) {
	for attempt := 0; attempt < assetPollMaxAttempts; attempt++ {
		var asset Asset
		if err := c.doJSON(ctx, http.MethodGet, "/assets/"+assetID, nil, &asset, "failed to poll asset status"); err != nil {
			return nil, err
		}
		if asset.Status == "ready" {
			return &asset, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(assetPollInterval):
		}
	}
	return nil, fmt.Errorf("asset %s did not become ready within %ds", assetID, assetPollMaxAttempts)
}

// doJSON performs a JSON request/response round trip against the API root,
// mapping non-success statuses to errors that carry the upstream status and
// body excerpt.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}, errContext string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: %w", errContext, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", errContext, err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", errContext, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		detail := strings.TrimSpace(string(excerpt))
		if detail == "" {
			detail = resp.Status
		}
		return fmt.Errorf("%s: %d %s", errContext, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: %w", errContext, err)
		}
	}
	return nil
}
