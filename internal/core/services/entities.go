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

// This file defines the EntityService, which manages the provider-side face
// and object registry used for entity-aware search: collections of named
// entities, each backed by one or more uploaded reference image assets.
package services

import (
	"context"

	"github.com/jaycherian/mam-search-gateway/internal/provider/twelvelabs"
)

// EntityService wraps the provider's entity and asset endpoints behind the
// operations the HTTP layer exposes. It exists so handlers depend on the
// service layer rather than on the provider client directly.
type EntityService struct {
	Client *twelvelabs.Client
}

// NewEntityService creates an EntityService backed by the provider client.
func NewEntityService(client *twelvelabs.Client) *EntityService {
	return &EntityService{Client: client}
}

// ListCollections returns every entity collection visible to the API key.
func (s *EntityService) ListCollections(ctx context.Context) ([]twelvelabs.EntityCollection, error) {
	return s.Client.ListEntityCollections(ctx)
}

// CreateCollection creates a new, empty entity collection.
func (s *EntityService) CreateCollection(ctx context.Context, name string) (*twelvelabs.EntityCollection, error) {
	return s.Client.CreateEntityCollection(ctx, name)
}

// ListEntities returns the entities in a collection, optionally filtered by
// exact name.
func (s *EntityService) ListEntities(ctx context.Context, collectionID, nameFilter string) ([]twelvelabs.Entity, error) {
	return s.Client.ListEntities(ctx, collectionID, nameFilter)
}

// CreateEntity registers a named entity from previously uploaded assets.
// A name collision inside the collection surfaces as
// twelvelabs.ErrDuplicateEntity so the handler can answer 409.
func (s *EntityService) CreateEntity(ctx context.Context, collectionID, name string, assetIDs []string) (*twelvelabs.Entity, error) {
	return s.Client.CreateEntity(ctx, collectionID, name, assetIDs)
}

// DeleteEntity removes an entity from a collection.
func (s *EntityService) DeleteEntity(ctx context.Context, collectionID, entityID string) error {
	return s.Client.DeleteEntity(ctx, collectionID, entityID)
}

// UploadAssetFile uploads raw image bytes as a provider asset and waits until
// the asset is ready for use in an entity.
func (s *EntityService) UploadAssetFile(ctx context.Context, filename string, payload []byte) (*twelvelabs.Asset, error) {
	return s.Client.UploadAssetFile(ctx, filename, payload)
}

// UploadAssetFromURL registers a publicly reachable image URL as a provider
// asset and waits until it is ready.
func (s *EntityService) UploadAssetFromURL(ctx context.Context, imageURL string) (*twelvelabs.Asset, error) {
	return s.Client.UploadAssetFromURL(ctx, imageURL)
}
