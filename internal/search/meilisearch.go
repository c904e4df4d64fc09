// Package search mirrors the catalog into a Meilisearch index. The record
// store stays authoritative; the index is rebuilt with the reindex command.
package search

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"github.com/radz2291/RZ-Property/internal/images"
	"github.com/radz2291/RZ-Property/internal/models"
)

// IIndexer keeps the search index in sync with property writes.
type IIndexer interface {
	Init(ctx context.Context) error
	IndexProperties(ctx context.Context, props ...models.Property) error
	RemoveProperty(ctx context.Context, id string) error
}

// Document is the indexed shape of a property.
type Document struct {
	ID           string  `json:"id"`
	Slug         string  `json:"slug"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Address      string  `json:"address"`
	District     string  `json:"district"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Category     string  `json:"category"`
	PropertyType string  `json:"property_type"`
	Status       string  `json:"status"`
	Public       bool    `json:"public"`
	Price        float64 `json:"price"`
	Size         float64 `json:"size"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	HasParking   bool    `json:"has_parking"`
	HasFurnished bool    `json:"has_furnished"`
	HasAirCon    bool    `json:"has_air_con"`
	IsFeatured   bool    `json:"is_featured"`
	CoverImage   string  `json:"cover_image,omitempty"`
	CreatedAt    int64   `json:"created_at"`
}

// NewDocument flattens p for indexing.
func NewDocument(p *models.Property) Document {
	return Document{
		ID:           p.ID.String(),
		Slug:         p.Slug,
		Title:        p.Title,
		Description:  p.Description,
		Address:      p.Address,
		District:     p.District,
		City:         p.City,
		State:        p.State,
		Category:     string(p.Category),
		PropertyType: string(p.PropertyType),
		Status:       string(p.Status),
		Public:       p.Status.IsPublic(),
		Price:        p.Price,
		Size:         p.Size,
		Bedrooms:     p.Bedrooms,
		Bathrooms:    p.Bathrooms,
		HasParking:   p.HasParking,
		HasFurnished: p.HasFurnished,
		HasAirCon:    p.HasAirCon,
		IsFeatured:   p.IsFeatured,
		CoverImage:   images.CoverURL(p),
		CreatedAt:    p.CreatedAt.Unix(),
	}
}

type meiliIndexer struct {
	client *meilisearch.Client
	index  string
}

// NewIndexer returns a Meilisearch indexer, or a no-op one when host is empty.
func NewIndexer(host, apiKey, index string) IIndexer {
	if host == "" {
		log.Println("Meilisearch host not configured, search indexing disabled.")
		return NoopIndexer{}
	}
	return &meiliIndexer{
		client: meilisearch.NewClient(meilisearch.ClientConfig{Host: host, APIKey: apiKey}),
		index:  index,
	}
}

func (s *meiliIndexer) Init(ctx context.Context) error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{Uid: s.index, PrimaryKey: "id"})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("create search index %s: %w", s.index, err)
	}

	idx := s.client.Index(s.index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{"title", "description", "address", "district", "city"}); err != nil {
		return fmt.Errorf("configure searchable attributes: %w", err)
	}
	if _, err := idx.UpdateFilterableAttributes(&[]string{
		"category", "property_type", "status", "public", "price",
		"has_parking", "has_furnished", "has_air_con", "is_featured",
	}); err != nil {
		return fmt.Errorf("configure filterable attributes: %w", err)
	}
	if _, err := idx.UpdateSortableAttributes(&[]string{"price", "size", "created_at"}); err != nil {
		return fmt.Errorf("configure sortable attributes: %w", err)
	}
	return nil
}

func (s *meiliIndexer) IndexProperties(ctx context.Context, props ...models.Property) error {
	if len(props) == 0 {
		return nil
	}
	docs := make([]Document, 0, len(props))
	for i := range props {
		docs = append(docs, NewDocument(&props[i]))
	}
	if _, err := s.client.Index(s.index).AddDocuments(docs, "id"); err != nil {
		return fmt.Errorf("index %d properties: %w", len(docs), err)
	}
	return nil
}

func (s *meiliIndexer) RemoveProperty(ctx context.Context, id string) error {
	if _, err := s.client.Index(s.index).DeleteDocument(id); err != nil {
		return fmt.Errorf("remove property %s from index: %w", id, err)
	}
	return nil
}

// NoopIndexer discards every call.
type NoopIndexer struct{}

func (NoopIndexer) Init(context.Context) error                                { return nil }
func (NoopIndexer) IndexProperties(context.Context, ...models.Property) error { return nil }
func (NoopIndexer) RemoveProperty(context.Context, string) error              { return nil }
