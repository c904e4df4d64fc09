package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/utils"
)

func TestNewDocument(t *testing.T) {
	p := &models.Property{
		Title:    "Lake View Condo",
		Slug:     "lake-view-condo",
		Status:   models.StatusHidden,
		Category: models.CategoryForSale,
		PropertyImages: []models.PropertyImage{
			{URL: "https://cdn/a.jpg", Order: 1, IsFeatured: true},
		},
		CreatedAt: time.Unix(1700000000, 0),
	}
	p.ID = utils.NewSixID()

	doc := NewDocument(p)
	assert.Equal(t, p.ID.String(), doc.ID)
	assert.False(t, doc.Public)
	assert.Equal(t, "For Sale", doc.Category)
	assert.Equal(t, "https://cdn/a.jpg", doc.CoverImage)
	assert.EqualValues(t, 1700000000, doc.CreatedAt)
}

func TestNewIndexerWithoutHostIsNoop(t *testing.T) {
	idx := NewIndexer("", "", "properties")
	assert.IsType(t, NoopIndexer{}, idx)
	assert.NoError(t, idx.Init(context.Background()))
	assert.NoError(t, idx.IndexProperties(context.Background(), models.Property{}))
	assert.NoError(t, idx.RemoveProperty(context.Background(), "x"))
}
