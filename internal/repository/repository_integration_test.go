package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/query"
	"github.com/radz2291/RZ-Property/internal/utils"
)

func newProperty(slug string, status models.PropertyStatus, price float64) *models.Property {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.Property{
		Slug:         slug,
		Title:        slug,
		Description:  "Spacious unit close to town.",
		Category:     models.CategoryForSale,
		PropertyType: models.TypeResidential,
		Status:       status,
		Price:        price,
		Size:         1000,
		Address:      "1 Lake Rd",
		District:     "Fajar",
		City:         "Tawau",
		State:        "Sabah",
		Country:      "Malaysia",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPropertyRepository(t *testing.T) {
	database := utils.SetupTestDB(t, "rzproperty_test", db.PropertiesCollection, db.PageViewsCollection)
	ctx := context.Background()
	require.NoError(t, db.EnsureIndexes(ctx, database))
	repo := NewPropertyRepository(database)

	p, err := repo.Insert(ctx, newProperty("lake-view-condo", models.StatusAvailable, 420000))
	require.NoError(t, err)
	require.False(t, p.ID.IsZero())

	hidden, err := repo.Insert(ctx, newProperty("hidden-house", models.StatusHidden, 100000))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newProperty("lake-view-condo", models.StatusAvailable, 1))
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyOnIndex(err, "slug_1"))

	exists, err := repo.SlugExists(ctx, "lake-view-condo", utils.SixID{})
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.SlugExists(ctx, "lake-view-condo", p.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	pub, err := repo.FindProperties(ctx, query.Spec{Scope: query.Public})
	require.NoError(t, err)
	require.Len(t, pub, 1)
	assert.Equal(t, p.ID, pub[0].ID)

	admin, err := repo.FindProperties(ctx, query.Spec{Scope: query.Admin, Sort: query.SortPriceLow})
	require.NoError(t, err)
	require.Len(t, admin, 2)
	assert.Equal(t, hidden.ID, admin[0].ID)

	viewed, err := repo.IncrementViews(ctx, "lake-view-condo")
	require.NoError(t, err)
	assert.EqualValues(t, 1, viewed.ViewCount)

	_, err = repo.IncrementViews(ctx, "hidden-house")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, repo.SetStatus(ctx, p.ID, models.StatusSold, time.Now()))
	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.ByStatus[models.StatusSold])
	assert.EqualValues(t, 1, stats.TotalViews)

	pv := NewPageViewRepository(database)
	require.NoError(t, pv.Record(ctx, &models.PageView{PropertyID: p.ID, Path: "/properties/lake-view-condo", ViewedAt: time.Now()}))
	top, err := pv.TopProperties(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "lake-view-condo", top[0].Slug)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), errs.ErrNotFound)
}

func TestInquiryRepository(t *testing.T) {
	database := utils.SetupTestDB(t, "rzproperty_test", db.InquiriesCollection)
	ctx := context.Background()
	repo := NewInquiryRepository(database)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, name := range []string{"Aminah", "Boon", "Chandra"} {
		_, err := repo.Insert(ctx, &models.Inquiry{
			Name: name, Phone: "+60 12-345 6789", Message: "Is this available?",
			Status: models.InquiryNew, Source: models.SourceGeneralContact,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	list, err := repo.List(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Chandra", list[0].Name)

	require.NoError(t, repo.UpdateStatus(ctx, list[0].ID, models.InquiryClosed, time.Now()))
	closed := models.InquiryClosed
	n, err := repo.Count(ctx, &closed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSiteContentRepositoryUpsert(t *testing.T) {
	database := utils.SetupTestDB(t, "rzproperty_test", db.SiteContentCollection)
	ctx := context.Background()
	repo := NewSiteContentRepository(database)

	_, err := repo.Get(ctx, models.SectionHero)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	raw, err := bson.Marshal(bson.M{"title": "Find your home"})
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, models.SectionHero, raw, time.Now()))
	require.NoError(t, repo.Put(ctx, models.SectionHero, raw, time.Now()))

	rec, err := repo.Get(ctx, models.SectionHero)
	require.NoError(t, err)
	assert.Equal(t, "Find your home", rec.Content.Lookup("title").StringValue())
}
