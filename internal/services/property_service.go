package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/radz2291/RZ-Property/internal/cache"
	"github.com/radz2291/RZ-Property/internal/db"
	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/images"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/query"
	"github.com/radz2291/RZ-Property/internal/repository"
	"github.com/radz2291/RZ-Property/internal/search"
	"github.com/radz2291/RZ-Property/internal/tasks"
	"github.com/radz2291/RZ-Property/internal/utils"
)

const (
	featuredLimit = 4
	similarLimit  = 3
	slugIndex     = "slug_1"
)

// PropertyInput is the editable part of a property, as submitted by the
// admin form. PropertyImages may mix persisted URLs and pending entries.
type PropertyInput struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	AdditionalDetails string  `json:"additionalDetails"`
	Category          string  `json:"category"`
	PropertyType      string  `json:"propertyType"`
	Status            string  `json:"status"`
	Price             float64 `json:"price"`
	Size              float64 `json:"size"`
	Bedrooms          int     `json:"bedrooms"`
	Bathrooms         int     `json:"bathrooms"`

	Address  string `json:"address"`
	District string `json:"district"`
	City     string `json:"city"`
	State    string `json:"state"`
	Country  string `json:"country"`

	HasParking   bool `json:"hasParking"`
	HasFurnished bool `json:"hasFurnished"`
	HasAirCon    bool `json:"hasAirCon"`
	HasBalcony   bool `json:"hasBalcony"`
	HasGarden    bool `json:"hasGarden"`

	IsFeatured     bool                   `json:"isFeatured"`
	PropertyImages []models.PropertyImage `json:"propertyImages"`
}

// PropertySaveResult is a successful write, possibly with per-file upload
// warnings.
type PropertySaveResult struct {
	Property *models.Property    `json:"property"`
	Warnings []*errs.UploadError `json:"warnings"`
}

// PageViewInfo describes a public detail page fetch.
type PageViewInfo struct {
	Path      string
	UserAgent string
	Referrer  string
}

// IPropertyService defines the property aggregate operations.
type IPropertyService interface {
	CreateProperty(ctx context.Context, in PropertyInput, files []images.File) (*PropertySaveResult, error)
	UpdateProperty(ctx context.Context, id utils.SixID, in PropertyInput, files []images.File) (*PropertySaveResult, error)
	DeleteProperty(ctx context.Context, id utils.SixID) error
	SetStatus(ctx context.Context, id utils.SixID, status string) error
	SetFeatured(ctx context.Context, id utils.SixID, featured bool) error

	GetProperty(ctx context.Context, id utils.SixID) (*models.Property, error)
	ViewPublicProperty(ctx context.Context, slug string, view PageViewInfo) (*models.Property, error)
	ListProperties(ctx context.Context, spec query.Spec) ([]models.Property, error)
	FeaturedProperties(ctx context.Context) ([]models.Property, error)
	SimilarProperties(ctx context.Context, slug string) ([]models.Property, error)

	// MigrateImages persists the legacy image migration for every property
	// that has no gallery yet and returns how many were rewritten.
	MigrateImages(ctx context.Context) (int, error)
}

type propertyService struct {
	repo        repository.IPropertyRepository
	agents      repository.IAgentRepository
	pageViews   repository.IPageViewRepository
	images      *images.Manager
	engine      *query.Engine
	invalidator cache.IInvalidator
	indexer     search.IIndexer
	enqueuer    tasks.IEnqueuer
	now         func() time.Time
}

// NewPropertyService wires the property aggregate. invalidator, indexer and
// enqueuer may be nil. When an enqueuer is given, failed blob deletions are
// retried in the background.
func NewPropertyService(
	repo repository.IPropertyRepository,
	agents repository.IAgentRepository,
	pageViews repository.IPageViewRepository,
	manager *images.Manager,
	invalidator cache.IInvalidator,
	indexer search.IIndexer,
	enqueuer tasks.IEnqueuer,
) IPropertyService {
	if invalidator == nil {
		invalidator = cache.NoopInvalidator{}
	}
	if indexer == nil {
		indexer = search.NoopIndexer{}
	}
	s := &propertyService{
		repo:        repo,
		agents:      agents,
		pageViews:   pageViews,
		images:      manager,
		engine:      query.NewEngine(repo),
		invalidator: invalidator,
		indexer:     indexer,
		enqueuer:    enqueuer,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if enqueuer != nil {
		manager.OnDeleteFailure = s.deferBlobDelete
	}
	return s
}

func minLen(verr *errs.ValidationError, field, value string, n int) {
	if len([]rune(strings.TrimSpace(value))) < n {
		verr.Add(field, "must be at least %d characters", n)
	}
}

// ValidatePropertyInput reports every scalar field problem at once.
func ValidatePropertyInput(in PropertyInput) *errs.ValidationError {
	verr := &errs.ValidationError{}

	minLen(verr, "title", in.Title, 3)
	minLen(verr, "description", in.Description, 10)
	minLen(verr, "address", in.Address, 3)
	minLen(verr, "district", in.District, 2)
	minLen(verr, "city", in.City, 2)
	minLen(verr, "state", in.State, 2)
	minLen(verr, "country", in.Country, 2)

	if !models.PropertyCategory(in.Category).Valid() {
		verr.Add("category", "must be one of %v", models.AllCategories)
	}
	if !models.PropertyType(in.PropertyType).Valid() {
		verr.Add("propertyType", "must be one of %v", models.AllTypes)
	}
	if !models.PropertyStatus(in.Status).Valid() {
		verr.Add("status", "must be one of %v", models.AllStatuses)
	}
	if in.Price <= 0 {
		verr.Add("price", "must be a positive number")
	}
	if in.Size <= 0 {
		verr.Add("size", "must be a positive number")
	}
	if in.Bedrooms < 0 {
		verr.Add("bedrooms", "must not be negative")
	}
	if in.Bathrooms < 0 {
		verr.Add("bathrooms", "must not be negative")
	}
	return verr
}

func (s *propertyService) validate(in PropertyInput, files []images.File) error {
	verr := ValidatePropertyInput(in)
	var imageErr *errs.ValidationError
	if err := s.images.Validate(in.PropertyImages, files); errors.As(err, &imageErr) {
		verr.Merge(imageErr)
	}
	return verr.OrNil()
}

func applyInput(p *models.Property, in PropertyInput) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.AdditionalDetails = in.AdditionalDetails
	p.Category = models.PropertyCategory(in.Category)
	p.PropertyType = models.PropertyType(in.PropertyType)
	p.Status = models.PropertyStatus(in.Status)
	p.Price = in.Price
	p.Size = in.Size
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.Address = in.Address
	p.District = in.District
	p.City = in.City
	p.State = in.State
	p.Country = in.Country
	p.HasParking = in.HasParking
	p.HasFurnished = in.HasFurnished
	p.HasAirCon = in.HasAirCon
	p.HasBalcony = in.HasBalcony
	p.HasGarden = in.HasGarden
	p.IsFeatured = in.IsFeatured
}

func applyGallery(p *models.Property, res *images.SaveResult) {
	p.PropertyImages = res.Images
	p.FeaturedImage = res.FeaturedImage
	p.Images = res.ImageURLs
}

// CreateProperty validates, uploads, persists and then refreshes caches and
// the search mirror.
func (s *propertyService) CreateProperty(ctx context.Context, in PropertyInput, files []images.File) (*PropertySaveResult, error) {
	if err := s.validate(in, files); err != nil {
		return nil, err
	}

	agent, err := s.agents.FindDefault(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			verr := &errs.ValidationError{}
			verr.Add("agent", "no agent profile exists yet")
			return nil, verr
		}
		return nil, errs.Persistence("find agent", err)
	}

	saved, err := s.images.Save(ctx, in.PropertyImages, files)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Property{AgentID: agent.ID, CreatedAt: now, UpdatedAt: now}
	applyInput(p, in)
	applyGallery(p, saved)

	if err := s.insertWithSlug(ctx, p); err != nil {
		s.images.DeleteKeys(context.WithoutCancel(ctx), saved.UploadedKeys)
		return nil, errs.Persistence("create property", err)
	}

	slog.Info("property created", "id", p.ID, "slug", p.Slug, "images", len(p.PropertyImages), "warnings", len(saved.Warnings))
	s.afterWrite(ctx, p, p.IsFeatured, saved.UploadedKeys)
	s.invalidate(ctx, PublicPropertyPath(p.Slug))
	return &PropertySaveResult{Property: p, Warnings: saved.Warnings}, nil
}

// insertWithSlug picks a free slug and inserts p, moving to the next suffix
// when a concurrent insert took the slug first.
func (s *propertyService) insertWithSlug(ctx context.Context, p *models.Property) error {
	base := GenerateSlug(p.Title)
	start := 0
	for {
		slug, err := uniqueSlug(ctx, s.repo, base, utils.SixID{}, start)
		if err != nil {
			return err
		}
		p.Slug = slug
		if _, err = s.repo.Insert(ctx, p); err == nil {
			return nil
		}
		if !db.IsDuplicateKeyOnIndex(err, slugIndex) {
			return err
		}
		start = slugSuffix(slug, base) + 1
	}
}

// resolveSlug keeps the current slug while the new title derives the same
// slug as the stored title.
func (s *propertyService) resolveSlug(ctx context.Context, existing *models.Property, title string) (string, error) {
	base := GenerateSlug(title)
	if existing.Slug != "" && (existing.Slug == base || GenerateSlug(existing.Title) == base) {
		return existing.Slug, nil
	}
	return uniqueSlug(ctx, s.repo, base, existing.ID, 0)
}

// UpdateProperty re-validates, uploads new images, persists, and then deletes
// the blobs the new gallery no longer references.
func (s *propertyService) UpdateProperty(ctx context.Context, id utils.SixID, in PropertyInput, files []images.File) (*PropertySaveResult, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errs.Persistence("find property", err)
	}
	images.MigrateLegacy(existing)

	if err := s.validate(in, files); err != nil {
		return nil, err
	}

	slug, err := s.resolveSlug(ctx, existing, in.Title)
	if err != nil {
		return nil, errs.Persistence("resolve slug", err)
	}

	saved, err := s.images.Save(ctx, in.PropertyImages, files)
	if err != nil {
		return nil, err
	}

	updated := *existing
	applyInput(&updated, in)
	applyGallery(&updated, saved)
	updated.Slug = slug
	updated.UpdatedAt = s.now()

	if err := s.repo.Replace(ctx, &updated); err != nil {
		s.images.DeleteKeys(context.WithoutCancel(ctx), saved.UploadedKeys)
		return nil, errs.Persistence("update property", err)
	}

	if removed := images.RemovedURLs(existing, updated.PropertyImages); len(removed) > 0 {
		failures := s.images.DeleteBlobs(ctx, removed)
		slog.Info("removed images deleted", "property", id, "requested", len(removed), "failed", len(failures))
	}

	s.afterWrite(ctx, &updated, existing.IsFeatured || updated.IsFeatured, saved.UploadedKeys)
	paths := []string{PublicPropertyPath(updated.Slug), SimilarPropertiesPath(updated.Slug)}
	if existing.Slug != updated.Slug {
		paths = append(paths, PublicPropertyPath(existing.Slug), SimilarPropertiesPath(existing.Slug))
	}
	s.invalidate(ctx, paths...)
	return &PropertySaveResult{Property: &updated, Warnings: saved.Warnings}, nil
}

// DeleteProperty deletes every blob the property references, then the
// record. Blob failures never block the record deletion.
func (s *propertyService) DeleteProperty(ctx context.Context, id utils.SixID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return errs.Persistence("find property", err)
	}

	urls := images.ReferencedURLs(p)
	failures := s.images.DeleteBlobs(ctx, urls)
	if len(failures) > 0 {
		slog.Warn("property deleted with leaked blobs", "property", id, "failed", len(failures), "total", len(urls))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return errs.Persistence("delete property", err)
	}

	if err := s.indexer.RemoveProperty(ctx, id.String()); err != nil {
		slog.Warn("search index removal failed", "property", id, "error", err)
	}
	paths := s.listingPaths(id, p.IsFeatured)
	s.invalidate(ctx, append(paths, PublicPropertyPath(p.Slug), SimilarPropertiesPath(p.Slug))...)
	return nil
}

func (s *propertyService) SetStatus(ctx context.Context, id utils.SixID, status string) error {
	st := models.PropertyStatus(status)
	if !st.Valid() {
		verr := &errs.ValidationError{}
		verr.Add("status", "must be one of %v", models.AllStatuses)
		return verr
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return errs.Persistence("find property", err)
	}
	if err := s.repo.SetStatus(ctx, id, st, s.now()); err != nil {
		return errs.Persistence("set status", err)
	}
	p.Status = st
	s.reindex(ctx, p)
	s.invalidate(ctx, append(s.listingPaths(id, p.IsFeatured), PublicPropertyPath(p.Slug), SimilarPropertiesPath(p.Slug))...)
	return nil
}

func (s *propertyService) SetFeatured(ctx context.Context, id utils.SixID, featured bool) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return errs.Persistence("find property", err)
	}
	if err := s.repo.SetFeatured(ctx, id, featured, s.now()); err != nil {
		return errs.Persistence("set featured", err)
	}
	changed := p.IsFeatured != featured
	p.IsFeatured = featured
	s.reindex(ctx, p)
	s.invalidate(ctx, append(s.listingPaths(id, changed), PublicPropertyPath(p.Slug))...)
	return nil
}

// GetProperty returns any property by id, with the legacy gallery migrated
// in memory.
func (s *propertyService) GetProperty(ctx context.Context, id utils.SixID) (*models.Property, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errs.Persistence("find property", err)
	}
	images.MigrateLegacy(p)
	return p, nil
}

// ViewPublicProperty returns a public property and counts the view.
func (s *propertyService) ViewPublicProperty(ctx context.Context, slug string, view PageViewInfo) (*models.Property, error) {
	p, err := s.repo.IncrementViews(ctx, slug)
	if err != nil {
		return nil, errs.Persistence("view property", err)
	}
	images.MigrateLegacy(p)

	if s.pageViews != nil {
		pv := &models.PageView{
			PropertyID: p.ID,
			Path:       view.Path,
			UserAgent:  view.UserAgent,
			Referrer:   view.Referrer,
			ViewedAt:   s.now(),
		}
		if err := s.pageViews.Record(ctx, pv); err != nil {
			slog.Warn("page view not recorded", "property", p.ID, "error", err)
		}
	}
	return p, nil
}

func (s *propertyService) ListProperties(ctx context.Context, spec query.Spec) ([]models.Property, error) {
	props, err := s.engine.Query(ctx, spec)
	if err != nil {
		return nil, errs.Persistence("list properties", err)
	}
	for i := range props {
		images.MigrateLegacy(&props[i])
	}
	return props, nil
}

func (s *propertyService) FeaturedProperties(ctx context.Context) ([]models.Property, error) {
	featured := true
	return s.ListProperties(ctx, query.Spec{
		Filter: query.Filter{Featured: &featured},
		Sort:   query.SortNewest,
		Scope:  query.Public,
		Limit:  featuredLimit,
	})
}

// SimilarProperties returns public properties of the same category and type,
// excluding the property itself.
func (s *propertyService) SimilarProperties(ctx context.Context, slug string) ([]models.Property, error) {
	p, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, errs.Persistence("find property", err)
	}
	if !p.Status.IsPublic() {
		return nil, errs.NotFound("property", slug)
	}
	candidates, err := s.ListProperties(ctx, query.Spec{
		Filter: query.Filter{Category: string(p.Category), PropertyType: string(p.PropertyType)},
		Sort:   query.SortNewest,
		Scope:  query.Public,
		Limit:  similarLimit + 1,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Property, 0, similarLimit)
	for _, c := range candidates {
		if c.ID == p.ID {
			continue
		}
		if len(out) == similarLimit {
			break
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *propertyService) MigrateImages(ctx context.Context) (int, error) {
	props, err := s.repo.FindWithoutGallery(ctx)
	if err != nil {
		return 0, errs.Persistence("find legacy properties", err)
	}
	migrated := 0
	for i := range props {
		p := &props[i]
		if !images.MigrateLegacy(p) {
			continue
		}
		images.ApplyLegacy(p)
		if err := s.repo.Replace(ctx, p); err != nil {
			return migrated, errs.Persistence(fmt.Sprintf("migrate images of %s", p.ID), err)
		}
		migrated++
		slog.Info("migrated legacy images", "property", p.ID, "images", len(p.PropertyImages))
	}
	if migrated > 0 {
		s.invalidate(ctx, PathPublicProperties, PathFeaturedProperties, PathAdminProperties)
	}
	return migrated, nil
}

// listingPaths are the pages listing properties, plus the admin detail.
func (s *propertyService) listingPaths(id utils.SixID, homepage bool) []string {
	paths := []string{PathPublicProperties, PathAdminProperties, AdminPropertyPath(id.String())}
	if homepage {
		paths = append(paths, PathFeaturedProperties)
	}
	return paths
}

func (s *propertyService) afterWrite(ctx context.Context, p *models.Property, homepage bool, uploadedKeys []string) {
	s.reindex(ctx, p)
	s.invalidate(ctx, s.listingPaths(p.ID, homepage)...)
	if s.enqueuer == nil {
		return
	}
	for _, key := range uploadedKeys {
		err := s.enqueuer.EnqueueImageNormalize(ctx, tasks.ImageNormalizePayload{Key: key, PropertyID: p.ID.String()})
		if err != nil {
			slog.Warn("image normalization not scheduled", "key", key, "error", err)
		}
	}
}

func (s *propertyService) reindex(ctx context.Context, p *models.Property) {
	if err := s.indexer.IndexProperties(ctx, *p); err != nil {
		slog.Warn("search index update failed", "property", p.ID, "error", err)
	}
}

func (s *propertyService) invalidate(ctx context.Context, paths ...string) {
	if err := s.invalidator.Invalidate(ctx, paths...); err != nil {
		slog.Warn("page cache invalidation failed", "paths", paths, "error", err)
	}
}

func (s *propertyService) deferBlobDelete(ctx context.Context, failure *errs.BlobDeletionError) {
	if failure.Key == "" {
		return
	}
	err := s.enqueuer.EnqueueBlobDelete(context.WithoutCancel(ctx), tasks.BlobDeletePayload{Key: failure.Key, URL: failure.URL})
	if err != nil {
		slog.Warn("deferred blob deletion not scheduled", "key", failure.Key, "error", err)
	}
}
