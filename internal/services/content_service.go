package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/radz2291/RZ-Property/internal/cache"
	"github.com/radz2291/RZ-Property/internal/content"
	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/repository"
)

// ISiteContentService reads and writes the typed site content sections.
type ISiteContentService interface {
	GetContent(ctx context.Context, section models.ContentSection) (models.SiteContent, error)
	PutContent(ctx context.Context, section models.ContentSection, payload []byte) (models.SiteContent, error)
	SaveContent(ctx context.Context, c models.SiteContent) error
}

type siteContentService struct {
	repo        repository.ISiteContentRepository
	invalidator cache.IInvalidator
	now         func() time.Time
}

func NewSiteContentService(repo repository.ISiteContentRepository, invalidator cache.IInvalidator) ISiteContentService {
	if invalidator == nil {
		invalidator = cache.NoopInvalidator{}
	}
	return &siteContentService{repo: repo, invalidator: invalidator, now: func() time.Time { return time.Now().UTC() }}
}

// GetContent loads a section and validates it against its schema.
func (s *siteContentService) GetContent(ctx context.Context, section models.ContentSection) (models.SiteContent, error) {
	rec, err := s.repo.Get(ctx, section)
	if err != nil {
		return nil, errs.Persistence("find site content", err)
	}
	c, err := content.FromRaw(section, rec.Content)
	if err != nil {
		slog.Error("stored site content is invalid", "section", section, "error", err)
		return nil, err
	}
	return c, nil
}

// PutContent validates a JSON payload for section and stores it.
func (s *siteContentService) PutContent(ctx context.Context, section models.ContentSection, payload []byte) (models.SiteContent, error) {
	c, err := content.Decode(section, payload)
	if err != nil {
		return nil, err
	}
	if err := s.SaveContent(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *siteContentService) SaveContent(ctx context.Context, c models.SiteContent) error {
	raw, err := content.ToRaw(c)
	if err != nil {
		return err
	}
	if err := s.repo.Put(ctx, c.Section(), raw, s.now()); err != nil {
		return errs.Persistence("save site content", err)
	}
	path := PathContentPrefix + string(c.Section())
	if err := s.invalidator.Invalidate(ctx, path); err != nil {
		logInvalidationFailure(path, err)
	}
	return nil
}

func logInvalidationFailure(path string, err error) {
	slog.Warn("page cache invalidation failed", "paths", []string{path}, "error", err)
}
