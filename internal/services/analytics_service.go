package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/repository"
)

const topPropertiesLimit = 5

// AnalyticsSummary feeds the back office dashboard.
type AnalyticsSummary struct {
	TotalProperties    int64                           `json:"totalProperties"`
	PropertiesByStatus map[models.PropertyStatus]int64 `json:"propertiesByStatus"`
	TotalInquiries     int64                           `json:"totalInquiries"`
	NewInquiries       int64                           `json:"newInquiries"`
	TotalViews         int64                           `json:"totalViews"`
	TopProperties      []models.PropertyViewCount      `json:"topProperties"`
}

type IAnalyticsService interface {
	Summary(ctx context.Context) (*AnalyticsSummary, error)
}

type analyticsService struct {
	properties repository.IPropertyRepository
	inquiries  repository.IInquiryRepository
	pageViews  repository.IPageViewRepository
}

func NewAnalyticsService(properties repository.IPropertyRepository, inquiries repository.IInquiryRepository, pageViews repository.IPageViewRepository) IAnalyticsService {
	return &analyticsService{properties: properties, inquiries: inquiries, pageViews: pageViews}
}

// Summary runs the independent aggregations concurrently.
func (s *analyticsService) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	out := &AnalyticsSummary{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.properties.Stats(gctx)
		if err != nil {
			return err
		}
		out.TotalProperties = stats.Total
		out.PropertiesByStatus = stats.ByStatus
		out.TotalViews = stats.TotalViews
		return nil
	})
	g.Go(func() error {
		n, err := s.inquiries.Count(gctx, nil)
		out.TotalInquiries = n
		return err
	})
	g.Go(func() error {
		status := models.InquiryNew
		n, err := s.inquiries.Count(gctx, &status)
		out.NewInquiries = n
		return err
	})
	g.Go(func() error {
		top, err := s.pageViews.TopProperties(gctx, topPropertiesLimit)
		out.TopProperties = top
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, errs.Persistence("analytics summary", err)
	}
	if out.TopProperties == nil {
		out.TopProperties = []models.PropertyViewCount{}
	}
	return out, nil
}
