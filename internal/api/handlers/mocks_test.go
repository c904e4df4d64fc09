package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/radz2291/RZ-Property/internal/images"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/query"
	"github.com/radz2291/RZ-Property/internal/services"
	"github.com/radz2291/RZ-Property/internal/utils"
)

// --- Mocks ---

// MockPropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) CreateProperty(ctx context.Context, in services.PropertyInput, files []images.File) (*services.PropertySaveResult, error) {
	args := m.Called(ctx, in, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertySaveResult), args.Error(1)
}

func (m *MockPropertyService) UpdateProperty(ctx context.Context, id utils.SixID, in services.PropertyInput, files []images.File) (*services.PropertySaveResult, error) {
	args := m.Called(ctx, id, in, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertySaveResult), args.Error(1)
}

func (m *MockPropertyService) DeleteProperty(ctx context.Context, id utils.SixID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPropertyService) SetStatus(ctx context.Context, id utils.SixID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockPropertyService) SetFeatured(ctx context.Context, id utils.SixID, featured bool) error {
	return m.Called(ctx, id, featured).Error(0)
}

func (m *MockPropertyService) GetProperty(ctx context.Context, id utils.SixID) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) ViewPublicProperty(ctx context.Context, slug string, view services.PageViewInfo) (*models.Property, error) {
	args := m.Called(ctx, slug, view)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) ListProperties(ctx context.Context, spec query.Spec) ([]models.Property, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyService) FeaturedProperties(ctx context.Context) ([]models.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyService) SimilarProperties(ctx context.Context, slug string) ([]models.Property, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *MockPropertyService) MigrateImages(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockInquiryService
type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) SubmitInquiry(ctx context.Context, in services.InquiryInput, propertyID *utils.SixID) (*models.Inquiry, error) {
	args := m.Called(ctx, in, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) SubmitPropertyInquiry(ctx context.Context, slug string, in services.InquiryInput) (*models.Inquiry, error) {
	args := m.Called(ctx, slug, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) GetInquiry(ctx context.Context, id utils.SixID) (*models.Inquiry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) ListInquiries(ctx context.Context, status string, limit int64) ([]models.Inquiry, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) UpdateInquiryStatus(ctx context.Context, id utils.SixID, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockInquiryService) DeleteInquiry(ctx context.Context, id utils.SixID) error {
	return m.Called(ctx, id).Error(0)
}

// MockSiteContentService
type MockSiteContentService struct {
	mock.Mock
}

func (m *MockSiteContentService) GetContent(ctx context.Context, section models.ContentSection) (models.SiteContent, error) {
	args := m.Called(ctx, section)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.SiteContent), args.Error(1)
}

func (m *MockSiteContentService) PutContent(ctx context.Context, section models.ContentSection, payload []byte) (models.SiteContent, error) {
	args := m.Called(ctx, section, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.SiteContent), args.Error(1)
}

func (m *MockSiteContentService) SaveContent(ctx context.Context, c models.SiteContent) error {
	return m.Called(ctx, c).Error(0)
}

// MockAgentService
type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) GetAgent(ctx context.Context) (*models.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) UpdateAgent(ctx context.Context, payload []byte) (*models.Agent, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

func (m *MockAgentService) SaveProfile(ctx context.Context, profile services.AgentProfile) (*models.Agent, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Agent), args.Error(1)
}

// MockAdminAuthService
type MockAdminAuthService struct {
	mock.Mock
}

func (m *MockAdminAuthService) Login(ctx context.Context, username, password string) (string, *models.AdminUser, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.AdminUser), args.Error(2)
}

func (m *MockAdminAuthService) EnsureAdmin(ctx context.Context, username, password string) (*models.AdminUser, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminUser), args.Error(1)
}

// MockAnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) Summary(ctx context.Context) (*services.AnalyticsSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AnalyticsSummary), args.Error(1)
}

// MockBlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, body, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockBlobStore) Download(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockBlobStore) PublicURL(key string) string {
	return m.Called(key).String(0)
}

func (m *MockBlobStore) KeyFromURL(url string) (string, bool) {
	args := m.Called(url)
	return args.String(0), args.Bool(1)
}

func (m *MockBlobStore) ListBuckets(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBlobStore) EnsureBucket(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
