package services

import (
	"context"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/repository"
	"github.com/radz2291/RZ-Property/internal/tasks"
	"github.com/radz2291/RZ-Property/internal/utils"
)

const defaultInquiryListLimit = 200

var phoneChars = regexp.MustCompile(`^[0-9+\-\s()]*$`)

// InquiryInput is a contact form submission.
type InquiryInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

// IInquiryService defines lead capture and the back office inquiry inbox.
type IInquiryService interface {
	// SubmitInquiry stores a lead. A nil propertyID denotes a general inquiry.
	SubmitInquiry(ctx context.Context, in InquiryInput, propertyID *utils.SixID) (*models.Inquiry, error)
	// SubmitPropertyInquiry stores a lead about the public property with slug.
	SubmitPropertyInquiry(ctx context.Context, slug string, in InquiryInput) (*models.Inquiry, error)
	GetInquiry(ctx context.Context, id utils.SixID) (*models.Inquiry, error)
	ListInquiries(ctx context.Context, status string, limit int64) ([]models.Inquiry, error)
	UpdateInquiryStatus(ctx context.Context, id utils.SixID, status string) error
	DeleteInquiry(ctx context.Context, id utils.SixID) error
}

type inquiryService struct {
	repo       repository.IInquiryRepository
	properties repository.IPropertyRepository
	enqueuer   tasks.IEnqueuer
	now        func() time.Time
}

// NewInquiryService creates the inquiry service. enqueuer may be nil, in
// which case no notification email is sent.
func NewInquiryService(repo repository.IInquiryRepository, properties repository.IPropertyRepository, enqueuer tasks.IEnqueuer) IInquiryService {
	return &inquiryService{
		repo:       repo,
		properties: properties,
		enqueuer:   enqueuer,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ValidateInquiryInput reports every field problem at once.
func ValidateInquiryInput(in InquiryInput) *errs.ValidationError {
	verr := &errs.ValidationError{}

	minLen(verr, "name", in.Name, 2)
	minLen(verr, "message", in.Message, 5)

	phone := strings.TrimSpace(in.Phone)
	switch {
	case len(phone) < 7:
		verr.Add("phone", "must be at least 7 characters")
	case !phoneChars.MatchString(phone):
		verr.Add("phone", "may only contain digits, spaces and + - ( )")
	}

	if email := strings.TrimSpace(in.Email); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			verr.Add("email", "is not a valid email address")
		}
	}

	if in.Source != "" && !models.InquirySource(in.Source).Valid() {
		verr.Add("source", "must be one of %v", models.AllInquirySources)
	}
	return verr
}

func (s *inquiryService) SubmitInquiry(ctx context.Context, in InquiryInput, propertyID *utils.SixID) (*models.Inquiry, error) {
	if verr := ValidateInquiryInput(in); verr.HasErrors() {
		return nil, verr
	}

	var property *models.Property
	if propertyID != nil {
		p, err := s.properties.FindByID(ctx, *propertyID)
		if err != nil {
			return nil, errs.Persistence("find property", err)
		}
		property = p
	}
	return s.store(ctx, in, property)
}

func (s *inquiryService) SubmitPropertyInquiry(ctx context.Context, slug string, in InquiryInput) (*models.Inquiry, error) {
	if verr := ValidateInquiryInput(in); verr.HasErrors() {
		return nil, verr
	}
	p, err := s.properties.FindBySlug(ctx, slug)
	if err != nil {
		return nil, errs.Persistence("find property", err)
	}
	if !p.Status.IsPublic() {
		return nil, errs.NotFound("property", slug)
	}
	return s.store(ctx, in, p)
}

func (s *inquiryService) store(ctx context.Context, in InquiryInput, property *models.Property) (*models.Inquiry, error) {
	source := models.InquirySource(in.Source)
	if source == "" {
		source = models.SourceGeneralContact
		if property != nil {
			source = models.SourcePropertyForm
		}
	}

	now := s.now()
	inq := &models.Inquiry{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Message:   strings.TrimSpace(in.Message),
		Status:    models.InquiryNew,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if property != nil {
		id := property.ID
		inq.PropertyID = &id
		inq.PropertyTitle = property.Title
	}

	if _, err := s.repo.Insert(ctx, inq); err != nil {
		return nil, errs.Persistence("create inquiry", err)
	}
	slog.Info("inquiry received", "id", inq.ID, "source", inq.Source, "property", inq.PropertyTitle)

	s.notify(ctx, inq, property)
	return inq, nil
}

func (s *inquiryService) notify(ctx context.Context, inq *models.Inquiry, property *models.Property) {
	if s.enqueuer == nil {
		return
	}
	payload := tasks.InquiryNotificationPayload{
		InquiryID: inq.ID.String(),
		Name:      inq.Name,
		Email:     inq.Email,
		Phone:     inq.Phone,
		Message:   inq.Message,
		Source:    string(inq.Source),
		CreatedAt: inq.CreatedAt,
	}
	if property != nil {
		payload.PropertyTitle = property.Title
		payload.PropertySlug = property.Slug
	}
	if err := s.enqueuer.EnqueueInquiryNotification(ctx, payload); err != nil {
		slog.Warn("inquiry notification not scheduled", "inquiry", inq.ID, "error", err)
	}
}

func (s *inquiryService) GetInquiry(ctx context.Context, id utils.SixID) (*models.Inquiry, error) {
	inq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errs.Persistence("find inquiry", err)
	}
	return inq, nil
}

func (s *inquiryService) ListInquiries(ctx context.Context, status string, limit int64) ([]models.Inquiry, error) {
	var filter *models.InquiryStatus
	if status != "" && status != "all" {
		st := models.InquiryStatus(status)
		if !st.Valid() {
			verr := &errs.ValidationError{}
			verr.Add("status", "must be one of %v", models.AllInquiryStatuses)
			return nil, verr
		}
		filter = &st
	}
	if limit <= 0 {
		limit = defaultInquiryListLimit
	}
	list, err := s.repo.List(ctx, filter, limit)
	if err != nil {
		return nil, errs.Persistence("list inquiries", err)
	}
	return list, nil
}

// UpdateInquiryStatus moves an inquiry to any status, including back to New.
func (s *inquiryService) UpdateInquiryStatus(ctx context.Context, id utils.SixID, status string) error {
	st := models.InquiryStatus(status)
	if !st.Valid() {
		verr := &errs.ValidationError{}
		verr.Add("status", "must be one of %v", models.AllInquiryStatuses)
		return verr
	}
	return errs.Persistence("update inquiry status", s.repo.UpdateStatus(ctx, id, st, s.now()))
}

func (s *inquiryService) DeleteInquiry(ctx context.Context, id utils.SixID) error {
	return errs.Persistence("delete inquiry", s.repo.Delete(ctx, id))
}
