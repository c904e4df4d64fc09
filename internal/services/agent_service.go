package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/radz2291/RZ-Property/internal/cache"
	"github.com/radz2291/RZ-Property/internal/content"
	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/repository"
)

// AgentProfile is the editable part of the agent record.
type AgentProfile struct {
	Name              string   `json:"name" yaml:"name"`
	Photo             string   `json:"photo,omitempty" yaml:"photo"`
	Bio               string   `json:"bio" yaml:"bio"`
	PhoneNumber       string   `json:"phoneNumber" yaml:"phoneNumber"`
	WhatsappNumber    string   `json:"whatsappNumber" yaml:"whatsappNumber"`
	Email             string   `json:"email,omitempty" yaml:"email"`
	YearsOfExperience int      `json:"yearsOfExperience" yaml:"yearsOfExperience"`
	Specialties       []string `json:"specialties" yaml:"specialties"`
}

// IAgentService manages the single agent profile.
type IAgentService interface {
	GetAgent(ctx context.Context) (*models.Agent, error)
	// UpdateAgent validates a JSON profile and creates or replaces the agent.
	UpdateAgent(ctx context.Context, payload []byte) (*models.Agent, error)
	SaveProfile(ctx context.Context, profile AgentProfile) (*models.Agent, error)
}

type agentService struct {
	repo        repository.IAgentRepository
	invalidator cache.IInvalidator
	now         func() time.Time
}

func NewAgentService(repo repository.IAgentRepository, invalidator cache.IInvalidator) IAgentService {
	if invalidator == nil {
		invalidator = cache.NoopInvalidator{}
	}
	return &agentService{repo: repo, invalidator: invalidator, now: func() time.Time { return time.Now().UTC() }}
}

func (s *agentService) GetAgent(ctx context.Context) (*models.Agent, error) {
	a, err := s.repo.FindDefault(ctx)
	if err != nil {
		return nil, errs.Persistence("find agent", err)
	}
	return a, nil
}

func (s *agentService) UpdateAgent(ctx context.Context, payload []byte) (*models.Agent, error) {
	if err := content.ValidateJSON(content.SchemaAgent, payload); err != nil {
		return nil, err
	}
	var profile AgentProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, fmt.Errorf("decode agent profile: %w", err)
	}
	return s.save(ctx, profile)
}

// SaveProfile runs the same validation as UpdateAgent on an already decoded
// profile.
func (s *agentService) SaveProfile(ctx context.Context, profile AgentProfile) (*models.Agent, error) {
	payload, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode agent profile: %w", err)
	}
	return s.UpdateAgent(ctx, payload)
}

func (s *agentService) save(ctx context.Context, profile AgentProfile) (*models.Agent, error) {
	now := s.now()
	existing, err := s.repo.FindDefault(ctx)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Persistence("find agent", err)
	}

	agent := &models.Agent{CreatedAt: now}
	if existing != nil {
		agent = existing
	}
	agent.Name = profile.Name
	agent.Photo = profile.Photo
	agent.Bio = profile.Bio
	agent.PhoneNumber = profile.PhoneNumber
	agent.WhatsappNumber = profile.WhatsappNumber
	agent.Email = profile.Email
	agent.YearsOfExperience = profile.YearsOfExperience
	agent.Specialties = profile.Specialties
	agent.UpdatedAt = now

	if existing == nil {
		if _, err := s.repo.Insert(ctx, agent); err != nil {
			return nil, errs.Persistence("create agent", err)
		}
	} else if err := s.repo.Replace(ctx, agent); err != nil {
		return nil, errs.Persistence("update agent", err)
	}

	if err := s.invalidator.Invalidate(ctx, PathAgent); err != nil {
		logInvalidationFailure(PathAgent, err)
	}
	return agent, nil
}
