package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/radz2291/RZ-Property/internal/auth"
	"github.com/radz2291/RZ-Property/internal/config"
	"github.com/radz2291/RZ-Property/internal/errs"
	"github.com/radz2291/RZ-Property/internal/models"
	"github.com/radz2291/RZ-Property/internal/repository"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// IAdminAuthService signs admins in to the back office.
type IAdminAuthService interface {
	Login(ctx context.Context, username, password string) (string, *models.AdminUser, error)
	// EnsureAdmin creates the admin user or resets its password.
	EnsureAdmin(ctx context.Context, username, password string) (*models.AdminUser, error)
}

type adminAuthService struct {
	repo repository.IAdminUserRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewAdminAuthService(repo repository.IAdminUserRepository, cfg *config.Config) IAdminAuthService {
	return &adminAuthService{repo: repo, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

func (s *adminAuthService) Login(ctx context.Context, username, password string) (string, *models.AdminUser, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errs.Persistence("find admin user", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		slog.Warn("admin login rejected", "username", user.Username)
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(user.ID, user.Username, true, s.cfg.JwtSecret, s.cfg.JwtTTL)
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	if err := s.repo.TouchLogin(ctx, user.ID, now); err != nil {
		slog.Warn("last login not recorded", "username", user.Username, "error", err)
	}
	user.LastLoginAt = &now
	return token, user, nil
}

func (s *adminAuthService) EnsureAdmin(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		verr := &errs.ValidationError{}
		verr.Add("username", "is required")
		return nil, verr
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		verr := &errs.ValidationError{}
		verr.Add("password", "%v", err)
		return nil, verr
	}

	user, err := s.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		user = &models.AdminUser{Username: username, PasswordHash: hash, CreatedAt: s.now()}
		if _, err := s.repo.Insert(ctx, user); err != nil {
			return nil, errs.Persistence("create admin user", err)
		}
		return user, nil
	case err != nil:
		return nil, errs.Persistence("find admin user", err)
	}

	if err := s.repo.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return nil, errs.Persistence(fmt.Sprintf("reset password of %s", username), err)
	}
	user.PasswordHash = hash
	return user, nil
}
