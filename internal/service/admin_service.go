package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/busseva/busseva-backend/internal/config"
	"github.com/busseva/busseva-backend/internal/model"
	"github.com/busseva/busseva-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ErrAdminNotFound is returned when the admin account does not exist.
var ErrAdminNotFound = errors.New("admin not found")

// AdminService handles admin provisioning and lookup.
type AdminService struct {
	cfg    *config.Config
	admins AdminStore
	log    zerolog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(cfg *config.Config, admins AdminStore, log zerolog.Logger) *AdminService {
	return &AdminService{
		cfg:    cfg,
		admins: admins,
		log:    log.With().Str("component", "admin_service").Logger(),
	}
}

// GetByID retrieves an admin by ID.
func (s *AdminService) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	a, err := s.admins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAdminNotFound
	}
	return a, err
}

// EnsureDefaultAdmin creates the configured admin if it does not exist.
// Calling it repeatedly is safe. In development mode with
// ADMIN_RESET_ON_BOOT the existing admin's password is reset to the
// configured one.
func (s *AdminService) EnsureDefaultAdmin(ctx context.Context) error {
	hash, err := HashPassword(s.cfg.AdminPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	created, err := s.admins.CreateIfAbsent(ctx, &model.Admin{
		Username:     s.cfg.AdminUsername,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	if created {
		s.log.Info().Str("username", s.cfg.AdminUsername).Msg("Default admin created")
		return nil
	}

	if s.cfg.IsDevelopment() && s.cfg.AdminResetOnBoot {
		if err := s.admins.UpdatePassword(ctx, s.cfg.AdminUsername, hash); err != nil {
			return fmt.Errorf("reset admin password: %w", err)
		}
		s.log.Warn().Str("username", s.cfg.AdminUsername).Msg("Admin password reset (development)")
		return nil
	}

	s.log.Debug().Str("username", s.cfg.AdminUsername).Msg("Admin already exists")
	return nil
}

// ResetPassword stores a new hashed password for the admin.
func (s *AdminService) ResetPassword(ctx context.Context, username, password string) error {
	hash, err := HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePassword(ctx, username, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	return nil
}
