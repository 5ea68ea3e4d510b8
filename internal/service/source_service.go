// Package service provides the business logic layer for guidesync
// operations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/repository"
)

// SourceService provides business logic for EPG source management.
type SourceService struct {
	sourceRepo repository.EpgSourceRepository
	logger     *slog.Logger
}

// NewSourceService creates a new EPG source service.
func NewSourceService(sourceRepo repository.EpgSourceRepository) *SourceService {
	return &SourceService{
		sourceRepo: sourceRepo,
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *SourceService) WithLogger(logger *slog.Logger) *SourceService {
	s.logger = logger
	return s
}

// Create creates a new EPG source.
func (s *SourceService) Create(ctx context.Context, source *models.EpgSource) error {
	source.Sanitize()
	if err := source.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if existing, err := s.sourceRepo.GetByName(ctx, source.Name); err != nil {
		return fmt.Errorf("checking for duplicate name: %w", err)
	} else if existing != nil {
		return fmt.Errorf("EPG source %q already exists", source.Name)
	}

	if err := s.sourceRepo.Create(ctx, source); err != nil {
		return fmt.Errorf("creating EPG source: %w", err)
	}

	s.logger.Info("created EPG source",
		"id", source.ID.String(),
		"name", source.Name,
		"url", source.URL,
	)

	return nil
}

// Update updates an existing EPG source.
func (s *SourceService) Update(ctx context.Context, source *models.EpgSource) error {
	source.Sanitize()
	if err := source.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.sourceRepo.Update(ctx, source); err != nil {
		return fmt.Errorf("updating EPG source: %w", err)
	}

	s.logger.Info("updated EPG source",
		"id", source.ID.String(),
		"name", source.Name,
	)

	return nil
}

// Delete deletes an EPG source. Schedule entries written from it are
// kept until retention cleanup removes them.
func (s *SourceService) Delete(ctx context.Context, id models.ULID) error {
	if err := s.sourceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting EPG source: %w", err)
	}

	s.logger.Info("deleted EPG source", "id", id.String())

	return nil
}

// GetByID retrieves an EPG source by ID. Returns nil when not found.
func (s *SourceService) GetByID(ctx context.Context, id models.ULID) (*models.EpgSource, error) {
	source, err := s.sourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting EPG source: %w", err)
	}
	return source, nil
}

// List returns all EPG sources ordered by priority.
func (s *SourceService) List(ctx context.Context) ([]*models.EpgSource, error) {
	sources, err := s.sourceRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing EPG sources: %w", err)
	}
	return sources, nil
}

// ListEnabled returns all enabled EPG sources ordered by priority.
func (s *SourceService) ListEnabled(ctx context.Context) ([]*models.EpgSource, error) {
	sources, err := s.sourceRepo.GetEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enabled EPG sources: %w", err)
	}
	return sources, nil
}
