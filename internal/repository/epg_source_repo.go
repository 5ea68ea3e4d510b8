package repository

import (
	"context"
	"fmt"

	"github.com/guidesync/guidesync/internal/models"
	"gorm.io/gorm"
)

// epgSourceRepo implements EpgSourceRepository using GORM.
type epgSourceRepo struct {
	db *gorm.DB
}

// NewEpgSourceRepository creates a new EpgSourceRepository.
func NewEpgSourceRepository(db *gorm.DB) *epgSourceRepo {
	return &epgSourceRepo{db: db}
}

// Create creates a new EPG source.
func (r *epgSourceRepo) Create(ctx context.Context, source *models.EpgSource) error {
	if err := r.db.WithContext(ctx).Create(source).Error; err != nil {
		return fmt.Errorf("creating EPG source: %w", err)
	}
	return nil
}

// GetByID retrieves an EPG source by ID.
func (r *epgSourceRepo) GetByID(ctx context.Context, id models.ULID) (*models.EpgSource, error) {
	var source models.EpgSource
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&source).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting EPG source by ID: %w", err)
	}
	return &source, nil
}

// GetByName retrieves an EPG source by name.
func (r *epgSourceRepo) GetByName(ctx context.Context, name string) (*models.EpgSource, error) {
	var source models.EpgSource
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&source).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting EPG source by name: %w", err)
	}
	return &source, nil
}

// GetAll retrieves all EPG sources.
func (r *epgSourceRepo) GetAll(ctx context.Context) ([]*models.EpgSource, error) {
	var sources []*models.EpgSource
	if err := r.db.WithContext(ctx).Order("priority DESC, name ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("getting all EPG sources: %w", err)
	}
	return sources, nil
}

// GetEnabled retrieves all enabled EPG sources.
func (r *epgSourceRepo) GetEnabled(ctx context.Context) ([]*models.EpgSource, error) {
	var sources []*models.EpgSource
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("priority DESC, name ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("getting enabled EPG sources: %w", err)
	}
	return sources, nil
}

// Update updates an existing EPG source.
func (r *epgSourceRepo) Update(ctx context.Context, source *models.EpgSource) error {
	if err := r.db.WithContext(ctx).Save(source).Error; err != nil {
		return fmt.Errorf("updating EPG source: %w", err)
	}
	return nil
}

// Delete deletes an EPG source by ID.
func (r *epgSourceRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.EpgSource{}).Error; err != nil {
		return fmt.Errorf("deleting EPG source: %w", err)
	}
	return nil
}

// RecordSync persists the outcome of a sync attempt. A nil syncErr marks
// a successful sync with the fresh channel count; a non-nil syncErr only
// records the error message, leaving the previous sync data intact.
func (r *epgSourceRepo) RecordSync(ctx context.Context, id models.ULID, channelCount int, syncErr error) error {
	updates := map[string]interface{}{}
	if syncErr != nil {
		updates["last_error"] = syncErr.Error()
	} else {
		updates["last_sync_at"] = models.Now()
		updates["channel_count"] = channelCount
		updates["last_error"] = ""
	}

	if err := r.db.WithContext(ctx).Model(&models.EpgSource{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("recording sync outcome: %w", err)
	}
	return nil
}
