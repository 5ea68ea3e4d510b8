package repository

import (
	"context"
	"fmt"

	"github.com/guidesync/guidesync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// channelRepo implements ChannelRepository using GORM.
type channelRepo struct {
	db *gorm.DB
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(db *gorm.DB) *channelRepo {
	return &channelRepo{db: db}
}

// Create creates a new channel.
func (r *channelRepo) Create(ctx context.Context, channel *models.Channel) error {
	if err := r.db.WithContext(ctx).Create(channel).Error; err != nil {
		return fmt.Errorf("creating channel: %w", err)
	}
	return nil
}

// upsertBatchSize limits rows per INSERT to stay under SQLite's variable cap.
const upsertBatchSize = 100

// UpsertBatch creates or updates channels keyed by (tenant_id, slug).
// Playlist-derived fields are refreshed on conflict; epg_id is left alone
// so re-importing a playlist never discards an existing mapping.
func (r *channelRepo) UpsertBatch(ctx context.Context, channels []*models.Channel) error {
	if len(channels) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "group_title", "logo_url", "stream_url", "order_index", "updated_at",
		}),
	}).CreateInBatches(channels, upsertBatchSize).Error
	if err != nil {
		return fmt.Errorf("upserting channels: %w", err)
	}
	return nil
}

// GetByID retrieves a channel by ID.
func (r *channelRepo) GetByID(ctx context.Context, id models.ULID) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("getting channel by ID: %w", err)
	}
	return &channel, nil
}

// ListByTenant retrieves a tenant's channels in playlist order.
func (r *channelRepo) ListByTenant(ctx context.Context, tenantID string) ([]*models.Channel, error) {
	var channels []*models.Channel
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("order_index ASC, slug ASC").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("listing channels for tenant: %w", err)
	}
	return channels, nil
}

// ListUnmapped retrieves a tenant's channels with no EPG mapping.
func (r *channelRepo) ListUnmapped(ctx context.Context, tenantID string) ([]*models.Channel, error) {
	var channels []*models.Channel
	if err := r.db.WithContext(ctx).Where("tenant_id = ? AND (epg_id = '' OR epg_id IS NULL)", tenantID).Order("order_index ASC, slug ASC").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("listing unmapped channels: %w", err)
	}
	return channels, nil
}

// SetEpgID sets the EPG mapping for a channel.
func (r *channelRepo) SetEpgID(ctx context.Context, id models.ULID, epgID string) error {
	if err := r.db.WithContext(ctx).Model(&models.Channel{}).Where("id = ?", id).Update("epg_id", epgID).Error; err != nil {
		return fmt.Errorf("setting channel epg_id: %w", err)
	}
	return nil
}

// SetLogoURL sets the logo URL for a channel.
func (r *channelRepo) SetLogoURL(ctx context.Context, id models.ULID, logoURL string) error {
	if err := r.db.WithContext(ctx).Model(&models.Channel{}).Where("id = ?", id).Update("logo_url", logoURL).Error; err != nil {
		return fmt.Errorf("setting channel logo_url: %w", err)
	}
	return nil
}

// Delete deletes a channel by ID.
func (r *channelRepo) Delete(ctx context.Context, id models.ULID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Channel{}).Error; err != nil {
		return fmt.Errorf("deleting channel: %w", err)
	}
	return nil
}

// CountByTenant returns the number of channels for a tenant.
func (r *channelRepo) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Channel{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting channels for tenant: %w", err)
	}
	return count, nil
}
