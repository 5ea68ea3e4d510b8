// Package repository defines data access interfaces for guidesync entities.
// All database access goes through these interfaces, enabling easy testing
// and database backend switching.
package repository

import (
	"context"
	"time"

	"github.com/guidesync/guidesync/internal/models"
)

// EpgSourceRepository defines operations for EPG source persistence.
type EpgSourceRepository interface {
	// Create creates a new EPG source.
	Create(ctx context.Context, source *models.EpgSource) error
	// GetByID retrieves an EPG source by ID. Returns nil when not found.
	GetByID(ctx context.Context, id models.ULID) (*models.EpgSource, error)
	// GetByName retrieves an EPG source by name. Returns nil when not found.
	GetByName(ctx context.Context, name string) (*models.EpgSource, error)
	// GetAll retrieves all EPG sources ordered by priority.
	GetAll(ctx context.Context) ([]*models.EpgSource, error)
	// GetEnabled retrieves all enabled EPG sources ordered by priority.
	GetEnabled(ctx context.Context) ([]*models.EpgSource, error)
	// Update updates an existing EPG source.
	Update(ctx context.Context, source *models.EpgSource) error
	// Delete deletes an EPG source by ID.
	Delete(ctx context.Context, id models.ULID) error
	// RecordSync persists the outcome of a sync attempt.
	RecordSync(ctx context.Context, id models.ULID, channelCount int, syncErr error) error
}

// ChannelRepository defines operations for catalog channel persistence.
type ChannelRepository interface {
	// Create creates a new channel.
	Create(ctx context.Context, channel *models.Channel) error
	// UpsertBatch creates or updates channels keyed by (tenant_id, slug),
	// preserving playlist order.
	UpsertBatch(ctx context.Context, channels []*models.Channel) error
	// GetByID retrieves a channel by ID. Returns nil when not found.
	GetByID(ctx context.Context, id models.ULID) (*models.Channel, error)
	// ListByTenant retrieves a tenant's channels ordered by order_index.
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Channel, error)
	// ListUnmapped retrieves a tenant's channels with no EPG mapping.
	ListUnmapped(ctx context.Context, tenantID string) ([]*models.Channel, error)
	// SetEpgID sets the EPG mapping for a channel.
	SetEpgID(ctx context.Context, id models.ULID, epgID string) error
	// SetLogoURL sets the logo URL for a channel.
	SetLogoURL(ctx context.Context, id models.ULID, logoURL string) error
	// Delete deletes a channel by ID.
	Delete(ctx context.Context, id models.ULID) error
	// CountByTenant returns the number of channels for a tenant.
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
}

// ScheduleRepository defines operations for schedule entry persistence.
type ScheduleRepository interface {
	// InsertBatch inserts entries, skipping rows whose program_id already
	// exists. Returns the number of rows actually inserted.
	InsertBatch(ctx context.Context, entries []*models.ScheduleEntry) (int64, error)
	// Window retrieves entries for a channel overlapping [from, to),
	// including entries already running at from, ordered by start.
	Window(ctx context.Context, channelID string, from, to time.Time) ([]*models.ScheduleEntry, error)
	// OnAir retrieves the entry airing at the given instant for each of the
	// given channels.
	OnAir(ctx context.Context, channelIDs []string, at time.Time) (map[string]*models.ScheduleEntry, error)
	// DeleteBefore removes entries that ended before the cutoff. Returns
	// the number of rows removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// CountByChannel returns the number of entries for a guide channel.
	CountByChannel(ctx context.Context, channelID string) (int64, error)
}
