package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/guidesync/guidesync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// scheduleRepo implements ScheduleRepository using GORM.
type scheduleRepo struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(db *gorm.DB) *scheduleRepo {
	return &scheduleRepo{db: db}
}

// insertBatchSize limits rows per INSERT to stay under SQLite's variable cap.
const insertBatchSize = 500

// InsertBatch inserts schedule entries, skipping any whose program_id is
// already present. First write wins; existing rows are never updated.
// Returns the number of rows actually inserted.
func (r *scheduleRepo) InsertBatch(ctx context.Context, entries []*models.ScheduleEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "program_id"}},
		DoNothing: true,
	}).CreateInBatches(entries, insertBatchSize)
	if tx.Error != nil {
		return 0, fmt.Errorf("inserting schedule entries: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// Window retrieves entries for a channel overlapping [from, to), including
// programs already running at from, ordered by start time.
func (r *scheduleRepo) Window(ctx context.Context, channelID string, from, to time.Time) ([]*models.ScheduleEntry, error) {
	var entries []*models.ScheduleEntry
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND start < ? AND end_time > ?", channelID, to, from).
		Order("start ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("querying schedule window: %w", err)
	}
	return entries, nil
}

// OnAir retrieves the entry airing at the given instant for each channel.
// Channels with nothing airing are absent from the result.
func (r *scheduleRepo) OnAir(ctx context.Context, channelIDs []string, at time.Time) (map[string]*models.ScheduleEntry, error) {
	if len(channelIDs) == 0 {
		return map[string]*models.ScheduleEntry{}, nil
	}

	var entries []*models.ScheduleEntry
	err := r.db.WithContext(ctx).
		Where("channel_id IN ? AND start <= ? AND end_time > ?", channelIDs, at, at).
		Order("start ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("querying on-air entries: %w", err)
	}

	result := make(map[string]*models.ScheduleEntry, len(entries))
	for _, e := range entries {
		// Overlapping feed data can yield two candidates; keep the latest start.
		if cur, ok := result[e.ChannelID]; !ok || e.Start.After(cur.Start) {
			result[e.ChannelID] = e
		}
	}
	return result, nil
}

// DeleteBefore removes entries that ended before the cutoff.
func (r *scheduleRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).Where("end_time < ?", cutoff).Delete(&models.ScheduleEntry{})
	if tx.Error != nil {
		return 0, fmt.Errorf("deleting expired schedule entries: %w", tx.Error)
	}
	return tx.RowsAffected, nil
}

// CountByChannel returns the number of entries for a guide channel.
func (r *scheduleRepo) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ScheduleEntry{}).Where("channel_id = ?", channelID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting schedule entries: %w", err)
	}
	return count, nil
}
