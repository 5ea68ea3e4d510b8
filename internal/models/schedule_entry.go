package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ScheduleEntry represents a single guide program occurrence.
// Entries are insert-if-absent: a duplicate ProgramID is skipped, never
// updated, so the first write for a slot wins.
type ScheduleEntry struct {
	BaseModel

	// ProgramID is the natural key, derived as "<channelID>_<startUnix>".
	ProgramID string `gorm:"not null;size:320;uniqueIndex" json:"program_id"`

	// ChannelID is the guide channel identifier the program airs on.
	ChannelID string `gorm:"not null;size:255;index:idx_schedule_channel_time" json:"channel_id"`

	// Start is the program start time.
	Start time.Time `gorm:"not null;index:idx_schedule_channel_time" json:"start"`

	// End is the program end time. Equal to Start when the feed omitted
	// a stop time. Stored as end_time since "end" is an SQL keyword.
	End time.Time `gorm:"column:end_time;not null;index" json:"end"`

	// Title is the program title.
	Title string `gorm:"not null;size:512" json:"title"`

	// Description is the full program description.
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Category is the program genre/category.
	Category string `gorm:"size:255" json:"category,omitempty"`

	// Icon is the URL to a program image.
	Icon string `gorm:"size:2048" json:"icon,omitempty"`

	// Language is the programme language attribute.
	Language string `gorm:"size:50" json:"language,omitempty"`

	// IsLive indicates if this is a live broadcast.
	IsLive bool `gorm:"default:false" json:"is_live"`
}

// TableName returns the table name for ScheduleEntry.
func (ScheduleEntry) TableName() string {
	return "schedule_entries"
}

// DeriveProgramID builds the natural key for a channel and start time.
func DeriveProgramID(channelID string, start time.Time) string {
	return fmt.Sprintf("%s_%d", channelID, start.Unix())
}

// Duration returns the program duration. Zero for degenerate entries
// whose feed omitted a stop time.
func (e *ScheduleEntry) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// IsOnAir returns true if the program is currently airing.
func (e *ScheduleEntry) IsOnAir() bool {
	now := time.Now()
	return now.After(e.Start) && now.Before(e.End)
}

// Validate performs basic validation on the schedule entry.
func (e *ScheduleEntry) Validate() error {
	if e.ProgramID == "" {
		return ErrProgramIDRequired
	}
	if e.ChannelID == "" {
		return ErrChannelIDRequired
	}
	if e.Start.IsZero() {
		return ErrStartTimeRequired
	}
	if e.Title == "" {
		return ErrTitleRequired
	}
	if e.End.Before(e.Start) {
		return ErrInvalidTimeRange
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the entry and generates ULID.
func (e *ScheduleEntry) BeforeCreate(tx *gorm.DB) error {
	if err := e.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return e.Validate()
}
