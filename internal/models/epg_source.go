package models

import (
	"net/url"
	"strings"

	"gorm.io/gorm"
)

// EpgSource represents an upstream XMLTV EPG source.
type EpgSource struct {
	BaseModel

	// Name is a user-friendly name for the source.
	// Must be unique across all EPG sources.
	Name string `gorm:"uniqueIndex;not null;size:255" json:"name"`

	// URL is the XMLTV file URL.
	URL string `gorm:"not null;size:2048" json:"url"`

	// Description is an optional free-form note about the source.
	Description string `gorm:"size:1024" json:"description,omitempty"`

	// Enabled indicates whether this source should be included in
	// scheduled syncs. Defaults to true.
	Enabled *bool `gorm:"default:true" json:"enabled"`

	// Priority determines the order sources are synced in.
	Priority int `gorm:"default:0" json:"priority"`

	// LastSyncAt is the timestamp of the last successful sync.
	LastSyncAt *Time `json:"last_sync_at,omitempty"`

	// LastError contains the error message from the last failed sync.
	LastError string `gorm:"size:4096" json:"last_error,omitempty"`

	// ChannelCount is the number of guide channels from the last sync.
	ChannelCount int `gorm:"default:0" json:"channel_count"`
}

// TableName returns the table name for EpgSource.
func (EpgSource) TableName() string {
	return "epg_sources"
}

// IsEnabled returns whether the source participates in scheduled syncs.
func (s *EpgSource) IsEnabled() bool {
	return BoolVal(s.Enabled)
}

// MarkSynced records a successful sync with the guide channel count.
func (s *EpgSource) MarkSynced(channelCount int) {
	now := Now()
	s.LastSyncAt = &now
	s.ChannelCount = channelCount
	s.LastError = ""
}

// MarkFailed records the error message from a failed sync.
func (s *EpgSource) MarkFailed(err error) {
	if err != nil {
		s.LastError = err.Error()
	}
}

// Sanitize trims whitespace from user-provided fields.
func (s *EpgSource) Sanitize() {
	s.Name = strings.TrimSpace(s.Name)
	s.URL = strings.TrimSpace(s.URL)
	s.Description = strings.TrimSpace(s.Description)
}

// Validate performs basic validation on the EPG source.
func (s *EpgSource) Validate() error {
	s.Sanitize()

	if s.Name == "" {
		return ErrNameRequired
	}
	if s.URL == "" {
		return ErrURLRequired
	}
	if _, err := url.Parse(s.URL); err != nil {
		return ErrInvalidURL
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the source and generates ULID.
func (s *EpgSource) BeforeCreate(tx *gorm.DB) error {
	if err := s.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return s.Validate()
}

// BeforeUpdate is a GORM hook that validates the source before update.
func (s *EpgSource) BeforeUpdate(tx *gorm.DB) error {
	return s.Validate()
}
