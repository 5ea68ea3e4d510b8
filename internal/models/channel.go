package models

import (
	"gorm.io/gorm"
)

// Channel represents a catalog channel imported from a playlist.
// Channels are scoped to a tenant; the slug is unique within a tenant
// and stable across re-imports of the same playlist.
type Channel struct {
	BaseModel

	// TenantID scopes the channel to a tenant. The caller resolves
	// tenancy before any catalog operation reaches this layer.
	TenantID string `gorm:"not null;size:255;index;uniqueIndex:idx_tenant_slug" json:"tenant_id"`

	// Slug is the URL-safe identifier derived from the display name,
	// with deterministic collision suffixes within one import.
	Slug string `gorm:"not null;size:255;uniqueIndex:idx_tenant_slug" json:"slug"`

	// Name is the display name resolved from the playlist entry.
	Name string `gorm:"not null;size:512" json:"name"`

	// GroupTitle is the category from the playlist group-title attribute.
	GroupTitle string `gorm:"size:255;index" json:"group_title,omitempty"`

	// LogoURL is the channel logo, mirrored or remote.
	LogoURL string `gorm:"size:2048" json:"logo_url,omitempty"`

	// EpgID links the channel to a guide channel id. Empty until
	// reconciliation or a manual mapping sets it.
	EpgID string `gorm:"size:255;index" json:"epg_id,omitempty"`

	// StreamURL is the playback URL from the playlist.
	StreamURL string `gorm:"not null;size:4096" json:"stream_url"`

	// OrderIndex preserves the playlist ordering for display.
	OrderIndex int `gorm:"default:0" json:"order_index"`
}

// TableName returns the table name for Channel.
func (Channel) TableName() string {
	return "channels"
}

// Validate performs basic validation on the channel.
func (c *Channel) Validate() error {
	if c.TenantID == "" {
		return ErrTenantRequired
	}
	if c.Name == "" {
		return ErrNameRequired
	}
	if c.StreamURL == "" {
		return ErrStreamURLRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the channel and generates ULID.
func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if err := c.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	return c.Validate()
}
