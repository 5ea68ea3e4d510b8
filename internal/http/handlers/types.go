// Package handlers provides HTTP API handlers for guidesync.
package handlers

import (
	"time"

	"github.com/guidesync/guidesync/internal/models"
)

// defaultTenant is used when a request carries no tenant parameter.
const defaultTenant = "default"

func tenantOrDefault(tenant string) string {
	if tenant == "" {
		return defaultTenant
	}
	return tenant
}

// EpgSourceResponse is the API representation of an EPG source.
type EpgSourceResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Description  string     `json:"description,omitempty"`
	Enabled      bool       `json:"enabled"`
	Priority     int        `json:"priority"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	ChannelCount int        `json:"channel_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// EpgSourceFromModel converts a model to its API representation.
func EpgSourceFromModel(s *models.EpgSource) EpgSourceResponse {
	resp := EpgSourceResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		URL:          s.URL,
		Description:  s.Description,
		Enabled:      s.IsEnabled(),
		Priority:     s.Priority,
		LastError:    s.LastError,
		ChannelCount: s.ChannelCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.LastSyncAt != nil {
		t := time.Time(*s.LastSyncAt)
		resp.LastSyncAt = &t
	}
	return resp
}

// CreateEpgSourceRequest is the request body for creating an EPG source.
type CreateEpgSourceRequest struct {
	Name        string `json:"name" doc:"Unique source name" minLength:"1"`
	URL         string `json:"url" doc:"XMLTV feed URL" minLength:"1"`
	Description string `json:"description,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty" doc:"Defaults to true"`
	Priority    int    `json:"priority,omitempty" doc:"Lower numbers sync first"`
}

// ToModel converts the request to a model.
func (r *CreateEpgSourceRequest) ToModel() *models.EpgSource {
	return &models.EpgSource{
		Name:        r.Name,
		URL:         r.URL,
		Description: r.Description,
		Enabled:     r.Enabled,
		Priority:    r.Priority,
	}
}

// UpdateEpgSourceRequest is the request body for updating an EPG source.
// Nil fields are left unchanged.
type UpdateEpgSourceRequest struct {
	Name        *string `json:"name,omitempty"`
	URL         *string `json:"url,omitempty"`
	Description *string `json:"description,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
}

// ApplyToModel applies non-nil fields to the model.
func (r *UpdateEpgSourceRequest) ApplyToModel(s *models.EpgSource) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.URL != nil {
		s.URL = *r.URL
	}
	if r.Description != nil {
		s.Description = *r.Description
	}
	if r.Enabled != nil {
		s.Enabled = r.Enabled
	}
	if r.Priority != nil {
		s.Priority = *r.Priority
	}
}

// ChannelResponse is the API representation of a catalog channel.
type ChannelResponse struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	GroupTitle string `json:"group_title,omitempty"`
	LogoURL    string `json:"logo_url,omitempty"`
	EpgID      string `json:"epg_id,omitempty"`
	StreamURL  string `json:"stream_url"`
	OrderIndex int    `json:"order_index"`
}

// ChannelFromModel converts a model to its API representation.
func ChannelFromModel(c *models.Channel) ChannelResponse {
	return ChannelResponse{
		ID:         c.ID.String(),
		Slug:       c.Slug,
		Name:       c.Name,
		GroupTitle: c.GroupTitle,
		LogoURL:    c.LogoURL,
		EpgID:      c.EpgID,
		StreamURL:  c.StreamURL,
		OrderIndex: c.OrderIndex,
	}
}

// ScheduleEntryResponse is the API representation of a schedule entry.
type ScheduleEntryResponse struct {
	ProgramID   string    `json:"program_id"`
	ChannelID   string    `json:"channel_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Language    string    `json:"language,omitempty"`
	IsLive      bool      `json:"is_live,omitempty"`
}

// ScheduleEntryFromModel converts a model to its API representation.
func ScheduleEntryFromModel(e *models.ScheduleEntry) ScheduleEntryResponse {
	return ScheduleEntryResponse{
		ProgramID:   e.ProgramID,
		ChannelID:   e.ChannelID,
		Start:       e.Start,
		End:         e.End,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		Icon:        e.Icon,
		Language:    e.Language,
		IsLive:      e.IsLive,
	}
}
