package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/service"
)

// MappingHandler handles channel listing and guide mapping endpoints.
type MappingHandler struct {
	mapper *service.MapperService
	guide  *service.GuideService
}

// NewMappingHandler creates a new mapping handler.
func NewMappingHandler(mapper *service.MapperService, guide *service.GuideService) *MappingHandler {
	return &MappingHandler{
		mapper: mapper,
		guide:  guide,
	}
}

// Register registers the channel and mapping routes with the API.
func (h *MappingHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listChannels",
		Method:      "GET",
		Path:        "/api/v1/channels",
		Summary:     "List channels",
		Description: "Returns a tenant's catalog channels in playlist order",
		Tags:        []string{"Channels"},
	}, h.ListChannels)

	huma.Register(api, huma.Operation{
		OperationID: "autoMapChannels",
		Method:      "POST",
		Path:        "/api/v1/mappings/automap",
		Summary:     "Propose channel mappings",
		Description: "Scores unmapped channels against a source's guide and returns proposals without persisting them",
		Tags:        []string{"Mappings"},
	}, h.AutoMap)

	huma.Register(api, huma.Operation{
		OperationID: "applyMappings",
		Method:      "POST",
		Path:        "/api/v1/mappings/apply",
		Summary:     "Apply channel mappings",
		Description: "Persists accepted mapping proposals",
		Tags:        []string{"Mappings"},
	}, h.Apply)

	huma.Register(api, huma.Operation{
		OperationID: "setChannelMapping",
		Method:      "PUT",
		Path:        "/api/v1/channels/{id}/mapping",
		Summary:     "Set channel mapping",
		Description: "Sets or clears one channel's guide mapping",
		Tags:        []string{"Mappings"},
	}, h.SetMapping)
}

// ListChannelsInput is the input for listing channels.
type ListChannelsInput struct {
	Tenant   string `query:"tenant" doc:"Tenant whose channels to list"`
	Unmapped bool   `query:"unmapped" doc:"Only channels with no guide mapping"`
}

// ListChannelsOutput is the output for listing channels.
type ListChannelsOutput struct {
	Body struct {
		Channels []ChannelResponse `json:"channels"`
	}
}

// ListChannels returns a tenant's channels.
func (h *MappingHandler) ListChannels(ctx context.Context, input *ListChannelsInput) (*ListChannelsOutput, error) {
	tenant := tenantOrDefault(input.Tenant)

	var (
		channels []*models.Channel
		err      error
	)
	if input.Unmapped {
		channels, err = h.mapper.ListUnmapped(ctx, tenant)
	} else {
		channels, err = h.guide.Channels(ctx, tenant)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list channels", err)
	}

	resp := &ListChannelsOutput{}
	resp.Body.Channels = make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		resp.Body.Channels = append(resp.Body.Channels, ChannelFromModel(ch))
	}

	return resp, nil
}

// AutoMapInput is the input for proposing mappings.
type AutoMapInput struct {
	Body struct {
		Tenant   string `json:"tenant,omitempty" doc:"Tenant whose unmapped channels are scored"`
		SourceID string `json:"source_id" doc:"EPG source ID (ULID)" minLength:"1"`
	}
}

// AutoMapOutput is the output for proposing mappings.
type AutoMapOutput struct {
	Body struct {
		Proposals []service.MappingProposal `json:"proposals"`
	}
}

// AutoMap returns mapping proposals for operator review.
func (h *MappingHandler) AutoMap(ctx context.Context, input *AutoMapInput) (*AutoMapOutput, error) {
	sourceID, err := models.ParseULID(input.Body.SourceID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid source ID format", err)
	}

	proposals, err := h.mapper.AutoMap(ctx, tenantOrDefault(input.Body.Tenant), sourceID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, huma.Error404NotFound(fmt.Sprintf("EPG source %s not found", input.Body.SourceID))
		}
		return nil, huma.Error500InternalServerError("automap failed", err)
	}

	resp := &AutoMapOutput{}
	resp.Body.Proposals = proposals
	return resp, nil
}

// ApplyMappingsInput is the input for applying mapping proposals.
type ApplyMappingsInput struct {
	Body struct {
		Tenant    string                    `json:"tenant,omitempty"`
		Proposals []service.MappingProposal `json:"proposals"`
	}
}

// ApplyMappingsOutput is the output for applying mapping proposals.
type ApplyMappingsOutput struct {
	Body struct {
		Applied int `json:"applied"`
	}
}

// Apply persists accepted mapping proposals.
func (h *MappingHandler) Apply(ctx context.Context, input *ApplyMappingsInput) (*ApplyMappingsOutput, error) {
	applied, err := h.mapper.Apply(ctx, tenantOrDefault(input.Body.Tenant), input.Body.Proposals)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to apply mappings", err)
	}

	resp := &ApplyMappingsOutput{}
	resp.Body.Applied = applied
	return resp, nil
}

// SetMappingInput is the input for setting one channel's mapping.
type SetMappingInput struct {
	ID     string `path:"id" doc:"Channel ID (ULID)"`
	Tenant string `query:"tenant"`
	Body   struct {
		EpgID string `json:"epg_id" doc:"Guide channel ID; empty clears the mapping"`
	}
}

// SetMappingOutput is the output for setting one channel's mapping.
type SetMappingOutput struct{}

// SetMapping sets or clears a channel's guide mapping.
func (h *MappingHandler) SetMapping(ctx context.Context, input *SetMappingInput) (*SetMappingOutput, error) {
	id, err := models.ParseULID(input.ID)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid channel ID format", err)
	}

	if err := h.mapper.SetMapping(ctx, tenantOrDefault(input.Tenant), id, input.Body.EpgID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, huma.Error404NotFound(fmt.Sprintf("channel %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("failed to set mapping", err)
	}

	return &SetMappingOutput{}, nil
}
