package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/guidesync/guidesync/internal/service"
)

// GuideHandler handles the public guide query endpoints.
type GuideHandler struct {
	guide *service.GuideService
}

// NewGuideHandler creates a new guide handler.
func NewGuideHandler(guide *service.GuideService) *GuideHandler {
	return &GuideHandler{guide: guide}
}

// Register registers the guide routes with the API.
func (h *GuideHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "guideNow",
		Method:      "GET",
		Path:        "/api/v1/epg/now",
		Summary:     "Current lineup",
		Description: "Returns every channel of a tenant with the program airing right now",
		Tags:        []string{"Guide"},
	}, h.Now)

	huma.Register(api, huma.Operation{
		OperationID: "guideSchedule",
		Method:      "GET",
		Path:        "/api/v1/epg/schedule/{channelID}",
		Summary:     "Channel schedule",
		Description: "Returns a guide channel's schedule window starting now",
		Tags:        []string{"Guide"},
	}, h.Schedule)
}

// NowPlayingResponse pairs a channel with its current program.
type NowPlayingResponse struct {
	Channel ChannelResponse        `json:"channel"`
	Entry   *ScheduleEntryResponse `json:"entry,omitempty"`
}

// GuideNowInput is the input for the current lineup.
type GuideNowInput struct {
	Tenant string `query:"tenant"`
}

// GuideNowOutput is the output for the current lineup.
type GuideNowOutput struct {
	Body struct {
		At     time.Time            `json:"at"`
		Lineup []NowPlayingResponse `json:"lineup"`
	}
}

// Now returns the tenant's lineup with currently airing programs.
func (h *GuideHandler) Now(ctx context.Context, input *GuideNowInput) (*GuideNowOutput, error) {
	at := time.Now()

	lineup, err := h.guide.Now(ctx, tenantOrDefault(input.Tenant), at)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to resolve lineup", err)
	}

	resp := &GuideNowOutput{}
	resp.Body.At = at
	resp.Body.Lineup = make([]NowPlayingResponse, 0, len(lineup))
	for _, item := range lineup {
		np := NowPlayingResponse{Channel: ChannelFromModel(item.Channel)}
		if item.Entry != nil {
			entry := ScheduleEntryFromModel(item.Entry)
			np.Entry = &entry
		}
		resp.Body.Lineup = append(resp.Body.Lineup, np)
	}

	return resp, nil
}

// GuideScheduleInput is the input for a channel schedule window.
type GuideScheduleInput struct {
	ChannelID string `path:"channelID" doc:"Guide channel ID"`
	Hours     int    `query:"hours" doc:"Window length in hours, default 24" minimum:"1" maximum:"168"`
}

// GuideScheduleOutput is the output for a channel schedule window.
type GuideScheduleOutput struct {
	Body struct {
		ChannelID string                  `json:"channel_id"`
		Entries   []ScheduleEntryResponse `json:"entries"`
	}
}

// Schedule returns a guide channel's upcoming schedule.
func (h *GuideHandler) Schedule(ctx context.Context, input *GuideScheduleInput) (*GuideScheduleOutput, error) {
	entries, err := h.guide.Schedule(ctx, input.ChannelID, time.Now(), input.Hours)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to query schedule", err)
	}

	resp := &GuideScheduleOutput{}
	resp.Body.ChannelID = input.ChannelID
	resp.Body.Entries = make([]ScheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp.Body.Entries = append(resp.Body.Entries, ScheduleEntryFromModel(e))
	}

	return resp, nil
}
