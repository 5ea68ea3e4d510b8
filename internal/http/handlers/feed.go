package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/guidesync/guidesync/internal/service"
	"github.com/guidesync/guidesync/pkg/xmltv"
)

// previewChannelLimit caps the channel list returned by feed previews.
const previewChannelLimit = 100

// FeedHandler handles ad-hoc XMLTV feed operations: inspecting a feed by
// URL and running the sync pipeline without a stored source.
type FeedHandler struct {
	syncer *service.SyncService
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(syncer *service.SyncService) *FeedHandler {
	return &FeedHandler{syncer: syncer}
}

// Register registers the feed routes with the API.
func (h *FeedHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "previewFeed",
		Method:      "POST",
		Path:        "/api/v1/feeds/preview",
		Summary:     "Preview an XMLTV feed",
		Description: "Fetches and parses a feed without writing anything, returning the first channels and totals",
		Tags:        []string{"Feeds"},
	}, h.Preview)

	huma.Register(api, huma.Operation{
		OperationID: "listFeedChannels",
		Method:      "GET",
		Path:        "/api/v1/feeds/channels",
		Summary:     "List channels in an XMLTV feed",
		Description: "Fetches and parses a feed without writing anything, returning every channel definition",
		Tags:        []string{"Feeds"},
	}, h.Channels)

	huma.Register(api, huma.Operation{
		OperationID: "syncFeedURL",
		Method:      "POST",
		Path:        "/api/v1/feeds/sync",
		Summary:     "Sync an ad-hoc feed URL",
		Description: "Runs the full sync pipeline for a feed URL without a stored EPG source",
		Tags:        []string{"Feeds"},
	}, h.SyncURL)

	huma.Register(api, huma.Operation{
		OperationID: "uploadFeed",
		Method:      "POST",
		Path:        "/api/v1/feeds/upload",
		Summary:     "Upload an XMLTV document",
		Description: "Runs the parse, reconcile and write stages on an uploaded XMLTV document",
		Tags:        []string{"Feeds"},
	}, h.Upload)
}

// EpgChannelResponse is a channel definition parsed from a feed.
type EpgChannelResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon,omitempty"`
	Lang        string `json:"lang,omitempty"`
}

func epgChannelsFromParsed(channels []*xmltv.Channel) []EpgChannelResponse {
	out := make([]EpgChannelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, EpgChannelResponse{
			ID:          ch.ID,
			DisplayName: ch.DisplayName,
			Icon:        ch.Icon,
			Lang:        ch.Lang,
		})
	}
	return out
}

// PreviewFeedInput is the input for previewing a feed.
type PreviewFeedInput struct {
	Body struct {
		URL   string `json:"url" doc:"XMLTV feed URL"`
		Force bool   `json:"force,omitempty" doc:"Bypass the feed cache freshness window"`
	}
}

// PreviewFeedOutput is the output for previewing a feed.
type PreviewFeedOutput struct {
	Body struct {
		Channels     []EpgChannelResponse `json:"channels"`
		ChannelCount int                  `json:"channel_count"`
		ProgramCount int                  `json:"program_count"`
		FromCache    bool                 `json:"from_cache"`
	}
}

// Preview parses a feed read-only and summarizes it.
func (h *FeedHandler) Preview(ctx context.Context, input *PreviewFeedInput) (*PreviewFeedOutput, error) {
	preview, err := h.syncer.InspectFeed(ctx, input.Body.URL, input.Body.Force, previewChannelLimit)
	if err != nil {
		return nil, feedError(err)
	}

	resp := &PreviewFeedOutput{}
	resp.Body.Channels = epgChannelsFromParsed(preview.Channels)
	resp.Body.ChannelCount = preview.ChannelCount
	resp.Body.ProgramCount = preview.ProgramCount
	resp.Body.FromCache = preview.FromCache
	return resp, nil
}

// ListFeedChannelsInput is the input for listing a feed's channels.
type ListFeedChannelsInput struct {
	URL   string `query:"url" required:"true" doc:"XMLTV feed URL"`
	Force bool   `query:"force" doc:"Bypass the feed cache freshness window"`
}

// ListFeedChannelsOutput is the output for listing a feed's channels.
type ListFeedChannelsOutput struct {
	Body struct {
		Channels []EpgChannelResponse `json:"channels"`
	}
}

// Channels parses a feed read-only and returns every channel definition.
func (h *FeedHandler) Channels(ctx context.Context, input *ListFeedChannelsInput) (*ListFeedChannelsOutput, error) {
	preview, err := h.syncer.InspectFeed(ctx, input.URL, input.Force, 0)
	if err != nil {
		return nil, feedError(err)
	}

	resp := &ListFeedChannelsOutput{}
	resp.Body.Channels = epgChannelsFromParsed(preview.Channels)
	return resp, nil
}

// SyncFeedURLInput is the input for syncing an ad-hoc feed URL.
type SyncFeedURLInput struct {
	Body struct {
		URL    string `json:"url" doc:"XMLTV feed URL"`
		Tenant string `json:"tenant,omitempty" doc:"Tenant whose channels are reconciled"`
		Force  bool   `json:"force,omitempty" doc:"Bypass the feed cache freshness window"`
	}
}

// SyncFeedURLOutput is the output for syncing an ad-hoc feed URL.
type SyncFeedURLOutput struct {
	Body service.SyncResult
}

// SyncURL runs the sync pipeline for a feed URL without a stored source.
func (h *FeedHandler) SyncURL(ctx context.Context, input *SyncFeedURLInput) (*SyncFeedURLOutput, error) {
	result, err := h.syncer.SyncURL(ctx, tenantOrDefault(input.Body.Tenant), input.Body.URL, input.Body.Force)
	if err != nil {
		return nil, feedError(err)
	}
	return &SyncFeedURLOutput{Body: *result}, nil
}

// UploadFeedInput is the input for uploading an XMLTV document.
type UploadFeedInput struct {
	Tenant  string `query:"tenant" doc:"Tenant whose channels are reconciled"`
	RawBody []byte `contentType:"application/octet-stream" doc:"XMLTV document, optionally gzip/xz/bzip2 compressed"`
}

// UploadFeedOutput is the output for uploading an XMLTV document.
type UploadFeedOutput struct {
	Body service.SyncResult
}

// Upload runs the parse, reconcile and write stages on an uploaded
// document.
func (h *FeedHandler) Upload(ctx context.Context, input *UploadFeedInput) (*UploadFeedOutput, error) {
	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("request body is empty")
	}

	result, err := h.syncer.SyncUpload(ctx, tenantOrDefault(input.Tenant), input.RawBody)
	if err != nil {
		return nil, feedError(err)
	}
	return &UploadFeedOutput{Body: *result}, nil
}

// feedError maps pipeline failures to HTTP errors: remote feed problems
// are 502, everything else 500.
func feedError(err error) error {
	var syncError *service.SyncError
	if errors.As(err, &syncError) {
		if syncError.Step == service.StepDownload {
			return huma.Error502BadGateway(fmt.Sprintf("sync failed during %s", syncError.Step), err)
		}
		return huma.Error422UnprocessableEntity(fmt.Sprintf("sync failed during %s", syncError.Step), err)
	}
	return huma.Error500InternalServerError("sync failed", err)
}
