package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/guidesync/guidesync/internal/ingest"
	"github.com/guidesync/guidesync/internal/service"
)

// PlaylistHandler handles M3U playlist ingestion endpoints.
type PlaylistHandler struct {
	playlists *service.PlaylistService
}

// NewPlaylistHandler creates a new playlist handler.
func NewPlaylistHandler(playlists *service.PlaylistService) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists}
}

// Register registers the playlist routes with the API.
func (h *PlaylistHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "previewPlaylist",
		Method:      "POST",
		Path:        "/api/v1/ingest/m3u/preview",
		Summary:     "Preview playlist upload",
		Description: "Parses an uploaded M3U playlist and returns channel previews without touching the catalog",
		Tags:        []string{"Playlist"},
	}, h.Preview)

	huma.Register(api, huma.Operation{
		OperationID: "importPlaylist",
		Method:      "POST",
		Path:        "/api/v1/ingest/m3u",
		Summary:     "Import playlist upload",
		Description: "Parses an uploaded M3U playlist and upserts its channels into a tenant's catalog",
		Tags:        []string{"Playlist"},
	}, h.Import)

	huma.Register(api, huma.Operation{
		OperationID: "importPlaylistURL",
		Method:      "POST",
		Path:        "/api/v1/ingest/m3u-url",
		Summary:     "Import remote playlist",
		Description: "Downloads a remote M3U playlist and upserts its channels into a tenant's catalog",
		Tags:        []string{"Playlist"},
	}, h.ImportURL)
}

// PreviewPlaylistInput is the input for previewing a playlist upload.
// The playlist content travels as the raw request body.
type PreviewPlaylistInput struct {
	Filename string `query:"filename" doc:"Uploaded file name; must end in .m3u or .m3u8" minLength:"1"`
	RawBody  []byte `contentType:"application/octet-stream"`
}

// PreviewPlaylistOutput is the output for previewing a playlist upload.
type PreviewPlaylistOutput struct {
	Body service.PlaylistImportResult
}

// Preview parses an uploaded playlist and returns channel previews.
func (h *PlaylistHandler) Preview(ctx context.Context, input *PreviewPlaylistInput) (*PreviewPlaylistOutput, error) {
	result, err := h.playlists.Preview(input.Filename, input.RawBody)
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedExtension) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to parse playlist", err)
	}

	return &PreviewPlaylistOutput{Body: *result}, nil
}

// ImportPlaylistInput is the input for importing a playlist upload.
type ImportPlaylistInput struct {
	Filename string   `query:"filename" doc:"Uploaded file name; must end in .m3u or .m3u8" minLength:"1"`
	Tenant   string   `query:"tenant"`
	Only     []string `query:"only" doc:"Optional preview ids to import; omit to import all"`
	RawBody  []byte   `contentType:"application/octet-stream"`
}

// ImportPlaylistOutput is the output for importing a playlist upload.
type ImportPlaylistOutput struct {
	Body service.PlaylistImportResult
}

// Import parses an uploaded playlist and upserts its channels.
func (h *PlaylistHandler) Import(ctx context.Context, input *ImportPlaylistInput) (*ImportPlaylistOutput, error) {
	result, err := h.playlists.Import(ctx, tenantOrDefault(input.Tenant), input.Filename, input.RawBody, selection(input.Only))
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedExtension) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to import playlist", err)
	}

	return &ImportPlaylistOutput{Body: *result}, nil
}

// ImportPlaylistURLInput is the input for importing a remote playlist.
type ImportPlaylistURLInput struct {
	Body struct {
		Tenant string   `json:"tenant,omitempty"`
		URL    string   `json:"url" doc:"Remote playlist URL" minLength:"1"`
		Only   []string `json:"only,omitempty" doc:"Optional preview ids to import; omit to import all"`
		// Preview skips the catalog upsert and just returns previews.
		Preview bool `json:"preview,omitempty"`
	}
}

// ImportPlaylistURLOutput is the output for importing a remote playlist.
type ImportPlaylistURLOutput struct {
	Body service.PlaylistImportResult
}

// ImportURL downloads a remote playlist and imports or previews it.
func (h *PlaylistHandler) ImportURL(ctx context.Context, input *ImportPlaylistURLInput) (*ImportPlaylistURLOutput, error) {
	var (
		result *service.PlaylistImportResult
		err    error
	)
	if input.Body.Preview {
		result, err = h.playlists.PreviewURL(ctx, input.Body.URL)
	} else {
		result, err = h.playlists.ImportURL(ctx, tenantOrDefault(input.Body.Tenant), input.Body.URL, selection(input.Body.Only))
	}
	if err != nil {
		return nil, huma.Error502BadGateway("failed to fetch or parse remote playlist", err)
	}

	return &ImportPlaylistURLOutput{Body: *result}, nil
}

// selection normalizes an empty id list to nil, which imports all
// previewed channels.
func selection(only []string) []string {
	if len(only) == 0 {
		return nil
	}
	return only
}
