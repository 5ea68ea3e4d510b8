// Package ingest turns parsed playlist entries into catalog channel
// previews and upsertable channel rows.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/pkg/m3u"
	"golang.org/x/text/encoding/unicode"
)

// ChannelPreview is a transient view of one playlist entry, shown to an
// operator for review or immediately upserted into the catalog.
type ChannelPreview struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Group     string `json:"group"`
	LogoURL   string `json:"logo_url"`
	StreamURL string `json:"stream_url"`
}

// fallbackName is used when an entry carries no usable display name.
const fallbackName = "Channel"

// fallbackSlug is used when a name slugifies to nothing.
const fallbackSlug = "channel"

// ErrUnsupportedExtension rejects playlist uploads that are not M3U.
var ErrUnsupportedExtension = fmt.Errorf("unsupported playlist extension: only .m3u and .m3u8 are accepted")

// ValidateFilename checks that an uploaded playlist has an .m3u or .m3u8
// extension. The check runs before any parsing.
func ValidateFilename(name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".m3u", ".m3u8":
		return nil
	default:
		return ErrUnsupportedExtension
	}
}

// DecodeText best-effort decodes playlist bytes to UTF-8. Ill-formed
// byte sequences are replaced rather than failing the upload.
func DecodeText(data []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// Slugify derives a URL-safe identifier from a display name: lowercased,
// runs of non-alphanumeric characters collapsed to single dashes,
// trimmed. An empty result falls back to "channel".
func Slugify(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// displayName resolves the visible name for an entry: EXTINF title, then
// tvg-name, then tvg-id, then a literal placeholder. Never empty.
func displayName(entry *m3u.Entry) string {
	for _, candidate := range []string{entry.Title, entry.TvgName, entry.TvgID} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return fallbackName
}

// BuildPreviews converts playlist entries to previews in playlist order.
// Identifiers prefer tvg-id and otherwise derive a slug from the display
// name; collisions get deterministic -1, -2, ... suffixes in encounter
// order, so the same playlist always yields the same ids.
func BuildPreviews(entries []*m3u.Entry) []ChannelPreview {
	previews := make([]ChannelPreview, 0, len(entries))
	seen := make(map[string]struct{})
	next := make(map[string]int)

	for _, entry := range entries {
		name := displayName(entry)

		id := strings.TrimSpace(entry.TvgID)
		if id == "" {
			id = Slugify(name)
		}
		// Suffixed candidates are re-checked against every id issued so
		// far, so an explicit tvg-id like "news-1" cannot be duplicated
		// by a generated suffix.
		base := id
		for {
			if _, dup := seen[id]; !dup {
				break
			}
			next[base]++
			id = fmt.Sprintf("%s-%d", base, next[base])
		}
		seen[id] = struct{}{}

		previews = append(previews, ChannelPreview{
			ID:        id,
			Name:      name,
			Group:     entry.GroupTitle,
			LogoURL:   entry.TvgLogo,
			StreamURL: entry.URL,
		})
	}
	return previews
}

// ChannelsFromPreviews converts previews to catalog channel rows for a
// tenant, preserving playlist order. selection optionally restricts the
// upsert to the given preview ids; nil means all.
func ChannelsFromPreviews(tenantID string, previews []ChannelPreview, selection []string) []*models.Channel {
	var keep map[string]struct{}
	if selection != nil {
		keep = make(map[string]struct{}, len(selection))
		for _, id := range selection {
			keep[id] = struct{}{}
		}
	}

	channels := make([]*models.Channel, 0, len(previews))
	for i, p := range previews {
		if keep != nil {
			if _, ok := keep[p.ID]; !ok {
				continue
			}
		}
		channels = append(channels, &models.Channel{
			TenantID:   tenantID,
			Slug:       p.ID,
			Name:       p.Name,
			GroupTitle: p.Group,
			LogoURL:    p.LogoURL,
			StreamURL:  p.StreamURL,
			OrderIndex: i,
		})
	}
	return channels
}
