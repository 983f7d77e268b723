package model

import (
	"fmt"
	"strings"
	"time"
)

// ContentImageInfo identifies a requested image: the content item that owns
// it and the name of the file entry inside that item's metadata.
type ContentImageInfo struct {
	ContentID string
	AssetPath string
}

// ResolvePath splits request path segments into a content id and an asset
// path. It returns false when fewer than two segments are given. Segments are
// not decoded or validated.
func ResolvePath(segments []string) (ContentImageInfo, bool) {
	if len(segments) < 2 {
		return ContentImageInfo{}, false
	}
	return ContentImageInfo{
		ContentID: segments[0],
		AssetPath: strings.Join(segments[1:], "/"),
	}, true
}

// Transform is a requested resize. It is parsed and recorded but never
// applied to image data.
type Transform struct {
	Width  int
	Height int
}

func (t Transform) String() string {
	return fmt.Sprintf("[width:%d,height:%d]", t.Width, t.Height)
}

// Delivery is one handled image request, kept in the delivery log.
type Delivery struct {
	ID         string    `json:"id"`
	ContentID  string    `json:"content_id"`
	AssetPath  string    `json:"asset_path"`
	Status     int       `json:"status"`
	Bytes      int64     `json:"bytes"`
	DurationMS int64     `json:"duration_ms"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DeliveryStats aggregates the delivery log by outcome.
type DeliveryStats struct {
	Total        int   `json:"total"`
	OK           int   `json:"ok"`
	ClientErrors int   `json:"client_errors"`
	NotFound     int   `json:"not_found"`
	ServerErrors int   `json:"server_errors"`
	BytesServed  int64 `json:"bytes_served"`
}
