package upstream

import (
	"context"
	"io"
	"net/url"

	"github.com/leca/ace-image-gateway/internal/model"
)

// Asset is an open upstream file response. Body must be closed.
type Asset struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64 // -1 when unknown
}

// FileURL returns the file service URL for a decomposed asset URI.
func (c *Client) FileURL(a model.AssetURI) string {
	u := c.fileBase + "/ace/file/" + url.PathEscape(a.Scheme) + "/" + url.PathEscape(a.Host)
	if a.Path != "" {
		u += "/" + a.Path
	}
	return u
}

// FetchAsset opens the file for a. Non-2xx answers wrap ErrNotFound and
// transport failures wrap ErrUnavailable.
func (c *Client) FetchAsset(ctx context.Context, a model.AssetURI) (*Asset, error) {
	resp, err := c.get(ctx, "fetch asset", c.FileURL(a), "")
	if err != nil {
		return nil, err
	}
	return &Asset{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}
