package upstream

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/bytedance/sonic"
)

// Document is a decoded metadata document. No structure is assumed beyond
// what ExtractFileURI looks up.
type Document = any

// MetadataURL returns the metadata service URL for contentID.
func (c *Client) MetadataURL(contentID string) string {
	return c.metadataBase + "/ace/content/contentid/" + url.PathEscape(contentID)
}

// FetchMetadata retrieves and decodes the metadata document for contentID.
// Upstream failures wrap ErrNotFound or ErrUnavailable; an unparsable body
// wraps ErrMalformedDocument.
func (c *Client) FetchMetadata(ctx context.Context, contentID string) (Document, error) {
	target := c.MetadataURL(contentID)
	resp, err := c.get(ctx, "fetch metadata", target, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: "read metadata", URL: target, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}

	var doc Document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, &RequestError{Op: "decode metadata", URL: target, Err: fmt.Errorf("%w: %v", ErrMalformedDocument, err)}
	}
	return doc, nil
}

// ExtractFileURI looks up
// aspects.<files aspect>.data.files.<assetPath>.fileUri in doc. It returns
// false when any key is missing or any level has the wrong type.
func (c *Client) ExtractFileURI(doc Document, assetPath string) (string, bool) {
	return lookupString(doc, "aspects", c.filesAspect, "data", "files", assetPath, "fileUri")
}

// lookupString walks objects along keys and returns the string leaf.
func lookupString(doc Document, keys ...string) (string, bool) {
	cur := doc
	for _, key := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = obj[key]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}
