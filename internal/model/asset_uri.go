package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrInvalidURI = errors.New("invalid image URI")
	ErrNoHost     = errors.New("image URI has no host")
)

// AssetURI is a file URI from a metadata document, split into the parts the
// file service addresses files by.
type AssetURI struct {
	Scheme string
	Host   string
	// Path is percent-encoded and has no leading slash.
	Path string
}

// ParseAssetURI decomposes raw. URIs without a host, relative ones included,
// are rejected.
func ParseAssetURI(raw string) (AssetURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return AssetURI{}, fmt.Errorf("%w: %s", ErrInvalidURI, raw)
	}
	host := u.Hostname()
	if host == "" {
		return AssetURI{}, fmt.Errorf("%w: %s", ErrNoHost, raw)
	}
	return AssetURI{
		Scheme: u.Scheme,
		Host:   host,
		Path:   strings.TrimPrefix(u.EscapedPath(), "/"),
	}, nil
}
