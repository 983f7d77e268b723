package imageproc

import (
	"bytes"
	"net/http"
)

// SniffLen is how many leading bytes SniffContentType looks at.
const SniffLen = 512

// DetectFormat inspects the raw bytes and returns the image format:
// "jpeg", "png", "gif", "webp", or "" if unknown.
func DetectFormat(data []byte) string {
	// JPEG: starts with FF D8 FF
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "jpeg"
	}
	// PNG: starts with 89 50 4E 47 0D 0A 1A 0A
	if len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) {
		return "png"
	}
	// GIF: starts with GIF87a or GIF89a
	if len(data) >= 6 && (bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))) {
		return "gif"
	}
	// WebP: starts with RIFF....WEBP
	if len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "webp"
	}
	return ""
}

// IsSVG reports whether the first SniffLen bytes contain an <svg element.
func IsSVG(data []byte) bool {
	if len(data) > SniffLen {
		data = data[:SniffLen]
	}
	return bytes.Contains(data, []byte("<svg"))
}

// ContentType maps an image format string to its MIME type.
func ContentType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "svg":
		return "image/svg+xml"
	default:
		return "application/octet-stream"
	}
}

// SniffContentType picks a Content-Type for an asset whose upstream did not
// declare one. Known image formats win; anything else goes through
// http.DetectContentType.
func SniffContentType(head []byte) string {
	if format := DetectFormat(head); format != "" {
		return ContentType(format)
	}
	if IsSVG(head) {
		return ContentType("svg")
	}
	return http.DetectContentType(head)
}
