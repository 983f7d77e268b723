package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/leca/ace-image-gateway/internal/api"
	"github.com/leca/ace-image-gateway/internal/imageproc"
	"github.com/leca/ace-image-gateway/internal/model"
	"github.com/leca/ace-image-gateway/internal/upstream"
)

// DeliverImage handles GET <prefix>/{content_id}/{asset_path...} -- looks the
// asset up in the content's metadata, then streams it from the file service.
// Every failure is decided before the first asset byte is written.
func (h *Handler) DeliverImage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &model.Delivery{}
	defer func() { h.recordDelivery(rec, start) }()

	segments, err := pathSegments(r.URL.EscapedPath(), h.Config.RoutePrefix)
	if err != nil {
		rec.Status = http.StatusBadRequest
		api.BadRequest(w, r, "malformed image path")
		return
	}
	info, ok := model.ResolvePath(segments)
	if !ok {
		rec.Status = http.StatusBadRequest
		api.BadRequest(w, r, "image path must be /{content_id}/{asset_path}")
		return
	}
	rec.ContentID, rec.AssetPath = info.ContentID, info.AssetPath
	log := slog.With("content_id", info.ContentID, "asset_path", info.AssetPath,
		"request_id", middleware.GetReqID(r.Context()))

	query, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		rec.Status = http.StatusBadRequest
		api.BadRequest(w, r, "malformed query string")
		return
	}
	// Width and height are accepted and logged but not applied.
	if tr := model.ParseTransform(query); tr != nil {
		rec.Width, rec.Height = tr.Width, tr.Height
		log.Debug("transform requested", "transform", tr.String())
	}

	ctx := upstream.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))

	doc, err := h.Upstream.FetchMetadata(ctx, info.ContentID)
	if err != nil {
		rec.Status = h.statusFor(err)
		log.Warn("metadata lookup failed", "error", err)
		api.Error(w, r, rec.Status, metadataMessage(err))
		return
	}

	rawURI, ok := h.Upstream.ExtractFileURI(doc, info.AssetPath)
	if !ok {
		rec.Status = http.StatusNotFound
		log.Info("no URI for image in metadata")
		api.NotFound(w, r, "no URI for image found")
		return
	}

	assetURI, err := model.ParseAssetURI(rawURI)
	if err != nil {
		rec.Status = http.StatusInternalServerError
		log.Error("bad image URI in metadata", "uri", rawURI, "error", err)
		api.InternalError(w, r, err.Error())
		return
	}

	asset, err := h.Upstream.FetchAsset(ctx, assetURI)
	if err != nil {
		rec.Status = h.statusFor(err)
		log.Warn("asset fetch failed", "uri", rawURI, "error", err)
		api.Error(w, r, rec.Status, "couldn't fetch image")
		return
	}
	defer asset.Body.Close()

	contentType := asset.ContentType
	var head []byte
	if contentType == "" {
		head, err = readHead(asset.Body)
		if err != nil {
			rec.Status = h.statusFor(fmt.Errorf("%w: %v", upstream.ErrUnavailable, err))
			log.Warn("asset read failed", "uri", rawURI, "error", err)
			api.Error(w, r, rec.Status, "couldn't fetch image")
			return
		}
		contentType = imageproc.SniffContentType(head)
	}

	w.Header().Set("Content-Type", contentType)
	if asset.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(asset.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	rec.Status = http.StatusOK

	// Write the already-read bytes first, then stream the rest.
	if len(head) > 0 {
		n, err := w.Write(head)
		rec.Bytes += int64(n)
		if err != nil {
			log.Warn("DeliverImage: failed to write response", "error", err)
			return
		}
	}
	n, err := io.Copy(w, asset.Body)
	rec.Bytes += n
	if err != nil {
		log.Warn("DeliverImage: failed to stream response", "error", err)
	}
}

// statusFor maps a pipeline error onto an HTTP status. Transport failures
// map to Config.UnavailableStatus, which defaults to 404.
func (h *Handler) statusFor(err error) int {
	switch {
	case errors.Is(err, upstream.ErrMalformedDocument),
		errors.Is(err, model.ErrInvalidURI),
		errors.Is(err, model.ErrNoHost):
		return http.StatusInternalServerError
	case errors.Is(err, upstream.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, upstream.ErrUnavailable):
		if h.Config.UnavailableStatus != 0 {
			return h.Config.UnavailableStatus
		}
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func metadataMessage(err error) string {
	if errors.Is(err, upstream.ErrMalformedDocument) {
		return "invalid content metadata"
	}
	return "content not found"
}

// pathSegments strips the route prefix from the escaped path p, splits the
// rest on "/" and unescapes each segment, so an encoded slash stays inside
// its segment.
func pathSegments(p, prefix string) ([]string, error) {
	rest := strings.TrimPrefix(p, prefix)
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return nil, nil
	}
	segments := strings.Split(rest, "/")
	for i, seg := range segments {
		dec, err := url.PathUnescape(seg)
		if err != nil {
			return nil, err
		}
		segments[i] = dec
	}
	return segments, nil
}

// readHead reads up to imageproc.SniffLen bytes for content-type detection.
func readHead(r io.Reader) ([]byte, error) {
	buf := make([]byte, imageproc.SniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}

func (h *Handler) recordDelivery(rec *model.Delivery, start time.Time) {
	if h.DB == nil {
		return
	}
	rec.DurationMS = time.Since(start).Milliseconds()
	if err := h.DB.RecordDelivery(rec); err != nil {
		slog.Error("failed to record delivery", "content_id", rec.ContentID, "error", err)
	}
}
