// Package video provides the upload, playback and listing routes.
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mediavault/internal/media"
	"mediavault/pkg/api"
	"mediavault/pkg/object"

	"go.uber.org/zap"
)

// FormField is the multipart field carrying the uploaded file.
const FormField = "video"

// Service is the part of media.Service the routes need.
type Service interface {
	Upload(ctx context.Context, filename string, buf []byte) (object.Object, error)
	Play(ctx context.Context, filename, rangeSpec string) (media.StreamDescriptor, error)
	List(ctx context.Context) ([]object.Object, error)
	Evict(ctx context.Context, filename string)
}

type handler struct {
	svc       Service
	maxUpload int64
	log       *zap.Logger
	now       func() time.Time
}

// VideoHandler returns a mux serving:
//
//	POST   /upload/video
//	GET    /static/video/{filename}
//	GET    /videos
//	DELETE /cache/video/{filename}
func VideoHandler(svc Service, maxUpload int64, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{svc: svc, maxUpload: maxUpload, log: logger, now: time.Now}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/video", h.upload)
	mux.HandleFunc("GET /static/video/{filename}", h.stream)
	mux.HandleFunc("GET /videos", h.list)
	mux.HandleFunc("DELETE /cache/video/{filename}", h.evict)
	return mux
}

// multipart headers and boundaries on top of the file itself
const formOverhead = 1 << 20

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	tooLarge := fmt.Sprintf("File too large, max size is %dMB!", h.maxUpload>>20)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusBadRequest, "PayloadTooLargeError", tooLarge)
			return
		}
		h.writeError(w, http.StatusBadRequest, "BadRequestError", "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(FormField)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "BadRequestError", "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		h.writeError(w, http.StatusBadRequest, "PayloadTooLargeError", tooLarge)
		return
	}
	buf, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		h.log.Error("read upload", zap.String("filename", header.Filename), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "InternalServerError", "Internal server error")
		return
	}
	if int64(len(buf)) > h.maxUpload {
		h.writeError(w, http.StatusBadRequest, "PayloadTooLargeError", tooLarge)
		return
	}

	h.log.Debug("received file",
		zap.String("filename", header.Filename),
		zap.String("declared_type", header.Header.Get("Content-Type")),
		zap.Int64("size", header.Size),
	)

	if _, err := h.svc.Upload(r.Context(), header.Filename, buf); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) stream(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Play(r.Context(), r.PathValue("filename"), r.Header.Get("Range"))
	if err != nil {
		h.fail(w, err)
		return
	}

	for k, v := range d.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(d.Status)
	if _, err := w.Write(d.Body); err != nil {
		// client went away; nothing was cached or stored on this path
		h.log.Debug("stream aborted", zap.String("filename", r.PathValue("filename")), zap.Error(err))
	}
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	objs, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	response := make(api.ListResponse, 0, len(objs))
	for _, obj := range objs {
		response = append(response, api.VideoInfo{
			Filename:     obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (h *handler) evict(w http.ResponseWriter, r *http.Request) {
	h.svc.Evict(r.Context(), r.PathValue("filename"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	status := media.HTTPStatus(err)
	// the request id middleware sets the response header before the handler runs
	rid := zap.String("request_id", w.Header().Get("X-Request-ID"))
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", rid, zap.Error(err))
	} else {
		h.log.Debug("request rejected", rid, zap.Error(err))
	}
	h.writeError(w, status, media.KindName(err), media.Message(err))
}

func (h *handler) writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.NewErrorResponse(status, kind, message, h.now()))
}
