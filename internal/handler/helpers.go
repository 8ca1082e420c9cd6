package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/askchopper-dev/askchopper/internal/domain"
	apperrors "github.com/askchopper-dev/askchopper/internal/errors"
	"github.com/askchopper-dev/askchopper/internal/utils"
	"github.com/askchopper-dev/askchopper/internal/validation"
)

// parseMultipartRequest parses a multipart form request and extracts the JSON payload
// and any uploaded files. Returns the parsed body, pending files, and a cleanup function.
func parseMultipartRequest[T any](w http.ResponseWriter, r *http.Request, h *Handler) (body T, pendingFiles []*domain.PendingFile, cleanup func(), err error) {
	maxRequestSize := validation.CalculateMaxRequestSize(h.cfg.Public.MaxTotalAttachmentSize, 1<<20)
	if err = validation.ValidateAndParseMultipart(r, w, maxRequestSize); err != nil {
		maxSizeMB := validation.FormatSizeMB(h.cfg.Public.MaxTotalAttachmentSize)
		err = fmt.Errorf("%w: total attachment size exceeds the limit of %.0f MB. Please reduce the number or size of files", validation.ErrPayloadTooLarge, maxSizeMB)
		return
	}

	// Get JSON payload from the "json" form field
	jsonPayload := r.FormValue("json")
	if jsonPayload == "" {
		err = &apperrors.ErrorWithStatusCode{Message: "missing JSON payload in multipart form", StatusCode: http.StatusBadRequest}
		return
	}

	if err = utils.DecodeValidate(io.NopCloser(strings.NewReader(jsonPayload)), &body); err != nil {
		return
	}

	files := r.MultipartForm.File["attachments"]
	if len(files) > 0 {
		pendingFiles, err = validation.ValidateAttachments(files, validation.AttachmentPolicy{
			MaxFiles:             h.cfg.Public.MaxAttachmentsPerMessage,
			MaxFileSize:          h.cfg.Public.MaxAttachmentSizeBytes,
			MaxTotalSize:         h.cfg.Public.MaxTotalAttachmentSize,
			AllowedImageMimes:    h.cfg.Public.AllowedImageMimeTypes,
			AllowedDocumentMimes: h.cfg.Public.AllowedDocumentMimeTypes,
		})
		if err != nil {
			return
		}

		cleanup = func() {
			for _, pf := range pendingFiles {
				if closer, ok := pf.Data.(io.Closer); ok {
					closer.Close()
				}
			}
		}
	} else {
		cleanup = func() {} // No-op if no files
	}

	return
}

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

// writeError maps sentinel errors onto HTTP statuses before falling back
// to the generic status-code writer.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrPayloadTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, validation.ErrInvalidMimeType):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, validation.ErrTooManyAttachments),
		errors.Is(err, validation.ErrEmptyContent):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrMessageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrRunInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrConfiguration):
		http.Error(w, "assistant is not configured", http.StatusServiceUnavailable)
	default:
		utils.WriteErrorAndStatusCode(w, err)
	}
}
