package validation

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

// AttachmentPolicy is the upload acceptance policy: which MIME types are
// allowed and how much can be uploaded per message.
type AttachmentPolicy struct {
	MaxFiles             int
	MaxFileSize          int64
	MaxTotalSize         int64
	AllowedImageMimes    []string
	AllowedDocumentMimes []string
}

func (p AttachmentPolicy) allowedMimes() map[string]bool {
	allowed := make(map[string]bool)
	for _, m := range p.AllowedImageMimes {
		allowed[m] = true
	}
	for _, m := range p.AllowedDocumentMimes {
		allowed[m] = true
	}
	return allowed
}

// ValidateAttachments checks the uploaded files against the policy and
// returns them as pending files ready for ingestion. Callers own closing
// the returned readers on failure paths after this function succeeds.
func ValidateAttachments(fileHeaders []*multipart.FileHeader, policy AttachmentPolicy) ([]*domain.PendingFile, error) {
	if len(fileHeaders) == 0 {
		return nil, nil
	}
	if len(fileHeaders) > policy.MaxFiles {
		return nil, fmt.Errorf("%w: %d files, limit %d", ErrTooManyAttachments, len(fileHeaders), policy.MaxFiles)
	}

	allowed := policy.allowedMimes()

	var totalSize int64
	var pendingFiles []*domain.PendingFile

	closeAll := func() {
		for _, pf := range pendingFiles {
			if closer, ok := pf.Data.(multipart.File); ok {
				closer.Close()
			}
		}
	}

	for _, fileHeader := range fileHeaders {
		if fileHeader.Size > policy.MaxFileSize {
			closeAll()
			return nil, fmt.Errorf("%w: %s is %.1f MB, per-file limit %.1f MB",
				ErrPayloadTooLarge, fileHeader.Filename, FormatSizeMB(fileHeader.Size), FormatSizeMB(policy.MaxFileSize))
		}
		totalSize += fileHeader.Size
		if totalSize > policy.MaxTotalSize {
			closeAll()
			return nil, fmt.Errorf("%w: combined attachments exceed %.1f MB",
				ErrPayloadTooLarge, FormatSizeMB(policy.MaxTotalSize))
		}

		mimeType, err := DetectMimeType(fileHeader)
		if err != nil {
			closeAll()
			return nil, err
		}
		if !allowed[mimeType] {
			closeAll()
			return nil, fmt.Errorf("%w: %s (file: %s)", ErrInvalidMimeType, mimeType, fileHeader.Filename)
		}

		file, err := fileHeader.Open()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open uploaded file: %w", err)
		}

		pendingFiles = append(pendingFiles, &domain.PendingFile{
			Filename:  fileHeader.Filename,
			SizeBytes: fileHeader.Size,
			MimeType:  mimeType,
			Data:      file,
		})
	}

	return pendingFiles, nil
}

// DetectMimeType resolves a file's MIME type from the part header, falling
// back to the filename extension when the header is missing or generic.
func DetectMimeType(fileHeader *multipart.FileHeader) (string, error) {
	mimeType := fileHeader.Header.Get("Content-Type")

	if mimeType == "" || mimeType == "application/octet-stream" {
		ext := filepath.Ext(fileHeader.Filename)
		if detectedType := mime.TypeByExtension(ext); detectedType != "" {
			mimeType = detectedType
		}
	}

	if mimeType == "" {
		return "", fmt.Errorf("%w: could not detect MIME type for file %s", ErrInvalidMimeType, fileHeader.Filename)
	}

	// Strip parameters like "; charset=utf-8" so policy lookups match.
	parsed, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "", fmt.Errorf("%w: malformed MIME type %q for file %s", ErrInvalidMimeType, mimeType, fileHeader.Filename)
	}
	return parsed, nil
}
