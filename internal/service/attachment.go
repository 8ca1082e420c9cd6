package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/askchopper-dev/askchopper/internal/domain"
	"github.com/askchopper-dev/askchopper/internal/service/utils"
)

type AttachmentService interface {
	Ingest(ctx context.Context, messageID int64, file *domain.PendingFile) (*domain.Attachment, error)
	RemoveFiles(att *domain.Attachment)
}

type Attachments struct {
	storage        AttachmentStorage
	media          MediaStorage
	thumbnailMaxPx int
}

type AttachmentStorage interface {
	CreateAttachment(ctx context.Context, att *domain.Attachment) (int64, error)
	MarkAttachmentProcessed(ctx context.Context, id int64, thumbnailPath *string) error
	GetAttachment(ctx context.Context, id int64) (*domain.Attachment, error)
}

func NewAttachments(storage AttachmentStorage, media MediaStorage, thumbnailMaxPx int) *Attachments {
	return &Attachments{storage, media, thumbnailMaxPx}
}

// Ingest writes the file to durable storage, creates the attachment row
// bound to its owning message, then attempts thumbnail generation for
// previewable types. is_processed means the pipeline was attempted, not
// that a thumbnail exists.
func (a *Attachments) Ingest(ctx context.Context, messageID int64, file *domain.PendingFile) (*domain.Attachment, error) {
	storedName := storedFilename(file.Filename)

	fullPath, err := a.media.Save(file.Data, storedName)
	if err != nil {
		// No row without a file: orphan rows are worse than a failed upload.
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	att := &domain.Attachment{
		MessageId:        messageID,
		Filename:         storedName,
		OriginalFilename: file.Filename,
		FilePath:         fullPath,
		FileSize:         file.SizeBytes,
		MimeType:         file.MimeType,
	}
	if _, err := a.storage.CreateAttachment(ctx, att); err != nil {
		// Roll the file back so storage and rows stay in sync.
		if delErr := a.media.DeleteFile(storedName); delErr != nil && !errors.Is(delErr, os.ErrNotExist) {
			slog.Error("failed to clean up file after row insert failure", "filename", storedName, "error", delErr)
		}
		return nil, err
	}

	var thumbName *string
	if utils.IsThumbnailable(file.MimeType) {
		if name, err := a.generateThumbnail(att); err != nil {
			slog.Warn("thumbnail generation failed", "attachment_id", att.Id, "filename", storedName, "error", err)
		} else {
			thumbName = &name
		}
	}

	if err := a.storage.MarkAttachmentProcessed(ctx, att.Id, thumbName); err != nil {
		return nil, err
	}
	att.ThumbnailPath = thumbName
	att.IsProcessed = true
	return att, nil
}

func (a *Attachments) generateThumbnail(att *domain.Attachment) (string, error) {
	src, err := a.media.Read(att.Filename)
	if err != nil {
		return "", err
	}
	defer src.Close()

	thumb, err := utils.GenerateThumbnail(src, a.thumbnailMaxPx)
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(att.Filename, filepath.Ext(att.Filename))
	return a.media.SaveThumbnail(thumb, "thumb_"+base+".jpg")
}

// RemoveFiles deletes the primary file and thumbnail from storage. Missing
// files are logged, not raised: the row may outlive a manually pruned disk.
func (a *Attachments) RemoveFiles(att *domain.Attachment) {
	if err := a.media.DeleteFile(att.Filename); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("attachment file already missing", "attachment_id", att.Id, "filename", att.Filename)
		} else {
			slog.Error("failed to delete attachment file", "attachment_id", att.Id, "error", err)
		}
	}
	if att.ThumbnailPath != nil {
		if err := a.media.DeleteThumbnail(*att.ThumbnailPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				slog.Warn("thumbnail already missing", "attachment_id", att.Id, "thumbnail", *att.ThumbnailPath)
			} else {
				slog.Error("failed to delete thumbnail", "attachment_id", att.Id, "error", err)
			}
		}
	}
}

// storedFilename builds a collision-free on-disk name keeping the original
// extension so mime sniffing by extension keeps working.
func storedFilename(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalFilename)))
	return uuid.NewString() + ext
}
