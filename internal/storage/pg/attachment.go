package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

// CreateAttachment inserts an attachment row and flips the owning
// message's has_attachments flag in the same transaction, so the
// denormalized flag can never disagree with the attachment rows.
func (s *Storage) CreateAttachment(ctx context.Context, att *domain.Attachment) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return -1, err
	}
	defer tx.Rollback() // The rollback will be ignored if the tx has been committed later in the function.

	uploadedTs := time.Now().UTC().Round(time.Microsecond)

	var id int64
	err = tx.QueryRowContext(ctx, `
	INSERT INTO message_attachments(message_id, filename, original_filename, file_path, file_size, mime_type, thumbnail_path, is_processed, uploaded_at)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`,
		att.MessageId, att.Filename, att.OriginalFilename, att.FilePath, att.FileSize,
		att.MimeType, att.ThumbnailPath, att.IsProcessed, uploadedTs).Scan(&id)
	if err != nil {
		return -1, err
	}

	result, err := tx.ExecContext(ctx, `
	UPDATE chat_messages SET has_attachments = TRUE WHERE id = $1`, att.MessageId)
	if err != nil {
		return -1, err
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return -1, err
	}
	if updated == 0 {
		return -1, domain.ErrMessageNotFound
	}

	if err := tx.Commit(); err != nil {
		return -1, err
	}

	att.Id = id
	att.UploadedAt = uploadedTs
	return id, nil
}

// MarkAttachmentProcessed records the outcome of the ingestion pipeline:
// processed means attempted, thumbnailPath stays nil when generation failed
// or the type is not previewable.
func (s *Storage) MarkAttachmentProcessed(ctx context.Context, id int64, thumbnailPath *string) error {
	result, err := s.db.ExecContext(ctx, `
	UPDATE message_attachments SET
		thumbnail_path = $2,
		is_processed = TRUE
	WHERE id = $1`, id, thumbnailPath)
	if err != nil {
		return err
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated == 0 {
		return fmt.Errorf("attachment %d not found", id)
	}
	return nil
}

func (s *Storage) GetAttachment(ctx context.Context, id int64) (*domain.Attachment, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, message_id, filename, original_filename, file_path, file_size, mime_type, thumbnail_path, is_processed, uploaded_at
	FROM message_attachments
	WHERE id = $1`, id)

	att, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attachment %d not found", id)
	}
	return att, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (*domain.Attachment, error) {
	var att domain.Attachment
	var thumbnail sql.NullString
	if err := row.Scan(
		&att.Id, &att.MessageId, &att.Filename, &att.OriginalFilename, &att.FilePath,
		&att.FileSize, &att.MimeType, &thumbnail, &att.IsProcessed, &att.UploadedAt); err != nil {
		return nil, err
	}
	if thumbnail.Valid {
		att.ThumbnailPath = &thumbnail.String
	}
	return &att, nil
}

func scanAttachments(rows *sql.Rows, err error) ([]*domain.Attachment, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []*domain.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}
	return attachments, rows.Err()
}
