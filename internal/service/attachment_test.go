package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestIngestDocument(t *testing.T) {
	var savedName string
	media := &mockMediaStorage{
		SaveFunc: func(fileData io.Reader, storedFilename string) (string, error) {
			savedName = storedFilename
			return "/uploads/" + storedFilename, nil
		},
	}

	storage := &mockAttachmentStorage{
		CreateAttachmentFunc: func(ctx context.Context, att *domain.Attachment) (int64, error) {
			att.Id = 9
			return 9, nil
		},
		MarkAttachmentProcessedFunc: func(ctx context.Context, id int64, thumbnailPath *string) error {
			assert.Equal(t, int64(9), id)
			assert.Nil(t, thumbnailPath)
			return nil
		},
	}

	a := NewAttachments(storage, media, 300)
	att, err := a.Ingest(context.Background(), 3, &domain.PendingFile{
		Filename:  "Manual.PDF",
		SizeBytes: 12,
		MimeType:  "application/pdf",
		Data:      strings.NewReader("pdf content!"),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(9), att.Id)
	assert.Equal(t, int64(3), att.MessageId)
	assert.Equal(t, "Manual.PDF", att.OriginalFilename)
	assert.True(t, strings.HasSuffix(savedName, ".pdf"), "stored name keeps lowercased extension: %s", savedName)
	assert.NotEqual(t, "Manual.PDF", savedName)
	assert.True(t, att.IsProcessed)
	assert.Nil(t, att.ThumbnailPath)
}

func TestIngestImageGeneratesThumbnail(t *testing.T) {
	img := pngBytes(t, 600, 400)

	media := &mockMediaStorage{
		SaveFunc: func(fileData io.Reader, storedFilename string) (string, error) {
			return "/uploads/" + storedFilename, nil
		},
		ReadFunc: func(storedFilename string) (io.ReadCloser, error) {
			return nopReadCloser(img), nil
		},
		SaveThumbnailFunc: func(data []byte, thumbFilename string) (string, error) {
			assert.True(t, strings.HasPrefix(thumbFilename, "thumb_"))
			assert.True(t, strings.HasSuffix(thumbFilename, ".jpg"))
			assert.NotEmpty(t, data)
			return thumbFilename, nil
		},
	}

	var markedThumb *string
	storage := &mockAttachmentStorage{
		CreateAttachmentFunc: func(ctx context.Context, att *domain.Attachment) (int64, error) {
			att.Id = 1
			return 1, nil
		},
		MarkAttachmentProcessedFunc: func(ctx context.Context, id int64, thumbnailPath *string) error {
			markedThumb = thumbnailPath
			return nil
		},
	}

	a := NewAttachments(storage, media, 300)
	att, err := a.Ingest(context.Background(), 3, &domain.PendingFile{
		Filename:  "photo.png",
		SizeBytes: int64(len(img)),
		MimeType:  "image/png",
		Data:      bytes.NewReader(img),
	})
	require.NoError(t, err)

	require.NotNil(t, att.ThumbnailPath)
	require.NotNil(t, markedThumb)
	assert.Equal(t, *markedThumb, *att.ThumbnailPath)
	assert.True(t, att.IsProcessed)
}

func TestIngestThumbnailFailureIsNotFatal(t *testing.T) {
	media := &mockMediaStorage{
		SaveFunc: func(fileData io.Reader, storedFilename string) (string, error) {
			return "/uploads/" + storedFilename, nil
		},
		ReadFunc: func(storedFilename string) (io.ReadCloser, error) {
			// Claims image/png but the bytes don't decode.
			return nopReadCloser([]byte("not an image")), nil
		},
	}

	storage := &mockAttachmentStorage{
		CreateAttachmentFunc: func(ctx context.Context, att *domain.Attachment) (int64, error) {
			att.Id = 1
			return 1, nil
		},
		MarkAttachmentProcessedFunc: func(ctx context.Context, id int64, thumbnailPath *string) error {
			assert.Nil(t, thumbnailPath)
			return nil
		},
	}

	a := NewAttachments(storage, media, 300)
	att, err := a.Ingest(context.Background(), 3, &domain.PendingFile{
		Filename: "photo.png",
		MimeType: "image/png",
		Data:     strings.NewReader("not an image"),
	})
	require.NoError(t, err)
	assert.True(t, att.IsProcessed)
	assert.Nil(t, att.ThumbnailPath)
}

func TestIngestSaveFailureLeavesNoRow(t *testing.T) {
	media := &mockMediaStorage{
		SaveFunc: func(fileData io.Reader, storedFilename string) (string, error) {
			return "", errors.New("disk full")
		},
	}

	rowCreated := false
	storage := &mockAttachmentStorage{
		CreateAttachmentFunc: func(ctx context.Context, att *domain.Attachment) (int64, error) {
			rowCreated = true
			return 0, nil
		},
	}

	a := NewAttachments(storage, media, 300)
	_, err := a.Ingest(context.Background(), 3, &domain.PendingFile{
		Filename: "photo.png",
		MimeType: "image/png",
		Data:     strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.False(t, rowCreated)
}

func TestIngestRowFailureRollsBackFile(t *testing.T) {
	var deleted string
	media := &mockMediaStorage{
		SaveFunc: func(fileData io.Reader, storedFilename string) (string, error) {
			return "/uploads/" + storedFilename, nil
		},
		DeleteFileFunc: func(storedFilename string) error {
			deleted = storedFilename
			return nil
		},
	}

	storage := &mockAttachmentStorage{
		CreateAttachmentFunc: func(ctx context.Context, att *domain.Attachment) (int64, error) {
			return 0, domain.ErrMessageNotFound
		},
	}

	a := NewAttachments(storage, media, 300)
	_, err := a.Ingest(context.Background(), 999, &domain.PendingFile{
		Filename: "photo.png",
		MimeType: "image/png",
		Data:     strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	assert.NotEmpty(t, deleted, "orphaned file must be removed when the row insert fails")
}

func TestRemoveFiles(t *testing.T) {
	thumb := "thumb_abc.jpg"

	t.Run("deletes file and thumbnail", func(t *testing.T) {
		var deletedFile, deletedThumb string
		media := &mockMediaStorage{
			DeleteFileFunc: func(storedFilename string) error {
				deletedFile = storedFilename
				return nil
			},
			DeleteThumbnailFunc: func(thumbFilename string) error {
				deletedThumb = thumbFilename
				return nil
			},
		}

		a := NewAttachments(&mockAttachmentStorage{}, media, 300)
		a.RemoveFiles(&domain.Attachment{Id: 1, Filename: "abc.png", ThumbnailPath: &thumb})

		assert.Equal(t, "abc.png", deletedFile)
		assert.Equal(t, "thumb_abc.jpg", deletedThumb)
	})

	t.Run("tolerates missing files", func(t *testing.T) {
		media := &mockMediaStorage{
			DeleteFileFunc: func(storedFilename string) error {
				return fmt.Errorf("file already missing: %w", os.ErrNotExist)
			},
			DeleteThumbnailFunc: func(thumbFilename string) error {
				return fmt.Errorf("thumbnail already missing: %w", os.ErrNotExist)
			},
		}

		a := NewAttachments(&mockAttachmentStorage{}, media, 300)
		// Missing files are a logged discrepancy, never a panic or error.
		a.RemoveFiles(&domain.Attachment{Id: 1, Filename: "gone.png", ThumbnailPath: &thumb})
	})

	t.Run("no thumbnail to delete", func(t *testing.T) {
		thumbDeleted := false
		media := &mockMediaStorage{
			DeleteFileFunc: func(storedFilename string) error { return nil },
			DeleteThumbnailFunc: func(thumbFilename string) error {
				thumbDeleted = true
				return nil
			},
		}

		a := NewAttachments(&mockAttachmentStorage{}, media, 300)
		a.RemoveFiles(&domain.Attachment{Id: 2, Filename: "def.pdf"})

		assert.False(t, thumbDeleted)
	})
}

func TestStoredFilename(t *testing.T) {
	a := storedFilename("My Photo.JPG")
	b := storedFilename("My Photo.JPG")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".jpg"))

	assert.False(t, strings.Contains(storedFilename("../../etc/passwd"), ".."))
}
